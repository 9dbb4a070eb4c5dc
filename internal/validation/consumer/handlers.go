package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"riskgate/internal/platform/kafka/consumer"
	"riskgate/internal/validation/events"
)

// Pipeline is the subset of the decision pipeline the handlers invoke.
type Pipeline interface {
	ProcessValidationRequest(ctx context.Context, ev events.ValidationRequest) error
	ProcessTransactionRequest(ctx context.Context, ev events.TransactionValidationRequest) error
}

// ValidationHandler decodes account-opening validation requests.
type ValidationHandler struct {
	pipeline Pipeline
	logger   *slog.Logger
}

// NewValidationHandler creates the handler for the validation request topic.
func NewValidationHandler(p Pipeline, logger *slog.Logger) *ValidationHandler {
	return &ValidationHandler{pipeline: p, logger: logger}
}

// Handle decodes and processes one validation request. Malformed payloads
// are logged and committed; they can never succeed on redelivery.
func (h *ValidationHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	var ev events.ValidationRequest
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		h.logger.Error("failed to unmarshal validation request",
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}
	if ev.CorrelationID == "" {
		h.logger.Error("validation request missing correlation id",
			"key", string(msg.Key),
		)
		return nil
	}
	return h.pipeline.ProcessValidationRequest(ctx, ev)
}

// TransactionHandler decodes live transaction validation requests.
type TransactionHandler struct {
	pipeline Pipeline
	logger   *slog.Logger
}

// NewTransactionHandler creates the handler for the transaction request topic.
func NewTransactionHandler(p Pipeline, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{pipeline: p, logger: logger}
}

// Handle decodes and processes one transaction validation request.
func (h *TransactionHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	var ev events.TransactionValidationRequest
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		h.logger.Error("failed to unmarshal transaction request",
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}
	if ev.CorrelationID == "" || ev.ClientID == "" {
		h.logger.Error("transaction request missing identifiers",
			"key", string(msg.Key),
		)
		return nil
	}
	return h.pipeline.ProcessTransactionRequest(ctx, ev)
}
