// Package publisher serializes outbound events onto the bus. Records are
// keyed by correlation id (responses) or client id (notifications) so
// downstream consumers see per-key ordering.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"riskgate/internal/platform/kafka/producer"
	"riskgate/internal/validation/events"
)

// Publisher implements the pipeline's ResponsePublisher and Notifier ports.
type Publisher struct {
	producer *producer.Producer
}

// New creates a bus-backed publisher.
func New(p *producer.Producer) *Publisher {
	return &Publisher{producer: p}
}

// PublishValidation delivers a decision response to the account service.
func (p *Publisher) PublishValidation(ctx context.Context, resp events.ValidationResponse) error {
	return p.publish(ctx, events.TopicValidationResponses, resp.CorrelationID, resp)
}

// PublishTransaction delivers a live-transaction decision.
func (p *Publisher) PublishTransaction(ctx context.Context, resp events.TransactionValidationResponse) error {
	return p.publish(ctx, events.TopicTransactionResponses, resp.CorrelationID, resp)
}

// NotifyManualReview alerts the supervision team.
func (p *Publisher) NotifyManualReview(ctx context.Context, n events.ManualReviewNotification) error {
	return p.publish(ctx, events.TopicNotifications, n.ClientID, n)
}

// NotifyFraudAlert raises a fraud alert for a suspicious transaction.
func (p *Publisher) NotifyFraudAlert(ctx context.Context, n events.FraudAlertNotification) error {
	return p.publish(ctx, events.TopicNotifications, n.ClientID, n)
}

func (p *Publisher) publish(ctx context.Context, topic, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	return p.producer.Publish(ctx, topic, []byte(key), value)
}
