// Package pipeline orchestrates the request validation state machine:
// idempotent ingest, fast-fail format validation, risk scoring, the decision
// policy, limit assignment, and response publication. Manual review
// decisions from the supervision API re-enter the same decision code paths.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"riskgate/internal/validation/events"
	"riskgate/internal/validation/fraud"
	"riskgate/internal/validation/limits"
	"riskgate/internal/validation/metrics"
	"riskgate/internal/validation/models"
	"riskgate/internal/validation/store/request"
	id "riskgate/pkg/domain"
	dErrors "riskgate/pkg/domain-errors"
	"riskgate/pkg/platform/sentinel"
)

// ResponsePublisher delivers decision responses to the originating service.
type ResponsePublisher interface {
	PublishValidation(ctx context.Context, resp events.ValidationResponse) error
	PublishTransaction(ctx context.Context, resp events.TransactionValidationResponse) error
}

// Notifier delivers alerts to the notification service.
type Notifier interface {
	NotifyManualReview(ctx context.Context, n events.ManualReviewNotification) error
	NotifyFraudAlert(ctx context.Context, n events.FraudAlertNotification) error
}

// HistoryProvider assembles the injected lookups for the scoring engine.
type HistoryProvider interface {
	RecordSubmission(ctx context.Context, email string)
	Snapshot(ctx context.Context, email, identityNumber, excludeCorrelationID string) (fraud.History, error)
}

// Clock is injected for testability.
type Clock func() time.Time

// Config holds the decision policy knobs.
type Config struct {
	AutoRejectThreshold int
	RetentionWindow     time.Duration
}

// DefaultConfig returns the production policy defaults.
func DefaultConfig() Config {
	return Config{
		AutoRejectThreshold: 80,
		RetentionWindow:     7 * 24 * time.Hour,
	}
}

// autoRejectFlags independently force rejection regardless of the numeric
// total: an unusable identity cannot be salvaged by a human reviewer.
var autoRejectFlags = map[string]struct{}{
	models.FlagIdentityMissing:       {},
	models.FlagIdentityInvalidFormat: {},
}

// Service is the pipeline orchestrator.
type Service struct {
	store      request.Store
	engine     *fraud.Engine
	txEval     *fraud.TransactionEvaluator
	calculator *limits.Calculator
	history    HistoryProvider
	publisher  ResponsePublisher
	notifier   Notifier
	cfg        Config

	logger  *slog.Logger
	metrics *metrics.Metrics
	clock   Clock
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithConfig overrides the policy defaults.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// New wires the pipeline. Store, engine, calculator, history, publisher and
// notifier are required.
func New(
	store request.Store,
	engine *fraud.Engine,
	txEval *fraud.TransactionEvaluator,
	calculator *limits.Calculator,
	history HistoryProvider,
	publisher ResponsePublisher,
	notifier Notifier,
	opts ...Option,
) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("request store is required")
	}
	if engine == nil || txEval == nil || calculator == nil {
		return nil, fmt.Errorf("scoring engine, transaction evaluator and limits calculator are required")
	}
	if history == nil {
		return nil, fmt.Errorf("history provider is required")
	}
	if publisher == nil || notifier == nil {
		return nil, fmt.Errorf("publisher and notifier are required")
	}

	s := &Service{
		store:      store,
		engine:     engine,
		txEval:     txEval,
		calculator: calculator,
		history:    history,
		publisher:  publisher,
		notifier:   notifier,
		cfg:        DefaultConfig(),
		logger:     slog.Default(),
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ProcessValidationRequest runs one inbound account-opening request through
// the state machine. It never returns an error for business outcomes; any
// unexpected failure is converted into a technical-error rejection response
// so the caller is never left hanging and the message is always acked.
func (s *Service) ProcessValidationRequest(ctx context.Context, ev events.ValidationRequest) (err error) {
	started := s.clock()
	defer func() {
		if s.metrics != nil {
			s.metrics.ProcessingDuration.Observe(s.clock().Sub(started).Seconds())
		}
		if r := recover(); r != nil {
			s.logger.Error("panic in validation pipeline",
				"correlation_id", ev.CorrelationID, "panic", r)
			s.publishTechnicalFailure(ctx, ev)
			err = nil
		}
	}()

	req, fresh, err := s.ingest(ctx, ev)
	if err != nil {
		s.logger.Error("ingest failed",
			"correlation_id", ev.CorrelationID, "error", err)
		s.publishTechnicalFailure(ctx, ev)
		return nil
	}
	if req == nil {
		// Duplicate delivery after a terminal state: no-op, no re-publish.
		return nil
	}
	if fresh {
		s.history.RecordSubmission(ctx, req.Email)
	}

	if res := validateFormat(ev); !res.OK {
		s.rejectForFormat(ctx, req, ev, res)
		return nil
	}

	if err := s.analyze(ctx, req, ev); err != nil {
		if errors.Is(err, errDecisionSuperseded) {
			// A concurrent writer already settled this request and published
			// its response; ours would contradict it.
			s.logger.Info("decision raced and lost, keeping the settled outcome",
				"correlation_id", ev.CorrelationID)
			return nil
		}
		s.logger.Error("analysis failed",
			"correlation_id", ev.CorrelationID, "error", err)
		s.publishTechnicalFailure(ctx, ev)
		return nil
	}
	return nil
}

// ingest implements idempotent record creation. Returns (nil, false, nil)
// when the correlation id already reached a terminal state or is parked in
// manual review.
func (s *Service) ingest(ctx context.Context, ev events.ValidationRequest) (*models.Request, bool, error) {
	existing, err := s.store.GetByCorrelationID(ctx, ev.CorrelationID)
	switch {
	case err == nil:
		if existing.Status.IsTerminal() || existing.Status == models.StatusManualReview {
			// Terminal records are settled; held records may only leave
			// MANUAL_REVIEW through a reviewer. Either way a redelivery must
			// not re-score.
			s.logger.Info("duplicate delivery for settled request, ignoring",
				"correlation_id", ev.CorrelationID, "status", string(existing.Status))
			return nil, false, nil
		}
		return existing, false, nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, false, fmt.Errorf("lookup by correlation id: %w", err)
	}

	now := s.clock()
	req := &models.Request{
		ID:             id.NewRequestID(),
		CorrelationID:  ev.CorrelationID,
		ClientID:       ev.ClientID,
		AgencyID:       ev.AgencyID,
		IdentityNumber: ev.IdentityNumber,
		Email:          ev.Email,
		Phone:          ev.Phone,
		Name:           ev.Name,
		Surname:        ev.Surname,
		DocumentHashes: ev.DocumentHashes,
		DocQuality:     ev.DocQuality,
		Status:         models.StatusReceived,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.cfg.RetentionWindow),
	}
	req.AppendAction(now, id.ActorSystem, "request_received", "inbound event from "+ev.SourceService)

	if err := s.store.Create(ctx, req); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Another worker won the race for this correlation id; fall back
			// to its record.
			return s.ingest(ctx, ev)
		}
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	return req, true, nil
}

// rejectForFormat handles the fast-fail path for malformed input.
func (s *Service) rejectForFormat(ctx context.Context, req *models.Request, ev events.ValidationRequest, res formatResult) {
	if s.metrics != nil {
		s.metrics.ValidationFailures.WithLabelValues(res.Code).Inc()
	}

	req.RejectionReason = res.Message
	if err := s.transition(ctx, req, models.StatusRejected, id.ActorSystem, res.Code+": "+res.Message); err != nil {
		if errors.Is(err, errDecisionSuperseded) {
			return
		}
		s.logger.Error("format rejection transition failed",
			"correlation_id", req.CorrelationID, "error", err)
		s.publishTechnicalFailure(ctx, ev)
		return
	}
	s.recordDecision("rejected")
	s.publishValidation(ctx, events.ValidationResponse{
		CorrelationID: req.CorrelationID,
		ClientID:      req.ClientID,
		AgencyID:      req.AgencyID,
		Status:        events.ResponseRejected,
		ErrorCode:     res.Code,
		Message:       res.Message,
		Timestamp:     s.clock(),
	})
}

// analyze runs scoring and the decision policy for a well-formed request.
func (s *Service) analyze(ctx context.Context, req *models.Request, ev events.ValidationRequest) error {
	if req.Status == models.StatusReceived {
		if err := s.transition(ctx, req, models.StatusAnalyzing, id.ActorSystem, "format validation passed"); err != nil {
			return err
		}
	}

	hist, err := s.history.Snapshot(ctx, req.Email, req.IdentityNumber, req.CorrelationID)
	if err != nil {
		return fmt.Errorf("history snapshot: %w", err)
	}

	result := s.engine.Score(req, hist, s.clock())
	req.RiskScore = result.RiskScore
	req.RiskTier = result.RiskTier
	req.FraudFlags = result.FraudFlags
	req.RequiresManualReview = result.RequiresManualReview
	req.AppendAction(s.clock(), id.ActorSystem, "risk_scored",
		fmt.Sprintf("score=%d tier=%s flags=%d", result.RiskScore, result.RiskTier, len(result.FraudFlags)))

	return s.applyPolicy(ctx, req, result)
}

// applyPolicy decides in strict priority order: auto-reject, manual review,
// approve. Manual override approval and rejection re-enter the same branches.
func (s *Service) applyPolicy(ctx context.Context, req *models.Request, result models.FraudAnalysisResult) error {
	if result.RiskScore >= s.cfg.AutoRejectThreshold || hasAutoRejectFlag(result) {
		return s.reject(ctx, req, id.ActorSystem, result.Recommendation)
	}
	if result.RequiresManualReview {
		return s.holdForReview(ctx, req, result)
	}
	return s.approve(ctx, req, id.ActorSystem, result.Recommendation)
}

func hasAutoRejectFlag(result models.FraudAnalysisResult) bool {
	for _, f := range result.FraudFlags {
		if _, ok := autoRejectFlags[f]; ok {
			return true
		}
	}
	return false
}

// approve computes limits and moves the record to APPROVED.
func (s *Service) approve(ctx context.Context, req *models.Request, actor, reason string) error {
	assigned := s.calculator.Calculate(req.RiskScore, req.RiskTier, req.AgencyID)
	req.AssignedLimits = &assigned
	req.RejectionReason = ""
	if err := s.transition(ctx, req, models.StatusApproved, actor, reason); err != nil {
		return err
	}
	s.recordDecision("approved")

	score := req.RiskScore
	s.publishValidation(ctx, events.ValidationResponse{
		CorrelationID: req.CorrelationID,
		ClientID:      req.ClientID,
		AgencyID:      req.AgencyID,
		Status:        events.ResponseApproved,
		Message:       reason,
		Limits: &events.Limits{
			DailyWithdrawal:   assigned.DailyWithdrawal,
			DailyTransfer:     assigned.DailyTransfer,
			MonthlyOperations: assigned.MonthlyOperations,
		},
		RiskScore: &score,
		Timestamp: s.clock(),
	})
	return nil
}

// reject moves the record to REJECTED and publishes the refusal.
func (s *Service) reject(ctx context.Context, req *models.Request, actor, reason string) error {
	req.RejectionReason = reason
	req.AssignedLimits = nil
	if err := s.transition(ctx, req, models.StatusRejected, actor, reason); err != nil {
		return err
	}
	s.recordDecision("rejected")

	score := req.RiskScore
	s.publishValidation(ctx, events.ValidationResponse{
		CorrelationID: req.CorrelationID,
		ClientID:      req.ClientID,
		AgencyID:      req.AgencyID,
		Status:        events.ResponseRejected,
		ErrorCode:     events.ErrCodePolicyReject,
		Message:       reason,
		RiskScore:     &score,
		Timestamp:     s.clock(),
	})
	return nil
}

// holdForReview parks the record for a human decision and notifies the
// supervision collaborator. The caller gets a distinct MANUAL_REVIEW status,
// not a success or failure.
func (s *Service) holdForReview(ctx context.Context, req *models.Request, result models.FraudAnalysisResult) error {
	if err := s.transition(ctx, req, models.StatusManualReview, id.ActorSystem, result.Recommendation); err != nil {
		return err
	}
	s.recordDecision("manual_review")
	if s.metrics != nil {
		s.metrics.PendingReviews.Inc()
	}

	if err := s.notifier.NotifyManualReview(ctx, events.ManualReviewNotification{
		RequestID:  req.ID.String(),
		ClientID:   req.ClientID,
		RiskScore:  req.RiskScore,
		FraudFlags: req.FraudFlags,
		CreatedAt:  req.CreatedAt,
	}); err != nil {
		s.logger.Error("manual review notification failed",
			"request_id", req.ID.String(), "error", err)
	}

	score := req.RiskScore
	s.publishValidation(ctx, events.ValidationResponse{
		CorrelationID: req.CorrelationID,
		ClientID:      req.ClientID,
		AgencyID:      req.AgencyID,
		Status:        events.ResponseManualReview,
		Message:       "request is pending manual review",
		RiskScore:     &score,
		Timestamp:     s.clock(),
	})
	return nil
}

// ApplyManualDecision executes a supervisor's verdict. Only records in
// MANUAL_REVIEW may be decided; terminal records are rejected with an
// invalid-state error.
func (s *Service) ApplyManualDecision(ctx context.Context, decision events.ManualReviewDecision) error {
	requestID, err := id.ParseRequestID(decision.RequestID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request id")
	}
	if decision.ReviewerID == "" {
		return dErrors.New(dErrors.CodeValidation, "reviewer id is required")
	}

	req, err := s.store.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "request not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request")
	}
	if req.Status != models.StatusManualReview {
		return dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("request is %s, not pending manual review", req.Status))
	}

	req.AssignedReviewer = decision.ReviewerID
	req.ReviewerNotes = decision.ReviewerNotes

	if decision.Approved {
		err = s.approve(ctx, req, decision.ReviewerID, "approved by reviewer: "+decision.ReviewerNotes)
	} else {
		err = s.reject(ctx, req, decision.ReviewerID, "rejected by reviewer: "+decision.ReviewerNotes)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) || errors.Is(err, sentinel.ErrInvalidState) ||
			errors.Is(err, errDecisionSuperseded) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "request changed underneath the review decision")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply review decision")
	}
	if s.metrics != nil {
		s.metrics.PendingReviews.Dec()
	}
	return nil
}

// UpdateLimits writes limits directly onto an approved record, bypassing
// scoring. Assigned limits exist only on APPROVED records, so only those can
// be edited.
func (s *Service) UpdateLimits(ctx context.Context, requestID id.RequestID, assigned models.TransactionLimits, actor string) error {
	if actor == "" {
		return dErrors.New(dErrors.CodeValidation, "actor is required")
	}
	if assigned.DailyWithdrawal.IsNegative() || assigned.DailyTransfer.IsNegative() || assigned.MonthlyOperations.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "limits must be non-negative")
	}

	req, err := s.store.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "request not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request")
	}
	if req.Status != models.StatusApproved {
		return dErrors.New(dErrors.CodeInvalidState, "limits can only be edited on approved requests")
	}

	req.AssignedLimits = &assigned
	req.AppendAction(s.clock(), actor, "limits_updated", "manual limit edit")
	if err := s.updateWithRetry(ctx, req); err != nil {
		if errors.Is(err, errDecisionSuperseded) {
			return dErrors.Wrap(err, dErrors.CodeConflict, "request changed underneath the limit edit")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist limit edit")
	}
	return nil
}

// ProcessTransactionRequest runs the lighter-weight live-transaction flow.
// No top-level request record is created.
func (s *Service) ProcessTransactionRequest(ctx context.Context, ev events.TransactionValidationRequest) error {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in transaction pipeline",
				"correlation_id", ev.CorrelationID, "panic", r)
			s.publishTransaction(ctx, events.TransactionValidationResponse{
				CorrelationID: ev.CorrelationID,
				ClientID:      ev.ClientID,
				Status:        events.ResponseRejected,
				ErrorCode:     events.ErrCodeTechnical,
				Message:       "transaction validation failed unexpectedly",
				Timestamp:     s.clock(),
			})
		}
	}()

	approved, err := s.latestApproved(ctx, ev.ClientID)
	if err != nil {
		s.logger.Error("approved record lookup failed",
			"correlation_id", ev.CorrelationID, "client_id", ev.ClientID, "error", err)
		if s.metrics != nil {
			s.metrics.TechnicalErrors.Inc()
		}
		s.publishTransaction(ctx, events.TransactionValidationResponse{
			CorrelationID: ev.CorrelationID,
			ClientID:      ev.ClientID,
			Status:        events.ResponseRejected,
			ErrorCode:     events.ErrCodeTechnical,
			Message:       "transaction validation failed unexpectedly",
			Timestamp:     s.clock(),
		})
		return nil
	}
	if approved == nil || approved.AssignedLimits == nil {
		s.publishTransaction(ctx, events.TransactionValidationResponse{
			CorrelationID: ev.CorrelationID,
			ClientID:      ev.ClientID,
			Status:        events.ResponseRejected,
			ErrorCode:     events.ErrCodeClientNotFound,
			Message:       "client has no approved validation with assigned limits",
			Timestamp:     s.clock(),
		})
		return nil
	}

	limit := dailyLimitFor(ev.Type, *approved.AssignedLimits)
	if ev.Amount.GreaterThan(limit) {
		s.publishTransaction(ctx, events.TransactionValidationResponse{
			CorrelationID: ev.CorrelationID,
			ClientID:      ev.ClientID,
			Status:        events.ResponseRejected,
			ErrorCode:     events.ErrCodeLimitExceeded,
			Message:       fmt.Sprintf("amount %s exceeds daily limit %s", ev.Amount, limit),
			Timestamp:     s.clock(),
		})
		return nil
	}

	assessment := s.txEval.Evaluate(ev.Amount, limit, s.clock())
	if assessment.Suspicious {
		if s.metrics != nil {
			s.metrics.FraudAlerts.Inc()
		}
		if err := s.notifier.NotifyFraudAlert(ctx, events.FraudAlertNotification{
			ClientID:  ev.ClientID,
			AlertType: "SUSPICIOUS_TRANSACTION",
			Details: fmt.Sprintf("transaction %s of %s flagged: %v",
				ev.CorrelationID, ev.Amount, assessment.FraudFlags),
			Timestamp: s.clock(),
		}); err != nil {
			s.logger.Error("fraud alert notification failed",
				"correlation_id", ev.CorrelationID, "error", err)
		}
	}

	s.publishTransaction(ctx, events.TransactionValidationResponse{
		CorrelationID: ev.CorrelationID,
		ClientID:      ev.ClientID,
		Status:        events.ResponseApproved,
		Message:       "transaction approved",
		RiskScore:     assessment.RiskScore,
		Timestamp:     s.clock(),
	})
	return nil
}

// Expire moves an overdue non-terminal record to EXPIRED. Used by the sweep.
func (s *Service) Expire(ctx context.Context, req *models.Request) error {
	wasHeld := req.Status == models.StatusManualReview
	req.AssignedLimits = nil
	if err := s.transition(ctx, req, models.StatusExpired, id.ActorSystem, "retention window elapsed"); err != nil {
		if errors.Is(err, errDecisionSuperseded) {
			// Decided while the sweep was running; nothing left to expire.
			return nil
		}
		return err
	}
	if s.metrics != nil {
		s.metrics.ExpiredRequests.Inc()
		if wasHeld {
			s.metrics.PendingReviews.Dec()
		}
	}
	return nil
}

func (s *Service) latestApproved(ctx context.Context, clientID string) (*models.Request, error) {
	results, err := s.store.Search(ctx, request.Query{
		Status:   models.StatusApproved,
		ClientID: clientID,
		Page:     request.Page{Limit: 1},
	})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func dailyLimitFor(txType string, assigned models.TransactionLimits) decimal.Decimal {
	switch txType {
	case "TRANSFER":
		return assigned.DailyTransfer
	default:
		return assigned.DailyWithdrawal
	}
}

// transition appends the action log entry and persists the status change with
// one compare-and-set retry. A second conflict surfaces as an error.
func (s *Service) transition(ctx context.Context, req *models.Request, to models.Status, actor, reason string) error {
	from := req.Status
	req.Status = to
	req.AppendAction(s.clock(), actor, "status_"+string(to), reason)

	err := s.updateWithRetry(ctx, req)
	if err != nil {
		req.Status = from
		return err
	}
	s.logger.Info("request transitioned",
		"correlation_id", req.CorrelationID,
		"from", string(from),
		"to", string(to),
		"actor", actor,
	)
	return nil
}

// errDecisionSuperseded marks a lost write race against a writer that already
// settled the record. Callers treat it like a duplicate terminal delivery,
// not a failure.
var errDecisionSuperseded = errors.New("decision superseded by concurrent writer")

// updateWithRetry performs the optimistic write, re-reading and retrying once
// on a version conflict. The retry rebases our mutation onto the fresh copy;
// losing to a writer that reached a terminal state returns
// errDecisionSuperseded instead.
func (s *Service) updateWithRetry(ctx context.Context, req *models.Request) error {
	err := s.store.Update(ctx, req, req.Version)
	if err == nil || !errors.Is(err, sentinel.ErrConflict) {
		return err
	}

	fresh, readErr := s.store.GetByID(ctx, req.ID)
	if readErr != nil {
		return fmt.Errorf("re-read after conflict: %w", readErr)
	}
	if fresh.Status.IsTerminal() {
		return errDecisionSuperseded
	}
	rebase(req, fresh)
	return s.store.Update(ctx, req, req.Version)
}

// rebase replays this worker's mutation on top of the record the winning
// writer persisted. The winner's action log entries are kept; the entries
// appended during the current operation go after them.
func rebase(req, fresh *models.Request) {
	prefix := 0
	for prefix < len(req.ActionLog) && prefix < len(fresh.ActionLog) &&
		req.ActionLog[prefix] == fresh.ActionLog[prefix] {
		prefix++
	}
	merged := make([]models.ActionEntry, 0, len(fresh.ActionLog)+len(req.ActionLog)-prefix)
	merged = append(merged, fresh.ActionLog...)
	merged = append(merged, req.ActionLog[prefix:]...)
	req.ActionLog = merged
	req.Version = fresh.Version
}

func (s *Service) publishValidation(ctx context.Context, resp events.ValidationResponse) {
	if err := s.publisher.PublishValidation(ctx, resp); err != nil {
		// Never retried inline: the inbound message's own redelivery, if
		// any, is the retry mechanism.
		s.logger.Error("validation response publish failed",
			"correlation_id", resp.CorrelationID, "error", err)
	}
}

func (s *Service) publishTransaction(ctx context.Context, resp events.TransactionValidationResponse) {
	if err := s.publisher.PublishTransaction(ctx, resp); err != nil {
		s.logger.Error("transaction response publish failed",
			"correlation_id", resp.CorrelationID, "error", err)
	}
}

func (s *Service) publishTechnicalFailure(ctx context.Context, ev events.ValidationRequest) {
	if s.metrics != nil {
		s.metrics.TechnicalErrors.Inc()
	}
	s.publishValidation(ctx, events.ValidationResponse{
		CorrelationID: ev.CorrelationID,
		ClientID:      ev.ClientID,
		AgencyID:      ev.AgencyID,
		Status:        events.ResponseRejected,
		ErrorCode:     events.ErrCodeTechnical,
		Message:       "request processing failed unexpectedly",
		Timestamp:     s.clock(),
	})
}

func (s *Service) recordDecision(outcome string) {
	if s.metrics != nil {
		s.metrics.DecisionsTotal.WithLabelValues(outcome).Inc()
	}
}
