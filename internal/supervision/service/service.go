// Package service implements the supervision read side: dashboard
// aggregates, pending-review listings, search, and the manual-override
// entry points that re-enter the decision pipeline.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"riskgate/internal/validation/events"
	"riskgate/internal/validation/models"
	"riskgate/internal/validation/store/request"
	id "riskgate/pkg/domain"
	dErrors "riskgate/pkg/domain-errors"
)

// DecisionPipeline is the subset of the pipeline the supervision API calls.
type DecisionPipeline interface {
	ApplyManualDecision(ctx context.Context, decision events.ManualReviewDecision) error
	UpdateLimits(ctx context.Context, requestID id.RequestID, assigned models.TransactionLimits, actor string) error
}

// Dashboard is the aggregate view over the request store. Computed by
// querying and reducing in memory; no pre-aggregation at this scale.
type Dashboard struct {
	CountsByStatus   map[models.Status]int   `json:"counts_by_status"`
	CountsByRiskTier map[models.RiskTier]int `json:"counts_by_risk_tier"`
	Volume24h        int                     `json:"volume_24h"`
	ApprovalRate30d  float64                 `json:"approval_rate_30d"`
	AverageRiskScore float64                 `json:"average_risk_score"`
}

// Service answers supervision queries.
type Service struct {
	store    request.Store
	pipeline DecisionPipeline
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New wires the supervision service.
func New(store request.Store, pipeline DecisionPipeline, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("request store is required")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("decision pipeline is required")
	}
	s := &Service{store: store, pipeline: pipeline, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dashboard reduces the store into the aggregate view.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	byStatus, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count by status")
	}
	byTier, err := s.store.CountByRiskTier(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count by risk tier")
	}
	volume24h, err := s.store.CountCreatedAfter(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count 24h volume")
	}

	rate, avg, err := s.thirtyDayStats(ctx)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		CountsByStatus:   byStatus,
		CountsByRiskTier: byTier,
		Volume24h:        volume24h,
		ApprovalRate30d:  rate,
		AverageRiskScore: avg,
	}, nil
}

// thirtyDayStats walks the last 30 days of decided requests page by page.
func (s *Service) thirtyDayStats(ctx context.Context) (approvalRate, avgScore float64, err error) {
	cutoff := time.Now().Add(-30 * 24 * time.Hour)
	var approved, decided, scored, scoreSum int

	for _, status := range []models.Status{models.StatusApproved, models.StatusRejected} {
		for offset := 0; ; offset += request.DefaultPageSize {
			page, err := s.store.ListByStatus(ctx, status, request.Page{Offset: offset, Limit: request.DefaultPageSize})
			if err != nil {
				return 0, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list decided requests")
			}
			for _, req := range page {
				if req.CreatedAt.Before(cutoff) {
					continue
				}
				decided++
				if status == models.StatusApproved {
					approved++
				}
				scored++
				scoreSum += req.RiskScore
			}
			if len(page) < request.DefaultPageSize {
				break
			}
		}
	}

	if decided > 0 {
		approvalRate = float64(approved) / float64(decided)
	}
	if scored > 0 {
		avgScore = float64(scoreSum) / float64(scored)
	}
	return approvalRate, avgScore, nil
}

// PendingReviews lists requests awaiting a human decision.
func (s *Service) PendingReviews(ctx context.Context, page request.Page) ([]*models.Request, error) {
	reqs, err := s.store.ListByStatus(ctx, models.StatusManualReview, page)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending reviews")
	}
	return reqs, nil
}

// Search filters requests by status, tier, agency, client and free text.
func (s *Service) Search(ctx context.Context, q request.Query) ([]*models.Request, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown status filter")
	}
	reqs, err := s.store.Search(ctx, q)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "search failed")
	}
	return reqs, nil
}

// Get loads one request by id.
func (s *Service) Get(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	req, err := s.store.GetByID(ctx, requestID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "request not found")
	}
	return req, nil
}

// Decide forwards a supervisor verdict into the pipeline.
func (s *Service) Decide(ctx context.Context, decision events.ManualReviewDecision) error {
	if err := s.pipeline.ApplyManualDecision(ctx, decision); err != nil {
		return err
	}
	s.logger.Info("manual review decided",
		"request_id", decision.RequestID,
		"approved", decision.Approved,
		"reviewer", decision.ReviewerID,
	)
	return nil
}

// UpdateLimits forwards an admin limit edit into the pipeline.
func (s *Service) UpdateLimits(ctx context.Context, requestID id.RequestID, assigned models.TransactionLimits, actor string) error {
	if err := s.pipeline.UpdateLimits(ctx, requestID, assigned, actor); err != nil {
		return err
	}
	s.logger.Info("limits updated manually",
		"request_id", requestID.String(),
		"actor", actor,
	)
	return nil
}
