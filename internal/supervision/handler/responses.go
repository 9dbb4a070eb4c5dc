package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"riskgate/internal/validation/models"
)

type limitsPayload struct {
	DailyWithdrawal   decimal.Decimal `json:"daily_withdrawal"`
	DailyTransfer     decimal.Decimal `json:"daily_transfer"`
	MonthlyOperations decimal.Decimal `json:"monthly_operations"`
}

// requestSummary is the list-view shape: enough to triage, no action log.
type requestSummary struct {
	ID            string          `json:"id"`
	CorrelationID string          `json:"correlation_id"`
	ClientID      string          `json:"client_id"`
	AgencyID      string          `json:"agency_id"`
	Status        models.Status   `json:"status"`
	RiskScore     int             `json:"risk_score"`
	RiskTier      models.RiskTier `json:"risk_tier"`
	FraudFlags    []string        `json:"fraud_flags"`
	CreatedAt     time.Time       `json:"created_at"`
}

// requestDetail is the single-record shape including the audit trail.
type requestDetail struct {
	requestSummary
	Name             string               `json:"name"`
	Surname          string               `json:"surname"`
	IdentityNumber   string               `json:"identity_number"`
	Email            string               `json:"email"`
	Phone            string               `json:"phone"`
	RejectionReason  string               `json:"rejection_reason,omitempty"`
	AssignedLimits   *limitsPayload       `json:"assigned_limits,omitempty"`
	AssignedReviewer string               `json:"assigned_reviewer,omitempty"`
	ReviewerNotes    string               `json:"reviewer_notes,omitempty"`
	ExpiresAt        time.Time            `json:"expires_at"`
	ActionLog        []models.ActionEntry `json:"action_log"`
}

func toSummary(req *models.Request) requestSummary {
	return requestSummary{
		ID:            req.ID.String(),
		CorrelationID: req.CorrelationID,
		ClientID:      req.ClientID,
		AgencyID:      req.AgencyID,
		Status:        req.Status,
		RiskScore:     req.RiskScore,
		RiskTier:      req.RiskTier,
		FraudFlags:    req.FraudFlags,
		CreatedAt:     req.CreatedAt,
	}
}

func toSummaries(reqs []*models.Request) []requestSummary {
	out := make([]requestSummary, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toSummary(req))
	}
	return out
}

func toDetail(req *models.Request) requestDetail {
	detail := requestDetail{
		requestSummary:   toSummary(req),
		Name:             req.Name,
		Surname:          req.Surname,
		IdentityNumber:   req.IdentityNumber,
		Email:            req.Email,
		Phone:            req.Phone,
		RejectionReason:  req.RejectionReason,
		AssignedReviewer: req.AssignedReviewer,
		ReviewerNotes:    req.ReviewerNotes,
		ExpiresAt:        req.ExpiresAt,
		ActionLog:        req.ActionLog,
	}
	if req.AssignedLimits != nil {
		detail.AssignedLimits = &limitsPayload{
			DailyWithdrawal:   req.AssignedLimits.DailyWithdrawal,
			DailyTransfer:     req.AssignedLimits.DailyTransfer,
			MonthlyOperations: req.AssignedLimits.MonthlyOperations,
		}
	}
	return detail
}
