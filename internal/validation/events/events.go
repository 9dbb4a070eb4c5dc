// Package events hosts the stable message contracts exchanged with the
// account/agency service and the notification service over the bus. Keep
// these shapes PII-light and versioned conservatively: other teams consume
// them.
package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Topic names. The inbound topics are keyed by correlation id so a given
// request is always handled by the same consumer in the group.
const (
	TopicValidationRequests   = "accounts.validation.requests"
	TopicTransactionRequests  = "accounts.transaction.requests"
	TopicValidationResponses  = "accounts.validation.responses"
	TopicTransactionResponses = "accounts.transaction.responses"
	TopicNotifications        = "notifications.risk"
)

// ValidationRequest asks the pipeline to vet an account-opening attempt.
type ValidationRequest struct {
	CorrelationID  string    `json:"correlation_id"`
	ClientID       string    `json:"client_id"`
	AgencyID       string    `json:"agency_id"`
	IdentityNumber string    `json:"identity_number"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Surname        string    `json:"surname"`
	Phone          string    `json:"phone"`
	DocumentHashes []string  `json:"document_hashes"`
	DocQuality     *int      `json:"uploaded_doc_quality,omitempty"`
	SourceService  string    `json:"source_service"`
	Timestamp      time.Time `json:"timestamp"`
}

// TransactionValidationRequest asks for a live approval of a single
// transaction against an already-approved client's stored limits.
type TransactionValidationRequest struct {
	CorrelationID string          `json:"correlation_id"`
	ClientID      string          `json:"client_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	SourceAccount string          `json:"source_account"`
	DestAccount   string          `json:"dest_account"`
	Timestamp     time.Time       `json:"timestamp"`
}

// ResponseStatus is the decision communicated back to the caller.
type ResponseStatus string

const (
	ResponseApproved     ResponseStatus = "APPROVED"
	ResponseRejected     ResponseStatus = "REJECTED"
	ResponseManualReview ResponseStatus = "MANUAL_REVIEW"
)

// Machine-readable error codes carried on rejection responses.
const (
	ErrCodeIdentityMissing = "IDENTITY_NUMBER_MISSING"
	ErrCodeIdentityFormat  = "IDENTITY_NUMBER_INVALID"
	ErrCodeEmailFormat     = "EMAIL_INVALID"
	ErrCodePhoneFormat     = "PHONE_INVALID"
	ErrCodeNameTooShort    = "NAME_TOO_SHORT"
	ErrCodePolicyReject    = "RISK_POLICY_REJECT"
	ErrCodeLimitExceeded   = "DAILY_LIMIT_EXCEEDED"
	ErrCodeClientNotFound  = "CLIENT_NOT_APPROVED"
	ErrCodeTechnical       = "TECHNICAL_ERROR"
)

// Limits mirrors the assigned transaction limits on approval responses.
type Limits struct {
	DailyWithdrawal   decimal.Decimal `json:"daily_withdrawal"`
	DailyTransfer     decimal.Decimal `json:"daily_transfer"`
	MonthlyOperations decimal.Decimal `json:"monthly_operations"`
}

// ValidationResponse is published back to the originating service once a
// decision (or a manual-review hold) is reached.
type ValidationResponse struct {
	CorrelationID string         `json:"correlation_id"`
	ClientID      string         `json:"client_id"`
	AgencyID      string         `json:"agency_id"`
	Status        ResponseStatus `json:"status"`
	ErrorCode     string         `json:"error_code,omitempty"`
	Message       string         `json:"message"`
	Limits        *Limits        `json:"limits,omitempty"`
	RiskScore     *int           `json:"risk_score,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// TransactionValidationResponse answers a live transaction check.
type TransactionValidationResponse struct {
	CorrelationID string         `json:"correlation_id"`
	ClientID      string         `json:"client_id"`
	Status        ResponseStatus `json:"status"`
	ErrorCode     string         `json:"error_code,omitempty"`
	Message       string         `json:"message"`
	RiskScore     int            `json:"risk_score"`
	Timestamp     time.Time      `json:"timestamp"`
}

// ManualReviewDecision records a supervisor's verdict on a request held for
// review. Invoked via direct call from the supervision API, not a queue.
type ManualReviewDecision struct {
	RequestID     string `json:"request_id"`
	Approved      bool   `json:"approved"`
	ReviewerNotes string `json:"reviewer_notes"`
	ReviewerID    string `json:"reviewer_id"`
}

// ManualReviewNotification alerts the supervision team that a request is
// waiting on a human decision.
type ManualReviewNotification struct {
	RequestID  string    `json:"request_id"`
	ClientID   string    `json:"client_id"`
	RiskScore  int       `json:"risk_score"`
	FraudFlags []string  `json:"fraud_flags"`
	CreatedAt  time.Time `json:"created_at"`
}

// FraudAlertNotification flags a suspicious-but-not-blocked transaction.
type FraudAlertNotification struct {
	ClientID  string    `json:"client_id"`
	AlertType string    `json:"alert_type"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}
