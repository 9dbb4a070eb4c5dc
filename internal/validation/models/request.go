package models

import (
	"time"

	id "riskgate/pkg/domain"
)

// ActionEntry is one append-only audit line on a request. Entries are never
// deleted or rewritten; every state transition and scoring step appends one.
type ActionEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Reason    string    `json:"reason,omitempty"`
}

// Request is the unit of work: one record per registration or
// transaction-validation attempt. Mutated only by the decision pipeline and
// the manual-review entry point; never hard-deleted.
type Request struct {
	ID            id.RequestID
	CorrelationID string
	ClientID      string
	AgencyID      string

	// Submitted payload. Documents are content-hash references only.
	IdentityNumber string
	Email          string
	Phone          string
	Name           string
	Surname        string
	DocumentHashes []string
	DocQuality     *int // externally supplied 0-100 quality score, if any

	// Risk data, filled by the scoring engine.
	RiskScore            int
	RiskTier             RiskTier
	FraudFlags           []string
	RequiresManualReview bool

	// Decision data.
	Status           Status
	RejectionReason  string
	AssignedLimits   *TransactionLimits
	AssignedReviewer string
	ReviewerNotes    string

	// Audit.
	CreatedAt time.Time
	ExpiresAt time.Time
	ActionLog []ActionEntry

	// Version supports compare-and-set writes. Incremented by the store on
	// every successful update; a stale version fails the write.
	Version int
}

// AppendAction records an audit line on the request.
func (r *Request) AppendAction(at time.Time, actor, action, reason string) {
	r.ActionLog = append(r.ActionLog, ActionEntry{
		Timestamp: at,
		Actor:     actor,
		Action:    action,
		Reason:    reason,
	})
}

// Clone returns a deep copy so in-memory stores never hand out aliased slices.
func (r *Request) Clone() *Request {
	cp := *r
	cp.DocumentHashes = append([]string(nil), r.DocumentHashes...)
	cp.FraudFlags = append([]string(nil), r.FraudFlags...)
	cp.ActionLog = append([]ActionEntry(nil), r.ActionLog...)
	if r.DocQuality != nil {
		q := *r.DocQuality
		cp.DocQuality = &q
	}
	if r.AssignedLimits != nil {
		l := *r.AssignedLimits
		cp.AssignedLimits = &l
	}
	return &cp
}
