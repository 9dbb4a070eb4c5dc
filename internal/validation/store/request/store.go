// Package request persists validation request records. No business logic
// lives here beyond enforcing the state machine's legal transitions at the
// write path.
package request

import (
	"context"
	"time"

	"riskgate/internal/validation/models"
	id "riskgate/pkg/domain"
)

// Page bounds list queries.
type Page struct {
	Offset int
	Limit  int
}

// DefaultPageSize is applied when a page has no explicit limit.
const DefaultPageSize = 50

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Query filters search results. Zero-valued fields are ignored.
type Query struct {
	Status   models.Status
	RiskTier models.RiskTier
	AgencyID string
	ClientID string
	// Text matches against name, surname and identity number.
	Text string
	Page Page
}

// Store is the persistence interface for request records.
//
// Create returns sentinel.ErrConflict when the correlation id is already
// taken. Update is a compare-and-set write: it fails with
// sentinel.ErrConflict when expectedVersion no longer matches, and with
// sentinel.ErrInvalidState when the status change is not a legal transition.
type Store interface {
	Create(ctx context.Context, req *models.Request) error
	Update(ctx context.Context, req *models.Request, expectedVersion int) error

	GetByID(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	GetByCorrelationID(ctx context.Context, correlationID string) (*models.Request, error)

	ListByStatus(ctx context.Context, status models.Status, page Page) ([]*models.Request, error)
	ListByRiskTier(ctx context.Context, tier models.RiskTier, page Page) ([]*models.Request, error)
	ListByAgencyStatus(ctx context.Context, agencyID string, status models.Status, page Page) ([]*models.Request, error)
	Search(ctx context.Context, q Query) ([]*models.Request, error)

	CountByStatus(ctx context.Context) (map[models.Status]int, error)
	CountByRiskTier(ctx context.Context) (map[models.RiskTier]int, error)
	CountCreatedAfter(ctx context.Context, after time.Time) (int, error)
	CountByEmailCreatedAfter(ctx context.Context, email string, after time.Time) (int, error)

	// ExistsActiveIdentity reports whether a non-rejected record other than
	// excludeCorrelationID holds the given identity number.
	ExistsActiveIdentity(ctx context.Context, identityNumber, excludeCorrelationID string) (bool, error)

	// ListExpiredPending returns non-terminal records whose retention window
	// has elapsed, for the periodic expiry sweep.
	ListExpiredPending(ctx context.Context, now time.Time) ([]*models.Request, error)
}
