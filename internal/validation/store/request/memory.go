package request

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"riskgate/internal/validation/models"
	id "riskgate/pkg/domain"
	"riskgate/pkg/platform/sentinel"
)

// InMemory keeps records in process memory. Used by unit tests and local
// development; semantics intentionally match the Postgres store, including
// unique correlation ids and compare-and-set updates.
type InMemory struct {
	mu            sync.RWMutex
	records       map[id.RequestID]*models.Request
	byCorrelation map[string]id.RequestID
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		records:       make(map[id.RequestID]*models.Request),
		byCorrelation: make(map[string]id.RequestID),
	}
}

func (s *InMemory) Create(_ context.Context, req *models.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byCorrelation[req.CorrelationID]; exists {
		return sentinel.ErrConflict
	}
	cp := req.Clone()
	cp.Version = 1
	s.records[cp.ID] = cp
	s.byCorrelation[cp.CorrelationID] = cp.ID
	req.Version = cp.Version
	return nil
}

func (s *InMemory) Update(_ context.Context, req *models.Request, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[req.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return sentinel.ErrConflict
	}
	if current.Status != req.Status && !models.CanTransition(current.Status, req.Status) {
		return sentinel.ErrInvalidState
	}
	cp := req.Clone()
	cp.Version = expectedVersion + 1
	s.records[cp.ID] = cp
	req.Version = cp.Version
	return nil
}

func (s *InMemory) GetByID(_ context.Context, requestID id.RequestID) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if req, ok := s.records[requestID]; ok {
		return req.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) GetByCorrelationID(_ context.Context, correlationID string) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if rid, ok := s.byCorrelation[correlationID]; ok {
		return s.records[rid].Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByStatus(_ context.Context, status models.Status, page Page) ([]*models.Request, error) {
	return s.list(page, func(r *models.Request) bool { return r.Status == status }), nil
}

func (s *InMemory) ListByRiskTier(_ context.Context, tier models.RiskTier, page Page) ([]*models.Request, error) {
	return s.list(page, func(r *models.Request) bool { return r.RiskTier == tier }), nil
}

func (s *InMemory) ListByAgencyStatus(_ context.Context, agencyID string, status models.Status, page Page) ([]*models.Request, error) {
	return s.list(page, func(r *models.Request) bool {
		return r.AgencyID == agencyID && r.Status == status
	}), nil
}

func (s *InMemory) Search(_ context.Context, q Query) ([]*models.Request, error) {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	return s.list(q.Page, func(r *models.Request) bool {
		if q.Status != "" && r.Status != q.Status {
			return false
		}
		if q.RiskTier != "" && r.RiskTier != q.RiskTier {
			return false
		}
		if q.AgencyID != "" && r.AgencyID != q.AgencyID {
			return false
		}
		if q.ClientID != "" && r.ClientID != q.ClientID {
			return false
		}
		if text == "" {
			return true
		}
		return strings.Contains(strings.ToLower(r.Name), text) ||
			strings.Contains(strings.ToLower(r.Surname), text) ||
			strings.Contains(strings.ToLower(r.IdentityNumber), text)
	}), nil
}

func (s *InMemory) CountByStatus(_ context.Context) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.Status]int)
	for _, r := range s.records {
		counts[r.Status]++
	}
	return counts, nil
}

func (s *InMemory) CountByRiskTier(_ context.Context) (map[models.RiskTier]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.RiskTier]int)
	for _, r := range s.records {
		if r.RiskTier != "" {
			counts[r.RiskTier]++
		}
	}
	return counts, nil
}

func (s *InMemory) CountCreatedAfter(_ context.Context, after time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.records {
		if r.CreatedAt.After(after) {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) CountByEmailCreatedAfter(_ context.Context, email string, after time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	n := 0
	for _, r := range s.records {
		if strings.ToLower(r.Email) == email && r.CreatedAt.After(after) {
			n++
		}
	}
	return n, nil
}

func (s *InMemory) ExistsActiveIdentity(_ context.Context, identityNumber, excludeCorrelationID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.CorrelationID == excludeCorrelationID {
			continue
		}
		if r.IdentityNumber == identityNumber && r.Status != models.StatusRejected {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) ListExpiredPending(_ context.Context, now time.Time) ([]*models.Request, error) {
	// No pagination: the sweep wants every expired record.
	return s.list(Page{Limit: 1 << 30}, func(r *models.Request) bool {
		return !r.Status.IsTerminal() && !r.ExpiresAt.IsZero() && r.ExpiresAt.Before(now)
	}), nil
}

// list snapshots matching records ordered by creation time, newest first.
func (s *InMemory) list(page Page, match func(*models.Request) bool) []*models.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Request
	for _, r := range s.records {
		if match(r) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	page = page.normalize()
	if page.Offset >= len(out) {
		return nil
	}
	out = out[page.Offset:]
	if len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out
}
