package request

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"riskgate/internal/validation/models"
	id "riskgate/pkg/domain"
	"riskgate/pkg/platform/sentinel"
)

type RequestStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestRequestStoreSuite(t *testing.T) {
	suite.Run(t, new(RequestStoreSuite))
}

func (s *RequestStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *RequestStoreSuite) newRequest(correlationID string) *models.Request {
	return &models.Request{
		ID:             id.NewRequestID(),
		CorrelationID:  correlationID,
		ClientID:       "client-1",
		AgencyID:       "AG-DAKAR-01",
		IdentityNumber: "AB12345678",
		Email:          "jean.dupont@example.com",
		Name:           "Jean",
		Surname:        "Dupont",
		Status:         models.StatusReceived,
		CreatedAt:      time.Now(),
		ExpiresAt:      time.Now().Add(7 * 24 * time.Hour),
	}
}

func (s *RequestStoreSuite) TestCreateAndLookup() {
	s.Run("creates and finds by id and correlation id", func() {
		req := s.newRequest(uuid.NewString())
		s.Require().NoError(s.store.Create(s.ctx, req))
		s.Equal(1, req.Version)

		byID, err := s.store.GetByID(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(req.CorrelationID, byID.CorrelationID)

		byCorr, err := s.store.GetByCorrelationID(s.ctx, req.CorrelationID)
		s.Require().NoError(err)
		s.Equal(req.ID, byCorr.ID)
	})

	s.Run("rejects duplicate correlation id", func() {
		corr := uuid.NewString()
		s.Require().NoError(s.store.Create(s.ctx, s.newRequest(corr)))

		err := s.store.Create(s.ctx, s.newRequest(corr))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.GetByID(s.ctx, id.NewRequestID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("handed out records are copies", func() {
		req := s.newRequest(uuid.NewString())
		req.FraudFlags = []string{models.FlagOffHours}
		s.Require().NoError(s.store.Create(s.ctx, req))

		got, err := s.store.GetByID(s.ctx, req.ID)
		s.Require().NoError(err)
		got.FraudFlags[0] = "MUTATED"
		got.Name = "changed"

		again, err := s.store.GetByID(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(models.FlagOffHours, again.FraudFlags[0])
		s.Equal("Jean", again.Name)
	})
}

func (s *RequestStoreSuite) TestUpdate() {
	s.Run("compare-and-set succeeds with the current version", func() {
		req := s.newRequest(uuid.NewString())
		s.Require().NoError(s.store.Create(s.ctx, req))

		req.Status = models.StatusAnalyzing
		s.Require().NoError(s.store.Update(s.ctx, req, 1))
		s.Equal(2, req.Version)

		got, err := s.store.GetByID(s.ctx, req.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusAnalyzing, got.Status)
		s.Equal(2, got.Version)
	})

	s.Run("stale version fails with ErrConflict", func() {
		req := s.newRequest(uuid.NewString())
		s.Require().NoError(s.store.Create(s.ctx, req))

		req.Status = models.StatusAnalyzing
		s.Require().NoError(s.store.Update(s.ctx, req, 1))

		stale := req.Clone()
		stale.Status = models.StatusApproved
		err := s.store.Update(s.ctx, stale, 1)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("illegal transition fails with ErrInvalidState", func() {
		req := s.newRequest(uuid.NewString())
		s.Require().NoError(s.store.Create(s.ctx, req))

		req.Status = models.StatusApproved // RECEIVED -> APPROVED skips ANALYZING
		err := s.store.Update(s.ctx, req, 1)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("terminal records admit no further transitions", func() {
		req := s.newRequest(uuid.NewString())
		s.Require().NoError(s.store.Create(s.ctx, req))
		req.Status = models.StatusAnalyzing
		s.Require().NoError(s.store.Update(s.ctx, req, 1))
		req.Status = models.StatusRejected
		s.Require().NoError(s.store.Update(s.ctx, req, 2))

		req.Status = models.StatusApproved
		err := s.store.Update(s.ctx, req, 3)
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("same-status update is allowed", func() {
		req := s.newRequest(uuid.NewString())
		s.Require().NoError(s.store.Create(s.ctx, req))

		req.RiskScore = 42
		s.Require().NoError(s.store.Update(s.ctx, req, 1))
	})

	s.Run("unknown record fails with ErrNotFound", func() {
		req := s.newRequest(uuid.NewString())
		err := s.store.Update(s.ctx, req, 1)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *RequestStoreSuite) TestConcurrentCreateSameCorrelation() {
	// Only one of N racing creates for the same correlation id may win.
	corr := uuid.NewString()
	const racers = 16

	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.store.Create(s.ctx, s.newRequest(corr))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			s.Require().ErrorIs(err, sentinel.ErrConflict)
		}
	}
	s.Equal(1, wins)
}

func (s *RequestStoreSuite) TestListsAndCounts() {
	mk := func(i int, status models.Status, tier models.RiskTier, agency string) *models.Request {
		req := s.newRequest(uuid.NewString())
		req.IdentityNumber = fmt.Sprintf("CN%08d", i)
		req.Status = status
		req.RiskTier = tier
		req.AgencyID = agency
		req.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		return req
	}
	seed := []*models.Request{
		mk(1, models.StatusReceived, models.TierLow, "AG-A"),
		mk(2, models.StatusManualReview, models.TierHigh, "AG-A"),
		mk(3, models.StatusManualReview, models.TierHigh, "AG-B"),
		mk(4, models.StatusApproved, models.TierMedium, "AG-B"),
	}
	for _, req := range seed {
		s.Require().NoError(s.store.Create(s.ctx, req))
	}

	s.Run("lists by status newest first", func() {
		got, err := s.store.ListByStatus(s.ctx, models.StatusManualReview, Page{})
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.True(got[0].CreatedAt.After(got[1].CreatedAt))
	})

	s.Run("lists by agency and status", func() {
		got, err := s.store.ListByAgencyStatus(s.ctx, "AG-A", models.StatusManualReview, Page{})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal("AG-A", got[0].AgencyID)
	})

	s.Run("lists by risk tier", func() {
		got, err := s.store.ListByRiskTier(s.ctx, models.TierHigh, Page{})
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("paginates", func() {
		page1, err := s.store.ListByStatus(s.ctx, models.StatusManualReview, Page{Limit: 1})
		s.Require().NoError(err)
		s.Require().Len(page1, 1)

		page2, err := s.store.ListByStatus(s.ctx, models.StatusManualReview, Page{Offset: 1, Limit: 1})
		s.Require().NoError(err)
		s.Require().Len(page2, 1)
		s.NotEqual(page1[0].ID, page2[0].ID)
	})

	s.Run("counts by status and tier", func() {
		byStatus, err := s.store.CountByStatus(s.ctx)
		s.Require().NoError(err)
		s.Equal(2, byStatus[models.StatusManualReview])
		s.Equal(1, byStatus[models.StatusApproved])

		byTier, err := s.store.CountByRiskTier(s.ctx)
		s.Require().NoError(err)
		s.Equal(2, byTier[models.TierHigh])
	})

	s.Run("search combines filters and text", func() {
		got, err := s.store.Search(s.ctx, Query{
			Status: models.StatusManualReview,
			Text:   "dupont",
		})
		s.Require().NoError(err)
		s.Len(got, 2)

		got, err = s.store.Search(s.ctx, Query{AgencyID: "AG-B", Text: "cn00000003"})
		s.Require().NoError(err)
		s.Len(got, 1)
	})
}

func (s *RequestStoreSuite) TestIdentityAndExpiry() {
	s.Run("active identity lookup skips rejected and the excluded correlation", func() {
		active := s.newRequest(uuid.NewString())
		s.Require().NoError(s.store.Create(s.ctx, active))

		found, err := s.store.ExistsActiveIdentity(s.ctx, "AB12345678", "other-corr")
		s.Require().NoError(err)
		s.True(found)

		found, err = s.store.ExistsActiveIdentity(s.ctx, "AB12345678", active.CorrelationID)
		s.Require().NoError(err)
		s.False(found)

		active.Status = models.StatusAnalyzing
		s.Require().NoError(s.store.Update(s.ctx, active, 1))
		active.Status = models.StatusRejected
		s.Require().NoError(s.store.Update(s.ctx, active, 2))

		found, err = s.store.ExistsActiveIdentity(s.ctx, "AB12345678", "other-corr")
		s.Require().NoError(err)
		s.False(found)
	})

	s.Run("expired sweep returns only overdue non-terminal records", func() {
		now := time.Now()

		overdue := s.newRequest(uuid.NewString())
		overdue.ExpiresAt = now.Add(-time.Hour)
		s.Require().NoError(s.store.Create(s.ctx, overdue))

		fresh := s.newRequest(uuid.NewString())
		fresh.ExpiresAt = now.Add(time.Hour)
		s.Require().NoError(s.store.Create(s.ctx, fresh))

		doneButOld := s.newRequest(uuid.NewString())
		doneButOld.Status = models.StatusApproved
		doneButOld.ExpiresAt = now.Add(-time.Hour)
		s.Require().NoError(s.store.Create(s.ctx, doneButOld))

		got, err := s.store.ListExpiredPending(s.ctx, now)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(overdue.ID, got[0].ID)
	})
}
