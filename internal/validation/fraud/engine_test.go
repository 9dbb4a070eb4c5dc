package fraud

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"riskgate/internal/validation/models"
)

// Wednesday, inside business hours.
var weekdayMorning = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

type EngineSuite struct {
	suite.Suite
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.engine = NewEngine(DefaultConfig())
}

// cleanRequest scores zero against the default configuration.
func (s *EngineSuite) cleanRequest() *models.Request {
	quality := 85
	return &models.Request{
		IdentityNumber: "AB12345678",
		Email:          "jean.dupont@example.com",
		Phone:          "+221771234567",
		Name:           "Jean",
		Surname:        "Dupont",
		AgencyID:       "AG-DAKAR-01",
		DocumentHashes: []string{"sha256:aaa", "sha256:bbb"},
		DocQuality:     &quality,
	}
}

func (s *EngineSuite) TestCleanRequestScoresZero() {
	result := s.engine.Score(s.cleanRequest(), History{}, weekdayMorning)

	s.Equal(0, result.RiskScore)
	s.Equal(models.TierLow, result.RiskTier)
	s.Empty(result.FraudFlags)
	s.False(result.RequiresManualReview)
}

func (s *EngineSuite) TestIdentityChecks() {
	s.Run("missing identity maxes the score", func() {
		req := s.cleanRequest()
		req.IdentityNumber = "  "

		result := s.engine.Score(req, History{}, weekdayMorning)

		s.Equal(100, result.RiskScore)
		s.Equal(models.TierCritical, result.RiskTier)
		s.Contains(result.FraudFlags, models.FlagIdentityMissing)
		s.True(result.RequiresManualReview)
	})

	s.Run("bad format is heavily penalised", func() {
		req := s.cleanRequest()
		req.IdentityNumber = "short"

		result := s.engine.Score(req, History{}, weekdayMorning)

		s.Equal(60, result.RiskScore)
		s.Contains(result.FraudFlags, models.FlagIdentityInvalidFormat)
	})

	s.Run("identity already in use forces manual review", func() {
		req := s.cleanRequest()

		result := s.engine.Score(req, History{IdentityInUse: true}, weekdayMorning)

		s.Contains(result.FraudFlags, models.FlagIdentityAlreadyUsed)
		s.True(result.RequiresManualReview)
	})

	s.Run("sequential digits are low entropy", func() {
		req := s.cleanRequest()
		req.IdentityNumber = "123456789012"

		result := s.engine.Score(req, History{}, weekdayMorning)

		s.Equal(25, result.RiskScore)
		s.Contains(result.FraudFlags, models.FlagIdentityLowEntropy)
	})

	s.Run("repeated digits are low entropy", func() {
		req := s.cleanRequest()
		req.IdentityNumber = "111111111111"

		result := s.engine.Score(req, History{}, weekdayMorning)

		s.Contains(result.FraudFlags, models.FlagIdentityLowEntropy)
	})
}

func (s *EngineSuite) TestEmailChecks() {
	s.Run("malformed email", func() {
		req := s.cleanRequest()
		req.Email = "not-an-email"

		result := s.engine.Score(req, History{}, weekdayMorning)

		s.Equal(20, result.RiskScore)
		s.Contains(result.FraudFlags, models.FlagEmailMalformed)
	})

	s.Run("disposable domain", func() {
		req := s.cleanRequest()
		req.Email = "jean@yopmail.com"

		result := s.engine.Score(req, History{}, weekdayMorning)

		s.Equal(15, result.RiskScore)
		s.Contains(result.FraudFlags, models.FlagEmailDisposable)
	})

	s.Run("suspicious local part", func() {
		req := s.cleanRequest()
		req.Email = "test.account@example.com"

		result := s.engine.Score(req, History{}, weekdayMorning)

		s.Contains(result.FraudFlags, models.FlagEmailSuspicious)
	})

	s.Run("one prior use within thirty days counts as reuse", func() {
		// History excludes the submission being scored.
		result := s.engine.Score(s.cleanRequest(), History{EmailUses30d: 1}, weekdayMorning)

		s.Equal(10, result.RiskScore)
		s.Contains(result.FraudFlags, models.FlagEmailReused)
	})

	s.Run("never seen before is not reuse", func() {
		result := s.engine.Score(s.cleanRequest(), History{EmailUses30d: 0}, weekdayMorning)

		s.NotContains(result.FraudFlags, models.FlagEmailReused)
	})

	s.Run("velocity over the daily cap forces manual review", func() {
		result := s.engine.Score(s.cleanRequest(), History{EmailUses24h: 4}, weekdayMorning)

		s.Contains(result.FraudFlags, models.FlagEmailVelocity)
		s.True(result.RequiresManualReview)
	})

	s.Run("velocity at the cap does not flag", func() {
		result := s.engine.Score(s.cleanRequest(), History{EmailUses24h: 3}, weekdayMorning)

		s.NotContains(result.FraudFlags, models.FlagEmailVelocity)
	})
}

func (s *EngineSuite) TestContextChecks() {
	s.Run("high risk agency", func() {
		cfg := DefaultConfig()
		cfg.HighRiskAgencies = map[string]struct{}{"AG-RISK": {}}
		engine := NewEngine(cfg)

		req := s.cleanRequest()
		req.AgencyID = "AG-RISK"

		result := engine.Score(req, History{}, weekdayMorning)

		s.Equal(5, result.RiskScore)
		s.Contains(result.FraudFlags, models.FlagHighRiskAgency)
	})

	s.Run("off hours submission", func() {
		night := time.Date(2025, 3, 12, 3, 0, 0, 0, time.UTC)

		result := s.engine.Score(s.cleanRequest(), History{}, night)

		s.Equal(5, result.RiskScore)
		s.Contains(result.FraudFlags, models.FlagOffHours)
	})

	s.Run("weekend submission", func() {
		saturday := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

		result := s.engine.Score(s.cleanRequest(), History{}, saturday)

		s.Equal(3, result.RiskScore)
		s.Contains(result.FraudFlags, models.FlagWeekend)
	})
}

func (s *EngineSuite) TestDocumentChecks() {
	s.Run("missing documents", func() {
		req := s.cleanRequest()
		req.DocumentHashes = nil

		result := s.engine.Score(req, History{}, weekdayMorning)

		s.Equal(30, result.RiskScore)
		s.Contains(result.FraudFlags, models.FlagDocumentsMissing)
	})

	s.Run("low quality documents", func() {
		req := s.cleanRequest()
		quality := 20
		req.DocQuality = &quality

		result := s.engine.Score(req, History{}, weekdayMorning)

		s.Equal(20, result.RiskScore)
		s.Contains(result.FraudFlags, models.FlagDocumentLowQuality)
	})

	s.Run("medium quality documents", func() {
		req := s.cleanRequest()
		quality := 45
		req.DocQuality = &quality

		result := s.engine.Score(req, History{}, weekdayMorning)

		s.Equal(10, result.RiskScore)
	})

	s.Run("unknown quality is not penalised", func() {
		req := s.cleanRequest()
		req.DocQuality = nil

		result := s.engine.Score(req, History{}, weekdayMorning)

		s.Equal(0, result.RiskScore)
	})
}

func (s *EngineSuite) TestScoreStaysWithinBounds() {
	// Every check fires at once; the running total must stay capped.
	req := s.cleanRequest()
	req.IdentityNumber = "111111111111"
	req.Email = "test@yopmail.com"
	req.AgencyID = "AG-RISK"
	req.DocumentHashes = nil

	cfg := DefaultConfig()
	cfg.HighRiskAgencies = map[string]struct{}{"AG-RISK": {}}
	engine := NewEngine(cfg)

	saturdayNight := time.Date(2025, 3, 15, 2, 0, 0, 0, time.UTC)
	hist := History{EmailUses24h: 10, EmailUses30d: 10, IdentityInUse: true}

	result := engine.Score(req, hist, saturdayNight)

	s.Equal(100, result.RiskScore)
	s.Equal(models.TierCritical, result.RiskTier)
	s.True(result.RequiresManualReview)
}

func (s *EngineSuite) TestManualReviewBand() {
	// Sequential identity plus no documents lands in the review band:
	// elevated but below the rejection threshold.
	req := s.cleanRequest()
	req.IdentityNumber = "123456789012"
	req.DocumentHashes = nil

	result := s.engine.Score(req, History{}, weekdayMorning)

	s.Equal(55, result.RiskScore)
	s.Equal(models.TierHigh, result.RiskTier)
	s.True(result.RequiresManualReview)
}

func TestTierForScore(t *testing.T) {
	cases := []struct {
		score int
		want  models.RiskTier
	}{
		{0, models.TierLow},
		{19, models.TierLow},
		{20, models.TierMedium},
		{39, models.TierMedium},
		{40, models.TierHigh},
		{69, models.TierHigh},
		{70, models.TierCritical},
		{100, models.TierCritical},
		{-5, models.TierLow},
		{250, models.TierCritical},
	}
	for _, tc := range cases {
		if got := models.TierForScore(tc.score); got != tc.want {
			t.Errorf("TierForScore(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestIsLowEntropy(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"111111111111", true},
		{"123456789012", true}, // ascending, wraps past 9
		{"987654321098", true}, // descending, wraps past 0
		{"123456789", true},
		{"AB12345678", false}, // letters break the digit run
		{"192837465", false},
		{"1", false},
		{"11", true},
	}
	for _, tc := range cases {
		if got := isLowEntropy(tc.in); got != tc.want {
			t.Errorf("isLowEntropy(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
