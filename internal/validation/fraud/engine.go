// Package fraud implements the risk scoring engine: a deterministic,
// side-effect-free mapping from a request plus its history to a score, a
// tier, and a set of flags. History is injected by the caller, never
// fetched here, so the engine stays unit-testable without a live store.
package fraud

import (
	"regexp"
	"strings"
	"time"

	"riskgate/internal/validation/models"
)

// History carries the store-derived facts the engine needs. The pipeline
// assembles it via the history provider before scoring.
type History struct {
	// EmailUses24h counts requests sharing this email in the last 24 hours,
	// excluding the one being scored.
	EmailUses24h int
	// EmailUses30d counts requests sharing this email in the last 30 days,
	// excluding the one being scored.
	EmailUses30d int
	// IdentityInUse is true when a non-rejected request already holds the
	// same identity number.
	IdentityInUse bool
}

// Config holds the tunable thresholds. The manual-review and velocity
// thresholds were magic numbers in the legacy service; they are configuration
// here.
type Config struct {
	ManualReviewThreshold int
	EmailVelocityMax24h   int
	DocQualityLow         int
	DocQualityMedium      int
	BusinessHourStart     int
	BusinessHourEnd       int
	HighRiskAgencies      map[string]struct{}
	DisposableDomains     map[string]struct{}
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ManualReviewThreshold: 50,
		EmailVelocityMax24h:   3,
		DocQualityLow:         30,
		DocQualityMedium:      60,
		BusinessHourStart:     8,
		BusinessHourEnd:       18,
		HighRiskAgencies:      map[string]struct{}{},
		DisposableDomains: map[string]struct{}{
			"mailinator.com":    {},
			"guerrillamail.com": {},
			"10minutemail.com":  {},
			"yopmail.com":       {},
			"tempmail.com":      {},
		},
	}
}

// Check weights. Each check is capped individually; the running total is
// capped at 100 at every accumulation point, not only at the end.
const (
	weightIdentityMissing    = 100
	weightIdentityFormat     = 60
	weightIdentityInUse      = 80
	weightIdentityLowEntropy = 25
	weightEmailMalformed     = 20
	weightEmailDisposable    = 15
	weightEmailSuspicious    = 15
	weightEmailReused        = 10
	weightEmailVelocity      = 30
	weightHighRiskAgency     = 5
	weightOffHours           = 5
	weightWeekend            = 3
	weightDocumentsMissing   = 30
	weightDocQualityLow      = 20
	weightDocQualityMedium   = 10

	maxScore = 100
)

var (
	identityPattern = regexp.MustCompile(`^[A-Z0-9]{8,20}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// suspiciousEmailSubstrings mark throwaway-looking local parts.
var suspiciousEmailSubstrings = []string{"temp", "test", "fake"}

// Engine scores requests. Safe for concurrent use: it holds only
// immutable configuration.
type Engine struct {
	cfg Config
}

// NewEngine creates a scoring engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Score runs every check against the request and returns the analysis.
// Deterministic for a given (request, history, now) triple.
func (e *Engine) Score(req *models.Request, hist History, now time.Time) models.FraudAnalysisResult {
	var acc accumulator

	e.checkIdentity(req, hist, &acc)
	e.checkEmail(req, hist, &acc)
	e.checkAgency(req, &acc)
	e.checkSubmissionTime(now, &acc)
	e.checkDocuments(req, &acc)

	result := models.FraudAnalysisResult{
		RiskScore:            acc.score,
		RiskTier:             models.TierForScore(acc.score),
		FraudFlags:           acc.flags,
		RequiresManualReview: acc.forceReview || acc.score >= e.cfg.ManualReviewThreshold,
	}
	result.Recommendation = recommendationFor(result.RiskScore, result.RequiresManualReview)
	return result
}

// accumulator keeps the running total capped at every step.
type accumulator struct {
	score       int
	flags       []string
	forceReview bool
}

func (a *accumulator) add(points int, flag string) {
	a.score += points
	if a.score > maxScore {
		a.score = maxScore
	}
	a.flags = append(a.flags, flag)
}

func (a *accumulator) forceManualReview() {
	a.forceReview = true
}

func (e *Engine) checkIdentity(req *models.Request, hist History, acc *accumulator) {
	cni := strings.ToUpper(strings.TrimSpace(req.IdentityNumber))
	if cni == "" {
		acc.add(weightIdentityMissing, models.FlagIdentityMissing)
		return
	}
	if !identityPattern.MatchString(cni) {
		acc.add(weightIdentityFormat, models.FlagIdentityInvalidFormat)
	}
	if hist.IdentityInUse {
		// Duplicate identities force a human decision regardless of the
		// numeric total.
		acc.add(weightIdentityInUse, models.FlagIdentityAlreadyUsed)
		acc.forceManualReview()
	}
	if isLowEntropy(cni) {
		acc.add(weightIdentityLowEntropy, models.FlagIdentityLowEntropy)
	}
}

func (e *Engine) checkEmail(req *models.Request, hist History, acc *accumulator) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		acc.add(weightEmailMalformed, models.FlagEmailMissing)
		return
	}
	if !emailPattern.MatchString(email) {
		acc.add(weightEmailMalformed, models.FlagEmailMalformed)
		return
	}

	if domain := emailDomain(email); domain != "" {
		if _, ok := e.cfg.DisposableDomains[domain]; ok {
			acc.add(weightEmailDisposable, models.FlagEmailDisposable)
		}
	}
	local := email[:strings.Index(email, "@")]
	for _, sub := range suspiciousEmailSubstrings {
		if strings.Contains(local, sub) {
			acc.add(weightEmailSuspicious, models.FlagEmailSuspicious)
			break
		}
	}

	// History excludes the submission being scored, so any prior use means
	// the email appeared more than once in the rolling window.
	if hist.EmailUses30d > 0 {
		acc.add(weightEmailReused, models.FlagEmailReused)
	}
	if hist.EmailUses24h > e.cfg.EmailVelocityMax24h {
		acc.add(weightEmailVelocity, models.FlagEmailVelocity)
		acc.forceManualReview()
	}
}

func (e *Engine) checkAgency(req *models.Request, acc *accumulator) {
	if _, ok := e.cfg.HighRiskAgencies[req.AgencyID]; ok {
		acc.add(weightHighRiskAgency, models.FlagHighRiskAgency)
	}
}

func (e *Engine) checkSubmissionTime(now time.Time, acc *accumulator) {
	hour := now.Hour()
	if hour < e.cfg.BusinessHourStart || hour >= e.cfg.BusinessHourEnd {
		acc.add(weightOffHours, models.FlagOffHours)
	}
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		acc.add(weightWeekend, models.FlagWeekend)
	}
}

func (e *Engine) checkDocuments(req *models.Request, acc *accumulator) {
	if len(req.DocumentHashes) == 0 {
		acc.add(weightDocumentsMissing, models.FlagDocumentsMissing)
		return
	}
	if req.DocQuality == nil {
		return
	}
	switch q := *req.DocQuality; {
	case q < e.cfg.DocQualityLow:
		acc.add(weightDocQualityLow, models.FlagDocumentLowQuality)
	case q < e.cfg.DocQualityMedium:
		acc.add(weightDocQualityMedium, models.FlagDocumentLowQuality)
	}
}

// isLowEntropy detects repeated-digit and sequential-digit identity numbers
// (ascending or descending, wrapping at the decade boundary).
func isLowEntropy(s string) bool {
	if len(s) < 2 {
		return false
	}
	allSame, ascending, descending := true, true, true
	for i := 1; i < len(s); i++ {
		prev, cur := s[i-1], s[i]
		if prev < '0' || prev > '9' || cur < '0' || cur > '9' {
			return false
		}
		if cur != prev {
			allSame = false
		}
		if cur != '0'+(prev-'0'+1)%10 {
			ascending = false
		}
		if cur != '0'+(prev-'0'+9)%10 {
			descending = false
		}
	}
	return allSame || ascending || descending
}

func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}

// recommendationFor builds the human-readable summary keyed off score bands.
func recommendationFor(score int, review bool) string {
	switch {
	case score >= 80:
		return "Critical risk profile: reject the request."
	case review:
		return "Elevated risk profile: hold for manual review."
	case score >= 40:
		return "High risk profile: approve with reduced limits and monitor."
	case score >= 20:
		return "Moderate risk profile: approve with standard monitoring."
	default:
		return "Low risk profile: approve."
	}
}
