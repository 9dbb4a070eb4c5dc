package models

// RiskTier is the coarse bucket derived from the numeric risk score.
type RiskTier string

const (
	TierLow      RiskTier = "LOW"
	TierMedium   RiskTier = "MEDIUM"
	TierHigh     RiskTier = "HIGH"
	TierCritical RiskTier = "CRITICAL"
)

// Tier band boundaries over the 0-100 score range.
const (
	tierMediumFloor   = 20
	tierHighFloor     = 40
	tierCriticalFloor = 70
)

// TierForScore maps a 0-100 risk score onto its tier. Scores outside the
// range are clamped, so the mapping is total and monotonic.
func TierForScore(score int) RiskTier {
	switch {
	case score >= tierCriticalFloor:
		return TierCritical
	case score >= tierHighFloor:
		return TierHigh
	case score >= tierMediumFloor:
		return TierMedium
	default:
		return TierLow
	}
}

// Fraud flag codes emitted by the scoring engine. Stable strings: they are
// persisted on records and published in notifications.
const (
	FlagIdentityMissing       = "IDENTITY_MISSING"
	FlagIdentityInvalidFormat = "IDENTITY_INVALID_FORMAT"
	FlagIdentityAlreadyUsed   = "IDENTITY_ALREADY_USED"
	FlagIdentityLowEntropy    = "IDENTITY_SUSPICIOUS_PATTERN"
	FlagEmailMissing          = "EMAIL_MISSING"
	FlagEmailMalformed        = "EMAIL_MALFORMED"
	FlagEmailDisposable       = "EMAIL_DISPOSABLE_DOMAIN"
	FlagEmailSuspicious       = "EMAIL_SUSPICIOUS"
	FlagEmailReused           = "EMAIL_REUSED_30D"
	FlagEmailVelocity         = "EMAIL_VELOCITY_24H"
	FlagHighRiskAgency        = "HIGH_RISK_AGENCY"
	FlagOffHours              = "OFF_HOURS_SUBMISSION"
	FlagWeekend               = "WEEKEND_SUBMISSION"
	FlagDocumentsMissing      = "DOCUMENTS_MISSING"
	FlagDocumentLowQuality    = "DOCUMENT_LOW_QUALITY"
	FlagTransactionUnusual    = "TRANSACTION_UNUSUAL_AMOUNT"
	FlagTransactionOffHours   = "TRANSACTION_OFF_HOURS"
)

// FraudAnalysisResult is the transient output of the scoring engine. It is
// folded into the request record by the pipeline, never persisted standalone.
type FraudAnalysisResult struct {
	RiskScore            int
	RiskTier             RiskTier
	FraudFlags           []string
	RequiresManualReview bool
	Recommendation       string
}

// HasFlag reports whether the analysis raised the given flag code.
func (r FraudAnalysisResult) HasFlag(code string) bool {
	for _, f := range r.FraudFlags {
		if f == code {
			return true
		}
	}
	return false
}
