// Package limits computes per-client transaction limits from the risk
// assessment. Pure functions over fixed base amounts and multipliers.
package limits

import (
	"github.com/shopspring/decimal"

	"riskgate/internal/validation/models"
)

// Base limits before risk and agency adjustment, in minor currency units.
var (
	baseDailyWithdrawal   = decimal.NewFromInt(2_000_000)
	baseDailyTransfer     = decimal.NewFromInt(5_000_000)
	baseMonthlyOperations = decimal.NewFromInt(50_000_000)
)

// Absolute floors: even a CRITICAL-tier client keeps a usable minimum.
var (
	minDailyWithdrawal   = decimal.NewFromInt(100_000)
	minDailyTransfer     = decimal.NewFromInt(200_000)
	minMonthlyOperations = decimal.NewFromInt(1_000_000)
)

// tierMultipliers scale limits down as the tier worsens.
var tierMultipliers = map[models.RiskTier]decimal.Decimal{
	models.TierLow:      decimal.NewFromFloat(1.0),
	models.TierMedium:   decimal.NewFromFloat(0.7),
	models.TierHigh:     decimal.NewFromFloat(0.4),
	models.TierCritical: decimal.NewFromFloat(0.2),
}

var (
	premiumMultiplier = decimal.NewFromFloat(1.2)
	ruralMultiplier   = decimal.NewFromFloat(0.8)
	defaultMultiplier = decimal.NewFromFloat(1.0)
)

// AgencyClasses partitions agencies for the agency multiplier.
type AgencyClasses struct {
	Premium map[string]struct{}
	Rural   map[string]struct{}
}

// Calculator derives transaction limits. Safe for concurrent use.
type Calculator struct {
	classes AgencyClasses
}

// NewCalculator creates a calculator with the given agency classification.
func NewCalculator(classes AgencyClasses) *Calculator {
	return &Calculator{classes: classes}
}

// Calculate maps (score, tier, agency) to the three monetary limits:
// element-wise base x tier multiplier x agency multiplier, floored against
// the absolute minimums.
func (c *Calculator) Calculate(riskScore int, tier models.RiskTier, agencyID string) models.TransactionLimits {
	tierMul, ok := tierMultipliers[tier]
	if !ok {
		// Unknown tier is treated as worst case.
		tierMul = tierMultipliers[models.TierCritical]
	}
	mul := tierMul.Mul(c.agencyMultiplier(agencyID))

	return models.TransactionLimits{
		DailyWithdrawal:   floor(baseDailyWithdrawal.Mul(mul), minDailyWithdrawal),
		DailyTransfer:     floor(baseDailyTransfer.Mul(mul), minDailyTransfer),
		MonthlyOperations: floor(baseMonthlyOperations.Mul(mul), minMonthlyOperations),
	}
}

func (c *Calculator) agencyMultiplier(agencyID string) decimal.Decimal {
	if _, ok := c.classes.Premium[agencyID]; ok {
		return premiumMultiplier
	}
	if _, ok := c.classes.Rural[agencyID]; ok {
		return ruralMultiplier
	}
	return defaultMultiplier
}

func floor(v, minimum decimal.Decimal) decimal.Decimal {
	if v.LessThan(minimum) {
		return minimum
	}
	return v
}
