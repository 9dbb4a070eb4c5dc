package limits

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"riskgate/internal/validation/models"
)

func newTestCalculator() *Calculator {
	return NewCalculator(AgencyClasses{
		Premium: map[string]struct{}{"AG-PLATEAU": {}},
		Rural:   map[string]struct{}{"AG-KOLDA": {}},
	})
}

func TestCalculate(t *testing.T) {
	calc := newTestCalculator()

	t.Run("low tier standard agency keeps base limits", func(t *testing.T) {
		got := calc.Calculate(5, models.TierLow, "AG-DAKAR-01")

		assert.True(t, got.DailyWithdrawal.Equal(decimal.NewFromInt(2_000_000)))
		assert.True(t, got.DailyTransfer.Equal(decimal.NewFromInt(5_000_000)))
		assert.True(t, got.MonthlyOperations.Equal(decimal.NewFromInt(50_000_000)))
	})

	t.Run("medium tier scales limits down", func(t *testing.T) {
		got := calc.Calculate(25, models.TierMedium, "AG-DAKAR-01")

		assert.True(t, got.DailyWithdrawal.Equal(decimal.NewFromInt(1_400_000)))
		assert.True(t, got.DailyTransfer.Equal(decimal.NewFromInt(3_500_000)))
		assert.True(t, got.MonthlyOperations.Equal(decimal.NewFromInt(35_000_000)))
	})

	t.Run("premium agency raises limits", func(t *testing.T) {
		got := calc.Calculate(5, models.TierLow, "AG-PLATEAU")

		assert.True(t, got.DailyWithdrawal.Equal(decimal.NewFromInt(2_400_000)))
	})

	t.Run("rural agency lowers limits", func(t *testing.T) {
		got := calc.Calculate(25, models.TierMedium, "AG-KOLDA")

		// 2,000,000 x 0.7 x 0.8
		assert.True(t, got.DailyWithdrawal.Equal(decimal.NewFromInt(1_120_000)))
	})

	t.Run("critical tier respects the floors", func(t *testing.T) {
		got := calc.Calculate(90, models.TierCritical, "AG-KOLDA")

		// 2,000,000 x 0.2 x 0.8 = 320,000 stays above the withdrawal floor,
		// so only tiers pushed below a floor are clamped.
		assert.True(t, got.DailyWithdrawal.GreaterThanOrEqual(decimal.NewFromInt(100_000)))
		assert.True(t, got.DailyTransfer.GreaterThanOrEqual(decimal.NewFromInt(200_000)))
		assert.True(t, got.MonthlyOperations.GreaterThanOrEqual(decimal.NewFromInt(1_000_000)))
	})

	t.Run("unknown tier is treated as critical", func(t *testing.T) {
		unknown := calc.Calculate(50, models.RiskTier("BOGUS"), "AG-DAKAR-01")
		critical := calc.Calculate(50, models.TierCritical, "AG-DAKAR-01")

		assert.True(t, unknown.DailyWithdrawal.Equal(critical.DailyWithdrawal))
		assert.True(t, unknown.MonthlyOperations.Equal(critical.MonthlyOperations))
	})

	t.Run("limits shrink monotonically with worsening tier", func(t *testing.T) {
		tiers := []models.RiskTier{models.TierLow, models.TierMedium, models.TierHigh, models.TierCritical}
		prev := decimal.NewFromInt(1 << 40)
		for _, tier := range tiers {
			got := calc.Calculate(0, tier, "AG-DAKAR-01")
			assert.True(t, got.DailyWithdrawal.LessThanOrEqual(prev), "tier %s", tier)
			prev = got.DailyWithdrawal
		}
	})
}
