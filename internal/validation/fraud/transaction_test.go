package fraud

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"riskgate/internal/validation/models"
)

func TestTransactionEvaluator(t *testing.T) {
	eval := NewTransactionEvaluator(DefaultConfig())
	withdrawal := decimal.NewFromInt(1_000_000)

	t.Run("small daytime transaction is clean", func(t *testing.T) {
		got := eval.Evaluate(decimal.NewFromInt(50_000), withdrawal, weekdayMorning)

		assert.Equal(t, 0, got.RiskScore)
		assert.Empty(t, got.FraudFlags)
		assert.False(t, got.Suspicious)
	})

	t.Run("amount near the daily limit is flagged", func(t *testing.T) {
		got := eval.Evaluate(decimal.NewFromInt(850_000), withdrawal, weekdayMorning)

		assert.Equal(t, 30, got.RiskScore)
		assert.Contains(t, got.FraudFlags, models.FlagTransactionUnusual)
		assert.True(t, got.Suspicious)
	})

	t.Run("exactly eighty percent counts as unusual", func(t *testing.T) {
		got := eval.Evaluate(decimal.NewFromInt(800_000), withdrawal, weekdayMorning)

		assert.Contains(t, got.FraudFlags, models.FlagTransactionUnusual)
	})

	t.Run("transfer amounts compare against the transfer limit", func(t *testing.T) {
		transfer := decimal.NewFromInt(2_000_000)

		// Unusual for a withdrawal allowance, ordinary for a transfer one.
		got := eval.Evaluate(decimal.NewFromInt(900_000), transfer, weekdayMorning)

		assert.Equal(t, 0, got.RiskScore)
		assert.Empty(t, got.FraudFlags)
	})

	t.Run("night transaction alone stays below the alert threshold", func(t *testing.T) {
		night := time.Date(2025, 3, 12, 2, 0, 0, 0, time.UTC)

		got := eval.Evaluate(decimal.NewFromInt(50_000), withdrawal, night)

		assert.Equal(t, 15, got.RiskScore)
		assert.Contains(t, got.FraudFlags, models.FlagTransactionOffHours)
		assert.False(t, got.Suspicious)
	})

	t.Run("large night transaction raises an alert", func(t *testing.T) {
		night := time.Date(2025, 3, 12, 23, 0, 0, 0, time.UTC)

		got := eval.Evaluate(decimal.NewFromInt(900_000), withdrawal, night)

		assert.Equal(t, 45, got.RiskScore)
		assert.True(t, got.Suspicious)
	})

	t.Run("zero daily limit never divides", func(t *testing.T) {
		got := eval.Evaluate(decimal.NewFromInt(900_000), decimal.Zero, weekdayMorning)

		assert.Equal(t, 0, got.RiskScore)
	})
}
