package fraud

import (
	"time"

	"github.com/shopspring/decimal"

	"riskgate/internal/validation/models"
)

// Transaction check weights. Deliberately lighter than registration scoring:
// this path sits on the live approval hot path.
const (
	weightTxUnusualAmount = 30
	weightTxOffHours      = 15

	// txAlertThreshold marks a transaction suspicious enough to raise a
	// fraud alert without blocking it.
	txAlertThreshold = 30
)

// unusualAmountRatio flags transactions consuming most of the daily
// allowance in one operation.
var unusualAmountRatio = decimal.NewFromFloat(0.8)

// TransactionAssessment is the outcome of the reduced live-transaction check.
type TransactionAssessment struct {
	RiskScore  int
	FraudFlags []string
	Suspicious bool
}

// TransactionEvaluator runs the reduced heuristics for live transaction
// approval. It never blocks a transaction on its own; exceeding the stored
// limit is checked by the pipeline before this runs.
type TransactionEvaluator struct {
	cfg Config
}

// NewTransactionEvaluator creates an evaluator sharing the engine's config.
func NewTransactionEvaluator(cfg Config) *TransactionEvaluator {
	return &TransactionEvaluator{cfg: cfg}
}

// Evaluate scores a within-limit transaction against the daily limit the
// caller checked it under. Suspicious results trigger a fraud alert side
// effect upstream but do not reject the transaction.
func (e *TransactionEvaluator) Evaluate(amount, dailyLimit decimal.Decimal, at time.Time) TransactionAssessment {
	var acc accumulator

	if dailyLimit.IsPositive() &&
		amount.GreaterThanOrEqual(dailyLimit.Mul(unusualAmountRatio)) {
		acc.add(weightTxUnusualAmount, models.FlagTransactionUnusual)
	}
	if hour := at.Hour(); hour < e.cfg.BusinessHourStart || hour >= e.cfg.BusinessHourEnd {
		acc.add(weightTxOffHours, models.FlagTransactionOffHours)
	}

	return TransactionAssessment{
		RiskScore:  acc.score,
		FraudFlags: acc.flags,
		Suspicious: acc.score >= txAlertThreshold,
	}
}
