package models

import "github.com/shopspring/decimal"

// TransactionLimits are the three monetary ceilings granted to an approved
// client. Present on a record if and only if the record is APPROVED.
type TransactionLimits struct {
	DailyWithdrawal   decimal.Decimal `json:"daily_withdrawal"`
	DailyTransfer     decimal.Decimal `json:"daily_transfer"`
	MonthlyOperations decimal.Decimal `json:"monthly_operations"`
}
