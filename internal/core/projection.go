package core

import "github.com/shopspring/decimal"

// Projection multipliers. These are fixed presentation heuristics, not a
// forecast: nothing is fitted to history.
var (
	NextExpenseFactor      = decimal.RequireFromString("1.035")
	NextIncomeFactor       = decimal.RequireFromString("1.02")
	SavingsOpportunityRate = decimal.RequireFromString("0.05")
)

// Projection holds forward-looking estimates derived from period totals.
type Projection struct {
	SavingsRatio             decimal.Decimal `json:"savings_ratio"`
	PredictedNextExpense     decimal.Decimal `json:"predicted_next_expense"`
	PredictedNextIncome      decimal.Decimal `json:"predicted_next_income"`
	PotentialSavingsIncrease decimal.Decimal `json:"potential_savings_increase"`
}

// Project applies the fixed multipliers to t. SavingsRatio is 0 without income.
func Project(t Totals) Projection {
	income := decimal.NewFromInt(t.Income.Rupiah)
	expense := decimal.NewFromInt(t.Expense.Rupiah)

	p := Projection{
		SavingsRatio:             decimal.Zero,
		PredictedNextExpense:     expense.Mul(NextExpenseFactor),
		PredictedNextIncome:      income.Mul(NextIncomeFactor),
		PotentialSavingsIncrease: expense.Mul(SavingsOpportunityRate),
	}
	if !income.IsZero() {
		p.SavingsRatio = income.Sub(expense).Mul(decimal.NewFromInt(100)).DivRound(income, 2)
	}
	return p
}
