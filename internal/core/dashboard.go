package core

import "time"

// Dashboard is everything the overview screen shows for one period.
type Dashboard struct {
	Period         Period           `json:"period"`
	Label          string           `json:"label"`
	GeneratedAt    time.Time        `json:"generated_at"`
	Totals         Totals           `json:"totals"`
	PreviousTotals Totals           `json:"previous_totals"`
	IncomeDelta    Delta            `json:"income_delta"`
	ExpenseDelta   Delta            `json:"expense_delta"`
	AverageLabel   string           `json:"average_label"`
	AverageExpense Money            `json:"average_expense"`
	Categories     []CategoryAmount `json:"categories"`
	Trend          []TrendPoint     `json:"trend"`
	RecentIncome   []Transaction    `json:"recent_income"`
	RecentExpense  []Transaction    `json:"recent_expense"`
	Projection     Projection       `json:"projection"`
	Count          int              `json:"count"`
}

// BuildDashboard selects the current and previous period from all and
// aggregates them. It reads no ambient state; now is the reference instant.
func BuildDashboard(all []Transaction, now time.Time, period Period) Dashboard {
	w := Classify(now, period)
	current, previous := w.Split(all)

	totals := ComputeTotals(current)
	prev := ComputeTotals(previous)

	return Dashboard{
		Period:         period,
		Label:          period.Label(),
		GeneratedAt:    now,
		Totals:         totals,
		PreviousTotals: prev,
		IncomeDelta:    CompareTotals(IncomeMetric, totals.Income, prev.Income),
		ExpenseDelta:   CompareTotals(ExpenseMetric, totals.Expense, prev.Expense),
		AverageLabel:   period.AverageLabel(),
		AverageExpense: AverageExpense(period, totals.Expense, current),
		Categories:     BreakdownByCategory(current),
		Trend:          Trend(period, current),
		RecentIncome:   Recent(current, Income, RecentLimit),
		RecentExpense:  Recent(current, Expense, RecentLimit),
		Projection:     Project(totals),
		Count:          len(current),
	}
}
