package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDashboard_Monthly(t *testing.T) {
	now := time.Date(2025, 2, 15, 9, 0, 0, 0, time.UTC)
	all := []Transaction{
		tx("1", "2025-01-01", Income, "Salary", 8500000),
		tx("2", "2025-01-10", Expense, "Food", 400000),
		tx("3", "2025-02-01", Income, "Salary", 9000000),
		tx("4", "2025-02-03", Expense, "Food", 250000),
		tx("5", "2025-02-05", Expense, "Transport", 75000),
		tx("6", "2024-02-05", Expense, "Bills", 1),
	}

	d := BuildDashboard(all, now, Monthly)

	assert.Equal(t, Monthly, d.Period)
	assert.Equal(t, "This Month", d.Label)
	assert.Equal(t, now, d.GeneratedAt)
	assert.Equal(t, 3, d.Count)
	assert.Equal(t, int64(9000000), d.Totals.Income.Rupiah)
	assert.Equal(t, int64(325000), d.Totals.Expense.Rupiah)
	assert.Equal(t, int64(8675000), d.Totals.Balance)
	assert.Equal(t, int64(8500000), d.PreviousTotals.Income.Rupiah)

	assert.Equal(t, "+5.9% from last period", d.IncomeDelta.Text)
	assert.True(t, d.IncomeDelta.IsPositive)
	assert.Equal(t, "-18.8% from last period", d.ExpenseDelta.Text)
	assert.True(t, d.ExpenseDelta.IsPositive)

	// 325000 over three distinct dates.
	assert.Equal(t, "Avg Daily Expense", d.AverageLabel)
	assert.Equal(t, int64(108333), d.AverageExpense.Rupiah)

	require.Len(t, d.Categories, 2)
	assert.Equal(t, "Food", d.Categories[0].Name)

	assert.Equal(t, []string{"1", "3", "5"}, labels(d.Trend))

	require.Len(t, d.RecentIncome, 1)
	require.Len(t, d.RecentExpense, 2)
	assert.Equal(t, "5", d.RecentExpense[0].ID)

	assertDecimal(t, "96.39", d.Projection.SavingsRatio)
}

func TestBuildDashboard_Empty(t *testing.T) {
	now := time.Date(2025, 2, 15, 9, 0, 0, 0, time.UTC)
	for _, p := range Periods() {
		d := BuildDashboard(nil, now, p)
		assert.Zero(t, d.Count)
		assert.Equal(t, Totals{}, d.Totals)
		assert.Equal(t, "No data from last period", d.IncomeDelta.Text)
		assert.Empty(t, d.Categories)
		assert.Empty(t, d.Trend)
		assert.Empty(t, d.RecentIncome)
		assert.Empty(t, d.RecentExpense)
		assert.Zero(t, d.AverageExpense.Rupiah)
	}
}

func TestBuildDashboard_Deterministic(t *testing.T) {
	now := time.Date(2025, 10, 10, 12, 0, 0, 0, time.UTC)
	all := []Transaction{
		tx("1", "2025-10-10", Expense, "Food", 10),
		tx("2", "2025-10-04", Expense, "Shopping", 20),
		tx("3", "2025-10-08", Income, "Freelance", 30),
		tx("4", "2025-10-05", Expense, "Food", 10),
		tx("5", "2025-09-30", Expense, "Bills", 99),
	}
	first := BuildDashboard(all, now, Weekly)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, BuildDashboard(all, now, Weekly))
	}
	assert.Equal(t, []string{"Sat", "Sun", "Wed", "Fri"}, labels(first.Trend))
	assert.Equal(t, "Food", first.Categories[0].Name)
	assert.Equal(t, "Shopping", first.Categories[1].Name)
	assert.Equal(t, int64(99), first.PreviousTotals.Expense.Rupiah)
}
