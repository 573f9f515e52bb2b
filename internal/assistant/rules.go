package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/core"
)

// Rules answers keyword questions from the real aggregates. It needs no
// network access.
type Rules struct {
	// Now is the reference instant; nil means time.Now.
	Now func() time.Time
}

func (r Rules) Reply(_ context.Context, history []Message, txs []core.Transaction) (string, error) {
	q, err := lastQuestion(history)
	if err != nil {
		return "", err
	}
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	return answer(strings.ToLower(q), txs, now), nil
}

func has(q string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

func answer(q string, txs []core.Transaction, now time.Time) string {
	month := core.BuildDashboard(txs, now, core.Monthly)

	if has(q, "income") && has(q, "month") {
		return fmt.Sprintf("Your total income this month is %s. %s",
			month.Totals.Income, comparison(month.IncomeDelta, "last month"))
	}
	if has(q, "spend", "expense") {
		switch {
		case has(q, "today"):
			day := core.BuildDashboard(txs, now, core.Daily)
			return fmt.Sprintf("You've spent %s today%s.", day.Totals.Expense, categoryList(day.Categories, 2, " on"))
		case has(q, "month"):
			return fmt.Sprintf("Your total expenses this month are %s.%s",
				month.Totals.Expense, highest(month.Categories))
		case has(q, "year"):
			year := core.BuildDashboard(txs, now, core.Yearly)
			return fmt.Sprintf("This year, you've spent %s across all categories. Your average monthly expense is %s.",
				year.Totals.Expense, year.AverageExpense)
		}
	}
	if has(q, "balance") {
		msg := fmt.Sprintf("Your current balance is %s (Total Income: %s - Total Expense: %s).",
			core.FormatRupiah(month.Totals.Balance), month.Totals.Income, month.Totals.Expense)
		if month.Totals.Balance > 0 {
			msg += " You're doing great!"
		}
		return msg
	}
	if has(q, "category", "highest") {
		if len(month.Categories) == 0 {
			return "You have no expenses this month yet."
		}
		return fmt.Sprintf("Your highest spending category this month is%s.", categoryList(month.Categories, 2, ""))
	}
	if has(q, "saving") {
		if month.Totals.Income.IsZero() {
			return "You have no income recorded this month, so there is no savings ratio yet."
		}
		return fmt.Sprintf("Your savings ratio this month is %s%%. You're saving %s out of %s income.",
			month.Projection.SavingsRatio.StringFixed(1), core.FormatRupiah(month.Totals.Balance), month.Totals.Income)
	}
	if has(q, "predict", "next") {
		return fmt.Sprintf("Based on current trends, your expenses next month are predicted to be around %s, an increase of %s%%.",
			rupiah(month.Projection.PredictedNextExpense),
			core.NextExpenseFactor.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100)).StringFixed(1))
	}
	if has(q, "compare") {
		return fmt.Sprintf("Compared to last month, your spending %s Your income %s",
			movement(month.ExpenseDelta), movement(month.IncomeDelta))
	}
	if has(q, "food") {
		return categoryShare(month, "Food")
	}
	if has(q, "transport") {
		return categoryShare(month, "Transport")
	}
	return HelpText
}

func comparison(d core.Delta, against string) string {
	if !d.HasBaseline {
		return fmt.Sprintf("There is nothing to compare against from %s.", against)
	}
	dir := "higher"
	if d.ChangePercent.IsNegative() {
		dir = "lower"
	}
	return fmt.Sprintf("This is %s%% %s than %s.", d.ChangePercent.Abs().StringFixed(1), dir, against)
}

func movement(d core.Delta) string {
	if !d.HasBaseline {
		return "has no baseline last month."
	}
	switch {
	case d.ChangePercent.IsPositive():
		return fmt.Sprintf("increased by %s%%.", d.ChangePercent.StringFixed(1))
	case d.ChangePercent.IsNegative():
		return fmt.Sprintf("decreased by %s%%.", d.ChangePercent.Abs().StringFixed(1))
	default:
		return "stayed the same."
	}
}

func highest(cats []core.CategoryAmount) string {
	if len(cats) == 0 {
		return ""
	}
	return fmt.Sprintf(" %s is your highest expense category at %s.", cats[0].Name, cats[0].Amount)
}

// categoryList renders up to n categories as "<prefix> A at Rp x, followed by B at Rp y".
func categoryList(cats []core.CategoryAmount, n int, prefix string) string {
	if len(cats) == 0 {
		return ""
	}
	if len(cats) < n {
		n = len(cats)
	}
	parts := make([]string, 0, n)
	for _, c := range cats[:n] {
		parts = append(parts, fmt.Sprintf("%s at %s", c.Name, c.Amount))
	}
	return prefix + " " + strings.Join(parts, ", followed by ")
}

func categoryShare(d core.Dashboard, name string) string {
	for _, c := range d.Categories {
		if c.Name == name {
			return fmt.Sprintf("You spent %s on %s this month. This is %s%% of your total expenses.",
				c.Amount, name, c.Share.StringFixed(1))
		}
	}
	return fmt.Sprintf("You have no %s expenses this month.", name)
}

func rupiah(d decimal.Decimal) string {
	return core.FormatRupiah(d.Round(0).IntPart())
}
