package core

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// RecentLimit is the length of the recent income/expense lists.
const RecentLimit = 5

const (
	noBaselineText   = "No data from last period"
	fullIncreaseText = "+100% from last period"
)

// Direction says which way a metric moves when things get better.
type Direction int

const (
	HigherIsBetter Direction = iota
	LowerIsBetter
)

// Metric is a KPI that can be compared period over period.
type Metric struct {
	Name      string
	Favorable Direction
}

var (
	IncomeMetric  = Metric{Name: "income", Favorable: HigherIsBetter}
	ExpenseMetric = Metric{Name: "expense", Favorable: LowerIsBetter}
)

type (
	Totals struct {
		Income  Money `json:"income"`
		Expense Money `json:"expense"`
		// Balance may be negative.
		Balance int64 `json:"balance"`
	}

	// Delta annotates a KPI with its change from the previous period.
	Delta struct {
		Metric        string          `json:"metric"`
		Current       Money           `json:"current"`
		Previous      Money           `json:"previous"`
		HasBaseline   bool            `json:"has_baseline"`
		ChangePercent decimal.Decimal `json:"change_percent"`
		Text          string          `json:"text"`
		Increased     bool            `json:"increased"`
		IsPositive    bool            `json:"is_positive"`
	}

	CategoryAmount struct {
		Name   string          `json:"name"`
		Amount Money           `json:"amount"`
		Share  decimal.Decimal `json:"share"`
	}

	TrendPoint struct {
		Label   string `json:"label"`
		Income  Money  `json:"income"`
		Expense Money  `json:"expense"`
	}
)

// ComputeTotals sums income and expense. Empty input yields zero totals.
func ComputeTotals(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			t.Income = t.Income.Add(tx.Amount)
		case Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Balance = t.Income.Rupiah - t.Expense.Rupiah
	return t
}

// CompareTotals describes how current moved against previous for m.
func CompareTotals(m Metric, current, previous Money) Delta {
	d := Delta{Metric: m.Name, Current: current, Previous: previous}

	if previous.IsZero() {
		d.Increased = current.Rupiah > 0
		if d.Increased {
			d.Text = fullIncreaseText
			d.ChangePercent = decimal.NewFromInt(100)
		} else {
			d.Text = noBaselineText
		}
		d.IsPositive = m.favorable(d.Increased, !d.Increased)
		return d
	}

	d.HasBaseline = true
	diff := current.Rupiah - previous.Rupiah
	pct := decimal.NewFromInt(diff).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(previous.Rupiah))
	d.ChangePercent = pct.Round(1)
	// StringFixed drops the sign of a value that rounds to zero.
	sign := ""
	switch {
	case diff >= 0:
		sign = "+"
	case pct.Round(1).IsZero():
		sign = "-"
	}
	d.Text = fmt.Sprintf("%s%s%% from last period", sign, pct.StringFixed(1))
	d.Increased = diff > 0
	d.IsPositive = m.favorable(diff >= 0, diff < 0)
	return d
}

func (m Metric) favorable(up, down bool) bool {
	if m.Favorable == LowerIsBetter {
		return down
	}
	return up
}

// AverageExpense spreads expense over the period's unit of time: hours for
// daily, months for yearly, otherwise the distinct calendar dates in txs.
func AverageExpense(period Period, expense Money, txs []Transaction) Money {
	if expense.IsZero() {
		return Money{}
	}
	var divisor int64
	switch period {
	case Daily:
		divisor = 24
	case Yearly:
		divisor = 12
	default:
		divisor = int64(distinctDates(txs))
	}
	if divisor < 1 {
		divisor = 1
	}
	// Half-up rounding; amounts are non-negative.
	return Money{Rupiah: (expense.Rupiah*2 + divisor) / (2 * divisor)}
}

func distinctDates(txs []Transaction) int {
	seen := make(map[[3]int]struct{}, len(txs))
	for _, t := range txs {
		y, m, d := t.Date.Date()
		seen[[3]int{y, int(m), d}] = struct{}{}
	}
	return len(seen)
}

// BreakdownByCategory totals expenses per category, largest first. Ties keep
// first-occurrence order.
func BreakdownByCategory(txs []Transaction) []CategoryAmount {
	index := map[string]int{}
	out := []CategoryAmount{}
	var total int64
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, CategoryAmount{Name: t.Category})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
		total += t.Amount.Rupiah
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Amount.Rupiah > out[b].Amount.Rupiah
	})
	if total > 0 {
		for i := range out {
			out[i].Share = decimal.NewFromInt(out[i].Amount.Rupiah * 100).
				DivRound(decimal.NewFromInt(total), 1)
		}
	}
	return out
}

type bucket struct {
	key   int
	point TrendPoint
}

// Trend groups txs into chart buckets sized by period, ordered by bucket key.
func Trend(period Period, txs []Transaction) []TrendPoint {
	buckets := map[int]*bucket{}
	for _, t := range txs {
		key, label, ok := bucketFor(period, t.Date.Time)
		if !ok {
			continue
		}
		b, exists := buckets[key]
		if !exists {
			b = &bucket{key: key, point: TrendPoint{Label: label}}
			buckets[key] = b
		}
		switch t.Type {
		case Income:
			b.point.Income = b.point.Income.Add(t.Amount)
		case Expense:
			b.point.Expense = b.point.Expense.Add(t.Amount)
		}
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].key < ordered[j].key })

	out := make([]TrendPoint, len(ordered))
	for i, b := range ordered {
		out[i] = b.point
	}
	return out
}

// bucketFor returns a numeric sort key and display label. Weekly keys are
// YYYYMMDD so they sort by date value.
func bucketFor(period Period, t time.Time) (int, string, bool) {
	switch period {
	case Daily:
		return t.Hour(), fmt.Sprintf("%02d:00", t.Hour()), true
	case Weekly:
		y, m, d := t.Date()
		return y*10000 + int(m)*100 + d, t.Weekday().String()[:3], true
	case Monthly:
		return t.Day(), strconv.Itoa(t.Day()), true
	case Yearly:
		return int(t.Month()), t.Month().String()[:3], true
	default:
		return 0, "", false
	}
}

// Recent returns up to n transactions of type typ, newest first.
func Recent(txs []Transaction, typ TxType, n int) []Transaction {
	out := []Transaction{}
	for _, t := range txs {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
