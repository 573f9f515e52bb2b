package core

import "time"

// Filter narrows a transaction list the way the history screens do: an
// inclusive date range, an optional type and a set of categories.
type Filter struct {
	From       *Date
	To         *Date
	Type       TxType
	Categories []string
}

// Apply keeps matching transactions in input order.
func (f Filter) Apply(txs []Transaction) []Transaction {
	out := []Transaction{}
	for _, t := range txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Match reports whether t passes every configured criterion. A To date
// without a time of day includes that whole day.
func (f Filter) Match(t Transaction) bool {
	loc := time.UTC
	at := t.Date.In(loc)
	if f.From != nil && at.Before(f.From.In(loc)) {
		return false
	}
	if f.To != nil {
		end := f.To.In(loc)
		if !f.To.HasClock() {
			end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		if at.After(end) {
			return false
		}
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if len(f.Categories) > 0 && !contains(f.Categories, t.Category) {
		return false
	}
	return true
}

// Summary is the range summary shown above a filtered list.
type Summary struct {
	Totals
	Count int `json:"count"`
}

func Summarize(txs []Transaction) Summary {
	return Summary{Totals: ComputeTotals(txs), Count: len(txs)}
}
