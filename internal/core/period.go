package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// Period selects bucket width and the previous-period comparison window.
type Period string

// Periods lists every supported period in display order.
func Periods() []Period {
	return []Period{Daily, Weekly, Monthly, Yearly}
}

func (p Period) IsValid() bool {
	switch p {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

// ParsePeriod parses a period name, case-insensitively.
func ParsePeriod(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid period %q: must be one of %v", s, Periods())
	}
	return p, nil
}

// Label is the chart caption for the current window.
func (p Period) Label() string {
	switch p {
	case Daily:
		return "Today"
	case Weekly:
		return "Last 7 Days"
	case Monthly:
		return "This Month"
	case Yearly:
		return "This Year"
	default:
		return ""
	}
}

// AverageLabel names the unit AverageExpense divides by.
func (p Period) AverageLabel() string {
	switch p {
	case Daily:
		return "Avg Hourly Expense"
	case Yearly:
		return "Avg Monthly Expense"
	default:
		return "Avg Daily Expense"
	}
}

// DatePredicate selects transactions by date.
type DatePredicate func(Date) bool

// Window holds the current and immediately preceding period for a reference instant.
type Window struct {
	Period   Period
	Now      time.Time
	Current  DatePredicate
	Previous DatePredicate
}

func none(Date) bool { return false }

// Classify builds the current/previous predicates for period relative to now.
// Transaction dates are read in now's location. An unknown period selects nothing.
func Classify(now time.Time, period Period) Window {
	loc := now.Location()
	y, m, d := now.Date()
	w := Window{Period: period, Now: now, Current: none, Previous: none}

	switch period {
	case Daily:
		yesterday := time.Date(y, m, d-1, 0, 0, 0, 0, loc)
		w.Current = func(dt Date) bool { return sameDay(dt.In(loc), now) }
		w.Previous = func(dt Date) bool { return sameDay(dt.In(loc), yesterday) }
	case Weekly:
		weekAgo := now.AddDate(0, 0, -7)
		twoWeeksAgo := now.AddDate(0, 0, -14)
		w.Current = func(dt Date) bool {
			t := dt.In(loc)
			return !t.Before(weekAgo) && !t.After(now)
		}
		w.Previous = func(dt Date) bool {
			t := dt.In(loc)
			return !t.Before(twoWeeksAgo) && t.Before(weekAgo)
		}
	case Monthly:
		// Day 1 avoids AddDate overflow (March 31 minus a month is not February).
		lastMonth := time.Date(y, m-1, 1, 0, 0, 0, 0, loc)
		w.Current = func(dt Date) bool { return sameMonth(dt.In(loc), now) }
		w.Previous = func(dt Date) bool { return sameMonth(dt.In(loc), lastMonth) }
	case Yearly:
		w.Current = func(dt Date) bool { return dt.In(loc).Year() == y }
		w.Previous = func(dt Date) bool { return dt.In(loc).Year() == y-1 }
	}
	return w
}

// Split partitions txs into the current and previous period, preserving order.
func (w Window) Split(txs []Transaction) (current, previous []Transaction) {
	for _, t := range txs {
		switch {
		case w.Current(t.Date):
			current = append(current, t)
		case w.Previous(t.Date):
			previous = append(previous, t)
		}
	}
	return current, previous
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
