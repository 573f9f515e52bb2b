package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		period   Period
		current  []string
		previous []string
		neither  []string
	}{
		{
			name:     "daily",
			now:      time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
			period:   Daily,
			current:  []string{"2025-03-15", "2025-03-15T23:59:00Z"},
			previous: []string{"2025-03-14", "2025-03-14T08:00:00Z"},
			neither:  []string{"2025-03-13", "2025-03-16", "2024-03-15"},
		},
		{
			name:     "daily across a year boundary",
			now:      time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC),
			period:   Daily,
			current:  []string{"2025-01-01"},
			previous: []string{"2024-12-31"},
			neither:  []string{"2024-12-30", "2025-01-02"},
		},
		{
			name:     "weekly rolling window",
			now:      time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
			period:   Weekly,
			current:  []string{"2025-03-09", "2025-03-15", "2025-03-08T10:00:00Z"},
			previous: []string{"2025-03-08", "2025-03-02", "2025-03-01T10:00:00Z"},
			neither:  []string{"2025-03-16", "2025-03-01", "2025-02-20"},
		},
		{
			name:     "monthly across a year boundary",
			now:      time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
			period:   Monthly,
			current:  []string{"2025-01-01", "2025-01-31"},
			previous: []string{"2024-12-01", "2024-12-31"},
			neither:  []string{"2024-11-30", "2025-02-01", "2024-01-15"},
		},
		{
			name:     "monthly from the 31st",
			now:      time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC),
			period:   Monthly,
			current:  []string{"2025-03-01"},
			previous: []string{"2025-02-10", "2025-02-28"},
			neither:  []string{"2025-01-31"},
		},
		{
			name:     "yearly",
			now:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			period:   Yearly,
			current:  []string{"2025-01-01", "2025-12-31"},
			previous: []string{"2024-01-01", "2024-12-31"},
			neither:  []string{"2023-12-31", "2026-01-01"},
		},
		{
			name:    "unknown period selects nothing",
			now:     time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC),
			period:  Period("hourly"),
			neither: []string{"2025-03-15", "2025-03-14", "2024-03-15"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Classify(tt.now, tt.period)
			for _, s := range tt.current {
				d := mustDate(t, s)
				assert.True(t, w.Current(d), "%s should be current", s)
				assert.False(t, w.Previous(d), "%s should not be previous", s)
			}
			for _, s := range tt.previous {
				d := mustDate(t, s)
				assert.True(t, w.Previous(d), "%s should be previous", s)
				assert.False(t, w.Current(d), "%s should not be current", s)
			}
			for _, s := range tt.neither {
				d := mustDate(t, s)
				assert.False(t, w.Current(d), "%s should not be current", s)
				assert.False(t, w.Previous(d), "%s should not be previous", s)
			}
		})
	}
}

func TestClassify_ReadsDatesInNowLocation(t *testing.T) {
	wib := time.FixedZone("WIB", 7*3600)
	now := time.Date(2025, 3, 15, 6, 0, 0, 0, wib)
	w := Classify(now, Daily)

	assert.True(t, w.Current(mustDate(t, "2025-03-15")))
	assert.True(t, w.Previous(mustDate(t, "2025-03-14")))
}

func TestWindowSplit(t *testing.T) {
	now := time.Date(2025, 2, 15, 9, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx("a", "2025-02-01", Income, "Salary", 1),
		tx("b", "2025-01-20", Expense, "Food", 1),
		tx("c", "2024-12-31", Expense, "Food", 1),
		tx("d", "2025-02-14", Expense, "Bills", 1),
	}
	current, previous := Classify(now, Monthly).Split(txs)
	require.Len(t, current, 2)
	require.Len(t, previous, 1)
	assert.Equal(t, "a", current[0].ID)
	assert.Equal(t, "d", current[1].ID)
	assert.Equal(t, "b", previous[0].ID)
}

func TestParsePeriod(t *testing.T) {
	for _, p := range Periods() {
		got, err := ParsePeriod(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	got, err := ParsePeriod(" Weekly ")
	require.NoError(t, err)
	assert.Equal(t, Weekly, got)

	_, err = ParsePeriod("hourly")
	assert.Error(t, err)
}

func TestPeriodLabels(t *testing.T) {
	tests := []struct {
		period  Period
		label   string
		average string
	}{
		{Daily, "Today", "Avg Hourly Expense"},
		{Weekly, "Last 7 Days", "Avg Daily Expense"},
		{Monthly, "This Month", "Avg Daily Expense"},
		{Yearly, "This Year", "Avg Monthly Expense"},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			assert.Equal(t, tt.label, tt.period.Label())
			assert.Equal(t, tt.average, tt.period.AverageLabel())
		})
	}
}
