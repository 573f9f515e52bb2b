package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

// DateLayout is the wire and storage layout for date-only values.
const DateLayout = "2006-01-02"

type (
	TxType string

	// Date is a calendar date with an optional time of day. No timezone is
	// persisted: the wall-clock fields are read in the caller's location.
	Date struct {
		time.Time
	}

	// Money is a non-negative amount of Indonesian rupiah.
	Money struct {
		Rupiah int64
	}

	Transaction struct {
		ID            string `json:"id"`
		Date          Date   `json:"date"`
		Type          TxType `json:"type"`
		Category      string `json:"category"`
		Description   string `json:"description,omitempty"`
		Amount        Money  `json:"amount"`
		PaymentMethod string `json:"payment_method"`
	}
)

var (
	ErrInvalidDay           = errors.New("invalid day")
	ErrInvalidMonth         = errors.New("invalid month")
	ErrZeroDate             = errors.New("date cannot be zero")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidType          = errors.New("invalid transaction type")
	ErrInvalidCategory      = errors.New("invalid category")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrDescriptionTooLong   = errors.New("description too long (max 200 characters)")
)

// IsValid reports whether t is one of the known transaction types.
func (t TxType) IsValid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

// ParseTxType parses "income" or "expense", case-insensitively.
func ParseTxType(s string) (TxType, error) {
	t := TxType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	_, month, day := d.Time.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts either YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// In re-reads the wall-clock fields of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	t := d.Time
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// HasClock reports whether d carries a time of day.
func (d Date) HasClock() bool {
	h, m, s := d.Clock()
	return h != 0 || m != 0 || s != 0 || d.Nanosecond() != 0
}

// String renders date-only values as YYYY-MM-DD and timed values as RFC 3339.
func (d Date) String() string {
	if d.HasClock() {
		return d.Time.Format(time.RFC3339)
	}
	return d.Time.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Rupiah < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Rupiah: m.Rupiah + o.Rupiah}
}

func (m Money) IsZero() bool {
	return m.Rupiah == 0
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Rupiah)
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	m.Rupiah = v
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if !IsCategory(t.Type, t.Category) {
		return fmt.Errorf("%w: %q is not a %s category", ErrInvalidCategory, t.Category, t.Type)
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !IsPaymentMethod(t.PaymentMethod) {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, t.PaymentMethod)
	}
	return nil
}

// ValidateNew is Validate plus the entry-form rule that amounts are positive.
func (t Transaction) ValidateNew() error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.Amount.Rupiah == 0 {
		return ErrInvalidAmount
	}
	return nil
}

// DuplicateIDs returns IDs used by more than one transaction, in first-seen order.
func DuplicateIDs(txs []Transaction) []string {
	seen := make(map[string]int, len(txs))
	var dups []string
	for _, t := range txs {
		if t.ID == "" {
			continue
		}
		seen[t.ID]++
		if seen[t.ID] == 2 {
			dups = append(dups, t.ID)
		}
	}
	return dups
}
