// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing rupiah amounts typed by users and
// rendering them the way the dashboard shows currency.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseRupiah converts a user-entered amount to whole rupiah.
//
// It accepts an optional "Rp"/"IDR" prefix, "." or "," thousands separators in
// groups of three, and a one- or two-digit fractional part which is rounded
// half-up. The result is always positive; zero, negative values and malformed
// input return ErrInvalidAmount.
//
// Examples:
//
//	ParseRupiah("8500000")        -> 8500000, nil
//	ParseRupiah("Rp 8.500.000")   -> 8500000, nil
//	ParseRupiah("8,500,000")      -> 8500000, nil
//	ParseRupiah("12500,50")       -> 12501, nil (rounds up)
func ParseRupiah(s string) (int64, error) {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"Rp", "RP", "rp", "IDR"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
			s = strings.TrimPrefix(s, ".")
			s = strings.TrimSpace(s)
			break
		}
	}
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}

	intPart, fracPart := s, ""
	if i := strings.LastIndexAny(s, ".,"); i >= 0 {
		if tail := s[i+1:]; len(tail) == 1 || len(tail) == 2 {
			intPart, fracPart = s[:i], tail
		}
	}
	if intPart == "" {
		intPart = "0"
	}

	groups := strings.FieldsFunc(intPart, func(r rune) bool { return r == '.' || r == ',' })
	if len(groups) == 0 {
		return 0, ErrInvalidAmount
	}
	if len(groups) > 1 {
		if len(groups[0]) < 1 || len(groups[0]) > 3 {
			return 0, ErrInvalidAmount
		}
		for _, g := range groups[1:] {
			if len(g) != 3 {
				return 0, ErrInvalidAmount
			}
		}
	}
	digits := strings.Join(groups, "")
	if !allDigits(digits) || !allDigits(fracPart) {
		return 0, ErrInvalidAmount
	}

	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if fracPart != "" && fracPart[0] >= '5' {
		if v == 1<<63-1 {
			return 0, ErrInvalidAmount
		}
		v++
	}
	if v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatRupiah renders an amount as "Rp 8.500.000" (id-ID grouping, no decimals).
func FormatRupiah(rupiah int64) string {
	neg := rupiah < 0
	if neg {
		rupiah = -rupiah
	}
	raw := strconv.FormatInt(rupiah, 10)
	var b strings.Builder
	for i, r := range raw {
		if i > 0 && (len(raw)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}

// String implements fmt.Stringer
func (m Money) String() string {
	return FormatRupiah(m.Rupiah)
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
