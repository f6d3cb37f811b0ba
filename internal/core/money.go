// Package core provides money parsing and handling utilities.
//
// This file contains the numeric coercion used at the data boundary and the
// display helpers that prefix currency symbols and apply locale grouping.
package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ParseDecimal converts a user-entered decimal string to a float.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs are
// allowed; range checks belong to validation. NaN and infinities are rejected.
//
// Examples:
//
//	ParseDecimal("12.34") -> 12.34, nil
//	ParseDecimal("12,34") -> 12.34, nil
//	ParseDecimal("abc")   -> 0, ErrInvalidAmount
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// Number coerces a loosely typed value (as decoded from JSON, forms or legacy
// rows) to a float. Missing, non-numeric and non-finite values become 0.
func Number(v any) float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case *float64:
		if n == nil {
			return 0
		}
		f = *n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := ParseDecimal(n)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Round2 rounds half away from zero to two decimals. Display and comparison only.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Formatter renders amounts with a currency symbol and locale digit grouping.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter builds a formatter for a BCP 47 locale, falling back to English.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		tag = language.English
	}
	return &Formatter{printer: message.NewPrinter(tag)}
}

var defaultFormatter = NewFormatter("en")

// Amount formats v as e.g. "₹1,234.50" or "-₹12.00".
func (f *Formatter) Amount(currency string, v float64) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	v = Round2(v)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + currency + f.printer.Sprintf("%.2f", v)
}

// Percent formats a percentage with two decimals, e.g. "39.13%".
func (f *Formatter) Percent(v float64) string {
	return f.printer.Sprintf("%.2f", Round2(v)) + "%"
}

// FormatAmount formats with the default English formatter.
func FormatAmount(currency string, v float64) string {
	return defaultFormatter.Amount(currency, v)
}
