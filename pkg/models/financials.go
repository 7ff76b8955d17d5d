// Package models holds the raw, provider-shaped financial data consumed by the
// normalizer. Nothing here interprets line items; it only carries them.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Cadence is the reporting frequency of a statement set.
type Cadence string

const (
	Annual    Cadence = "annual"
	Quarterly Cadence = "quarterly"
)

// ParseCadence accepts "annual"/"quarterly" in any case.
func ParseCadence(s string) (Cadence, error) {
	switch Cadence(strings.ToLower(strings.TrimSpace(s))) {
	case Annual:
		return Annual, nil
	case Quarterly:
		return Quarterly, nil
	}
	return "", fmt.Errorf("unknown cadence %q", s)
}

// StatementKind names one of the three financial statements.
type StatementKind string

const (
	IncomeStatement StatementKind = "income"
	BalanceSheet    StatementKind = "balance"
	CashFlow        StatementKind = "cashflow"
)

// StatementKinds lists the statements in period-index precedence order.
var StatementKinds = []StatementKind{IncomeStatement, BalanceSheet, CashFlow}

// RawValue is a single provider cell. A nil Value means the provider did not
// report a usable number.
type RawValue struct {
	Value *float64
}

// Num wraps a reported number.
func Num(f float64) RawValue {
	return RawValue{Value: &f}
}

// Missing is the empty cell.
func Missing() RawValue {
	return RawValue{}
}

// Float returns the number and whether it is usable. NaN and ±Inf are not.
func (r RawValue) Float() (float64, bool) {
	if r.Value == nil {
		return 0, false
	}
	f := *r.Value
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// UnmarshalJSON never fails on content: anything that is not a number or a
// numeric string decodes as missing.
func (r *RawValue) UnmarshalJSON(b []byte) error {
	r.Value = nil
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		*r = ParseRawValue(s)
		return nil
	}
	if f, err := strconv.ParseFloat(string(b), 64); err == nil {
		r.Value = &f
	}
	return nil
}

// MarshalJSON writes null for anything Float would reject.
func (r RawValue) MarshalJSON() ([]byte, error) {
	f, ok := r.Float()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// ParseRawValue reads the text of a provider cell. Thousands separators and
// surrounding whitespace are tolerated; "(1,234)" is read as negative.
func ParseRawValue(s string) RawValue {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "$")
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		return Missing()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing()
	}
	if neg {
		f = -f
	}
	return Num(f)
}

// Statement is a label-keyed table. Each row is aligned to Periods; a row
// shorter than Periods is missing its tail.
type Statement struct {
	Periods []string              `json:"periods"`
	Rows    map[string][]RawValue `json:"rows"`
}

// Empty reports whether the statement has no periods.
func (s Statement) Empty() bool {
	return len(s.Periods) == 0
}

// Row returns the row for label, if the provider reported one.
func (s Statement) Row(label string) ([]RawValue, bool) {
	if s.Rows == nil {
		return nil, false
	}
	row, ok := s.Rows[label]
	return row, ok
}

// PeriodIndex maps each period label to its first column.
func (s Statement) PeriodIndex() map[string]int {
	idx := make(map[string]int, len(s.Periods))
	for i, p := range s.Periods {
		if _, seen := idx[p]; !seen {
			idx[p] = i
		}
	}
	return idx
}

// StatementSet bundles the three statements of one cadence.
type StatementSet struct {
	Income   Statement `json:"income"`
	Balance  Statement `json:"balance"`
	CashFlow Statement `json:"cash_flow"`
}

// Get returns the statement of the given kind.
func (s StatementSet) Get(kind StatementKind) Statement {
	switch kind {
	case IncomeStatement:
		return s.Income
	case BalanceSheet:
		return s.Balance
	case CashFlow:
		return s.CashFlow
	}
	return Statement{}
}

// Set stores st under kind. Unknown kinds are ignored.
func (s *StatementSet) Set(kind StatementKind, st Statement) {
	switch kind {
	case IncomeStatement:
		s.Income = st
	case BalanceSheet:
		s.Balance = st
	case CashFlow:
		s.CashFlow = st
	}
}

// Empty reports whether all three statements are empty.
func (s StatementSet) Empty() bool {
	return s.Income.Empty() && s.Balance.Empty() && s.CashFlow.Empty()
}

// CompanyInfo is the flat scalar record a provider returns next to the statements
// (trailingPE, marketCap, debtToEquity...).
type CompanyInfo map[string]RawValue

// RawFinancials is everything fetched for one ticker in one cache window.
type RawFinancials struct {
	Ticker    string       `json:"ticker"`
	Annual    StatementSet `json:"annual"`
	Quarterly StatementSet `json:"quarterly"`
	Info      CompanyInfo  `json:"info"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// Statements returns the statement set for a cadence.
func (r *RawFinancials) Statements(c Cadence) (StatementSet, bool) {
	switch c {
	case Annual:
		return r.Annual, true
	case Quarterly:
		return r.Quarterly, true
	}
	return StatementSet{}, false
}

var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-=^]{0,14}$`)

// ErrInvalidTicker is returned for symbols that are empty or contain
// characters no exchange uses.
var ErrInvalidTicker = errors.New("invalid ticker")

// NormalizeTicker upper-cases and validates a symbol. The result is safe to use
// in file names and URL paths.
func NormalizeTicker(s string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	if !tickerPattern.MatchString(t) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, s)
	}
	return t, nil
}
