package calc

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"value_investor/pkg/models"
)

var (
	// ErrDataUnavailable means no period index could be built: every statement
	// for the requested cadence is empty.
	ErrDataUnavailable = errors.New("no financial data available")
	// ErrUnknownCadence is returned for a cadence other than annual or quarterly.
	ErrUnknownCadence = errors.New("unknown cadence")
)

// Normalize maps the raw statements of one cadence onto the metric table.
// Missing line items and periods become unavailable values; only a bundle with
// no periods at all is an error. raw is not modified.
func Normalize(raw *models.RawFinancials, cadence models.Cadence, labels LabelMap) (*MetricTable, error) {
	if raw == nil {
		return nil, ErrDataUnavailable
	}
	set, ok := raw.Statements(cadence)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownCadence, "%q", cadence)
	}
	if set.Empty() {
		return nil, errors.Wrapf(ErrDataUnavailable, "%s %s statements are empty", raw.Ticker, cadence)
	}
	if labels == nil {
		labels = DefaultLabelMap()
	}

	periods := periodIndex(set)
	series := make(map[Concept][]Value, len(normalizedConcepts))
	for _, c := range normalizedConcepts {
		series[c] = conceptSeries(set, labels, c, periods)
	}

	revenue := series[TotalRevenue]
	table := &MetricTable{
		Ticker:  raw.Ticker,
		Cadence: cadence,
		Periods: make([]PeriodMetrics, len(periods)),
	}
	for i, p := range periods {
		table.Periods[i] = PeriodMetrics{
			Period:            p,
			Revenue:           revenue[i],
			GrossMargin:       Ratio(series[GrossProfit][i], revenue[i]),
			OperatingMargin:   Ratio(series[OperatingIncome][i], revenue[i]),
			NetMargin:         Ratio(series[NetIncome][i], revenue[i]),
			TotalDebt:         series[TotalDebt][i],
			SharesOutstanding: series[SharesOutstanding][i],
			Buybacks:          Abs(series[ShareRepurchases][i]),
			FreeCashFlow:      freeCashFlow(series, i),
		}
	}
	return table, nil
}

// freeCashFlow prefers the reported line and falls back to operating cash
// flow plus capital expenditure.
func freeCashFlow(series map[Concept][]Value, i int) Value {
	if v := series[FreeCashFlow][i]; v.Available() {
		return v
	}
	return Add(series[OperatingCashFlow][i], series[CapitalSpending][i])
}

// conceptSeries reads one concept for every period of the shared index.
func conceptSeries(set models.StatementSet, labels LabelMap, c Concept, periods []string) []Value {
	out := make([]Value, len(periods))
	src, ok := labels[c]
	if !ok {
		return out
	}
	st := set.Get(src.Statement)
	var row []models.RawValue
	found := false
	for _, label := range src.Labels() {
		if row, found = st.Row(label); found {
			break
		}
	}
	if !found {
		return out
	}
	cols := st.PeriodIndex()
	for i, p := range periods {
		j, ok := cols[p]
		if !ok || j >= len(row) {
			continue
		}
		out[i] = FromRaw(row[j])
	}
	return out
}

var periodLayouts = []string{time.RFC3339, "2006-01-02", "2006-01", "2006"}

func parsePeriod(p string) (time.Time, bool) {
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, p); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// periodIndex is the union of the income, balance and cash-flow periods.
// Date labels are merged in the direction the statements already use, so each
// statement keeps its own order. Other labels, and dates when no statement has
// two distinct ones, keep first-appearance order.
func periodIndex(set models.StatementSet) []string {
	var union []string
	seen := make(map[string]bool)
	for _, kind := range models.StatementKinds {
		for _, p := range set.Get(kind).Periods {
			if !seen[p] {
				seen[p] = true
				union = append(union, p)
			}
		}
	}

	dates := make(map[string]time.Time, len(union))
	for _, p := range union {
		t, ok := parsePeriod(p)
		if !ok {
			return union
		}
		dates[p] = t
	}

	descending, found := false, false
	for _, kind := range models.StatementKinds {
		if descending, found = direction(set.Get(kind).Periods, dates); found {
			break
		}
	}
	if !found {
		return union
	}
	sort.SliceStable(union, func(i, j int) bool {
		if descending {
			return dates[union[i]].After(dates[union[j]])
		}
		return dates[union[i]].Before(dates[union[j]])
	})
	return union
}

// direction reports whether ps runs newest-first, using its first two distinct
// dates.
func direction(ps []string, dates map[string]time.Time) (descending bool, ok bool) {
	for i := 1; i < len(ps); i++ {
		a, b := dates[ps[0]], dates[ps[i]]
		if a.Equal(b) {
			continue
		}
		return a.After(b), true
	}
	return false, false
}
