package report

import (
	"strings"

	"github.com/pkg/errors"

	"value_investor/pkg/core/calc"
)

// Group is a dashboard metric selector entry.
type Group string

const (
	GroupRevenue   Group = "Revenue"
	GroupMargins   Group = "Margins"
	GroupDebt      Group = "Debt"
	GroupValuation Group = "Valuation"
	GroupBuybacks  Group = "Buybacks"
	GroupCashFlow  Group = "Cash Flow"
)

// DefaultGroups is the selector default.
var DefaultGroups = []Group{GroupRevenue, GroupMargins}

var groupFields = map[Group][]calc.Field{
	GroupRevenue:   {calc.FieldRevenue},
	GroupMargins:   {calc.FieldGrossMargin, calc.FieldOperatingMargin, calc.FieldNetMargin},
	GroupDebt:      {calc.FieldTotalDebt},
	GroupValuation: nil, // served through cards
	GroupBuybacks:  {calc.FieldBuybacks, calc.FieldSharesOutstanding},
	GroupCashFlow:  {calc.FieldFreeCashFlow},
}

// ParseGroups reads a comma-separated selector, case-insensitively. Empty input
// gives DefaultGroups; duplicates are dropped.
func ParseGroups(s string) ([]Group, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultGroups, nil
	}
	var out []Group
	seen := make(map[Group]bool)
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		g, ok := lookupGroup(name)
		if !ok {
			return nil, errors.Errorf("unknown metric group %q", name)
		}
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	if len(out) == 0 {
		return DefaultGroups, nil
	}
	return out, nil
}

func lookupGroup(name string) (Group, bool) {
	for g := range groupFields {
		if strings.EqualFold(string(g), name) {
			return g, true
		}
	}
	return "", false
}

// Series is one chartable column. Points are nil where the value is unavailable.
type Series struct {
	Field  calc.Field `json:"field"`
	Unit   calc.Unit  `json:"unit"`
	Points []*float64 `json:"points"`
}

// Chart is what the charting layer consumes: the period axis plus series.
type Chart struct {
	Periods []string `json:"periods"`
	Series  []Series `json:"series"`
}

// ChartSeries extracts the columns of the selected groups, in group order.
func ChartSeries(table *calc.MetricTable, groups []Group) Chart {
	chart := Chart{Periods: table.PeriodLabels(), Series: []Series{}}
	for _, g := range groups {
		for _, f := range groupFields[g] {
			col := table.Column(f)
			points := make([]*float64, len(col))
			for i, v := range col {
				points[i] = v.Ptr()
			}
			chart.Series = append(chart.Series, Series{Field: f, Unit: f.Unit(), Points: points})
		}
	}
	return chart
}
