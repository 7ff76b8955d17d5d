package calc

import "value_investor/pkg/models"

// Unit selects how a value is displayed.
type Unit string

const (
	UnitCurrency   Unit = "currency"
	UnitPercentage Unit = "percentage"
	UnitRatio      Unit = "ratio"
	UnitCount      Unit = "count"
)

// Field names a column of the metric table.
type Field string

const (
	FieldRevenue           Field = "Revenue"
	FieldGrossMargin       Field = "Gross Margin"
	FieldOperatingMargin   Field = "Operating Margin"
	FieldNetMargin         Field = "Net Margin"
	FieldTotalDebt         Field = "Total Debt"
	FieldSharesOutstanding Field = "Shares Outstanding"
	FieldBuybacks          Field = "Buybacks"
	FieldFreeCashFlow      Field = "Free Cash Flow"
)

// Fields is the column order of the metric table.
var Fields = []Field{
	FieldRevenue,
	FieldGrossMargin,
	FieldOperatingMargin,
	FieldNetMargin,
	FieldTotalDebt,
	FieldSharesOutstanding,
	FieldBuybacks,
	FieldFreeCashFlow,
}

// Unit is the display unit of the column.
func (f Field) Unit() Unit {
	switch f {
	case FieldGrossMargin, FieldOperatingMargin, FieldNetMargin:
		return UnitPercentage
	case FieldSharesOutstanding:
		return UnitCount
	}
	return UnitCurrency
}

// PeriodMetrics is one row of the metric table.
type PeriodMetrics struct {
	Period            string `json:"period"`
	Revenue           Value  `json:"revenue"`
	GrossMargin       Value  `json:"gross_margin"`
	OperatingMargin   Value  `json:"operating_margin"`
	NetMargin         Value  `json:"net_margin"`
	TotalDebt         Value  `json:"total_debt"`
	SharesOutstanding Value  `json:"shares_outstanding"`
	Buybacks          Value  `json:"buybacks"`
	FreeCashFlow      Value  `json:"free_cash_flow"`
}

// Get returns the value of field f; unknown fields are unavailable.
func (p PeriodMetrics) Get(f Field) Value {
	switch f {
	case FieldRevenue:
		return p.Revenue
	case FieldGrossMargin:
		return p.GrossMargin
	case FieldOperatingMargin:
		return p.OperatingMargin
	case FieldNetMargin:
		return p.NetMargin
	case FieldTotalDebt:
		return p.TotalDebt
	case FieldSharesOutstanding:
		return p.SharesOutstanding
	case FieldBuybacks:
		return p.Buybacks
	case FieldFreeCashFlow:
		return p.FreeCashFlow
	}
	return NA()
}

// MetricTable is the normalized, period-ordered view of one ticker and cadence.
type MetricTable struct {
	Ticker  string          `json:"ticker"`
	Cadence models.Cadence  `json:"cadence"`
	Periods []PeriodMetrics `json:"periods"`
}

// Column returns field f for every period, in table order.
func (t *MetricTable) Column(f Field) []Value {
	out := make([]Value, len(t.Periods))
	for i, p := range t.Periods {
		out[i] = p.Get(f)
	}
	return out
}

// PeriodLabels returns the period index.
func (t *MetricTable) PeriodLabels() []string {
	out := make([]string, len(t.Periods))
	for i, p := range t.Periods {
		out[i] = p.Period
	}
	return out
}
