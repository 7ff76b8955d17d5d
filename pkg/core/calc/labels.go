package calc

import (
	"sort"

	"value_investor/pkg/models"
)

// Concept is a canonical metric name, independent of any provider vocabulary.
type Concept string

const (
	TotalRevenue      Concept = "Total Revenue"
	GrossProfit       Concept = "Gross Profit"
	OperatingIncome   Concept = "Operating Income"
	NetIncome         Concept = "Net Income"
	TotalDebt         Concept = "Total Debt"
	SharesOutstanding Concept = "Shares Outstanding"
	ShareRepurchases  Concept = "Share Repurchases"
	FreeCashFlow      Concept = "Free Cash Flow"
	OperatingCashFlow Concept = "Operating Cash Flow"
	CapitalSpending   Concept = "Capital Expenditure"
)

// normalizedConcepts are the concepts Normalize reads.
var normalizedConcepts = []Concept{
	TotalRevenue, GrossProfit, OperatingIncome, NetIncome,
	TotalDebt, SharesOutstanding, ShareRepurchases,
	FreeCashFlow, OperatingCashFlow, CapitalSpending,
}

// Source locates a concept in a provider's statements. Label is tried first,
// then Fallbacks in order.
type Source struct {
	Statement models.StatementKind `json:"statement" yaml:"statement" validate:"required,oneof=income balance cashflow"`
	Label     string               `json:"label" yaml:"label" validate:"required"`
	Fallbacks []string             `json:"fallbacks,omitempty" yaml:"fallbacks,omitempty" validate:"dive,required"`
}

// Labels returns Label followed by Fallbacks.
func (s Source) Labels() []string {
	out := make([]string, 0, 1+len(s.Fallbacks))
	out = append(out, s.Label)
	return append(out, s.Fallbacks...)
}

// LabelMap maps canonical concepts to provider line items.
type LabelMap map[Concept]Source

// DefaultLabelMap is the yfinance-style vocabulary. Shares Outstanding reads
// the balance-sheet "Common Stock" line, which is a par-value amount on many
// providers; override it with "Ordinary Shares Number" or "Share Issued" where
// the provider has one. Capital Expenditure is reported negative, so operating
// cash flow plus capital expenditure is free cash flow.
func DefaultLabelMap() LabelMap {
	return LabelMap{
		TotalRevenue:      {Statement: models.IncomeStatement, Label: "Total Revenue"},
		GrossProfit:       {Statement: models.IncomeStatement, Label: "Gross Profit"},
		OperatingIncome:   {Statement: models.IncomeStatement, Label: "Operating Income"},
		NetIncome:         {Statement: models.IncomeStatement, Label: "Net Income"},
		TotalDebt:         {Statement: models.BalanceSheet, Label: "Long Term Debt"},
		SharesOutstanding: {Statement: models.BalanceSheet, Label: "Common Stock"},
		ShareRepurchases:  {Statement: models.CashFlow, Label: "Repurchase Of Capital Stock"},
		FreeCashFlow:      {Statement: models.CashFlow, Label: "Free Cash Flow"},
		OperatingCashFlow: {Statement: models.CashFlow, Label: "Operating Cash Flow"},
		CapitalSpending:   {Statement: models.CashFlow, Label: "Capital Expenditure"},
	}
}

// Merge returns a copy of m with overrides applied per concept.
func (m LabelMap) Merge(overrides LabelMap) LabelMap {
	out := make(LabelMap, len(m)+len(overrides))
	for c, s := range m {
		out[c] = s
	}
	for c, s := range overrides {
		out[c] = s
	}
	return out
}

// Concepts returns the mapped concepts sorted by name.
func (m LabelMap) Concepts() []Concept {
	out := make([]Concept, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
