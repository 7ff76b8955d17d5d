// Package report shapes a metric table for display: formatted rows and cards,
// a Markdown/HTML document, and per-group chart series.
package report

import (
	"value_investor/pkg/core/calc"
	"value_investor/pkg/core/format"
	"value_investor/pkg/models"
)

// Row is one period with raw values and display strings side by side.
type Row struct {
	Period        string                    `json:"period"`
	Values        map[calc.Field]calc.Value `json:"values"`
	Display       map[calc.Field]string     `json:"display"`
	RevenueGrowth calc.Value                `json:"revenue_growth"`
	GrowthDisplay string                    `json:"revenue_growth_display"`
}

// CardView is a header card ready for a widget.
type CardView struct {
	Title   string     `json:"title"`
	Unit    calc.Unit  `json:"unit"`
	Value   calc.Value `json:"value"`
	Display string     `json:"display"`
}

// Report is the display model of one ticker and cadence.
type Report struct {
	Ticker  string         `json:"ticker"`
	Cadence models.Cadence `json:"cadence"`
	Fields  []calc.Field   `json:"fields"`
	Rows    []Row          `json:"rows"`
	Cards   []CardView     `json:"cards"`
	Price   *PriceView     `json:"price,omitempty"`
}

// Build formats every cell of table and every card.
func Build(table *calc.MetricTable, cards []calc.Card) *Report {
	r := &Report{
		Ticker:  table.Ticker,
		Cadence: table.Cadence,
		Fields:  calc.Fields,
		Rows:    make([]Row, len(table.Periods)),
		Cards:   make([]CardView, len(cards)),
	}

	growth := calc.PeriodChange(table.Column(calc.FieldRevenue))
	for i, p := range table.Periods {
		row := Row{
			Period:        p.Period,
			Values:        make(map[calc.Field]calc.Value, len(calc.Fields)),
			Display:       make(map[calc.Field]string, len(calc.Fields)),
			RevenueGrowth: growth[i],
			GrowthDisplay: format.Percentage(growth[i]),
		}
		for _, f := range calc.Fields {
			v := p.Get(f)
			row.Values[f] = v
			row.Display[f] = format.Format(v, f.Unit())
		}
		r.Rows[i] = row
	}

	for i, c := range cards {
		r.Cards[i] = CardView{
			Title:   c.Title,
			Unit:    c.Unit,
			Value:   c.Value,
			Display: format.Format(c.Value, c.Unit),
		}
	}
	return r
}
