package calc

import "value_investor/pkg/models"

// InfoCard describes one headline metric read from CompanyInfo.
// Scale converts the provider's number into Unit; zero means 1.
type InfoCard struct {
	Title string  `json:"title" yaml:"title" validate:"required"`
	Key   string  `json:"key" yaml:"key" validate:"required"`
	Unit  Unit    `json:"unit" yaml:"unit" validate:"required,oneof=currency percentage ratio count"`
	Scale float64 `json:"scale,omitempty" yaml:"scale,omitempty" validate:"gte=0"`
}

// Card is an InfoCard resolved against a CompanyInfo record.
type Card struct {
	Title string `json:"title"`
	Unit  Unit   `json:"unit"`
	Value Value  `json:"value"`
}

// DefaultInfoCards are the dashboard header cards. debtToEquity is reported in
// percentage points by yfinance-style providers, hence the 0.01 scale.
func DefaultInfoCards() []InfoCard {
	return []InfoCard{
		{Title: "Current PE Ratio", Key: "trailingPE", Unit: UnitRatio},
		{Title: "Market Cap", Key: "marketCap", Unit: UnitCurrency},
		{Title: "Debt/Equity", Key: "debtToEquity", Unit: UnitRatio, Scale: 0.01},
	}
}

// InfoCards resolves cards against info. A missing or non-numeric key yields an
// unavailable card value.
func InfoCards(info models.CompanyInfo, cards []InfoCard) []Card {
	out := make([]Card, 0, len(cards))
	for _, c := range cards {
		v := NA()
		if raw, ok := info[c.Key]; ok {
			v = FromRaw(raw)
		}
		scale := c.Scale
		if scale == 0 {
			scale = 1
		}
		out = append(out, Card{Title: c.Title, Unit: c.Unit, Value: Scale(v, scale)})
	}
	return out
}
