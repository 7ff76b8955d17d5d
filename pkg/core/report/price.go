package report

import (
	"value_investor/pkg/core/calc"
	"value_investor/pkg/core/format"
	"value_investor/pkg/models"
)

// Provider info keys for the quote line.
const (
	CurrentPriceKey  = "currentPrice"
	PreviousCloseKey = "previousClose"
)

// PriceView is the quote line above the header cards.
type PriceView struct {
	Price     calc.Value       `json:"price"`
	Display   string           `json:"display"`
	Change    string           `json:"change"`
	Direction format.Direction `json:"direction"`
}

// Quote builds the quote line from provider info. It returns nil when the
// provider reported no current price.
func Quote(info models.CompanyInfo) *PriceView {
	raw, ok := info[CurrentPriceKey]
	if !ok {
		return nil
	}
	cur := calc.FromRaw(raw)
	if !cur.Available() {
		return nil
	}
	prev := calc.NA()
	if p, ok := info[PreviousCloseKey]; ok {
		prev = calc.FromRaw(p)
	}
	change, dir := format.PriceChange(cur, prev)
	return &PriceView{
		Price:     cur,
		Display:   format.LargeNumber(cur),
		Change:    change,
		Direction: dir,
	}
}
