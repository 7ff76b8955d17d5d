package calc

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"value_investor/pkg/models"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name     string
		num, den Value
		want     Value
	}{
		{"plain", Reported(50), Reported(100), Computed(0.5)},
		{"zero numerator", Reported(0), Reported(100), Computed(0)},
		{"zero denominator", Reported(50), Reported(0), NA()},
		{"missing numerator", NA(), Reported(100), NA()},
		{"missing denominator", Reported(50), NA(), NA()},
		{"negative", Reported(-10), Reported(40), Computed(-0.25)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ratio(tt.num, tt.den))
		})
	}
}

func TestValue_NonFinite(t *testing.T) {
	assert.False(t, Reported(math.NaN()).Available())
	assert.False(t, Computed(math.Inf(1)).Available())
	assert.False(t, FromRaw(models.Num(math.Inf(-1))).Available())
	assert.False(t, Scale(Reported(math.MaxFloat64), 10).Available())
}

func TestValue_JSON(t *testing.T) {
	out, err := json.Marshal([]Value{Reported(1.5), NA(), Computed(0)})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null, 0]`, string(out))
}

func TestValue_Helpers(t *testing.T) {
	assert.Equal(t, Reported(3), Abs(Reported(-3)))
	assert.Equal(t, NA(), Abs(NA()))
	assert.Equal(t, Computed(75), Add(Reported(120), Reported(-45)))
	assert.Equal(t, NA(), Add(Reported(1), NA()))
	assert.Equal(t, NA(), Add(Reported(math.MaxFloat64), Reported(math.MaxFloat64)))
	assert.Equal(t, Computed(100), Scale(Computed(200), 0.5))
	assert.Nil(t, NA().Ptr())
	require.NotNil(t, Reported(4).Ptr())
	assert.Equal(t, 4.0, *Reported(4).Ptr())
	assert.Equal(t, "unavailable", NA().Kind.String())
	assert.Equal(t, "reported", KindReported.String())
}

func TestPeriodChange(t *testing.T) {
	got := PeriodChange([]Value{Reported(100), Reported(150), NA(), Reported(80), Reported(0), Reported(5), Reported(-10), Reported(-5)})

	assert.False(t, got[0].Available(), "first period has no predecessor")
	assert.Equal(t, Computed(0.5), got[1])
	assert.False(t, got[2].Available())
	assert.False(t, got[3].Available(), "previous value missing")
	assert.Equal(t, Computed(-1), got[4])
	assert.False(t, got[5].Available(), "previous value zero")
	assert.Equal(t, Computed(-3), got[6])
	assert.Equal(t, Computed(0.5), got[7], "change against a negative base uses its magnitude")
}

func TestInfoCards(t *testing.T) {
	info := models.CompanyInfo{
		"trailingPE":   models.Num(24.567),
		"marketCap":    models.Num(2.5e12),
		"debtToEquity": models.Num(150.5),
	}
	cards := InfoCards(info, DefaultInfoCards())
	require.Len(t, cards, 3)

	assert.Equal(t, "Current PE Ratio", cards[0].Title)
	assert.Equal(t, Reported(24.567), cards[0].Value)
	assert.Equal(t, UnitCurrency, cards[1].Unit)
	assert.InDelta(t, 1.505, cards[2].Value.Num, 1e-12)

	missing := InfoCards(models.CompanyInfo{"marketCap": models.Missing()}, DefaultInfoCards())
	for _, c := range missing {
		assert.False(t, c.Value.Available(), c.Title)
	}
}

func TestLabelMap_Merge(t *testing.T) {
	base := DefaultLabelMap()
	merged := base.Merge(LabelMap{TotalDebt: {Statement: models.BalanceSheet, Label: "Total Debt"}})

	assert.Equal(t, "Total Debt", merged[TotalDebt].Label)
	assert.Equal(t, "Long Term Debt", base[TotalDebt].Label, "base is not modified")
	assert.Len(t, merged.Concepts(), len(normalizedConcepts))
	assert.Equal(t, []string{"A", "B"}, Source{Label: "A", Fallbacks: []string{"B"}}.Labels())
}
