package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"value_investor/pkg/models"
)

func row(vals ...interface{}) []models.RawValue {
	out := make([]models.RawValue, len(vals))
	for i, v := range vals {
		switch n := v.(type) {
		case float64:
			out[i] = models.Num(n)
		case int:
			out[i] = models.Num(float64(n))
		default:
			out[i] = models.Missing()
		}
	}
	return out
}

func sampleBundle() *models.RawFinancials {
	return &models.RawFinancials{
		Ticker: "ACME",
		Annual: models.StatementSet{
			Income: models.Statement{
				Periods: []string{"2023-12-31", "2022-12-31"},
				Rows: map[string][]models.RawValue{
					"Total Revenue":    row(200.0, 100.0),
					"Gross Profit":     row(0.0, 50.0),
					"Operating Income": row(40.0, 20.0),
					"Net Income":       row(30.0, nil),
				},
			},
			Balance: models.Statement{
				Periods: []string{"2023-12-31", "2022-12-31"},
				Rows: map[string][]models.RawValue{
					"Long Term Debt": row(500.0, 450.0),
					"Common Stock":   row(10.0, 11.0),
				},
			},
			CashFlow: models.Statement{
				Periods: []string{"2023-12-31", "2022-12-31"},
				Rows: map[string][]models.RawValue{
					"Repurchase Of Capital Stock": row(-25.0, -5.0),
					"Free Cash Flow":              row(60.0, -10.0),
				},
			},
		},
	}
}

func floats(t *testing.T, vs []Value) []interface{} {
	t.Helper()
	out := make([]interface{}, len(vs))
	for i, v := range vs {
		if f, ok := v.Float(); ok {
			out[i] = f
		}
	}
	return out
}

func TestNormalize_Margins(t *testing.T) {
	table, err := Normalize(sampleBundle(), models.Annual, nil)
	require.NoError(t, err)

	assert.Equal(t, "ACME", table.Ticker)
	assert.Equal(t, models.Annual, table.Cadence)
	assert.Equal(t, []string{"2023-12-31", "2022-12-31"}, table.PeriodLabels())

	assert.Equal(t, []interface{}{200.0, 100.0}, floats(t, table.Column(FieldRevenue)))
	assert.Equal(t, []interface{}{0.0, 0.5}, floats(t, table.Column(FieldGrossMargin)))
	assert.Equal(t, []interface{}{0.2, 0.2}, floats(t, table.Column(FieldOperatingMargin)))
	assert.Equal(t, []interface{}{0.15, nil}, floats(t, table.Column(FieldNetMargin)))
	assert.Equal(t, []interface{}{500.0, 450.0}, floats(t, table.Column(FieldTotalDebt)))
	assert.Equal(t, []interface{}{10.0, 11.0}, floats(t, table.Column(FieldSharesOutstanding)))
	assert.Equal(t, []interface{}{25.0, 5.0}, floats(t, table.Column(FieldBuybacks)))
	assert.Equal(t, []interface{}{60.0, -10.0}, floats(t, table.Column(FieldFreeCashFlow)))
}

func TestNormalize_ValueKinds(t *testing.T) {
	table, err := Normalize(sampleBundle(), models.Annual, nil)
	require.NoError(t, err)

	p := table.Periods[0]
	assert.Equal(t, KindReported, p.Revenue.Kind)
	assert.Equal(t, KindComputed, p.GrossMargin.Kind)
	// A reported zero gross profit is a real 0% margin, not a gap.
	assert.True(t, p.GrossMargin.Available())
}

func TestNormalize_ExactDivision(t *testing.T) {
	raw := &models.RawFinancials{
		Annual: models.StatementSet{Income: models.Statement{
			Periods: []string{"2023"},
			Rows: map[string][]models.RawValue{
				"Total Revenue": row(3.0),
				"Net Income":    row(1.0),
			},
		}},
	}
	table, err := Normalize(raw, models.Annual, nil)
	require.NoError(t, err)

	got, ok := table.Periods[0].NetMargin.Float()
	require.True(t, ok)
	assert.Equal(t, 1.0/3.0, got)
}

func TestNormalize_ZeroOrMissingRevenue(t *testing.T) {
	raw := &models.RawFinancials{
		Quarterly: models.StatementSet{Income: models.Statement{
			Periods: []string{"2024-03-31", "2023-12-31", "2023-09-30"},
			Rows: map[string][]models.RawValue{
				"Total Revenue":    row(0.0, nil, 10.0),
				"Gross Profit":     row(5.0, 5.0, 5.0),
				"Operating Income": row(1.0, 1.0, 1.0),
			},
		}},
	}
	table, err := Normalize(raw, models.Quarterly, nil)
	require.NoError(t, err)

	gm := table.Column(FieldGrossMargin)
	assert.False(t, gm[0].Available(), "zero revenue")
	assert.False(t, gm[1].Available(), "missing revenue")
	assert.Equal(t, Computed(0.5), gm[2])

	rev := table.Column(FieldRevenue)
	assert.Equal(t, Reported(0), rev[0], "zero revenue is still reported")
}

func TestNormalize_MissingLineItem(t *testing.T) {
	raw := sampleBundle()
	delete(raw.Annual.Income.Rows, "Operating Income")

	table, err := Normalize(raw, models.Annual, nil)
	require.NoError(t, err)

	for _, v := range table.Column(FieldOperatingMargin) {
		assert.False(t, v.Available())
	}
	// Other columns are unaffected.
	assert.True(t, table.Periods[0].GrossMargin.Available())
}

func TestNormalize_MissingStatement(t *testing.T) {
	raw := sampleBundle()
	raw.Annual.Balance = models.Statement{}

	table, err := Normalize(raw, models.Annual, nil)
	require.NoError(t, err)
	require.Len(t, table.Periods, 2)
	for _, v := range table.Column(FieldTotalDebt) {
		assert.False(t, v.Available())
	}
}

func TestNormalize_AllEmpty(t *testing.T) {
	raw := &models.RawFinancials{Ticker: "ZZZZ"}

	_, err := Normalize(raw, models.Annual, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)

	_, err = Normalize(nil, models.Annual, nil)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestNormalize_UnknownCadence(t *testing.T) {
	_, err := Normalize(sampleBundle(), models.Cadence("weekly"), nil)
	assert.ErrorIs(t, err, ErrUnknownCadence)
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := sampleBundle()
	first, err := Normalize(raw, models.Annual, nil)
	require.NoError(t, err)
	second, err := Normalize(raw, models.Annual, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, sampleBundle(), raw, "input must not be modified")
}

func TestNormalize_PeriodUnion(t *testing.T) {
	raw := &models.RawFinancials{
		Annual: models.StatementSet{
			Income: models.Statement{
				Periods: []string{"2023-12-31", "2022-12-31"},
				Rows:    map[string][]models.RawValue{"Total Revenue": row(200.0, 100.0)},
			},
			Balance: models.Statement{
				Periods: []string{"2024-12-31", "2022-12-31"},
				Rows:    map[string][]models.RawValue{"Long Term Debt": row(7.0, 5.0)},
			},
		},
	}
	table, err := Normalize(raw, models.Annual, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"2024-12-31", "2023-12-31", "2022-12-31"}, table.PeriodLabels())
	assert.Equal(t, []interface{}{nil, 200.0, 100.0}, floats(t, table.Column(FieldRevenue)))
	assert.Equal(t, []interface{}{7.0, nil, 5.0}, floats(t, table.Column(FieldTotalDebt)))
}

func TestNormalize_AscendingPeriods(t *testing.T) {
	raw := &models.RawFinancials{
		Annual: models.StatementSet{
			Income: models.Statement{
				Periods: []string{"2021", "2022"},
				Rows:    map[string][]models.RawValue{"Total Revenue": row(1.0, 2.0)},
			},
			CashFlow: models.Statement{
				Periods: []string{"2020", "2022"},
			},
		},
	}
	table, err := Normalize(raw, models.Annual, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"2020", "2021", "2022"}, table.PeriodLabels())
}

func TestNormalize_NonDatePeriodsKeepOrder(t *testing.T) {
	raw := &models.RawFinancials{
		Annual: models.StatementSet{
			Income: models.Statement{
				Periods: []string{"TTM", "FY2023"},
				Rows:    map[string][]models.RawValue{"Total Revenue": row(5.0, 4.0)},
			},
			Balance: models.Statement{Periods: []string{"FY2022", "FY2023"}},
		},
	}
	table, err := Normalize(raw, models.Annual, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"TTM", "FY2023", "FY2022"}, table.PeriodLabels())
}

func TestNormalize_ShortRow(t *testing.T) {
	raw := sampleBundle()
	raw.Annual.Income.Rows["Total Revenue"] = row(200.0)

	table, err := Normalize(raw, models.Annual, nil)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{200.0, nil}, floats(t, table.Column(FieldRevenue)))
}

func TestNormalize_FallbackLabels(t *testing.T) {
	raw := sampleBundle()
	raw.Annual.Income.Rows["Revenues"] = raw.Annual.Income.Rows["Total Revenue"]
	delete(raw.Annual.Income.Rows, "Total Revenue")

	labels := DefaultLabelMap().Merge(LabelMap{
		TotalRevenue: {Statement: models.IncomeStatement, Label: "Total Revenue", Fallbacks: []string{"Sales", "Revenues"}},
	})
	table, err := Normalize(raw, models.Annual, labels)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{200.0, 100.0}, floats(t, table.Column(FieldRevenue)))
}

func TestNormalize_CustomStatement(t *testing.T) {
	raw := sampleBundle()
	raw.Annual.Balance.Rows["Ordinary Shares Number"] = row(15e9, 16e9)

	labels := DefaultLabelMap().Merge(LabelMap{
		SharesOutstanding: {Statement: models.BalanceSheet, Label: "Ordinary Shares Number"},
	})
	table, err := Normalize(raw, models.Annual, labels)
	require.NoError(t, err)
	assert.Equal(t, Reported(15e9), table.Periods[0].SharesOutstanding)
}

func TestNormalize_SingleDatePerStatement(t *testing.T) {
	raw := &models.RawFinancials{
		Annual: models.StatementSet{
			Income:  models.Statement{Periods: []string{"2023-12-31"}},
			Balance: models.Statement{Periods: []string{"2022-12-31"}},
		},
	}
	table, err := Normalize(raw, models.Annual, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-12-31", "2022-12-31"}, table.PeriodLabels())
}

func TestNormalize_FreeCashFlowFallback(t *testing.T) {
	raw := sampleBundle()
	cf := raw.Annual.CashFlow.Rows
	delete(cf, "Free Cash Flow")
	cf["Operating Cash Flow"] = row(120.0, 80.0)
	cf["Capital Expenditure"] = row(-45.0, nil)

	table, err := Normalize(raw, models.Annual, nil)
	require.NoError(t, err)

	fcf := table.Column(FieldFreeCashFlow)
	assert.Equal(t, Computed(75), fcf[0])
	assert.False(t, fcf[1].Available(), "capital expenditure missing")
}
