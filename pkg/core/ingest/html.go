package ingest

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"value_investor/pkg/models"
)

// tableRef identifies what a statement table holds.
type tableRef struct {
	info    bool
	kind    models.StatementKind
	cadence models.Cadence
}

// ParseStatementsHTML reads statement tables from a provider's HTML page.
//
// A table is identified by data-statement / data-cadence attributes, or else by
// its caption, the heading right before it, or a single-cell first row
// ("Quarterly Balance Sheet", "Income Statement", "Cash Flow"). The header row
// carries the periods after a label column; each further row is a line item.
// A "Key Statistics" / data-statement="info" table is read as label/value pairs
// into CompanyInfo. Unrecognised tables are skipped.
func ParseStatementsHTML(r io.Reader) (*models.RawFinancials, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "parse statements html")
	}

	raw := &models.RawFinancials{Info: models.CompanyInfo{}}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		ref, ok := identifyTable(table)
		if !ok {
			return
		}
		if ref.info {
			readInfoTable(table, raw.Info)
			return
		}
		st := readStatementTable(table)
		if ref.cadence == models.Quarterly {
			if raw.Quarterly.Get(ref.kind).Empty() {
				raw.Quarterly.Set(ref.kind, st)
			}
			return
		}
		if raw.Annual.Get(ref.kind).Empty() {
			raw.Annual.Set(ref.kind, st)
		}
	})
	return raw, nil
}

func identifyTable(table *goquery.Selection) (tableRef, bool) {
	if attr, ok := table.Attr("data-statement"); ok {
		ref, ok := classifyTitle(attr)
		if !ok {
			return ref, false
		}
		if c, ok := table.Attr("data-cadence"); ok {
			if cadence, err := models.ParseCadence(c); err == nil {
				ref.cadence = cadence
			}
		}
		return ref, true
	}
	return classifyTitle(tableTitle(table))
}

func tableTitle(table *goquery.Selection) string {
	if caption := strings.TrimSpace(table.Find("caption").First().Text()); caption != "" {
		return caption
	}
	if prev := table.Prev(); prev.Length() > 0 {
		if text := strings.TrimSpace(prev.Text()); text != "" {
			return text
		}
	}
	cells := table.Find("tr").First().Find("td, th")
	if cells.Length() == 1 {
		return strings.TrimSpace(cells.Text())
	}
	return ""
}

// classifyTitle maps a table title onto a statement kind and cadence.
func classifyTitle(title string) (tableRef, bool) {
	lower := strings.ToLower(title)
	ref := tableRef{cadence: models.Annual}
	if strings.Contains(lower, "quarter") {
		ref.cadence = models.Quarterly
	}
	switch {
	case lower == "info" || strings.Contains(lower, "key statistics") || strings.Contains(lower, "company info"):
		ref.info = true
	// Cash flow titles often mention operations, so they are matched first.
	case strings.Contains(lower, "cash flow") || strings.Contains(lower, "cashflow"):
		ref.kind = models.CashFlow
	case strings.Contains(lower, "income") || strings.Contains(lower, "operations") || strings.Contains(lower, "financials"):
		ref.kind = models.IncomeStatement
	case strings.Contains(lower, "balance"):
		ref.kind = models.BalanceSheet
	default:
		return ref, false
	}
	return ref, true
}

func cellTexts(row *goquery.Selection) []string {
	var out []string
	row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
		out = append(out, strings.TrimSpace(cell.Text()))
	})
	return out
}

// readStatementTable uses the first row with more than one cell as the header.
func readStatementTable(table *goquery.Selection) models.Statement {
	st := models.Statement{Rows: map[string][]models.RawValue{}}
	header := true
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := cellTexts(row)
		if len(cells) < 2 {
			return
		}
		if header {
			st.Periods = cells[1:]
			header = false
			return
		}
		label := cells[0]
		if label == "" {
			return
		}
		if _, dup := st.Rows[label]; dup {
			return
		}
		values := make([]models.RawValue, len(cells)-1)
		for i, text := range cells[1:] {
			values[i] = models.ParseRawValue(text)
		}
		st.Rows[label] = values
	})
	return st
}

func readInfoTable(table *goquery.Selection, info models.CompanyInfo) {
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := cellTexts(row)
		if len(cells) < 2 || cells[0] == "" {
			return
		}
		if _, dup := info[cells[0]]; !dup {
			info[cells[0]] = models.ParseRawValue(cells[1])
		}
	})
}
