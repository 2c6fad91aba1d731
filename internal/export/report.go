// Package export renders ledger reports to files: CSV and XLSX workbooks.
package export

import (
	"fmt"
	"time"

	"github.com/Veraticus/gaintrack/internal/catalog"
	"github.com/Veraticus/gaintrack/internal/engine"
	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/Veraticus/gaintrack/internal/service"
	"github.com/Veraticus/gaintrack/internal/tax"
)

// Column headers shared by every tabular export.
var rowHeaders = []string{"Date", "Source", "Amount", "Tax status"}

// BuildReport filters the ledger to the period and derives everything a writer
// needs. Totals describe the filtered rows, not the whole ledger; LedgerTax
// covers every gain.
func BuildReport(ledger model.Ledger, cat *catalog.Catalog, schedule tax.Schedule, period model.Period, now time.Time) service.Report {
	visible := engine.FilterByPeriod(ledger, period)
	totals := engine.Derive(visible, cat, schedule)

	ledgerTax := totals.EstimatedTax
	if !period.IsAll() {
		ledgerTax = engine.EstimatedTax(engine.TaxableBaseOf(ledger, cat), schedule)
	}

	return service.Report{
		GeneratedAt: now,
		Title:       reportTitle(period),
		Period:      period,
		Totals:      totals,
		LedgerTax:   ledgerTax,
		Categories:  engine.CategoryNodes(totals.ByCategory, cat),
		Rows:        engine.ExportRows(visible, cat),
	}
}

func reportTitle(period model.Period) string {
	if period.IsAll() {
		return "Gains (all time)"
	}
	return fmt.Sprintf("Gains %s", period)
}

func rowValues(r model.ExportRow) []string {
	return []string{
		r.Date.Format(model.DateLayout),
		r.Tag,
		r.Amount.String(),
		model.TaxLabel(r.Taxable),
	}
}
