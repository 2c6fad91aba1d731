package export

import (
	"context"
	"fmt"
	"io"

	"github.com/Veraticus/gaintrack/internal/common"
	"github.com/Veraticus/gaintrack/internal/engine"
	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/Veraticus/gaintrack/internal/service"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet names in the generated workbook.
const (
	GainsSheet   = "Gains"
	SummarySheet = "Summary"
)

const amountFormat = "#,##0.00"

// XLSXWriter writes a two-sheet workbook: the gain rows and a summary of totals
// and category breakdown.
type XLSXWriter struct {
	w io.Writer
}

// NewXLSXWriter returns a writer targeting w.
func NewXLSXWriter(w io.Writer) *XLSXWriter {
	return &XLSXWriter{w: w}
}

// Write builds the workbook in memory and streams it to the target.
func (x *XLSXWriter) Write(ctx context.Context, report service.Report) error {
	if len(report.Rows) == 0 {
		return common.ErrNothingToExport
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	styles, err := newWorkbookStyles(f)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrExportFailed, err)
	}

	if err := f.SetSheetName("Sheet1", GainsSheet); err != nil {
		return fmt.Errorf("%w: %w", common.ErrExportFailed, err)
	}
	if err := writeGainsSheet(ctx, f, styles, report.Rows); err != nil {
		return fmt.Errorf("%w: gains sheet: %w", common.ErrExportFailed, err)
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("%w: %w", common.ErrExportFailed, err)
	}
	if err := writeSummarySheet(f, styles, report); err != nil {
		return fmt.Errorf("%w: summary sheet: %w", common.ErrExportFailed, err)
	}

	if err := f.Write(x.w); err != nil {
		return fmt.Errorf("%w: %w", common.ErrExportFailed, err)
	}
	return nil
}

type workbookStyles struct {
	header int
	amount int
	title  int
}

func newWorkbookStyles(f *excelize.File) (workbookStyles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4A6FA5"}},
	})
	if err != nil {
		return workbookStyles{}, err
	}

	format := amountFormat
	amount, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return workbookStyles{}, err
	}

	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return workbookStyles{}, err
	}

	return workbookStyles{header: header, amount: amount, title: title}, nil
}

func writeGainsSheet(ctx context.Context, f *excelize.File, styles workbookStyles, rows []model.ExportRow) error {
	if err := setRow(f, GainsSheet, 1, toAny(rowHeaders)); err != nil {
		return err
	}
	if err := f.SetCellStyle(GainsSheet, "A1", "D1", styles.header); err != nil {
		return err
	}

	for i, r := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		values := []any{
			r.Date.Format(model.DateLayout),
			r.Tag,
			amountValue(r.Amount),
			model.TaxLabel(r.Taxable),
		}
		if err := setRow(f, GainsSheet, i+2, values); err != nil {
			return err
		}
	}

	last := fmt.Sprintf("C%d", len(rows)+1)
	if err := f.SetCellStyle(GainsSheet, "C2", last, styles.amount); err != nil {
		return err
	}
	if err := f.SetColWidth(GainsSheet, "A", "A", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(GainsSheet, "B", "B", 18); err != nil {
		return err
	}
	if err := f.SetColWidth(GainsSheet, "C", "C", 16); err != nil {
		return err
	}
	return f.SetColWidth(GainsSheet, "D", "D", 12)
}

func writeSummarySheet(f *excelize.File, styles workbookStyles, report service.Report) error {
	if err := f.SetCellValue(SummarySheet, "A1", report.Title); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "A1", styles.title); err != nil {
		return err
	}

	totals := [][]any{
		{"Total gains", amountValue(report.Totals.TotalGains)},
		{"Taxable base", amountValue(report.Totals.TaxableBase)},
		{engine.TaxEstimateLabel(report.Period), amountValue(engine.WholeUnits(report.Totals.EstimatedTax))},
	}
	if !report.Period.IsAll() {
		totals = append(totals, []any{"Estimated tax, all time", amountValue(engine.WholeUnits(report.LedgerTax))})
	}
	for i, values := range totals {
		if err := setRow(f, SummarySheet, i+3, values); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SummarySheet, "B3", fmt.Sprintf("B%d", len(totals)+2), styles.amount); err != nil {
		return err
	}

	const breakdownStart = 7
	if err := setRow(f, SummarySheet, breakdownStart, []any{"Category", "Total", "Tax status"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A7", "C7", styles.header); err != nil {
		return err
	}
	for i, node := range report.Categories {
		status := model.TaxLabel(node.Taxable)
		if !node.Resolved {
			status = "unknown"
		}
		if err := setRow(f, SummarySheet, breakdownStart+1+i, []any{node.Name, amountValue(node.Total), status}); err != nil {
			return err
		}
	}
	if n := len(report.Categories); n > 0 {
		last := fmt.Sprintf("B%d", breakdownStart+n)
		if err := f.SetCellStyle(SummarySheet, "B8", last, styles.amount); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SummarySheet, "A", "A", 24); err != nil {
		return err
	}
	return f.SetColWidth(SummarySheet, "B", "B", 16)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// amountValue converts to float64 so the cell is numeric in the spreadsheet.
// The ledger keeps the exact decimal.
func amountValue(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
