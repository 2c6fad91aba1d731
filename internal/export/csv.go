package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Veraticus/gaintrack/internal/common"
	"github.com/Veraticus/gaintrack/internal/service"
)

// CSVWriter writes report rows as CSV with a header line.
type CSVWriter struct {
	w io.Writer
}

// NewCSVWriter returns a writer targeting w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: w}
}

// Write emits one line per row in report order.
func (c *CSVWriter) Write(ctx context.Context, report service.Report) error {
	if len(report.Rows) == 0 {
		return common.ErrNothingToExport
	}

	cw := csv.NewWriter(c.w)
	if err := cw.Write(rowHeaders); err != nil {
		return fmt.Errorf("%w: writing header: %w", common.ErrExportFailed, err)
	}
	for _, row := range report.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := cw.Write(rowValues(row)); err != nil {
			return fmt.Errorf("%w: writing row: %w", common.ErrExportFailed, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrExportFailed, err)
	}
	return nil
}
