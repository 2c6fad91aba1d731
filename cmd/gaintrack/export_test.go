package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/gaintrack/internal/catalog"
	"github.com/Veraticus/gaintrack/internal/export"
	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/Veraticus/gaintrack/internal/tax"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCloseFailed = errors.New("no space left on device")

// closeFailingFile accepts every write and fails on Close, as a full disk does
// when buffered data is flushed.
type closeFailingFile struct {
	bytes.Buffer
	closed bool
}

func (f *closeFailingFile) Close() error {
	f.closed = true
	return errCloseFailed
}

func TestWriteReportFile_CloseErrorFailsExport(t *testing.T) {
	ledger := model.Ledger{
		{ID: 1, Amount: decimal.NewFromInt(3_000_000), Tag: "Salary", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	report := export.BuildReport(ledger, catalog.Default(), tax.Default(), model.AllTime, time.Now())

	for _, format := range []string{formatCSV, formatXLSX} {
		t.Run(format, func(t *testing.T) {
			f := &closeFailingFile{}

			err := writeReportFile(context.Background(), f, format, "gains.out", report)
			require.ErrorIs(t, err, errCloseFailed)
			assert.ErrorContains(t, err, "failed to close gains.out")
			assert.True(t, f.closed)
			assert.NotZero(t, f.Len(), "the report was written before the close")
		})
	}
}

func TestExport_UnwritableOutputIsNotReportedAsSuccess(t *testing.T) {
	env := newTestEnv(t, "file", "")
	env.mustRun(t, "add", "100", "--tag", "Salary", "--date", "2024-03-01")

	// A directory cannot be created as a file, so nothing is claimed as exported.
	_, stderr, err := env.run(t, "export", "--output", env.dir)
	require.Error(t, err)
	assert.NotContains(t, stderr, "Exported")
}

func TestExport_UnknownFormatOnEmptyLedger(t *testing.T) {
	env := newTestEnv(t, "file", "")

	_, stderr, err := env.run(t, "export", "--format", "pdf")
	require.Error(t, err)
	assert.ErrorContains(t, err, "unknown export format")
	assert.NotContains(t, stderr, "No gains to export")

	_, _, err = env.run(t, "export", "--format", "pdf", "--period", "2031-01")
	assert.ErrorContains(t, err, "unknown export format")
}

func TestExport_SheetsRejectsOutputBeforeLoading(t *testing.T) {
	env := newTestEnv(t, "file", "")

	_, _, err := env.run(t, "export", "--format", "sheets", "--output", "gains.csv")
	assert.ErrorContains(t, err, "--output does not apply to Google Sheets exports")
}
