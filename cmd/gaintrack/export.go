package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/gaintrack/internal/cli"
	"github.com/Veraticus/gaintrack/internal/common"
	"github.com/Veraticus/gaintrack/internal/config"
	"github.com/Veraticus/gaintrack/internal/export"
	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/Veraticus/gaintrack/internal/service"
	"github.com/Veraticus/gaintrack/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	formatCSV    = "csv"
	formatXLSX   = "xlsx"
	formatSheets = "sheets"
)

func exportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export gains as CSV, Excel or Google Sheets",
		Long: `Export the selected period's gains with their date, source, amount and tax
status, plus the derived totals where the format allows.

CSV goes to stdout unless --output is given. Excel needs a file and defaults to
gaintrack-<period>.xlsx. Google Sheets uses the sheets.* configuration.`,
		Example: `  gaintrack export --period 2024-03 > march.csv
  gaintrack export --format xlsx --output gains.xlsx
  gaintrack export --format sheets`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			period, err := periodFromFlags(cmd)
			if err != nil {
				return err
			}
			format = strings.ToLower(strings.TrimSpace(format))
			dest, err := exportDestination(format, output, period)
			if err != nil {
				return err
			}

			app, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			report := export.BuildReport(app.store.Snapshot(), app.cfg.Catalog, app.cfg.Schedule, period, time.Now())
			if len(report.Rows) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatInfo(fmt.Sprintf("No gains to export for %s", periodLabel(period))))
				return nil
			}

			if err := runExport(ctx, format, dest, out, report); err != nil {
				if errors.Is(err, common.ErrNothingToExport) {
					return nil
				}
				return err
			}

			if dest != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess(fmt.Sprintf("Exported %d gains to %s", len(report.Rows), dest)))
			} else if format == formatSheets {
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Exported %d gains to Google Sheets", len(report.Rows))))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatCSV, "output format (csv, xlsx, sheets)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (csv defaults to stdout)")
	addPeriodFlag(cmd)

	return cmd
}

// exportDestination resolves the file to write, or "" for stdout and Sheets.
func exportDestination(format, output string, period model.Period) (string, error) {
	if output == "-" {
		output = ""
	}

	switch format {
	case formatCSV:
		return config.ExpandPath(output), nil
	case formatXLSX:
		if output == "" {
			label := "all"
			if !period.IsAll() {
				label = period.String()
			}
			output = fmt.Sprintf("gaintrack-%s.xlsx", label)
		}
		return config.ExpandPath(output), nil
	case formatSheets:
		if output != "" {
			return "", common.NewUserError("--output does not apply to Google Sheets exports", nil)
		}
		return "", nil
	default:
		return "", fmt.Errorf("unknown export format %q (want %s, %s or %s)", format, formatCSV, formatXLSX, formatSheets)
	}
}

func runExport(ctx context.Context, format, dest string, stdout io.Writer, report service.Report) error {
	if format == formatSheets {
		writer, err := newSheetsWriter(ctx)
		if err != nil {
			return err
		}
		return writer.Write(ctx, report)
	}

	if dest == "" {
		return fileReportWriter(format, stdout).Write(ctx, report)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	return writeReportFile(ctx, f, format, dest, report)
}

// writeReportFile writes the report and closes f. A failed close is an export
// failure: the file may be truncated.
func writeReportFile(ctx context.Context, f io.WriteCloser, format, dest string, report service.Report) (err error) {
	defer func() {
		closeErr := f.Close()
		if closeErr == nil {
			return
		}
		if err == nil {
			err = fmt.Errorf("failed to close %s: %w", dest, closeErr)
			return
		}
		slog.Warn("failed to close export file", "path", dest, "error", closeErr)
	}()

	return fileReportWriter(format, f).Write(ctx, report)
}

func fileReportWriter(format string, w io.Writer) service.ReportWriter {
	if format == formatXLSX {
		return export.NewXLSXWriter(w)
	}
	return export.NewCSVWriter(w)
}

func newSheetsWriter(ctx context.Context) (service.ReportWriter, error) {
	cfg, err := config.LoadSheetsConfig(viper.GetViper())
	if err != nil {
		if errors.Is(err, common.ErrMissingConfig) {
			return nil, common.NewUserError(
				"Google Sheets is not configured. Run 'gaintrack auth sheets' or set sheets.service_account_path", err)
		}
		return nil, err
	}

	writer, err := sheets.NewWriter(ctx, *cfg, slog.Default())
	if err != nil {
		return nil, err
	}
	return writer, nil
}
