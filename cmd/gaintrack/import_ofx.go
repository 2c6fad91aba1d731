package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/Veraticus/gaintrack/internal/cli"
	"github.com/Veraticus/gaintrack/internal/ledger"
	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/Veraticus/gaintrack/internal/ofx"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type importOptions struct {
	tag    string
	dryRun bool
	yes    bool
}

func importOFXCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import-ofx <files...>",
		Short: "Record incoming credits from OFX/QFX statements",
		Long: `Read OFX or QFX statements exported from your bank and record every
incoming credit as a gain. Payroll deposits are tagged Salary and interest or
dividends Dividends; everything else gets import.default_tag unless --tag is
given. Credits already in the ledger are skipped.`,
		Example: `  # Preview without recording
  gaintrack import-ofx --dry-run ~/Downloads/checking_2024_03.qfx

  # Import several statements, tagging everything as Freelance
  gaintrack import-ofx --tag Freelance --yes ~/Downloads/client_*.ofx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportOFX(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.tag, "tag", "t", "", "tag every imported credit with this category")
	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false, "preview the import without recording anything")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "record without asking for confirmation")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string, opts importOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	files, err := expandStatementPaths(args)
	if err != nil {
		return err
	}

	app, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	parser := ofx.NewParser(app.cfg.ImportDefaultTag)
	candidates := parseStatements(ctx, parser, files)
	if opts.tag != "" {
		for i := range candidates {
			candidates[i].Tag = opts.tag
		}
	}

	fresh, skipped := newCandidates(app.store.Snapshot(), candidates)
	if skipped > 0 {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("Skipping %d credits already in the ledger", skipped)))
	}
	if len(fresh) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No new credits to import"))
		return nil
	}

	if err := writeCandidates(out, fresh); err != nil {
		return err
	}

	if opts.dryRun {
		fmt.Fprintln(out, cli.FormatInfo("Dry run complete - nothing recorded"))
		return nil
	}

	if !opts.yes {
		reader := cli.NewNonBlockingReader(cmd.InOrStdin())
		ok, err := reader.Confirm(ctx, out, fmt.Sprintf("Record %d gains?", len(fresh)))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, cli.FormatInfo("Import canceled"))
			return nil
		}
	}

	if cm, err := app.checkpoints(); err != nil {
		slog.Warn("checkpoints unavailable", "error", err)
	} else if _, err := cm.AutoCheckpoint(ctx, app.backend, "import", app.store.Len()); err != nil {
		slog.Warn("failed to checkpoint ledger before import", "error", err)
	}

	importCtx, stop := context.WithCancel(ctx)
	defer stop()
	handler := cli.NewInterruptHandler(out)
	importCtx = handler.HandleInterrupts(importCtx, true)

	result, err := recordCandidates(importCtx, app.store, fresh, cmd.ErrOrStderr())
	if handler.WasInterrupted() {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Recorded %d of %d gains before the interrupt", result.recorded, len(fresh))))
		return nil
	}
	if err != nil {
		return reportWriteFailure(out, err)
	}

	msg := fmt.Sprintf("Recorded %d gains", result.recorded)
	if result.rejected > 0 {
		msg += fmt.Sprintf(" (%d rejected, see log)", result.rejected)
	}
	fmt.Fprintln(out, cli.FormatSuccess(msg))
	return nil
}

// expandStatementPaths expands globs. Patterns that match nothing are kept when
// they name an existing file and reported otherwise.
func expandStatementPaths(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) > 0 {
			files = append(files, matches...)
			continue
		}
		if _, err := os.Stat(pattern); err == nil {
			files = append(files, pattern)
		} else {
			slog.Warn("No files found matching pattern", "pattern", pattern)
		}
	}

	if len(files) == 0 {
		return nil, errors.New("no files found to import")
	}
	return files, nil
}

// parseStatements parses every file, logging and skipping the ones that fail, and
// returns the deduplicated credits in file order.
func parseStatements(ctx context.Context, parser *ofx.Parser, files []string) []ofx.Candidate {
	var all []ofx.Candidate
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			slog.Error("Failed to open file", "file", path, "error", err)
			continue
		}

		candidates, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
			continue
		}

		slog.Info("Processed file", "file", filepath.Base(path), "credits", len(candidates))
		all = append(all, candidates...)
	}
	return ofx.Dedupe(all)
}

func gainKey(date string, amount decimal.Decimal, tag string) string {
	return date + "|" + amount.String() + "|" + tag
}

// newCandidates drops credits matching a recorded gain on date, amount and tag.
func newCandidates(existing model.Ledger, candidates []ofx.Candidate) ([]ofx.Candidate, int) {
	seen := make(map[string]bool, len(existing))
	for _, g := range existing {
		seen[gainKey(g.Date.Format(model.DateLayout), g.Amount, g.Tag)] = true
	}

	fresh := make([]ofx.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[gainKey(c.Date.Format(model.DateLayout), c.Amount, c.Tag)] {
			continue
		}
		fresh = append(fresh, c)
	}
	return fresh, len(candidates) - len(fresh)
}

func writeCandidates(out io.Writer, candidates []ofx.Candidate) error {
	total := decimal.Zero
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		cli.BoldStyle.Render("Date"),
		cli.BoldStyle.Render("Payer"),
		cli.BoldStyle.Render("Amount"),
		cli.BoldStyle.Render("Tag"),
		cli.BoldStyle.Render("Account"))
	for _, c := range candidates {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.Date.Format(model.DateLayout),
			c.Payer,
			cli.FormatAmount(c.Amount),
			c.Tag,
			c.Account)
		total = total.Add(c.Amount)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d credits, total %s\n", len(candidates), cli.FormatAmount(total))
	return nil
}

type importResult struct {
	recorded int
	rejected int
}

// recordCandidates adds candidates one by one. Rejected entries are logged and
// skipped; a persistence failure or cancellation stops the import.
func recordCandidates(ctx context.Context, store *ledger.Store, candidates []ofx.Candidate, progressOut io.Writer) (importResult, error) {
	var result importResult
	bar := cli.NewProgressBar(progressOut, len(candidates), "Recording gains")

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		_, err := store.Add(ctx, c.Amount, c.Tag, c.Date)
		switch {
		case errors.Is(err, ledger.ErrInvalidInput):
			result.rejected++
			slog.Warn("credit rejected", "payer", c.Payer, "tag", c.Tag, "amount", c.Amount.String(), "error", err)
		case err != nil:
			result.recorded++
			return result, err
		default:
			result.recorded++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	return result, nil
}
