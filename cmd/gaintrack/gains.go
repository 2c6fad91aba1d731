package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/gaintrack/internal/cli"
	"github.com/Veraticus/gaintrack/internal/engine"
	"github.com/Veraticus/gaintrack/internal/ledger"
	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func addCmd() *cobra.Command {
	var (
		tag  string
		date string
	)

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record a gain",
		Long: `Record money received. The amount may use thousands separators.
The date defaults to today.`,
		Example: `  gaintrack add 3,000,000 --tag Salary
  gaintrack add 250000 --tag Gift --date 2024-03-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			amount, err := ledger.ParseAmount(args[0])
			if err != nil {
				return err
			}

			var when time.Time
			if date != "" {
				when, err = time.Parse(model.DateLayout, date)
				if err != nil {
					return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
				}
			}

			app, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			gain, err := app.store.Add(ctx, amount, tag, when)
			if err != nil && !errors.Is(err, ledger.ErrPersistenceWrite) {
				return err
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Recorded gain #%d: %s from %s on %s (%s)",
				gain.ID,
				cli.FormatAmount(gain.Amount),
				gain.Tag,
				gain.Date.Format(model.DateLayout),
				taxStatus(app.cfg.Catalog, gain.Tag))))

			if _, ok := app.cfg.Catalog.Lookup(gain.Tag); !ok {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf(
					"%q is not in the catalog; it counts toward the total but not the taxable base", gain.Tag)))
			}

			return reportWriteFailure(out, err)
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "source category of the gain (required)")
	cmd.Flags().StringVarP(&date, "date", "d", "", "date received, YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("tag")

	return cmd
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>...",
		Aliases: []string{"rm"},
		Short:   "Remove gains by id",
		Long:    `Remove one or more gains. Ids that are not in the ledger are reported and skipped.`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			ids := make([]int64, len(args))
			for i, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid id %q", arg)
				}
				ids[i] = id
			}

			app, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			for _, id := range ids {
				removed, err := app.store.Remove(ctx, id)
				if !removed {
					fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("No gain with id %d", id)))
					continue
				}
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Removed gain #%d", id)))
				if err := reportWriteFailure(out, err); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recorded gains",
		Long:    `List gains in the order they were recorded, optionally limited to one month.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			period, err := periodFromFlags(cmd)
			if err != nil {
				return err
			}

			app, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			visible := engine.FilterByPeriod(app.store.Snapshot(), period)
			if len(visible) == 0 {
				fmt.Fprintln(out, cli.InfoStyle.Render(fmt.Sprintf(
					"No gains in %s. Use 'gaintrack add' to record one.", periodLabel(period))))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(cli.PrimaryColor)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Date"),
				headerStyle.Render("Source"),
				headerStyle.Render("Amount"),
				headerStyle.Render("Status"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 4),
				strings.Repeat("-", 10),
				strings.Repeat("-", 16),
				strings.Repeat("-", 14),
				strings.Repeat("-", 8))

			for _, g := range visible {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					g.ID,
					g.Date.Format(model.DateLayout),
					g.Tag,
					cli.FormatAmount(g.Amount),
					taxStatus(app.cfg.Catalog, g.Tag))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(out, "\n%d gains, total %s\n", len(visible), cli.FormatAmount(engine.TotalOf(visible)))
			return nil
		},
	}

	addPeriodFlag(cmd)
	return cmd
}
