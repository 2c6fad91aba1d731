package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/gaintrack/internal/cli"
	"github.com/Veraticus/gaintrack/internal/engine"
	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var hundred = decimal.NewFromInt(100)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals, taxable base and estimated tax",
		Long: `Derive the total gains, the taxable base and the estimated tax for the
selected period, with a breakdown by source.`,
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

			all := app.store.Snapshot()
			visible := engine.FilterByPeriod(all, period)
			totals := engine.Derive(visible, app.cfg.Catalog, app.cfg.Schedule)
			nodes := engine.CategoryNodes(totals.ByCategory, app.cfg.Catalog)

			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Summary (%s)", periodLabel(period))))

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintf(w, "Total gains\t%s\t\n", cli.FormatAmount(totals.TotalGains))
			fmt.Fprintf(w, "Taxable base\t%s\t\n", cli.FormatAmount(totals.TaxableBase))
			fmt.Fprintf(w, "%s\t%s\t\n", engine.TaxEstimateLabel(period), cli.FormatAmount(engine.WholeUnits(totals.EstimatedTax)))
			if !period.IsAll() {
				ledgerTax := engine.EstimatedTax(engine.TaxableBaseOf(all, app.cfg.Catalog), app.cfg.Schedule)
				fmt.Fprintf(w, "Estimated tax, all time\t%s\t\n", cli.FormatAmount(engine.WholeUnits(ledgerTax)))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintln(out, cli.SubtleStyle.Render("Schedule: "+app.cfg.Schedule.String()))

			if len(nodes) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			return writeBreakdown(out, nodes, totals.TotalGains)
		},
	}

	addPeriodFlag(cmd)
	return cmd
}

func writeBreakdown(out io.Writer, nodes []model.CategoryNode, total decimal.Decimal) error {
	fmt.Fprintln(out, cli.BoldStyle.Render("By source"))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, n := range nodes {
		share := decimal.Zero
		if total.IsPositive() {
			share = n.Total.Mul(hundred).Div(total)
		}
		status := model.TaxLabel(n.Taxable)
		if !n.Resolved {
			status = "unknown"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s%%\t%s\n",
			cli.CategoryStyle(n.Color, n.Taxable, n.Resolved).Render(n.Name),
			cli.FormatAmount(n.Total),
			share.StringFixed(1),
			status)
	}
	return w.Flush()
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Show the category catalog and tax schedule",
		Long: `Show the configured categories and whether each counts toward the taxable
base, followed by the tax schedule in use. Categories are configured under the
categories key of the config file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			app, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			counts := make(map[string]int)
			for _, g := range app.store.Snapshot() {
				counts[g.Tag]++
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("Name"),
				cli.BoldStyle.Render("Status"),
				cli.BoldStyle.Render("Color"),
				cli.BoldStyle.Render("Gains"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 16), strings.Repeat("-", 8), strings.Repeat("-", 8), strings.Repeat("-", 5))
			for _, c := range app.cfg.Catalog.Categories() {
				color := c.Color
				if color == "" {
					color = cli.SubtleStyle.Render("(none)")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
					cli.CategoryStyle(c.Color, c.Taxable, true).Render(c.Name),
					c.TaxLabel(),
					color,
					counts[c.Name])
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, cli.BoldStyle.Render("Tax schedule"))
			fmt.Fprintln(out, "  "+app.cfg.Schedule.String())
			fmt.Fprintf(out, "  Tax-free up to %s\n", cli.FormatAmount(app.cfg.Schedule.TaxFreeThreshold()))
			return nil
		},
	}
}

func graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Draw gains by source as a tree",
		Long: `Draw the selected period's gains as a tree rooted at the total, with one
branch per source in catalog order. Sources missing from the catalog come last.`,
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
			totals := engine.Derive(visible, app.cfg.Catalog, app.cfg.Schedule)
			nodes := engine.CategoryNodes(totals.ByCategory, app.cfg.Catalog)

			fmt.Fprint(out, renderTree(period, totals.TotalGains, nodes))
			return nil
		},
	}

	addPeriodFlag(cmd)
	return cmd
}

func renderTree(period model.Period, total decimal.Decimal, nodes []model.CategoryNode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n",
		cli.TitleStyle.UnsetMargins().Render(cli.ChartIcon+" Gains ("+periodLabel(period)+")"),
		cli.FormatAmount(total))

	if len(nodes) == 0 {
		b.WriteString("└── " + cli.SubtleStyle.Render("(no gains)") + "\n")
		return b.String()
	}

	for i, n := range nodes {
		branch := "├── "
		if i == len(nodes)-1 {
			branch = "└── "
		}
		status := model.TaxLabel(n.Taxable)
		if !n.Resolved {
			status = "unknown"
		}
		fmt.Fprintf(&b, "%s%s %s [%s]\n",
			branch,
			cli.CategoryStyle(n.Color, n.Taxable, n.Resolved).Render(n.Name),
			cli.FormatAmount(n.Total),
			status)
	}
	return b.String()
}
