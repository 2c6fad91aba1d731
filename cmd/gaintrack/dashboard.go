package main

import (
	"github.com/Veraticus/gaintrack/internal/tui"
	"github.com/Veraticus/gaintrack/internal/tui/themes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ui"},
		Short:   "Browse and edit gains interactively",
		Long: `Open a full-screen dashboard with the gains table, live totals and the
breakdown by source. Add and delete gains and step through months without
leaving it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			period, err := periodFromFlags(cmd)
			if err != nil {
				return err
			}

			app, err := openLedger(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			return tui.Run(ctx,
				tui.WithStore(app.store),
				tui.WithCatalog(app.cfg.Catalog),
				tui.WithSchedule(app.cfg.Schedule),
				tui.WithPeriod(period),
				tui.WithTheme(themes.ByName(viper.GetString("dashboard.theme"))),
			)
		},
	}

	addPeriodFlag(cmd)
	cmd.Flags().String("theme", "default", "color theme (default, catppuccin)")
	_ = viper.BindPFlag("dashboard.theme", cmd.Flags().Lookup("theme"))

	return cmd
}
