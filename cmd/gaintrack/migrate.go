package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/gaintrack/internal/cli"
	"github.com/Veraticus/gaintrack/internal/common"
	"github.com/Veraticus/gaintrack/internal/config"
	"github.com/Veraticus/gaintrack/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the SQLite ledger schema to the latest version.

Other commands migrate automatically; this is useful to check the schema or
prepare a database ahead of time. The file backend has no schema.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "show the current schema version without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	status, _ := cmd.Flags().GetBool("status")

	st, err := config.LoadStorage(viper.GetViper())
	if err != nil {
		return err
	}
	if st.Backend != config.BackendSQLite {
		fmt.Fprintln(out, cli.FormatInfo(fmt.Sprintf("The %s backend has no schema to migrate", st.Backend)))
		return nil
	}

	slog.Info("Starting database migration", "database", st.Path, "status_only", status)

	db, err := storage.NewSQLiteStorage(st.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if status {
		version, err := db.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Database:        %s\n", st.Path)
		fmt.Fprintf(out, "Current version: %d\n", version)
		fmt.Fprintf(out, "Latest version:  %d\n", storage.ExpectedSchemaVersion)
		if version == storage.ExpectedSchemaVersion {
			savedAt, err := db.SnapshotSavedAt(ctx)
			switch {
			case errors.Is(err, common.ErrNotFound):
				fmt.Fprintln(out, "Last saved:      never")
			case err != nil:
				return err
			default:
				fmt.Fprintf(out, "Last saved:      %s\n", savedAt.Local().Format("2006-01-02 15:04:05"))
			}
		}
		return nil
	}

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess("Database migrations completed successfully"))
	return nil
}
