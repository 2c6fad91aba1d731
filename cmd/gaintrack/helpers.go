package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/gaintrack/internal/catalog"
	"github.com/Veraticus/gaintrack/internal/cli"
	"github.com/Veraticus/gaintrack/internal/config"
	"github.com/Veraticus/gaintrack/internal/ledger"
	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/Veraticus/gaintrack/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// snapshotBackend is a ledger backend the command owns and must close.
type snapshotBackend interface {
	ledger.SnapshotStore
	Close() error
}

// ledgerApp is the configured ledger a command works against.
type ledgerApp struct {
	cfg     *config.App
	store   *ledger.Store
	backend snapshotBackend
}

// openLedger resolves configuration, opens the configured backend and loads the
// ledger from it.
func openLedger(ctx context.Context) (*ledgerApp, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	store := ledger.NewStore(backend, cfg.Catalog, ledger.WithStrictCategories(cfg.StrictCategories))
	store.Load(ctx)

	slog.Debug("ledger opened",
		"backend", cfg.Storage.Backend,
		"path", cfg.Storage.Path,
		"gains", store.Len())

	return &ledgerApp{cfg: cfg, store: store, backend: backend}, nil
}

// openBackend opens the snapshot backend. SQLite databases are migrated on open.
func openBackend(ctx context.Context, s config.Storage) (snapshotBackend, error) {
	switch s.Backend {
	case config.BackendFile:
		fileStore, err := storage.NewFileStorage(s.Path)
		if err != nil {
			return nil, err
		}
		return fileStore, nil
	case config.BackendSQLite:
		db, err := storage.NewSQLiteStorage(s.Path)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", s.Backend)
	}
}

func (a *ledgerApp) Close() {
	if err := a.backend.Close(); err != nil {
		slog.Warn("failed to close ledger backend", "error", err)
	}
}

func (a *ledgerApp) checkpoints() (*storage.CheckpointManager, error) {
	return storage.NewCheckpointManager(storage.CheckpointDir(a.cfg.Storage.Path))
}

// reportWriteFailure turns a persistence failure into a warning. The change was
// applied but will not survive this process, so the command still succeeds.
func reportWriteFailure(out io.Writer, err error) error {
	if err == nil {
		return nil
	}
	if !errors.Is(err, ledger.ErrPersistenceWrite) {
		return err
	}

	slog.Warn("ledger change not saved", "error", err)
	fmt.Fprintln(out, cli.FormatWarning("The change was applied but could not be saved: "+err.Error()))
	return nil
}

func addPeriodFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("period", "p", "all", "month to show (YYYY-MM) or all")
}

func periodFromFlags(cmd *cobra.Command) (model.Period, error) {
	raw, _ := cmd.Flags().GetString("period")
	return model.ParsePeriod(raw)
}

func periodLabel(p model.Period) string {
	if p.IsAll() {
		return "all time"
	}
	return p.String()
}

// taxStatus labels a tag the way listings show it.
func taxStatus(cat *catalog.Catalog, tag string) string {
	c, ok := cat.Lookup(tag)
	if !ok {
		return "unknown"
	}
	return c.TaxLabel()
}
