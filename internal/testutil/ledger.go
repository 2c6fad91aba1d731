// Package testutil provides test helpers for building ready-to-use ledgers.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/gaintrack/internal/catalog"
	"github.com/Veraticus/gaintrack/internal/ledger"
	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/Veraticus/gaintrack/internal/storage"
	"github.com/shopspring/decimal"
)

// FixedNow is the clock used by ledgers built here.
var FixedNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

// TestLedger bundles a loaded store with the backend behind it.
type TestLedger struct {
	Store   *ledger.Store
	Backend *storage.MemoryStorage
	Catalog *catalog.Catalog
	t       *testing.T
}

// GainSpec describes a gain to seed. An empty Date means FixedNow.
type GainSpec struct {
	Amount string
	Tag    string
	Date   string
}

// SetupTestLedger creates a store on in-memory storage with the default catalog
// and seeds it with gains in order.
//
// Example:
//
//	tl := testutil.SetupTestLedger(t,
//		testutil.GainSpec{Amount: "3000000", Tag: "Salary"},
//		testutil.GainSpec{Amount: "500000", Tag: "Gift"},
//	)
func SetupTestLedger(t *testing.T, gains ...GainSpec) *TestLedger {
	t.Helper()
	return SetupTestLedgerWithCatalog(t, catalog.Default(), gains...)
}

// SetupTestLedgerWithCatalog is SetupTestLedger with a custom catalog.
func SetupTestLedgerWithCatalog(t *testing.T, cat *catalog.Catalog, gains ...GainSpec) *TestLedger {
	t.Helper()

	backend := storage.NewMemoryStorage()
	store := ledger.NewStore(backend, cat, ledger.WithClock(func() time.Time { return FixedNow }))
	store.Load(context.Background())

	tl := &TestLedger{
		Store:   store,
		Backend: backend,
		Catalog: cat,
		t:       t,
	}
	for _, g := range gains {
		tl.MustAdd(g)
	}

	t.Cleanup(func() {
		_ = backend.Close()
	})
	return tl
}

// SetupSQLiteLedger creates a store on a migrated in-memory SQLite database.
func SetupSQLiteLedger(t *testing.T) (*ledger.Store, *storage.SQLiteStorage) {
	t.Helper()

	db, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	store := ledger.NewStore(db, catalog.Default(), ledger.WithClock(func() time.Time { return FixedNow }))
	store.Load(ctx)
	return store, db
}

// MustAdd records a gain or fails the test.
func (tl *TestLedger) MustAdd(spec GainSpec) model.Gain {
	tl.t.Helper()

	amount, err := decimal.NewFromString(spec.Amount)
	if err != nil {
		tl.t.Fatalf("bad amount %q: %v", spec.Amount, err)
	}

	var date time.Time
	if spec.Date != "" {
		date, err = time.Parse(time.DateOnly, spec.Date)
		if err != nil {
			tl.t.Fatalf("bad date %q: %v", spec.Date, err)
		}
	}

	gain, err := tl.Store.Add(context.Background(), amount, spec.Tag, date)
	if err != nil {
		tl.t.Fatalf("failed to add gain %+v: %v", spec, err)
	}
	return gain
}
