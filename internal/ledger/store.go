// Package ledger owns the gain records and their persisted snapshot.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/gaintrack/internal/catalog"
	"github.com/Veraticus/gaintrack/internal/common"
	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/shopspring/decimal"
)

// Store errors.
var (
	// ErrInvalidInput is returned when a command is rejected. Nothing is mutated.
	ErrInvalidInput = errors.New("invalid input")
	// ErrPersistenceWrite is returned when a mutation was applied in memory but the
	// snapshot could not be written. The next successful mutation persists it.
	ErrPersistenceWrite = errors.New("failed to persist ledger")
)

// SnapshotStore is the backend a Store persists to. LoadSnapshot returns
// common.ErrNotFound when nothing has been saved yet.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, payload []byte) error
	LoadSnapshot(ctx context.Context) ([]byte, error)
}

// Option configures a Store.
type Option func(*Store)

// WithStrictCategories makes Add reject tags that are not in the catalog.
func WithStrictCategories(strict bool) Option {
	return func(s *Store) {
		s.strict = strict
	}
}

// WithClock replaces time.Now, which supplies the default date.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Store holds the ledger. Commands run one at a time and persist before returning.
type Store struct {
	backend SnapshotStore
	catalog *catalog.Catalog
	now     func() time.Time
	gains   model.Ledger
	nextID  int64
	mu      sync.Mutex
	strict  bool
}

// NewStore returns an empty store. Call Load to restore the persisted ledger.
func NewStore(backend SnapshotStore, cat *catalog.Catalog, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		catalog: cat,
		now:     time.Now,
		gains:   model.Ledger{},
		nextID:  1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory ledger with the persisted one. A missing, empty or
// unreadable snapshot yields an empty ledger; the failure is logged, not returned.
func (s *Store) Load(ctx context.Context) model.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()

	gains, next := s.readSnapshot(ctx)
	s.gains = gains
	if next > s.nextID {
		s.nextID = next
	}

	common.LogDebug("loaded ledger", common.Fields{"gains": len(s.gains), "next_id": s.nextID})
	return s.gains.Clone()
}

// readSnapshot returns the persisted gains and the next id to hand out.
func (s *Store) readSnapshot(ctx context.Context) (model.Ledger, int64) {
	payload, err := s.backend.LoadSnapshot(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return model.Ledger{}, 1
	}
	if err != nil {
		common.LogWarn("could not read ledger snapshot, starting empty", common.Fields{"error": err.Error()})
		return model.Ledger{}, 1
	}

	gains, next, err := DecodeSnapshot(payload)
	if err != nil {
		common.LogWarn("ignoring unreadable ledger snapshot", common.Fields{"error": err.Error()})
		return model.Ledger{}, 1
	}
	return gains, next
}

// Add appends a new gain and persists the ledger. A zero date means today.
//
// When only persistence fails, the gain is still returned and held in memory and
// the error wraps ErrPersistenceWrite.
func (s *Store) Add(ctx context.Context, amount decimal.Decimal, tag string, date time.Time) (model.Gain, error) {
	tag = strings.TrimSpace(tag)
	if err := validateAmount(amount); err != nil {
		return model.Gain{}, err
	}
	if tag == "" {
		return model.Gain{}, fmt.Errorf("%w: tag is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.catalog.Lookup(tag); !ok {
		if s.strict {
			return model.Gain{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, tag)
		}
		slog.Warn("recording gain with unknown category", "tag", tag)
	}

	if date.IsZero() {
		date = s.now()
	}

	gain := model.Gain{
		ID:     s.nextID,
		Amount: amount,
		Tag:    tag,
		Date:   model.Day(date),
	}
	s.nextID++
	s.gains = append(s.gains, gain)

	slog.Debug("added gain", "id", gain.ID, "amount", gain.Amount.String(), "tag", gain.Tag)
	return gain, s.persist(ctx)
}

// Remove deletes the gain with the given id. Removing an id that is not held is a
// no-op and reports false.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, g := range s.gains {
		if g.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	next := make(model.Ledger, 0, len(s.gains)-1)
	next = append(next, s.gains[:idx]...)
	next = append(next, s.gains[idx+1:]...)
	s.gains = next

	slog.Debug("removed gain", "id", id)
	return true, s.persist(ctx)
}

// Snapshot returns a copy of the ledger in insertion order.
func (s *Store) Snapshot() model.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.gains.Clone()
}

// Len returns the number of gains held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.gains)
}

// Catalog returns the catalog tags are checked against.
func (s *Store) Catalog() *catalog.Catalog {
	return s.catalog
}

// persist writes the full ledger. Callers hold s.mu.
func (s *Store) persist(ctx context.Context) error {
	payload, err := EncodeSnapshot(s.gains, s.nextID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceWrite, err)
	}
	if err := s.backend.SaveSnapshot(ctx, payload); err != nil {
		common.LogError(err, "ledger snapshot not saved", common.Fields{"gains": len(s.gains)})
		return fmt.Errorf("%w: %w", ErrPersistenceWrite, err)
	}
	return nil
}
