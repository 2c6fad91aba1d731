package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/shopspring/decimal"
)

// SnapshotVersion is the envelope version written by EncodeSnapshot.
const SnapshotVersion = 1

// ErrCorruptSnapshot is returned when a persisted snapshot cannot be decoded.
var ErrCorruptSnapshot = errors.New("corrupt ledger snapshot")

type snapshotEnvelope struct {
	Gains   []gainRecord `json:"gains"`
	Version int          `json:"version"`
	NextID  int64        `json:"next_id,omitempty"`
}

type gainRecord struct {
	Amount decimal.Decimal `json:"amount"`
	Tag    string          `json:"tag"`
	Date   string          `json:"date"`
	ID     int64           `json:"id"`
}

// EncodeSnapshot serializes the whole ledger and the next id to hand out. It is
// the only write path to the persisted form. A nextID at or below the highest
// stored id is raised to MaxID()+1.
func EncodeSnapshot(l model.Ledger, nextID int64) ([]byte, error) {
	if floor := l.MaxID() + 1; nextID < floor {
		nextID = floor
	}
	env := snapshotEnvelope{
		Version: SnapshotVersion,
		Gains:   make([]gainRecord, len(l)),
		NextID:  nextID,
	}
	for i, g := range l {
		env.Gains[i] = gainRecord{
			ID:     g.ID,
			Amount: g.Amount,
			Tag:    g.Tag,
			Date:   g.Date.Format(model.DateLayout),
		}
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a persisted ledger and the next id to hand out. It
// accepts the versioned envelope and the bare array of gain records. When the
// payload carries no usable next id, MaxID()+1 is returned.
func DecodeSnapshot(data []byte) (model.Ledger, int64, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("%w: empty payload", ErrCorruptSnapshot)
	}

	var (
		records []gainRecord
		nextID  int64
	)
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
	case '{':
		var env snapshotEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
		}
		if env.Version != SnapshotVersion {
			return nil, 0, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, env.Version)
		}
		records = env.Gains
		nextID = env.NextID
	default:
		return nil, 0, fmt.Errorf("%w: unexpected leading byte %q", ErrCorruptSnapshot, data[0])
	}

	ledger := make(model.Ledger, 0, len(records))
	seen := make(map[int64]bool, len(records))
	for i, r := range records {
		g, err := r.toGain()
		if err != nil {
			return nil, 0, fmt.Errorf("%w: record %d: %v", ErrCorruptSnapshot, i, err)
		}
		if seen[g.ID] {
			return nil, 0, fmt.Errorf("%w: duplicate id %d", ErrCorruptSnapshot, g.ID)
		}
		seen[g.ID] = true
		ledger = append(ledger, g)
	}

	if floor := ledger.MaxID() + 1; nextID < floor {
		nextID = floor
	}
	return ledger, nextID, nil
}

func (r gainRecord) toGain() (model.Gain, error) {
	if r.Amount.IsNegative() {
		return model.Gain{}, fmt.Errorf("negative amount %s", r.Amount)
	}
	date, err := parseRecordDate(r.Date)
	if err != nil {
		return model.Gain{}, err
	}
	return model.Gain{
		ID:     r.ID,
		Amount: r.Amount,
		Tag:    r.Tag,
		Date:   date,
	}, nil
}

// parseRecordDate accepts plain dates and full timestamps; the latter are
// truncated to their calendar date.
func parseRecordDate(s string) (time.Time, error) {
	if t, err := time.Parse(model.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return model.Day(t), nil
}
