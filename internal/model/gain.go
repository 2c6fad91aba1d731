// Package model defines the core domain models used throughout the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used for gains on the wire and on screen.
const DateLayout = "2006-01-02"

// Gain represents a single recorded income event.
type Gain struct {
	Date   time.Time
	Amount decimal.Decimal
	Tag    string // category name, expected to match the catalog
	ID     int64
}

// Day truncates t to a calendar date in UTC. Gains carry no time-of-day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Ledger is the ordered collection of gains, in insertion order.
type Ledger []Gain

// Clone returns a copy that shares no backing array with l.
func (l Ledger) Clone() Ledger {
	if l == nil {
		return Ledger{}
	}
	out := make(Ledger, len(l))
	copy(out, l)
	return out
}

// Find returns the gain with the given id.
func (l Ledger) Find(id int64) (Gain, bool) {
	for _, g := range l {
		if g.ID == id {
			return g, true
		}
	}
	return Gain{}, false
}

// MaxID returns the largest id held, or 0 for an empty ledger.
func (l Ledger) MaxID() int64 {
	var maxID int64
	for _, g := range l {
		if g.ID > maxID {
			maxID = g.ID
		}
	}
	return maxID
}
