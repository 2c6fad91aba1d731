// Package service defines the contracts shared between the ledger core and its collaborators.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/shopspring/decimal"
)

// GainStore is the command surface the presentation layer drives.
type GainStore interface {
	Add(ctx context.Context, amount decimal.Decimal, tag string, date time.Time) (model.Gain, error)
	Remove(ctx context.Context, id int64) (bool, error)
	Snapshot() model.Ledger
}

// Report is everything an export collaborator needs: the visible rows in display
// order, the derived totals, and the catalog-joined category nodes.
type Report struct {
	GeneratedAt time.Time
	Title       string
	Period      model.Period
	Totals      model.Totals
	// LedgerTax is the estimated tax over every gain, whatever the period.
	LedgerTax   decimal.Decimal
	Categories  []model.CategoryNode
	Rows        []model.ExportRow
}

// ReportWriter renders a report to some destination.
type ReportWriter interface {
	Write(ctx context.Context, report Report) error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// WithDefaults fills unset fields: 3 attempts, 100ms initial delay, 30s cap, doubling.
func (o RetryOptions) WithDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 100 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.Multiplier <= 0 {
		o.Multiplier = 2.0
	}
	return o
}
