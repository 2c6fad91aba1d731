package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Totals holds the values derived from a ledger. It is recomputed, never stored.
type Totals struct {
	ByCategory   map[string]decimal.Decimal
	TotalGains   decimal.Decimal
	TaxableBase  decimal.Decimal
	EstimatedTax decimal.Decimal
}

// CategoryNode is one grouped total joined against the catalog, ready for visualization.
type CategoryNode struct {
	Name     string
	Color    string
	Total    decimal.Decimal
	Taxable  bool
	Resolved bool // false when the tag has no catalog entry
}

// ExportRow is the row shape handed to export collaborators.
type ExportRow struct {
	Date    time.Time
	Tag     string
	Amount  decimal.Decimal
	Taxable bool
}
