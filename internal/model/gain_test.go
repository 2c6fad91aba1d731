package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLedgerClone(t *testing.T) {
	l := Ledger{{ID: 1, Amount: decimal.NewFromInt(10), Tag: "Salary"}}

	c := l.Clone()
	c[0].Tag = "Gift"

	assert.Equal(t, "Salary", l[0].Tag)
	assert.NotNil(t, Ledger(nil).Clone())
}

func TestLedgerFindAndMaxID(t *testing.T) {
	l := Ledger{{ID: 3}, {ID: 7}, {ID: 5}}

	g, ok := l.Find(7)
	assert.True(t, ok)
	assert.Equal(t, int64(7), g.ID)

	_, ok = l.Find(42)
	assert.False(t, ok)

	assert.Equal(t, int64(7), l.MaxID())
	assert.Equal(t, int64(0), Ledger{}.MaxID())
}

func TestDayDropsTimeOfDay(t *testing.T) {
	in := time.Date(2025, time.June, 9, 23, 59, 1, 5, time.UTC)
	assert.Equal(t, time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC), Day(in))
}
