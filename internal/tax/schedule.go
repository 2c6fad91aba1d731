// Package tax implements progressive bracket schedules.
package tax

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidSchedule is returned when brackets do not describe a progressive schedule.
var ErrInvalidSchedule = errors.New("invalid tax schedule")

// Bracket is one slice of a schedule. Upper is the inclusive upper bound of the slice;
// an invalid Upper marks the final, unbounded bracket.
type Bracket struct {
	Upper decimal.NullDecimal
	Rate  decimal.Decimal
}

// UpTo returns a bounded bracket.
func UpTo(upper decimal.Decimal, rate decimal.Decimal) Bracket {
	return Bracket{Upper: decimal.NewNullDecimal(upper), Rate: rate}
}

// Above returns the final, unbounded bracket.
func Above(rate decimal.Decimal) Bracket {
	return Bracket{Rate: rate}
}

// Schedule is an ordered, validated list of brackets.
type Schedule struct {
	brackets []Bracket
}

// NewSchedule validates brackets and returns a schedule. Bounds must be positive and strictly
// increasing, only the last bracket may be unbounded (and it must be), and rates must lie in
// [0, 1] and strictly increase.
func NewSchedule(brackets ...Bracket) (Schedule, error) {
	if len(brackets) == 0 {
		return Schedule{}, fmt.Errorf("%w: no brackets", ErrInvalidSchedule)
	}

	one := decimal.NewFromInt(1)
	prevUpper := decimal.Zero
	for i, b := range brackets {
		last := i == len(brackets)-1

		if b.Rate.IsNegative() || b.Rate.GreaterThan(one) {
			return Schedule{}, fmt.Errorf("%w: bracket %d rate %s outside [0, 1]", ErrInvalidSchedule, i+1, b.Rate)
		}
		if i > 0 && !b.Rate.GreaterThan(brackets[i-1].Rate) {
			return Schedule{}, fmt.Errorf("%w: bracket %d rate %s does not exceed previous rate %s",
				ErrInvalidSchedule, i+1, b.Rate, brackets[i-1].Rate)
		}

		switch {
		case last && b.Upper.Valid:
			return Schedule{}, fmt.Errorf("%w: last bracket must be unbounded", ErrInvalidSchedule)
		case !last && !b.Upper.Valid:
			return Schedule{}, fmt.Errorf("%w: bracket %d is unbounded but not last", ErrInvalidSchedule, i+1)
		case !last && !b.Upper.Decimal.GreaterThan(prevUpper):
			return Schedule{}, fmt.Errorf("%w: bracket %d bound %s must exceed %s",
				ErrInvalidSchedule, i+1, b.Upper.Decimal, prevUpper)
		}
		if !last {
			prevUpper = b.Upper.Decimal
		}
	}

	out := make([]Bracket, len(brackets))
	copy(out, brackets)
	return Schedule{brackets: out}, nil
}

// MustSchedule is NewSchedule for static data; it panics on invalid input.
func MustSchedule(brackets ...Bracket) Schedule {
	s, err := NewSchedule(brackets...)
	if err != nil {
		panic(err)
	}
	return s
}

// Compute returns the tax owed on base. A base equal to a bound is taxed entirely in the
// lower bracket, so the result is continuous at every bound. Nothing is rounded.
func (s Schedule) Compute(base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}

	tax := decimal.Zero
	lower := decimal.Zero
	for _, b := range s.brackets {
		if b.Upper.Valid && base.GreaterThan(b.Upper.Decimal) {
			tax = tax.Add(b.Upper.Decimal.Sub(lower).Mul(b.Rate))
			lower = b.Upper.Decimal
			continue
		}
		tax = tax.Add(base.Sub(lower).Mul(b.Rate))
		break
	}
	return tax
}

// Brackets returns a copy of the schedule's brackets.
func (s Schedule) Brackets() []Bracket {
	out := make([]Bracket, len(s.brackets))
	copy(out, s.brackets)
	return out
}

// Bounds returns the finite bracket bounds in ascending order.
func (s Schedule) Bounds() []decimal.Decimal {
	bounds := make([]decimal.Decimal, 0, len(s.brackets))
	for _, b := range s.brackets {
		if b.Upper.Valid {
			bounds = append(bounds, b.Upper.Decimal)
		}
	}
	return bounds
}

// TaxFreeThreshold returns the bound of a leading zero-rate bracket, or zero.
func (s Schedule) TaxFreeThreshold() decimal.Decimal {
	if len(s.brackets) == 0 {
		return decimal.Zero
	}
	first := s.brackets[0]
	if first.Rate.IsZero() && first.Upper.Valid {
		return first.Upper.Decimal
	}
	return decimal.Zero
}

// String renders the schedule as "0% to 800000, 15% to 3000000, 25% above".
func (s Schedule) String() string {
	parts := make([]string, 0, len(s.brackets))
	hundred := decimal.NewFromInt(100)
	for _, b := range s.brackets {
		pct := b.Rate.Mul(hundred).String() + "%"
		if b.Upper.Valid {
			parts = append(parts, pct+" to "+b.Upper.Decimal.String())
		} else {
			parts = append(parts, pct+" above")
		}
	}
	return strings.Join(parts, ", ")
}
