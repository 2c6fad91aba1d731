package model

import (
	"fmt"
	"strings"
	"time"
)

// PeriodLayout is the textual form of a month period.
const PeriodLayout = "2006-01"

// Period selects the gains shown and exported. The zero value means all gains.
type Period struct {
	Year  int
	Month time.Month
}

// AllTime is the no-op period filter.
var AllTime = Period{}

// MonthOf returns the period containing t.
func MonthOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod accepts "all", "" or a YYYY-MM month.
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return AllTime, nil
	}
	t, err := time.Parse(PeriodLayout, s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q: expected YYYY-MM or all", s)
	}
	return MonthOf(t), nil
}

// IsAll reports whether p is the no-op filter.
func (p Period) IsAll() bool {
	return p == AllTime
}

// Contains reports whether the calendar date of t falls inside p.
func (p Period) Contains(t time.Time) bool {
	if p.IsAll() {
		return true
	}
	return t.Year() == p.Year && t.Month() == p.Month
}

// Next returns the following month. AllTime has no neighbours.
func (p Period) Next() Period {
	if p.IsAll() {
		return p
	}
	return MonthOf(time.Date(p.Year, p.Month+1, 1, 0, 0, 0, 0, time.UTC))
}

// Prev returns the preceding month.
func (p Period) Prev() Period {
	if p.IsAll() {
		return p
	}
	return MonthOf(time.Date(p.Year, p.Month-1, 1, 0, 0, 0, 0, time.UTC))
}

func (p Period) String() string {
	if p.IsAll() {
		return "all"
	}
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
