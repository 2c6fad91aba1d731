// Package engine derives totals, the taxable base and the tax estimate from a ledger.
// Everything here is a pure function of its inputs; nothing is cached or persisted.
package engine

import (
	"sort"

	"github.com/Veraticus/gaintrack/internal/catalog"
	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/Veraticus/gaintrack/internal/tax"
	"github.com/shopspring/decimal"
)

// TotalOf sums every amount in the ledger.
func TotalOf(ledger model.Ledger) decimal.Decimal {
	total := decimal.Zero
	for _, g := range ledger {
		total = total.Add(g.Amount)
	}
	return total
}

// TaxableBaseOf sums the amounts whose tag resolves to a taxable category. Tags
// with no catalog entry are left out.
func TaxableBaseOf(ledger model.Ledger, cat *catalog.Catalog) decimal.Decimal {
	base := decimal.Zero
	for _, g := range ledger {
		if cat.IsTaxable(g.Tag) {
			base = base.Add(g.Amount)
		}
	}
	return base
}

// EstimatedTax applies the schedule to the taxable base.
func EstimatedTax(base decimal.Decimal, schedule tax.Schedule) decimal.Decimal {
	return schedule.Compute(base)
}

// TaxEstimateLabel names the EstimatedTax derived for a period. For a single
// month the whole schedule, tax-free band included, is applied to that month's
// gains alone, so it is not a share of the yearly liability.
func TaxEstimateLabel(p model.Period) string {
	if p.IsAll() {
		return "Estimated tax"
	}
	return "Tax on period alone"
}

// GroupByCategory sums amounts per literal tag. Tags that sum to zero are omitted,
// so the result for an empty ledger is an empty map.
func GroupByCategory(ledger model.Ledger) map[string]decimal.Decimal {
	groups := make(map[string]decimal.Decimal)
	for _, g := range ledger {
		groups[g.Tag] = groups[g.Tag].Add(g.Amount)
	}
	for tag, sum := range groups {
		if sum.IsZero() {
			delete(groups, tag)
		}
	}
	return groups
}

// FilterByPeriod returns the gains dated inside the period, in ledger order. The
// all-time period returns a copy of the whole ledger.
func FilterByPeriod(ledger model.Ledger, period model.Period) model.Ledger {
	if period.IsAll() {
		return ledger.Clone()
	}
	out := model.Ledger{}
	for _, g := range ledger {
		if period.Contains(g.Date) {
			out = append(out, g)
		}
	}
	return out
}

// Derive computes every derived value for the ledger in one pass over the inputs.
func Derive(ledger model.Ledger, cat *catalog.Catalog, schedule tax.Schedule) model.Totals {
	base := TaxableBaseOf(ledger, cat)
	return model.Totals{
		ByCategory:   GroupByCategory(ledger),
		TotalGains:   TotalOf(ledger),
		TaxableBase:  base,
		EstimatedTax: EstimatedTax(base, schedule),
	}
}

// CategoryNodes joins grouped totals against the catalog. Catalog categories come
// first in catalog order; tags the catalog does not know follow, sorted by name.
// Categories without a positive total are skipped.
func CategoryNodes(byCategory map[string]decimal.Decimal, cat *catalog.Catalog) []model.CategoryNode {
	nodes := make([]model.CategoryNode, 0, len(byCategory))
	for _, c := range cat.Categories() {
		total, ok := byCategory[c.Name]
		if !ok || !total.IsPositive() {
			continue
		}
		nodes = append(nodes, model.CategoryNode{
			Name:     c.Name,
			Color:    c.Color,
			Total:    total,
			Taxable:  c.Taxable,
			Resolved: true,
		})
	}

	var unknown []string
	for tag, total := range byCategory {
		if _, ok := cat.Lookup(tag); ok || !total.IsPositive() {
			continue
		}
		unknown = append(unknown, tag)
	}
	sort.Strings(unknown)
	for _, tag := range unknown {
		nodes = append(nodes, model.CategoryNode{
			Name:  tag,
			Total: byCategory[tag],
		})
	}
	return nodes
}

// ExportRows flattens the ledger into export rows, preserving ledger order.
func ExportRows(ledger model.Ledger, cat *catalog.Catalog) []model.ExportRow {
	rows := make([]model.ExportRow, len(ledger))
	for i, g := range ledger {
		rows[i] = model.ExportRow{
			Date:    g.Date,
			Tag:     g.Tag,
			Amount:  g.Amount,
			Taxable: cat.IsTaxable(g.Tag),
		}
	}
	return rows
}

// WholeUnits truncates an amount to whole currency units for display. It rounds
// toward negative infinity, which for the non-negative values the engine produces
// is plain truncation.
func WholeUnits(d decimal.Decimal) decimal.Decimal {
	return d.Floor()
}
