package engine

import (
	"testing"
	"time"

	"github.com/Veraticus/gaintrack/internal/catalog"
	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/Veraticus/gaintrack/internal/tax"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salaryGiftCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(
		model.Category{Name: "Salary", Taxable: true, Color: "#4caf50"},
		model.Category{Name: "Gift", Color: "#ff9800"},
	)
	require.NoError(t, err)
	return cat
}

func gain(id int64, tag string, amount int64, date string) model.Gain {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return model.Gain{ID: id, Tag: tag, Amount: decimal.NewFromInt(amount), Date: d}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func TestDerive_Scenarios(t *testing.T) {
	cat := salaryGiftCatalog(t)
	schedule := tax.Default()

	t.Run("A: taxable base below threshold", func(t *testing.T) {
		ledger := model.Ledger{
			gain(1, "Salary", 500000, "2024-01-10"),
			gain(2, "Gift", 2000000, "2024-01-11"),
		}

		totals := Derive(ledger, cat, schedule)
		assertDecimal(t, "2500000", totals.TotalGains)
		assertDecimal(t, "500000", totals.TaxableBase)
		assertDecimal(t, "0", totals.EstimatedTax)
	})

	t.Run("B: first paid bracket", func(t *testing.T) {
		ledger := model.Ledger{gain(1, "Salary", 3000000, "2024-01-10")}

		totals := Derive(ledger, cat, schedule)
		assertDecimal(t, "3000000", totals.TaxableBase)
		assertDecimal(t, "330000", totals.EstimatedTax)
	})

	t.Run("C: unknown tag", func(t *testing.T) {
		ledger := model.Ledger{
			gain(1, "Salary", 100, "2024-01-10"),
			gain(2, "Unknown", 40, "2024-01-10"),
		}

		totals := Derive(ledger, cat, schedule)
		assertDecimal(t, "140", totals.TotalGains)
		assertDecimal(t, "100", totals.TaxableBase)
		require.Contains(t, totals.ByCategory, "Unknown")
		assertDecimal(t, "40", totals.ByCategory["Unknown"])
	})
}

func TestDerive_EmptyLedger(t *testing.T) {
	totals := Derive(model.Ledger{}, salaryGiftCatalog(t), tax.Default())

	assert.True(t, totals.TotalGains.IsZero())
	assert.True(t, totals.TaxableBase.IsZero())
	assert.True(t, totals.EstimatedTax.IsZero())
	assert.Empty(t, totals.ByCategory)
}

func TestTaxableBase_PartitionsTotal(t *testing.T) {
	cat := salaryGiftCatalog(t)
	ledger := model.Ledger{
		gain(1, "Salary", 1200, "2024-01-01"),
		gain(2, "Gift", 300, "2024-01-02"),
		gain(3, "Salary", 75, "2024-02-01"),
		gain(4, "Lottery", 9000, "2024-02-03"),
		gain(5, "Gift", 0, "2024-03-03"),
	}

	nonTaxable := decimal.Zero
	for _, g := range ledger {
		if !cat.IsTaxable(g.Tag) {
			nonTaxable = nonTaxable.Add(g.Amount)
		}
	}

	total := TotalOf(ledger)
	base := TaxableBaseOf(ledger, cat)
	assert.True(t, total.Equal(base.Add(nonTaxable)))
	assert.True(t, base.LessThanOrEqual(total))
}

func TestGroupByCategory(t *testing.T) {
	ledger := model.Ledger{
		gain(1, "Salary", 100, "2024-01-01"),
		gain(2, "Gift", 0, "2024-01-02"),
		gain(3, "Salary", 50, "2024-01-03"),
		gain(4, "Dividends", 25, "2024-01-04"),
	}

	groups := GroupByCategory(ledger)

	assert.Len(t, groups, 2)
	assertDecimal(t, "150", groups["Salary"])
	assertDecimal(t, "25", groups["Dividends"])
	assert.NotContains(t, groups, "Gift", "zero sums are omitted")

	sum := decimal.Zero
	for _, v := range groups {
		sum = sum.Add(v)
	}
	assert.True(t, sum.Equal(TotalOf(ledger)), "groups sum to the total")
}

func TestFilterByPeriod(t *testing.T) {
	ledger := model.Ledger{
		gain(1, "Salary", 100, "2024-01-31"),
		gain(2, "Gift", 200, "2024-02-01"),
		gain(3, "Salary", 300, "2023-02-15"),
		gain(4, "Salary", 400, "2024-02-29"),
	}

	t.Run("month", func(t *testing.T) {
		got := FilterByPeriod(ledger, model.Period{Year: 2024, Month: time.February})
		require.Len(t, got, 2)
		assert.Equal(t, int64(2), got[0].ID)
		assert.Equal(t, int64(4), got[1].ID)
	})

	t.Run("all time", func(t *testing.T) {
		got := FilterByPeriod(ledger, model.AllTime)
		assert.Equal(t, ledger, got)
		got[0].Tag = "changed"
		assert.Equal(t, "Salary", ledger[0].Tag, "result does not alias the input")
	})

	t.Run("empty month", func(t *testing.T) {
		got := FilterByPeriod(ledger, model.Period{Year: 2030, Month: time.June})
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestCategoryNodes(t *testing.T) {
	cat := salaryGiftCatalog(t)
	groups := map[string]decimal.Decimal{
		"Gift":    dec("20"),
		"Salary":  dec("10"),
		"Zeta":    dec("3"),
		"Alpha":   dec("4"),
		"Nothing": decimal.Zero,
	}

	nodes := CategoryNodes(groups, cat)

	require.Len(t, nodes, 4)
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name
	}
	assert.Equal(t, []string{"Salary", "Gift", "Alpha", "Zeta"}, names)

	assert.True(t, nodes[0].Taxable)
	assert.True(t, nodes[0].Resolved)
	assert.Equal(t, "#4caf50", nodes[0].Color)
	assert.False(t, nodes[1].Taxable)
	assert.True(t, nodes[1].Resolved)
	assert.False(t, nodes[2].Resolved)
	assert.False(t, nodes[2].Taxable)
	assert.Empty(t, nodes[2].Color)
}

func TestCategoryNodes_SkipsMissingCategories(t *testing.T) {
	nodes := CategoryNodes(map[string]decimal.Decimal{"Gift": dec("5")}, salaryGiftCatalog(t))

	require.Len(t, nodes, 1)
	assert.Equal(t, "Gift", nodes[0].Name)
}

func TestExportRows(t *testing.T) {
	cat := salaryGiftCatalog(t)
	ledger := model.Ledger{
		gain(9, "Gift", 20, "2024-05-01"),
		gain(3, "Salary", 10, "2024-04-01"),
		gain(4, "Unknown", 1, "2024-04-02"),
	}

	rows := ExportRows(ledger, cat)

	require.Len(t, rows, 3)
	assert.Equal(t, "Gift", rows[0].Tag)
	assert.False(t, rows[0].Taxable)
	assert.Equal(t, "Salary", rows[1].Tag)
	assert.True(t, rows[1].Taxable)
	assert.False(t, rows[2].Taxable)
	assert.Equal(t, ledger[0].Date, rows[0].Date)
}

func TestWholeUnits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "330000", want: "330000"},
		{in: "1234.99", want: "1234"},
		{in: "0.5", want: "0"},
		{in: "0", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assertDecimal(t, tt.want, WholeUnits(dec(tt.in)))
		})
	}
}

func TestEstimatedTax_GraduatedPreset(t *testing.T) {
	// 300000*0.07 + 300000*0.11 + 100000*0.15
	got := EstimatedTax(dec("700000"), tax.Graduated())
	assertDecimal(t, "69000", got)
}

func TestTaxEstimateLabel(t *testing.T) {
	assert.Equal(t, "Estimated tax", TaxEstimateLabel(model.AllTime))
	assert.Equal(t, "Tax on period alone", TaxEstimateLabel(model.Period{Year: 2024, Month: time.March}))
}
