package model

// Category is a named classification of income. Name is its identity.
type Category struct {
	Name    string
	Color   string // display hint, ignored by the core
	Taxable bool
}

// TaxLabel returns "taxable" or "exempt".
func (c Category) TaxLabel() string {
	return TaxLabel(c.Taxable)
}

// TaxLabel renders a taxable flag the way reports and exports show it.
func TaxLabel(taxable bool) string {
	if taxable {
		return "taxable"
	}
	return "exempt"
}
