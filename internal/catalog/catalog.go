// Package catalog holds the fixed, ordered set of income categories.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/gaintrack/internal/model"
)

// Catalog errors.
var (
	ErrEmptyCatalog      = errors.New("catalog must contain at least one category")
	ErrEmptyCategoryName = errors.New("category name cannot be empty")
	ErrDuplicateCategory = errors.New("duplicate category")
)

// Catalog is an immutable, ordered list of categories. The zero value is not usable; build one with New.
type Catalog struct {
	byName     map[string]int
	categories []model.Category
}

// New builds a catalog in the given order. Names must be unique and non-blank.
func New(categories ...model.Category) (*Catalog, error) {
	if len(categories) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		categories: make([]model.Category, 0, len(categories)),
		byName:     make(map[string]int, len(categories)),
	}
	for i, cat := range categories {
		cat.Name = strings.TrimSpace(cat.Name)
		if cat.Name == "" {
			return nil, fmt.Errorf("category at index %d: %w", i, ErrEmptyCategoryName)
		}
		if _, exists := c.byName[cat.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCategory, cat.Name)
		}
		c.byName[cat.Name] = len(c.categories)
		c.categories = append(c.categories, cat)
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(
		model.Category{Name: "Salary", Taxable: true, Color: "#818cf8"},
		model.Category{Name: "Freelance", Taxable: true, Color: "#34d399"},
		model.Category{Name: "Dividends", Taxable: true, Color: "#fbbf24"},
		model.Category{Name: "Gift", Taxable: false, Color: "#f472b6"},
		model.Category{Name: "Other", Taxable: false, Color: "#94a3b8"},
	)
	if err != nil {
		panic(err) // static data
	}
	return c
}

// Lookup returns the category with the given name. Matching is exact.
func (c *Catalog) Lookup(name string) (model.Category, bool) {
	i, ok := c.byName[name]
	if !ok {
		return model.Category{}, false
	}
	return c.categories[i], true
}

// IsTaxable reports whether gains tagged name enter the taxable base.
// Unknown names are not taxable.
func (c *Catalog) IsTaxable(name string) bool {
	cat, ok := c.Lookup(name)
	return ok && cat.Taxable
}

// Categories returns the categories in catalog order.
func (c *Catalog) Categories() []model.Category {
	out := make([]model.Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// Names returns the category names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.categories))
	for i, cat := range c.categories {
		names[i] = cat.Name
	}
	return names
}

// Len returns the number of categories.
func (c *Catalog) Len() int {
	return len(c.categories)
}
