package catalog

import (
	"testing"

	"github.com/Veraticus/gaintrack/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		wantErr    error
		name       string
		categories []model.Category
	}{
		{
			name:       "valid catalog",
			categories: []model.Category{{Name: "Salary", Taxable: true}, {Name: "Gift"}},
		},
		{
			name:    "empty catalog",
			wantErr: ErrEmptyCatalog,
		},
		{
			name:       "blank name",
			categories: []model.Category{{Name: "Salary"}, {Name: "  "}},
			wantErr:    ErrEmptyCategoryName,
		},
		{
			name:       "duplicate name",
			categories: []model.Category{{Name: "Salary"}, {Name: "Salary", Taxable: true}},
			wantErr:    ErrDuplicateCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.categories...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.categories), c.Len())
		})
	}
}

func TestLookup(t *testing.T) {
	c, err := New(
		model.Category{Name: "Salary", Taxable: true},
		model.Category{Name: "Gift", Taxable: false},
	)
	require.NoError(t, err)

	cat, ok := c.Lookup("Salary")
	require.True(t, ok)
	assert.True(t, cat.Taxable)

	cat, ok = c.Lookup("Gift")
	require.True(t, ok)
	assert.False(t, cat.Taxable)

	_, ok = c.Lookup("Unknown")
	assert.False(t, ok)

	_, ok = c.Lookup("salary")
	assert.False(t, ok, "lookup is case sensitive")
}

func TestIsTaxable(t *testing.T) {
	c := Default()

	assert.True(t, c.IsTaxable("Salary"))
	assert.False(t, c.IsTaxable("Gift"))
	assert.False(t, c.IsTaxable("Unknown"), "unresolved tags are not taxable")
}

func TestCategoriesPreservesOrderAndIsACopy(t *testing.T) {
	c := Default()

	assert.Equal(t, []string{"Salary", "Freelance", "Dividends", "Gift", "Other"}, c.Names())

	cats := c.Categories()
	cats[0].Taxable = false
	cats[0].Name = "Changed"

	again, ok := c.Lookup("Salary")
	require.True(t, ok)
	assert.True(t, again.Taxable)
	assert.Equal(t, "Salary", c.Categories()[0].Name)
}

func TestNewTrimsNames(t *testing.T) {
	c, err := New(model.Category{Name: " Salary ", Taxable: true})
	require.NoError(t, err)

	_, ok := c.Lookup("Salary")
	assert.True(t, ok)
}
