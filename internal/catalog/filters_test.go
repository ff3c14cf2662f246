package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortPriceAsc, ParseSort("price-asc"))
	assert.Equal(t, SortPriceDesc, ParseSort("price-desc"))
	assert.Equal(t, SortOldest, ParseSort("oldest"))
	assert.Equal(t, SortNewest, ParseSort(""))
	assert.Equal(t, SortNewest, ParseSort("random"))
}

func TestFiltersNormalized(t *testing.T) {
	f := Filters{Skip: -5, Search: "  lamp "}.normalized()
	assert.Equal(t, 0, f.Skip)
	assert.Equal(t, DefaultTake, f.Take)
	assert.Equal(t, SortNewest, f.Sort)
	assert.Equal(t, "lamp", f.Search)
}

func TestListWhere(t *testing.T) {
	sql, args, err := listWhere(Filters{CategoryID: "cat-1", Collection: "NEW_ARRIVAL", Search: "50%_off"}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "p.is_active = ?")
	assert.Contains(t, sql, "p.category_id = ?")
	assert.Contains(t, sql, "col.slug = ?")
	assert.Contains(t, sql, "p.name ILIKE ?")
	assert.Equal(t, []any{true, "cat-1", "NEW_ARRIVAL", `%50\%\_off%`}, args)

	sql, args, err = listWhere(Filters{IncludeInactive: true}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(1=1)", sql)
	assert.Empty(t, args)
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, "p.created_at DESC", orderBy(SortNewest)[0])
	assert.Equal(t, "p.created_at ASC", orderBy(SortOldest)[0])
	assert.Contains(t, orderBy(SortPriceAsc)[0], "ASC NULLS LAST")
	assert.Contains(t, orderBy(SortPriceDesc)[0], "MIN(v.price)")
}

func TestProductInputValidate(t *testing.T) {
	_, err := ProductInput{}.validate()
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = ProductInput{Name: "Rug", Price: "12,00"}.validate()
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = ProductInput{Name: "Rug", Variants: []VariantInput{{Label: "", Price: "10"}}}.validate()
	assert.ErrorIs(t, err, ErrInvalidProduct)

	neg := -1
	_, err = ProductInput{Name: "Rug", Stock: &neg}.validate()
	assert.ErrorIs(t, err, ErrInvalidProduct)

	row, err := ProductInput{Name: "Rug", Price: " 1500 ", Weight: "", ComparePrice: "1800"}.validate()
	require.NoError(t, err)
	assert.True(t, row.price.Valid)
	assert.True(t, row.price.Decimal.Equal(decimal.NewFromInt(1500)))
	assert.False(t, row.weight.Valid)
	assert.True(t, row.comparePrice.Valid)
}

func TestSettingsValidate(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate())

	s := DefaultSettings()
	s.MinInsideDhaka = decimal.NewFromInt(500)
	assert.ErrorIs(t, s.Validate(), ErrInvalidSettings)

	s = DefaultSettings()
	s.OutsideDhakaShipping = decimal.NewFromInt(-1)
	assert.ErrorIs(t, s.Validate(), ErrInvalidSettings)
}

func TestValidSlug(t *testing.T) {
	assert.True(t, validSlug("NEW_ARRIVAL"))
	assert.True(t, validSlug("eid-2025"))
	assert.False(t, validSlug(""))
	assert.False(t, validSlug("has space"))
	assert.False(t, validSlug("-leading"))
}

func TestProductHelpers(t *testing.T) {
	p := Product{
		Category: &Category{Name: "Lighting"},
		Variants: []Variant{{ID: "a", IsActive: true}, {ID: "b"}},
	}
	assert.Equal(t, "Lighting", p.CategoryName())
	assert.Len(t, p.ActiveVariants(), 1)
	_, ok := p.Variant("b")
	assert.False(t, ok)
	_, ok = p.Variant("a")
	assert.True(t, ok)
	assert.True(t, Option{Name: "Size", Values: []string{"S", "M"}}.HasValue("M"))
}
