// Package pricing reduces a product's price and variant data into a single
// display record and formats prices for the storefront.
package pricing

import (
	"fmt"

	"github.com/ariefcatur/go-decor-storefront.git/internal/catalog"
	"github.com/shopspring/decimal"
)

// Display is the normalized, display-ready view of a product's price and
// stock. An invalid Price means the price is unknown, never zero.
type Display struct {
	Price               decimal.NullDecimal `json:"price"`
	PriceMin            decimal.NullDecimal `json:"priceMin"`
	PriceMax            decimal.NullDecimal `json:"priceMax"`
	ComparePrice        decimal.NullDecimal `json:"comparePrice"`
	Stock               int                 `json:"stock"`
	HasMultipleVariants bool                `json:"hasMultipleVariants"`
}

func (d Display) PriceKnown() bool { return d.Price.Valid }

func (d Display) InStock() bool { return d.Stock > 0 }

// Normalize derives the display record for p.
func Normalize(p catalog.Product) Display {
	return NormalizeShape(ShapeOf(p))
}

func NormalizeShape(s Shape) Display {
	switch s := s.(type) {
	case FlatPriced:
		d := Display{Price: s.Price, ComparePrice: s.ComparePrice}
		if s.Stock != nil {
			d.Stock = *s.Stock
		}
		return d
	case SingleVariant:
		price := s.Variant.Price
		if !price.Valid {
			price = s.ProductPrice
		}
		return Display{Price: price, ComparePrice: s.ComparePrice, Stock: s.Variant.Stock}
	case MultiVariant:
		d := Display{HasMultipleVariants: true}
		for _, v := range s.Variants {
			d.Stock += v.Stock
			if !v.Price.Valid {
				continue
			}
			if !d.PriceMin.Valid || v.Price.Decimal.LessThan(d.PriceMin.Decimal) {
				d.PriceMin = v.Price
			}
			if !d.PriceMax.Valid || v.Price.Decimal.GreaterThan(d.PriceMax.Decimal) {
				d.PriceMax = v.Price
			}
		}
		d.Price = d.PriceMin
		return d
	default:
		panic(fmt.Sprintf("pricing: unknown shape %T", s))
	}
}

// Discount reports whether d is on sale and by how many whole percent.
func Discount(d Display) (bool, int) {
	if d.HasMultipleVariants || !d.Price.Valid || !d.ComparePrice.Valid {
		return false, 0
	}
	c, p := d.ComparePrice.Decimal, d.Price.Decimal
	if !c.GreaterThan(p) || !c.IsPositive() {
		return false, 0
	}
	pct := c.Sub(p).Div(c).Mul(decimal.NewFromInt(100)).Round(0)
	return true, int(pct.IntPart())
}
