package pricing

import (
	"github.com/ariefcatur/go-decor-storefront.git/internal/catalog"
	"github.com/shopspring/decimal"
)

// Shape is one of FlatPriced, SingleVariant or MultiVariant.
type Shape interface {
	isShape()
}

// FlatPriced is a product sold without variants.
type FlatPriced struct {
	Price        decimal.NullDecimal
	ComparePrice decimal.NullDecimal
	Stock        *int
}

// SingleVariant is a product with exactly one active variant. ProductPrice is
// only consulted when the variant itself carries no price.
type SingleVariant struct {
	Variant      catalog.Variant
	ProductPrice decimal.NullDecimal
	ComparePrice decimal.NullDecimal
}

// MultiVariant is a product with two or more active variants.
type MultiVariant struct {
	Variants []catalog.Variant
}

func (FlatPriced) isShape()    {}
func (SingleVariant) isShape() {}
func (MultiVariant) isShape()  {}

// ShapeOf classifies p by its active variants.
func ShapeOf(p catalog.Product) Shape {
	active := p.ActiveVariants()
	switch len(active) {
	case 0:
		return FlatPriced{Price: p.Price, ComparePrice: p.ComparePrice, Stock: p.Stock}
	case 1:
		return SingleVariant{Variant: active[0], ProductPrice: p.Price, ComparePrice: p.ComparePrice}
	default:
		return MultiVariant{Variants: active}
	}
}
