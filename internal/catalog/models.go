package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	ProductCount int    `json:"productCount,omitempty"`
}

// Variant is a purchasable sub-unit of a product (a size, a colour) with its
// own price and stock.
type Variant struct {
	ID           string              `json:"id"`
	Label        string              `json:"label"`
	Price        decimal.NullDecimal `json:"price"`
	ComparePrice decimal.NullDecimal `json:"comparePrice"`
	Stock        int                 `json:"stock"`
	SKU          string              `json:"sku,omitempty"`
	Order        int                 `json:"order"`
	IsActive     bool                `json:"isActive"`
}

// Option is a selectable attribute for products without structured variants.
type Option struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// HasValue reports whether v is one of the permissible values.
func (o Option) HasValue(v string) bool {
	for _, x := range o.Values {
		if x == v {
			return true
		}
	}
	return false
}

// Product mirrors the stored record. Price and Stock are nullable: products
// sold through variants usually carry neither.
type Product struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description,omitempty"`
	Price         decimal.NullDecimal `json:"price"`
	ComparePrice  decimal.NullDecimal `json:"comparePrice"`
	Stock         *int                `json:"stock"`
	Weight        decimal.NullDecimal `json:"weight"`
	SKU           string              `json:"sku,omitempty"`
	FeaturedImage string              `json:"featuredImage,omitempty"`
	Images        []string            `json:"images"`
	Tags          []string            `json:"tags"`
	Category      *Category           `json:"category"`
	Variants      []Variant           `json:"variants,omitempty"`
	Options       []Option            `json:"options,omitempty"`
	IsActive      bool                `json:"isActive"`
	IsFeatured    bool                `json:"isFeatured"`
	StockShow     bool                `json:"stockShow"`
	Order         int                 `json:"order"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// ActiveVariants returns the variants flagged active, in stored order.
func (p Product) ActiveVariants() []Variant {
	out := make([]Variant, 0, len(p.Variants))
	for _, v := range p.Variants {
		if v.IsActive {
			out = append(out, v)
		}
	}
	return out
}

// Variant looks up an active variant by id.
func (p Product) Variant(id string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id && v.IsActive {
			return v, true
		}
	}
	return Variant{}, false
}

func (p Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

type Collection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	IsActive    bool      `json:"isActive"`
	Order       int       `json:"order"`
	ProductIDs  []string  `json:"productIds,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CollectionProducts is one home-page tab.
type CollectionProducts struct {
	Slug     string    `json:"slug"`
	Name     string    `json:"name"`
	Products []Product `json:"products"`
}

// Settings holds the shipping figures, one row keyed "default".
type Settings struct {
	InsideDhakaShipping  decimal.Decimal `json:"insideDhakaShipping"`
	OutsideDhakaShipping decimal.Decimal `json:"outsideDhakaShipping"`
	MinInsideDhaka       decimal.Decimal `json:"minimumShippingCostInsideDhaka"`
	MinOutsideDhaka      decimal.Decimal `json:"minimumShippingCostOutsideDhaka"`
	MaxInsideDhaka       decimal.Decimal `json:"maximumShippingCostInsideDhaka"`
	MaxOutsideDhaka      decimal.Decimal `json:"maximumShippingCostOutsideDhaka"`
}

func DefaultSettings() Settings {
	return Settings{
		InsideDhakaShipping:  decimal.NewFromInt(70),
		OutsideDhakaShipping: decimal.NewFromInt(180),
		MinInsideDhaka:       decimal.NewFromInt(70),
		MinOutsideDhaka:      decimal.NewFromInt(180),
		MaxInsideDhaka:       decimal.NewFromInt(300),
		MaxOutsideDhaka:      decimal.NewFromInt(400),
	}
}
