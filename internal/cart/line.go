package cart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-decor-storefront.git/internal/catalog"
)

var (
	ErrVariantRequired = errors.New("select a variant")
	ErrUnknownVariant  = errors.New("unknown variant")
	ErrMissingOptions  = errors.New("missing options")
	ErrInvalidOption   = errors.New("invalid option value")
	ErrPriceUnknown    = errors.New("price not available")
	ErrOutOfStock      = errors.New("out of stock")
)

// defaultVariantOption names the option a variant label is stored under when
// the product declares no options.
const defaultVariantOption = "Variant"

// FromProduct builds the line a shopper adds from the product page. Variants
// with stock left are the selectable ones; a lone one is picked implicitly.
// The variant label is recorded under the product's first option name.
func FromProduct(p catalog.Product, variantID string, selected map[string]string) (LineItem, error) {
	if !p.IsActive {
		return LineItem{}, catalog.ErrProductNotFound
	}
	line := LineItem{
		ProductID:     p.ID,
		Name:          p.Name,
		FeaturedImage: p.FeaturedImage,
		Weight:        p.Weight,
		CategoryName:  p.CategoryName(),
	}

	var selectable []catalog.Variant
	for _, v := range p.ActiveVariants() {
		if v.Stock > 0 {
			selectable = append(selectable, v)
		}
	}

	price := p.Price
	if len(selectable) > 0 {
		v, err := pickVariant(selectable, variantID)
		if err != nil {
			return LineItem{}, err
		}
		optionName := defaultVariantOption
		if len(p.Options) > 0 {
			optionName = p.Options[0].Name
		}
		line.VariantID = v.ID
		line.SelectedOptions = map[string]string{optionName: v.Label}
		line.Stock = v.Stock
		if v.Price.Valid {
			price = v.Price
		}
	} else {
		if variantID != "" {
			return LineItem{}, ErrUnknownVariant
		}
		opts, err := checkOptions(p.Options, selected)
		if err != nil {
			return LineItem{}, err
		}
		line.SelectedOptions = opts
		if p.Stock != nil {
			line.Stock = *p.Stock
		}
	}

	if !price.Valid {
		return LineItem{}, ErrPriceUnknown
	}
	if line.Stock <= 0 {
		return LineItem{}, ErrOutOfStock
	}
	line.Price = price.Decimal
	return line, nil
}

func pickVariant(selectable []catalog.Variant, id string) (catalog.Variant, error) {
	if id == "" {
		if len(selectable) == 1 {
			return selectable[0], nil
		}
		return catalog.Variant{}, ErrVariantRequired
	}
	for _, v := range selectable {
		if v.ID == id {
			return v, nil
		}
	}
	return catalog.Variant{}, ErrUnknownVariant
}

// checkOptions requires a permitted value for every declared option and
// drops keys the product does not declare.
func checkOptions(declared []catalog.Option, selected map[string]string) (map[string]string, error) {
	if len(declared) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(declared))
	var missing []string
	for _, o := range declared {
		v, ok := selected[o.Name]
		if !ok || v == "" {
			missing = append(missing, o.Name)
			continue
		}
		if !o.HasValue(v) {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidOption, o.Name, v)
		}
		out[o.Name] = v
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingOptions, strings.Join(missing, ", "))
	}
	return out, nil
}
