package cart

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// LineItem is one cart entry. Name, FeaturedImage, Weight and CategoryName
// are snapshots taken on first insertion.
type LineItem struct {
	ProductID       string              `json:"id"`
	VariantID       string              `json:"variantId,omitempty"`
	Name            string              `json:"name"`
	Price           decimal.Decimal     `json:"price"`
	SelectedOptions map[string]string   `json:"selectedOptions,omitempty"`
	Quantity        int                 `json:"quantity"`
	Stock           int                 `json:"stock"`
	FeaturedImage   string              `json:"featuredImage,omitempty"`
	Weight          decimal.NullDecimal `json:"weight"`
	CategoryName    string              `json:"categoryName,omitempty"`
}

// Identity keys a line: product id plus the selected options, order
// independent.
type Identity struct {
	ProductID string
	Options   string
}

func NewIdentity(productID string, options map[string]string) Identity {
	return Identity{ProductID: productID, Options: canonicalOptions(options)}
}

func (it LineItem) Identity() Identity {
	return NewIdentity(it.ProductID, it.SelectedOptions)
}

func (it LineItem) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

func (id Identity) String() string {
	if id.Options == "" {
		return id.ProductID
	}
	return id.ProductID + "?" + id.Options
}

// canonicalOptions encodes options as sorted, escaped k=v pairs so equal maps
// produce equal strings. nil and empty maps both encode as "".
func canonicalOptions(opts map[string]string) string {
	if len(opts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(k))
		b.WriteByte('=')
		b.WriteString(escape(opts[k]))
	}
	return b.String()
}

var optionEscaper = strings.NewReplacer(`\`, `\\`, `&`, `\&`, `=`, `\=`)

func escape(s string) string { return optionEscaper.Replace(s) }

func cloneOptions(opts map[string]string) map[string]string {
	if len(opts) == 0 {
		return nil
	}
	out := make(map[string]string, len(opts))
	for k, v := range opts {
		out[k] = v
	}
	return out
}
