package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

const currency = "TK"

// FormatPrice renders a decimal string as "TK 1,23,456". Input that does not
// parse is returned as is.
func FormatPrice(s string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return FormatAmount(d)
}

func FormatAmount(d decimal.Decimal) string {
	return currency + " " + groupIndian(d.Round(0).String())
}

// FormatRange renders the display price, a min–max range for multi-variant
// products, or a placeholder when the price is unknown.
func FormatRange(d Display) string {
	if d.HasMultipleVariants && d.PriceMin.Valid && d.PriceMax.Valid && !d.PriceMin.Decimal.Equal(d.PriceMax.Decimal) {
		return FormatAmount(d.PriceMin.Decimal) + " – " + FormatAmount(d.PriceMax.Decimal)
	}
	if !d.Price.Valid {
		return "Price on request"
	}
	return FormatAmount(d.Price.Decimal)
}

// groupIndian applies en-IN digit grouping: the last three digits, then
// pairs.
func groupIndian(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	head, tail := s[:len(s)-3], s[len(s)-3:]
	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	if head != "" {
		parts = append([]string{head}, parts...)
	}
	return sign + strings.Join(append(parts, tail), ",")
}
