package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPrice(t *testing.T) {
	cases := map[string]string{
		"0":         "TK 0",
		"999":       "TK 999",
		"1000":      "TK 1,000",
		"123456":    "TK 1,23,456",
		"1234567.6": "TK 12,34,568",
		"-45000":    "TK -45,000",
		"1250.49":   "TK 1,250",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatPrice(in), in)
	}
}

func TestFormatPrice_Malformed(t *testing.T) {
	assert.Equal(t, "abc", FormatPrice("abc"))
	assert.Equal(t, "12,00", FormatPrice("12,00"))
}

func TestFormatRange(t *testing.T) {
	assert.Equal(t, "TK 800 – TK 1,500", FormatRange(Display{
		HasMultipleVariants: true,
		Price:               price("800"),
		PriceMin:            price("800"),
		PriceMax:            price("1500"),
	}))
	assert.Equal(t, "TK 400", FormatRange(Display{
		HasMultipleVariants: true,
		Price:               price("400"),
		PriceMin:            price("400"),
		PriceMax:            price("400"),
	}))
	assert.Equal(t, "Price on request", FormatRange(Display{}))
}
