package checkout

import (
	"github.com/ariefcatur/go-decor-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-decor-storefront.git/internal/orders"
	"github.com/shopspring/decimal"
)

// ShippingFee charges the zone base rate per started kilogram (at least one)
// and clamps the result to the zone's [min, max]. Lines without a weight
// count as zero.
func ShippingFee(s catalog.Settings, zone orders.Zone, weightKg decimal.Decimal) decimal.Decimal {
	base, lo, hi := s.InsideDhakaShipping, s.MinInsideDhaka, s.MaxInsideDhaka
	if zone == orders.ZoneOutsideDhaka {
		base, lo, hi = s.OutsideDhakaShipping, s.MinOutsideDhaka, s.MaxOutsideDhaka
	}
	units := weightKg.Ceil()
	if units.LessThan(decimal.NewFromInt(1)) {
		units = decimal.NewFromInt(1)
	}
	fee := base.Mul(units)
	if fee.LessThan(lo) {
		fee = lo
	}
	if hi.GreaterThan(decimal.Zero) && fee.GreaterThan(hi) {
		fee = hi
	}
	return fee
}
