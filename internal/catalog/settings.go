package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SettingsRepo struct{ DB *pgxpool.Pool }

// Get returns the shipping settings, seeding the defaults on first use.
func (r *SettingsRepo) Get(ctx context.Context) (Settings, error) {
	var s Settings
	err := r.DB.QueryRow(ctx, `
		SELECT inside_dhaka_shipping, outside_dhaka_shipping,
		       min_shipping_inside_dhaka, min_shipping_outside_dhaka,
		       max_shipping_inside_dhaka, max_shipping_outside_dhaka
		FROM settings WHERE id='default'`).
		Scan(&s.InsideDhakaShipping, &s.OutsideDhakaShipping, &s.MinInsideDhaka, &s.MinOutsideDhaka, &s.MaxInsideDhaka, &s.MaxOutsideDhaka)
	if errors.Is(err, pgx.ErrNoRows) {
		def := DefaultSettings()
		if err := r.insertDefaults(ctx, def); err != nil {
			return def, err
		}
		return def, nil
	}
	if err != nil {
		return DefaultSettings(), fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

func (r *SettingsRepo) insertDefaults(ctx context.Context, s Settings) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO settings(id, inside_dhaka_shipping, outside_dhaka_shipping,
		                     min_shipping_inside_dhaka, min_shipping_outside_dhaka,
		                     max_shipping_inside_dhaka, max_shipping_outside_dhaka)
		VALUES ('default',$1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO NOTHING`,
		s.InsideDhakaShipping, s.OutsideDhakaShipping, s.MinInsideDhaka, s.MinOutsideDhaka, s.MaxInsideDhaka, s.MaxOutsideDhaka)
	if err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	return nil
}

// Update upserts the shipping settings after validating them.
func (r *SettingsRepo) Update(ctx context.Context, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	_, err := r.DB.Exec(ctx, `
		INSERT INTO settings(id, inside_dhaka_shipping, outside_dhaka_shipping,
		                     min_shipping_inside_dhaka, min_shipping_outside_dhaka,
		                     max_shipping_inside_dhaka, max_shipping_outside_dhaka)
		VALUES ('default',$1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET
			inside_dhaka_shipping = EXCLUDED.inside_dhaka_shipping,
			outside_dhaka_shipping = EXCLUDED.outside_dhaka_shipping,
			min_shipping_inside_dhaka = EXCLUDED.min_shipping_inside_dhaka,
			min_shipping_outside_dhaka = EXCLUDED.min_shipping_outside_dhaka,
			max_shipping_inside_dhaka = EXCLUDED.max_shipping_inside_dhaka,
			max_shipping_outside_dhaka = EXCLUDED.max_shipping_outside_dhaka`,
		s.InsideDhakaShipping, s.OutsideDhakaShipping, s.MinInsideDhaka, s.MinOutsideDhaka, s.MaxInsideDhaka, s.MaxOutsideDhaka)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

// Validate rejects negative figures and min above max per zone.
func (s Settings) Validate() error {
	for _, d := range []struct {
		name string
		v    interface{ IsNegative() bool }
	}{
		{"insideDhakaShipping", s.InsideDhakaShipping},
		{"outsideDhakaShipping", s.OutsideDhakaShipping},
		{"minimumShippingCostInsideDhaka", s.MinInsideDhaka},
		{"minimumShippingCostOutsideDhaka", s.MinOutsideDhaka},
		{"maximumShippingCostInsideDhaka", s.MaxInsideDhaka},
		{"maximumShippingCostOutsideDhaka", s.MaxOutsideDhaka},
	} {
		if d.v.IsNegative() {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidSettings, d.name)
		}
	}
	if s.MinInsideDhaka.GreaterThan(s.MaxInsideDhaka) || s.MinOutsideDhaka.GreaterThan(s.MaxOutsideDhaka) {
		return fmt.Errorf("%w: minimum exceeds maximum", ErrInvalidSettings)
	}
	return nil
}
