package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ProductInput is the admin form payload. Price-like fields are decimal
// strings; empty means "not set".
type ProductInput struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Price         string         `json:"price"`
	ComparePrice  string         `json:"comparePrice"`
	SKU           string         `json:"sku"`
	Stock         *int           `json:"stock"`
	Weight        string         `json:"weight"`
	CategoryID    string         `json:"categoryId"`
	Tags          []string       `json:"tags"`
	FeaturedImage string         `json:"featuredImage"`
	Images        []string       `json:"images"`
	IsActive      bool           `json:"isActive"`
	IsFeatured    bool           `json:"isFeatured"`
	StockShow     bool           `json:"stockShow"`
	Collections   []string       `json:"collections"`
	Order         int            `json:"order"`
	Variants      []VariantInput `json:"variants"`
	// Options nil leaves stored options untouched on update.
	Options []Option `json:"options"`
}

type VariantInput struct {
	Label        string `json:"label"`
	Price        string `json:"price"`
	ComparePrice string `json:"comparePrice"`
	Stock        int    `json:"stock"`
	SKU          string `json:"sku"`
	Order        int    `json:"order"`
	IsActive     bool   `json:"isActive"`
}

type productRow struct {
	price, comparePrice, weight decimal.NullDecimal
}

func optionalDecimal(field, s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %s %q is not a number", ErrInvalidProduct, field, s)
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %s must not be negative", ErrInvalidProduct, field)
	}
	return decimal.NewNullDecimal(d), nil
}

func nullString(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// validate checks the input and parses its numeric fields.
func (in ProductInput) validate() (productRow, error) {
	var (
		row productRow
		err error
	)
	if strings.TrimSpace(in.Name) == "" {
		return row, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if in.Stock != nil && *in.Stock < 0 {
		return row, fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}
	if row.price, err = optionalDecimal("price", in.Price); err != nil {
		return row, err
	}
	if row.comparePrice, err = optionalDecimal("comparePrice", in.ComparePrice); err != nil {
		return row, err
	}
	if row.weight, err = optionalDecimal("weight", in.Weight); err != nil {
		return row, err
	}
	for i, v := range in.Variants {
		if strings.TrimSpace(v.Label) == "" {
			return row, fmt.Errorf("%w: variant %d needs a label", ErrInvalidProduct, i)
		}
		if v.Stock < 0 {
			return row, fmt.Errorf("%w: variant %q stock must not be negative", ErrInvalidProduct, v.Label)
		}
		if _, err := optionalDecimal("variant price", v.Price); err != nil {
			return row, err
		}
		if _, err := optionalDecimal("variant comparePrice", v.ComparePrice); err != nil {
			return row, err
		}
	}
	for _, o := range in.Options {
		if strings.TrimSpace(o.Name) == "" || len(o.Values) == 0 {
			return row, fmt.Errorf("%w: options need a name and values", ErrInvalidProduct)
		}
	}
	return row, nil
}

// CreateProduct inserts the product with its collections, variants and
// options in one transaction and returns the new id.
func (r *Repo) CreateProduct(ctx context.Context, in ProductInput) (string, error) {
	row, err := in.validate()
	if err != nil {
		return "", err
	}
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := uuid.NewString()
	_, err = tx.Exec(ctx, `
		INSERT INTO products(id, name, description, price, compare_price, stock, weight, sku, featured_image,
		                     images, tags, category_id, is_active, is_featured, stock_show, sort_order)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		id, strings.TrimSpace(in.Name), nullString(in.Description), row.price, row.comparePrice, in.Stock, row.weight,
		nullString(in.SKU), nullString(in.FeaturedImage), nonNil(in.Images), nonNil(in.Tags),
		nullString(in.CategoryID), in.IsActive, in.IsFeatured, in.StockShow, in.Order)
	if err != nil {
		return "", fmt.Errorf("insert product: %w", err)
	}
	if err := replaceChildren(ctx, tx, id, in, true); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateProduct overwrites the product and replaces its collection links and
// variants. Options are replaced only when in.Options is non-nil; a nil Stock
// keeps the stored stock.
func (r *Repo) UpdateProduct(ctx context.Context, id string, in ProductInput) error {
	row, err := in.validate()
	if err != nil {
		return err
	}
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE products SET
			name=$2, description=$3, price=$4, compare_price=$5, stock=COALESCE($6, stock), weight=$7,
			sku=$8, featured_image=$9, images=$10, tags=$11, category_id=$12,
			is_active=$13, is_featured=$14, stock_show=$15, sort_order=$16, updated_at=now()
		WHERE id=$1`,
		id, strings.TrimSpace(in.Name), nullString(in.Description), row.price, row.comparePrice, in.Stock, row.weight,
		nullString(in.SKU), nullString(in.FeaturedImage), nonNil(in.Images), nonNil(in.Tags),
		nullString(in.CategoryID), in.IsActive, in.IsFeatured, in.StockShow, in.Order)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	if err := replaceChildren(ctx, tx, id, in, in.Options != nil); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func replaceChildren(ctx context.Context, tx pgx.Tx, productID string, in ProductInput, withOptions bool) error {
	if _, err := tx.Exec(ctx, `DELETE FROM product_collections WHERE product_id=$1`, productID); err != nil {
		return fmt.Errorf("clear collections: %w", err)
	}
	for _, cid := range in.Collections {
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_collections(product_id, collection_id) VALUES ($1,$2)
			ON CONFLICT DO NOTHING`, productID, cid); err != nil {
			return fmt.Errorf("link collection %s: %w", cid, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM product_variants WHERE product_id=$1`, productID); err != nil {
		return fmt.Errorf("clear variants: %w", err)
	}
	for _, v := range in.Variants {
		price, _ := optionalDecimal("variant price", v.Price)
		compare, _ := optionalDecimal("variant comparePrice", v.ComparePrice)
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_variants(id, product_id, label, price, compare_price, stock, sku, sort_order, is_active)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			uuid.NewString(), productID, strings.TrimSpace(v.Label), price, compare, v.Stock,
			nullString(v.SKU), v.Order, v.IsActive); err != nil {
			return fmt.Errorf("insert variant %q: %w", v.Label, err)
		}
	}

	if !withOptions {
		return nil
	}
	if _, err := tx.Exec(ctx, `DELETE FROM product_options WHERE product_id=$1`, productID); err != nil {
		return fmt.Errorf("clear options: %w", err)
	}
	for _, o := range in.Options {
		if _, err := tx.Exec(ctx, `INSERT INTO product_options(id, product_id, name, "values") VALUES ($1,$2,$3,$4)`,
			uuid.NewString(), productID, strings.TrimSpace(o.Name), o.Values); err != nil {
			return fmt.Errorf("insert option %q: %w", o.Name, err)
		}
	}
	return nil
}

func (r *Repo) DeleteProduct(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// IsNotFound reports whether err is one of the catalog not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrCollectionNotFound)
}
