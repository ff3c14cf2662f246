package catalog

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Repo struct{ DB *pgxpool.Pool }

const productColumns = `p.id, p.name, COALESCE(p.description, ''), p.price, p.compare_price, p.stock, p.weight,
	COALESCE(p.sku, ''), COALESCE(p.featured_image, ''), p.images, p.tags,
	p.is_active, p.is_featured, p.stock_show, p.sort_order, p.created_at, p.updated_at,
	c.id, c.name, c.slug`

// effectivePrice orders variant products by their cheapest active variant.
const effectivePrice = `COALESCE(p.price, (SELECT MIN(v.price) FROM product_variants v WHERE v.product_id = p.id AND v.is_active))`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (Product, error) {
	var (
		p                       Product
		catID, catName, catSlug *string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ComparePrice, &p.Stock, &p.Weight,
		&p.SKU, &p.FeaturedImage, &p.Images, &p.Tags,
		&p.IsActive, &p.IsFeatured, &p.StockShow, &p.Order, &p.CreatedAt, &p.UpdatedAt,
		&catID, &catName, &catSlug)
	if err != nil {
		return Product{}, err
	}
	if catID != nil {
		p.Category = &Category{ID: *catID, Name: deref(catName), Slug: deref(catSlug)}
	}
	return p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func listWhere(f Filters) sq.And {
	where := sq.And{}
	if !f.IncludeInactive {
		where = append(where, sq.Eq{"p.is_active": true})
	}
	if f.CategoryID != "" {
		where = append(where, sq.Eq{"p.category_id": f.CategoryID})
	}
	if f.Collection != "" {
		where = append(where, sq.Expr(`EXISTS (SELECT 1 FROM product_collections pc
			JOIN collections col ON col.id = pc.collection_id
			WHERE pc.product_id = p.id AND col.slug = ?)`, f.Collection))
	}
	if f.Search != "" {
		where = append(where, sq.ILike{"p.name": containsPattern(f.Search)})
	}
	return where
}

func orderBy(s Sort) []string {
	switch s {
	case SortOldest:
		return []string{"p.created_at ASC", "p.id"}
	case SortPriceAsc:
		return []string{effectivePrice + " ASC NULLS LAST", "p.created_at DESC", "p.id"}
	case SortPriceDesc:
		return []string{effectivePrice + " DESC NULLS LAST", "p.created_at DESC", "p.id"}
	default:
		return []string{"p.created_at DESC", "p.id"}
	}
}

// ListProducts returns one page of products with their variants; unless
// IncludeInactive is set both are restricted to active rows. The page and the total count are queried concurrently.
func (r *Repo) ListProducts(ctx context.Context, f Filters) (Page, error) {
	f = f.normalized()
	where := listWhere(f)

	listSQL, listArgs, err := psql.Select(productColumns).
		From("products p").
		LeftJoin("categories c ON c.id = p.category_id").
		Where(where).
		OrderBy(orderBy(f.Sort)...).
		Offset(uint64(f.Skip)).
		Limit(uint64(f.Take)).
		ToSql()
	if err != nil {
		return Page{}, fmt.Errorf("build list query: %w", err)
	}
	countSQL, countArgs, err := psql.Select("COUNT(*)").From("products p").Where(where).ToSql()
	if err != nil {
		return Page{}, fmt.Errorf("build count query: %w", err)
	}

	var (
		products []Product
		total    int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = r.queryProducts(gctx, listSQL, listArgs...)
		return err
	})
	g.Go(func() error {
		return r.DB.QueryRow(gctx, countSQL, countArgs...).Scan(&total)
	})
	if err := g.Wait(); err != nil {
		return Page{}, fmt.Errorf("list products: %w", err)
	}

	if err := r.attachVariants(ctx, products, !f.IncludeInactive); err != nil {
		return Page{}, err
	}
	return Page{Products: products, Total: total, HasMore: f.Skip+f.Take < total}, nil
}

func (r *Repo) queryProducts(ctx context.Context, sql string, args ...any) ([]Product, error) {
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) attachVariants(ctx context.Context, products []Product, activeOnly bool) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	byProduct, err := r.variantsFor(ctx, ids, activeOnly)
	if err != nil {
		return err
	}
	for i := range products {
		products[i].Variants = byProduct[products[i].ID]
	}
	return nil
}

func (r *Repo) variantsFor(ctx context.Context, productIDs []string, activeOnly bool) (map[string][]Variant, error) {
	q := psql.Select("id", "product_id", "label", "price", "compare_price", "stock", "COALESCE(sku, '')", "sort_order", "is_active").
		From("product_variants").
		Where("product_id = ANY(?)", productIDs).
		OrderBy("product_id", "sort_order", "id")
	if activeOnly {
		q = q.Where(sq.Eq{"is_active": true})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build variants query: %w", err)
	}
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query variants: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]Variant, len(productIDs))
	for rows.Next() {
		var (
			v   Variant
			pid string
		)
		if err := rows.Scan(&v.ID, &pid, &v.Label, &v.Price, &v.ComparePrice, &v.Stock, &v.SKU, &v.Order, &v.IsActive); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		out[pid] = append(out[pid], v)
	}
	return out, rows.Err()
}

func (r *Repo) optionsFor(ctx context.Context, productID string) ([]Option, error) {
	rows, err := r.DB.Query(ctx, `SELECT name, "values" FROM product_options WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("query options: %w", err)
	}
	defer rows.Close()

	var out []Option
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.Name, &o.Values); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// GetProduct loads a product with all of its variants and options, active or
// not. Callers serving the storefront check IsActive themselves.
func (r *Repo) GetProduct(ctx context.Context, id string) (Product, error) {
	sql, args, err := psql.Select(productColumns).
		From("products p").
		LeftJoin("categories c ON c.id = p.category_id").
		Where(sq.Eq{"p.id": id}).
		ToSql()
	if err != nil {
		return Product{}, fmt.Errorf("build product query: %w", err)
	}
	p, err := scanProduct(r.DB.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}

	variants, err := r.variantsFor(ctx, []string{id}, false)
	if err != nil {
		return Product{}, err
	}
	p.Variants = variants[id]
	if p.Options, err = r.optionsFor(ctx, id); err != nil {
		return Product{}, err
	}
	return p, nil
}

// RelatedProducts returns other active products of the same category.
func (r *Repo) RelatedProducts(ctx context.Context, categoryID, excludeID string, take int) ([]Product, error) {
	if categoryID == "" {
		return []Product{}, nil
	}
	sql, args, err := psql.Select(productColumns).
		From("products p").
		LeftJoin("categories c ON c.id = p.category_id").
		Where(sq.Eq{"p.is_active": true, "p.category_id": categoryID}).
		Where(sq.NotEq{"p.id": excludeID}).
		OrderBy("p.created_at DESC", "p.id").
		Limit(uint64(take)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build related query: %w", err)
	}
	products, err := r.queryProducts(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("related products: %w", err)
	}
	return products, r.attachVariants(ctx, products, true)
}

// ListByCollection returns active products of an active collection in
// curated order.
func (r *Repo) ListByCollection(ctx context.Context, slug string, take int) ([]Product, error) {
	sql, args, err := psql.Select(productColumns).
		From("products p").
		LeftJoin("categories c ON c.id = p.category_id").
		Join("product_collections pc ON pc.product_id = p.id").
		Join("collections col ON col.id = pc.collection_id").
		Where(sq.Eq{"p.is_active": true, "col.slug": slug, "col.is_active": true}).
		OrderBy("p.sort_order ASC", "p.created_at DESC", "p.id").
		Limit(uint64(take)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build collection query: %w", err)
	}
	products, err := r.queryProducts(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list by collection %s: %w", slug, err)
	}
	return products, r.attachVariants(ctx, products, true)
}

// HomeCollections fills each collection tab with up to perCollection
// products, querying the collections in parallel.
func (r *Repo) HomeCollections(ctx context.Context, cols []Collection, perCollection int) ([]CollectionProducts, error) {
	out := make([]CollectionProducts, len(cols))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range cols {
		i, c := i, c
		g.Go(func() error {
			products, err := r.ListByCollection(gctx, c.Slug, perCollection)
			if err != nil {
				return err
			}
			out[i] = CollectionProducts{Slug: c.Slug, Name: c.Name, Products: products}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCategories returns active categories with their active product counts.
func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT c.id, c.name, c.slug,
		       (SELECT COUNT(*) FROM products p WHERE p.category_id = c.id AND p.is_active)
		FROM categories c
		WHERE c.is_active
		ORDER BY c.sort_order, c.name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.ProductCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
