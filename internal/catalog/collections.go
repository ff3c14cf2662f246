package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CollectionRepo struct{ DB *pgxpool.Pool }

type CollectionInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
	IsActive    *bool  `json:"isActive"`
	Order       *int   `json:"order"`
}

// CollectionPatch carries the fields to change; nil fields are left as is.
type CollectionPatch struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	IsActive    *bool   `json:"isActive"`
	Order       *int    `json:"order"`
}

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

func validSlug(s string) bool { return slugPattern.MatchString(s) }

const collectionColumns = `c.id, c.name, c.slug, COALESCE(c.description, ''), COALESCE(c.image, ''), c.is_active, c.sort_order, c.created_at,
	COALESCE((SELECT array_agg(pc.product_id ORDER BY pc.product_id) FROM product_collections pc WHERE pc.collection_id = c.id), '{}')`

func scanCollection(row scanner) (Collection, error) {
	var c Collection
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Image, &c.IsActive, &c.Order, &c.CreatedAt, &c.ProductIDs)
	return c, err
}

// List returns collections in curated order. A non-empty query matches name,
// description or slug case-insensitively; activeOnly hides disabled ones.
func (r *CollectionRepo) List(ctx context.Context, query string, activeOnly bool) ([]Collection, error) {
	q := psql.Select(collectionColumns).From("collections c").OrderBy("c.sort_order ASC", "c.created_at DESC")
	if query = strings.TrimSpace(query); query != "" {
		pat := containsPattern(query)
		q = q.Where(sq.Or{sq.ILike{"c.name": pat}, sq.ILike{"c.description": pat}, sq.ILike{"c.slug": pat}})
	}
	if activeOnly {
		q = q.Where(sq.Eq{"c.is_active": true})
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build collections query: %w", err)
	}
	rows, err := r.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	out := []Collection{}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CollectionRepo) Get(ctx context.Context, id string) (Collection, error) {
	sql, args, err := psql.Select(collectionColumns).From("collections c").Where(sq.Eq{"c.id": id}).ToSql()
	if err != nil {
		return Collection{}, err
	}
	c, err := scanCollection(r.DB.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Collection{}, ErrCollectionNotFound
	}
	if err != nil {
		return Collection{}, fmt.Errorf("get collection: %w", err)
	}
	return c, nil
}

func (r *CollectionRepo) Create(ctx context.Context, in CollectionInput) (Collection, error) {
	in.Name, in.Slug = strings.TrimSpace(in.Name), strings.TrimSpace(in.Slug)
	if in.Name == "" || !validSlug(in.Slug) {
		return Collection{}, fmt.Errorf("%w: name and a url-safe slug are required", ErrInvalidCollection)
	}
	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM collections WHERE slug=$1)`, in.Slug).Scan(&exists); err != nil {
		return Collection{}, fmt.Errorf("check slug: %w", err)
	}
	if exists {
		return Collection{}, ErrSlugExists
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	order := 0
	if in.Order != nil {
		order = *in.Order
	}
	id := uuid.NewString()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO collections(id, name, slug, description, image, is_active, sort_order)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		id, in.Name, in.Slug, nullString(in.Description), nullString(in.Image), active, order)
	if isUniqueViolation(err) {
		return Collection{}, ErrSlugExists
	}
	if err != nil {
		return Collection{}, fmt.Errorf("insert collection: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *CollectionRepo) Update(ctx context.Context, id string, p CollectionPatch) (Collection, error) {
	set := map[string]any{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return Collection{}, fmt.Errorf("%w: name must not be empty", ErrInvalidCollection)
		}
		set["name"] = name
	}
	if p.Slug != nil {
		slug := strings.TrimSpace(*p.Slug)
		if !validSlug(slug) {
			return Collection{}, fmt.Errorf("%w: slug %q is not url-safe", ErrInvalidCollection, slug)
		}
		var owner string
		err := r.DB.QueryRow(ctx, `SELECT id FROM collections WHERE slug=$1`, slug).Scan(&owner)
		if err == nil && owner != id {
			return Collection{}, ErrSlugExists
		}
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return Collection{}, fmt.Errorf("check slug: %w", err)
		}
		set["slug"] = slug
	}
	if p.Description != nil {
		set["description"] = nullString(*p.Description)
	}
	if p.Image != nil {
		set["image"] = nullString(*p.Image)
	}
	if p.IsActive != nil {
		set["is_active"] = *p.IsActive
	}
	if p.Order != nil {
		set["sort_order"] = *p.Order
	}
	if len(set) == 0 {
		return r.Get(ctx, id)
	}

	sql, args, err := psql.Update("collections").SetMap(set).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return Collection{}, err
	}
	ct, err := r.DB.Exec(ctx, sql, args...)
	if isUniqueViolation(err) {
		return Collection{}, ErrSlugExists
	}
	if err != nil {
		return Collection{}, fmt.Errorf("update collection: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return Collection{}, ErrCollectionNotFound
	}
	return r.Get(ctx, id)
}

func (r *CollectionRepo) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.Update(ctx, id, CollectionPatch{IsActive: &active})
	return err
}

func (r *CollectionRepo) Delete(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM collections WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrCollectionNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
