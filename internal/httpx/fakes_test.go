package httpx

import (
	"context"
	"sort"
	"sync"

	"github.com/ariefcatur/go-decor-storefront.git/internal/catalog"
	"github.com/shopspring/decimal"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func intp(n int) *int { return &n }

// fakeCatalog serves products from memory; it covers the read and admin
// interfaces used by the handlers.
type fakeCatalog struct {
	mu       sync.Mutex
	products map[string]catalog.Product
	order    []string
	filters  []catalog.Filters
	err      error
}

func newFakeCatalog(ps ...catalog.Product) *fakeCatalog {
	f := &fakeCatalog{products: map[string]catalog.Product{}}
	for _, p := range ps {
		f.products[p.ID] = p
		f.order = append(f.order, p.ID)
	}
	return f
}

func (f *fakeCatalog) ListProducts(_ context.Context, flt catalog.Filters) (catalog.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, flt)
	if f.err != nil {
		return catalog.Page{}, f.err
	}
	var all []catalog.Product
	for _, id := range f.order {
		p := f.products[id]
		if p.IsActive || flt.IncludeInactive {
			all = append(all, p)
		}
	}
	take := flt.Take
	if take <= 0 {
		take = catalog.DefaultTake
	}
	end := min(flt.Skip+take, len(all))
	start := min(flt.Skip, end)
	return catalog.Page{Products: all[start:end], Total: len(all), HasMore: flt.Skip+take < len(all)}, nil
}

func (f *fakeCatalog) GetProduct(_ context.Context, id string) (catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalog) RelatedProducts(_ context.Context, categoryID, excludeID string, take int) ([]catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []catalog.Product{}
	for _, id := range f.order {
		p := f.products[id]
		if p.ID != excludeID && p.IsActive && p.Category != nil && p.Category.ID == categoryID && len(out) < take {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) HomeCollections(_ context.Context, cols []catalog.Collection, per int) ([]catalog.CollectionProducts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]catalog.CollectionProducts, 0, len(cols))
	for _, c := range cols {
		cp := catalog.CollectionProducts{Slug: c.Slug, Name: c.Name, Products: []catalog.Product{}}
		for _, id := range c.ProductIDs {
			if p, ok := f.products[id]; ok && p.IsActive && len(cp.Products) < per {
				cp.Products = append(cp.Products, p)
			}
		}
		out = append(out, cp)
	}
	return out, nil
}

func (f *fakeCatalog) ListCategories(context.Context) ([]catalog.Category, error) {
	return []catalog.Category{{ID: "c1", Name: "Lighting", Slug: "lighting", ProductCount: 2}}, nil
}

func (f *fakeCatalog) CreateProduct(_ context.Context, in catalog.ProductInput) (string, error) {
	if in.Name == "" {
		return "", catalog.ErrInvalidProduct
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := "new-" + in.Name
	f.products[id] = catalog.Product{ID: id, Name: in.Name, IsActive: in.IsActive}
	f.order = append(f.order, id)
	return id, nil
}

func (f *fakeCatalog) UpdateProduct(_ context.Context, id string, in catalog.ProductInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return catalog.ErrProductNotFound
	}
	p.Name = in.Name
	f.products[id] = p
	return nil
}

func (f *fakeCatalog) DeleteProduct(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return catalog.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

type fakeCollections struct {
	mu   sync.Mutex
	cols map[string]catalog.Collection
}

func newFakeCollections(cs ...catalog.Collection) *fakeCollections {
	f := &fakeCollections{cols: map[string]catalog.Collection{}}
	for _, c := range cs {
		f.cols[c.ID] = c
	}
	return f
}

func (f *fakeCollections) List(_ context.Context, _ string, activeOnly bool) ([]catalog.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []catalog.Collection{}
	for _, c := range f.cols {
		if c.IsActive || !activeOnly {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (f *fakeCollections) Get(_ context.Context, id string) (catalog.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cols[id]
	if !ok {
		return catalog.Collection{}, catalog.ErrCollectionNotFound
	}
	return c, nil
}

func (f *fakeCollections) Create(_ context.Context, in catalog.CollectionInput) (catalog.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cols {
		if c.Slug == in.Slug {
			return catalog.Collection{}, catalog.ErrSlugExists
		}
	}
	c := catalog.Collection{ID: "col-" + in.Slug, Name: in.Name, Slug: in.Slug, IsActive: true}
	f.cols[c.ID] = c
	return c, nil
}

func (f *fakeCollections) Update(_ context.Context, id string, p catalog.CollectionPatch) (catalog.Collection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cols[id]
	if !ok {
		return catalog.Collection{}, catalog.ErrCollectionNotFound
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	f.cols[id] = c
	return c, nil
}

func (f *fakeCollections) SetActive(ctx context.Context, id string, active bool) error {
	_, err := f.Update(ctx, id, catalog.CollectionPatch{IsActive: &active})
	return err
}

func (f *fakeCollections) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cols[id]; !ok {
		return catalog.ErrCollectionNotFound
	}
	delete(f.cols, id)
	return nil
}

type fakeSettings struct {
	s catalog.Settings
}

func (f *fakeSettings) Get(context.Context) (catalog.Settings, error) { return f.s, nil }

func (f *fakeSettings) Update(_ context.Context, s catalog.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	f.s = s
	return nil
}

// fixture products
var (
	lighting = &catalog.Category{ID: "c1", Name: "Lighting", Slug: "lighting"}

	lampMulti = catalog.Product{
		ID: "lamp", Name: "Arc Lamp", IsActive: true, Category: lighting,
		Options: []catalog.Option{{Name: "Size", Values: []string{"S", "L"}}},
		Variants: []catalog.Variant{
			{ID: "lamp-s", Label: "S", Price: nd("1000"), Stock: 2, IsActive: true},
			{ID: "lamp-l", Label: "L", Price: nd("1800"), Stock: 1, IsActive: true},
			{ID: "lamp-x", Label: "XL", Price: nd("9000"), Stock: 4, IsActive: false},
		},
		ComparePrice: nd("5000"),
	}
	pendant = catalog.Product{
		ID: "pendant", Name: "Pendant", IsActive: true, Category: lighting,
		Price: nd("1500"), ComparePrice: nd("2000"), Stock: intp(3), Weight: nd("1.2"),
	}
	hiddenVase = catalog.Product{ID: "vase", Name: "Vase", IsActive: false, Price: nd("500"), Stock: intp(1)}
)
