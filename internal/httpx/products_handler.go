package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-decor-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-decor-storefront.git/internal/pricing"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	homeCollections   = 6
	homePerCollection = 8
	relatedTake       = 4
)

// ProductCatalog is the read side of *catalog.Repo.
type ProductCatalog interface {
	ListProducts(ctx context.Context, f catalog.Filters) (catalog.Page, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
	RelatedProducts(ctx context.Context, categoryID, excludeID string, take int) ([]catalog.Product, error)
	HomeCollections(ctx context.Context, cols []catalog.Collection, perCollection int) ([]catalog.CollectionProducts, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
}

type CollectionLister interface {
	List(ctx context.Context, query string, activeOnly bool) ([]catalog.Collection, error)
}

type ProductsHandler struct {
	Catalog     ProductCatalog
	Collections CollectionLister
	PageSize    int
	Log         *zap.Logger
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Get("/api/products", h.listProducts)
	r.Get("/api/products/{id}", h.getProduct)
	r.Get("/api/categories", h.listCategories)
	r.Get("/api/collections", h.listCollections)
	r.Get("/api/home", h.home)
}

// productSummary is the listing card: the stored product reduced through
// the price normalizer.
type productSummary struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Price               decimal.NullDecimal `json:"price"`
	ComparePrice        decimal.NullDecimal `json:"comparePrice"`
	PriceMin            decimal.NullDecimal `json:"priceMin"`
	PriceMax            decimal.NullDecimal `json:"priceMax"`
	PriceLabel          string              `json:"priceLabel"`
	HasMultipleVariants bool                `json:"hasMultipleVariants"`
	FeaturedImage       string              `json:"featuredImage,omitempty"`
	Stock               int                 `json:"stock"`
	StockShow           bool                `json:"stockShow"`
	Weight              decimal.NullDecimal `json:"weight"`
	Category            *catalog.Category   `json:"category"`
}

func summarize(p catalog.Product) productSummary {
	d := pricing.Normalize(p)
	return productSummary{
		ID:                  p.ID,
		Name:                p.Name,
		Price:               d.Price,
		ComparePrice:        d.ComparePrice,
		PriceMin:            d.PriceMin,
		PriceMax:            d.PriceMax,
		PriceLabel:          pricing.FormatRange(d),
		HasMultipleVariants: d.HasMultipleVariants,
		FeaturedImage:       p.FeaturedImage,
		Stock:               d.Stock,
		StockShow:           p.StockShow,
		Weight:              p.Weight,
		Category:            p.Category,
	}
}

func summarizeAll(ps []catalog.Product) []productSummary {
	out := make([]productSummary, 0, len(ps))
	for _, p := range ps {
		out = append(out, summarize(p))
	}
	return out
}

type listResp struct {
	Products []productSummary `json:"products"`
	Total    int              `json:"total"`
	HasMore  bool             `json:"hasMore"`
}

func (h *ProductsHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := catalog.Filters{
		CategoryID: q.Get("category"),
		Collection: q.Get("collection"),
		Search:     q.Get("search"),
		Sort:       catalog.ParseSort(q.Get("sort")),
		Skip:       queryInt(r, "skip", 0),
		Take:       h.PageSize,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	page, err := h.Catalog.ListProducts(ctx, f)
	if err != nil {
		h.Log.Error("list products", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	writeJSON(w, http.StatusOK, listResp{
		Products: summarizeAll(page.Products),
		Total:    page.Total,
		HasMore:  page.HasMore,
	})
}

type productDetail struct {
	catalog.Product
	Display         pricing.Display  `json:"display"`
	PriceLabel      string           `json:"priceLabel"`
	OnSale          bool             `json:"onSale"`
	DiscountPercent int              `json:"discountPercent,omitempty"`
	Related         []productSummary `json:"related"`
}

func (h *ProductsHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.GetProduct(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrProductNotFound) || (err == nil && !p.IsActive) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		h.Log.Error("get product", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	p.Variants = p.ActiveVariants()

	related := []catalog.Product{}
	if p.Category != nil {
		if related, err = h.Catalog.RelatedProducts(ctx, p.Category.ID, p.ID, relatedTake); err != nil {
			// halaman tetap tampil tanpa related
			h.Log.Warn("related products", zap.String("product_id", p.ID), zap.Error(err))
			related = []catalog.Product{}
		}
	}

	d := pricing.Normalize(p)
	onSale, pct := pricing.Discount(d)
	writeJSON(w, http.StatusOK, productDetail{
		Product:         p,
		Display:         d,
		PriceLabel:      pricing.FormatRange(d),
		OnSale:          onSale,
		DiscountPercent: pct,
		Related:         summarizeAll(related),
	})
}

func (h *ProductsHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Catalog.ListCategories(r.Context())
	if err != nil {
		h.Log.Error("list categories", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (h *ProductsHandler) listCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := h.Collections.List(r.Context(), "", true)
	if err != nil {
		h.Log.Error("list collections", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list collections")
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

type homeTab struct {
	Slug     string           `json:"slug"`
	Name     string           `json:"name"`
	Products []productSummary `json:"products"`
}

// home serves the collection tabs of the landing page; empty tabs are hidden.
func (h *ProductsHandler) home(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cols, err := h.Collections.List(ctx, "", true)
	if err != nil {
		h.Log.Error("home collections", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load home")
		return
	}
	if len(cols) > homeCollections {
		cols = cols[:homeCollections]
	}
	tabs, err := h.Catalog.HomeCollections(ctx, cols, homePerCollection)
	if err != nil {
		h.Log.Error("home products", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load home")
		return
	}
	out := make([]homeTab, 0, len(tabs))
	for _, t := range tabs {
		if len(t.Products) == 0 {
			continue
		}
		out = append(out, homeTab{Slug: t.Slug, Name: t.Name, Products: summarizeAll(t.Products)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": out})
}
