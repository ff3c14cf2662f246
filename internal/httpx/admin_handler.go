package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-decor-storefront.git/internal/catalog"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductAdmin is the write side of *catalog.Repo.
type ProductAdmin interface {
	ListProducts(ctx context.Context, f catalog.Filters) (catalog.Page, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
	CreateProduct(ctx context.Context, in catalog.ProductInput) (string, error)
	UpdateProduct(ctx context.Context, id string, in catalog.ProductInput) error
	DeleteProduct(ctx context.Context, id string) error
}

// CollectionAdmin is satisfied by *catalog.CollectionRepo.
type CollectionAdmin interface {
	List(ctx context.Context, query string, activeOnly bool) ([]catalog.Collection, error)
	Get(ctx context.Context, id string) (catalog.Collection, error)
	Create(ctx context.Context, in catalog.CollectionInput) (catalog.Collection, error)
	Update(ctx context.Context, id string, p catalog.CollectionPatch) (catalog.Collection, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

// SettingsStore is satisfied by *catalog.SettingsRepo.
type SettingsStore interface {
	Get(ctx context.Context) (catalog.Settings, error)
	Update(ctx context.Context, s catalog.Settings) error
}

type AdminHandler struct {
	Products    ProductAdmin
	Collections CollectionAdmin
	Settings    SettingsStore
	Log         *zap.Logger
}

// Register mounts the admin routes on r, which is expected to be the
// /api/admin subrouter.
func (h *AdminHandler) Register(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/{id}", h.getProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})
	r.Route("/collections", func(r chi.Router) {
		r.Get("/", h.listCollections)
		r.Post("/", h.createCollection)
		r.Get("/{id}", h.getCollection)
		r.Put("/{id}", h.updateCollection)
		r.Patch("/{id}/active", h.toggleCollection)
		r.Delete("/{id}", h.deleteCollection)
	})
	r.Get("/settings", h.getSettings)
	r.Put("/settings", h.updateSettings)
}

// writeCatalogError maps catalog sentinels to status codes.
func (h *AdminHandler) writeCatalogError(w http.ResponseWriter, op string, err error) {
	switch {
	case catalog.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, catalog.ErrSlugExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, catalog.ErrInvalidProduct),
		errors.Is(err, catalog.ErrInvalidCollection),
		errors.Is(err, catalog.ErrInvalidSettings):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.Log.Error(op, zap.Error(err))
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

func (h *AdminHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.Products.ListProducts(r.Context(), catalog.Filters{
		CategoryID:      q.Get("category"),
		Search:          q.Get("search"),
		Sort:            catalog.ParseSort(q.Get("sort")),
		Skip:            queryInt(r, "skip", 0),
		Take:            queryInt(r, "take", 50),
		IncludeInactive: true,
	})
	if err != nil {
		h.writeCatalogError(w, "list products", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products": page.Products,
		"total":    page.Total,
		"hasMore":  page.HasMore,
	})
}

func (h *AdminHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.Products.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeCatalogError(w, "get product", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *AdminHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := h.Products.CreateProduct(r.Context(), in)
	if err != nil {
		h.writeCatalogError(w, "create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *AdminHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var in catalog.ProductInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.Products.UpdateProduct(r.Context(), id, in); err != nil {
		h.writeCatalogError(w, "update product", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *AdminHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Products.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeCatalogError(w, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) listCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := h.Collections.List(r.Context(), r.URL.Query().Get("q"), false)
	if err != nil {
		h.writeCatalogError(w, "list collections", err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}

func (h *AdminHandler) getCollection(w http.ResponseWriter, r *http.Request) {
	c, err := h.Collections.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeCatalogError(w, "get collection", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *AdminHandler) createCollection(w http.ResponseWriter, r *http.Request) {
	var in catalog.CollectionInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c, err := h.Collections.Create(r.Context(), in)
	if err != nil {
		h.writeCatalogError(w, "create collection", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *AdminHandler) updateCollection(w http.ResponseWriter, r *http.Request) {
	var p catalog.CollectionPatch
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c, err := h.Collections.Update(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		h.writeCatalogError(w, "update collection", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *AdminHandler) toggleCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsActive *bool `json:"isActive"`
	}
	if err := decodeJSON(r, &req); err != nil || req.IsActive == nil {
		writeError(w, http.StatusBadRequest, "isActive is required")
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.Collections.SetActive(r.Context(), id, *req.IsActive); err != nil {
		h.writeCatalogError(w, "toggle collection", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "isActive": *req.IsActive})
}

func (h *AdminHandler) deleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := h.Collections.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeCatalogError(w, "delete collection", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) getSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Settings.Get(r.Context())
	if err != nil {
		h.writeCatalogError(w, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *AdminHandler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var s catalog.Settings
	if err := decodeJSON(r, &s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.Settings.Update(r.Context(), s); err != nil {
		h.writeCatalogError(w, "update settings", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
