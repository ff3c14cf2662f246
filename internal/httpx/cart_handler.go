package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-decor-storefront.git/internal/cart"
	"github.com/ariefcatur/go-decor-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-decor-storefront.git/internal/pricing"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const SessionHeader = "X-Cart-Session"

type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
}

type CartHandler struct {
	Carts    cart.Storage
	Products ProductLookup
	Log      *zap.Logger
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/api/cart", h.get)
	r.Delete("/api/cart", h.clear)
	r.Post("/api/cart/items", h.add)
	r.Put("/api/cart/items", h.setQuantity)
	r.Delete("/api/cart/items", h.remove)
}

type cartView struct {
	Items          []cart.LineItem `json:"items"`
	TotalItems     int             `json:"totalItems"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	TotalPriceText string          `json:"totalPriceLabel"`
	TotalWeight    decimal.Decimal `json:"totalWeight"`
}

func viewOf(s *cart.Store) cartView {
	total := s.TotalPrice()
	return cartView{
		Items:          s.Items(),
		TotalItems:     s.TotalItems(),
		TotalPrice:     total,
		TotalPriceText: pricing.FormatAmount(total),
		TotalWeight:    s.TotalWeight(),
	}
}

// session returns the caller's cart session, minting one when absent. The id
// is echoed back so clients can keep it.
func session(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set(SessionHeader, id)
	return id
}

func (h *CartHandler) open(w http.ResponseWriter, r *http.Request) (string, *cart.Store, bool) {
	sid := session(w, r)
	s, err := cart.Open(r.Context(), h.Carts, sid, h.Log)
	if err != nil {
		h.Log.Error("open cart", zap.String("session", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "cart unavailable")
		return "", nil, false
	}
	return sid, s, true
}

func (h *CartHandler) save(w http.ResponseWriter, r *http.Request, sid string, s *cart.Store) {
	if err := cart.Persist(r.Context(), h.Carts, sid, s); err != nil {
		h.Log.Error("persist cart", zap.String("session", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "cart unavailable")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(s))
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	_, s, ok := h.open(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(s))
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	sid, s, ok := h.open(w, r)
	if !ok {
		return
	}
	s.Clear()
	h.save(w, r, sid, s)
}

type addReq struct {
	ProductID       string            `json:"productId"`
	VariantID       string            `json:"variantId"`
	Quantity        int               `json:"quantity"`
	SelectedOptions map[string]string `json:"selectedOptions"`
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var req addReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	p, err := h.Products.GetProduct(r.Context(), req.ProductID)
	if err != nil && !errors.Is(err, catalog.ErrProductNotFound) {
		h.Log.Error("cart product lookup", zap.String("product_id", req.ProductID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	if err == nil {
		var line cart.LineItem
		line, err = cart.FromProduct(p, req.VariantID, req.SelectedOptions)
		if err == nil {
			sid, s, ok := h.open(w, r)
			if !ok {
				return
			}
			if err = s.Add(line, req.Quantity); err == nil {
				h.save(w, r, sid, s)
				return
			}
		}
	}
	writeCartError(w, err)
}

type lineReq struct {
	ProductID       string            `json:"productId"`
	SelectedOptions map[string]string `json:"selectedOptions"`
	Quantity        int               `json:"quantity"`
}

func (h *CartHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req lineReq
	if err := decodeJSON(r, &req); err != nil || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	sid, s, ok := h.open(w, r)
	if !ok {
		return
	}
	if err := s.SetQuantity(cart.NewIdentity(req.ProductID, req.SelectedOptions), req.Quantity); err != nil {
		writeCartError(w, err)
		return
	}
	h.save(w, r, sid, s)
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	var req lineReq
	if err := decodeJSON(r, &req); err != nil || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	sid, s, ok := h.open(w, r)
	if !ok {
		return
	}
	if !s.Remove(cart.NewIdentity(req.ProductID, req.SelectedOptions)) {
		writeError(w, http.StatusNotFound, cart.ErrItemNotFound.Error())
		return
	}
	h.save(w, r, sid, s)
}

func writeCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, cart.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrStockExceeded), errors.Is(err, cart.ErrOutOfStock):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrVariantRequired),
		errors.Is(err, cart.ErrUnknownVariant),
		errors.Is(err, cart.ErrMissingOptions),
		errors.Is(err, cart.ErrInvalidOption),
		errors.Is(err, cart.ErrPriceUnknown):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "cart error")
	}
}
