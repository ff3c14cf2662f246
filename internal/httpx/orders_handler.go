package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ariefcatur/go-decor-storefront.git/internal/checkout"
	"github.com/ariefcatur/go-decor-storefront.git/internal/orders"
	"github.com/ariefcatur/go-decor-storefront.git/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const IdempotencyHeader = "Idempotency-Key"

type OrderPlacer interface {
	PlaceOrder(ctx context.Context, session, externalID, traceID string, c orders.Customer) (checkout.Result, error)
}

// OrderReader is satisfied by *orders.Repo.
type OrderReader interface {
	GetOrder(ctx context.Context, id string) (orders.Order, error)
	UpdateStatus(ctx context.Context, orderID string, to orders.Status) error
}

// StockReleaser is satisfied by *orders.ReservationRepo.
type StockReleaser interface {
	ReleaseAll(ctx context.Context, orderID string) error
}

type OrdersHandler struct {
	Checkout     OrderPlacer
	Orders       OrderReader
	Reservations StockReleaser
	Redis        *redis.Client
	Log          *zap.Logger
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/api/checkout", h.checkout)
	r.Get("/api/orders/{id}", h.getOrder)
}

func (h *OrdersHandler) RegisterAdmin(r chi.Router) {
	r.Get("/orders/{id}", h.getOrderFull)
	r.Patch("/orders/{id}/status", h.updateStatus)
}

type checkoutResp struct {
	OrderID    string        `json:"orderId"`
	Status     orders.Status `json:"status"`
	Total      string        `json:"total"`
	Order      orders.Order  `json:"order"`
	Idempotent bool          `json:"idempotent"`
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var c orders.Customer
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	sid := r.Header.Get(SessionHeader)
	if sid == "" {
		writeError(w, http.StatusBadRequest, "missing "+SessionHeader)
		return
	}
	key := r.Header.Get(IdempotencyHeader)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Checkout.PlaceOrder(ctx, sid, key, middleware.GetReqID(r.Context()), c)
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, checkout.ErrInvalidCustomer), errors.Is(err, checkout.ErrMissingKey):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.Log.Error("checkout", zap.String("session", sid), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "checkout failed")
		return
	}

	o := res.Order
	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusAccepted, checkoutResp{
		OrderID:    o.ID,
		Status:     o.Status,
		Total:      o.Total.String(),
		Order:      o,
		Idempotent: res.Idempotent,
	})
}

type statusBody struct {
	Status orders.Status `json:"status"`
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, orderID string, s orders.Status) {
	b, _ := json.Marshal(statusBody{Status: s})
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if err := h.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err(); err != nil {
		h.Log.Warn("cache order status", zap.String("order_id", orderID), zap.Error(err))
	}
}

// getOrder answers status polls from the Redis cache, falling back to the DB.
func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	// 2) fallback DB
	o, err := h.Orders.GetOrder(ctx, orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		h.Log.Error("get order", zap.String("order_id", orderID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	h.cacheStatus(ctx, o.ID, o.Status)
	writeJSON(w, http.StatusOK, statusBody{Status: o.Status})
}

func (h *OrdersHandler) getOrderFull(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, orders.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		h.Log.Error("get order", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	to, ok := orders.ParseStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	orderID := chi.URLParam(r, "id")
	err := h.Orders.UpdateStatus(r.Context(), orderID, to)
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "not found")
		return
	case errors.Is(err, orders.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.Log.Error("update order status", zap.String("order_id", orderID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update order")
		return
	}
	if to == orders.StatusCancelled {
		if err := h.Reservations.ReleaseAll(r.Context(), orderID); err != nil {
			h.Log.Error("release stock", zap.String("order_id", orderID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "order cancelled but stock not released")
			return
		}
	}
	h.cacheStatus(r.Context(), orderID, to)
	writeJSON(w, http.StatusOK, statusBody{Status: to})
}
