package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-decor-storefront.git/internal/cart"
	"github.com/ariefcatur/go-decor-storefront.git/internal/catalog"
	kafkax "github.com/ariefcatur/go-decor-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-decor-storefront.git/internal/orders"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidCustomer = errors.New("invalid customer details")
	ErrMissingKey      = errors.New("missing idempotency key")
)

type SettingsSource interface {
	Get(ctx context.Context) (catalog.Settings, error)
}

// OrderStore is satisfied by *orders.Repo.
type OrderStore interface {
	CreateOrderTx(ctx context.Context, o *orders.Order) (existed bool, err error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers ...kafkago.Header) error
}

type Service struct {
	Carts       cart.Storage
	Settings    SettingsSource
	Orders      OrderStore
	Producer    Publisher
	ServiceName string
	Log         *zap.Logger
}

type Result struct {
	Order      orders.Order
	Idempotent bool
}

// PlaceOrder turns the session cart into an order. Replaying a known
// externalID returns the stored order and leaves the cart untouched.
func (s *Service) PlaceOrder(ctx context.Context, session, externalID, traceID string, c orders.Customer) (Result, error) {
	if strings.TrimSpace(externalID) == "" {
		return Result{}, ErrMissingKey
	}
	c, err := normalizeCustomer(c)
	if err != nil {
		return Result{}, err
	}

	store, err := cart.Open(ctx, s.Carts, session, s.Log)
	if err != nil {
		return Result{}, err
	}

	o := orders.Order{ExternalID: externalID, SessionID: session, Customer: c}
	if !store.Empty() {
		settings, err := s.Settings.Get(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("load settings: %w", err)
		}
		o.Items = orderItems(store.Items())
		o.Subtotal = store.TotalPrice()
		o.Shipping = ShippingFee(settings, c.Zone, store.TotalWeight())
		o.Total = o.Subtotal.Add(o.Shipping)
	}

	existed, err := s.Orders.CreateOrderTx(ctx, &o)
	if errors.Is(err, orders.ErrNoItems) {
		return Result{}, ErrEmptyCart
	}
	if err != nil {
		return Result{}, fmt.Errorf("create order: %w", err)
	}
	if existed {
		s.Log.Info("checkout replay", zap.String("external_id", externalID), zap.String("order_id", o.ID))
		return Result{Order: o, Idempotent: true}, nil
	}

	if err := s.publishPlaced(ctx, o, traceID); err != nil {
		// order sudah tersimpan; status tetap CREATED sampai event dikirim ulang
		s.Log.Error("publish order placed", zap.String("order_id", o.ID), zap.Error(err))
	}

	store.Clear()
	if err := cart.Persist(ctx, s.Carts, session, store); err != nil {
		s.Log.Warn("clear cart after checkout", zap.String("session", session), zap.Error(err))
	}
	s.Log.Info("order placed", zap.String("order_id", o.ID), zap.String("total", o.Total.String()))
	return Result{Order: o}, nil
}

func (s *Service) publishPlaced(ctx context.Context, o orders.Order, traceID string) error {
	env, err := orders.NewEnvelope(orders.EventOrderPlaced, s.ServiceName, o.ID, traceID, orders.PlacedPayload(o))
	if err != nil {
		return err
	}
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return s.Producer.Publish(ctx, orders.TopicOrderPlaced, orders.PartitionKey(o.ID), b,
		kafkax.EventHeaders(orders.EventOrderPlaced, env.EventVersion)...)
}

func normalizeCustomer(c orders.Customer) (orders.Customer, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	c.Note = strings.TrimSpace(c.Note)
	if c.Zone == "" {
		c.Zone = orders.ZoneInsideDhaka
	}
	var missing []string
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if c.Phone == "" {
		missing = append(missing, "phone")
	}
	if c.Address == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return c, fmt.Errorf("%w: missing %s", ErrInvalidCustomer, strings.Join(missing, ", "))
	}
	if !c.Zone.Valid() {
		return c, fmt.Errorf("%w: unknown zone %q", ErrInvalidCustomer, c.Zone)
	}
	return c, nil
}

func orderItems(lines []cart.LineItem) []orders.OrderItem {
	out := make([]orders.OrderItem, 0, len(lines))
	for _, l := range lines {
		out = append(out, orders.OrderItem{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Name:      l.Name,
			Options:   l.SelectedOptions,
			Qty:       l.Quantity,
			UnitPrice: l.Price,
		})
	}
	return out
}
