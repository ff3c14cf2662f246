package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ariefcatur/go-decor-storefront.git/internal/cart"
	"github.com/ariefcatur/go-decor-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-decor-storefront.git/internal/orders"
	"github.com/shopspring/decimal"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticSettings struct{ s catalog.Settings }

func (f staticSettings) Get(context.Context) (catalog.Settings, error) { return f.s, nil }

// memOrders mimics the idempotent insert of orders.Repo.
type memOrders struct {
	byExternal map[string]orders.Order
	seq        int
}

func (m *memOrders) CreateOrderTx(_ context.Context, o *orders.Order) (bool, error) {
	if existing, ok := m.byExternal[o.ExternalID]; ok {
		*o = existing
		return true, nil
	}
	if len(o.Items) == 0 {
		return false, orders.ErrNoItems
	}
	m.seq++
	o.ID = "order-" + string(rune('0'+m.seq))
	o.Status = orders.StatusCreated
	for i := range o.Items {
		o.Items[i].ID = int64(i + 1)
	}
	m.byExternal[o.ExternalID] = *o
	return false, nil
}

type recordingPublisher struct {
	topics []string
	bodies [][]byte
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _, value []byte, _ ...kafkago.Header) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.bodies = append(p.bodies, value)
	return nil
}

func newService(t *testing.T) (*Service, *cart.MemoryStorage, *recordingPublisher) {
	t.Helper()
	st := cart.NewMemoryStorage()
	pub := &recordingPublisher{}
	return &Service{
		Carts:       st,
		Settings:    staticSettings{catalog.DefaultSettings()},
		Orders:      &memOrders{byExternal: map[string]orders.Order{}},
		Producer:    pub,
		ServiceName: "storefront-api",
		Log:         zap.NewNop(),
	}, st, pub
}

func seedCart(t *testing.T, st cart.Storage, session string) {
	t.Helper()
	s := cart.New()
	require.NoError(t, s.Add(cart.LineItem{
		ProductID: "lamp", VariantID: "lamp-l", Name: "Lamp", Price: decimal.NewFromInt(1200),
		SelectedOptions: map[string]string{"Size": "L"}, Stock: 5,
		Weight: decimal.NewNullDecimal(decimal.RequireFromString("1.5")),
	}, 2))
	require.NoError(t, s.Add(cart.LineItem{
		ProductID: "rug", Name: "Rug", Price: decimal.NewFromInt(800), Stock: 3,
	}, 1))
	require.NoError(t, cart.Persist(context.Background(), st, session, s))
}

var customer = orders.Customer{Name: " Rahim ", Phone: "01700000000", Address: "Road 1, Dhaka"}

func TestPlaceOrder(t *testing.T) {
	svc, st, pub := newService(t)
	ctx := context.Background()
	seedCart(t, st, "sess")

	res, err := svc.PlaceOrder(ctx, "sess", "key-1", "req-1", customer)
	require.NoError(t, err)
	assert.False(t, res.Idempotent)

	o := res.Order
	assert.Equal(t, "Rahim", o.Customer.Name)
	assert.Equal(t, orders.ZoneInsideDhaka, o.Customer.Zone)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "lamp-l", o.Items[0].VariantID)
	assert.Equal(t, map[string]string{"Size": "L"}, o.Items[0].Options)
	assert.True(t, o.Subtotal.Equal(decimal.NewFromInt(3200)))
	// 3kg inside Dhaka: 70 x 3 = 210
	assert.True(t, o.Shipping.Equal(decimal.NewFromInt(210)), o.Shipping.String())
	assert.True(t, o.Total.Equal(decimal.NewFromInt(3410)))

	require.Equal(t, []string{orders.TopicOrderPlaced}, pub.topics)
	var env orders.Envelope
	require.NoError(t, json.Unmarshal(pub.bodies[0], &env))
	assert.Equal(t, orders.EventOrderPlaced, env.EventType)
	assert.Equal(t, o.ID, env.CorrelationID)
	assert.Equal(t, "req-1", env.TraceID)

	_, err = st.Load(ctx, "sess")
	assert.ErrorIs(t, err, cart.ErrNotFound, "cart cleared after checkout")
}

func TestPlaceOrder_ReplayReturnsSameOrder(t *testing.T) {
	svc, st, pub := newService(t)
	ctx := context.Background()
	seedCart(t, st, "sess")

	first, err := svc.PlaceOrder(ctx, "sess", "key-1", "", customer)
	require.NoError(t, err)

	seedCart(t, st, "sess")
	again, err := svc.PlaceOrder(ctx, "sess", "key-1", "", customer)
	require.NoError(t, err)
	assert.True(t, again.Idempotent)
	assert.Equal(t, first.Order.ID, again.Order.ID)
	assert.Len(t, pub.topics, 1)

	_, err = st.Load(ctx, "sess")
	assert.NoError(t, err, "replay leaves the cart alone")
}

func TestPlaceOrder_ReplayAfterCartCleared(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()
	seedCart(t, st, "sess")

	first, err := svc.PlaceOrder(ctx, "sess", "key-1", "", customer)
	require.NoError(t, err)

	again, err := svc.PlaceOrder(ctx, "sess", "key-1", "", customer)
	require.NoError(t, err)
	assert.True(t, again.Idempotent)
	assert.Equal(t, first.Order.ID, again.Order.ID)
}

func TestPlaceOrder_Errors(t *testing.T) {
	svc, st, _ := newService(t)
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, "sess", "key-1", "", customer)
	assert.ErrorIs(t, err, ErrEmptyCart)

	seedCart(t, st, "sess")
	_, err = svc.PlaceOrder(ctx, "sess", "", "", customer)
	assert.ErrorIs(t, err, ErrMissingKey)

	_, err = svc.PlaceOrder(ctx, "sess", "key-2", "", orders.Customer{Name: "x"})
	assert.ErrorIs(t, err, ErrInvalidCustomer)
	assert.Contains(t, err.Error(), "phone, address")

	bad := customer
	bad.Zone = "mars"
	_, err = svc.PlaceOrder(ctx, "sess", "key-3", "", bad)
	assert.ErrorIs(t, err, ErrInvalidCustomer)
}

func TestPlaceOrder_PublishFailureStillCommits(t *testing.T) {
	svc, st, pub := newService(t)
	pub.err = errors.New("broker down")
	seedCart(t, st, "sess")

	res, err := svc.PlaceOrder(context.Background(), "sess", "key-1", "", customer)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Order.ID)
}
