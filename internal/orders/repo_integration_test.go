package orders

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-decor-storefront.git/internal/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(dsn))

	pool, err := postgres.Connect(ctx, dsn, "test", 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		INSERT INTO products(id, name, price, stock) VALUES
			('rug', 'Rug', 800, 3),
			('lamp', 'Lamp', NULL, NULL);
		INSERT INTO product_variants(id, product_id, label, price, stock) VALUES
			('lamp-s', 'lamp', 'S', 1000, 2)`)
	require.NoError(t, err)
	return pool
}

func newOrder(externalID string, items ...OrderItem) Order {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	return Order{
		ExternalID: externalID,
		SessionID:  "sess",
		Customer:   Customer{Name: "Rahim", Phone: "017", Address: "Dhaka", Zone: ZoneInsideDhaka},
		Items:      items,
		Subtotal:   subtotal,
		Shipping:   decimal.NewFromInt(70),
		Total:      subtotal.Add(decimal.NewFromInt(70)),
	}
}

func stockOf(t *testing.T, db *pgxpool.Pool, query, id string) int {
	var n int
	require.NoError(t, db.QueryRow(context.Background(), query, id).Scan(&n))
	return n
}

func TestRepo_CreateOrderIdempotentAndReserve(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := &Repo{DB: db}
	res := &ReservationRepo{DB: db}

	o := newOrder("ext-1",
		OrderItem{ProductID: "rug", Name: "Rug", Qty: 2, UnitPrice: decimal.NewFromInt(800)},
		OrderItem{ProductID: "lamp", VariantID: "lamp-s", Name: "Lamp", Options: map[string]string{"Size": "S"}, Qty: 1, UnitPrice: decimal.NewFromInt(1000)},
	)
	existed, err := repo.CreateOrderTx(ctx, &o)
	require.NoError(t, err)
	assert.False(t, existed)
	assert.NotEmpty(t, o.ID)
	assert.NotZero(t, o.Items[0].ID)

	replay := newOrder("ext-1")
	existed, err = repo.CreateOrderTx(ctx, &replay)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, o.ID, replay.ID)
	require.Len(t, replay.Items, 2)
	assert.Equal(t, map[string]string{"Size": "S"}, replay.Items[1].Options)
	assert.True(t, replay.Total.Equal(decimal.NewFromInt(2670)))

	_, err = repo.CreateOrderTx(ctx, &Order{ExternalID: "ext-empty"})
	assert.ErrorIs(t, err, ErrNoItems)

	items := PlacedPayload(o).Items
	qty := make([]ItemQty, 0, len(items))
	for _, it := range items {
		qty = append(qty, ItemQty{OrderItemID: it.OrderItemID, ProductID: it.ProductID, VariantID: it.VariantID, Qty: it.Qty})
	}
	ok, details, err := res.ReserveAll(ctx, o.ID, qty)
	require.NoError(t, err)
	require.True(t, ok, "%+v", details)
	assert.Equal(t, 1, stockOf(t, db, `SELECT stock FROM products WHERE id=$1`, "rug"))
	assert.Equal(t, 1, stockOf(t, db, `SELECT stock FROM product_variants WHERE id=$1`, "lamp-s"))

	done, err := res.AlreadyReserved(ctx, o.ID, len(qty))
	require.NoError(t, err)
	assert.True(t, done)

	require.NoError(t, repo.UpdateStatus(ctx, o.ID, StatusStockReserved))
	require.NoError(t, repo.UpdateStatus(ctx, o.ID, StatusStockReserved), "same status is a no-op")
	assert.ErrorIs(t, repo.UpdateStatus(ctx, o.ID, StatusCompleted), ErrInvalidTransition)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, "missing", StatusFailed), ErrOrderNotFound)

	require.NoError(t, res.ReleaseAll(ctx, o.ID))
	assert.Equal(t, 3, stockOf(t, db, `SELECT stock FROM products WHERE id=$1`, "rug"))
	assert.Equal(t, 2, stockOf(t, db, `SELECT stock FROM product_variants WHERE id=$1`, "lamp-s"))

	st, err := repo.GetOrderStatus(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusStockReserved, st)
}

func TestReservationRepo_RejectsWholeOrder(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := &Repo{DB: db}
	res := &ReservationRepo{DB: db}

	o := newOrder("ext-2",
		OrderItem{ProductID: "rug", Name: "Rug", Qty: 1, UnitPrice: decimal.NewFromInt(800)},
		OrderItem{ProductID: "lamp", VariantID: "lamp-s", Name: "Lamp", Qty: 5, UnitPrice: decimal.NewFromInt(1000)},
		OrderItem{ProductID: "lamp", Name: "Lamp", Qty: 1, UnitPrice: decimal.NewFromInt(1000)},
	)
	_, err := repo.CreateOrderTx(ctx, &o)
	require.NoError(t, err)

	var qty []ItemQty
	for _, it := range o.Items {
		qty = append(qty, ItemQty{OrderItemID: it.ID, ProductID: it.ProductID, VariantID: it.VariantID, Qty: it.Qty})
	}
	ok, details, err := res.ReserveAll(ctx, o.ID, qty)
	require.NoError(t, err)
	assert.False(t, ok)
	require.Len(t, details, 2)
	assert.Equal(t, StockRejectedDetail{ProductID: "lamp", VariantID: "lamp-s", Required: 5, Available: 2}, details[0])
	assert.Equal(t, 0, details[1].Available, "null product stock counts as none")

	assert.Equal(t, 3, stockOf(t, db, `SELECT stock FROM products WHERE id=$1`, "rug"), "nothing committed")
}
