package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNoItems           = errors.New("order has no items")
)

// CreateOrderTx: idempotent via external_id.
// - jika external_id sudah ada -> o diisi order yang sudah ada (existed=true).
// - replay dicek sebelum validasi item, jadi cart yang sudah kosong tetap dapat order lama.
// - harga diambil dari snapshot cart, tidak dihitung ulang di sini.
func (r *Repo) CreateOrderTx(ctx context.Context, o *Order) (existed bool, err error) {
	existing, err := r.GetOrderByExternalID(ctx, o.ExternalID)
	if err == nil {
		*o = existing
		return true, nil
	} else if !errors.Is(err, ErrOrderNotFound) {
		return false, err
	}
	if len(o.Items) == 0 {
		return false, ErrNoItems
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o.ID = uuid.NewString()
	o.Status = StatusCreated
	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, external_id, session_id, customer_name, phone, address, zone, note,
		                   status, subtotal, shipping, total)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		o.ID, o.ExternalID, o.SessionID, o.Customer.Name, o.Customer.Phone, o.Customer.Address,
		string(o.Customer.Zone), o.Customer.Note, string(o.Status), o.Subtotal, o.Shipping, o.Total,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// race: request lain dengan external_id sama menang duluan
			_ = tx.Rollback(ctx)
			existing, gerr := r.GetOrderByExternalID(ctx, o.ExternalID)
			if gerr != nil {
				return false, gerr
			}
			*o = existing
			return true, nil
		}
		return false, fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		if it.Qty <= 0 {
			return false, fmt.Errorf("invalid qty for product %s", it.ProductID)
		}
		opts := it.Options
		if opts == nil {
			opts = map[string]string{}
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items(order_id, product_id, variant_id, name, options, qty, unit_price)
			VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7)
			RETURNING id`,
			o.ID, it.ProductID, it.VariantID, it.Name, opts, it.Qty, it.UnitPrice,
		).Scan(&it.ID)
		if err != nil {
			return false, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return false, nil
}

const orderColumns = `id, external_id, session_id, customer_name, phone, address, zone, COALESCE(note,''),
	status, subtotal, shipping, total, created_at, updated_at`

func (r *Repo) GetOrder(ctx context.Context, id string) (Order, error) {
	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
}

func (r *Repo) GetOrderByExternalID(ctx context.Context, externalID string) (Order, error) {
	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE external_id=$1`, externalID)
}

func (r *Repo) getOrder(ctx context.Context, query, arg string) (Order, error) {
	var (
		o          Order
		zone, stat string
	)
	err := r.DB.QueryRow(ctx, query, arg).Scan(
		&o.ID, &o.ExternalID, &o.SessionID, &o.Customer.Name, &o.Customer.Phone, &o.Customer.Address,
		&zone, &o.Customer.Note, &stat, &o.Subtotal, &o.Shipping, &o.Total, &o.CreatedAt, &o.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, err
	}
	o.Customer.Zone = Zone(zone)
	o.Status = Status(stat)

	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, COALESCE(variant_id,''), name, options, qty, unit_price
		FROM order_items WHERE order_id=$1 ORDER BY id`, o.ID)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.VariantID, &it.Name, &it.Options, &it.Qty, &it.UnitPrice); err != nil {
			return Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

func (r *Repo) GetOrderStatus(ctx context.Context, orderID string) (Status, error) {
	var s string
	err := r.DB.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1`, orderID).Scan(&s)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	return Status(s), nil
}

// UpdateStatus memindahkan status order kalau transisinya valid.
// Status yang sama dianggap no-op supaya redelivery event aman.
func (r *Repo) UpdateStatus(ctx context.Context, orderID string, to Status) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	from := Status(cur)
	if from == to {
		return nil
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, string(to)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
