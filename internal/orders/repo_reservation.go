package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReservationRepo struct{ DB *pgxpool.Pool }

// Cek apakah seluruh item utk order sudah RESERVED (idempotency short-circuit).
func (r *ReservationRepo) AlreadyReserved(ctx context.Context, orderID string, itemCount int) (bool, error) {
	var n int
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE order_id = $1 AND status = 'RESERVED'`, orderID).Scan(&n)
	if err != nil {
		return false, err
	}
	return itemCount > 0 && n == itemCount, nil
}

// stockQuery: variant punya stok sendiri, selain itu pakai stok product (NULL = 0).
func stockQuery(it ItemQty) (lock, update string, args []any) {
	if it.VariantID != "" {
		return `SELECT stock FROM product_variants WHERE id=$1 AND product_id=$2 FOR UPDATE`,
			`UPDATE product_variants SET stock = stock - $3 WHERE id=$1 AND product_id=$2 AND stock >= $3`,
			[]any{it.VariantID, it.ProductID}
	}
	return `SELECT COALESCE(stock, 0) FROM products WHERE id=$1 FOR UPDATE`,
		`UPDATE products SET stock = stock - $2 WHERE id=$1 AND stock >= $2`,
		[]any{it.ProductID}
}

// ReserveAll: lock stok per line (FOR UPDATE) -> kurangi -> catat reservation (idempotent).
// Jika ada kekurangan pada salah satu item, tidak ada perubahan yg di-commit (rollback).
func (r *ReservationRepo) ReserveAll(ctx context.Context, orderID string, items []ItemQty) (ok bool, details []StockRejectedDetail, err error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var rejects []StockRejectedDetail

	for _, it := range items {
		lock, update, args := stockQuery(it)
		reject := StockRejectedDetail{ProductID: it.ProductID, VariantID: it.VariantID, Required: it.Qty}

		var stock int
		err := tx.QueryRow(ctx, lock, args...).Scan(&stock)
		if errors.Is(err, pgx.ErrNoRows) {
			// product/variant sudah dihapus sejak checkout
			rejects = append(rejects, reject)
			continue
		}
		if err != nil {
			return false, nil, err
		}
		reject.Available = stock
		if stock < it.Qty {
			rejects = append(rejects, reject)
			continue
		}

		ct, err := tx.Exec(ctx, update, append(args, it.Qty)...)
		if err != nil {
			return false, nil, err
		}
		if ct.RowsAffected() != 1 {
			rejects = append(rejects, reject)
			continue
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO reservations(order_id, order_item_id, product_id, variant_id, qty, status)
			VALUES ($1,$2,$3,NULLIF($4,''),$5,'RESERVED')
			ON CONFLICT (order_item_id) DO NOTHING
		`, orderID, it.OrderItemID, it.ProductID, it.VariantID, it.Qty); err != nil {
			return false, nil, err
		}
	}

	if len(rejects) > 0 {
		return false, rejects, nil // rollback via defer
	}
	if err := tx.Commit(ctx); err != nil {
		return false, nil, err
	}
	return true, nil, nil
}

// ReleaseAll mengembalikan stok semua reservation RESERVED milik order.
func (r *ReservationRepo) ReleaseAll(ctx context.Context, orderID string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT product_id, COALESCE(variant_id,''), qty
		FROM reservations WHERE order_id=$1 AND status='RESERVED'`, orderID)
	if err != nil {
		return err
	}
	var recs []ItemQty
	for rows.Next() {
		var x ItemQty
		if err := rows.Scan(&x.ProductID, &x.VariantID, &x.Qty); err != nil {
			rows.Close()
			return err
		}
		recs = append(recs, x)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, x := range recs {
		var err error
		if x.VariantID != "" {
			_, err = tx.Exec(ctx, `UPDATE product_variants SET stock = stock + $2 WHERE id=$1`, x.VariantID, x.Qty)
		} else {
			_, err = tx.Exec(ctx, `UPDATE products SET stock = stock + $2 WHERE id=$1`, x.ProductID, x.Qty)
		}
		if err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE reservations SET status='RELEASED' WHERE order_id=$1 AND status='RESERVED'`, orderID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
