package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swiftcart/backend/internal/postgres"
)

// Repo is the pgx-backed Store. The multi-statement work in Place and
// Transition runs inside a single transaction.
type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Place(ctx context.Context, o *Order) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO orders(id, order_id, user_id, payment_id, payment_status, delivery_address, total_cents, order_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		o.ID, o.OrderID, o.UserID, o.PaymentID, o.PaymentStatus, o.DeliveryAddr, o.TotalCents, o.Status,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "orders_payment_id_key") {
			return ErrDuplicatePayment
		}
		return err
	}

	for _, l := range o.Lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(order_id, product_id, quantity, price_cents)
			VALUES ($1, $2, $3, $4)`,
			o.ID, l.ProductID, l.Quantity, l.PriceCents); err != nil {
			return err
		}

		// Conditional decrement: the sufficiency check and the write are one
		// statement, so two commits racing on the same product cannot
		// jointly overdraw it.
		ct, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = now()
			WHERE id = $1 AND stock >= $2`,
			l.ProductID, l.Quantity)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrInsufficientStock
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE users SET order_history = array_append(order_history, $2), updated_at = now()
		WHERE id = $1`, o.UserID, o.ID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, o.UserID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repo) Transition(ctx context.Context, storageID string, from, to Status, restock []Line) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Guard on the current status so a concurrent transition loses cleanly.
	ct, err := tx.Exec(ctx, `
		UPDATE orders SET order_status = $3, updated_at = now()
		WHERE id = $1 AND order_status = $2`,
		storageID, from, to)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrInvalidOrFinalStatus
	}

	for _, l := range restock {
		if _, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock + $2, updated_at = now()
			WHERE id = $1`, l.ProductID, l.Quantity); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *Repo) ByPaymentID(ctx context.Context, paymentID string) (*Order, error) {
	return r.one(ctx, `WHERE payment_id = $1`, paymentID)
}

func (r *Repo) ByOrderID(ctx context.Context, orderID string) (*Order, error) {
	return r.one(ctx, `WHERE order_id = $1`, orderID)
}

const orderCols = `SELECT id, order_id, user_id, payment_id, payment_status, delivery_address, total_cents, order_status, created_at, updated_at FROM orders `

func (r *Repo) one(ctx context.Context, where string, arg any) (*Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, orderCols+where, arg).Scan(
		&o.ID, &o.OrderID, &o.UserID, &o.PaymentID, &o.PaymentStatus,
		&o.DeliveryAddr, &o.TotalCents, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, []*Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repo) ByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.list(ctx, orderCols+`WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *Repo) All(ctx context.Context) ([]Order, error) {
	return r.list(ctx, orderCols+`ORDER BY created_at DESC`)
}

func (r *Repo) list(ctx context.Context, q string, args ...any) ([]Order, error) {
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.OrderID, &o.UserID, &o.PaymentID, &o.PaymentStatus,
			&o.DeliveryAddr, &o.TotalCents, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*Order, len(out))
	for i := range out {
		refs[i] = &out[i]
	}
	if err := r.loadLines(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) loadLines(ctx context.Context, os []*Order) error {
	if len(os) == 0 {
		return nil
	}
	ids := make([]string, len(os))
	byID := make(map[string]*Order, len(os))
	for i, o := range os {
		ids[i] = o.ID
		byID[o.ID] = o
	}
	rows, err := r.DB.Query(ctx, `
		SELECT order_id, product_id, quantity, price_cents
		FROM order_items WHERE order_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var oid string
		var l Line
		if err := rows.Scan(&oid, &l.ProductID, &l.Quantity, &l.PriceCents); err != nil {
			return err
		}
		if o := byID[oid]; o != nil {
			o.Lines = append(o.Lines, l)
		}
	}
	return rows.Err()
}
