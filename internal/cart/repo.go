package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("cart: item not found")
	ErrProductNotFound   = errors.New("cart: product not found")
	ErrInvalidQuantity   = errors.New("cart: quantity must be at least 1")
	ErrInsufficientStock = errors.New("cart: insufficient stock")
)

type Repo struct{ DB *pgxpool.Pool }

// Add puts a product in the user's cart, merging quantities when the product
// is already there. The stock check here is advisory; the order commit does
// the authoritative one.
func (r *Repo) Add(ctx context.Context, userID, productID string, qty int) (*Item, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}

	var stock int
	err := r.DB.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	var existing Item
	err = r.DB.QueryRow(ctx, `
		SELECT id, quantity FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID,
	).Scan(&existing.ID, &existing.Quantity)
	switch {
	case err == nil:
		newQty := existing.Quantity + qty
		if stock < newQty {
			return nil, ErrInsufficientStock
		}
		return r.setQuantity(ctx, userID, existing.ID, newQty)
	case errors.Is(err, pgx.ErrNoRows):
		if stock < qty {
			return nil, ErrInsufficientStock
		}
		it := &Item{ID: uuid.NewString(), UserID: userID, ProductID: productID, Quantity: qty}
		err := r.DB.QueryRow(ctx, `
			INSERT INTO cart_items(id, user_id, product_id, quantity)
			VALUES ($1, $2, $3, $4)
			RETURNING created_at, updated_at`,
			it.ID, it.UserID, it.ProductID, it.Quantity,
		).Scan(&it.CreatedAt, &it.UpdatedAt)
		if err != nil {
			return nil, err
		}
		return it, nil
	default:
		return nil, err
	}
}

func (r *Repo) setQuantity(ctx context.Context, userID, itemID string, qty int) (*Item, error) {
	var it Item
	err := r.DB.QueryRow(ctx, `
		UPDATE cart_items SET quantity = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, product_id, quantity, created_at, updated_at`,
		itemID, userID, qty,
	).Scan(&it.ID, &it.UserID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *Repo) UpdateQuantity(ctx context.Context, userID, itemID string, qty int) (*Item, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}
	return r.setQuantity(ctx, userID, itemID, qty)
}

func (r *Repo) Remove(ctx context.Context, userID, itemID string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) Clear(ctx context.Context, userID string) error {
	_, err := r.DB.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	return err
}

// Lines reads the user's cart joined with current product price and stock.
func (r *Repo) Lines(ctx context.Context, userID string) ([]Line, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT ci.product_id, p.name, ci.quantity, p.price_cents, p.stock
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Quantity, &l.PriceCents, &l.Stock); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
