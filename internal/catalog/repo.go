package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swiftcart/backend/internal/postgres"
)

var (
	ErrNotFound  = errors.New("catalog: product not found")
	ErrSlugTaken = errors.New("catalog: category slug already exists")
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) CreateProduct(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO products(id, name, description, brand, images, price_cents, stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Description, p.Brand, p.Images, p.PriceCents, p.Stock,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return err
	}
	for _, catID := range p.Categories {
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_categories(product_id, category_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, p.ID, catID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) ProductByID(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, description, brand, images, price_cents, stock, rating, num_reviews, created_at, updated_at
		FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Brand, &p.Images, &p.PriceCents, &p.Stock, &p.Rating, &p.NumReviews, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Categories, err = r.categoryIDs(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) categoryIDs(ctx context.Context, productID string) ([]string, error) {
	rows, err := r.DB.Query(ctx, `SELECT category_id FROM product_categories WHERE product_id = $1`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListProducts returns products, optionally filtered by category slug.
func (r *Repo) ListProducts(ctx context.Context, categorySlug string) ([]Product, error) {
	q := `SELECT p.id, p.name, p.description, p.brand, p.images, p.price_cents, p.stock, p.rating, p.num_reviews, p.created_at, p.updated_at
	      FROM products p`
	var args []any
	if s := strings.TrimSpace(categorySlug); s != "" {
		q += ` JOIN product_categories pc ON pc.product_id = p.id
		       JOIN categories c ON c.id = pc.category_id AND c.slug = $1`
		args = append(args, s)
	}
	q += ` ORDER BY p.created_at DESC`

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Brand, &p.Images, &p.PriceCents, &p.Stock, &p.Rating, &p.NumReviews, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateProduct(ctx context.Context, p *Product) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE products
		SET name = $2, description = $3, brand = $4, images = $5, price_cents = $6, updated_at = now()
		WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Brand, p.Images, p.PriceCents)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM product_categories WHERE product_id = $1`, p.ID); err != nil {
		return err
	}
	for _, catID := range p.Categories {
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_categories(product_id, category_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, p.ID, catID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// DeleteProduct removes a product together with its reviews. The review
// delete is an explicit statement in the same transaction, not a schema
// cascade, so the ordering is visible here.
func (r *Repo) DeleteProduct(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE product_id = $1`, id); err != nil {
		return err
	}
	ct, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

// AdjustStock is the admin stock correction: an unconditional relative
// update that still refuses to take the counter negative.
func (r *Repo) AdjustStock(ctx context.Context, productID string, delta int) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1 AND stock + $2 >= 0`, productID, delta)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LowStock lists products at or below the buffer limit.
func (r *Repo) LowStock(ctx context.Context, buffer int) ([]StockLevel, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, stock FROM products WHERE stock <= $1 ORDER BY stock`, buffer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StockLevel
	for rows.Next() {
		var s StockLevel
		if err := rows.Scan(&s.ProductID, &s.Name, &s.Stock); err != nil {
			return nil, err
		}
		s.Buffer = buffer
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) CreateCategory(ctx context.Context, c *Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
	err := r.DB.QueryRow(ctx, `
		INSERT INTO categories(id, name, slug) VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Slug,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if postgres.IsUniqueViolation(err, "categories_slug_key") {
		return ErrSlugTaken
	}
	return err
}

func (r *Repo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, slug, created_at, updated_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateCategory(ctx context.Context, c *Category) error {
	c.Slug = strings.ToLower(strings.TrimSpace(c.Slug))
	ct, err := r.DB.Exec(ctx, `
		UPDATE categories SET name = $2, slug = $3, updated_at = now()
		WHERE id = $1`, c.ID, c.Name, c.Slug)
	if postgres.IsUniqueViolation(err, "categories_slug_key") {
		return ErrSlugTaken
	}
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteCategory(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
