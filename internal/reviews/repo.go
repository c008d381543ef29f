package reviews

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swiftcart/backend/internal/postgres"
)

var (
	ErrNotFound        = errors.New("reviews: review not found")
	ErrInvalidRating   = errors.New("reviews: rating must be between 1 and 5")
	ErrAlreadyReviewed = errors.New("reviews: product already reviewed by this user")
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, rev *Review) error {
	if rev.Rating < 1 || rev.Rating > 5 {
		return ErrInvalidRating
	}
	if rev.ID == "" {
		rev.ID = uuid.NewString()
	}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO reviews(id, product_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		rev.ID, rev.ProductID, rev.UserID, rev.Rating, rev.Comment,
	).Scan(&rev.CreatedAt, &rev.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "reviews_user_id_product_id_key") {
			return ErrAlreadyReviewed
		}
		return err
	}
	return r.RecomputeRating(ctx, rev.ProductID)
}

func (r *Repo) ByProduct(ctx context.Context, productID string) ([]Review, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, product_id, user_id, rating, comment, created_at, updated_at
		FROM reviews WHERE product_id = $1 ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		var rev Review
		if err := rows.Scan(&rev.ID, &rev.ProductID, &rev.UserID, &rev.Rating, &rev.Comment, &rev.CreatedAt, &rev.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

// Update edits the caller's own review and refreshes the product aggregate.
func (r *Repo) Update(ctx context.Context, rev *Review) error {
	if rev.Rating < 1 || rev.Rating > 5 {
		return ErrInvalidRating
	}
	err := r.DB.QueryRow(ctx, `
		UPDATE reviews SET rating = $3, comment = $4, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING product_id, created_at, updated_at`,
		rev.ID, rev.UserID, rev.Rating, rev.Comment,
	).Scan(&rev.ProductID, &rev.CreatedAt, &rev.UpdatedAt)
	if err != nil {
		return ErrNotFound
	}
	return r.RecomputeRating(ctx, rev.ProductID)
}

func (r *Repo) Delete(ctx context.Context, reviewID, userID string) error {
	var productID string
	err := r.DB.QueryRow(ctx, `
		DELETE FROM reviews WHERE id = $1 AND user_id = $2
		RETURNING product_id`, reviewID, userID).Scan(&productID)
	if err != nil {
		return ErrNotFound
	}
	return r.RecomputeRating(ctx, productID)
}

// RecomputeRating refreshes the product's denormalized rating aggregate from
// the review rows. Idempotent: re-running it only touches the aggregate
// fields and always converges on the same values.
func (r *Repo) RecomputeRating(ctx context.Context, productID string) error {
	_, err := r.DB.Exec(ctx, `
		UPDATE products SET
			rating      = COALESCE((SELECT AVG(rating) FROM reviews WHERE product_id = $1), 0),
			num_reviews = (SELECT COUNT(*) FROM reviews WHERE product_id = $1),
			updated_at  = now()
		WHERE id = $1`, productID)
	return err
}
