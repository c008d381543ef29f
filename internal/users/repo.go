package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/swiftcart/backend/internal/auth"
	"github.com/swiftcart/backend/internal/postgres"
)

var (
	ErrNotFound   = errors.New("users: not found")
	ErrEmailTaken = errors.New("users: email already registered")
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) CreateUser(ctx context.Context, email, passwordHash, fullName, mobile string) (*User, error) {
	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Mobile:       mobile,
		Role:         auth.RoleCustomer,
		Status:       StatusActive,
	}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO users(id, email, password, full_name, mobile, role, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		u.ID, u.Email, u.PasswordHash, u.FullName, u.Mobile, u.Role, u.Status,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "users_email_key") {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (r *Repo) UserByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanUser(r.DB.QueryRow(ctx, `
		SELECT id, email, password, full_name, mobile, role, status, created_at, updated_at
		FROM users WHERE email = $1`, email))
}

func (r *Repo) UserByID(ctx context.Context, id string) (*User, error) {
	return r.scanUser(r.DB.QueryRow(ctx, `
		SELECT id, email, password, full_name, mobile, role, status, created_at, updated_at
		FROM users WHERE id = $1`, id))
}

func (r *Repo) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Mobile, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) CreateAddress(ctx context.Context, a *Address) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Country == "" {
		a.Country = "India"
	}
	return r.DB.QueryRow(ctx, `
		INSERT INTO addresses(id, user_id, line1, city, state, pin_code, country, mobile)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		a.ID, a.UserID, a.Line1, a.City, a.State, a.PinCode, a.Country, a.Mobile,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *Repo) AddressesByUser(ctx context.Context, userID string) ([]Address, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, user_id, line1, city, state, pin_code, country, mobile, created_at, updated_at
		FROM addresses WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Address
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Line1, &a.City, &a.State, &a.PinCode, &a.Country, &a.Mobile, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AddressOwnedBy reports whether the address exists and belongs to the user.
func (r *Repo) AddressOwnedBy(ctx context.Context, addressID, userID string) (bool, error) {
	var n int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repo) AddressByID(ctx context.Context, addressID, userID string) (*Address, error) {
	var a Address
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, line1, city, state, pin_code, country, mobile, created_at, updated_at
		FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID,
	).Scan(&a.ID, &a.UserID, &a.Line1, &a.City, &a.State, &a.PinCode, &a.Country, &a.Mobile, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repo) UpdateAddress(ctx context.Context, a *Address) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE addresses
		SET line1 = $3, city = $4, state = $5, pin_code = $6, country = $7, mobile = $8, updated_at = now()
		WHERE id = $1 AND user_id = $2`,
		a.ID, a.UserID, a.Line1, a.City, a.State, a.PinCode, a.Country, a.Mobile)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteAddress(ctx context.Context, addressID, userID string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// OrderHistory returns the order storage keys linked to the user, oldest first.
func (r *Repo) OrderHistory(ctx context.Context, userID string) ([]string, error) {
	var history []string
	err := r.DB.QueryRow(ctx, `SELECT order_history FROM users WHERE id = $1`, userID).Scan(&history)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return history, nil
}
