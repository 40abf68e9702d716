package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/study-buddy-core/server/internal/auth"
)

const uniqueViolation = "23505"

// userColumns must match the Scan order in scanUser.
const userColumns = `id::text, email, coalesce(username, ''), coalesce(full_name, ''), coalesce(hashed_password, ''),
	is_active, is_verified, auth_provider, coalesce(google_id, ''), coalesce(avatar_url, ''), created_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

var _ auth.Repository = (*UserRepo)(nil)

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func scanUser(row pgx.Row) (auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.HashedPassword,
		&u.IsActive, &u.IsVerified, &u.AuthProvider, &u.GoogleID, &u.AvatarURL, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, err
}

func (r *UserRepo) CreateUser(ctx context.Context, u *auth.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, username, full_name, hashed_password, is_active, is_verified,
			auth_provider, google_id, avatar_url, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11)`,
		u.ID, u.Email, u.Username, u.FullName, u.HashedPassword, u.IsActive, u.IsVerified,
		u.AuthProvider, u.GoogleID, u.AvatarURL, u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return auth.ErrEmailTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) UpdateUser(ctx context.Context, u *auth.User) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET username = NULLIF($2, ''), full_name = NULLIF($3, ''), is_active = $4,
			is_verified = $5, auth_provider = $6, google_id = NULLIF($7, ''), avatar_url = NULLIF($8, '')
		WHERE id = $1`,
		u.ID, u.Username, u.FullName, u.IsActive, u.IsVerified, u.AuthProvider, u.GoogleID, u.AvatarURL)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) UserByEmail(ctx context.Context, email string) (auth.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		return auth.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, err
}

func (r *UserRepo) UserByGoogleID(ctx context.Context, googleID string) (auth.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID))
	if err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		return auth.User{}, fmt.Errorf("failed to get user by google id: %w", err)
	}
	return u, err
}
