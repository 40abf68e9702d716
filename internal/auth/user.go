package auth

import (
	"context"
	"errors"
	"time"
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username,omitempty"`
	FullName       string    `json:"full_name,omitempty"`
	HashedPassword string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	IsVerified     bool      `json:"is_verified"`
	AuthProvider   string    `json:"auth_provider"`
	GoogleID       string    `json:"-"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Repository persists users. Lookups return ErrUserNotFound when nothing
// matches; CreateUser returns ErrEmailTaken for a duplicate email.
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	UpdateUser(ctx context.Context, u *User) error
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByGoogleID(ctx context.Context, googleID string) (User, error)
}

type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by every successful sign-in.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}
