package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	errx "github.com/study-buddy-core/server/internal/core/error"
	logx "github.com/study-buddy-core/server/pkg/logger"
)

const tokenTypeBearer = "bearer"

type Config struct {
	SecretKey                string `envconfig:"SECRET_KEY" required:"true"`
	AccessTokenExpireMinutes int    `envconfig:"ACCESS_TOKEN_EXPIRE_MINUTES" default:"30"`
	GoogleClientID           string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret       string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI        string `envconfig:"GOOGLE_REDIRECT_URI" default:"http://localhost:8000/auth/google/callback"`
	FrontendURL              string `envconfig:"FRONTEND_URL" default:"http://localhost:8080"`
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

var errBadCredentials = errx.Unauthorized("Incorrect email or password")

type Service struct {
	users  Repository
	tokens *TokenIssuer
	google IdentityProvider
	clock  clockwork.Clock
}

// NewService wires the user store, token issuer and an optional Google provider.
func NewService(users Repository, tokens *TokenIssuer, google IdentityProvider, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{users: users, tokens: tokens, google: google, clock: clock}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (TokenResponse, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return TokenResponse{}, errx.Validation("A valid email is required")
	}
	if in.Password == "" {
		return TokenResponse{}, errx.Validation("Password is required")
	}

	_, err := s.users.UserByEmail(ctx, email)
	switch {
	case err == nil:
		return TokenResponse{}, errx.Validation("Email already registered")
	case !errors.Is(err, ErrUserNotFound):
		return TokenResponse{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return TokenResponse{}, err
	}
	u := &User{
		ID:             uuid.NewString(),
		Email:          email,
		Username:       strings.TrimSpace(in.Username),
		FullName:       strings.TrimSpace(in.FullName),
		HashedPassword: hash,
		IsActive:       true,
		AuthProvider:   ProviderLocal,
		CreatedAt:      s.clock.Now().UTC(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return TokenResponse{}, errx.New(err, http.StatusBadRequest, "Email already registered")
		}
		return TokenResponse{}, fmt.Errorf("create user: %w", err)
	}
	logx.Info().Str("user_id", u.ID).Msg("User registered")
	return s.respond(*u)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (TokenResponse, error) {
	u, err := s.users.UserByEmail(ctx, normalizeEmail(in.Email))
	if errors.Is(err, ErrUserNotFound) {
		return TokenResponse{}, errBadCredentials
	}
	if err != nil {
		return TokenResponse{}, fmt.Errorf("lookup user: %w", err)
	}
	if u.AuthProvider != ProviderLocal {
		return TokenResponse{}, errx.Validation(fmt.Sprintf("This account uses %s login. Please use that method.", u.AuthProvider))
	}
	if !CheckPassword(u.HashedPassword, in.Password) {
		return TokenResponse{}, errBadCredentials
	}
	return s.respond(u)
}

func (s *Service) GoogleEnabled() bool {
	return s.google != nil
}

func (s *Service) GoogleLoginURL(state string) (string, error) {
	if s.google == nil {
		return "", errx.New(nil, http.StatusNotImplemented, "Google login is not configured")
	}
	return s.google.AuthCodeURL(state), nil
}

// GoogleCallback signs in the Google account behind code. An existing local
// account with the same email is linked to Google; otherwise a user is created.
func (s *Service) GoogleCallback(ctx context.Context, code string) (TokenResponse, error) {
	if s.google == nil {
		return TokenResponse{}, errx.New(nil, http.StatusNotImplemented, "Google login is not configured")
	}
	id, err := s.google.Identify(ctx, code)
	if err != nil {
		return TokenResponse{}, errx.New(err, http.StatusBadRequest, "Failed to get user info from Google")
	}

	u, err := s.users.UserByGoogleID(ctx, id.Subject)
	if err == nil {
		return s.respond(u)
	}
	if !errors.Is(err, ErrUserNotFound) {
		return TokenResponse{}, fmt.Errorf("lookup google user: %w", err)
	}

	u, err = s.users.UserByEmail(ctx, normalizeEmail(id.Email))
	switch {
	case err == nil:
		u.GoogleID = id.Subject
		u.AuthProvider = ProviderGoogle
		u.AvatarURL = id.Picture
		u.IsVerified = true
		if err := s.users.UpdateUser(ctx, &u); err != nil {
			return TokenResponse{}, fmt.Errorf("link google account: %w", err)
		}
		logx.Info().Str("user_id", u.ID).Msg("Google account linked")
	case errors.Is(err, ErrUserNotFound):
		u = User{
			ID:           uuid.NewString(),
			Email:        normalizeEmail(id.Email),
			FullName:     id.Name,
			GoogleID:     id.Subject,
			AuthProvider: ProviderGoogle,
			AvatarURL:    id.Picture,
			IsActive:     true,
			IsVerified:   true,
			CreatedAt:    s.clock.Now().UTC(),
		}
		if err := s.users.CreateUser(ctx, &u); err != nil {
			return TokenResponse{}, fmt.Errorf("create google user: %w", err)
		}
		logx.Info().Str("user_id", u.ID).Msg("User registered with Google")
	default:
		return TokenResponse{}, fmt.Errorf("lookup user: %w", err)
	}
	return s.respond(u)
}

// CurrentUser resolves a bearer token to an active user.
func (s *Service) CurrentUser(ctx context.Context, token string) (User, error) {
	email, err := s.tokens.Subject(token)
	if err != nil {
		return User{}, errx.New(err, http.StatusUnauthorized, "Could not validate credentials")
	}
	u, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, errx.New(err, http.StatusUnauthorized, "Could not validate credentials")
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !u.IsActive {
		return User{}, errx.Unauthorized("Inactive user")
	}
	return u, nil
}

func (s *Service) respond(u User) (TokenResponse, error) {
	tok, err := s.tokens.Issue(u.Email)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{AccessToken: tok, TokenType: tokenTypeBearer, User: u}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
