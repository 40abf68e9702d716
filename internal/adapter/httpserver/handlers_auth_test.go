package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/study-buddy-core/server/internal/auth"
	errx "github.com/study-buddy-core/server/internal/core/error"
)

func TestRegisterAndLogin(t *testing.T) {
	var gotReg auth.RegisterInput
	mock := &mockAuthService{
		registerFn: func(_ context.Context, in auth.RegisterInput) (auth.TokenResponse, error) {
			gotReg = in
			return auth.TokenResponse{AccessToken: "tok", TokenType: "bearer", User: testUser}, nil
		},
		loginFn: func(_ context.Context, in auth.LoginInput) (auth.TokenResponse, error) {
			if in.Password != "pw" {
				return auth.TokenResponse{}, errx.Unauthorized("Incorrect email or password")
			}
			return auth.TokenResponse{AccessToken: "tok", TokenType: "bearer", User: testUser}, nil
		},
	}
	srv := newTestServer(t, nil, mock)

	rec := do(t, srv, http.MethodPost, "/auth/register", map[string]string{
		"email": "ada@example.com", "username": "ada", "full_name": "Ada L", "password": "pw",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, auth.RegisterInput{Email: "ada@example.com", Username: "ada", FullName: "Ada L", Password: "pw"}, gotReg)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "tok", body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.NotContains(t, rec.Body.String(), "hashed_password")

	rec = do(t, srv, http.MethodPost, "/auth/login", map[string]string{"email": "ada@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodPost, "/auth/login", map[string]string{"email": "ada@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Incorrect email or password"}`, rec.Body.String())
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestMe(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/auth/me", nil, authHeader()...)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", decode[auth.User](t, rec).ID)

	rec = do(t, srv, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Not authenticated"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/auth/me", nil, "Authorization", "Basic Zm9v")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGoogleLoginFlow(t *testing.T) {
	var gotCode string
	mock := &mockAuthService{
		googleCallbackFn: func(_ context.Context, code string) (auth.TokenResponse, error) {
			gotCode = code
			return auth.TokenResponse{AccessToken: "jwt token", TokenType: "bearer", User: testUser}, nil
		},
	}
	srv := newTestServer(t, nil, mock)

	rec := do(t, srv, http.MethodGet, "/auth/google/login", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")
	require.Len(t, state, 32)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=c1&state="+state, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:8080/auth/callback?token=jwt+token", rec.Header().Get("Location"))
	assert.Equal(t, "c1", gotCode)
}

func TestGoogleCallback_Rejects(t *testing.T) {
	srv := newTestServer(t, nil, &mockAuthService{})

	rec := do(t, srv, http.MethodGet, "/auth/google/callback?code=c1&state=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Missing OAuth state"}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/auth/google/callback?state=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/auth/google/callback?error=access_denied", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	login := do(t, srv, http.MethodGet, "/auth/google/login", nil)
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=c1&state=forged", nil)
	for _, ck := range login.Result().Cookies() {
		req.AddCookie(ck)
	}
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Invalid OAuth state"}`, rec.Body.String())
}

func TestGoogleCallback_ProviderError(t *testing.T) {
	srv := newTestServer(t, nil, &mockAuthService{
		googleCallbackFn: func(context.Context, string) (auth.TokenResponse, error) {
			return auth.TokenResponse{}, errx.New(errors.New("bad code"), http.StatusBadRequest, "Failed to get user info from Google")
		},
	})

	login := do(t, srv, http.MethodGet, "/auth/google/login", nil)
	loc, err := url.Parse(login.Header().Get("Location"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=c1&state="+loc.Query().Get("state"), nil)
	for _, ck := range login.Result().Cookies() {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Failed to get user info from Google"}`, rec.Body.String())
}

func TestGoogleLogin_NotConfigured(t *testing.T) {
	srv := newTestServer(t, nil, &mockAuthService{googleDisabled: true})
	rec := do(t, srv, http.MethodGet, "/auth/google/login", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
