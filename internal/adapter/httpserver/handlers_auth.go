package httpserver

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/study-buddy-core/server/internal/auth"
	errx "github.com/study-buddy-core/server/internal/core/error"
	logx "github.com/study-buddy-core/server/pkg/logger"
)

const oauthTimeout = 10 * time.Second

func (s *Server) registerAuthRoutes(rateLimiter echo.MiddlewareFunc) {
	g := s.echo.Group("/auth", rateLimiter)
	g.POST("/register", s.handleRegister)
	g.POST("/login", s.handleLogin)
	g.GET("/google/login", s.handleGoogleLogin)
	g.GET("/google/callback", s.handleGoogleCallback)
	g.GET("/me", s.handleMe, s.requireUser)
}

func (s *Server) handleRegister(c echo.Context) error {
	var in auth.RegisterInput
	if err := c.Bind(&in); err != nil {
		return errx.Validation("Invalid request body")
	}
	resp, err := s.auth.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleLogin(c echo.Context) error {
	var in auth.LoginInput
	if err := c.Bind(&in); err != nil {
		return errx.Validation("Invalid request body")
	}
	resp, err := s.auth.Login(c.Request().Context(), in)
	if err != nil {
		c.Response().Header().Set("WWW-Authenticate", "Bearer")
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleMe(c echo.Context) error {
	u, _ := currentUser(c)
	return c.JSON(http.StatusOK, u)
}

func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate OAuth state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func (s *Server) handleGoogleLogin(c echo.Context) error {
	state, err := generateOAuthState()
	if err != nil {
		return err
	}
	authURL, err := s.auth.GoogleLoginURL(state)
	if err != nil {
		return err
	}

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		logx.Warn().Err(err).Msg("Discarding unreadable session cookie")
	}
	session.Values[sessionKeyOAuthState] = state
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return fmt.Errorf("save OAuth state: %w", err)
	}
	return c.Redirect(http.StatusFound, authURL)
}

// handleGoogleCallback finishes the Google flow and hands the token to the
// frontend through a redirect.
func (s *Server) handleGoogleCallback(c echo.Context) error {
	if msg := c.QueryParam("error"); msg != "" {
		return errx.Validation("Google login failed: " + msg)
	}
	code := c.QueryParam("code")
	if code == "" {
		return errx.Validation("Missing authorization code")
	}

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		return errx.Validation("Missing OAuth state")
	}
	expected, ok := session.Values[sessionKeyOAuthState].(string)
	if !ok || expected == "" {
		return errx.Validation("Missing OAuth state")
	}
	if c.QueryParam("state") != expected {
		return errx.Validation("Invalid OAuth state")
	}
	delete(session.Values, sessionKeyOAuthState)
	session.Options.MaxAge = -1
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return fmt.Errorf("clear OAuth state: %w", err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), oauthTimeout)
	defer cancel()

	resp, err := s.auth.GoogleCallback(ctx, code)
	if err != nil {
		return err
	}
	logx.Info().Str("user_id", resp.User.ID).Msg("User signed in with Google")

	target := strings.TrimRight(s.frontendURL, "/") + "/auth/callback?token=" + url.QueryEscape(resp.AccessToken)
	return c.Redirect(http.StatusFound, target)
}
