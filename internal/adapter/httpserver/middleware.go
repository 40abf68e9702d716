package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/study-buddy-core/server/internal/auth"
	errx "github.com/study-buddy-core/server/internal/core/error"
	logx "github.com/study-buddy-core/server/pkg/logger"
)

const ctxKeyUser = "user"

// errorResponse mirrors the {"detail": ...} body the frontend expects.
type errorResponse struct {
	Detail string `json:"detail"`
}

// handleError renders every handler error as {"detail": msg}. Echo's own
// errors keep their status; everything else goes through errx.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := errx.StatusOf(err)
	message := errx.MessageOf(err)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		message = http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			message = m
		}
	}

	ev := logx.Info()
	if status >= http.StatusInternalServerError {
		ev = logx.Error()
	}
	ev = ev.Err(err).
		Str("path", c.Request().URL.Path).
		Str("method", c.Request().Method).
		Int("status", status)
	if u, ok := c.Get(ctxKeyUser).(auth.User); ok {
		ev = ev.Str("user_id", u.ID)
	}
	ev.Msg("Request failed")

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, errorResponse{Detail: message})
	}
	if werr != nil {
		logx.Error().Err(werr).Msg("Failed to write error response")
	}
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireUser rejects requests without a valid bearer token.
func (s *Server) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c)
		if token == "" {
			c.Response().Header().Set("WWW-Authenticate", "Bearer")
			return errx.Unauthorized("Not authenticated")
		}
		u, err := s.auth.CurrentUser(c.Request().Context(), token)
		if err != nil {
			c.Response().Header().Set("WWW-Authenticate", "Bearer")
			return err
		}
		c.Set(ctxKeyUser, u)
		return next(c)
	}
}

// optionalUser attaches the user when a valid token is present and lets
// anonymous requests through.
func (s *Server) optionalUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if token := bearerToken(c); token != "" {
			if u, err := s.auth.CurrentUser(c.Request().Context(), token); err == nil {
				c.Set(ctxKeyUser, u)
			}
		}
		return next(c)
	}
}

func currentUser(c echo.Context) (auth.User, bool) {
	u, ok := c.Get(ctxKeyUser).(auth.User)
	return u, ok
}

func currentUserID(c echo.Context) string {
	if u, ok := currentUser(c); ok {
		return u.ID
	}
	return ""
}
