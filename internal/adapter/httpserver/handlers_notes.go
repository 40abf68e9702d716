package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/study-buddy-core/server/internal/app"
	errx "github.com/study-buddy-core/server/internal/core/error"
)

// userRef accepts a user id sent either as a JSON number or a string.
type userRef string

func (u *userRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*u = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*u = userRef(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("user_id must be a string or number: %w", err)
	}
	*u = userRef(n.String())
	return nil
}

type noteAskRequest struct {
	UserID          userRef `json:"user_id"`
	SessionID       string  `json:"session_id"`
	Question        string  `json:"question"`
	PersonalityMode string  `json:"personality_mode"`
}

type noteSummaryRequest struct {
	UserID          userRef `json:"user_id"`
	PersonalityMode string  `json:"personality_mode"`
}

func (s *Server) registerNotesRoutes(rateLimiter echo.MiddlewareFunc) {
	notes := s.echo.Group("/api/notes", rateLimiter, s.optionalUser)
	notes.POST("/upload", s.handleNotesUpload, middleware.BodyLimit(s.config.MaxUploadSize))
	notes.POST("/ask", s.handleNotesAsk)
	notes.POST("/summary", s.handleNotesSummary)
}

// resolveUserID prefers the signed-in user over the id in the payload.
func resolveUserID(c echo.Context, given string) string {
	if id := currentUserID(c); id != "" {
		return id
	}
	return strings.TrimSpace(given)
}

func (s *Server) handleNotesUpload(c echo.Context) error {
	userID := resolveUserID(c, c.FormValue("user_id"))

	fh, err := c.FormFile("file")
	if err != nil {
		return errx.Validation("A file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return errx.Validation("Could not read uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return errx.Validation("Could not read uploaded file")
	}

	resp, err := s.app.UploadNotes(c.Request().Context(), userID, fh.Filename, data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleNotesAsk(c echo.Context) error {
	var req noteAskRequest
	if err := c.Bind(&req); err != nil {
		return errx.Validation("Invalid request body")
	}

	ctx, cancel := s.chatContext(c.Request().Context())
	defer cancel()

	resp, err := s.app.AskNotes(ctx, app.NoteQuestion{
		UserID:          resolveUserID(c, string(req.UserID)),
		SessionID:       req.SessionID,
		Question:        req.Question,
		PersonalityMode: req.PersonalityMode,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleNotesSummary(c echo.Context) error {
	var req noteSummaryRequest
	if err := c.Bind(&req); err != nil {
		return errx.Validation("Invalid request body")
	}
	userID := resolveUserID(c, string(req.UserID))
	if userID == "" {
		return errx.Validation("user_id is required")
	}

	ctx, cancel := s.chatContext(c.Request().Context())
	defer cancel()

	resp, err := s.app.SummarizeNotes(ctx, userID, req.PersonalityMode)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}
