package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	errx "github.com/study-buddy-core/server/internal/core/error"
	"github.com/study-buddy-core/server/internal/progress"
)

const defaultTrendDays = 30

func (s *Server) registerProgressRoutes(rateLimiter echo.MiddlewareFunc) {
	mw := []echo.MiddlewareFunc{rateLimiter, s.requireUser}
	s.echo.POST("/api/progress", s.handleTrackProgress, mw...)
	s.echo.GET("/api/progress/stats", s.handleProgressStats, mw...)
	s.echo.GET("/api/progress/session/:session_id", s.handleSessionProgress, mw...)
	s.echo.PUT("/api/progress/session/:session_id/comprehension", s.handleUpdateComprehension, mw...)
	s.echo.GET("/api/emotions/trends", s.handleEmotionTrends, mw...)
}

type trackRequest struct {
	SessionID          string   `json:"session_id"`
	TopicsReviewed     []string `json:"topics_reviewed"`
	ComprehensionLevel int      `json:"comprehension_level"`
	TimeSpent          int      `json:"time_spent"`
	QuestionsAnswered  int      `json:"questions_answered"`
	CorrectAnswers     int      `json:"correct_answers"`
}

func (s *Server) handleTrackProgress(c echo.Context) error {
	var req trackRequest
	if err := c.Bind(&req); err != nil {
		return errx.Validation("Invalid request body")
	}
	rec, err := s.app.TrackProgress(c.Request().Context(), currentUserID(c), progress.Record{
		SessionID:          req.SessionID,
		TopicsReviewed:     req.TopicsReviewed,
		ComprehensionLevel: req.ComprehensionLevel,
		TimeSpent:          req.TimeSpent,
		QuestionsAnswered:  req.QuestionsAnswered,
		CorrectAnswers:     req.CorrectAnswers,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rec)
}

func (s *Server) handleProgressStats(c echo.Context) error {
	stats, err := s.app.ProgressStats(c.Request().Context(), currentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleSessionProgress(c echo.Context) error {
	rec, err := s.app.SessionProgress(c.Request().Context(), currentUserID(c), c.Param("session_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

type comprehensionRequest struct {
	ComprehensionLevel *int `json:"comprehension_level"`
}

func (s *Server) handleUpdateComprehension(c echo.Context) error {
	var req comprehensionRequest
	if err := c.Bind(&req); err != nil {
		return errx.Validation("Invalid request body")
	}
	if req.ComprehensionLevel == nil {
		return errx.Validation("comprehension_level is required")
	}
	rec, err := s.app.UpdateComprehension(c.Request().Context(), currentUserID(c), c.Param("session_id"), *req.ComprehensionLevel)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleEmotionTrends(c echo.Context) error {
	days := defaultTrendDays
	if raw := c.QueryParam("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 365 {
			return errx.Validation("days must be between 1 and 365")
		}
		days = n
	}
	trends, err := s.app.EmotionTrends(c.Request().Context(), currentUserID(c), days)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, trends)
}
