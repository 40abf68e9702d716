package httpserver

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/study-buddy-core/server/internal/app"
	errx "github.com/study-buddy-core/server/internal/core/error"
)

func (s *Server) registerChatRoutes(rateLimiter echo.MiddlewareFunc) {
	api := s.echo.Group("/api", rateLimiter)

	chat := api.Group("/chat")
	chat.POST("/message", s.handleChatMessage, s.optionalUser)
	chat.GET("/history/:session_id", s.handleChatHistory)
	chat.DELETE("/session/:session_id", s.handleClearSession)
	chat.GET("/test", s.handleChatTest)
	chat.GET("/ws", s.handleChatSocket, s.optionalUser)

	api.POST("/emotion/detect", s.handleDetectEmotion)
	api.GET("/personality-modes", s.handlePersonalityModes)
}

func (s *Server) chatContext(parent context.Context) (context.Context, context.CancelFunc) {
	if s.config.ChatTimeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, s.config.ChatTimeout)
}

func (s *Server) handleChatMessage(c echo.Context) error {
	var req app.ChatRequest
	if err := c.Bind(&req); err != nil {
		return errx.Validation("Invalid request body")
	}
	req.UserID = currentUserID(c)

	ctx, cancel := s.chatContext(c.Request().Context())
	defer cancel()

	resp, err := s.app.Chat(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleChatHistory(c echo.Context) error {
	resp, err := s.app.History(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) handleClearSession(c echo.Context) error {
	if err := s.app.ClearSession(c.Request().Context(), c.Param("session_id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{Success: true, Message: "Session cleared"})
}

type modelTestResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	TestResponse string `json:"test_response"`
}

func (s *Server) handleChatTest(c echo.Context) error {
	ctx, cancel := s.chatContext(c.Request().Context())
	defer cancel()

	reply, err := s.app.TestModel(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, modelTestResponse{Success: true, Message: "AI service is working!", TestResponse: reply})
}

type detectRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleDetectEmotion(c echo.Context) error {
	var req detectRequest
	if err := c.Bind(&req); err != nil {
		return errx.Validation("Invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return errx.Validation("Text is required")
	}
	return c.JSON(http.StatusOK, s.app.DetectEmotion(req.Text))
}

func (s *Server) handlePersonalityModes(c echo.Context) error {
	return c.JSON(http.StatusOK, s.app.Personas())
}
