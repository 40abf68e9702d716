package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/study-buddy-core/server/internal/app"
	errx "github.com/study-buddy-core/server/internal/core/error"
	logx "github.com/study-buddy-core/server/pkg/logger"
)

const (
	wsMaxMessageSize = 64 << 10
	wsPongWait       = 60 * time.Second
	wsPingInterval   = 25 * time.Second
	wsWriteWait      = 10 * time.Second
)

// socketError is written back when a chat frame fails; the socket stays open.
type socketError struct {
	Detail string `json:"detail"`
	Status int    `json:"status"`
}

// handleChatSocket upgrades to a WebSocket on which every JSON frame is a
// chat request answered by one chat response frame.
func (s *Server) handleChatSocket(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// the upgrader already wrote the HTTP error
		logx.Warn().Err(err).Msg("WebSocket upgrade failed")
		return nil
	}
	defer conn.Close()

	if s.chatMetrics != nil {
		s.chatMetrics.ActiveConnections.Inc()
		defer s.chatMetrics.ActiveConnections.Dec()
	}

	userID := currentUserID(c)
	ctx := c.Request().Context()

	conn.SetReadLimit(wsMaxMessageSize)
	extendRead := func() error {
		return conn.SetReadDeadline(time.Now().Add(s.pongWait))
	}
	_ = extendRead()
	conn.SetPongHandler(func(string) error { return extendRead() })

	done := make(chan struct{})
	defer close(done)
	go pingLoop(conn, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logx.Debug().Err(err).Msg("WebSocket closed")
			}
			return nil
		}
		var req app.ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			if err := writeFrame(conn, socketError{Detail: "Invalid message", Status: http.StatusBadRequest}); err != nil {
				return nil
			}
			_ = extendRead()
			continue
		}
		req.UserID = userID

		reqCtx, cancel := s.chatContext(ctx)
		resp, err := s.app.Chat(reqCtx, req)
		cancel()

		var frame any = resp
		if err != nil {
			logx.Info().Err(err).Str("session_id", req.SessionID).Msg("WebSocket chat failed")
			frame = socketError{Detail: errx.MessageOf(err), Status: errx.StatusOf(err)}
		}
		if err := writeFrame(conn, frame); err != nil {
			return nil
		}
		// pongs are not read while the reply is generated
		_ = extendRead()
	}
}

func writeFrame(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(v)
}

func pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
