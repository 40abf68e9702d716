package model

import (
	"context"
	"errors"
	"time"

	"github.com/study-buddy-core/server/internal/emotion"
)

// ErrHistoryNotFound is returned by a HistoryStore for unknown sessions.
var ErrHistoryNotFound = errors.New("conversation history not found")

// Message is one turn of a study session.
type Message struct {
	Text      string        `json:"text"`
	IsUser    bool          `json:"is_user"`
	Timestamp time.Time     `json:"timestamp"`
	Emotion   emotion.Label `json:"emotion,omitempty"`
}

// History is everything remembered about a session.
type History struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id,omitempty"`
	StudyMode StudyMode `json:"study_mode"`
	Language  Language  `json:"language"`
	Persona   string    `json:"persona"`
	Messages  []Message `json:"messages"`
}

// NewHistory starts an empty session.
func NewHistory(sessionID string, in QueryInput) *History {
	return &History{
		SessionID: sessionID,
		UserID:    in.UserID,
		StudyMode: in.StudyMode,
		Language:  in.Language,
		Persona:   in.Persona,
		Messages:  []Message{},
	}
}

func (h *History) Append(m Message) {
	h.Messages = append(h.Messages, m)
}

// Recent returns at most the last n messages.
func (h *History) Recent(n int) []Message {
	if n <= 0 || len(h.Messages) <= n {
		return h.Messages
	}
	return h.Messages[len(h.Messages)-n:]
}

// HistoryStore persists session histories.
type HistoryStore interface {
	Get(ctx context.Context, sessionID string) (*History, error)
	Put(ctx context.Context, sessionID string, h *History) error
	Delete(ctx context.Context, sessionID string) error
}
