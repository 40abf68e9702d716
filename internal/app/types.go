package app

import (
	"time"

	"github.com/study-buddy-core/server/internal/emotion"
)

type ChatRequest struct {
	Message         string `json:"message"`
	StudyMode       string `json:"study_mode"`
	Language        string `json:"language"`
	SessionID       string `json:"session_id"`
	PersonalityMode string `json:"personality_mode"`
	UseNotes        bool   `json:"use_notes"`
	// UserID is set from the bearer token, never from the body.
	UserID string `json:"-"`
}

type ChatResponse struct {
	Success   bool            `json:"success"`
	Response  string          `json:"response"`
	Emotion   emotion.Verdict `json:"emotion"`
	StudyMode string          `json:"study_mode"`
	Language  string          `json:"language"`
	SessionID string          `json:"session_id"`
	Timestamp time.Time       `json:"timestamp"`
}

type HistoryMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Emotion   string    `json:"emotion,omitempty"`
}

type HistoryResponse struct {
	Success   bool             `json:"success"`
	SessionID string           `json:"session_id"`
	Messages  []HistoryMessage `json:"messages"`
	StudyMode string           `json:"study_mode"`
	Language  string           `json:"language"`
}

type NoteQuestion struct {
	UserID          string
	SessionID       string
	Question        string
	PersonalityMode string
}

type NoteAnswer struct {
	Answer    string `json:"answer"`
	Emotion   string `json:"emotion"`
	SessionID string `json:"session_id"`
}

type NoteUploadResponse struct {
	Message   string `json:"message"`
	NumChunks int    `json:"num_chunks"`
}

type SummaryResponse struct {
	Summary   string `json:"summary"`
	NumChunks int    `json:"num_chunks"`
}
