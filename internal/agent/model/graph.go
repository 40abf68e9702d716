package model

import (
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/study-buddy-core/server/internal/emotion"
)

// AppState is the per-invocation state shared by the reply graph nodes.
type AppState struct {
	Input    QueryInput
	History  *History
	Verdict  emotion.Verdict
	Mood     emotion.Label
	Passages []string

	// Turns is the message list exchanged with the chat model, tool rounds included.
	Turns []*schema.Message

	ToolCallCount        int
	ToolCallLimitReached bool
	ToolCallIDSeq        int
	TotalCostUSD         float64
}

// QueryInput is one student message entering the graph.
type QueryInput struct {
	SessionID string
	UserID    string
	Message   string
	Persona   string
	StudyMode StudyMode
	Language  Language
	UseNotes  bool
}

// ChatResult is what the graph hands back to callers.
type ChatResult struct {
	SessionID  string
	Reply      string
	Verdict    emotion.Verdict
	Mood       emotion.Label
	StudyMode  StudyMode
	Language   Language
	Persona    Persona
	Passages   int
	HistoryLen int
	CostUSD    float64
	Timestamp  time.Time
}
