// Package app orchestrates the tutoring use cases on top of the reply graph,
// note store, progress tracker and history store.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/study-buddy-core/server/internal/adapter/metrics"
	"github.com/study-buddy-core/server/internal/agent/graph"
	"github.com/study-buddy-core/server/internal/agent/model"
	errx "github.com/study-buddy-core/server/internal/core/error"
	"github.com/study-buddy-core/server/internal/emotion"
	"github.com/study-buddy-core/server/internal/progress"
	logx "github.com/study-buddy-core/server/pkg/logger"
)

const connectivityPrompt = "Hello! Can you help me study?"

// Summarizer runs one-shot persona prompts.
type Summarizer interface {
	Summarize(ctx context.Context, personaID string, chunks []string) (string, error)
	Ask(ctx context.Context, personaID, message string) (string, error)
}

// NoteLibrary stores and lists uploaded notes.
type NoteLibrary interface {
	Upload(ctx context.Context, userID, filename string, data []byte) (int, error)
	All(ctx context.Context, userID string) ([]string, error)
}

// Tracker records study progress and emotions.
type Tracker interface {
	Track(ctx context.Context, r progress.Record) (progress.Record, error)
	UserStats(ctx context.Context, userID string) (progress.Stats, error)
	SessionProgress(ctx context.Context, userID, sessionID string) (progress.Record, error)
	UpdateComprehension(ctx context.Context, userID, sessionID string, level int) (progress.Record, error)
	RecordEmotion(ctx context.Context, userID, sessionID string, v emotion.Verdict) error
	EmotionTrends(ctx context.Context, userID string, window time.Duration) (progress.Trends, error)
}

type Deps struct {
	Runner     graph.Runner
	Summarizer Summarizer
	History    model.HistoryStore
	// Notes, Progress and Metrics may be nil.
	Notes    NoteLibrary
	Progress Tracker
	Metrics  *metrics.ChatMetrics
	Clock    clockwork.Clock
}

type Service struct {
	runner     graph.Runner
	summarizer Summarizer
	history    model.HistoryStore
	notes      NoteLibrary
	progress   Tracker
	metrics    *metrics.ChatMetrics
	clock      clockwork.Clock
}

func NewService(d Deps) (*Service, error) {
	if d.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if d.History == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	return &Service{
		runner:     d.Runner,
		summarizer: d.Summarizer,
		history:    d.History,
		notes:      d.Notes,
		progress:   d.Progress,
		metrics:    d.Metrics,
		clock:      d.Clock,
	}, nil
}

var (
	errNotesDisabled    = errx.New(nil, http.StatusServiceUnavailable, "Note storage is not configured")
	errProgressDisabled = errx.New(nil, http.StatusServiceUnavailable, "Progress tracking is not configured")
)

// Chat answers one student message. A missing session id starts a new session.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return ChatResponse{}, errx.Validation("Message is required")
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	res, err := s.runner.Invoke(ctx, model.QueryInput{
		SessionID: sessionID,
		UserID:    req.UserID,
		Message:   req.Message,
		Persona:   req.PersonalityMode,
		StudyMode: model.StudyMode(req.StudyMode),
		Language:  model.Language(req.Language),
		UseNotes:  req.UseNotes && req.UserID != "",
	})
	if err != nil {
		s.observeReply(string(model.ParseStudyMode(req.StudyMode)), "error")
		return ChatResponse{}, chatError(err)
	}
	s.observe(res)
	s.recordEmotion(ctx, req.UserID, sessionID, res.Verdict)

	return ChatResponse{
		Success:   true,
		Response:  res.Reply,
		Emotion:   res.Verdict,
		StudyMode: string(res.StudyMode),
		Language:  string(res.Language),
		SessionID: res.SessionID,
		Timestamp: res.Timestamp,
	}, nil
}

// AskNotes answers a question grounded on the user's notes.
func (s *Service) AskNotes(ctx context.Context, req NoteQuestion) (NoteAnswer, error) {
	if strings.TrimSpace(req.Question) == "" {
		return NoteAnswer{}, errx.Validation("Question is required")
	}
	if strings.TrimSpace(req.UserID) == "" {
		return NoteAnswer{}, errx.Validation("user_id is required")
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	res, err := s.runner.Invoke(ctx, model.QueryInput{
		SessionID: sessionID,
		UserID:    req.UserID,
		Message:   req.Question,
		Persona:   req.PersonalityMode,
		UseNotes:  s.notes != nil,
	})
	if err != nil {
		s.observeReply(string(model.ActiveLearning), "error")
		return NoteAnswer{}, chatError(err)
	}
	s.observe(res)
	s.recordEmotion(ctx, req.UserID, sessionID, res.Verdict)

	return NoteAnswer{Answer: res.Reply, Emotion: string(res.Mood), SessionID: res.SessionID}, nil
}

func (s *Service) History(ctx context.Context, sessionID string) (HistoryResponse, error) {
	h, err := s.history.Get(ctx, sessionID)
	if errors.Is(err, model.ErrHistoryNotFound) {
		return HistoryResponse{}, errx.NotFound(err, "Session not found")
	}
	if err != nil {
		return HistoryResponse{}, fmt.Errorf("load history: %w", err)
	}

	msgs := make([]HistoryMessage, 0, len(h.Messages))
	for _, m := range h.Messages {
		role := "assistant"
		if m.IsUser {
			role = "user"
		}
		msgs = append(msgs, HistoryMessage{Role: role, Content: m.Text, Timestamp: m.Timestamp, Emotion: string(m.Emotion)})
	}
	return HistoryResponse{
		Success:   true,
		SessionID: h.SessionID,
		Messages:  msgs,
		StudyMode: string(h.StudyMode),
		Language:  string(h.Language),
	}, nil
}

// ClearSession deletes a session's history.
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	if _, err := s.history.Get(ctx, sessionID); err != nil {
		if errors.Is(err, model.ErrHistoryNotFound) {
			return errx.NotFound(err, "Session not found")
		}
		return fmt.Errorf("load history: %w", err)
	}
	if err := s.history.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

// TestModel sends a fixed greeting through the chat model.
func (s *Service) TestModel(ctx context.Context) (string, error) {
	if s.summarizer == nil {
		return "", errx.New(nil, http.StatusServiceUnavailable, "AI service test failed: no model configured")
	}
	reply, err := s.summarizer.Ask(ctx, model.DefaultPersonaID, connectivityPrompt)
	if err != nil {
		return "", errx.New(err, http.StatusInternalServerError, fmt.Sprintf("AI service test failed: %v", err))
	}
	return reply, nil
}

func (s *Service) DetectEmotion(text string) emotion.Verdict {
	return emotion.Detect(text)
}

func (s *Service) Personas() map[string]model.Persona {
	return model.PersonaMap()
}

func (s *Service) UploadNotes(ctx context.Context, userID, filename string, data []byte) (NoteUploadResponse, error) {
	if s.notes == nil {
		return NoteUploadResponse{}, errNotesDisabled
	}
	if strings.TrimSpace(userID) == "" {
		return NoteUploadResponse{}, errx.Validation("user_id is required")
	}
	n, err := s.notes.Upload(ctx, userID, filename, data)
	if err != nil {
		return NoteUploadResponse{}, err
	}
	if s.metrics != nil {
		s.metrics.NoteChunks.Add(float64(n))
	}
	return NoteUploadResponse{
		Message:   fmt.Sprintf("Stored %d chunks for user %s", n, userID),
		NumChunks: n,
	}, nil
}

func (s *Service) SummarizeNotes(ctx context.Context, userID, personaID string) (SummaryResponse, error) {
	if s.notes == nil {
		return SummaryResponse{}, errNotesDisabled
	}
	chunks, err := s.notes.All(ctx, userID)
	if err != nil {
		return SummaryResponse{}, err
	}
	if len(chunks) == 0 {
		return SummaryResponse{}, errx.NotFound(nil, "No notes found for this user")
	}
	if s.summarizer == nil {
		return SummaryResponse{}, errx.New(nil, http.StatusServiceUnavailable, "Failed to generate summary: no model configured")
	}
	summary, err := s.summarizer.Summarize(ctx, personaID, chunks)
	if err != nil {
		return SummaryResponse{}, errx.New(err, http.StatusInternalServerError, fmt.Sprintf("Failed to generate summary: %v", err))
	}
	return SummaryResponse{Summary: summary, NumChunks: len(chunks)}, nil
}

func (s *Service) TrackProgress(ctx context.Context, userID string, r progress.Record) (progress.Record, error) {
	if s.progress == nil {
		return progress.Record{}, errProgressDisabled
	}
	r.UserID = userID
	return s.progress.Track(ctx, r)
}

func (s *Service) ProgressStats(ctx context.Context, userID string) (progress.Stats, error) {
	if s.progress == nil {
		return progress.Stats{}, errProgressDisabled
	}
	return s.progress.UserStats(ctx, userID)
}

func (s *Service) SessionProgress(ctx context.Context, userID, sessionID string) (progress.Record, error) {
	if s.progress == nil {
		return progress.Record{}, errProgressDisabled
	}
	r, err := s.progress.SessionProgress(ctx, userID, sessionID)
	if errors.Is(err, progress.ErrNotFound) {
		return progress.Record{}, errx.NotFound(err, "Progress not found")
	}
	return r, err
}

func (s *Service) UpdateComprehension(ctx context.Context, userID, sessionID string, level int) (progress.Record, error) {
	if s.progress == nil {
		return progress.Record{}, errProgressDisabled
	}
	r, err := s.progress.UpdateComprehension(ctx, userID, sessionID, level)
	if errors.Is(err, progress.ErrNotFound) {
		return progress.Record{}, errx.NotFound(err, "Progress not found")
	}
	return r, err
}

func (s *Service) EmotionTrends(ctx context.Context, userID string, days int) (progress.Trends, error) {
	if s.progress == nil {
		return progress.Trends{}, errProgressDisabled
	}
	return s.progress.EmotionTrends(ctx, userID, time.Duration(days)*24*time.Hour)
}

func (s *Service) recordEmotion(ctx context.Context, userID, sessionID string, v emotion.Verdict) {
	if s.progress == nil || userID == "" {
		return
	}
	if err := s.progress.RecordEmotion(ctx, userID, sessionID, v); err != nil {
		logx.Warn().Err(err).Str("user_id", userID).Str("session_id", sessionID).Msg("Failed to record emotion")
	}
}

func (s *Service) observe(res model.ChatResult) {
	s.observeReply(string(res.StudyMode), "ok")
	if s.metrics == nil {
		return
	}
	s.metrics.Emotions.WithLabelValues(string(res.Verdict.Emotion)).Inc()
	s.metrics.CostUSD.Add(res.CostUSD)
}

func (s *Service) observeReply(mode, outcome string) {
	if s.metrics != nil {
		s.metrics.Replies.WithLabelValues(mode, outcome).Inc()
	}
}

// chatError keeps request errors and reports everything else as an upstream failure.
func chatError(err error) error {
	var appErr *errx.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return errx.New(err, http.StatusGatewayTimeout, "The AI service took too long to respond")
	}
	return errx.Upstream(fmt.Errorf("Failed to generate response: %w", err))
}
