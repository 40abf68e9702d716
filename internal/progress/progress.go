package progress

import (
	"context"
	"errors"
	"time"

	"github.com/study-buddy-core/server/internal/emotion"
)

// ErrNotFound is returned when a session has no progress record.
var ErrNotFound = errors.New("progress record not found")

// Record is the progress logged for one study session.
type Record struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	SessionID          string    `json:"session_id"`
	TopicsReviewed     []string  `json:"topics_reviewed"`
	ComprehensionLevel int       `json:"comprehension_level"`
	TimeSpent          int       `json:"time_spent"`
	QuestionsAnswered  int       `json:"questions_answered"`
	CorrectAnswers     int       `json:"correct_answers"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Stats aggregates every record of a student.
type Stats struct {
	TotalSessions        int        `json:"total_sessions"`
	TotalTimeSpent       int        `json:"total_time_spent"`
	AverageComprehension float64    `json:"average_comprehension"`
	TopicsReviewed       []string   `json:"topics_reviewed"`
	LastSessionDate      *time.Time `json:"last_session_date"`
}

// EmotionEntry is one scored student message.
type EmotionEntry struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	SessionID  string           `json:"session_id"`
	Emotion    emotion.Label    `json:"emotion"`
	Sentiment  int              `json:"sentiment"`
	Confidence float64          `json:"confidence"`
	Analysis   emotion.Analysis `json:"analysis"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Trends summarizes a student's emotions over a window.
type Trends struct {
	Since             time.Time             `json:"since"`
	Total             int                   `json:"total"`
	Counts            map[emotion.Label]int `json:"counts"`
	Dominant          emotion.Label         `json:"dominant"`
	AverageSentiment  float64               `json:"average_sentiment"`
	AverageConfidence float64               `json:"average_confidence"`
	Recent            []EmotionEntry        `json:"recent"`
}

type Repository interface {
	InsertProgress(ctx context.Context, r *Record) error
	ListProgress(ctx context.Context, userID string) ([]Record, error)
	GetProgress(ctx context.Context, userID, sessionID string) (Record, error)
	UpdateComprehension(ctx context.Context, userID, sessionID string, level int, at time.Time) (Record, error)
}

type EmotionRepository interface {
	InsertEmotion(ctx context.Context, e *EmotionEntry) error
	// ListEmotions returns entries created at or after since, newest first.
	ListEmotions(ctx context.Context, userID string, since time.Time) ([]EmotionEntry, error)
}
