package progress

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	errx "github.com/study-buddy-core/server/internal/core/error"
	"github.com/study-buddy-core/server/internal/emotion"
	logx "github.com/study-buddy-core/server/pkg/logger"
)

const (
	DefaultTrendWindow = 30 * 24 * time.Hour
	recentEmotions     = 20
)

type Service struct {
	records  Repository
	emotions EmotionRepository
	clock    clockwork.Clock
}

func NewService(records Repository, emotions EmotionRepository, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{records: records, emotions: emotions, clock: clock}
}

func validateComprehension(level int) error {
	if level < 0 || level > 100 {
		return errx.Validation("Comprehension level must be between 0 and 100")
	}
	return nil
}

// Track stores a progress record for a session.
func (s *Service) Track(ctx context.Context, r Record) (Record, error) {
	if strings.TrimSpace(r.SessionID) == "" {
		return Record{}, errx.Validation("session_id is required")
	}
	if err := validateComprehension(r.ComprehensionLevel); err != nil {
		return Record{}, err
	}
	if r.TimeSpent < 0 || r.QuestionsAnswered < 0 || r.CorrectAnswers < 0 {
		return Record{}, errx.Validation("counts must not be negative")
	}
	if r.CorrectAnswers > r.QuestionsAnswered {
		return Record{}, errx.Validation("correct_answers cannot exceed questions_answered")
	}

	now := s.clock.Now().UTC()
	r.ID = uuid.NewString()
	r.TopicsReviewed = AggregateTopics([][]string{r.TopicsReviewed})
	r.CreatedAt, r.UpdatedAt = now, now

	if err := s.records.InsertProgress(ctx, &r); err != nil {
		return Record{}, fmt.Errorf("track progress: %w", err)
	}
	logx.Debug().
		Str("user_id", r.UserID).
		Str("session_id", r.SessionID).
		Int("comprehension", r.ComprehensionLevel).
		Int("time_spent", r.TimeSpent).
		Msg("Progress recorded")
	return r, nil
}

// UserStats aggregates all records of a student.
func (s *Service) UserStats(ctx context.Context, userID string) (Stats, error) {
	records, err := s.records.ListProgress(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("list progress: %w", err)
	}

	stats := Stats{TopicsReviewed: []string{}}
	levels := make([]int, 0, len(records))
	topics := make([][]string, 0, len(records))
	for i := range records {
		r := records[i]
		stats.TotalSessions++
		stats.TotalTimeSpent += r.TimeSpent
		levels = append(levels, r.ComprehensionLevel)
		topics = append(topics, r.TopicsReviewed)
		if stats.LastSessionDate == nil || r.CreatedAt.After(*stats.LastSessionDate) {
			at := r.CreatedAt
			stats.LastSessionDate = &at
		}
	}
	stats.AverageComprehension = round2(AverageComprehension(levels))
	stats.TopicsReviewed = AggregateTopics(topics)
	return stats, nil
}

func (s *Service) SessionProgress(ctx context.Context, userID, sessionID string) (Record, error) {
	r, err := s.records.GetProgress(ctx, userID, sessionID)
	if err != nil {
		return Record{}, fmt.Errorf("session progress: %w", err)
	}
	return r, nil
}

func (s *Service) UpdateComprehension(ctx context.Context, userID, sessionID string, level int) (Record, error) {
	if err := validateComprehension(level); err != nil {
		return Record{}, err
	}
	r, err := s.records.UpdateComprehension(ctx, userID, sessionID, level, s.clock.Now().UTC())
	if err != nil {
		return Record{}, fmt.Errorf("update comprehension: %w", err)
	}
	return r, nil
}

// RecordEmotion logs the verdict for a student message.
func (s *Service) RecordEmotion(ctx context.Context, userID, sessionID string, v emotion.Verdict) error {
	e := &EmotionEntry{
		ID:         uuid.NewString(),
		UserID:     userID,
		SessionID:  sessionID,
		Emotion:    v.Emotion,
		Sentiment:  v.Sentiment,
		Confidence: v.Confidence,
		Analysis:   v.Analysis,
		CreatedAt:  s.clock.Now().UTC(),
	}
	if err := s.emotions.InsertEmotion(ctx, e); err != nil {
		return fmt.Errorf("record emotion: %w", err)
	}
	return nil
}

// EmotionTrends summarizes the emotions logged within window (30 days when zero).
func (s *Service) EmotionTrends(ctx context.Context, userID string, window time.Duration) (Trends, error) {
	if window <= 0 {
		window = DefaultTrendWindow
	}
	since := s.clock.Now().UTC().Add(-window)

	entries, err := s.emotions.ListEmotions(ctx, userID, since)
	if err != nil {
		return Trends{}, fmt.Errorf("list emotions: %w", err)
	}

	t := Trends{
		Since:    since,
		Total:    len(entries),
		Counts:   make(map[emotion.Label]int, len(emotion.Labels)),
		Dominant: emotion.Neutral,
		Recent:   []EmotionEntry{},
	}
	for _, l := range emotion.Labels {
		t.Counts[l] = 0
	}
	if len(entries) == 0 {
		return t, nil
	}

	var sentiment, confidence float64
	for _, e := range entries {
		t.Counts[e.Emotion]++
		sentiment += float64(e.Sentiment)
		confidence += e.Confidence
	}
	t.AverageSentiment = round2(sentiment / float64(len(entries)))
	t.AverageConfidence = round2(confidence / float64(len(entries)))

	// Ties go to the label listed first.
	best := -1
	for _, l := range emotion.Labels {
		if t.Counts[l] > best {
			best, t.Dominant = t.Counts[l], l
		}
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CreatedAt.After(entries[j].CreatedAt) })
	if len(entries) > recentEmotions {
		entries = entries[:recentEmotions]
	}
	t.Recent = entries
	return t, nil
}

// AverageComprehension is the plain mean, 0 for no levels.
func AverageComprehension(levels []int) float64 {
	if len(levels) == 0 {
		return 0
	}
	sum := 0
	for _, l := range levels {
		sum += l
	}
	return float64(sum) / float64(len(levels))
}

// AggregateTopics returns the sorted union of the topic lists, ignoring blanks.
func AggregateTopics(lists [][]string) []string {
	seen := map[string]struct{}{}
	for _, topics := range lists {
		for _, t := range topics {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
