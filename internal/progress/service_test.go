package progress

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/study-buddy-core/server/internal/core/error"
	"github.com/study-buddy-core/server/internal/emotion"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestService() (*Service, *MemoryRepository, *clockwork.FakeClock) {
	repo := NewMemoryRepository()
	clock := clockwork.NewFakeClockAt(t0)
	return NewService(repo, repo, clock), repo, clock
}

func TestTrack_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name string
		rec  Record
	}{
		{"missing session", Record{UserID: "u1", ComprehensionLevel: 50}},
		{"below range", Record{UserID: "u1", SessionID: "s1", ComprehensionLevel: -1}},
		{"above range", Record{UserID: "u1", SessionID: "s1", ComprehensionLevel: 101}},
		{"negative time", Record{UserID: "u1", SessionID: "s1", TimeSpent: -5}},
		{"too many correct", Record{UserID: "u1", SessionID: "s1", QuestionsAnswered: 2, CorrectAnswers: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Track(ctx, tt.rec)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, errx.StatusOf(err))
		})
	}
}

func TestTrack_Boundaries(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	for _, level := range []int{0, 100} {
		r, err := svc.Track(ctx, Record{UserID: "u1", SessionID: "s1", ComprehensionLevel: level})
		require.NoError(t, err)
		assert.Equal(t, level, r.ComprehensionLevel)
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, t0, r.CreatedAt)
	}
}

func TestUserStats(t *testing.T) {
	svc, _, clock := newTestService()
	ctx := context.Background()

	_, err := svc.Track(ctx, Record{UserID: "u1", SessionID: "s1", ComprehensionLevel: 70, TimeSpent: 30, TopicsReviewed: []string{"algebra", "geometry"}})
	require.NoError(t, err)
	clock.Advance(24 * time.Hour)
	_, err = svc.Track(ctx, Record{UserID: "u1", SessionID: "s2", ComprehensionLevel: 85, TimeSpent: 45, TopicsReviewed: []string{"geometry", " calculus "}})
	require.NoError(t, err)
	_, err = svc.Track(ctx, Record{UserID: "u2", SessionID: "s3", ComprehensionLevel: 10, TimeSpent: 5})
	require.NoError(t, err)

	stats, err := svc.UserStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 75, stats.TotalTimeSpent)
	assert.Equal(t, 77.5, stats.AverageComprehension)
	assert.Equal(t, []string{"algebra", "calculus", "geometry"}, stats.TopicsReviewed)
	require.NotNil(t, stats.LastSessionDate)
	assert.Equal(t, t0.Add(24*time.Hour), *stats.LastSessionDate)
}

func TestUserStats_Empty(t *testing.T) {
	svc, _, _ := newTestService()

	stats, err := svc.UserStats(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalSessions)
	assert.Zero(t, stats.AverageComprehension)
	assert.Empty(t, stats.TopicsReviewed)
	assert.NotNil(t, stats.TopicsReviewed)
	assert.Nil(t, stats.LastSessionDate)
}

func TestUpdateComprehension(t *testing.T) {
	svc, _, clock := newTestService()
	ctx := context.Background()

	_, err := svc.UpdateComprehension(ctx, "u1", "s1", 40)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = svc.Track(ctx, Record{UserID: "u1", SessionID: "s1", ComprehensionLevel: 20})
	require.NoError(t, err)

	_, err = svc.UpdateComprehension(ctx, "u1", "s1", 101)
	assert.Equal(t, http.StatusBadRequest, errx.StatusOf(err))

	clock.Advance(time.Hour)
	r, err := svc.UpdateComprehension(ctx, "u1", "s1", 90)
	require.NoError(t, err)
	assert.Equal(t, 90, r.ComprehensionLevel)
	assert.Equal(t, t0.Add(time.Hour), r.UpdatedAt)

	got, err := svc.SessionProgress(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, 90, got.ComprehensionLevel)
}

func TestEmotionTrends(t *testing.T) {
	svc, _, clock := newTestService()
	ctx := context.Background()

	record := func(text string) {
		require.NoError(t, svc.RecordEmotion(ctx, "u1", "s1", emotion.Detect(text)))
		clock.Advance(time.Minute)
	}
	record("I am so happy and excited!")
	record("This is amazing, I love it")
	record("I'm worried about the exam")

	trends, err := svc.EmotionTrends(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, trends.Total)
	assert.Equal(t, 2, trends.Counts[emotion.Happy])
	assert.Equal(t, 1, trends.Counts[emotion.Anxious])
	assert.Equal(t, 0, trends.Counts[emotion.Sad])
	assert.Equal(t, emotion.Happy, trends.Dominant)
	require.Len(t, trends.Recent, 3)
	assert.Equal(t, emotion.Anxious, trends.Recent[0].Emotion)
	assert.Equal(t, clock.Now().UTC().Add(-DefaultTrendWindow), trends.Since)
}

func TestEmotionTrends_WindowAndEmpty(t *testing.T) {
	svc, _, clock := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.RecordEmotion(ctx, "u1", "s1", emotion.Detect("I am sad")))
	clock.Advance(48 * time.Hour)

	trends, err := svc.EmotionTrends(ctx, "u1", 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, trends.Total)
	assert.Equal(t, emotion.Neutral, trends.Dominant)
	assert.Len(t, trends.Counts, len(emotion.Labels))
	assert.Empty(t, trends.Recent)
}

func TestHelpers(t *testing.T) {
	assert.Zero(t, AverageComprehension(nil))
	assert.InDelta(t, 50.0, AverageComprehension([]int{0, 100}), 1e-9)
	assert.Equal(t, []string{}, AggregateTopics(nil))
	assert.Equal(t, []string{"a", "b"}, AggregateTopics([][]string{{"b", ""}, {"a", "b"}}))
}
