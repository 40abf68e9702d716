package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/study-buddy-core/server/internal/agent/model"
	"github.com/study-buddy-core/server/internal/emotion"
)

func sampleHistory(sessionID string) *model.History {
	h := model.NewHistory(sessionID, model.QueryInput{
		UserID:    "42",
		Persona:   "3",
		StudyMode: model.Review,
		Language:  model.French,
	})
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	h.Append(model.Message{Text: "Bonjour", IsUser: true, Timestamp: ts, Emotion: emotion.Neutral})
	h.Append(model.Message{Text: "Salut !", IsUser: false, Timestamp: ts.Add(time.Second)})
	return h
}

func TestMemoryHistoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryHistoryStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrHistoryNotFound)

	h := sampleHistory("s1")
	require.NoError(t, store.Put(ctx, "s1", h))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestMemoryHistoryStore_IsolatesCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryHistoryStore()

	h := sampleHistory("s1")
	require.NoError(t, store.Put(ctx, "s1", h))
	h.Append(model.Message{Text: "not stored"})

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, got.Messages, 2)

	got.Messages[0].Text = "changed"
	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", again.Messages[0].Text)
}

func TestMemoryHistoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryHistoryStore()
	require.NoError(t, store.Put(ctx, "s1", sampleHistory("s1")))

	require.NoError(t, store.Delete(ctx, "s1"))
	assert.ErrorIs(t, store.Delete(ctx, "s1"), model.ErrHistoryNotFound)

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, model.ErrHistoryNotFound)
}
