package repo

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/study-buddy-core/server/internal/agent/model"
)

var (
	testRedisURL string
	redContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	redContainer, err = redis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}

	endpoint, err := redContainer.Endpoint(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get redis endpoint: %v\n", err)
		os.Exit(1)
	}
	testRedisURL = "redis://" + endpoint

	code := m.Run()

	if err := redContainer.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate redis container: %v\n", err)
	}
	os.Exit(code)
}

func setupTestClient(t *testing.T) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	opts, err := goredis.ParseURL(testRedisURL)
	require.NoError(t, err)
	client := goredis.NewClient(opts)
	require.NoError(t, client.FlushAll(ctx).Err())

	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestRedisHistoryStore_RoundTrip(t *testing.T) {
	client := setupTestClient(t)
	store := NewRedisHistoryStore(client, time.Hour)
	ctx := context.Background()

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, model.ErrHistoryNotFound)

	h := sampleHistory("s1")
	require.NoError(t, store.Put(ctx, "s1", h))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, h.StudyMode, got.StudyMode)
	assert.Equal(t, h.Language, got.Language)
	assert.Equal(t, h.Persona, got.Persona)
	assert.Equal(t, h.UserID, got.UserID)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "Bonjour", got.Messages[0].Text)
	assert.True(t, got.Messages[0].IsUser)
	assert.True(t, h.Messages[0].Timestamp.Equal(got.Messages[0].Timestamp))

	ttl, err := client.TTL(ctx, "conversation:s1:messages").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestRedisHistoryStore_PutReplaces(t *testing.T) {
	client := setupTestClient(t)
	store := NewRedisHistoryStore(client, 0)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "s1", sampleHistory("s1")))

	short := sampleHistory("s1")
	short.Messages = short.Messages[:1]
	require.NoError(t, store.Put(ctx, "s1", short))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)
}

func TestRedisHistoryStore_EmptySessionIsFound(t *testing.T) {
	client := setupTestClient(t)
	store := NewRedisHistoryStore(client, time.Minute)
	ctx := context.Background()

	h := model.NewHistory("fresh", model.QueryInput{StudyMode: model.Focused, Language: model.English})
	require.NoError(t, store.Put(ctx, "fresh", h))

	got, err := store.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.Empty(t, got.Messages)
}

func TestRedisHistoryStore_Delete(t *testing.T) {
	client := setupTestClient(t)
	store := NewRedisHistoryStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "s1", sampleHistory("s1")))
	require.NoError(t, store.Delete(ctx, "s1"))
	assert.ErrorIs(t, store.Delete(ctx, "s1"), model.ErrHistoryNotFound)
}
