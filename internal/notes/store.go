package notes

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	errx "github.com/study-buddy-core/server/internal/core/error"
	logx "github.com/study-buddy-core/server/pkg/logger"
)

// Entry is one stored note chunk with its embedding.
type Entry struct {
	Text   string    `json:"text"`
	Vector []float64 `json:"embedding"`
}

type Store interface {
	Append(ctx context.Context, userID string, entries []Entry) error
	List(ctx context.Context, userID string) ([]Entry, error)
}

type MemoryStore struct {
	mu    sync.RWMutex
	notes map[string][]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notes: make(map[string][]Entry)}
}

func (m *MemoryStore) Append(_ context.Context, userID string, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[userID] = append(m.notes[userID], entries...)
	return nil
}

func (m *MemoryStore) List(_ context.Context, userID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Entry(nil), m.notes[userID]...), nil
}

// RedisStore keeps each user's chunks in the list notes:{user}.
type RedisStore struct {
	rdb redis.Cmdable
}

func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (r *RedisStore) key(userID string) string {
	return fmt.Sprintf("notes:%s", userID)
}

func (r *RedisStore) Append(ctx context.Context, userID string, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal note: %w", err)
		}
		rows = append(rows, b)
	}
	if err := r.rdb.RPush(ctx, r.key(userID), rows...).Err(); err != nil {
		logx.Error().Err(err).Str("user_id", userID).Msg("failed to store notes in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisStore) List(ctx context.Context, userID string) ([]Entry, error) {
	rows, err := r.rdb.LRange(ctx, r.key(userID), 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, errx.WrapRedis(err)
	}
	entries := make([]Entry, 0, len(rows))
	for i, s := range rows {
		var e Entry
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			logx.Warn().Err(err).Str("user_id", userID).Int("index", i).Msg("skipping malformed note")
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
