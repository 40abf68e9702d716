package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/study-buddy-core/server/internal/agent/model"
	errx "github.com/study-buddy-core/server/internal/core/error"
	logx "github.com/study-buddy-core/server/pkg/logger"
)

const (
	metaStudyMode = "study_mode"
	metaLanguage  = "language"
	metaPersona   = "persona"
	metaUserID    = "user_id"
)

// RedisHistoryStore keeps each session as a message list plus a metadata hash.
type RedisHistoryStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisHistoryStore(rdb redis.Cmdable, ttl time.Duration) *RedisHistoryStore {
	return &RedisHistoryStore{rdb: rdb, ttl: ttl}
}

func (r *RedisHistoryStore) messagesKey(sessionID string) string {
	return fmt.Sprintf("conversation:%s:messages", sessionID)
}

func (r *RedisHistoryStore) metaKey(sessionID string) string {
	return fmt.Sprintf("conversation:%s:meta", sessionID)
}

func (r *RedisHistoryStore) Get(ctx context.Context, sessionID string) (*model.History, error) {
	msgKey, metaKey := r.messagesKey(sessionID), r.metaKey(sessionID)

	pipe := r.rdb.Pipeline()
	rowsCmd := pipe.LRange(ctx, msgKey, 0, -1)
	metaCmd := pipe.HGetAll(ctx, metaKey)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		logx.Error().Err(err).Str("session", sessionID).Msg("failed to load conversation from redis")
		return nil, errx.WrapRedis(err)
	}

	meta := metaCmd.Val()
	if len(meta) == 0 {
		return nil, model.ErrHistoryNotFound
	}

	rows := rowsCmd.Val()
	msgs := make([]model.Message, 0, len(rows))
	for i, s := range rows {
		var m model.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("session", sessionID).Int("index", i).Msg("failed to unmarshal message")
			return nil, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		msgs = append(msgs, m)
	}

	return &model.History{
		SessionID: sessionID,
		UserID:    meta[metaUserID],
		StudyMode: model.ParseStudyMode(meta[metaStudyMode]),
		Language:  model.ParseLanguage(meta[metaLanguage]),
		Persona:   meta[metaPersona],
		Messages:  msgs,
	}, nil
}

// Put replaces the stored session atomically and refreshes its TTL.
func (r *RedisHistoryStore) Put(ctx context.Context, sessionID string, h *model.History) error {
	msgKey, metaKey := r.messagesKey(sessionID), r.metaKey(sessionID)

	rows := make([]any, 0, len(h.Messages))
	for _, m := range h.Messages {
		b, err := json.Marshal(m)
		if err != nil {
			logx.Error().Err(err).Str("session", sessionID).Msg("failed to marshal message")
			return fmt.Errorf("marshal message: %w", err)
		}
		rows = append(rows, b)
	}

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, msgKey, metaKey)
		if len(rows) > 0 {
			pipe.RPush(ctx, msgKey, rows...)
		}
		pipe.HSet(ctx, metaKey,
			metaStudyMode, string(h.StudyMode),
			metaLanguage, string(h.Language),
			metaPersona, h.Persona,
			metaUserID, h.UserID,
		)
		// extend TTL on touch
		if r.ttl > 0 {
			pipe.Expire(ctx, msgKey, r.ttl)
			pipe.Expire(ctx, metaKey, r.ttl)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("session", sessionID).Msg("failed to store conversation in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisHistoryStore) Delete(ctx context.Context, sessionID string) error {
	n, err := r.rdb.Del(ctx, r.messagesKey(sessionID), r.metaKey(sessionID)).Result()
	if err != nil {
		logx.Error().Err(err).Str("session", sessionID).Msg("failed to delete conversation from redis")
		return errx.WrapRedis(err)
	}
	if n == 0 {
		return model.ErrHistoryNotFound
	}
	return nil
}

var _ model.HistoryStore = (*RedisHistoryStore)(nil)
