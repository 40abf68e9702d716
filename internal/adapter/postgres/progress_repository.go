package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/study-buddy-core/server/internal/emotion"
	"github.com/study-buddy-core/server/internal/progress"
)

const progressColumns = `id::text, user_id, session_id, topics_reviewed, comprehension_level, time_spent,
	questions_answered, correct_answers, created_at, updated_at`

// ProgressRepo stores study_progress and user_emotions rows.
type ProgressRepo struct {
	pool *pgxpool.Pool
}

var (
	_ progress.Repository        = (*ProgressRepo)(nil)
	_ progress.EmotionRepository = (*ProgressRepo)(nil)
)

func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

func scanRecord(row pgx.Row) (progress.Record, error) {
	var (
		r      progress.Record
		topics []byte
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.SessionID, &topics, &r.ComprehensionLevel, &r.TimeSpent,
		&r.QuestionsAnswered, &r.CorrectAnswers, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return progress.Record{}, err
	}
	r.TopicsReviewed = []string{}
	if len(topics) > 0 {
		if err := json.Unmarshal(topics, &r.TopicsReviewed); err != nil {
			return progress.Record{}, fmt.Errorf("decode topics: %w", err)
		}
	}
	return r, nil
}

func (p *ProgressRepo) InsertProgress(ctx context.Context, r *progress.Record) error {
	topics, err := json.Marshal(nonNil(r.TopicsReviewed))
	if err != nil {
		return fmt.Errorf("encode topics: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO study_progress (id, user_id, session_id, topics_reviewed, comprehension_level, time_spent,
			questions_answered, correct_answers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.UserID, r.SessionID, topics, r.ComprehensionLevel, r.TimeSpent,
		r.QuestionsAnswered, r.CorrectAnswers, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert progress: %w", err)
	}
	return nil
}

func (p *ProgressRepo) ListProgress(ctx context.Context, userID string) ([]progress.Record, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+progressColumns+` FROM study_progress WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer rows.Close()

	out := []progress.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *ProgressRepo) GetProgress(ctx context.Context, userID, sessionID string) (progress.Record, error) {
	r, err := scanRecord(p.pool.QueryRow(ctx, `SELECT `+progressColumns+` FROM study_progress
		WHERE user_id = $1 AND session_id = $2 ORDER BY created_at DESC LIMIT 1`, userID, sessionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return progress.Record{}, progress.ErrNotFound
	}
	if err != nil {
		return progress.Record{}, fmt.Errorf("failed to get progress: %w", err)
	}
	return r, nil
}

// UpdateComprehension changes the latest record of the session.
func (p *ProgressRepo) UpdateComprehension(ctx context.Context, userID, sessionID string, level int, at time.Time) (progress.Record, error) {
	r, err := scanRecord(p.pool.QueryRow(ctx, `
		UPDATE study_progress SET comprehension_level = $3, updated_at = $4
		WHERE id = (
			SELECT id FROM study_progress WHERE user_id = $1 AND session_id = $2
			ORDER BY created_at DESC LIMIT 1
		)
		RETURNING `+progressColumns, userID, sessionID, level, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return progress.Record{}, progress.ErrNotFound
	}
	if err != nil {
		return progress.Record{}, fmt.Errorf("failed to update comprehension: %w", err)
	}
	return r, nil
}

func (p *ProgressRepo) InsertEmotion(ctx context.Context, e *progress.EmotionEntry) error {
	analysis, err := json.Marshal(e.Analysis)
	if err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO user_emotions (id, user_id, session_id, emotion, sentiment, confidence, analysis_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.UserID, e.SessionID, string(e.Emotion), e.Sentiment, e.Confidence, analysis, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert emotion: %w", err)
	}
	return nil
}

func (p *ProgressRepo) ListEmotions(ctx context.Context, userID string, since time.Time) ([]progress.EmotionEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id::text, user_id, session_id, emotion, sentiment, confidence, analysis_data, created_at
		FROM user_emotions WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at DESC`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list emotions: %w", err)
	}
	defer rows.Close()

	out := []progress.EmotionEntry{}
	for rows.Next() {
		var (
			e        progress.EmotionEntry
			label    string
			analysis []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.SessionID, &label, &e.Sentiment, &e.Confidence, &analysis, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan emotion: %w", err)
		}
		e.Emotion = emotion.Label(label)
		if len(analysis) > 0 {
			if err := json.Unmarshal(analysis, &e.Analysis); err != nil {
				return nil, fmt.Errorf("decode analysis: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
