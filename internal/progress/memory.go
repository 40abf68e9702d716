package progress

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryRepository keeps records and emotions in process memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	records  []Record
	emotions []EmotionEntry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) InsertProgress(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *r
	c.TopicsReviewed = slices.Clone(r.TopicsReviewed)
	m.records = append(m.records, c)
	return nil
}

func (m *MemoryRepository) ListProgress(_ context.Context, userID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Record{}
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetProgress returns the latest record of the session.
func (m *MemoryRepository) GetProgress(_ context.Context, userID, sessionID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if r.UserID == userID && r.SessionID == sessionID {
			return r, nil
		}
	}
	return Record{}, ErrNotFound
}

func (m *MemoryRepository) UpdateComprehension(_ context.Context, userID, sessionID string, level int, at time.Time) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.records) - 1; i >= 0; i-- {
		r := &m.records[i]
		if r.UserID == userID && r.SessionID == sessionID {
			r.ComprehensionLevel = level
			r.UpdatedAt = at
			return *r, nil
		}
	}
	return Record{}, ErrNotFound
}

func (m *MemoryRepository) InsertEmotion(_ context.Context, e *EmotionEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emotions = append(m.emotions, *e)
	return nil
}

func (m *MemoryRepository) ListEmotions(_ context.Context, userID string, since time.Time) ([]EmotionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []EmotionEntry{}
	for i := len(m.emotions) - 1; i >= 0; i-- {
		e := m.emotions[i]
		if e.UserID == userID && !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}
