package repo

import (
	"context"
	"sync"

	"github.com/study-buddy-core/server/internal/agent/model"
)

// MemoryHistoryStore keeps sessions in process memory.
type MemoryHistoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*model.History
}

func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{sessions: make(map[string]*model.History)}
}

func (s *MemoryHistoryStore) Get(_ context.Context, sessionID string) (*model.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.sessions[sessionID]
	if !ok {
		return nil, model.ErrHistoryNotFound
	}
	return clone(h), nil
}

func (s *MemoryHistoryStore) Put(_ context.Context, sessionID string, h *model.History) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = clone(h)
	return nil
}

func (s *MemoryHistoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return model.ErrHistoryNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

func clone(h *model.History) *model.History {
	cp := *h
	cp.Messages = make([]model.Message, len(h.Messages))
	copy(cp.Messages, h.Messages)
	return &cp
}

var _ model.HistoryStore = (*MemoryHistoryStore)(nil)
