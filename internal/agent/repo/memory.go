package repo

import (
	"context"
	"sync"

	"github.com/weathernews-agent/server/internal/agent/model"
)

// InMemorySessionRepository keeps snapshots in process. It is used when no
// Redis URL is configured.
type InMemorySessionRepository struct {
	mu        sync.RWMutex
	snapshots map[string]model.MemorySnapshot
}

func NewInMemorySessionRepository() *InMemorySessionRepository {
	return &InMemorySessionRepository{snapshots: make(map[string]model.MemorySnapshot)}
}

func (r *InMemorySessionRepository) SaveMemory(ctx context.Context, sessionID string, snapshot model.MemorySnapshot) error {
	turns := make([]model.Turn, len(snapshot.Turns))
	copy(turns, snapshot.Turns)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[sessionID] = model.MemorySnapshot{Turns: turns, LastLocation: snapshot.LastLocation}
	return nil
}

func (r *InMemorySessionRepository) LoadMemory(ctx context.Context, sessionID string) (*model.MemorySnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.snapshots[sessionID]
	if !ok {
		return &model.MemorySnapshot{Turns: []model.Turn{}}, nil
	}
	turns := make([]model.Turn, len(s.Turns))
	copy(turns, s.Turns)
	return &model.MemorySnapshot{Turns: turns, LastLocation: s.LastLocation}, nil
}

func (r *InMemorySessionRepository) ClearMemory(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snapshots, sessionID)
	return nil
}

var _ model.SessionRepository = (*InMemorySessionRepository)(nil)
