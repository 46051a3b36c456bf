// Package session owns one orchestrator and its conversation memory per
// session id, and keeps the memory in sync with a SessionRepository.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/weathernews-agent/server/internal/agent/graph"
	"github.com/weathernews-agent/server/internal/agent/graph/conversations"
	"github.com/weathernews-agent/server/internal/agent/model"
	logx "github.com/weathernews-agent/server/pkg/logger"
)

// RunnerFactory builds the orchestrator bound to one session's memory.
type RunnerFactory func(ctx context.Context, mm *conversations.MessagesManager) (graph.Runner, error)

// Session is the in-process state of one conversation. Turns of the same
// session are serialized by mu.
type Session struct {
	ID string

	mu     sync.Mutex
	memory *conversations.ConversationMemory
	runner graph.Runner
	// dropped is set under mu once Reset has discarded the session.
	dropped bool
}

type Manager struct {
	repo      model.SessionRepository
	newRunner RunnerFactory
	maxTurns  int

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(repo model.SessionRepository, newRunner RunnerFactory, maxTurns int) *Manager {
	return &Manager{
		repo:      repo,
		newRunner: newRunner,
		maxTurns:  maxTurns,
		sessions:  make(map[string]*Session),
	}
}

// Handle runs one turn for the session and persists its memory afterwards,
// whether or not the turn succeeded.
func (m *Manager) Handle(ctx context.Context, sessionID, query string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("session id is empty")
	}

	s, err := m.acquire(ctx, sessionID)
	if err != nil {
		return "", err
	}
	defer s.mu.Unlock()

	reply, runErr := s.runner.Invoke(ctx, model.QueryInput{SessionID: sessionID, Query: query})
	if runErr != nil {
		logx.Error().Err(runErr).Str("session_id", sessionID).Msg("Turn failed")
	}

	if err := m.repo.SaveMemory(ctx, sessionID, s.memory.Snapshot()); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to persist session memory")
	}

	return reply, runErr
}

// Reset clears the stored snapshot and drops the in-process session. A turn
// already running on the session finishes and saves first.
func (m *Manager) Reset(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	s := m.sessions[sessionID]
	m.mu.Unlock()

	if s != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}

	// clear before unlinking so a concurrent get cannot hydrate the old snapshot
	clearErr := m.repo.ClearMemory(ctx, sessionID)

	if s != nil {
		s.dropped = true
		m.mu.Lock()
		if m.sessions[sessionID] == s {
			delete(m.sessions, sessionID)
		}
		m.mu.Unlock()
	}

	if clearErr != nil {
		return fmt.Errorf("clear session %s: %w", sessionID, clearErr)
	}
	logx.Debug().Str("session_id", sessionID).Msg("Session reset")
	return nil
}

// LastLocation returns the location remembered for the session, or "".
func (m *Manager) LastLocation(ctx context.Context, sessionID string) (string, error) {
	s, err := m.acquire(ctx, sessionID)
	if err != nil {
		return "", err
	}
	defer s.mu.Unlock()
	return s.memory.LastLocation(), nil
}

// Turns returns a copy of the session's retained turns.
func (m *Manager) Turns(ctx context.Context, sessionID string) ([]model.Turn, error) {
	s, err := m.acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return s.memory.Turns(), nil
}

// acquire returns the live session with its mutex held, retrying when the
// session was reset while the caller waited for it.
func (m *Manager) acquire(ctx context.Context, sessionID string) (*Session, error) {
	for {
		s, err := m.get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if !s.dropped {
			return s, nil
		}
		s.mu.Unlock()
	}
}

// get returns the live session, creating and hydrating it on first use.
// Loading and graph construction run outside m.mu; when two callers race
// to create the same session the first one stored wins.
func (m *Manager) get(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	memory := conversations.NewConversationMemory(m.maxTurns)
	snapshot, err := m.repo.LoadMemory(ctx, sessionID)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to load session memory, starting empty")
	} else if snapshot != nil {
		memory.Restore(*snapshot)
	}

	runner, err := m.newRunner(ctx, conversations.NewMessagesManager(memory))
	if err != nil {
		return nil, fmt.Errorf("build runner for session %s: %w", sessionID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[sessionID]; ok {
		return existing, nil
	}

	s = &Session{ID: sessionID, memory: memory, runner: runner}
	m.sessions[sessionID] = s
	logx.Debug().
		Str("session_id", sessionID).
		Int("turns", len(memory.Turns())).
		Str("last_location", memory.LastLocation()).
		Msg("Session created")
	return s, nil
}
