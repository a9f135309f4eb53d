// Package session tracks the live conversations of the process and maps
// session ids to their orchestrators.
package session

import (
	"context"
	"sync"

	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/logging"
	"github.com/bancoagil/agentdesk/orchestrator"
)

// Factory builds the orchestrator for a new conversation id.
type Factory func(conversationID string) *orchestrator.Orchestrator

// Manager is a goroutine-safe registry of live conversations.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*orchestrator.Orchestrator
	factory  Factory
	logger   logging.Logger
}

// NewManager constructs a manager around the given factory.
func NewManager(factory Factory, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Manager{
		sessions: make(map[string]*orchestrator.Orchestrator),
		factory:  factory,
		logger:   logger,
	}
}

// Create starts a new conversation and returns its orchestrator.
func (m *Manager) Create() *orchestrator.Orchestrator {
	id := core.NewID()
	o := m.factory(id)

	m.mu.Lock()
	m.sessions[id] = o
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", id)
	return o
}

// Get returns the orchestrator for an id.
func (m *Manager) Get(id string) (*orchestrator.Orchestrator, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.sessions[id]
	return o, ok
}

// SubmitMessage routes a message to its session, creating a fresh session
// when the id is empty or unknown. It returns the reply and the state of the
// session that handled it.
func (m *Manager) SubmitMessage(ctx context.Context, id, message string) (string, core.StateSnapshot, error) {
	o, ok := m.Get(id)
	if !ok {
		o = m.Create()
	}

	reply, err := o.ProcessMessage(ctx, message)
	if err != nil {
		return "", core.StateSnapshot{}, err
	}
	return reply, o.State(), nil
}

// End removes a conversation from the registry.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return core.ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.logger.Info("session ended", "session_id", id)
	return nil
}

// State reports the observable state of a conversation.
func (m *Manager) State(id string) (core.StateSnapshot, error) {
	o, ok := m.Get(id)
	if !ok {
		return core.StateSnapshot{}, core.ErrSessionNotFound
	}
	return o.State(), nil
}

// History returns the in-memory transcript of a conversation.
func (m *Manager) History(id string) ([]core.Message, error) {
	o, ok := m.Get(id)
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return o.Context().HistoryCopy(), nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
