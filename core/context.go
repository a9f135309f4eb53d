package core

import (
	"sync"
)

// Message is a single role/content entry in a conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionContext is the mutable record of a single conversation: who the
// customer is, how far authentication got, and every message exchanged. It is
// mutated by the orchestrator and by tool side effects during a turn and is
// safe for concurrent access.
//
// Contract:
//   - RecordMessage appends in insertion order; history is never reordered,
//     deduplicated or capped here (prompt builders truncate their excerpt)
//   - FailedAuthAttempts only grows within a session
//   - once authenticated, a session never flips back to unauthenticated;
//     the flag resets only when the context is recreated.
type SessionContext struct {
	Authenticated      bool           `json:"cliente_autenticado"`
	CPF                string         `json:"cpf,omitempty"`
	DisplayName        string         `json:"nome_cliente,omitempty"`
	Score              int            `json:"score"`
	CurrentLimit       float64        `json:"limite_atual"`
	FailedAuthAttempts int            `json:"tentativas_auth"`
	History            []Message      `json:"historico"`
	Extra              map[string]any `json:"dados_extras"`

	mu sync.RWMutex
}

// NewSessionContext creates an empty, unauthenticated context.
func NewSessionContext() *SessionContext {
	return &SessionContext{
		History: []Message{},
		Extra:   map[string]any{},
	}
}

// RecordMessage appends a message to the history. Roles are not validated;
// callers are trusted.
func (c *SessionContext) RecordMessage(role, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.History = append(c.History, Message{Role: role, Content: content})
}

// HistoryCopy returns a defensive copy of the full message history.
func (c *SessionContext) HistoryCopy() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Message, len(c.History))
	copy(out, c.History)
	return out
}

// LastMessages returns a copy of the most recent n history entries.
func (c *SessionContext) LastMessages(n int) []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	start := len(c.History) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(c.History)-start)
	copy(out, c.History[start:])
	return out
}

// MessageCount returns the number of recorded messages.
func (c *SessionContext) MessageCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.History)
}

// MarkAuthenticated records a successful authentication, binding the client's
// identity and credit data to the session.
func (c *SessionContext) MarkAuthenticated(client Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Authenticated = true
	c.CPF = client.CPF
	c.DisplayName = client.Name
	c.Score = client.Score
	c.CurrentLimit = client.CurrentLimit
}

// RegisterFailedAuth increments the failed-attempt counter and returns the
// new total. The counter never decreases within a session.
func (c *SessionContext) RegisterFailedAuth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.FailedAuthAttempts++
	return c.FailedAuthAttempts
}

// IsAuthenticated reports whether the customer authenticated in this session.
func (c *SessionContext) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Authenticated
}

// Snapshot returns a point-in-time copy of the identity and credit fields.
func (c *SessionContext) Snapshot() (authenticated bool, cpf, name string, score int, limit float64, attempts int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Authenticated, c.CPF, c.DisplayName, c.Score, c.CurrentLimit, c.FailedAuthAttempts
}

// SetScore updates the session's score.
func (c *SessionContext) SetScore(score int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Score = score
}

// SetLimit updates the session's current credit limit.
func (c *SessionContext) SetLimit(limit float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentLimit = limit
}

// SetExtra stores a free-form key/value pair on the session.
func (c *SessionContext) SetExtra(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Extra == nil {
		c.Extra = map[string]any{}
	}
	c.Extra[key] = value
}

// GetExtra retrieves a free-form value and an existence flag.
func (c *SessionContext) GetExtra(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.Extra[key]
	return v, ok
}
