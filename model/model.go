// Package model hosts the executor backends that drive agent turns against a
// chat-completion provider, plus shared tool dispatch plumbing.
package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bancoagil/agentdesk/agent"
	"github.com/bancoagil/agentdesk/tool"
)

// Dispatch runs the named tool from the task's tool set against the session
// context. Failures never abort the turn: unknown tools, bad arguments, tool
// errors and panics are all folded into an error string the model can relay.
func Dispatch(tc *tool.Context, tools []tool.Tool, name, rawArgs string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			tc.Logger().Error("tool panicked", "tool", name, "panic", r)
			result = fmt.Sprintf("ERRO|Falha interna na ferramenta %s", name)
		}
	}()

	var target tool.Tool
	for _, t := range tools {
		if t.Name() == name {
			target = t
			break
		}
	}
	if target == nil {
		tc.Logger().Warn("model requested unknown tool", "tool", name)
		return fmt.Sprintf("ERRO|Ferramenta desconhecida: %s", name)
	}

	args := map[string]any{}
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			tc.Logger().Warn("malformed tool arguments", "tool", name, "error", err)
			return fmt.Sprintf("ERRO|Argumentos invalidos para %s", name)
		}
	}

	out, err := target.Call(tc, args)
	if err != nil {
		tc.Logger().Error("tool call failed", "tool", name, "error", err)
		return fmt.Sprintf("ERRO|%s", err)
	}
	return out
}

// MockExecutor is an in-memory Executor for tests: it replays a scripted
// sequence of replies and records every task it receives.
type MockExecutor struct {
	mu      sync.Mutex
	replies []string
	idx     int
	Tasks   []agent.Task
	Err     error
	// OnExecute, when set, runs before each reply is returned; useful for
	// exercising tool side effects in tests.
	OnExecute func(task agent.Task)
}

// NewMockExecutor constructs a mock that returns the given replies in order.
// Once exhausted it repeats the last reply.
func NewMockExecutor(replies ...string) *MockExecutor {
	return &MockExecutor{replies: replies}
}

// Execute implements agent.Executor.
func (m *MockExecutor) Execute(_ context.Context, task agent.Task) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tasks = append(m.Tasks, task)
	if m.OnExecute != nil {
		m.OnExecute(task)
	}
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.replies) == 0 {
		return "", fmt.Errorf("no scripted replies")
	}
	reply := m.replies[m.idx]
	if m.idx < len(m.replies)-1 {
		m.idx++
	}
	return reply, nil
}

var _ agent.Executor = (*MockExecutor)(nil)
