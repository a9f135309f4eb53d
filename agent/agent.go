package agent

import (
	"context"
	"fmt"

	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/tool"
)

// Agent describes one of the desk's specialists: its identity, persona and
// the tools it is allowed to call. Agents are stateless; all per-conversation
// state travels in the Task.
type Agent struct {
	ID            core.AgentID
	Role          string
	Goal          string
	Backstory     string
	Tools         []tool.Tool
	Template      string
	MaxIterations int
}

// Instructions composes the persona block handed to the model as the system
// prompt.
func (a *Agent) Instructions() string {
	return fmt.Sprintf("Voce e: %s\nSeu objetivo: %s\n\n%s", a.Role, a.Goal, a.Backstory)
}

// Task is a single fully-rendered unit of work for an executor: the persona,
// the rendered prompt and the tools the model may invoke during the run.
type Task struct {
	AgentID       core.AgentID
	Instructions  string
	Prompt        string
	Tools         []tool.Tool
	Session       *core.SessionContext
	MaxIterations int
}

// Executor runs a task against a model backend and returns the raw assistant
// reply, control markers included.
type Executor interface {
	Execute(ctx context.Context, task Task) (string, error)
}
