// Package tool implements the function-calling capabilities exposed to the
// conversational agents: authentication, credit-limit operations, the
// financial-interview score calculation and foreign-exchange quotes.
//
// Tools never receive ambient global state. The active session's context
// travels explicitly in a Context value built per invocation, so concurrent
// conversations cannot contaminate each other.
package tool

import (
	"context"
	"fmt"

	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/logging"
)

// Tool defines a structured capability an agent can invoke during a turn.
//
// Implementations should:
//   - Provide clear, descriptive names (snake_case) and descriptions
//   - Define a JSON schema for parameters
//   - Report domain outcomes (validation failures, lockout, rejections) in
//     the returned string, reserving the error for infrastructure problems
//   - Be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description is provided to the model to decide when to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool. Arguments arrive parsed from JSON.
	Call(tc *Context, args map[string]any) (string, error)
}

// Context is the constrained surface a tool sees for one invocation: the
// cancellation context, the owning session's mutable state and a logger.
type Context struct {
	ctx     context.Context
	session *core.SessionContext
	agentID core.AgentID
	logger  logging.Logger
}

// NewContext builds a tool invocation context.
func NewContext(ctx context.Context, session *core.SessionContext, agentID core.AgentID, logger logging.Logger) *Context {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Context{ctx: ctx, session: session, agentID: agentID, logger: logger}
}

// Context returns the cancellation context of the invocation.
func (tc *Context) Context() context.Context { return tc.ctx }

// Session returns the owning conversation's mutable state.
func (tc *Context) Session() *core.SessionContext { return tc.session }

// AgentID returns the agent on whose behalf the tool runs.
func (tc *Context) AgentID() core.AgentID { return tc.agentID }

// Logger returns the invocation logger.
func (tc *Context) Logger() logging.Logger { return tc.logger }

func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required field %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("field %q must be a string", key)
	}
	return s, nil
}

// floatArg accepts JSON numbers and numeric strings; models are not reliable
// about quoting.
func floatArg(args map[string]any, key string) (float64, error) {
	raw, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("missing required field %q", key)
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err != nil {
			return 0, fmt.Errorf("field %q must be a number", key)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("field %q must be a number", key)
	}
}

func intArg(args map[string]any, key string) (int, error) {
	f, err := floatArg(args, key)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
