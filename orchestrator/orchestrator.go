// Package orchestrator routes each customer turn to the current specialist
// agent and acts on the control markers embedded in replies: redirects swap
// the active agent and replay the turn, the termination marker closes the
// conversation for good.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bancoagil/agentdesk/agent"
	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/handoff"
	"github.com/bancoagil/agentdesk/history"
	"github.com/bancoagil/agentdesk/logging"
)

// ClosedSessionText is returned for every message after termination.
const ClosedSessionText = "O atendimento foi encerrado. Para iniciar um novo atendimento, por favor reinicie a conversa."

// ApologyText replaces the reply when the executor fails; the turn still
// completes and the customer can try again.
const ApologyText = "Desculpe, ocorreu um erro no processamento. Por favor, tente novamente."

// An interview reply shorter than this is treated as markup noise and not
// preserved across a hand-off.
const minPreservedReplyLen = 20

// Options configure an orchestrator.
type Options struct {
	ConversationID  string
	MaxRedirectHops int
	ExecutorTimeout time.Duration
	History         *history.Store
	Logger          logging.Logger
}

// Orchestrator owns one conversation: its session state, the currently
// active agent and the termination flag. Turns are serialized per
// conversation.
type Orchestrator struct {
	id       string
	registry *agent.Registry
	builder  *agent.TaskBuilder
	executor agent.Executor
	history  *history.Store
	logger   logging.Logger
	maxHops  int
	timeout  time.Duration

	mu         sync.Mutex
	sc         *core.SessionContext
	current    core.AgentID
	terminated bool
}

// New constructs an orchestrator starting at the triage agent.
func New(registry *agent.Registry, builder *agent.TaskBuilder, executor agent.Executor, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		MaxRedirectHops: 1,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.ConversationID == "" {
		opts.ConversationID = core.NewID()
	}

	return &Orchestrator{
		id:       opts.ConversationID,
		registry: registry,
		builder:  builder,
		executor: executor,
		history:  opts.History,
		logger:   opts.Logger,
		maxHops:  opts.MaxRedirectHops,
		timeout:  opts.ExecutorTimeout,
		sc:       core.NewSessionContext(),
		current:  core.AgentTriage,
	}
}

// ID returns the conversation id.
func (o *Orchestrator) ID() string { return o.id }

// Context exposes the session state, mainly for tests and tooling.
func (o *Orchestrator) Context() *core.SessionContext { return o.sc }

// ProcessMessage runs one customer turn and returns the reply with all
// control markers stripped. A terminated conversation answers with
// ClosedSessionText without invoking any agent.
func (o *Orchestrator) ProcessMessage(ctx context.Context, message string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.terminated {
		return ClosedSessionText, nil
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	turnsTotal.WithLabelValues(o.current.String()).Inc()
	o.sc.RecordMessage("user", message)
	o.logger.Info("processing turn",
		"conversation_id", o.id, "agent", o.current, "messages", o.sc.MessageCount())

	reply, err := o.processTurn(ctx, message, 0)
	if err != nil {
		return "", err
	}

	o.sc.RecordMessage("assistant", reply)
	o.persist(message, reply)
	return reply, nil
}

// processTurn invokes the active agent and follows at most maxHops redirects.
// Termination is honored at any depth; a redirect past the budget is stripped
// from the reply but otherwise ignored.
func (o *Orchestrator) processTurn(ctx context.Context, message string, hop int) (string, error) {
	raw, err := o.invokeAgent(ctx, message)
	if err != nil {
		return "", err
	}

	signal := handoff.Parse(raw)
	clean := handoff.Strip(raw)

	switch signal.Kind {
	case handoff.Terminate:
		o.logger.Info("termination detected", "conversation_id", o.id, "agent", o.current)
		terminationsTotal.Inc()
		o.terminated = true
		return clean, nil

	case handoff.Redirect:
		if hop >= o.maxHops {
			o.logger.Warn("redirect budget exhausted, marker ignored",
				"conversation_id", o.id, "agent", o.current, "target", signal.Target)
			return clean, nil
		}

		previous := o.current
		o.current = signal.Target
		redirectsTotal.WithLabelValues(previous.String(), signal.Target.String()).Inc()
		o.logger.Info("redirect detected",
			"conversation_id", o.id, "from", previous, "to", signal.Target)

		// An interview summary carries the collected answers; losing it
		// would make the credit agent re-ask everything.
		if previous == core.AgentInterview && len(strings.TrimSpace(clean)) > minPreservedReplyLen {
			o.sc.RecordMessage("assistant", clean)
			o.persist(message, clean)
		}

		return o.processTurn(ctx, message, hop+1)
	}

	return clean, nil
}

// invokeAgent renders the task for the active agent and executes it. Executor
// failures degrade to the apology text; configuration and template failures
// propagate.
func (o *Orchestrator) invokeAgent(ctx context.Context, message string) (string, error) {
	a, err := o.registry.Get(o.current)
	if err != nil {
		return "", err
	}
	task, err := o.builder.Build(a, o.sc, message)
	if err != nil {
		return "", err
	}

	started := time.Now()
	reply, err := o.executor.Execute(ctx, task)
	if err != nil {
		executorFailuresTotal.WithLabelValues(o.current.String()).Inc()
		o.logger.Error("executor failed",
			"conversation_id", o.id, "agent", o.current, "error", err)
		return ApologyText, nil
	}
	o.logger.Debug("executor finished",
		"conversation_id", o.id, "agent", o.current, "elapsed", time.Since(started))
	return reply, nil
}

func (o *Orchestrator) persist(userMessage, reply string) {
	if o.history == nil {
		return
	}
	o.history.Append(o.id, o.current, "user", userMessage)
	o.history.Append(o.id, o.current, "assistant", reply)
}

// State reports the conversation's observable state.
func (o *Orchestrator) State() core.StateSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	authenticated, _, name, _, _, _ := o.sc.Snapshot()
	return core.StateSnapshot{
		SessionID:     o.id,
		CurrentAgent:  o.current,
		Authenticated: authenticated,
		DisplayName:   name,
		Terminated:    o.terminated,
		MessageCount:  o.sc.MessageCount(),
	}
}

// Reset discards all session state and returns the conversation to triage.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sc = core.NewSessionContext()
	o.current = core.AgentTriage
	o.terminated = false
}
