package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bancoagil/agentdesk/agent"
	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/model"
	"github.com/bancoagil/agentdesk/orchestrator"
	"github.com/bancoagil/agentdesk/service"
)

func newTestManager(t *testing.T, exec agent.Executor) *Manager {
	t.Helper()
	dir := t.TempDir()
	scorePath := filepath.Join(dir, "score_limite.csv")
	table := "score_minimo,score_maximo,limite_maximo\n0,1000,5000.00\n"
	require.NoError(t, os.WriteFile(scorePath, []byte(table), 0o644))

	credit := service.NewCreditService(scorePath, filepath.Join(dir, "solicitacoes.csv"), nil)
	registry := agent.NewRegistry(agent.Deps{
		Clients:  service.NewClientStore(filepath.Join(dir, "clientes.csv"), nil),
		Credit:   credit,
		Score:    service.NewScoreService(nil),
		Exchange: service.NewExchangeService(),
		Prompts:  agent.NewPromptStore(""),
	})
	builder := agent.NewTaskBuilder(credit, 0)

	factory := func(id string) *orchestrator.Orchestrator {
		return orchestrator.New(registry, builder, exec, func(o *orchestrator.Options) {
			o.ConversationID = id
		})
	}
	return NewManager(factory, nil)
}

func TestCreateAndGet(t *testing.T) {
	m := newTestManager(t, model.NewMockExecutor("oi"))

	o := m.Create()
	require.NotNil(t, o)
	assert.NotEmpty(t, o.ID())
	assert.Equal(t, 1, m.Len())

	got, ok := m.Get(o.ID())
	require.True(t, ok)
	assert.Same(t, o, got)

	_, ok = m.Get("desconhecida")
	assert.False(t, ok)
}

func TestSubmitMessage_ExistingSession(t *testing.T) {
	m := newTestManager(t, model.NewMockExecutor("Bom dia! Informe seu CPF."))

	o := m.Create()
	reply, state, err := m.SubmitMessage(context.Background(), o.ID(), "ola")
	require.NoError(t, err)
	assert.Equal(t, "Bom dia! Informe seu CPF.", reply)
	assert.Equal(t, o.ID(), state.SessionID)
	assert.Equal(t, core.AgentTriage, state.CurrentAgent)
	assert.Equal(t, 2, state.MessageCount)
	assert.Equal(t, 1, m.Len())
}

func TestSubmitMessage_EmptyIDCreatesSession(t *testing.T) {
	m := newTestManager(t, model.NewMockExecutor("oi"))

	reply, state, err := m.SubmitMessage(context.Background(), "", "ola")
	require.NoError(t, err)
	assert.Equal(t, "oi", reply)
	assert.NotEmpty(t, state.SessionID)
	assert.Equal(t, 1, m.Len())

	// An unknown id also starts fresh rather than failing.
	_, state2, err := m.SubmitMessage(context.Background(), "nunca-vista", "oi de novo")
	require.NoError(t, err)
	assert.NotEqual(t, state.SessionID, state2.SessionID)
	assert.Equal(t, 2, m.Len())
}

func TestEnd(t *testing.T) {
	m := newTestManager(t, model.NewMockExecutor("oi"))

	o := m.Create()
	require.NoError(t, m.End(o.ID()))
	assert.Zero(t, m.Len())

	assert.ErrorIs(t, m.End(o.ID()), core.ErrSessionNotFound)
}

func TestState(t *testing.T) {
	m := newTestManager(t, model.NewMockExecutor("Tchau! [ENCERRA_ATENDIMENTO]"))

	o := m.Create()
	_, _, err := m.SubmitMessage(context.Background(), o.ID(), "tchau")
	require.NoError(t, err)

	state, err := m.State(o.ID())
	require.NoError(t, err)
	assert.True(t, state.Terminated)

	_, err = m.State("desconhecida")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}

func TestHistory(t *testing.T) {
	m := newTestManager(t, model.NewMockExecutor("primeira resposta"))

	o := m.Create()
	_, _, err := m.SubmitMessage(context.Background(), o.ID(), "ola")
	require.NoError(t, err)

	hist, err := m.History(o.ID())
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "user", hist[0].Role)
	assert.Equal(t, "primeira resposta", hist[1].Content)

	_, err = m.History("desconhecida")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
}
