package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bancoagil/agentdesk/agent"
	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/history"
	"github.com/bancoagil/agentdesk/model"
	"github.com/bancoagil/agentdesk/service"
)

func newTestBuilder(t *testing.T) (*agent.Registry, *agent.TaskBuilder) {
	t.Helper()
	dir := t.TempDir()
	scorePath := filepath.Join(dir, "score_limite.csv")
	table := "score_minimo,score_maximo,limite_maximo\n0,299,500.00\n300,499,2000.00\n500,699,5000.00\n700,849,15000.00\n850,1000,50000.00\n"
	require.NoError(t, os.WriteFile(scorePath, []byte(table), 0o644))

	credit := service.NewCreditService(scorePath, filepath.Join(dir, "solicitacoes.csv"), nil)
	registry := agent.NewRegistry(agent.Deps{
		Clients:  service.NewClientStore(filepath.Join(dir, "clientes.csv"), nil),
		Credit:   credit,
		Score:    service.NewScoreService(nil),
		Exchange: service.NewExchangeService(),
		Prompts:  agent.NewPromptStore(""),
	})
	return registry, agent.NewTaskBuilder(credit, 0)
}

func newTestOrchestrator(t *testing.T, exec agent.Executor, optFns ...func(o *Options)) *Orchestrator {
	t.Helper()
	registry, builder := newTestBuilder(t)
	return New(registry, builder, exec, optFns...)
}

func TestProcessMessage_PlainReply(t *testing.T) {
	exec := model.NewMockExecutor("Bom dia! Por favor informe seu CPF.")
	o := newTestOrchestrator(t, exec)

	reply, err := o.ProcessMessage(context.Background(), "ola")
	require.NoError(t, err)
	assert.Equal(t, "Bom dia! Por favor informe seu CPF.", reply)

	state := o.State()
	assert.Equal(t, core.AgentTriage, state.CurrentAgent)
	assert.False(t, state.Terminated)
	assert.Equal(t, 2, state.MessageCount)

	hist := o.Context().HistoryCopy()
	require.Len(t, hist, 2)
	assert.Equal(t, core.Message{Role: "user", Content: "ola"}, hist[0])
	assert.Equal(t, core.Message{Role: "assistant", Content: "Bom dia! Por favor informe seu CPF."}, hist[1])
}

func TestProcessMessage_RedirectSwapsAgentAndReplays(t *testing.T) {
	exec := model.NewMockExecutor(
		"Um momento. [REDIRECIONA_CAMBIO]",
		"O dolar esta cotado a R$ 5,43.",
	)
	o := newTestOrchestrator(t, exec)

	reply, err := o.ProcessMessage(context.Background(), "quanto esta o dolar?")
	require.NoError(t, err)
	assert.Equal(t, "O dolar esta cotado a R$ 5,43.", reply)
	assert.NotContains(t, reply, "[REDIRECIONA_CAMBIO]")

	require.Len(t, exec.Tasks, 2)
	assert.Equal(t, core.AgentTriage, exec.Tasks[0].AgentID)
	assert.Equal(t, core.AgentExchange, exec.Tasks[1].AgentID)

	assert.Equal(t, core.AgentExchange, o.State().CurrentAgent)
}

func TestProcessMessage_RedirectStickyAcrossTurns(t *testing.T) {
	exec := model.NewMockExecutor(
		"[REDIRECIONA_CAMBIO]",
		"Cotacao do dolar: R$ 5,43.",
		"Cotacao do euro: R$ 6,12.",
	)
	o := newTestOrchestrator(t, exec)

	_, err := o.ProcessMessage(context.Background(), "cotacao do dolar")
	require.NoError(t, err)

	reply, err := o.ProcessMessage(context.Background(), "e do euro?")
	require.NoError(t, err)
	assert.Equal(t, "Cotacao do euro: R$ 6,12.", reply)

	// The second turn goes straight to the exchange agent.
	require.Len(t, exec.Tasks, 3)
	assert.Equal(t, core.AgentExchange, exec.Tasks[2].AgentID)
}

func TestProcessMessage_Termination(t *testing.T) {
	exec := model.NewMockExecutor("Obrigado pelo contato! [ENCERRA_ATENDIMENTO]")
	o := newTestOrchestrator(t, exec)

	reply, err := o.ProcessMessage(context.Background(), "tchau")
	require.NoError(t, err)
	assert.Equal(t, "Obrigado pelo contato!", reply)
	assert.True(t, o.State().Terminated)

	// Later messages never reach an agent.
	reply, err = o.ProcessMessage(context.Background(), "ola?")
	require.NoError(t, err)
	assert.Equal(t, ClosedSessionText, reply)
	assert.Len(t, exec.Tasks, 1)
}

func TestProcessMessage_TerminationBeatsRedirect(t *testing.T) {
	exec := model.NewMockExecutor("Ate logo! [REDIRECIONA_CREDITO] [ENCERRA_ATENDIMENTO]")
	o := newTestOrchestrator(t, exec)

	reply, err := o.ProcessMessage(context.Background(), "tchau")
	require.NoError(t, err)
	assert.Equal(t, "Ate logo!", reply)
	assert.True(t, o.State().Terminated)
	assert.Equal(t, core.AgentTriage, o.State().CurrentAgent)
}

func TestProcessMessage_TerminationHonoredAfterRedirect(t *testing.T) {
	exec := model.NewMockExecutor(
		"[REDIRECIONA_CAMBIO]",
		"Encerrando. [ENCERRA_ATENDIMENTO]",
	)
	o := newTestOrchestrator(t, exec)

	reply, err := o.ProcessMessage(context.Background(), "quero sair")
	require.NoError(t, err)
	assert.Equal(t, "Encerrando.", reply)
	assert.True(t, o.State().Terminated)
}

func TestProcessMessage_RedirectBudgetExhausted(t *testing.T) {
	exec := model.NewMockExecutor(
		"[REDIRECIONA_CREDITO]",
		"Vou te encaminhar. [REDIRECIONA_CAMBIO]",
	)
	o := newTestOrchestrator(t, exec)

	reply, err := o.ProcessMessage(context.Background(), "oi")
	require.NoError(t, err)

	// The second marker is stripped but not followed.
	assert.Equal(t, "Vou te encaminhar.", reply)
	assert.Len(t, exec.Tasks, 2)
	assert.Equal(t, core.AgentCredit, o.State().CurrentAgent)
}

func TestProcessMessage_ExecutorFailure(t *testing.T) {
	exec := model.NewMockExecutor("irrelevante")
	exec.Err = errors.New("provider timeout")
	o := newTestOrchestrator(t, exec)

	reply, err := o.ProcessMessage(context.Background(), "ola")
	require.NoError(t, err)
	assert.Equal(t, ApologyText, reply)

	// The turn still completes: the apology lands in history and the session
	// stays usable.
	hist := o.Context().HistoryCopy()
	require.Len(t, hist, 2)
	assert.Equal(t, ApologyText, hist[1].Content)
	assert.False(t, o.State().Terminated)
}

func TestProcessMessage_InterviewSummaryPreserved(t *testing.T) {
	summary := "Entrevista concluida: renda 10000, emprego FORMAL, despesas 2000, sem dependentes, sem dividas. [REDIRECIONA_CREDITO]"
	exec := model.NewMockExecutor(
		"[REDIRECIONA_ENTREVISTA]",
		"Vamos comecar a entrevista. Qual sua renda mensal?",
		summary,
		"Com o novo score, seu limite maximo e R$ 15000.00.",
	)
	o := newTestOrchestrator(t, exec)

	_, err := o.ProcessMessage(context.Background(), "quero melhorar meu score")
	require.NoError(t, err)

	reply, err := o.ProcessMessage(context.Background(), "sem dividas")
	require.NoError(t, err)
	assert.Equal(t, "Com o novo score, seu limite maximo e R$ 15000.00.", reply)

	// The interview's summary survives the hand-off so the credit agent sees
	// the collected answers.
	hist := o.Context().HistoryCopy()
	require.Len(t, hist, 5)
	assert.Equal(t, "Entrevista concluida: renda 10000, emprego FORMAL, despesas 2000, sem dependentes, sem dividas.", hist[3].Content)
	assert.Equal(t, reply, hist[4].Content)
}

func TestProcessMessage_ShortInterviewReplyNotPreserved(t *testing.T) {
	exec := model.NewMockExecutor(
		"[REDIRECIONA_ENTREVISTA]",
		"Qual sua renda mensal?",
		"Ok. [REDIRECIONA_CREDITO]",
		"Seu limite atual e R$ 5000.00.",
	)
	o := newTestOrchestrator(t, exec)

	_, err := o.ProcessMessage(context.Background(), "analise de perfil")
	require.NoError(t, err)

	_, err = o.ProcessMessage(context.Background(), "10000")
	require.NoError(t, err)

	// "Ok." is markup noise, not an interview summary.
	for _, m := range o.Context().HistoryCopy() {
		assert.NotEqual(t, "Ok.", m.Content)
	}
}

func TestProcessMessage_PersistsToHistoryStore(t *testing.T) {
	store, err := history.NewStore(filepath.Join(t.TempDir(), "conversas.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	exec := model.NewMockExecutor("Bom dia! Informe seu CPF.")
	o := newTestOrchestrator(t, exec, func(opts *Options) {
		opts.ConversationID = "conv-test"
		opts.History = store
	})

	_, err = o.ProcessMessage(context.Background(), "ola")
	require.NoError(t, err)
	store.Flush()

	records, err := store.Messages(context.Background(), "conv-test")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "user", records[0].Role)
	assert.Equal(t, "ola", records[0].Content)
	assert.Equal(t, core.AgentTriage, records[0].AgentID)
	assert.Equal(t, "assistant", records[1].Role)
}

func TestReset(t *testing.T) {
	exec := model.NewMockExecutor("Tchau! [ENCERRA_ATENDIMENTO]", "Bom dia!")
	o := newTestOrchestrator(t, exec)

	_, err := o.ProcessMessage(context.Background(), "tchau")
	require.NoError(t, err)
	require.True(t, o.State().Terminated)

	o.Reset()

	state := o.State()
	assert.False(t, state.Terminated)
	assert.Equal(t, core.AgentTriage, state.CurrentAgent)
	assert.Zero(t, state.MessageCount)

	reply, err := o.ProcessMessage(context.Background(), "ola de novo")
	require.NoError(t, err)
	assert.Equal(t, "Bom dia!", reply)
}

func TestProcessMessage_TurnsSerialize(t *testing.T) {
	exec := model.NewMockExecutor("resposta")
	o := newTestOrchestrator(t, exec)

	const turns = 16
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := o.ProcessMessage(context.Background(), fmt.Sprintf("mensagem %d", n))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// Every turn lands as a user/assistant pair with no interleaving.
	hist := o.Context().HistoryCopy()
	require.Len(t, hist, 2*turns)
	for i := 0; i < len(hist); i += 2 {
		assert.Equal(t, "user", hist[i].Role)
		assert.Equal(t, "assistant", hist[i+1].Role)
	}
}

func TestNew_Defaults(t *testing.T) {
	o := newTestOrchestrator(t, model.NewMockExecutor("oi"))
	assert.NotEmpty(t, o.ID())
	assert.Equal(t, core.AgentTriage, o.State().CurrentAgent)
}
