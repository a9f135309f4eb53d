package agent

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/service"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	dir := t.TempDir()
	scorePath := filepath.Join(dir, "score_limite.csv")
	table := "score_minimo,score_maximo,limite_maximo\n0,299,500.00\n300,499,2000.00\n500,699,5000.00\n700,849,15000.00\n850,1000,50000.00\n"
	require.NoError(t, os.WriteFile(scorePath, []byte(table), 0o644))

	return NewRegistry(Deps{
		Clients:  service.NewClientStore(filepath.Join(dir, "clientes.csv"), nil),
		Credit:   service.NewCreditService(scorePath, filepath.Join(dir, "solicitacoes.csv"), nil),
		Score:    service.NewScoreService(nil),
		Exchange: service.NewExchangeService(),
		Synonyms: map[string]string{"CLT": "formal"},
		Prompts:  NewPromptStore(""),
	})
}

func TestPromptStore_Embedded(t *testing.T) {
	store := NewPromptStore("")

	for _, id := range []core.AgentID{core.AgentTriage, core.AgentCredit, core.AgentInterview, core.AgentExchange} {
		text, err := store.Load(id)
		require.NoError(t, err, id)
		assert.NotEmpty(t, text, id)
		assert.Contains(t, text, "{{.mensagem}}", id)
	}
}

func TestPromptStore_DirOverride(t *testing.T) {
	dir := t.TempDir()
	custom := "PROMPT CUSTOMIZADO {{.mensagem}}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "triagem_prompt.txt"), []byte(custom), 0o644))

	store := NewPromptStore(dir)

	text, err := store.Load(core.AgentTriage)
	require.NoError(t, err)
	assert.Equal(t, custom, text)

	// Agents without an override fall back to the embedded copy.
	text, err = store.Load(core.AgentCredit)
	require.NoError(t, err)
	assert.NotEqual(t, custom, text)
	assert.NotEmpty(t, text)
}

func TestPromptStore_UnknownAgent(t *testing.T) {
	store := NewPromptStore("")

	_, err := store.Load(core.AgentID("inexistente"))
	var cfgErr *core.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
}

func TestRegistry_BuildsEachAgent(t *testing.T) {
	registry := newTestRegistry(t)

	tests := []struct {
		id        core.AgentID
		toolNames []string
		maxIter   int
	}{
		{core.AgentTriage, []string{"autenticar_cliente", "verificar_autenticacao"}, 50},
		{core.AgentCredit, []string{"consultar_limite", "solicitar_aumento_limite", "obter_limite_maximo"}, 50},
		{core.AgentInterview, []string{"calcular_novo_score"}, 25},
		{core.AgentExchange, []string{"consultar_cotacao", "listar_moedas_disponiveis"}, 50},
	}
	for _, tt := range tests {
		a, err := registry.Get(tt.id)
		require.NoError(t, err, tt.id)
		assert.Equal(t, tt.id, a.ID)
		assert.Equal(t, tt.maxIter, a.MaxIterations)
		assert.NotEmpty(t, a.Role)
		assert.NotEmpty(t, a.Template)

		var names []string
		for _, tl := range a.Tools {
			names = append(names, tl.Name())
		}
		assert.Equal(t, tt.toolNames, names, tt.id)
	}
}

func TestRegistry_CachesInstances(t *testing.T) {
	registry := newTestRegistry(t)

	a1, err := registry.Get(core.AgentTriage)
	require.NoError(t, err)
	a2, err := registry.Get(core.AgentTriage)
	require.NoError(t, err)
	assert.Same(t, a1, a2)
}

func TestRegistry_UnknownAgent(t *testing.T) {
	registry := newTestRegistry(t)

	_, err := registry.Get(core.AgentID("suporte"))
	assert.Error(t, err)
}

func TestAgentInstructions(t *testing.T) {
	a := &Agent{Role: "Especialista", Goal: "Ajudar", Backstory: "Historia"}
	got := a.Instructions()
	assert.Contains(t, got, "Especialista")
	assert.Contains(t, got, "Ajudar")
	assert.Contains(t, got, "Historia")
}

func newTaskFixture(t *testing.T) (*TaskBuilder, *Agent) {
	t.Helper()
	dir := t.TempDir()
	scorePath := filepath.Join(dir, "score_limite.csv")
	table := "score_minimo,score_maximo,limite_maximo\n700,849,15000.00\n"
	require.NoError(t, os.WriteFile(scorePath, []byte(table), 0o644))
	credit := service.NewCreditService(scorePath, filepath.Join(dir, "solicitacoes.csv"), nil)

	a := &Agent{
		ID:   core.AgentCredit,
		Role: "Especialista",
		Goal: "Ajudar",
		Template: "Contexto:\n{{.contexto}}\n\nHistorico:\n{{.historico}}\n\n" +
			"Cliente {{.nome}} (score {{.score}}, limite {{.limite_atual}}, maximo {{.limite_maximo}}) diz: {{.mensagem}}",
		MaxIterations: 50,
	}
	return NewTaskBuilder(credit, 0), a
}

func TestTaskBuilder_AuthenticatedSession(t *testing.T) {
	builder, a := newTaskFixture(t)

	sc := core.NewSessionContext()
	sc.MarkAuthenticated(core.Client{CPF: "12345678901", Name: "Joao Silva", Score: 750, CurrentLimit: 5000})
	sc.RecordMessage("user", "oi")
	sc.RecordMessage("assistant", "ola, como posso ajudar?")

	task, err := builder.Build(a, sc, "quero aumentar meu limite")
	require.NoError(t, err)
	assert.Equal(t, core.AgentCredit, task.AgentID)
	assert.Equal(t, 50, task.MaxIterations)
	assert.Same(t, sc, task.Session)

	assert.Contains(t, task.Prompt, "Cliente autenticado: Sim")
	assert.Contains(t, task.Prompt, "Nome: Joao Silva")
	assert.Contains(t, task.Prompt, "- user: oi")
	assert.Contains(t, task.Prompt, "- assistant: ola, como posso ajudar?")
	assert.Contains(t, task.Prompt, "score 750")
	assert.Contains(t, task.Prompt, "limite 5000.00")
	assert.Contains(t, task.Prompt, "maximo 15000.00")
	assert.Contains(t, task.Prompt, "quero aumentar meu limite")
}

func TestTaskBuilder_AnonymousSession(t *testing.T) {
	builder, a := newTaskFixture(t)

	task, err := builder.Build(a, core.NewSessionContext(), "ola")
	require.NoError(t, err)
	assert.Contains(t, task.Prompt, "Cliente autenticado: Nao")
	assert.Contains(t, task.Prompt, "Nome: Nao identificado")
	assert.Contains(t, task.Prompt, "Tentativas de auth: 0/3")
	assert.Contains(t, task.Prompt, "(inicio da conversa)")
	assert.Contains(t, task.Prompt, "Cliente Cliente")
	assert.Contains(t, task.Prompt, "maximo 0.00")
}

func TestTaskBuilder_HistoryWindow(t *testing.T) {
	builder, a := newTaskFixture(t)
	builder = NewTaskBuilder(builder.credit, 2)

	sc := core.NewSessionContext()
	for i := 1; i <= 5; i++ {
		sc.RecordMessage("user", fmt.Sprintf("mensagem %d", i))
	}

	task, err := builder.Build(a, sc, "ultima")
	require.NoError(t, err)
	assert.NotContains(t, task.Prompt, "mensagem 3")
	assert.Contains(t, task.Prompt, "mensagem 4")
	assert.Contains(t, task.Prompt, "mensagem 5")
}

func TestTaskBuilder_TemplateError(t *testing.T) {
	builder, a := newTaskFixture(t)
	a.Template = "{{.mensagem"

	_, err := builder.Build(a, core.NewSessionContext(), "oi")
	var renderErr *core.TemplateRenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, core.AgentCredit, renderErr.Agent)
}

func TestTaskBuilder_MultilineHistoryKeepsOrder(t *testing.T) {
	builder, a := newTaskFixture(t)

	sc := core.NewSessionContext()
	sc.RecordMessage("user", "primeira")
	sc.RecordMessage("assistant", "segunda")

	task, err := builder.Build(a, sc, "atual")
	require.NoError(t, err)
	first := strings.Index(task.Prompt, "primeira")
	second := strings.Index(task.Prompt, "segunda")
	require.GreaterOrEqual(t, first, 0)
	assert.Greater(t, second, first)
}
