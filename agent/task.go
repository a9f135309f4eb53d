package agent

import (
	"fmt"
	"strings"

	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/internal/util"
	"github.com/bancoagil/agentdesk/service"
)

const defaultHistoryWindow = 20

// TaskBuilder renders agent templates into executable tasks, folding in the
// session's authentication state, score data and recent history.
type TaskBuilder struct {
	credit        *service.CreditService
	historyWindow int
}

// NewTaskBuilder constructs a builder. historyWindow bounds how many recent
// messages are excerpted into the prompt; zero selects the default.
func NewTaskBuilder(credit *service.CreditService, historyWindow int) *TaskBuilder {
	if historyWindow <= 0 {
		historyWindow = defaultHistoryWindow
	}
	return &TaskBuilder{credit: credit, historyWindow: historyWindow}
}

// Build renders the agent's template against the session and wraps the result
// in a Task ready for an executor.
func (b *TaskBuilder) Build(a *Agent, sc *core.SessionContext, message string) (Task, error) {
	authenticated, _, name, score, currentLimit, attempts := sc.Snapshot()

	var history strings.Builder
	for _, m := range sc.LastMessages(b.historyWindow) {
		fmt.Fprintf(&history, "- %s: %s\n", m.Role, m.Content)
	}
	excerpt := strings.TrimRight(history.String(), "\n")
	if excerpt == "" {
		excerpt = "(inicio da conversa)"
	}

	authText := "Nao"
	if authenticated {
		authText = "Sim"
	}
	contextName := name
	if contextName == "" {
		contextName = "Nao identificado"
	}
	contexto := fmt.Sprintf("Cliente autenticado: %s\nNome: %s\nTentativas de auth: %d/3",
		authText, contextName, attempts)

	promptName := name
	if promptName == "" {
		promptName = "Cliente"
	}

	var maxLimit float64
	if score > 0 {
		maxLimit = b.credit.MaxLimitForScore(score)
	}

	prompt, err := util.RenderTemplate(a.Template, map[string]any{
		"contexto":      contexto,
		"historico":     excerpt,
		"mensagem":      message,
		"nome":          promptName,
		"score":         score,
		"limite_atual":  fmt.Sprintf("%.2f", currentLimit),
		"limite_maximo": fmt.Sprintf("%.2f", maxLimit),
	})
	if err != nil {
		return Task{}, &core.TemplateRenderError{Agent: a.ID, Err: err}
	}

	return Task{
		AgentID:       a.ID,
		Instructions:  a.Instructions(),
		Prompt:        prompt,
		Tools:         a.Tools,
		Session:       sc,
		MaxIterations: a.MaxIterations,
	}, nil
}
