package tool

import (
	"fmt"

	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/service"
)

const errNotAuthenticated = "ERRO|Cliente nao autenticado"

// checkLimit reports the authenticated client's current limit, score and the
// tier maximum for that score.
type checkLimit struct {
	credit *service.CreditService
}

// NewCheckLimit constructs the limit query tool.
func NewCheckLimit(credit *service.CreditService) Tool {
	return &checkLimit{credit: credit}
}

func (t *checkLimit) Name() string { return "consultar_limite" }

func (t *checkLimit) Description() string {
	return "Consulta o limite de credito atual do cliente autenticado. " +
		"Retorna limite atual, score e limite maximo permitido pelo score."
}

func (t *checkLimit) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *checkLimit) Call(tc *Context, _ map[string]any) (string, error) {
	authenticated, _, _, score, limit, _ := tc.Session().Snapshot()
	if !authenticated {
		return errNotAuthenticated, nil
	}
	max := t.credit.MaxLimitForScore(score)
	tc.Logger().Info("limit queried", "current", limit, "score", score, "max", max)
	return fmt.Sprintf("LIMITE|%.2f|%d|%.2f", limit, score, max), nil
}

// requestLimitIncrease decides a limit-increase request, records it in the
// ledger and applies approved increases to the client record and session.
type requestLimitIncrease struct {
	credit  *service.CreditService
	clients *service.ClientStore
}

// NewRequestLimitIncrease constructs the limit increase tool.
func NewRequestLimitIncrease(credit *service.CreditService, clients *service.ClientStore) Tool {
	return &requestLimitIncrease{credit: credit, clients: clients}
}

func (t *requestLimitIncrease) Name() string { return "solicitar_aumento_limite" }

func (t *requestLimitIncrease) Description() string {
	return "Processa uma solicitacao de aumento de limite de credito."
}

func (t *requestLimitIncrease) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"novo_limite": map[string]any{
				"type":        "number",
				"description": "Valor do novo limite desejado em reais",
			},
		},
		"required": []string{"novo_limite"},
	}
}

func (t *requestLimitIncrease) Call(tc *Context, args map[string]any) (string, error) {
	requested, err := floatArg(args, "novo_limite")
	if err != nil {
		return "", err
	}

	session := tc.Session()
	authenticated, cpf, _, score, current, _ := session.Snapshot()
	if !authenticated {
		return errNotAuthenticated, nil
	}

	req := t.credit.RegisterRequest(cpf, current, requested, score)
	if req.Status == core.RequestApproved {
		t.clients.UpdateLimit(cpf, requested)
		session.SetLimit(requested)
		tc.Logger().Info("limit increase approved", "cpf", cpf, "new_limit", requested)
		return fmt.Sprintf("APROVADO|%.2f", requested), nil
	}

	max := t.credit.MaxLimitForScore(score)
	tc.Logger().Info("limit increase rejected",
		"cpf", cpf, "requested", requested, "max", max, "score", score)
	return fmt.Sprintf("REJEITADO|%.2f|%d", max, score), nil
}

// maxLimit reports the tier maximum the client could request at the current
// score.
type maxLimit struct {
	credit *service.CreditService
}

// NewMaxLimit constructs the maximum limit query tool.
func NewMaxLimit(credit *service.CreditService) Tool {
	return &maxLimit{credit: credit}
}

func (t *maxLimit) Name() string { return "obter_limite_maximo" }

func (t *maxLimit) Description() string {
	return "Retorna o limite maximo que o cliente pode solicitar com seu score atual."
}

func (t *maxLimit) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *maxLimit) Call(tc *Context, _ map[string]any) (string, error) {
	authenticated, _, _, score, _, _ := tc.Session().Snapshot()
	if !authenticated {
		return errNotAuthenticated, nil
	}
	max := t.credit.MaxLimitForScore(score)
	return fmt.Sprintf("LIMITE_MAXIMO|%.2f|%d", max, score), nil
}
