package tool

import (
	"fmt"

	"github.com/bancoagil/agentdesk/service"
)

// recalculateScore computes a new score from the five interview answers and
// applies it only when it improves on the stored score/limit. The protection
// is deliberate: a recomputed score below the current one, or a score whose
// tier maximum falls below the current limit, is never written back.
type recalculateScore struct {
	score    *service.ScoreService
	credit   *service.CreditService
	clients  *service.ClientStore
	synonyms map[string]string
}

// NewRecalculateScore constructs the interview scoring tool.
func NewRecalculateScore(
	score *service.ScoreService,
	credit *service.CreditService,
	clients *service.ClientStore,
	synonyms map[string]string,
) Tool {
	return &recalculateScore{score: score, credit: credit, clients: clients, synonyms: synonyms}
}

func (t *recalculateScore) Name() string { return "calcular_novo_score" }

func (t *recalculateScore) Description() string {
	return "Calcula o novo score do cliente com base nas informacoes financeiras coletadas."
}

func (t *recalculateScore) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"renda_mensal": map[string]any{
				"type":        "number",
				"description": "Renda mensal do cliente em reais",
			},
			"tipo_emprego": map[string]any{
				"type":        "string",
				"description": "Tipo de emprego (CLT, FORMAL, PJ, AUTONOMO, DESEMPREGADO)",
			},
			"despesas_mensais": map[string]any{
				"type":        "number",
				"description": "Total de despesas fixas mensais em reais",
			},
			"num_dependentes": map[string]any{
				"type":        "integer",
				"description": "Numero de dependentes (0, 1, 2, 3 ou mais)",
			},
			"dividas_atuais": map[string]any{
				"type":        "number",
				"description": "Total de dividas em aberto em reais (0 se nao tiver)",
			},
		},
		"required": []string{
			"renda_mensal", "tipo_emprego", "despesas_mensais",
			"num_dependentes", "dividas_atuais",
		},
	}
}

func (t *recalculateScore) Call(tc *Context, args map[string]any) (string, error) {
	income, err := floatArg(args, "renda_mensal")
	if err != nil {
		return "", err
	}
	rawEmployment, err := stringArg(args, "tipo_emprego")
	if err != nil {
		return "", err
	}
	expenses, err := floatArg(args, "despesas_mensais")
	if err != nil {
		return "", err
	}
	dependents, err := intArg(args, "num_dependentes")
	if err != nil {
		return "", err
	}
	debts, err := floatArg(args, "dividas_atuais")
	if err != nil {
		return "", err
	}

	employment, ok := service.NormalizeEmployment(rawEmployment, t.synonyms)
	if !ok {
		tc.Logger().Warn("invalid employment type", "input", rawEmployment)
		return "ERRO|Tipo de emprego invalido. Use: CLT, FORMAL, PJ, AUTONOMO ou DESEMPREGADO", nil
	}
	if income <= 0 {
		return "ERRO|Renda mensal deve ser maior que zero", nil
	}
	if expenses < 0 {
		return "ERRO|Despesas mensais nao podem ser negativas", nil
	}

	session := tc.Session()
	_, cpf, _, priorScore, currentLimit, _ := session.Snapshot()

	newScore := t.score.Compute(income, employment, expenses, dependents, debts > 0)
	newMax := t.credit.MaxLimitForScore(newScore)
	priorMax := t.credit.MaxLimitForScore(priorScore)

	tc.Logger().Info("score recalculated",
		"prior_score", priorScore, "new_score", newScore,
		"prior_max", priorMax, "new_max", newMax)

	if newScore < priorScore || newMax < currentLimit {
		tc.Logger().Warn("recalculated score offers no improvement, keeping stored values",
			"prior_score", priorScore, "new_score", newScore,
			"current_limit", currentLimit, "new_max", newMax)
		return fmt.Sprintf(
			"ANALISE_CONCLUIDA_SEM_MELHORIA. "+
				"Score mantido em: %d pontos. "+
				"Limite maximo atual: R$ %.2f. "+
				"IMPORTANTE: Informe ao cliente que a analise nao resultou em melhoria do limite. "+
				"O limite atual de R$ %.2f esta mantido. "+
				"Inclua [REDIRECIONA_CREDITO] na resposta.",
			priorScore, priorMax, currentLimit,
		), nil
	}

	session.SetScore(newScore)
	if cpf != "" && !t.clients.UpdateScore(cpf, newScore) {
		tc.Logger().Warn("failed to persist recalculated score", "cpf", cpf)
	}

	return fmt.Sprintf(
		"SUCESSO! Calculo finalizado. "+
			"Score anterior: %d pontos. "+
			"Novo score: %d pontos. "+
			"Novo limite maximo: R$ %.2f. "+
			"IMPORTANTE: Informe estes resultados ao cliente e inclua [REDIRECIONA_CREDITO] na resposta.",
		priorScore, newScore, newMax,
	), nil
}
