package agent

import (
	"fmt"
	"sync"

	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/service"
	"github.com/bancoagil/agentdesk/tool"
)

// Deps carries the services the agents' tools are built on.
type Deps struct {
	Clients  *service.ClientStore
	Credit   *service.CreditService
	Score    *service.ScoreService
	Exchange *service.ExchangeService
	Synonyms map[string]string
	Prompts  *PromptStore
}

// Registry lazily builds and caches the desk's agents. Agents are immutable
// once built, so a single instance is shared across sessions.
type Registry struct {
	deps  Deps
	mu    sync.RWMutex
	cache map[core.AgentID]*Agent
}

// NewRegistry constructs a registry over the given dependencies.
func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps, cache: make(map[core.AgentID]*Agent)}
}

// Get returns the agent for the given id, building it on first use.
func (r *Registry) Get(id core.AgentID) (*Agent, error) {
	r.mu.RLock()
	if a, ok := r.cache[id]; ok {
		r.mu.RUnlock()
		return a, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.cache[id]; ok {
		return a, nil
	}

	a, err := r.build(id)
	if err != nil {
		return nil, err
	}
	r.cache[id] = a
	return a, nil
}

func (r *Registry) build(id core.AgentID) (*Agent, error) {
	template, err := r.deps.Prompts.Load(id)
	if err != nil {
		return nil, err
	}

	switch id {
	case core.AgentTriage:
		return &Agent{
			ID:   id,
			Role: "Assistente Virtual do Banco Agil - Modulo de Autenticacao",
			Goal: "Autenticar clientes e redirecionar para o agente especializado apropriado",
			Backstory: "Voce e a porta de entrada do Banco Agil. Sua funcao e autenticar clientes " +
				"usando CPF e data de nascimento, identificar qual servico precisam, e redirecionar " +
				"IMEDIATAMENTE para o agente especializado. Seja rapido e eficiente - apenas identifique " +
				"e redirecione. As transicoes entre agentes sao invisiveis ao cliente.",
			Tools: []tool.Tool{
				tool.NewAuthenticateClient(r.deps.Clients),
				tool.NewCheckAuthentication(),
			},
			Template:      template,
			MaxIterations: 50,
		}, nil

	case core.AgentCredit:
		return &Agent{
			ID:   id,
			Role: "Assistente Virtual do Banco Agil - Modulo de Credito",
			Goal: "Consultar limites, processar solicitacoes de aumento, e oferecer analise de perfil quando necessario",
			Backstory: "Voce e o especialista em credito do Banco Agil. Use as ferramentas disponiveis " +
				"para consultar limites e processar pedidos de aumento. Quando o cliente informa um valor " +
				"desejado, processe imediatamente sem pedir confirmacao. Se a solicitacao for rejeitada, " +
				"ofereca uma analise de perfil financeiro para melhorar o score. As transicoes entre " +
				"agentes sao invisiveis ao cliente.",
			Tools: []tool.Tool{
				tool.NewCheckLimit(r.deps.Credit),
				tool.NewRequestLimitIncrease(r.deps.Credit, r.deps.Clients),
				tool.NewMaxLimit(r.deps.Credit),
			},
			Template:      template,
			MaxIterations: 50,
		}, nil

	case core.AgentInterview:
		return &Agent{
			ID:   id,
			Role: "Assistente Virtual do Banco Agil - Modulo de Analise Financeira",
			Goal: "Conduzir entrevista financeira conversacional, coletar 5 informacoes, e calcular novo score",
			Backstory: "Voce e o especialista em analise financeira do Banco Agil. Conduza uma entrevista " +
				"natural e conversacional, coletando UMA informacao por vez: renda mensal, tipo de " +
				"emprego (CLT, PJ, AUTONOMO ou DESEMPREGADO), despesas fixas, numero de dependentes, e " +
				"dividas. Quando tiver todas as 5 informacoes, calcule o novo score e redirecione para o " +
				"agente de credito. Seja paciente e natural. As transicoes entre agentes sao invisiveis ao cliente.",
			Tools: []tool.Tool{
				tool.NewRecalculateScore(r.deps.Score, r.deps.Credit, r.deps.Clients, r.deps.Synonyms),
			},
			Template:      template,
			MaxIterations: 25,
		}, nil

	case core.AgentExchange:
		return &Agent{
			ID:   id,
			Role: "Assistente Virtual do Banco Agil - Modulo de Cambio",
			Goal: "Fornecer cotacoes de moedas estrangeiras de forma rapida e objetiva",
			Backstory: "Voce e o especialista em cambio do Banco Agil. Forneca cotacoes de moedas " +
				"de forma direta e objetiva, sem saudacoes. Use as ferramentas para consultar cotacoes " +
				"e listar moedas disponiveis. Apos informar uma cotacao, pergunte se o cliente deseja " +
				"consultar outra moeda. As transicoes entre agentes sao invisiveis ao cliente.",
			Tools: []tool.Tool{
				tool.NewQuoteRate(r.deps.Exchange),
				tool.NewListCurrencies(),
			},
			Template:      template,
			MaxIterations: 50,
		}, nil
	}

	return nil, fmt.Errorf("unknown agent %q", id)
}
