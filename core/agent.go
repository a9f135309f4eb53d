package core

// AgentID identifies one of the specialized conversational agents. The set is
// closed: the orchestrator only ever moves between these four identifiers, and
// only in response to an explicit redirect signal.
type AgentID string

const (
	// AgentTriage authenticates the customer and routes to a specialist.
	AgentTriage AgentID = "triagem"
	// AgentCredit handles credit-limit queries and increase requests.
	AgentCredit AgentID = "credito"
	// AgentInterview runs the financial interview that recomputes the score.
	AgentInterview AgentID = "entrevista"
	// AgentExchange provides foreign-currency quotes.
	AgentExchange AgentID = "cambio"
)

// AgentIDs returns all known agent identifiers in registration order.
func AgentIDs() []AgentID {
	return []AgentID{AgentTriage, AgentCredit, AgentInterview, AgentExchange}
}

// Valid reports whether the identifier belongs to the closed agent set.
func (a AgentID) Valid() bool {
	switch a {
	case AgentTriage, AgentCredit, AgentInterview, AgentExchange:
		return true
	}
	return false
}

func (a AgentID) String() string { return string(a) }

// StateSnapshot is the externally visible view of a conversation session,
// returned by the boundary surface to HTTP/CLI adapters.
type StateSnapshot struct {
	SessionID     string  `json:"session_id"`
	CurrentAgent  AgentID `json:"agente_atual"`
	Authenticated bool    `json:"cliente_autenticado"`
	DisplayName   string  `json:"nome_cliente"`
	Terminated    bool    `json:"atendimento_encerrado"`
	MessageCount  int     `json:"mensagens"`
}
