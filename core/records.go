package core

import "time"

// Client is a bank customer record as stored in the client table.
type Client struct {
	CPF          string    `json:"cpf"`
	Name         string    `json:"nome"`
	BirthDate    time.Time `json:"data_nascimento"`
	Score        int       `json:"score"`
	CurrentLimit float64   `json:"limite_atual"`
}

// RequestStatus is the outcome of a limit-increase request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pendente"
	RequestApproved RequestStatus = "aprovado"
	RequestRejected RequestStatus = "rejeitado"
)

// LimitRequest is one entry in the append-only ledger of credit-limit
// increase requests.
type LimitRequest struct {
	CPF            string        `json:"cpf_cliente"`
	RequestedAt    time.Time     `json:"data_hora_solicitacao"`
	CurrentLimit   float64       `json:"limite_atual"`
	RequestedLimit float64       `json:"novo_limite_solicitado"`
	Status         RequestStatus `json:"status_pedido"`
}

// Quote is a foreign-exchange quote returned by the rate provider.
type Quote struct {
	Base     string    `json:"moeda_origem"`
	Target   string    `json:"moeda_destino"`
	Value    float64   `json:"valor"`
	QuotedAt time.Time `json:"data_consulta"`
}
