package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/service"
)

type addClientRequest struct {
	CPF       string `json:"cpf"`
	Name      string `json:"nome"`
	BirthDate string `json:"data_nascimento"`
	Score     int    `json:"score"`
}

type addClientResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Client  *core.Client `json:"cliente,omitempty"`
}

func (s *Server) handleAddClient(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req addClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisicao invalido")
		return
	}

	cpf := service.SanitizeCPF(req.CPF)
	if len(cpf) != 11 {
		writeError(w, http.StatusBadRequest, "CPF invalido. O CPF deve conter exatamente 11 digitos numericos.")
		return
	}
	if _, exists := s.clients.FindByCPF(cpf); exists {
		writeError(w, http.StatusBadRequest, "Cliente ja existe no sistema")
		return
	}

	// The starting limit follows from the informed score.
	initialLimit := s.credit.MaxLimitForScore(req.Score)

	if err := s.clients.Add(req.CPF, req.Name, req.BirthDate, req.Score, initialLimit); err != nil {
		s.logger.Warn("failed to add client", "cpf", cpf, "error", err)
		writeError(w, http.StatusBadRequest, "Erro ao adicionar cliente. Verifique os dados informados.")
		return
	}

	client, _ := s.clients.FindByCPF(cpf)
	writeJSON(w, http.StatusOK, addClientResponse{
		Success: true,
		Message: "Cliente adicionado com sucesso",
		Client:  &client,
	})
}

func (s *Server) handleListClients(w http.ResponseWriter, _ *http.Request) {
	clients := s.clients.ListAll()
	if clients == nil {
		clients = []core.Client{}
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *Server) handleListRequests(w http.ResponseWriter, _ *http.Request) {
	requests := s.credit.ListRequests()
	if requests == nil {
		requests = []core.LimitRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) handleListRequestsByCPF(w http.ResponseWriter, r *http.Request) {
	cpf := chi.URLParam(r, "cpf")
	requests := s.credit.ListRequestsByCPF(cpf)
	if len(requests) == 0 {
		writeError(w, http.StatusNotFound, "Nenhuma solicitacao encontrada para este CPF")
		return
	}
	writeJSON(w, http.StatusOK, requests)
}
