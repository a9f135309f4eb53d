package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bancoagil/agentdesk/core"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Response  string             `json:"response"`
	SessionID string             `json:"session_id"`
	State     core.StateSnapshot `json:"estado"`
}

type newSessionResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Corpo da requisicao invalido")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "Mensagem e obrigatoria")
		return
	}

	reply, state, err := s.sessions.SubmitMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.logger.Error("chat turn failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:  reply,
		SessionID: state.SessionID,
		State:     state,
	})
}

func (s *Server) handleNewSession(w http.ResponseWriter, _ *http.Request) {
	o := s.sessions.Create()
	writeJSON(w, http.StatusOK, newSessionResponse{
		SessionID: o.ID(),
		Message:   "Nova sessao criada. Envie uma mensagem para iniciar o atendimento.",
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.sessions.End(id); err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "Sessao nao encontrada")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Sessao encerrada com sucesso"})
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	state, err := s.sessions.State(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Sessao nao encontrada")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	messages, err := s.sessions.History(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Sessao nao encontrada")
		return
	}
	if messages == nil {
		messages = []core.Message{}
	}
	writeJSON(w, http.StatusOK, map[string][]core.Message{"historico": messages})
}
