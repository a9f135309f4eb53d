package service

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/logging"
)

var requestHeader = []string{
	"cpf_cliente",
	"data_hora_solicitacao",
	"limite_atual",
	"novo_limite_solicitado",
	"status_pedido",
}

// CreditService resolves the maximum credit limit allowed for a score (tier
// table CSV) and keeps the append-only ledger of limit-increase requests.
type CreditService struct {
	scoreTablePath string
	requestsPath   string
	mu             sync.Mutex // serializes request ledger writes
	logger         logging.Logger
}

// NewCreditService creates a credit service over the given CSV files.
func NewCreditService(scoreTablePath, requestsPath string, logger logging.Logger) *CreditService {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &CreditService{
		scoreTablePath: scoreTablePath,
		requestsPath:   requestsPath,
		logger:         logger,
	}
}

// MaxLimitForScore returns the tier table's maximum limit for a score.
// A missing table or uncovered score yields 0.
func (s *CreditService) MaxLimitForScore(score int) float64 {
	f, err := os.Open(s.scoreTablePath)
	if err != nil {
		return 0
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil || len(rows) < 2 {
		return 0
	}
	for _, row := range rows[1:] {
		if len(row) < 3 {
			continue
		}
		min, err1 := strconv.Atoi(row[0])
		max, err2 := strconv.Atoi(row[1])
		limit, err3 := strconv.ParseFloat(row[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		if score >= min && score <= max {
			return limit
		}
	}
	return 0
}

// Eligible reports whether a requested limit is within the score's tier,
// returning the tier maximum alongside.
func (s *CreditService) Eligible(score int, requested float64) (bool, float64) {
	max := s.MaxLimitForScore(score)
	return requested <= max, max
}

// RegisterRequest decides a limit-increase request and appends it to the
// ledger. The decision is purely tier-based: approved iff the requested limit
// does not exceed the maximum for the score.
func (s *CreditService) RegisterRequest(cpf string, currentLimit, requestedLimit float64, score int) core.LimitRequest {
	eligible, _ := s.Eligible(score, requestedLimit)
	status := core.RequestRejected
	if eligible {
		status = core.RequestApproved
	}

	req := core.LimitRequest{
		CPF:            SanitizeCPF(cpf),
		RequestedAt:    time.Now(),
		CurrentLimit:   currentLimit,
		RequestedLimit: requestedLimit,
		Status:         status,
	}

	if err := s.appendRequest(req); err != nil {
		// Ledger write failure must not block the decision.
		s.logger.Error("limit request ledger write failed", "cpf", req.CPF, "error", err)
	}
	return req
}

// ListRequests returns every request in the ledger, oldest first.
func (s *CreditService) ListRequests() []core.LimitRequest {
	f, err := os.Open(s.requestsPath)
	if err != nil {
		return nil
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil || len(rows) < 2 {
		return nil
	}
	out := make([]core.LimitRequest, 0, len(rows)-1)
	for _, row := range rows[1:] {
		req, err := parseRequestRow(row)
		if err != nil {
			s.logger.Warn("skipping malformed request row", "error", err)
			continue
		}
		out = append(out, req)
	}
	return out
}

// ListRequestsByCPF filters the ledger by client.
func (s *CreditService) ListRequestsByCPF(cpf string) []core.LimitRequest {
	target := SanitizeCPF(cpf)
	var out []core.LimitRequest
	for _, req := range s.ListRequests() {
		if req.CPF == target {
			out = append(out, req)
		}
	}
	return out
}

func (s *CreditService) appendRequest(req core.LimitRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	needHeader := true
	if info, err := os.Stat(s.requestsPath); err == nil && info.Size() > 0 {
		needHeader = false
	}
	f, err := os.OpenFile(s.requestsPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open request ledger: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(requestHeader); err != nil {
			return err
		}
	}
	if err := w.Write([]string{
		req.CPF,
		req.RequestedAt.Format(time.RFC3339),
		fmt.Sprintf("%.2f", req.CurrentLimit),
		fmt.Sprintf("%.2f", req.RequestedLimit),
		string(req.Status),
	}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func parseRequestRow(row []string) (core.LimitRequest, error) {
	if len(row) < 5 {
		return core.LimitRequest{}, fmt.Errorf("expected 5 columns, got %d", len(row))
	}
	at, err := time.Parse(time.RFC3339, row[1])
	if err != nil {
		return core.LimitRequest{}, fmt.Errorf("bad timestamp %q: %w", row[1], err)
	}
	current, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return core.LimitRequest{}, fmt.Errorf("bad current limit %q: %w", row[2], err)
	}
	requested, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return core.LimitRequest{}, fmt.Errorf("bad requested limit %q: %w", row[3], err)
	}
	return core.LimitRequest{
		CPF:            row[0],
		RequestedAt:    at,
		CurrentLimit:   current,
		RequestedLimit: requested,
		Status:         core.RequestStatus(row[4]),
	}, nil
}
