package service

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/logging"
)

const clientDateLayout = "2006-01-02"

var clientHeader = []string{"cpf", "nome", "data_nascimento", "score", "limite_atual"}

// ClientStore reads and writes the CSV-backed client table. Updates use a
// row-scan plus full rewrite, so all writes are serialized behind a mutex.
type ClientStore struct {
	path   string
	mu     sync.Mutex
	logger logging.Logger
}

// NewClientStore creates a store over the given CSV file.
func NewClientStore(path string, logger logging.Logger) *ClientStore {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &ClientStore{path: path, logger: logger}
}

// SanitizeCPF strips formatting punctuation from a CPF.
func SanitizeCPF(cpf string) string {
	cpf = strings.ReplaceAll(cpf, ".", "")
	cpf = strings.ReplaceAll(cpf, "-", "")
	return strings.TrimSpace(cpf)
}

// FindByCPF returns the client record for a CPF, or false when absent.
// Malformed rows and a missing file are treated as not found.
func (s *ClientStore) FindByCPF(cpf string) (core.Client, bool) {
	target := SanitizeCPF(cpf)
	for _, c := range s.readAll() {
		if c.CPF == target {
			return c, true
		}
	}
	return core.Client{}, false
}

// Authenticate matches a CPF and birth date against the client table. The
// birth date is accepted as YYYY-MM-DD or DD/MM/YYYY.
func (s *ClientStore) Authenticate(cpf, birthDate string) (core.Client, bool) {
	client, ok := s.FindByCPF(cpf)
	if !ok {
		return core.Client{}, false
	}
	parsed, err := parseBirthDate(birthDate)
	if err != nil {
		return core.Client{}, false
	}
	if !client.BirthDate.Equal(parsed) {
		return core.Client{}, false
	}
	return client, true
}

// UpdateScore rewrites the client's score. Returns false when the CPF is not
// present or the table cannot be read.
func (s *ClientStore) UpdateScore(cpf string, score int) bool {
	return s.updateField(cpf, func(c *core.Client) { c.Score = score })
}

// UpdateLimit rewrites the client's current credit limit.
func (s *ClientStore) UpdateLimit(cpf string, limit float64) bool {
	return s.updateField(cpf, func(c *core.Client) { c.CurrentLimit = limit })
}

// Add appends a new client. The CPF must be 11 digits and not yet present;
// the initial limit is the caller's responsibility (derived from score).
func (s *ClientStore) Add(cpf, name, birthDate string, score int, initialLimit float64) error {
	clean := SanitizeCPF(cpf)
	if len(clean) != 11 || !isDigits(clean) {
		return fmt.Errorf("invalid cpf: must be 11 digits")
	}
	if _, exists := s.FindByCPF(clean); exists {
		return fmt.Errorf("client %s already exists", clean)
	}
	parsed, err := parseBirthDate(birthDate)
	if err != nil {
		return fmt.Errorf("invalid birth date: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	needHeader := true
	if info, err := os.Stat(s.path); err == nil && info.Size() > 0 {
		needHeader = false
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open client table: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(clientHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := w.Write(clientRow(core.Client{
		CPF:          clean,
		Name:         name,
		BirthDate:    parsed,
		Score:        score,
		CurrentLimit: initialLimit,
	})); err != nil {
		return fmt.Errorf("write client row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// ListAll returns every valid client row. Malformed rows are skipped with a
// warning.
func (s *ClientStore) ListAll() []core.Client {
	return s.readAll()
}

func (s *ClientStore) updateField(cpf string, mutate func(*core.Client)) bool {
	target := SanitizeCPF(cpf)

	s.mu.Lock()
	defer s.mu.Unlock()

	clients := s.readAll()
	found := false
	for i := range clients {
		if clients[i].CPF == target {
			mutate(&clients[i])
			found = true
		}
	}
	if !found {
		return false
	}
	if err := s.writeAll(clients); err != nil {
		s.logger.Error("client table rewrite failed", "path", s.path, "error", err)
		return false
	}
	return true
}

func (s *ClientStore) readAll() []core.Client {
	f, err := os.Open(s.path)
	if err != nil {
		return nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil || len(rows) < 2 {
		return nil
	}

	clients := make([]core.Client, 0, len(rows)-1)
	for _, row := range rows[1:] {
		c, err := parseClientRow(row)
		if err != nil {
			s.logger.Warn("skipping malformed client row", "error", err)
			continue
		}
		clients = append(clients, c)
	}
	return clients
}

func (s *ClientStore) writeAll(clients []core.Client) error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(clientHeader); err != nil {
		f.Close()
		return err
	}
	for _, c := range clients {
		if err := w.Write(clientRow(c)); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func parseClientRow(row []string) (core.Client, error) {
	if len(row) < 5 {
		return core.Client{}, fmt.Errorf("expected 5 columns, got %d", len(row))
	}
	birth, err := time.Parse(clientDateLayout, row[2])
	if err != nil {
		return core.Client{}, fmt.Errorf("bad birth date %q: %w", row[2], err)
	}
	score, err := strconv.Atoi(row[3])
	if err != nil {
		return core.Client{}, fmt.Errorf("bad score %q: %w", row[3], err)
	}
	limit, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return core.Client{}, fmt.Errorf("bad limit %q: %w", row[4], err)
	}
	return core.Client{
		CPF:          row[0],
		Name:         row[1],
		BirthDate:    birth,
		Score:        score,
		CurrentLimit: limit,
	}, nil
}

func clientRow(c core.Client) []string {
	return []string{
		c.CPF,
		c.Name,
		c.BirthDate.Format(clientDateLayout),
		strconv.Itoa(c.Score),
		fmt.Sprintf("%.2f", c.CurrentLimit),
	}
}

func parseBirthDate(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if t, err := time.Parse(clientDateLayout, input); err == nil {
		return t, nil
	}
	if t, err := time.Parse("02/01/2006", input); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", input)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
