package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/logging"
)

// RateUnavailableText is the advisory handed to the agent when the upstream
// quote API cannot answer; the agent phrases the apology to the customer.
const RateUnavailableText = "A API de cotação de câmbio está indisponível no momento. " +
	"Não é possível fornecer o valor da cotação agora. " +
	"Por favor, peça ao cliente para tentar novamente em alguns minutos."

// RateProvider produces a quote for a currency pair.
type RateProvider interface {
	Quote(ctx context.Context, base, target string) (core.Quote, error)
}

// ExchangeOptions configure the exchange service.
type ExchangeOptions struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Cache      *QuoteCache
	Aliases    map[string]string
	Logger     logging.Logger
}

// ExchangeService fetches currency quotes from a search-style upstream API
// (answer-box JSON payloads) with an optional read-through cache. Every
// upstream failure mode maps to core.RateUnavailableError.
type ExchangeService struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cache   *QuoteCache
	aliases map[string]string
	logger  logging.Logger
}

// NewExchangeService constructs the service with optional overrides.
func NewExchangeService(optFns ...func(o *ExchangeOptions)) *ExchangeService {
	opts := ExchangeOptions{
		BaseURL:    "https://serpapi.com/search.json",
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Aliases:    map[string]string{},
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ExchangeService{
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		client:  opts.HTTPClient,
		cache:   opts.Cache,
		aliases: opts.Aliases,
		logger:  opts.Logger,
	}
}

// ResolveCurrency maps a colloquial currency name through the alias table,
// falling back to the upper-cased input as an ISO code.
func (s *ExchangeService) ResolveCurrency(input string) string {
	key := strings.ToLower(strings.TrimSpace(input))
	if code, ok := s.aliases[key]; ok {
		return code
	}
	return strings.ToUpper(strings.TrimSpace(input))
}

// Quote returns the current rate for one unit of base in target currency.
func (s *ExchangeService) Quote(ctx context.Context, base, target string) (core.Quote, error) {
	base = strings.ToUpper(base)
	target = strings.ToUpper(target)

	if s.cache != nil {
		if q, ok := s.cache.Get(ctx, base, target); ok {
			s.logger.Debug("quote cache hit", "base", base, "target", target)
			return q, nil
		}
	}

	q, err := s.fetch(ctx, base, target)
	if err != nil {
		return core.Quote{}, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, q)
	}
	return q, nil
}

// answerPayload mirrors the subset of the upstream response we read.
type answerPayload struct {
	AnswerBox struct {
		Result string `json:"result"`
		Answer string `json:"answer"`
	} `json:"answer_box"`
	KnowledgeGraph struct {
		Description string `json:"description"`
	} `json:"knowledge_graph"`
	OrganicResults []struct {
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

func (s *ExchangeService) fetch(ctx context.Context, base, target string) (core.Quote, error) {
	query := url.Values{}
	query.Set("q", fmt.Sprintf("1 %s to %s", base, target))
	query.Set("engine", "google")
	query.Set("hl", "pt-br")
	query.Set("gl", "br")
	if s.apiKey != "" {
		query.Set("api_key", s.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return core.Quote{}, s.unavailable("build request", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return core.Quote{}, s.unavailable("transport", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.Quote{}, s.unavailable("status", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var payload answerPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return core.Quote{}, s.unavailable("decode", err)
	}

	value, ok := extractRate(payload)
	if !ok {
		return core.Quote{}, s.unavailable("parse", fmt.Errorf("no rate value in response"))
	}

	return core.Quote{
		Base:     base,
		Target:   target,
		Value:    value,
		QuotedAt: time.Now(),
	}, nil
}

func (s *ExchangeService) unavailable(stage string, err error) error {
	s.logger.Error("exchange rate lookup failed", "stage", stage, "error", err)
	return &core.RateUnavailableError{Reason: err}
}

var ratePattern = regexp.MustCompile(`(\d+\.?\d*)`)

// extractRate walks the payload's answer locations in priority order and
// pulls the first numeric value it finds.
func extractRate(p answerPayload) (float64, bool) {
	candidates := []string{
		p.AnswerBox.Result,
		p.AnswerBox.Answer,
		p.KnowledgeGraph.Description,
	}
	if len(p.OrganicResults) > 0 {
		candidates = append(candidates, p.OrganicResults[0].Snippet)
	}
	for _, text := range candidates {
		if text == "" {
			continue
		}
		if v, ok := extractNumber(text); ok {
			return v, true
		}
	}
	return 0, false
}

func extractNumber(text string) (float64, bool) {
	text = strings.ReplaceAll(text, ",", ".")
	match := ratePattern.FindString(text)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
