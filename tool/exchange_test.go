package tool

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bancoagil/agentdesk/config"
	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/service"
)

func newTestExchange(t *testing.T, handler http.HandlerFunc) *service.ExchangeService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return service.NewExchangeService(func(o *service.ExchangeOptions) {
		o.BaseURL = srv.URL
		o.Aliases = config.DefaultCurrencyAliases()
	})
}

func TestQuoteRate_Success(t *testing.T) {
	exchange := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1 USD to BRL", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"answer_box":{"result":"5.4321 Brazilian Real"}}`)
	})
	tool := NewQuoteRate(exchange)
	tc := newTestContext(core.NewSessionContext(), core.AgentExchange)

	out, err := tool.Call(tc, map[string]any{"moeda": "dolar"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "COTACAO|USD|5.4321|"), out)
}

func TestQuoteRate_ISOCodePassedThrough(t *testing.T) {
	exchange := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1 EUR to BRL", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"answer_box":{"answer":"6.10"}}`)
	})
	tool := NewQuoteRate(exchange)
	tc := newTestContext(core.NewSessionContext(), core.AgentExchange)

	out, err := tool.Call(tc, map[string]any{"moeda": "eur"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "COTACAO|EUR|6.1000|"), out)
}

func TestQuoteRate_UpstreamFailure(t *testing.T) {
	exchange := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	tool := NewQuoteRate(exchange)
	tc := newTestContext(core.NewSessionContext(), core.AgentExchange)

	out, err := tool.Call(tc, map[string]any{"moeda": "dolar"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "API_INDISPONIVEL|"), out)
}

func TestQuoteRate_NoRateInPayload(t *testing.T) {
	exchange := newTestExchange(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})
	tool := NewQuoteRate(exchange)
	tc := newTestContext(core.NewSessionContext(), core.AgentExchange)

	out, err := tool.Call(tc, map[string]any{"moeda": "iene"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "API_INDISPONIVEL|"), out)
}

func TestListCurrencies(t *testing.T) {
	tool := NewListCurrencies()
	tc := newTestContext(core.NewSessionContext(), core.AgentExchange)

	out, err := tool.Call(tc, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "MOEDAS|"), out)
	assert.Contains(t, out, "USD (Dolar Americano)")
	assert.Contains(t, out, "BTC (Bitcoin)")
}
