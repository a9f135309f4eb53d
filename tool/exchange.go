package tool

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/service"
)

// quoteRate looks up the current rate for a currency against the real.
type quoteRate struct {
	exchange *service.ExchangeService
}

// NewQuoteRate constructs the currency quotation tool.
func NewQuoteRate(exchange *service.ExchangeService) Tool {
	return &quoteRate{exchange: exchange}
}

func (t *quoteRate) Name() string { return "consultar_cotacao" }

func (t *quoteRate) Description() string {
	return "Consulta a cotacao atual de uma moeda estrangeira em relacao ao real brasileiro."
}

func (t *quoteRate) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"moeda": map[string]any{
				"type":        "string",
				"description": "Nome ou codigo da moeda (ex: dolar, euro, USD, EUR)",
			},
		},
		"required": []string{"moeda"},
	}
}

func (t *quoteRate) Call(tc *Context, args map[string]any) (string, error) {
	raw, err := stringArg(args, "moeda")
	if err != nil {
		return "", err
	}

	code := t.exchange.ResolveCurrency(raw)
	quote, err := t.exchange.Quote(tc.Context(), code, "BRL")
	if err != nil {
		var unavailable *core.RateUnavailableError
		if errors.As(err, &unavailable) {
			return "API_INDISPONIVEL|" + service.RateUnavailableText, nil
		}
		return "", err
	}

	return fmt.Sprintf("COTACAO|%s|%.4f|%s",
		quote.Base, quote.Value, quote.QuotedAt.Format("15:04")), nil
}

// supportedCurrencies is the fixed catalogue offered to customers.
var supportedCurrencies = []string{
	"USD (Dolar Americano)",
	"EUR (Euro)",
	"GBP (Libra Esterlina)",
	"ARS (Peso Argentino)",
	"JPY (Iene Japones)",
	"CHF (Franco Suico)",
	"CNY (Yuan Chines)",
	"BTC (Bitcoin)",
}

// listCurrencies enumerates the currencies the desk quotes.
type listCurrencies struct{}

// NewListCurrencies constructs the currency catalogue tool.
func NewListCurrencies() Tool {
	return listCurrencies{}
}

func (listCurrencies) Name() string { return "listar_moedas_disponiveis" }

func (listCurrencies) Description() string {
	return "Lista as moedas estrangeiras disponiveis para consulta de cotacao."
}

func (listCurrencies) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (listCurrencies) Call(tc *Context, args map[string]any) (string, error) {
	return "MOEDAS|" + strings.Join(supportedCurrencies, "|"), nil
}
