package tool

import (
	"fmt"

	"github.com/bancoagil/agentdesk/service"
)

// maxAuthAttempts is the advisory lockout threshold. The lockout is
// conversational: the tool reports BLOQUEADO and the agent refuses further
// attempts; the orchestrator does not hard-block the session.
const maxAuthAttempts = 3

// authenticateClient matches a CPF and birth date against the client table
// and binds the client's data to the session on success.
type authenticateClient struct {
	clients *service.ClientStore
}

// NewAuthenticateClient constructs the triage authentication tool.
func NewAuthenticateClient(clients *service.ClientStore) Tool {
	return &authenticateClient{clients: clients}
}

func (t *authenticateClient) Name() string { return "autenticar_cliente" }

func (t *authenticateClient) Description() string {
	return "Autentica o cliente usando CPF e data de nascimento. " +
		"Retorna os dados do cliente se autenticado ou mensagem de erro."
}

func (t *authenticateClient) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"cpf": map[string]any{
				"type":        "string",
				"description": "CPF do cliente (com ou sem formatacao)",
			},
			"data_nascimento": map[string]any{
				"type":        "string",
				"description": "Data de nascimento (formato: DD/MM/AAAA ou AAAA-MM-DD)",
			},
		},
		"required": []string{"cpf", "data_nascimento"},
	}
}

func (t *authenticateClient) Call(tc *Context, args map[string]any) (string, error) {
	cpf, err := stringArg(args, "cpf")
	if err != nil {
		return "", err
	}
	birthDate, err := stringArg(args, "data_nascimento")
	if err != nil {
		return "", err
	}

	session := tc.Session()
	client, ok := t.clients.Authenticate(cpf, birthDate)
	if ok {
		session.MarkAuthenticated(client)
		tc.Logger().Info("client authenticated", "cpf", client.CPF, "name", client.Name)
		return fmt.Sprintf("AUTENTICADO|%s|%d|%.2f", client.Name, client.Score, client.CurrentLimit), nil
	}

	attempts := session.RegisterFailedAuth()
	remaining := maxAuthAttempts - attempts
	tc.Logger().Warn("authentication failed", "attempts", attempts)
	if remaining > 0 {
		return fmt.Sprintf("FALHA|%d tentativa(s) restante(s)", remaining), nil
	}
	return "BLOQUEADO|Limite de tentativas excedido", nil
}

// checkAuthentication reports the session's authentication state.
type checkAuthentication struct{}

// NewCheckAuthentication constructs the authentication status tool.
func NewCheckAuthentication() Tool { return &checkAuthentication{} }

func (t *checkAuthentication) Name() string { return "verificar_autenticacao" }

func (t *checkAuthentication) Description() string {
	return "Verifica se o cliente ja esta autenticado na sessao atual."
}

func (t *checkAuthentication) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *checkAuthentication) Call(tc *Context, _ map[string]any) (string, error) {
	authenticated, _, name, _, _, attempts := tc.Session().Snapshot()
	if authenticated {
		return fmt.Sprintf("AUTENTICADO|%s", name), nil
	}
	return fmt.Sprintf("NAO_AUTENTICADO|Tentativas: %d/%d", attempts, maxAuthAttempts), nil
}
