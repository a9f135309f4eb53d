package agent

import (
	"embed"
	"os"
	"path/filepath"

	"github.com/bancoagil/agentdesk/core"
)

//go:embed prompts/*.txt
var embeddedPrompts embed.FS

var promptFiles = map[core.AgentID]string{
	core.AgentTriage:    "triagem_prompt.txt",
	core.AgentCredit:    "credito_prompt.txt",
	core.AgentInterview: "entrevista_prompt.txt",
	core.AgentExchange:  "cambio_prompt.txt",
}

// PromptStore resolves per-agent prompt templates. Templates are compiled in
// by default; a directory override lets operators tune prompts without a
// rebuild.
type PromptStore struct {
	dir string
}

// NewPromptStore returns a store reading the embedded templates. If dir is
// non-empty, files found there take precedence over the embedded copies.
func NewPromptStore(dir string) *PromptStore {
	return &PromptStore{dir: dir}
}

// Load returns the raw prompt template for the given agent.
func (s *PromptStore) Load(id core.AgentID) (string, error) {
	name, ok := promptFiles[id]
	if !ok {
		return "", &core.ConfigurationError{
			Resource: "prompt:" + id.String(),
			Err:      os.ErrNotExist,
		}
	}

	if s.dir != "" {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", &core.ConfigurationError{Resource: "prompt:" + name, Err: err}
		}
	}

	data, err := embeddedPrompts.ReadFile("prompts/" + name)
	if err != nil {
		return "", &core.ConfigurationError{Resource: "prompt:" + name, Err: err}
	}
	return string(data), nil
}
