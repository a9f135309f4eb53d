// Package config provides application configuration from environment
// variables with an optional YAML overlay for the tables that operators tune
// (employment synonyms, currency aliases, orchestrator knobs).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Port      string `yaml:"port"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	Model        ModelConfig        `yaml:"model"`
	Data         DataConfig         `yaml:"data"`
	History      HistoryConfig      `yaml:"history"`
	Exchange     ExchangeConfig     `yaml:"exchange"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	PromptsDir   string             `yaml:"prompts_dir"`

	// EmploymentSynonyms maps free-form employment input to the canonical
	// employment types used by the score service.
	EmploymentSynonyms map[string]string `yaml:"employment_synonyms"`
	// CurrencyAliases maps colloquial currency names to ISO codes.
	CurrencyAliases map[string]string `yaml:"currency_aliases"`
}

// ModelConfig selects and tunes the agent executor backend.
type ModelConfig struct {
	Provider    string  `yaml:"provider"` // openai, anthropic or mock
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
}

// DataConfig locates the CSV-backed client and credit tables.
type DataConfig struct {
	ClientsCSV    string `yaml:"clients_csv"`
	ScoreTableCSV string `yaml:"score_table_csv"`
	RequestsCSV   string `yaml:"requests_csv"`
}

// HistoryConfig locates the durable conversation history store.
type HistoryConfig struct {
	DBPath string `yaml:"db_path"`
}

// ExchangeConfig tunes the FX quote provider and its optional cache.
type ExchangeConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Timeout   time.Duration `yaml:"timeout"`
	RedisAddr string        `yaml:"redis_addr"` // empty disables the cache
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// OrchestratorConfig tunes the hand-off state machine.
type OrchestratorConfig struct {
	// MaxRedirectHops caps automatic replays after a redirect signal.
	MaxRedirectHops int `yaml:"max_redirect_hops"`
	// ExecutorTimeout bounds a single agent executor invocation.
	ExecutorTimeout time.Duration `yaml:"executor_timeout"`
	// HistoryWindow is the number of history entries rendered into prompts.
	HistoryWindow int `yaml:"history_window"`
}

// Load reads configuration from environment variables, then applies the YAML
// overlay named by AGENTDESK_CONFIG when present.
func Load() (*Config, error) {
	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		Model: ModelConfig{
			Provider:    getEnv("MODEL_PROVIDER", "openai"),
			Name:        getEnv("MODEL_NAME", ""),
			Temperature: getEnvFloat("MODEL_TEMPERATURE", 0.3),
		},
		Data: DataConfig{
			ClientsCSV:    getEnv("CLIENTS_CSV", "./data/clientes.csv"),
			ScoreTableCSV: getEnv("SCORE_TABLE_CSV", "./data/score_limite.csv"),
			RequestsCSV:   getEnv("REQUESTS_CSV", "./data/solicitacoes_aumento_limite.csv"),
		},
		History: HistoryConfig{
			DBPath: getEnv("HISTORY_DB_PATH", "./data/history.db"),
		},
		Exchange: ExchangeConfig{
			BaseURL:   getEnv("EXCHANGE_BASE_URL", "https://serpapi.com/search.json"),
			APIKey:    getEnv("EXCHANGE_API_KEY", ""),
			Timeout:   getEnvDuration("EXCHANGE_TIMEOUT", 10*time.Second),
			RedisAddr: getEnv("REDIS_ADDR", ""),
			CacheTTL:  getEnvDuration("EXCHANGE_CACHE_TTL", 5*time.Minute),
		},
		Orchestrator: OrchestratorConfig{
			MaxRedirectHops: getEnvInt("MAX_REDIRECT_HOPS", 1),
			ExecutorTimeout: getEnvDuration("EXECUTOR_TIMEOUT", 120*time.Second),
			HistoryWindow:   getEnvInt("HISTORY_WINDOW", 20),
		},
		PromptsDir:         getEnv("PROMPTS_DIR", ""),
		EmploymentSynonyms: DefaultEmploymentSynonyms(),
		CurrencyAliases:    DefaultCurrencyAliases(),
	}

	if path := os.Getenv("AGENTDESK_CONFIG"); path != "" {
		if err := cfg.ApplyYAML(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyYAML overlays settings from a YAML file onto the config.
func (c *Config) ApplyYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks that required fields are set and knobs are sane.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.Data.ClientsCSV == "" || c.Data.ScoreTableCSV == "" || c.Data.RequestsCSV == "" {
		return fmt.Errorf("data CSV paths cannot be empty")
	}
	if c.Orchestrator.MaxRedirectHops < 0 {
		return fmt.Errorf("MAX_REDIRECT_HOPS cannot be negative")
	}
	if c.Orchestrator.HistoryWindow <= 0 {
		return fmt.Errorf("HISTORY_WINDOW must be > 0")
	}
	return nil
}

// DefaultEmploymentSynonyms returns the canonical synonym table
// (CLT is formal employment, PJ is self-employment).
func DefaultEmploymentSynonyms() map[string]string {
	return map[string]string{
		"CLT":          "formal",
		"FORMAL":       "formal",
		"PJ":           "autonomo",
		"AUTONOMO":     "autonomo",
		"AUTÔNOMO":     "autonomo",
		"DESEMPREGADO": "desempregado",
	}
}

// DefaultCurrencyAliases maps colloquial currency names to ISO codes.
func DefaultCurrencyAliases() map[string]string {
	return map[string]string{
		"dolar":             "USD",
		"dollar":            "USD",
		"dolar americano":   "USD",
		"euro":              "EUR",
		"libra":             "GBP",
		"pound":             "GBP",
		"libra esterlina":   "GBP",
		"peso":              "ARS",
		"peso argentino":    "ARS",
		"dolar canadense":   "CAD",
		"dolar australiano": "AUD",
		"iene":              "JPY",
		"yen":               "JPY",
		"franco":            "CHF",
		"franco suico":      "CHF",
		"yuan":              "CNY",
		"bitcoin":           "BTC",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
