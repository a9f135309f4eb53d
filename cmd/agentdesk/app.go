package main

import (
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/redis/go-redis/v9"

	"github.com/bancoagil/agentdesk/agent"
	"github.com/bancoagil/agentdesk/config"
	"github.com/bancoagil/agentdesk/history"
	"github.com/bancoagil/agentdesk/logging"
	"github.com/bancoagil/agentdesk/model"
	anthropicexec "github.com/bancoagil/agentdesk/model/anthropic"
	openaiexec "github.com/bancoagil/agentdesk/model/openai"
	"github.com/bancoagil/agentdesk/orchestrator"
	"github.com/bancoagil/agentdesk/service"
	"github.com/bancoagil/agentdesk/session"
)

// app bundles the wired components shared by the serve and chat commands.
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	clients  *service.ClientStore
	credit   *service.CreditService
	history  *history.Store
	sessions *session.Manager
}

func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(&logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
	})

	clients := service.NewClientStore(cfg.Data.ClientsCSV, logger)
	score := service.NewScoreService(logger)
	credit := service.NewCreditService(cfg.Data.ScoreTableCSV, cfg.Data.RequestsCSV, logger)

	var cache *service.QuoteCache
	if cfg.Exchange.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Exchange.RedisAddr})
		cache = service.NewQuoteCache(rdb, "agentdesk:quote:", cfg.Exchange.CacheTTL, logger)
		logger.Info("quote cache enabled", "addr", cfg.Exchange.RedisAddr, "ttl", cfg.Exchange.CacheTTL)
	}

	exchange := service.NewExchangeService(func(o *service.ExchangeOptions) {
		o.BaseURL = cfg.Exchange.BaseURL
		o.APIKey = cfg.Exchange.APIKey
		o.HTTPClient = &http.Client{Timeout: cfg.Exchange.Timeout}
		o.Cache = cache
		o.Aliases = cfg.CurrencyAliases
		o.Logger = logger
	})

	registry := agent.NewRegistry(agent.Deps{
		Clients:  clients,
		Credit:   credit,
		Score:    score,
		Exchange: exchange,
		Synonyms: cfg.EmploymentSynonyms,
		Prompts:  agent.NewPromptStore(cfg.PromptsDir),
	})
	builder := agent.NewTaskBuilder(credit, cfg.Orchestrator.HistoryWindow)

	executor, err := buildExecutor(cfg, logger)
	if err != nil {
		return nil, err
	}

	hist, err := history.NewStore(cfg.History.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	factory := func(conversationID string) *orchestrator.Orchestrator {
		return orchestrator.New(registry, builder, executor, func(o *orchestrator.Options) {
			o.ConversationID = conversationID
			o.MaxRedirectHops = cfg.Orchestrator.MaxRedirectHops
			o.ExecutorTimeout = cfg.Orchestrator.ExecutorTimeout
			o.History = hist
			o.Logger = logger
		})
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		clients:  clients,
		credit:   credit,
		history:  hist,
		sessions: session.NewManager(factory, logger),
	}, nil
}

func buildExecutor(cfg *config.Config, logger logging.Logger) (agent.Executor, error) {
	switch cfg.Model.Provider {
	case "openai":
		return openaiexec.NewExecutor(func(o *openaiexec.Options) {
			if cfg.Model.Name != "" {
				o.Model = cfg.Model.Name
			}
			o.Temperature = cfg.Model.Temperature
			o.Logger = logger
		}), nil
	case "anthropic":
		return anthropicexec.NewExecutor(func(o *anthropicexec.Options) {
			if cfg.Model.Name != "" {
				o.Model = anthropic.Model(cfg.Model.Name)
			}
			o.Temperature = cfg.Model.Temperature
			o.Logger = logger
		}), nil
	case "mock":
		// For local smoke runs without an API key.
		return model.NewMockExecutor("Ola! Como posso ajudar?"), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}

func (a *app) close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Error("failed to close history store", "error", err)
		}
	}
}
