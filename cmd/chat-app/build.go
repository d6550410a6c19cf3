package main

import (
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	chatapp "github.com/justanuragmaurya/chat-app"
	"github.com/justanuragmaurya/chat-app/internal/config"
	"github.com/justanuragmaurya/chat-app/logging"
	"github.com/justanuragmaurya/chat-app/model"
	"github.com/justanuragmaurya/chat-app/model/anthropic"
	"github.com/justanuragmaurya/chat-app/model/openai"
	"github.com/justanuragmaurya/chat-app/store"
)

// buildModel creates the configured language model.
func buildModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.Model = cfg.Name
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = cfg.MaxTokens
		}), nil
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(cfg.Name)
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// buildApp assembles the application from cfg.
func buildApp(cfg *config.Config, logger logging.Logger) (*chatapp.App, error) {
	llm, err := buildModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(store.Options{
		Kind:        cfg.Store.Kind,
		DSN:         cfg.Store.DSN,
		RedisAddr:   cfg.Store.RedisAddr,
		RedisPrefix: cfg.Store.RedisPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Kind, err)
	}

	app, err := chatapp.New(llm, func(o *chatapp.Options) {
		o.Store = st
		o.SearchAPIKey = cfg.Search.APIKey
		o.SearchEndpoint = cfg.Search.Endpoint
		o.Instruction = cfg.Agent.Instruction
		o.MaxModelCalls = cfg.Agent.MaxModelCalls
		o.MaxConcurrentRuns = cfg.Agent.MaxConcurrentRuns
		o.MaxHistoryMessages = cfg.Agent.MaxHistoryMessages
		o.ToolTimeout = cfg.Agent.ToolTimeout
		o.Logger = logger
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return app, nil
}
