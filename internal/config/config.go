// Package config loads process configuration for the chat-app binaries.
//
// Values are resolved in order: defaults, an optional YAML file, environment
// variables, then explicit overrides (typically CLI flags).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// OpenRouterBaseURL is the default OpenAI-compatible endpoint.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// Config holds the configuration of the server and the CLI client.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// JWTSecret derives the token signing key.
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Debug     bool          `yaml:"debug"`

	Store  StoreConfig  `yaml:"store"`
	Model  ModelConfig  `yaml:"model"`
	Search SearchConfig `yaml:"search"`
	Agent  AgentConfig  `yaml:"agent"`
	Log    LogConfig    `yaml:"log"`
}

// StoreConfig selects the conversation store.
type StoreConfig struct {
	Kind        string `yaml:"kind"` // memory, sqlite or redis
	DSN         string `yaml:"dsn"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisPrefix string `yaml:"redis_prefix"`
}

// ModelConfig selects the language model.
type ModelConfig struct {
	Provider    string  `yaml:"provider"`
	Name        string  `yaml:"name"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// SearchConfig configures the web search tool.
type SearchConfig struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
}

// AgentConfig bounds agent runs.
type AgentConfig struct {
	Instruction        string        `yaml:"instruction"`
	MaxModelCalls      int           `yaml:"max_model_calls"`
	MaxConcurrentRuns  int           `yaml:"max_concurrent_runs"`
	MaxHistoryMessages int           `yaml:"max_history_messages"`
	ToolTimeout        time.Duration `yaml:"tool_timeout"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Overrides optionally overrides file and environment values.
//
// A nil pointer means "use the file/environment/default value".
type Overrides struct {
	Addr      *string
	StoreKind *string
	DSN       *string
	JWTSecret *string
	Model     *string
	Debug     *bool
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:           ":3000",
		AllowedOrigins: []string{"*"},
		TokenTTL:       30 * 24 * time.Hour,
		Store: StoreConfig{
			Kind:        "sqlite",
			DSN:         "chat.db",
			RedisAddr:   "localhost:6379",
			RedisPrefix: "chat",
		},
		Model: ModelConfig{
			Provider:    ProviderOpenAI,
			Name:        "openai/gpt-5-mini",
			BaseURL:     OpenRouterBaseURL,
			Temperature: 1,
			MaxTokens:   4096,
		},
		Agent: AgentConfig{
			MaxModelCalls:     10,
			MaxConcurrentRuns: 10,
			ToolTimeout:       30 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load resolves the configuration. path may be empty; a non-empty path must
// exist.
func Load(path string, overrides Overrides) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyOverrides(overrides)
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Addr = fmt.Sprintf(":%d", p)
	}
	setString(&c.Store.Kind, "CHAT_STORE")
	setString(&c.Store.DSN, "CHAT_DATABASE")
	setString(&c.Store.RedisAddr, "REDIS_ADDR")
	setString(&c.JWTSecret, "CHAT_JWT_SECRET")
	setString(&c.Model.Provider, "CHAT_MODEL_PROVIDER")
	setString(&c.Model.Name, "CHAT_MODEL")
	setString(&c.Model.BaseURL, "OPENAI_BASE_URL")
	setString(&c.Search.APIKey, "LANGSEARCH_API_KEY")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.Log.Level, "LOG_LEVEL")

	switch c.Model.Provider {
	case ProviderOpenAI:
		setString(&c.Model.APIKey, "OPENROUTER_API_KEY")
	case ProviderAnthropic:
		setString(&c.Model.APIKey, "ANTHROPIC_API_KEY")
		if c.Model.BaseURL == OpenRouterBaseURL {
			c.Model.BaseURL = ""
		}
	}

	if v := os.Getenv("DEBUG"); v != "" {
		c.Debug = v == "true" || v == "1"
	}
	return nil
}

func (c *Config) applyOverrides(o Overrides) {
	if o.Addr != nil {
		c.Addr = *o.Addr
	}
	if o.StoreKind != nil {
		c.Store.Kind = *o.StoreKind
	}
	if o.DSN != nil {
		c.Store.DSN = *o.DSN
	}
	if o.JWTSecret != nil {
		c.JWTSecret = *o.JWTSecret
	}
	if o.Model != nil {
		c.Model.Name = *o.Model
	}
	if o.Debug != nil {
		c.Debug = *o.Debug
	}
}

// Validate reports every setting the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("CHAT_JWT_SECRET is required"))
	}

	switch c.Store.Kind {
	case "memory":
	case "sqlite":
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("sqlite store requires CHAT_DATABASE"))
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			errs = append(errs, errors.New("redis store requires REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store kind %q", c.Store.Kind))
	}

	switch c.Model.Provider {
	case ProviderOpenAI, ProviderAnthropic:
		if c.Model.APIKey == "" {
			errs = append(errs, fmt.Errorf("%s model requires an API key", c.Model.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown model provider %q", c.Model.Provider))
	}
	if c.Model.Name == "" {
		errs = append(errs, errors.New("model name is required"))
	}

	if c.Agent.MaxModelCalls <= 0 {
		errs = append(errs, errors.New("agent.max_model_calls must be positive"))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}
