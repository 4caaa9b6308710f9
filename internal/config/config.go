package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Research   ResearchConfig   `yaml:"research" mapstructure:"research"`
	Rates      RatesConfig      `yaml:"rates" mapstructure:"rates"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Voice      VoiceConfig      `yaml:"voice" mapstructure:"voice"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the bid store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// JinaConfig holds Jina Search settings.
type JinaConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	SearchBaseURL string  `yaml:"search_base_url" mapstructure:"search_base_url"`
	RatePerSec    float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// LLMConfig selects the generative backend.
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Google Gemini settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ResearchConfig controls retries against the search backend.
type ResearchConfig struct {
	Backend        string  `yaml:"backend" mapstructure:"backend"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
	InitialDelayMs int     `yaml:"initial_delay_ms" mapstructure:"initial_delay_ms"`
	BackoffFactor  float64 `yaml:"backoff_factor" mapstructure:"backoff_factor"`
}

// RatesConfig configures the labour rate cache.
type RatesConfig struct {
	CacheTTLHours int `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// PricingConfig configures the pricing engine.
type PricingConfig struct {
	// CataloguePath optionally points at a YAML file that overrides the
	// built-in material catalogue.
	CataloguePath string `yaml:"catalogue_path" mapstructure:"catalogue_path"`
}

// VoiceConfig holds voice room credentials.
type VoiceConfig struct {
	APIKey       string `yaml:"api_key" mapstructure:"api_key"`
	APISecret    string `yaml:"api_secret" mapstructure:"api_secret"`
	URL          string `yaml:"url" mapstructure:"url"`
	TokenTTLSecs int    `yaml:"token_ttl_secs" mapstructure:"token_ttl_secs"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

var (
	validDrivers   = map[string]bool{"memory": true, "sqlite": true, "postgres": true}
	validProviders = map[string]bool{"anthropic": true, "perplexity": true, "gemini": true, "none": true}
	validBackends  = map[string]bool{"jina": true, "perplexity": true}
)

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.database_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("jina.key", "")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("jina.rate_per_sec", 5.0)
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("perplexity.key", "")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("research.backend", "jina")
	v.SetDefault("research.max_retries", 3)
	v.SetDefault("research.initial_delay_ms", 1000)
	v.SetDefault("research.backoff_factor", 2.0)
	v.SetDefault("rates.cache_ttl_hours", 24)
	v.SetDefault("pricing.catalogue_path", "")
	v.SetDefault("voice.api_key", "")
	v.SetDefault("voice.api_secret", "")
	v.SetDefault("voice.url", "")
	v.SetDefault("voice.token_ttl_secs", 3600)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// EffectiveProvider returns the configured LLM provider, or "none" when the
// selected provider has no API key.
func (c *Config) EffectiveProvider() string {
	p := strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	switch p {
	case "anthropic":
		if c.Anthropic.Key == "" {
			return "none"
		}
	case "perplexity":
		if c.Perplexity.Key == "" {
			return "none"
		}
	case "gemini":
		if c.Gemini.Key == "" {
			return "none"
		}
	case "":
		return "none"
	}
	return p
}

// Validate checks that the config is usable for the given mode ("serve" or
// "bid"). All problems are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	case "bid":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if !validDrivers[c.Store.Driver] {
		errs = append(errs, "store.driver must be one of memory, sqlite, postgres")
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for postgres")
	}
	if !validProviders[strings.ToLower(strings.TrimSpace(c.LLM.Provider))] {
		errs = append(errs, "llm.provider must be one of anthropic, perplexity, gemini, none")
	}
	if !validBackends[c.Research.Backend] {
		errs = append(errs, "research.backend must be one of jina, perplexity")
	}
	if c.Research.MaxRetries < 0 {
		errs = append(errs, "research.max_retries must be >= 0")
	}
	if c.Rates.CacheTTLHours <= 0 {
		errs = append(errs, "rates.cache_ttl_hours must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
