// Package config loads application configuration from config.yaml, a .env
// file and DOMAIN_RESOLVER_* environment variables.
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

	"github.com/sells-group/domain-resolver/internal/model"
)

// EnvPrefix prefixes every environment override, e.g.
// DOMAIN_RESOLVER_SERPER_KEY for serper.key.
const EnvPrefix = "DOMAIN_RESOLVER"

// Config holds the full application configuration.
type Config struct {
	Resolver        model.ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	ResolverProfile string               `yaml:"resolver_profile" mapstructure:"resolver_profile"`

	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Serper     SerperConfig     `yaml:"serper" mapstructure:"serper"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Discolike  ProviderConfig   `yaml:"discolike" mapstructure:"discolike"`
	Ocean      ProviderConfig   `yaml:"ocean" mapstructure:"ocean"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
}

// GoogleConfig holds Google Places API settings.
type GoogleConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// SerperConfig holds Serper search API settings.
type SerperConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Country   string  `yaml:"country" mapstructure:"country"`
	Language  string  `yaml:"language" mapstructure:"language"`
}

// JinaConfig holds Jina AI Reader settings.
type JinaConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Enabled   bool    `yaml:"enabled" mapstructure:"enabled"`
}

// FirecrawlConfig holds settings for the last-resort page scraper.
type FirecrawlConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Enabled   bool    `yaml:"enabled" mapstructure:"enabled"`
}

// AnthropicConfig holds settings for the page-verification judge.
type AnthropicConfig struct {
	Key      string `yaml:"key" mapstructure:"key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	Model    string `yaml:"model" mapstructure:"model"`
	MaxChars int    `yaml:"max_chars" mapstructure:"max_chars"`
}

// ProviderConfig holds settings for a B2B enrichment provider.
type ProviderConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// StoreConfig configures the result cache. Driver is "sqlite", "postgres"
// or "none".
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// BatchConfig configures batch runs.
type BatchConfig struct {
	MaxWorkers   int    `yaml:"max_workers" mapstructure:"max_workers"`
	OutputDir    string `yaml:"output_dir" mapstructure:"output_dir"`
	OutputFormat string `yaml:"output_format" mapstructure:"output_format"`
	LogPath      string `yaml:"log_path" mapstructure:"log_path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port          int `yaml:"port" mapstructure:"port"`
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	MaxBatchSize  int `yaml:"max_batch_size" mapstructure:"max_batch_size"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ResilienceConfig tunes collaborator retries and circuit breakers.
type ResilienceConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	rc := model.DefaultResolverConfig()
	v.SetDefault("resolver.thresholds.auto_accept", rc.Thresholds.AutoAccept)
	v.SetDefault("resolver.thresholds.manual_review", rc.Thresholds.ManualReview)
	v.SetDefault("resolver.stages.use_places", rc.Stages.UsePlaces)
	v.SetDefault("resolver.stages.use_search", rc.Stages.UseSearch)
	v.SetDefault("resolver.stages.use_scraping", rc.Stages.UseScraping)
	v.SetDefault("resolver.stages.use_discolike", rc.Stages.UseDiscolike)
	v.SetDefault("resolver.stages.use_ocean", rc.Stages.UseOcean)
	v.SetDefault("resolver.fuzzy_matching.exact_match_threshold", rc.FuzzyMatching.ExactMatchThreshold)
	v.SetDefault("resolver.fuzzy_matching.good_match_threshold", rc.FuzzyMatching.GoodMatchThreshold)
	v.SetDefault("resolver.fuzzy_matching.min_context_hits", rc.FuzzyMatching.MinContextHits)
	v.SetDefault("resolver.blacklist_domains", rc.BlacklistDomains)
	v.SetDefault("resolver.timeouts.places_secs", 10)
	v.SetDefault("resolver.timeouts.search_secs", 10)
	v.SetDefault("resolver.timeouts.fetch_secs", 20)
	v.SetDefault("resolver.timeouts.judge_secs", 30)
	v.SetDefault("resolver.timeouts.enrich_secs", 15)
	v.SetDefault("resolver.timeouts.dns_secs", 5)

	// Keys need a default so environment-only values reach Unmarshal.
	for _, k := range []string{"google.key", "serper.key", "jina.key", "firecrawl.key", "anthropic.key", "anthropic.base_url", "discolike.key", "ocean.key", "resolver_profile"} {
		v.SetDefault(k, "")
	}
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.rate_limit", 10)
	v.SetDefault("serper.base_url", "https://google.serper.dev")
	v.SetDefault("serper.rate_limit", 5)
	v.SetDefault("serper.country", "us")
	v.SetDefault("serper.language", "en")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.rate_limit", 2)
	v.SetDefault("jina.enabled", true)
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v1")
	v.SetDefault("firecrawl.rate_limit", 2)
	v.SetDefault("firecrawl.enabled", false)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_chars", 8000)
	v.SetDefault("discolike.base_url", "https://api.discolike.com")
	v.SetDefault("discolike.rate_limit", 2)
	v.SetDefault("ocean.base_url", "https://api.ocean.io")
	v.SetDefault("ocean.rate_limit", 2)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "domain-resolver.db")
	v.SetDefault("batch.max_workers", 5)
	v.SetDefault("batch.output_dir", "output")
	v.SetDefault("batch.output_format", "json")
	v.SetDefault("batch.log_path", "output/lookups.jsonl")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_concurrent", 10)
	v.SetDefault("server.max_batch_size", 500)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("resilience.max_attempts", 2)
	v.SetDefault("resilience.initial_backoff_ms", 250)
	v.SetDefault("resilience.max_backoff_ms", 5000)
	v.SetDefault("resilience.failure_threshold", 5)
	v.SetDefault("resilience.reset_timeout_secs", 30)
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
