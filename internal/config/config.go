// Package config loads runtime configuration from HCL files and environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfighcl"
)

const envPrefix = "PRESSFEED"

// Config is the full runtime configuration.
type Config struct {
	ListenAddr string `hcl:"listen_addr" env:"LISTEN_ADDR" default:":8080"`
	LogLevel   string `hcl:"log_level" env:"LOG_LEVEL" default:"info"`

	GNews    GNewsConfig    `hcl:"gnews"`
	Cache    CacheConfig    `hcl:"cache"`
	Schedule ScheduleConfig `hcl:"schedule"`
	Briefing BriefingConfig `hcl:"briefing"`
	Auth     AuthConfig     `hcl:"auth"`
	Prefs    PrefsConfig    `hcl:"prefs"`
}

// GNewsConfig configures the upstream search provider.
type GNewsConfig struct {
	APIKey  string        `hcl:"api_key" env:"API_KEY"`
	BaseURL string        `hcl:"base_url" env:"BASE_URL"`
	Timeout time.Duration `hcl:"timeout" env:"TIMEOUT" default:"10s"`
}

// CacheConfig configures the search cache.
type CacheConfig struct {
	TTL time.Duration `hcl:"ttl" env:"TTL" default:"5m"`
}

// ScheduleConfig configures the background scheduler.
type ScheduleConfig struct {
	WarmInterval          time.Duration `hcl:"warm_interval" env:"WARM_INTERVAL" default:"5m"`
	WarmUserLimit         int           `hcl:"warm_user_limit" env:"WARM_USER_LIMIT" default:"10"`
	CacheSweepInterval    time.Duration `hcl:"cache_sweep_interval" env:"CACHE_SWEEP_INTERVAL" default:"10m"`
	MetadataSweepInterval time.Duration `hcl:"metadata_sweep_interval" env:"METADATA_SWEEP_INTERVAL" default:"60m"`
	MetadataMaxAge        time.Duration `hcl:"metadata_max_age" env:"METADATA_MAX_AGE" default:"168h"`
}

// BriefingConfig configures the optional LLM digest generator. An empty
// provider disables briefings.
type BriefingConfig struct {
	Provider     string `hcl:"provider" env:"PROVIDER"`
	Model        string `hcl:"model" env:"MODEL"`
	OpenAIAPIKey string `hcl:"openai_api_key" env:"OPENAI_API_KEY"`
	GeminiAPIKey string `hcl:"gemini_api_key" env:"GEMINI_API_KEY"`
}

// AuthConfig maps bearer tokens onto user ids.
type AuthConfig struct {
	Tokens map[string]string `hcl:"tokens" env:"TOKENS"`
}

// PrefsConfig seeds topic preferences for users that never set any.
type PrefsConfig struct {
	DefaultTopics []string `hcl:"default_topics" env:"DEFAULT_TOPICS"`
}

// Load reads configuration from the given files, later files and environment
// variables overriding earlier ones. Missing files are skipped.
func Load(files ...string) (Config, error) {
	var cfg Config

	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix:          envPrefix,
		SkipFlags:          true,
		AllowUnknownFields: true,
		Files:              files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".hcl": aconfighcl.New(),
		},
	})

	if err := loader.Load(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.GNews.Timeout <= 0 {
		return fmt.Errorf("gnews.timeout must be > 0")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be > 0")
	}
	if c.Schedule.WarmInterval <= 0 {
		return fmt.Errorf("schedule.warm_interval must be > 0")
	}
	if c.Schedule.WarmUserLimit <= 0 {
		return fmt.Errorf("schedule.warm_user_limit must be > 0")
	}
	if c.Schedule.CacheSweepInterval <= 0 {
		return fmt.Errorf("schedule.cache_sweep_interval must be > 0")
	}
	if c.Schedule.MetadataSweepInterval <= 0 {
		return fmt.Errorf("schedule.metadata_sweep_interval must be > 0")
	}
	if c.Schedule.MetadataMaxAge <= 0 {
		return fmt.Errorf("schedule.metadata_max_age must be > 0")
	}
	if provider := strings.TrimSpace(c.Briefing.Provider); provider != "" {
		if strings.TrimSpace(c.Briefing.Model) == "" {
			return fmt.Errorf("briefing.model is required when briefing.provider is set")
		}
		switch provider {
		case "openai", "gemini":
		default:
			return fmt.Errorf("briefing.provider: unsupported provider %q", provider)
		}
	}

	return nil
}
