package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != ":8080" {
		t.Fatalf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.GNews.Timeout != 10*time.Second {
		t.Fatalf("GNews.Timeout = %v, want 10s", cfg.GNews.Timeout)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Fatalf("Cache.TTL = %v, want 5m", cfg.Cache.TTL)
	}
	if cfg.Schedule.WarmInterval != 5*time.Minute {
		t.Fatalf("Schedule.WarmInterval = %v, want 5m", cfg.Schedule.WarmInterval)
	}
	if cfg.Schedule.WarmUserLimit != 10 {
		t.Fatalf("Schedule.WarmUserLimit = %d, want 10", cfg.Schedule.WarmUserLimit)
	}
	if cfg.Schedule.CacheSweepInterval != 10*time.Minute {
		t.Fatalf("Schedule.CacheSweepInterval = %v, want 10m", cfg.Schedule.CacheSweepInterval)
	}
	if cfg.Schedule.MetadataSweepInterval != time.Hour {
		t.Fatalf("Schedule.MetadataSweepInterval = %v, want 1h", cfg.Schedule.MetadataSweepInterval)
	}
	if cfg.Schedule.MetadataMaxAge != 168*time.Hour {
		t.Fatalf("Schedule.MetadataMaxAge = %v, want 168h", cfg.Schedule.MetadataMaxAge)
	}
	if cfg.Briefing.Provider != "" {
		t.Fatalf("Briefing.Provider = %q, want unset", cfg.Briefing.Provider)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PRESSFEED_LISTEN_ADDR", ":9090")
	t.Setenv("PRESSFEED_GNEWS_API_KEY", "secret")
	t.Setenv("PRESSFEED_CACHE_TTL", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != ":9090" {
		t.Fatalf("ListenAddr = %q, want :9090", cfg.ListenAddr)
	}
	if cfg.GNews.APIKey != "secret" {
		t.Fatalf("GNews.APIKey = %q, want secret", cfg.GNews.APIKey)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Fatalf("Cache.TTL = %v, want 90s", cfg.Cache.TTL)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pressfeed.hcl")
	contents := strings.Join([]string{
		`listen_addr = ":7070"`,
		`log_level = "debug"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config file failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != ":7070" {
		t.Fatalf("ListenAddr = %q, want :7070", cfg.ListenAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	// Fields absent from the file keep their defaults.
	if cfg.GNews.Timeout != 10*time.Second {
		t.Fatalf("GNews.Timeout = %v, want default 10s", cfg.GNews.Timeout)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name             string
		env              map[string]string
		wantErrSubstring string
	}{
		{
			name:             "negative cache ttl",
			env:              map[string]string{"PRESSFEED_CACHE_TTL": "-1s"},
			wantErrSubstring: "cache.ttl",
		},
		{
			name:             "zero gnews timeout",
			env:              map[string]string{"PRESSFEED_GNEWS_TIMEOUT": "0s"},
			wantErrSubstring: "gnews.timeout",
		},
		{
			name:             "negative warm interval",
			env:              map[string]string{"PRESSFEED_SCHEDULE_WARM_INTERVAL": "-5m"},
			wantErrSubstring: "schedule.warm_interval",
		},
		{
			name:             "briefing provider without model",
			env:              map[string]string{"PRESSFEED_BRIEFING_PROVIDER": "openai"},
			wantErrSubstring: "briefing.model",
		},
		{
			name: "unsupported briefing provider",
			env: map[string]string{
				"PRESSFEED_BRIEFING_PROVIDER": "acme",
				"PRESSFEED_BRIEFING_MODEL":    "model",
			},
			wantErrSubstring: "unsupported provider",
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			for name, value := range testCase.env {
				t.Setenv(name, value)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), testCase.wantErrSubstring) {
				t.Fatalf("error = %v, want substring %q", err, testCase.wantErrSubstring)
			}
		})
	}
}
