package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"pressfeed/internal/briefing"
	"pressfeed/internal/cache"
	"pressfeed/internal/config"
	"pressfeed/internal/httpapi"
	"pressfeed/internal/personalize"
	"pressfeed/internal/prefs"
	"pressfeed/internal/provider/gnews"
	"pressfeed/internal/schedule"
	"pressfeed/internal/service"
	"pressfeed/internal/store"
	"pressfeed/pkg/llm"
	"pressfeed/pkg/llm/providers/gemini"
	"pressfeed/pkg/llm/providers/openai"
	"pressfeed/pkg/press"
)

const (
	envConfigFile           = "PRESSFEED_CONFIG_FILE"
	defaultConfigFilePath   = "config/pressfeed.hcl"
	alternateConfigFilePath = "config/pressfeed.local.hcl"

	defaultShutdownTimeout = 10 * time.Second
)

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log_level: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	searchCache := cache.New[press.SearchResult](cache.WithDefaultTTL[press.SearchResult](cfg.Cache.TTL))
	tracker := store.New()
	preferences := prefs.New(prefs.WithDefaults(cfg.Prefs.DefaultTopics))

	searchClient, err := gnews.New(gnews.Config{
		APIKey:  cfg.GNews.APIKey,
		BaseURL: cfg.GNews.BaseURL,
		Timeout: cfg.GNews.Timeout,
	})
	if err != nil {
		return fmt.Errorf("new gnews client: %w", err)
	}

	personalizer := personalize.New(
		searchCache,
		searchClient,
		personalize.WithLogger(logger),
		personalize.WithSearchTTL(cfg.Cache.TTL),
	)

	serviceOptions := []service.Option{service.WithLogger(logger)}
	briefer, err := buildBriefer(cfg.Briefing, logger)
	if err != nil {
		return fmt.Errorf("build briefer: %w", err)
	}
	if briefer != nil {
		serviceOptions = append(serviceOptions, service.WithBriefer(briefer))
	}

	news := service.New(personalizer, tracker, preferences, serviceOptions...)

	scheduler := schedule.New(
		personalizer,
		searchCache,
		tracker,
		preferences,
		schedule.WithLogger(logger),
		schedule.WithWarmInterval(cfg.Schedule.WarmInterval),
		schedule.WithWarmUserLimit(cfg.Schedule.WarmUserLimit),
		schedule.WithCacheSweepInterval(cfg.Schedule.CacheSweepInterval),
		schedule.WithMetadataSweepInterval(cfg.Schedule.MetadataSweepInterval),
		schedule.WithMetadataMaxAge(cfg.Schedule.MetadataMaxAge),
	)

	identity := httpapi.NewStaticIdentity(cfg.Auth.Tokens)
	api := httpapi.New(news, identity, httpapi.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	return nil
}

func loadConfig() (config.Config, error) {
	if configFile := strings.TrimSpace(os.Getenv(envConfigFile)); configFile != "" {
		return config.Load(configFile)
	}

	files := make([]string, 0, 2)
	for _, candidate := range []string{defaultConfigFilePath, alternateConfigFilePath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			files = append(files, candidate)
		}
	}

	return config.Load(files...)
}

// buildBriefer wires the configured LLM provider behind the briefing service.
// An empty provider profile leaves briefings unconfigured.
func buildBriefer(cfg config.BriefingConfig, logger *slog.Logger) (*briefing.Service, error) {
	profile := strings.TrimSpace(cfg.Provider)
	if profile == "" {
		return nil, nil
	}

	providers := make(map[string]press.LLMProvider, 1)
	switch profile {
	case "openai":
		provider, err := openai.New(openai.ProviderConfig{APIKey: cfg.OpenAIAPIKey})
		if err != nil {
			return nil, fmt.Errorf("new openai provider: %w", err)
		}
		providers[profile] = provider
	case "gemini":
		provider, err := gemini.New(gemini.ProviderConfig{APIKey: cfg.GeminiAPIKey})
		if err != nil {
			return nil, fmt.Errorf("new gemini provider: %w", err)
		}
		providers[profile] = provider
	default:
		return nil, fmt.Errorf("unsupported briefing provider %q", profile)
	}

	registry, err := llm.NewRegistry(providers)
	if err != nil {
		return nil, fmt.Errorf("new llm registry: %w", err)
	}

	return briefing.New(registry, profile, cfg.Model, briefing.WithLogger(logger)), nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported level %q", raw)
	}
}
