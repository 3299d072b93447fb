// Package briefing turns a personalized feed into a short prose digest via a
// configured LLM provider.
package briefing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pressfeed/pkg/press"
)

const (
	defaultMaxOutputTokens = 400

	systemPrompt = "You are a concise news editor. Write a single short paragraph " +
		"summarizing today's headlines for one reader. Plain prose, no lists, " +
		"no preamble, at most 120 words."
)

// Briefing is one generated digest.
type Briefing struct {
	// Summary is the generated paragraph.
	Summary string `json:"summary"`
	// Model identifies which model produced it.
	Model string `json:"model"`
	// GeneratedAt records generation time.
	GeneratedAt time.Time `json:"generatedAt"`
}

// Option mutates service configuration.
type Option func(*Service)

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(service *Service) {
		if logger != nil {
			service.logger = logger
		}
	}
}

func withClock(clock func() time.Time) Option {
	return func(service *Service) {
		if clock != nil {
			service.clock = clock
		}
	}
}

// Service generates briefings through one configured provider profile.
type Service struct {
	logger   *slog.Logger
	registry press.LLMProviderRegistry
	provider string
	model    string
	clock    func() time.Time
}

// New creates a briefing service bound to one provider profile and model.
func New(registry press.LLMProviderRegistry, provider string, model string, options ...Option) *Service {
	service := &Service{
		logger:   slog.Default(),
		registry: registry,
		provider: strings.TrimSpace(provider),
		model:    strings.TrimSpace(model),
		clock:    time.Now,
	}
	for _, option := range options {
		option(service)
	}

	return service
}

// Brief generates one digest over the given articles.
//
// A service with no registry or provider profile reports
// press.ErrNotConfigured before resolving anything. An empty feed yields an
// empty briefing, not an error.
func (s *Service) Brief(ctx context.Context, articles []press.Article) (Briefing, error) {
	if s.registry == nil || s.provider == "" || s.model == "" {
		return Briefing{}, fmt.Errorf("briefing: %w", press.ErrNotConfigured)
	}
	if len(articles) == 0 {
		return Briefing{Model: s.model, GeneratedAt: s.clock().UTC()}, nil
	}

	provider, err := s.registry.Resolve(s.provider)
	if err != nil {
		return Briefing{}, fmt.Errorf("briefing resolve provider: %w", err)
	}

	result, err := provider.Generate(ctx, press.LLMGenerateRequest{
		Model: s.model,
		Messages: []press.LLMMessage{
			{Role: press.LLMMessageRoleSystem, Content: systemPrompt},
			{Role: press.LLMMessageRoleUser, Content: buildPrompt(articles)},
		},
		MaxOutputTokens: defaultMaxOutputTokens,
	})
	if err != nil {
		return Briefing{}, fmt.Errorf("briefing generate: %w", err)
	}

	summary := strings.TrimSpace(result.Text)
	s.logger.DebugContext(ctx, "briefing generated", "model", s.model, "articles", len(articles))

	return Briefing{
		Summary:     summary,
		Model:       s.model,
		GeneratedAt: s.clock().UTC(),
	}, nil
}

func buildPrompt(articles []press.Article) string {
	var builder strings.Builder
	builder.WriteString("Headlines:\n")
	for _, article := range articles {
		builder.WriteString("- ")
		builder.WriteString(article.Title)
		if description := strings.TrimSpace(article.Description); description != "" {
			builder.WriteString(": ")
			builder.WriteString(description)
		}
		builder.WriteString("\n")
	}

	return builder.String()
}
