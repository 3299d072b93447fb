// Package service exposes the application read surface over the core
// components, translating between transport-level calls and domain state.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"pressfeed/internal/briefing"
	"pressfeed/internal/personalize"
	"pressfeed/internal/store"
	"pressfeed/pkg/press"
)

// Briefer generates one digest over a set of articles.
type Briefer interface {
	Brief(ctx context.Context, articles []press.Article) (briefing.Briefing, error)
}

// SearchResponse is one direct search outcome.
type SearchResponse struct {
	Result    press.SearchResult `json:"result"`
	FromCache bool               `json:"fromCache"`
}

// Option mutates service configuration.
type Option func(*News)

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(news *News) {
		if logger != nil {
			news.logger = logger
		}
	}
}

// WithBriefer enables briefing generation. Nil keeps briefings unconfigured.
func WithBriefer(briefer Briefer) Option {
	return func(news *News) {
		news.briefer = briefer
	}
}

// News is the application service behind the HTTP surface.
type News struct {
	logger       *slog.Logger
	personalizer *personalize.Personalizer
	tracker      *store.Store
	preferences  press.PreferenceStore
	briefer      Briefer
}

// New wires the application service over the shared components.
func New(
	personalizer *personalize.Personalizer,
	tracker *store.Store,
	preferences press.PreferenceStore,
	options ...Option,
) *News {
	news := &News{
		logger:       slog.Default(),
		personalizer: personalizer,
		tracker:      tracker,
		preferences:  preferences,
	}
	for _, option := range options {
		option(news)
	}

	return news
}

// GetNews returns the user's personalized feed. Users without preferences get
// an empty feed, not an error.
func (n *News) GetNews(ctx context.Context, userID string) (personalize.Feed, error) {
	preferences, err := n.preferences.Preferences(ctx, userID)
	if err != nil {
		return personalize.Feed{}, fmt.Errorf("get news: load preferences: %w", err)
	}

	feed, err := n.personalizer.Personalize(ctx, preferences)
	if err != nil {
		return personalize.Feed{}, fmt.Errorf("get news: %w", err)
	}

	return feed, nil
}

// SearchNews runs one direct cache-backed search. Unlike personalization,
// upstream failures propagate to the caller.
func (n *News) SearchNews(ctx context.Context, query string) (SearchResponse, error) {
	result, fromCache, err := n.personalizer.Search(ctx, query)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search news: %w", err)
	}

	return SearchResponse{Result: result, FromCache: fromCache}, nil
}

// MarkRead marks an article read, storing its metadata first.
func (n *News) MarkRead(_ context.Context, userID string, article press.Article) (store.ReadReceipt, error) {
	if err := article.Validate(); err != nil {
		return store.ReadReceipt{}, fmt.Errorf("mark read: %w", err)
	}

	return n.tracker.MarkRead(userID, article), nil
}

// MarkReadID marks a bare article id read.
func (n *News) MarkReadID(_ context.Context, userID string, articleID string) (store.ReadReceipt, error) {
	return n.tracker.MarkReadID(userID, articleID), nil
}

// MarkFavorite favorites an article, storing its metadata first.
func (n *News) MarkFavorite(_ context.Context, userID string, article press.Article) (store.FavoriteReceipt, error) {
	if err := article.Validate(); err != nil {
		return store.FavoriteReceipt{}, fmt.Errorf("mark favorite: %w", err)
	}

	return n.tracker.MarkFavorite(userID, article), nil
}

// MarkFavoriteID favorites a bare article id.
func (n *News) MarkFavoriteID(_ context.Context, userID string, articleID string) (store.FavoriteReceipt, error) {
	return n.tracker.MarkFavoriteID(userID, articleID), nil
}

// RemoveFavorite removes one favorite, reporting press.ErrNotFound when the
// user never favorited the id.
func (n *News) RemoveFavorite(_ context.Context, userID string, articleID string) error {
	if !n.tracker.RemoveFavorite(userID, articleID) {
		return fmt.Errorf("remove favorite %s: %w", articleID, press.ErrNotFound)
	}

	return nil
}

// ReadArticles returns the user's read articles joined with metadata.
func (n *News) ReadArticles(_ context.Context, userID string) []store.Metadata {
	return n.tracker.ReadArticles(userID)
}

// FavoriteArticles returns the user's favorite snapshots.
func (n *News) FavoriteArticles(_ context.Context, userID string) []store.Favorite {
	return n.tracker.FavoriteArticles(userID)
}

// Stats returns the user's tracking counters.
func (n *News) Stats(_ context.Context, userID string) store.Stats {
	return n.tracker.Stats(userID)
}

// Preferences returns the user's topic list.
func (n *News) Preferences(ctx context.Context, userID string) ([]string, error) {
	topics, err := n.preferences.Preferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("preferences: %w", err)
	}

	return topics, nil
}

// SetPreferences replaces the user's topic list.
func (n *News) SetPreferences(ctx context.Context, userID string, topics []string) error {
	if err := n.preferences.SetPreferences(ctx, userID, topics); err != nil {
		return fmt.Errorf("set preferences: %w", err)
	}

	return nil
}

// Briefing generates a digest over the user's current personalized feed.
// It reports press.ErrNotConfigured when no briefer is wired.
func (n *News) Briefing(ctx context.Context, userID string) (briefing.Briefing, error) {
	if n.briefer == nil {
		return briefing.Briefing{}, fmt.Errorf("briefing: %w", press.ErrNotConfigured)
	}

	feed, err := n.GetNews(ctx, userID)
	if err != nil {
		return briefing.Briefing{}, fmt.Errorf("briefing: %w", err)
	}

	generated, err := n.briefer.Brief(ctx, feed.Articles)
	if err != nil {
		return briefing.Briefing{}, err
	}

	return generated, nil
}
