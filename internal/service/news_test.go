package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pressfeed/internal/briefing"
	"pressfeed/internal/cache"
	"pressfeed/internal/personalize"
	"pressfeed/internal/prefs"
	"pressfeed/internal/store"
	"pressfeed/pkg/press"
)

type providerStub struct {
	results map[string]press.SearchResult
	errs    map[string]error
}

func (p *providerStub) Search(_ context.Context, query string, _ int) (press.SearchResult, error) {
	if err, exists := p.errs[query]; exists {
		return press.SearchResult{}, err
	}

	return p.results[query], nil
}

type brieferStub struct {
	briefing briefing.Briefing
	err      error
	articles []press.Article
}

func (b *brieferStub) Brief(_ context.Context, articles []press.Article) (briefing.Briefing, error) {
	b.articles = articles

	return b.briefing, b.err
}

func newTestService(t *testing.T, provider press.SearchProvider, options ...Option) (*News, *prefs.Store) {
	t.Helper()

	preferences := prefs.New()
	personalizer := personalize.New(cache.New[press.SearchResult](), provider)
	news := New(personalizer, store.New(), preferences, options...)

	return news, preferences
}

func testArticle(url string) press.Article {
	return press.Article{
		URL:         url,
		Title:       "title",
		PublishedAt: time.Date(2026, time.February, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestGetNews(t *testing.T) {
	t.Parallel()

	provider := &providerStub{
		results: map[string]press.SearchResult{
			"golang": {TotalArticles: 1, Articles: []press.Article{testArticle("https://example.com/a")}},
		},
	}
	news, preferences := newTestService(t, provider)

	// No preferences yields an empty feed, not an error.
	feed, err := news.GetNews(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetNews failed: %v", err)
	}
	if len(feed.Articles) != 0 {
		t.Fatalf("feed = %d articles for user without preferences, want 0", len(feed.Articles))
	}

	if err := preferences.SetPreferences(context.Background(), "alice", []string{"golang"}); err != nil {
		t.Fatalf("SetPreferences failed: %v", err)
	}

	feed, err = news.GetNews(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetNews failed: %v", err)
	}
	if len(feed.Articles) != 1 {
		t.Fatalf("feed = %d articles, want 1", len(feed.Articles))
	}
}

func TestSearchNewsPropagatesFailures(t *testing.T) {
	t.Parallel()

	provider := &providerStub{
		errs: map[string]error{
			"golang": &press.SearchError{Kind: press.SearchErrorKindRateLimited, Query: "golang"},
		},
	}
	news, _ := newTestService(t, provider)

	_, err := news.SearchNews(context.Background(), "golang")
	searchErr, ok := press.AsSearchError(err)
	if !ok {
		t.Fatalf("SearchNews error = %v, want SearchError through the wrap", err)
	}
	if searchErr.Kind != press.SearchErrorKindRateLimited {
		t.Fatalf("Kind = %s, want rate_limited", searchErr.Kind)
	}
}

func TestMarkReadValidatesArticle(t *testing.T) {
	t.Parallel()

	news, _ := newTestService(t, &providerStub{})

	if _, err := news.MarkRead(context.Background(), "alice", press.Article{}); err == nil {
		t.Fatal("expected validation error for empty article")
	}

	receipt, err := news.MarkRead(context.Background(), "alice", testArticle("https://example.com/a"))
	if err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if receipt.ID == "" {
		t.Fatal("receipt has empty id")
	}

	articles := news.ReadArticles(context.Background(), "alice")
	if len(articles) != 1 {
		t.Fatalf("ReadArticles = %d entries, want 1", len(articles))
	}
}

func TestFavoriteFlow(t *testing.T) {
	t.Parallel()

	news, _ := newTestService(t, &providerStub{})

	if _, err := news.MarkFavorite(context.Background(), "alice", press.Article{}); err == nil {
		t.Fatal("expected validation error for empty article")
	}

	receipt, err := news.MarkFavorite(context.Background(), "alice", testArticle("https://example.com/a"))
	if err != nil {
		t.Fatalf("MarkFavorite failed: %v", err)
	}

	if favorites := news.FavoriteArticles(context.Background(), "alice"); len(favorites) != 1 {
		t.Fatalf("FavoriteArticles = %d entries, want 1", len(favorites))
	}

	if err := news.RemoveFavorite(context.Background(), "alice", receipt.ID); err != nil {
		t.Fatalf("RemoveFavorite failed: %v", err)
	}

	err = news.RemoveFavorite(context.Background(), "alice", receipt.ID)
	if !errors.Is(err, press.ErrNotFound) {
		t.Fatalf("second RemoveFavorite error = %v, want ErrNotFound", err)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	news, _ := newTestService(t, &providerStub{})

	if _, err := news.MarkRead(context.Background(), "alice", testArticle("https://example.com/a")); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if _, err := news.MarkFavoriteID(context.Background(), "alice", "deadbeefdeadbeef"); err != nil {
		t.Fatalf("MarkFavoriteID failed: %v", err)
	}

	stats := news.Stats(context.Background(), "alice")
	if stats.TotalRead != 1 || stats.TotalFavorites != 1 {
		t.Fatalf("Stats = %+v, want one read and one favorite", stats)
	}
}

func TestBriefingNotConfigured(t *testing.T) {
	t.Parallel()

	news, _ := newTestService(t, &providerStub{})

	_, err := news.Briefing(context.Background(), "alice")
	if !errors.Is(err, press.ErrNotConfigured) {
		t.Fatalf("Briefing error = %v, want ErrNotConfigured", err)
	}
}

func TestBriefingUsesFeedArticles(t *testing.T) {
	t.Parallel()

	provider := &providerStub{
		results: map[string]press.SearchResult{
			"golang": {TotalArticles: 1, Articles: []press.Article{testArticle("https://example.com/a")}},
		},
	}
	briefer := &brieferStub{briefing: briefing.Briefing{Summary: "summary", Model: "test-model"}}
	news, preferences := newTestService(t, provider, WithBriefer(briefer))

	if err := preferences.SetPreferences(context.Background(), "alice", []string{"golang"}); err != nil {
		t.Fatalf("SetPreferences failed: %v", err)
	}

	generated, err := news.Briefing(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Briefing failed: %v", err)
	}
	if generated.Summary != "summary" {
		t.Fatalf("Summary = %q, want briefer output", generated.Summary)
	}
	if len(briefer.articles) != 1 {
		t.Fatalf("briefer received %d articles, want the feed's 1", len(briefer.articles))
	}
}

func TestBriefingPropagatesBrieferErrors(t *testing.T) {
	t.Parallel()

	wantErr := fmt.Errorf("provider offline")
	news, _ := newTestService(t, &providerStub{}, WithBriefer(&brieferStub{err: wantErr}))

	_, err := news.Briefing(context.Background(), "alice")
	if !errors.Is(err, wantErr) {
		t.Fatalf("Briefing error = %v, want briefer error", err)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	t.Parallel()

	news, _ := newTestService(t, &providerStub{})

	if err := news.SetPreferences(context.Background(), "alice", []string{"golang"}); err != nil {
		t.Fatalf("SetPreferences failed: %v", err)
	}

	topics, err := news.Preferences(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Preferences failed: %v", err)
	}
	if len(topics) != 1 || topics[0] != "golang" {
		t.Fatalf("Preferences = %v, want [golang]", topics)
	}
}
