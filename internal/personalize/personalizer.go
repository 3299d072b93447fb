// Package personalize fans a user's topic preferences out to cache-backed
// upstream searches and merges the results into one bounded feed.
package personalize

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"

	"pressfeed/internal/cache"
	"pressfeed/pkg/press"
)

const (
	// DefaultMaxArticles bounds the merged personalized feed.
	DefaultMaxArticles = 10
	// DefaultSearchTTL is how long one per-topic search result stays cached.
	DefaultSearchTTL = 5 * time.Minute
	// DefaultTopicResults is how many articles each per-topic search requests.
	DefaultTopicResults = 10

	searchKeyPrefix = "search"
)

// Option mutates personalizer configuration.
type Option func(*Personalizer)

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(personalizer *Personalizer) {
		if logger != nil {
			personalizer.logger = logger
		}
	}
}

// WithMaxArticles overrides the merged feed bound.
func WithMaxArticles(maxArticles int) Option {
	return func(personalizer *Personalizer) {
		if maxArticles > 0 {
			personalizer.maxArticles = maxArticles
		}
	}
}

// WithSearchTTL overrides the per-topic cache lifetime.
func WithSearchTTL(ttl time.Duration) Option {
	return func(personalizer *Personalizer) {
		if ttl > 0 {
			personalizer.searchTTL = ttl
		}
	}
}

// WithTopicResults overrides the per-topic upstream page size.
func WithTopicResults(count int) Option {
	return func(personalizer *Personalizer) {
		if count > 0 {
			personalizer.topicResults = count
		}
	}
}

// Feed is one merged personalized result.
type Feed struct {
	// Articles is the merged, deduplicated, bounded article list.
	Articles []press.Article `json:"articles"`
	// FromCache is true iff every per-topic sub-fetch was a cache hit, so a
	// false value means at least one topic reached upstream this request.
	FromCache bool `json:"fromCache"`
}

// Personalizer merges per-topic cache-or-fetch searches into one feed.
type Personalizer struct {
	logger       *slog.Logger
	cache        *cache.Cache[press.SearchResult]
	provider     press.SearchProvider
	maxArticles  int
	searchTTL    time.Duration
	topicResults int
}

// New creates a personalizer over the shared search cache and provider.
func New(searchCache *cache.Cache[press.SearchResult], provider press.SearchProvider, options ...Option) *Personalizer {
	personalizer := &Personalizer{
		logger:       slog.Default(),
		cache:        searchCache,
		provider:     provider,
		maxArticles:  DefaultMaxArticles,
		searchTTL:    DefaultSearchTTL,
		topicResults: DefaultTopicResults,
	}
	for _, option := range options {
		option(personalizer)
	}

	return personalizer
}

// Search runs one cache-backed upstream search and reports whether the
// result was served from cache. Provider errors propagate to the caller.
func (p *Personalizer) Search(ctx context.Context, query string) (press.SearchResult, bool, error) {
	key := cache.Key(searchKeyPrefix, map[string]string{"query": query})
	if cached, hit := p.cache.Get(key); hit {
		return cached.Clone(), true, nil
	}

	result, err := p.provider.Search(ctx, query, p.topicResults)
	if err != nil {
		return press.SearchResult{}, false, err
	}
	p.cache.SetWithTTL(key, result.Clone(), p.searchTTL)

	return result, false, nil
}

// Personalize merges the preference topics into one feed. Empty preferences
// yield an empty feed, not an error.
//
// Per-topic fetches run concurrently; a failing topic is logged and
// contributes zero articles instead of failing the whole feed, so one
// rate-limited topic cannot poison the rest. Worst-case latency is bounded
// by the slowest uncached topic.
func (p *Personalizer) Personalize(ctx context.Context, preferences []string) (Feed, error) {
	if len(preferences) == 0 {
		return Feed{FromCache: false}, nil
	}

	type topicOutcome struct {
		articles  []press.Article
		fromCache bool
	}

	outcomes := make([]topicOutcome, len(preferences))
	var wg sync.WaitGroup
	for index, preference := range preferences {
		wg.Add(1)
		go func(index int, preference string) {
			defer wg.Done()

			result, fromCache, err := p.Search(ctx, preference)
			if err != nil {
				p.logger.WarnContext(ctx,
					"personalize topic fetch failed",
					"topic", preference,
					"error", err,
				)
				return
			}
			outcomes[index] = topicOutcome{articles: result.Articles, fromCache: fromCache}
		}(index, preference)
	}
	wg.Wait()

	merged := make([]press.Article, 0, len(preferences)*p.topicResults)
	allFromCache := true
	for _, outcome := range outcomes {
		merged = append(merged, outcome.articles...)
		if !outcome.fromCache {
			allFromCache = false
		}
	}

	// Preference order and intra-list order survive the merge; UniqBy keeps
	// the first occurrence of each URL.
	deduplicated := lo.UniqBy(merged, func(article press.Article) string {
		return article.URL
	})
	if len(deduplicated) > p.maxArticles {
		deduplicated = deduplicated[:p.maxArticles]
	}

	return Feed{Articles: deduplicated, FromCache: allFromCache}, nil
}
