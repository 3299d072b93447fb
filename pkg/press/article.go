package press

import (
	"fmt"
	"strings"
	"time"
)

// ArticleSource identifies the publication an article came from.
type ArticleSource struct {
	// Name is the publication display name.
	Name string `json:"name"`
	// URL is the publication home page.
	URL string `json:"url"`
}

// Article is one normalized news article as returned by the upstream
// search provider.
type Article struct {
	// URL is the canonical article location and the identity basis for
	// deduplication and tracking.
	URL string `json:"url"`
	// Title is the article headline.
	Title string `json:"title"`
	// Description is a short teaser paragraph.
	Description string `json:"description"`
	// Content is the article body as far as the provider exposes it.
	Content string `json:"content"`
	// Image is an optional cover image URL.
	Image string `json:"image,omitempty"`
	// PublishedAt records when the source published the article.
	PublishedAt time.Time `json:"publishedAt"`
	// Source identifies the publication.
	Source ArticleSource `json:"source"`
}

// Validate checks that the article carries the fields tracking depends on.
func (a Article) Validate() error {
	if strings.TrimSpace(a.URL) == "" {
		return fmt.Errorf("validate article: missing url")
	}
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("validate article: missing title")
	}

	return nil
}

// SearchResult is one upstream search response.
type SearchResult struct {
	// TotalArticles is the provider-reported total match count, which can
	// exceed len(Articles).
	TotalArticles int `json:"totalArticles"`
	// Articles holds the returned page of articles in provider order.
	Articles []Article `json:"articles"`
}

// Clone returns a deep copy so cached results stay isolated from callers.
func (r SearchResult) Clone() SearchResult {
	cloned := r
	if len(r.Articles) > 0 {
		cloned.Articles = append([]Article(nil), r.Articles...)
	} else {
		cloned.Articles = nil
	}

	return cloned
}
