// Package gnews implements the upstream news-search collaborator against a
// GNews-style JSON API.
package gnews

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pressfeed/pkg/press"
)

const (
	defaultBaseURL = "https://gnews.io/api/v4"
	defaultTimeout = 10 * time.Second
	maxPageSize    = 100
)

// Config configures one upstream search client.
type Config struct {
	// APIKey is the provider credential. Empty means not configured; every
	// search fails eagerly with press.ErrNotConfigured.
	APIKey string
	// BaseURL optionally overrides the provider endpoint.
	BaseURL string
	// Timeout optionally overrides the bounded upstream-call timeout.
	//
	// Zero defaults to 10 seconds.
	Timeout time.Duration
	// Language optionally restricts results to one language code.
	Language string
}

// Client is a press.SearchProvider backed by the GNews HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	language   string
}

// New builds one search client instance.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("new gnews client: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("new gnews client: base url must include scheme and host")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		language:   strings.TrimSpace(cfg.Language),
	}, nil
}

type searchResponse struct {
	TotalArticles int             `json:"totalArticles"`
	Articles      []searchArticle `json:"articles"`
	Errors        []string        `json:"errors"`
}

type searchArticle struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Content     string       `json:"content"`
	URL         string       `json:"url"`
	Image       string       `json:"image"`
	PublishedAt time.Time    `json:"publishedAt"`
	Source      searchSource `json:"source"`
}

type searchSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Search runs one upstream search. The credential is checked before any
// network call; transport failures and provider rejections are mapped onto
// the press.SearchError taxonomy with a passthrough status code.
func (c *Client) Search(ctx context.Context, query string, maxResults int) (press.SearchResult, error) {
	if c.apiKey == "" {
		return press.SearchResult{}, fmt.Errorf("gnews search: %w", press.ErrNotConfigured)
	}
	if strings.TrimSpace(query) == "" {
		return press.SearchResult{}, &press.SearchError{
			Kind:  press.SearchErrorKindInvalidRequest,
			Query: query,
			Cause: fmt.Errorf("empty query"),
		}
	}
	if maxResults <= 0 || maxResults > maxPageSize {
		maxResults = press.DefaultSearchPageSize
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(query, maxResults), nil)
	if err != nil {
		return press.SearchResult{}, fmt.Errorf("gnews search: build request: %w", err)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		// Timeouts and refused connections are indistinguishable to callers:
		// the provider was unreachable.
		return press.SearchResult{}, &press.SearchError{
			Kind:  press.SearchErrorKindUnreachable,
			Query: query,
			Cause: err,
		}
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return press.SearchResult{}, c.rejectionError(query, response)
	}

	var decoded searchResponse
	if err := json.NewDecoder(response.Body).Decode(&decoded); err != nil {
		return press.SearchResult{}, &press.SearchError{
			Kind:       press.SearchErrorKindServerError,
			Query:      query,
			StatusCode: response.StatusCode,
			Cause:      fmt.Errorf("decode response: %w", err),
		}
	}

	articles := make([]press.Article, 0, len(decoded.Articles))
	for _, article := range decoded.Articles {
		articles = append(articles, press.Article{
			URL:         article.URL,
			Title:       article.Title,
			Description: article.Description,
			Content:     article.Content,
			Image:       article.Image,
			PublishedAt: article.PublishedAt,
			Source: press.ArticleSource{
				Name: article.Source.Name,
				URL:  article.Source.URL,
			},
		})
	}

	return press.SearchResult{
		TotalArticles: decoded.TotalArticles,
		Articles:      articles,
	}, nil
}

func (c *Client) searchURL(query string, maxResults int) string {
	values := url.Values{}
	values.Set("q", query)
	values.Set("max", strconv.Itoa(maxResults))
	values.Set("apikey", c.apiKey)
	if c.language != "" {
		values.Set("lang", c.language)
	}

	return c.baseURL + "/search?" + values.Encode()
}

func (c *Client) rejectionError(query string, response *http.Response) *press.SearchError {
	searchErr := &press.SearchError{
		Query:      query,
		StatusCode: response.StatusCode,
	}

	switch {
	case response.StatusCode == http.StatusBadRequest:
		searchErr.Kind = press.SearchErrorKindInvalidRequest
	case response.StatusCode == http.StatusUnauthorized:
		searchErr.Kind = press.SearchErrorKindInvalidCredentials
	case response.StatusCode == http.StatusForbidden:
		searchErr.Kind = press.SearchErrorKindForbidden
	case response.StatusCode == http.StatusTooManyRequests:
		searchErr.Kind = press.SearchErrorKindRateLimited
		searchErr.RetryAfter = parseRetryAfter(response.Header.Get("Retry-After"))
	case response.StatusCode >= http.StatusInternalServerError:
		searchErr.Kind = press.SearchErrorKindServerError
	default:
		searchErr.Kind = press.SearchErrorKindServerError
	}

	return searchErr
}

func parseRetryAfter(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0
	}

	return time.Duration(seconds) * time.Second
}

var _ press.SearchProvider = (*Client)(nil)
