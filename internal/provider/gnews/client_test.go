package gnews

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pressfeed/pkg/press"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	return client, server
}

func TestNewValidatesBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "empty defaults", baseURL: ""},
		{name: "valid", baseURL: "https://example.com/api"},
		{name: "missing scheme", baseURL: "example.com/api", wantErr: true},
		{name: "unparseable", baseURL: "://bad", wantErr: true},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := New(Config{APIKey: "key", BaseURL: testCase.baseURL})
			if testCase.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !testCase.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSearchNotConfigured(t *testing.T) {
	t.Parallel()

	client, err := New(Config{})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	_, err = client.Search(context.Background(), "golang", 10)
	if !errors.Is(err, press.ErrNotConfigured) {
		t.Fatalf("Search error = %v, want ErrNotConfigured", err)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	t.Parallel()

	client, err := New(Config{APIKey: "key"})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	_, err = client.Search(context.Background(), "  ", 10)
	searchErr, ok := press.AsSearchError(err)
	if !ok {
		t.Fatalf("Search error = %v, want SearchError", err)
	}
	if searchErr.Kind != press.SearchErrorKindInvalidRequest {
		t.Fatalf("Kind = %s, want invalid_request", searchErr.Kind)
	}
}

func TestSearchSuccess(t *testing.T) {
	t.Parallel()

	var gotQuery, gotMax, gotKey string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotMax = r.URL.Query().Get("max")
		gotKey = r.URL.Query().Get("apikey")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"totalArticles": 42,
			"articles": [
				{
					"title": "Go 1.30 released",
					"description": "desc",
					"content": "content",
					"url": "https://example.com/go-release",
					"image": "https://example.com/go.png",
					"publishedAt": "2026-02-01T08:00:00Z",
					"source": {"name": "Example", "url": "https://example.com"}
				}
			]
		}`))
	})

	result, err := client.Search(context.Background(), "golang", 25)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotQuery != "golang" || gotMax != "25" || gotKey != "test-key" {
		t.Fatalf("request params q=%q max=%q apikey=%q", gotQuery, gotMax, gotKey)
	}
	if result.TotalArticles != 42 {
		t.Fatalf("TotalArticles = %d, want 42", result.TotalArticles)
	}
	if len(result.Articles) != 1 {
		t.Fatalf("Articles = %d entries, want 1", len(result.Articles))
	}
	article := result.Articles[0]
	if article.URL != "https://example.com/go-release" || article.Source.Name != "Example" {
		t.Fatalf("decoded article = %+v", article)
	}
	if !article.PublishedAt.Equal(time.Date(2026, time.February, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("PublishedAt = %v", article.PublishedAt)
	}
}

func TestSearchClampsPageSize(t *testing.T) {
	t.Parallel()

	var gotMax string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMax = r.URL.Query().Get("max")
		_, _ = w.Write([]byte(`{"totalArticles": 0, "articles": []}`))
	})

	if _, err := client.Search(context.Background(), "golang", 0); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if gotMax != "10" {
		t.Fatalf("max = %q for zero request, want default 10", gotMax)
	}

	if _, err := client.Search(context.Background(), "golang", 500); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if gotMax != "10" {
		t.Fatalf("max = %q for oversized request, want default 10", gotMax)
	}
}

func TestSearchRejectionMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		status         int
		retryAfter     string
		wantKind       press.SearchErrorKind
		wantRetryAfter time.Duration
		wantHTTPStatus int
	}{
		{
			name:           "bad request",
			status:         http.StatusBadRequest,
			wantKind:       press.SearchErrorKindInvalidRequest,
			wantHTTPStatus: http.StatusBadRequest,
		},
		{
			name:           "bad credentials",
			status:         http.StatusUnauthorized,
			wantKind:       press.SearchErrorKindInvalidCredentials,
			wantHTTPStatus: http.StatusUnauthorized,
		},
		{
			name:           "forbidden",
			status:         http.StatusForbidden,
			wantKind:       press.SearchErrorKindForbidden,
			wantHTTPStatus: http.StatusForbidden,
		},
		{
			name:           "rate limited with retry hint",
			status:         http.StatusTooManyRequests,
			retryAfter:     "30",
			wantKind:       press.SearchErrorKindRateLimited,
			wantRetryAfter: 30 * time.Second,
			wantHTTPStatus: http.StatusTooManyRequests,
		},
		{
			name:           "server error",
			status:         http.StatusInternalServerError,
			wantKind:       press.SearchErrorKindServerError,
			wantHTTPStatus: http.StatusBadGateway,
		},
		{
			name:           "unexpected status treated as server error",
			status:         http.StatusTeapot,
			wantKind:       press.SearchErrorKindServerError,
			wantHTTPStatus: http.StatusBadGateway,
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				if testCase.retryAfter != "" {
					w.Header().Set("Retry-After", testCase.retryAfter)
				}
				w.WriteHeader(testCase.status)
			})

			_, err := client.Search(context.Background(), "golang", 10)
			searchErr, ok := press.AsSearchError(err)
			if !ok {
				t.Fatalf("Search error = %v, want SearchError", err)
			}
			if searchErr.Kind != testCase.wantKind {
				t.Fatalf("Kind = %s, want %s", searchErr.Kind, testCase.wantKind)
			}
			if searchErr.StatusCode != testCase.status {
				t.Fatalf("StatusCode = %d, want %d", searchErr.StatusCode, testCase.status)
			}
			if searchErr.RetryAfter != testCase.wantRetryAfter {
				t.Fatalf("RetryAfter = %v, want %v", searchErr.RetryAfter, testCase.wantRetryAfter)
			}
			if got := searchErr.Kind.HTTPStatus(); got != testCase.wantHTTPStatus {
				t.Fatalf("HTTPStatus() = %d, want %d", got, testCase.wantHTTPStatus)
			}
		})
	}
}

func TestSearchUnreachable(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client, err := New(Config{APIKey: "key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	_, err = client.Search(context.Background(), "golang", 10)
	searchErr, ok := press.AsSearchError(err)
	if !ok {
		t.Fatalf("Search error = %v, want SearchError", err)
	}
	if searchErr.Kind != press.SearchErrorKindUnreachable {
		t.Fatalf("Kind = %s, want unreachable", searchErr.Kind)
	}
	if !searchErr.Unavailable() {
		t.Fatal("Unavailable() = false for unreachable provider")
	}
}

func TestSearchMalformedBody(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.Search(context.Background(), "golang", 10)
	searchErr, ok := press.AsSearchError(err)
	if !ok {
		t.Fatalf("Search error = %v, want SearchError", err)
	}
	if searchErr.Kind != press.SearchErrorKindServerError {
		t.Fatalf("Kind = %s, want server_error", searchErr.Kind)
	}
}

func TestSearchLanguageParam(t *testing.T) {
	t.Parallel()

	var gotLang string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.URL.Query().Get("lang")
		_, _ = w.Write([]byte(`{"totalArticles": 0, "articles": []}`))
	}))
	t.Cleanup(server.Close)

	client, err := New(Config{APIKey: "key", BaseURL: server.URL, Language: "en"})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	if _, err := client.Search(context.Background(), "golang", 10); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if gotLang != "en" {
		t.Fatalf("lang = %q, want en", gotLang)
	}
}
