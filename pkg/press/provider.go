package press

import "context"

// DefaultSearchPageSize is the fallback page size for upstream searches when
// the caller does not bound results itself.
const DefaultSearchPageSize = 10

// SearchProvider is the upstream news-search collaborator.
//
// Implementations must be concurrency-safe because request handlers and the
// background warm task issue searches from multiple goroutines at once.
type SearchProvider interface {
	// Search returns up to maxResults articles matching query.
	//
	// Failures are reported as *SearchError; a missing credential is
	// reported as ErrNotConfigured before any network call.
	Search(ctx context.Context, query string, maxResults int) (SearchResult, error)
}
