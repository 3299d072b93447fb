// Package store tracks which articles each user has read or favorited, with
// article metadata shared across users and deduplicated by a stable
// URL-derived identifier.
package store

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/samber/lo"

	"pressfeed/pkg/press"
)

// DefaultMetadataMaxAge is the fallback age threshold for SweepMetadata.
const DefaultMetadataMaxAge = 7 * 24 * time.Hour

// Metadata is the shared per-article record, written once per article id and
// never mutated afterward except for its presence.
type Metadata struct {
	// ID is the stable identifier derived from the article URL.
	ID string `json:"id"`
	// Article is the normalized article payload at first-seen time.
	Article press.Article `json:"article"`
	// CachedAt records when the metadata entry was created.
	CachedAt time.Time `json:"cachedAt"`
}

// ReadReceipt reports one mark-read outcome.
type ReadReceipt struct {
	ID       string    `json:"id"`
	MarkedAt time.Time `json:"markedAt"`
}

// FavoriteReceipt reports one mark-favorite outcome.
type FavoriteReceipt struct {
	ID          string    `json:"id"`
	FavoritedAt time.Time `json:"favoritedAt"`
}

// Favorite is one stored favorite record: a snapshot of the article metadata
// as it looked when favorited, plus the favorite timestamp.
type Favorite struct {
	Metadata    Metadata  `json:"metadata"`
	FavoritedAt time.Time `json:"favoritedAt"`
}

// Stats summarizes tracking state for one user.
type Stats struct {
	// TotalRead counts the user's read marks.
	TotalRead int `json:"totalRead"`
	// TotalFavorites counts the user's favorites.
	TotalFavorites int `json:"totalFavorites"`
	// TotalArticlesTracked counts metadata entries across all users.
	TotalArticlesTracked int `json:"totalArticlesTracked"`
}

// Option mutates store configuration.
type Option func(*Store)

func withClock(clock func() time.Time) Option {
	return func(store *Store) {
		if clock != nil {
			store.clock = clock
		}
	}
}

// Store holds shared article metadata and per-user tracking state.
//
// Every operation is total: unknown users are self-initializing and simply
// have empty collections. Internal locking makes each call atomic at the
// call boundary; callers never lock.
type Store struct {
	clock func() time.Time

	mu        sync.Mutex
	metadata  map[string]Metadata
	reads     map[string]map[string]struct{}
	favorites map[string]map[string]Favorite
}

// New creates an empty tracking store.
func New(options ...Option) *Store {
	store := &Store{
		clock:     time.Now,
		metadata:  make(map[string]Metadata),
		reads:     make(map[string]map[string]struct{}),
		favorites: make(map[string]map[string]Favorite),
	}
	for _, option := range options {
		option(store)
	}

	return store
}

// ArticleID derives the stable tracking identifier for one article URL.
//
// The hash is FNV-1a (64-bit): deterministic across process restarts, fast,
// and not collision-proof. Ids only key in-process maps.
func ArticleID(url string) string {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(url))

	return fmt.Sprintf("%016x", hasher.Sum64())
}

// RecordMetadata stores article metadata if absent and returns the article
// id either way. First write wins: a later call for the same id leaves the
// stored metadata untouched.
func (s *Store) RecordMetadata(article press.Article) string {
	id := ArticleID(article.URL)
	now := s.now()

	s.mu.Lock()
	s.recordMetadataLocked(id, article, now)
	s.mu.Unlock()

	return id
}

// MarkRead stores metadata for article and adds it to the user's read set.
// Re-marking is a no-op beyond returning a fresh receipt.
func (s *Store) MarkRead(userID string, article press.Article) ReadReceipt {
	now := s.now()
	id := ArticleID(article.URL)

	s.mu.Lock()
	s.recordMetadataLocked(id, article, now)
	s.readSetLocked(userID)[id] = struct{}{}
	s.mu.Unlock()

	return ReadReceipt{ID: id, MarkedAt: now}
}

// MarkReadID adds a bare article id to the user's read set. Metadata may or
// may not already exist for the id.
func (s *Store) MarkReadID(userID string, id string) ReadReceipt {
	now := s.now()

	s.mu.Lock()
	s.readSetLocked(userID)[id] = struct{}{}
	s.mu.Unlock()

	return ReadReceipt{ID: id, MarkedAt: now}
}

// MarkFavorite stores metadata for article and records it as a favorite for
// the user, snapshotting the current metadata.
func (s *Store) MarkFavorite(userID string, article press.Article) FavoriteReceipt {
	now := s.now()
	id := ArticleID(article.URL)

	s.mu.Lock()
	s.recordMetadataLocked(id, article, now)
	snapshot := s.metadata[id]
	s.favoriteMapLocked(userID)[id] = Favorite{Metadata: snapshot, FavoritedAt: now}
	s.mu.Unlock()

	return FavoriteReceipt{ID: id, FavoritedAt: now}
}

// MarkFavoriteID records a bare article id as a favorite. When no metadata
// exists for the id a minimal stub is snapshotted.
func (s *Store) MarkFavoriteID(userID string, id string) FavoriteReceipt {
	now := s.now()

	s.mu.Lock()
	snapshot, exists := s.metadata[id]
	if !exists {
		snapshot = Metadata{ID: id, CachedAt: now}
	}
	s.favoriteMapLocked(userID)[id] = Favorite{Metadata: snapshot, FavoritedAt: now}
	s.mu.Unlock()

	return FavoriteReceipt{ID: id, FavoritedAt: now}
}

// RemoveFavorite removes id from the user's favorites and reports whether an
// entry existed. Callers surface not-found when it reports false.
func (s *Store) RemoveFavorite(userID string, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	favorites, exists := s.favorites[userID]
	if !exists {
		return false
	}
	if _, exists := favorites[id]; !exists {
		return false
	}
	delete(favorites, id)

	return true
}

// IsRead reports whether the user has marked id as read.
func (s *Store) IsRead(userID string, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	reads, exists := s.reads[userID]
	if !exists {
		return false
	}
	_, marked := reads[id]

	return marked
}

// IsFavorite reports whether the user has favorited id.
func (s *Store) IsFavorite(userID string, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	favorites, exists := s.favorites[userID]
	if !exists {
		return false
	}
	_, marked := favorites[id]

	return marked
}

// ReadArticles returns the user's read articles joined with shared metadata,
// in no guaranteed order. Ids whose metadata was swept are silently excluded.
func (s *Store) ReadArticles(userID string) []Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	reads, exists := s.reads[userID]
	if !exists {
		return nil
	}

	joined := make([]Metadata, 0, len(reads))
	for id := range reads {
		metadata, exists := s.metadata[id]
		if !exists {
			continue
		}
		joined = append(joined, metadata)
	}

	return joined
}

// FavoriteArticles returns the user's stored favorite snapshots, in no
// guaranteed order.
func (s *Store) FavoriteArticles(userID string) []Favorite {
	s.mu.Lock()
	defer s.mu.Unlock()

	favorites, exists := s.favorites[userID]
	if !exists {
		return nil
	}

	return lo.Values(favorites)
}

// Stats returns per-user read/favorite counts plus the global tracked
// metadata count.
func (s *Store) Stats(userID string) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		TotalRead:            len(s.reads[userID]),
		TotalFavorites:       len(s.favorites[userID]),
		TotalArticlesTracked: len(s.metadata),
	}
}

// SweepMetadata deletes metadata entries whose CachedAt is older than maxAge,
// except ids currently present in any user's favorites. Read marks do not
// protect metadata; only favorites do. Read sets and favorites themselves are
// never touched. It returns the count deleted.
func (s *Store) SweepMetadata(maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = DefaultMetadataMaxAge
	}
	cutoff := s.now().Add(-maxAge)
	removed := 0

	s.mu.Lock()
	protected := s.favoritedIDsLocked()
	for id, metadata := range s.metadata {
		if !metadata.CachedAt.Before(cutoff) {
			continue
		}
		if _, keep := protected[id]; keep {
			continue
		}
		delete(s.metadata, id)
		removed++
	}
	s.mu.Unlock()

	return removed
}

func (s *Store) favoritedIDsLocked() map[string]struct{} {
	protected := make(map[string]struct{})
	for _, favorites := range s.favorites {
		for id := range favorites {
			protected[id] = struct{}{}
		}
	}

	return protected
}

func (s *Store) recordMetadataLocked(id string, article press.Article, now time.Time) {
	if _, exists := s.metadata[id]; exists {
		return
	}
	s.metadata[id] = Metadata{ID: id, Article: article, CachedAt: now}
}

func (s *Store) readSetLocked(userID string) map[string]struct{} {
	reads, exists := s.reads[userID]
	if !exists {
		reads = make(map[string]struct{})
		s.reads[userID] = reads
	}

	return reads
}

func (s *Store) favoriteMapLocked(userID string) map[string]Favorite {
	favorites, exists := s.favorites[userID]
	if !exists {
		favorites = make(map[string]Favorite)
		s.favorites[userID] = favorites
	}

	return favorites
}

func (s *Store) now() time.Time {
	return s.clock().UTC()
}
