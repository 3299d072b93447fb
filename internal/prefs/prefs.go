// Package prefs stores per-user topic preferences in memory.
package prefs

import (
	"context"
	"strings"
	"sync"

	"pressfeed/pkg/press"
)

// Store is an in-memory press.PreferenceStore. Users are self-initializing:
// reading an unknown user yields the configured default topics, and the user
// becomes known on first write.
type Store struct {
	defaults []string

	mu     sync.Mutex
	topics map[string][]string
	order  []string
}

// Option mutates store configuration.
type Option func(*Store)

// WithDefaults sets the topic list served to users with no stored preferences.
func WithDefaults(topics []string) Option {
	return func(store *Store) {
		store.defaults = normalizeTopics(topics)
	}
}

// New creates an empty preference store.
func New(options ...Option) *Store {
	store := &Store{
		topics: make(map[string][]string),
	}
	for _, option := range options {
		option(store)
	}

	return store
}

// Preferences returns the user's topics in preference order, falling back to
// the configured defaults for users with no stored list.
func (s *Store) Preferences(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.topics[userID]
	if !exists {
		return append([]string(nil), s.defaults...), nil
	}

	return append([]string(nil), stored...), nil
}

// SetPreferences replaces the user's topic list and marks the user known.
func (s *Store) SetPreferences(_ context.Context, userID string, topics []string) error {
	normalized := normalizeTopics(topics)

	s.mu.Lock()
	if _, exists := s.topics[userID]; !exists {
		s.order = append(s.order, userID)
	}
	s.topics[userID] = normalized
	s.mu.Unlock()

	return nil
}

// KnownUsers returns user ids in first-seen order. A stable order keeps the
// warm task's bounded prefix deterministic across cycles.
func (s *Store) KnownUsers(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.order...), nil
}

func normalizeTopics(topics []string) []string {
	normalized := make([]string, 0, len(topics))
	for _, topic := range topics {
		trimmed := strings.TrimSpace(topic)
		if trimmed == "" {
			continue
		}
		normalized = append(normalized, trimmed)
	}

	return normalized
}

var _ press.PreferenceStore = (*Store)(nil)
