package press

import "context"

// PreferenceStore tracks each user's ordered topic preferences.
//
// Implementations must be concurrency-safe; the warm task reads preferences
// while request handlers update them.
type PreferenceStore interface {
	// Preferences returns the user's topics in preference order.
	//
	// Unknown users have empty preferences, not an error.
	Preferences(ctx context.Context, userID string) ([]string, error)
	// SetPreferences replaces the user's topic list.
	SetPreferences(ctx context.Context, userID string, topics []string) error
	// KnownUsers returns user ids in stable first-seen order, so periodic
	// warm batches select a deterministic prefix.
	KnownUsers(ctx context.Context) ([]string, error)
}
