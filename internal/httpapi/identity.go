package httpapi

import (
	"context"
	"fmt"
	"sync"

	"pressfeed/pkg/press"
)

// StaticIdentity resolves bearer tokens against a fixed token-to-user map.
// It stands in for the external identity layer, which issues and validates
// opaque credentials out of band.
type StaticIdentity struct {
	mu    sync.RWMutex
	users map[string]string
}

// NewStaticIdentity creates an identity resolver over a token-to-user map.
func NewStaticIdentity(tokens map[string]string) *StaticIdentity {
	users := make(map[string]string, len(tokens))
	for token, userID := range tokens {
		if token == "" || userID == "" {
			continue
		}
		users[token] = userID
	}

	return &StaticIdentity{users: users}
}

// ResolveToken returns the user owning the credential.
func (i *StaticIdentity) ResolveToken(_ context.Context, token string) (string, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	userID, exists := i.users[token]
	if !exists {
		return "", fmt.Errorf("resolve token: %w", press.ErrUnauthenticated)
	}

	return userID, nil
}

var _ press.Identity = (*StaticIdentity)(nil)
