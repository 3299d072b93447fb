package press

import "context"

// Identity resolves opaque bearer credentials to user identifiers.
//
// The authentication layer itself is an external collaborator; the core only
// depends on this lookup.
type Identity interface {
	// ResolveToken returns the user id owning the credential.
	//
	// ErrUnauthenticated is returned for absent or unknown credentials.
	ResolveToken(ctx context.Context, token string) (string, error)
}
