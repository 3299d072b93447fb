package press

import "errors"

var (
	// ErrNotFound indicates a lookup for tracking state that does not exist,
	// such as removing a favorite that was never added.
	ErrNotFound = errors.New("press: not found")
	// ErrNotConfigured indicates that a required upstream credential or
	// provider profile is absent. It is checked eagerly, before any fetch.
	ErrNotConfigured = errors.New("press: not configured")
	// ErrUnauthenticated indicates a missing or invalid bearer credential.
	ErrUnauthenticated = errors.New("press: unauthenticated")
)
