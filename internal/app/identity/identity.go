// internal/app/identity/identity.go

// Package identity defines the adapter boundary to the external identity
// provider. Only the uid and email of an authenticated principal are
// trusted; everything else lives in the application's own user records.
package identity

import (
	"context"
	"errors"
)

// Identity is an authenticated principal issued by the provider.
type Identity struct {
	UID   string
	Email string
}

// Provider error codes. Implementations wrap their backend failures in
// one of these so callers can branch without knowing the backend.
var (
	// ErrInvalidCredentials is returned when sign-in or re-authentication
	// is rejected for a bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailAlreadyInUse is returned by SignUp when the address is taken.
	ErrEmailAlreadyInUse = errors.New("email already in use")

	// ErrNotAuthenticated is returned by operations that need an active
	// session when there is none.
	ErrNotAuthenticated = errors.New("no authenticated identity")

	// ErrUnavailable wraps network/backend failures of the provider.
	ErrUnavailable = errors.New("identity provider unavailable")
)

// Provider is the session-holding identity service.
//
// The provider exposes exactly one active session slot: SignIn and
// SignUp both claim it, SignOut releases it. Every slot change is
// delivered to OnSessionChange subscribers.
type Provider interface {
	// SignIn authenticates email/password and makes the identity current.
	SignIn(ctx context.Context, email, password string) (Identity, error)

	// SignOut releases the session slot. Signing out with no session is
	// not an error.
	SignOut(ctx context.Context) error

	// SignUp creates a new identity and switches the active session to
	// it, signing out whoever held the slot.
	SignUp(ctx context.Context, email, password string) (Identity, error)

	// CurrentIdentity returns the identity holding the session slot.
	CurrentIdentity() (Identity, bool)

	// Reauthenticate verifies the credential of the current identity
	// without changing session state. The email must match the current
	// identity.
	Reauthenticate(ctx context.Context, email, password string) error

	// UpdatePassword replaces the current identity's credential.
	UpdatePassword(ctx context.Context, newPassword string) error

	// OnSessionChange registers cb for session-slot changes. The callback
	// fires immediately with the current state, then on every change, with
	// nil when the slot is empty. The returned function unsubscribes.
	OnSessionChange(cb func(*Identity)) (unsubscribe func())
}

// IsAuthError reports whether err is a credential rejection rather than
// a backend failure. Callers use it to decide between blaming the
// password and blaming the provider.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrNotAuthenticated)
}
