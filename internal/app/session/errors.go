// internal/app/session/errors.go
package session

import (
	"errors"
	"fmt"

	"github.com/dalemusser/casalink/internal/app/identity"
)

// Failures the session manager reports to explicit user actions.
// Provider and store errors are wrapped with operation context before
// they are returned; the listener and Logout absorb their own failures.
var (
	// ErrInvalidCredentials re-exports the provider rejection so callers
	// only import this package.
	ErrInvalidCredentials = identity.ErrInvalidCredentials

	// ErrNotAuthenticated is returned by operations that need a signed-in
	// identity when there is none.
	ErrNotAuthenticated = identity.ErrNotAuthenticated

	// ErrAccountNotFound is returned when the provider authenticated an
	// identity but no user record exists and none may be provisioned.
	ErrAccountNotFound = errors.New("user record not found")

	// ErrAuthorizationFailed is returned when the landlord password check
	// before tenant provisioning is rejected.
	ErrAuthorizationFailed = errors.New("landlord authorization failed")

	// ErrEmailAlreadyInUse re-exports the provider's duplicate-address
	// rejection from tenant provisioning.
	ErrEmailAlreadyInUse = identity.ErrEmailAlreadyInUse
)

// RoleMismatchError is returned by Login when the stored role differs
// from the role selected in the login form. Login never corrects the
// selection; the account's actual role is reported so the UI can name
// it.
type RoleMismatchError struct {
	Actual string
}

func (e *RoleMismatchError) Error() string {
	return fmt.Sprintf("this account is registered as a %s; select %q when logging in", e.Actual, e.Actual)
}

// ReauthenticationError wraps the provider's rejection of the current
// password during a password change.
type ReauthenticationError struct {
	Err error
}

func (e *ReauthenticationError) Error() string {
	return fmt.Sprintf("re-authentication failed: %v", e.Err)
}

func (e *ReauthenticationError) Unwrap() error { return e.Err }

// PartialProvisioningError reports that a tenant account was created but
// the landlord session could not be restored afterwards. The tenant is
// not rolled back; the landlord must sign in again manually.
type PartialProvisioningError struct {
	TenantID string
	Err      error
}

func (e *PartialProvisioningError) Error() string {
	return fmt.Sprintf("tenant %s created but landlord session restore failed: %v", e.TenantID, e.Err)
}

func (e *PartialProvisioningError) Unwrap() error { return e.Err }
