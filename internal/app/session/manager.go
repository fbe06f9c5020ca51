// internal/app/session/manager.go

// Package session owns the authoritative mapping from an authenticated
// identity to a CasaLink user record: role checks at login, admin
// detection, the first-login password-reset obligation, and the
// landlord-impersonation dance used to provision tenant accounts.
//
// A single Manager instance is constructed with its identity provider
// and document store injected; everything else in the application reads
// the current user through the Manager's cache.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/casalink/internal/app/docstore"
	"github.com/dalemusser/casalink/internal/app/identity"
	"github.com/dalemusser/casalink/internal/app/system/normalize"
	"github.com/dalemusser/casalink/internal/app/system/timeouts"
	"github.com/dalemusser/casalink/internal/domain/models"
	"go.uber.org/zap"
)

// UserDirectory is the slice of the document store the manager needs
// for the users collection.
type UserDirectory interface {
	Get(ctx context.Context, id string) (*models.User, error)
	Put(ctx context.Context, id string, rec models.User) error
	Update(ctx context.Context, id string, fields map[string]any) error
}

// AdminDirectory answers admin lookups against the admin_users
// collection.
type AdminDirectory interface {
	IsActiveAdmin(ctx context.Context, id string) (bool, error)
}

// DefaultAdminEmails is the static allow-list consulted before any
// admin_users read. Membership alone grants admin standing.
var DefaultAdminEmails = []string{
	"admin@casalink.com",
	"superadmin@casalink.com",
}

// Config carries the manager's tunables.
type Config struct {
	// AdminEmails overrides DefaultAdminEmails when non-nil.
	AdminEmails []string
}

// Manager is the session core.
type Manager struct {
	ids    identity.Provider
	users  UserDirectory
	admins AdminDirectory
	cache  *Cache
	log    *zap.Logger

	adminEmails map[string]struct{}
}

// NewManager constructs the session manager with its collaborators.
func NewManager(ids identity.Provider, users UserDirectory, admins AdminDirectory, cfg Config, logger *zap.Logger) *Manager {
	emails := cfg.AdminEmails
	if emails == nil {
		emails = DefaultAdminEmails
	}
	set := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		set[normalize.Email(e)] = struct{}{}
	}
	return &Manager{
		ids:         ids,
		users:       users,
		admins:      admins,
		cache:       NewCache(),
		log:         logger,
		adminEmails: set,
	}
}

// CurrentUser returns the cached user (nil when signed out) and the
// cache stamp of the write that produced it.
func (m *Manager) CurrentUser() (*models.User, uint64) {
	return m.cache.Current()
}

/*─────────────────────────────────────────────────────────────────────────────*
| Login                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// Login authenticates email/password, verifies the selected role
// against the stored record, and returns the normalized user with
// derived IsAdmin / RequiresPasswordChange set.
//
// A missing record is auto-provisioned: admin when the email is on the
// allow-list, tenant otherwise, with loginCount already at 1 (the first
// login is consumed by this call).
//
// Any failure leaves the provider signed out and the cache cleared.
func (m *Manager) Login(ctx context.Context, email, password, selectedRole string) (*models.User, error) {
	email = normalize.Email(email)
	selectedRole = normalize.Role(selectedRole)

	// Clear any session left over from a previous attempt so a stale
	// identity cannot bleed into this one.
	if err := m.ids.SignOut(ctx); err != nil {
		m.log.Warn("pre-login sign-out failed", zap.Error(err))
	}

	ident, err := m.ids.SignIn(ctx, email, password)
	if err != nil {
		m.cache.clear()
		return nil, fmt.Errorf("login: %w", err)
	}

	user, err := m.loginUser(ctx, ident, selectedRole)
	if err != nil {
		m.cache.clear()
		if soErr := m.ids.SignOut(ctx); soErr != nil {
			m.log.Warn("post-failure sign-out failed", zap.Error(soErr))
		}
		return nil, err
	}

	m.cache.put(user)
	m.log.Info("login succeeded",
		zap.String("user_id", user.ID),
		zap.String("role", user.Role),
		zap.Bool("is_admin", user.IsAdmin),
		zap.Bool("requires_password_change", user.RequiresPasswordChange))
	return user, nil
}

// loginUser resolves the authenticated identity to a user record,
// provisioning one on first sign-in.
func (m *Manager) loginUser(ctx context.Context, ident identity.Identity, selectedRole string) (*models.User, error) {
	rec, err := m.users.Get(ctx, ident.UID)
	switch {
	case err == nil:
		return m.loginExisting(ctx, ident, rec, selectedRole)
	case isNotFound(err):
		return m.provisionOnFirstLogin(ctx, ident)
	default:
		return nil, fmt.Errorf("login: load user record: %w", err)
	}
}

func (m *Manager) loginExisting(ctx context.Context, ident identity.Identity, rec *models.User, selectedRole string) (*models.User, error) {
	if rec.Role != selectedRole {
		return nil, &RoleMismatchError{Actual: rec.Role}
	}

	// The password-change obligation is decided on the login count as it
	// stood when this call began; the increment below must not feed back
	// into the check.
	countAtStart := rec.LoginCount
	rec.RequiresPasswordChange = requiresPasswordChange(rec, countAtStart)
	rec.IsAdmin = m.isAdmin(ctx, ident)

	now := time.Now().UTC()
	rec.LoginCount = countAtStart + 1
	rec.LastLogin = &now
	if err := m.users.Update(ctx, ident.UID, map[string]any{
		"login_count": rec.LoginCount,
		"last_login":  now,
	}); err != nil {
		return nil, fmt.Errorf("login: record login: %w", err)
	}
	rec.UpdatedAt = now
	return rec, nil
}

// provisionOnFirstLogin creates the user record for an identity that
// authenticated but has no profile yet. This is the only path that
// writes loginCount=1 directly.
func (m *Manager) provisionOnFirstLogin(ctx context.Context, ident identity.Identity) (*models.User, error) {
	now := time.Now().UTC()
	role := models.RoleTenant
	if m.onAllowList(ident.Email) {
		role = models.RoleAdmin
	}

	rec := models.User{
		ID:                   ident.UID,
		Email:                ident.Email,
		Role:                 role,
		IsActive:             true,
		Status:               "active",
		HasTemporaryPassword: true,
		PasswordChanged:      false,
		LoginCount:           1,
		LastLogin:            &now,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	rec.Name = rec.DisplayName()

	if err := m.users.Put(ctx, ident.UID, rec); err != nil {
		return nil, fmt.Errorf("login: auto-provision user record: %w", err)
	}

	m.log.Info("auto-provisioned user record on first login",
		zap.String("user_id", ident.UID),
		zap.String("role", role))

	rec.RequiresPasswordChange = requiresPasswordChange(&rec, 0)
	rec.IsAdmin = m.isAdmin(ctx, ident)
	return &rec, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Auth-change listener                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// OnAuthChange subscribes cb to session changes: it fires immediately
// with the current state, then on every provider session change. The
// handler re-fetches the user record read-only (no login-count bump),
// refreshes the cache, and passes the normalized user (or nil) to cb.
// Failures here have no caller to report to, so they are logged and the
// session forced to a clean signed-out state.
func (m *Manager) OnAuthChange(cb func(*models.User)) (unsubscribe func()) {
	return m.ids.OnSessionChange(func(ident *identity.Identity) {
		cb(m.handleAuthChange(ident))
	})
}

func (m *Manager) handleAuthChange(ident *identity.Identity) *models.User {
	if ident == nil {
		m.cache.clear()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Short())
	defer cancel()

	rec, err := m.users.Get(ctx, ident.UID)
	if err != nil {
		if isNotFound(err) {
			m.log.Warn("forcing logout",
				zap.String("user_id", ident.UID),
				zap.Error(ErrAccountNotFound))
		} else {
			m.log.Error("auth-change user fetch failed", zap.Error(err))
		}
		m.cache.clear()
		if soErr := m.ids.SignOut(ctx); soErr != nil {
			m.log.Warn("forced sign-out failed", zap.Error(soErr))
		}
		return nil
	}

	rec.RequiresPasswordChange = requiresPasswordChange(rec, rec.LoginCount)
	rec.IsAdmin = m.isAdmin(ctx, *ident)
	m.cache.put(rec)
	return rec
}

/*─────────────────────────────────────────────────────────────────────────────*
| Logout                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// Logout clears the cache and signs out of the provider. It never fails
// visibly; teardown errors are logged and absorbed.
func (m *Manager) Logout(ctx context.Context) {
	m.cache.clear()
	if err := m.ids.SignOut(ctx); err != nil {
		m.log.Warn("logout sign-out failed", zap.Error(err))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Password change                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ChangePassword re-authenticates the current identity with the current
// password, updates the provider credential, and clears the temporary-
// password obligation on the user record.
func (m *Manager) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	ident, ok := m.ids.CurrentIdentity()
	if !ok {
		return ErrNotAuthenticated
	}

	if err := m.ids.Reauthenticate(ctx, ident.Email, currentPassword); err != nil {
		// Only a credential rejection blames the password; a backend
		// failure must not surface as "wrong current password".
		if identity.IsAuthError(err) {
			return &ReauthenticationError{Err: err}
		}
		return fmt.Errorf("change password: verify current password: %w", err)
	}

	if err := m.ids.UpdatePassword(ctx, newPassword); err != nil {
		return fmt.Errorf("change password: update credential: %w", err)
	}

	now := time.Now().UTC()
	if err := m.users.Update(ctx, ident.UID, map[string]any{
		"has_temporary_password": false,
		"password_changed":       true,
		"password_changed_at":    now,
	}); err != nil {
		return fmt.Errorf("change password: update user record: %w", err)
	}

	// Keep the cached copy consistent: the obligation is permanently
	// cleared once the password has been changed.
	if cur, _ := m.cache.Current(); cur != nil && cur.ID == ident.UID {
		cur.HasTemporaryPassword = false
		cur.PasswordChanged = true
		cur.PasswordChangedAt = &now
		cur.RequiresPasswordChange = false
		m.cache.put(cur)
	}

	m.log.Info("password changed", zap.String("user_id", ident.UID))
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Tenant provisioning                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// TenantData is the profile a landlord supplies when provisioning a
// tenant account.
type TenantData struct {
	Email         string
	Name          string
	Phone         string
	Occupation    string
	Age           int
	RoomNumber    string
	RentalAddress string
}

// ProvisionResult is returned to the landlord for one-time display of
// the tenant's temporary password.
type ProvisionResult struct {
	TenantID          string
	Email             string
	Name              string
	TemporaryPassword string
}

// CreateTenantAccount creates an identity and user record for a new
// tenant on behalf of the signed-in landlord.
//
// The provider holds a single session, so creating the tenant identity
// necessarily switches the active session away from the landlord; the
// flow verifies the landlord's password up front, performs the switch,
// and signs back in as the landlord with the same verified password.
//
// If the final restore fails the tenant is NOT rolled back: the result
// is returned together with a *PartialProvisioningError so the UI can
// prompt the landlord to sign in again.
func (m *Manager) CreateTenantAccount(ctx context.Context, data TenantData, temporaryPassword, landlordPassword string) (*ProvisionResult, error) {
	landlord, ok := m.ids.CurrentIdentity()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	cur, _ := m.cache.Current()
	if cur == nil || !cur.IsLandlord() {
		return nil, ErrNotAuthenticated
	}

	// Verify caller authority before mutating anything. A rejection here
	// has no side effects.
	if err := m.ids.Reauthenticate(ctx, landlord.Email, landlordPassword); err != nil {
		if errors.Is(err, identity.ErrNotAuthenticated) {
			return nil, ErrNotAuthenticated
		}
		if identity.IsAuthError(err) {
			return nil, ErrAuthorizationFailed
		}
		return nil, fmt.Errorf("create tenant: verify landlord: %w", err)
	}

	// Creating the identity claims the provider's session slot for the
	// tenant. A duplicate address fails before any switch happens, so the
	// landlord session is untouched in that case.
	tenant, err := m.ids.SignUp(ctx, data.Email, temporaryPassword)
	if err != nil {
		if errors.Is(err, identity.ErrEmailAlreadyInUse) {
			return nil, ErrEmailAlreadyInUse
		}
		return nil, fmt.Errorf("create tenant: create identity: %w", err)
	}

	now := time.Now().UTC()
	rec := models.User{
		ID:    tenant.UID,
		Email: normalize.Email(data.Email),
		Name:  normalize.Name(data.Name),
		Phone: data.Phone,
		Role:  models.RoleTenant,

		LandlordID: landlord.UID,
		CreatedBy:  landlord.Email,

		RoomNumber:    data.RoomNumber,
		RentalAddress: data.RentalAddress,
		Occupation:    data.Occupation,
		Age:           data.Age,

		HasTemporaryPassword: true,
		// Kept on the record so the landlord can display it again.
		TemporaryPassword: temporaryPassword,
		PasswordChanged:   false,
		LoginCount:        0,

		IsActive:  true,
		Status:    "unverified",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if rec.Name == "" {
		rec.Name = rec.DisplayName()
	}

	// The record write must complete before the session is handed back;
	// it runs under the tenant's still-active authorization context.
	if err := m.users.Put(ctx, tenant.UID, rec); err != nil {
		m.restoreLandlord(ctx, landlord, landlordPassword)
		return nil, fmt.Errorf("create tenant: write user record: %w", err)
	}

	res := &ProvisionResult{
		TenantID:          tenant.UID,
		Email:             rec.Email,
		Name:              rec.Name,
		TemporaryPassword: temporaryPassword,
	}

	// Hand the session back to the landlord with the password that was
	// verified above.
	if err := m.signInAs(ctx, landlord, landlordPassword); err != nil {
		m.log.Error("landlord session restore failed after tenant creation",
			zap.String("landlord_id", landlord.UID),
			zap.String("tenant_id", tenant.UID),
			zap.Error(err))
		return res, &PartialProvisioningError{TenantID: tenant.UID, Err: err}
	}

	m.log.Info("tenant account provisioned",
		zap.String("landlord_id", landlord.UID),
		zap.String("tenant_id", tenant.UID))
	return res, nil
}

// signInAs swaps the provider session back to the given identity.
func (m *Manager) signInAs(ctx context.Context, ident identity.Identity, password string) error {
	if err := m.ids.SignOut(ctx); err != nil {
		m.log.Warn("sign-out before session restore failed", zap.Error(err))
	}
	restored, err := m.ids.SignIn(ctx, ident.Email, password)
	if err != nil {
		return err
	}
	if restored.UID != ident.UID {
		return fmt.Errorf("restored identity %s does not match landlord %s", restored.UID, ident.UID)
	}
	return nil
}

// restoreLandlord is the best-effort hand-back used on mid-flow
// failures: log and continue, never abort the surrounding error path.
func (m *Manager) restoreLandlord(ctx context.Context, landlord identity.Identity, password string) {
	if err := m.signInAs(ctx, landlord, password); err != nil {
		m.log.Error("best-effort landlord restore failed",
			zap.String("landlord_id", landlord.UID), zap.Error(err))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Derivation helpers                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// requiresPasswordChange applies the first-login rule: only a tenant
// still holding a system-issued password, who has never changed it, and
// whose login count was zero when the operation began, is obligated.
func requiresPasswordChange(u *models.User, loginCountAtStart int) bool {
	return u.Role == models.RoleTenant &&
		u.HasTemporaryPassword &&
		!u.PasswordChanged &&
		loginCountAtStart == 0
}

// isAdmin combines the two independent admin signals. The allow-list
// wins without a store read; store failures demote to not-admin and are
// logged rather than failing the login.
func (m *Manager) isAdmin(ctx context.Context, ident identity.Identity) bool {
	if m.onAllowList(ident.Email) {
		return true
	}
	active, err := m.admins.IsActiveAdmin(ctx, ident.UID)
	if err != nil {
		m.log.Warn("admin record lookup failed", zap.String("user_id", ident.UID), zap.Error(err))
		return false
	}
	return active
}

func (m *Manager) onAllowList(email string) bool {
	_, ok := m.adminEmails[normalize.Email(email)]
	return ok
}

func isNotFound(err error) bool {
	return errors.Is(err, docstore.ErrNotFound)
}
