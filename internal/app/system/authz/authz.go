// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/casalink/internal/app/system/auth"
)

// UserCtx returns the user's role (lowercased), name, identity uid, and a
// found flag. If no user is present in context it returns
// "visitor", "", "", false, so callers can trust that ok=true means a
// valid, authenticated user.
func UserCtx(r *http.Request) (role string, name string, userID string, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || user.ID == "" {
		return "visitor", "", "", false
	}
	return strings.ToLower(user.Role), user.Name, user.ID, true
}

// IsAdmin reports whether the current request's user carries admin
// standing, whether from the admin role or the admin flag granted at
// login (allow-list or admin_users record).
func IsAdmin(r *http.Request) bool {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return false
	}
	return user.IsAdmin || strings.ToLower(user.Role) == "admin"
}

// IsLandlord reports whether the current request's user is a landlord.
func IsLandlord(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "landlord"
}

// IsTenant reports whether the current request's user is a tenant.
func IsTenant(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "tenant"
}

// CanActForLandlord reports whether the current user may act on the
// given landlord's data: the landlord themselves, or an admin.
func CanActForLandlord(r *http.Request, landlordID string) bool {
	_, _, uid, ok := UserCtx(r)
	if !ok {
		return false
	}
	if IsAdmin(r) {
		return true
	}
	return IsLandlord(r) && uid == landlordID
}

// CanViewTenant reports whether the current user may view the given
// tenant's records: the tenant themselves, the landlord who provisioned
// them, or an admin.
func CanViewTenant(r *http.Request, tenantID, tenantLandlordID string) bool {
	_, _, uid, ok := UserCtx(r)
	if !ok {
		return false
	}
	if IsAdmin(r) {
		return true
	}
	if uid == tenantID {
		return true
	}
	return IsLandlord(r) && uid == tenantLandlordID
}
