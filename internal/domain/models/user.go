// internal/domain/models/user.go
package models

import (
	"strings"
	"time"
)

// Roles recognized by CasaLink.
const (
	RoleTenant   = "tenant"
	RoleLandlord = "landlord"
	RoleAdmin    = "admin"
)

// User is the application profile for an authenticated identity.
// The document is keyed by the identity provider's uid, so ID doubles
// as the Mongo _id and is immutable after creation.
//
// IsAdmin and RequiresPasswordChange are derived at login / auth-change
// time and are never persisted.
type User struct {
	ID    string `bson:"_id" json:"id"`
	Email string `bson:"email" json:"email"`
	Name  string `bson:"name" json:"name"`
	Phone string `bson:"phone,omitempty" json:"phone,omitempty"`
	Role  string `bson:"role" json:"role"` // tenant | landlord | admin

	IsActive bool   `bson:"is_active" json:"isActive"`
	Status   string `bson:"status" json:"status"` // free text, default "active"

	// First-login password-reset tracking.
	HasTemporaryPassword bool   `bson:"has_temporary_password" json:"hasTemporaryPassword"`
	PasswordChanged      bool   `bson:"password_changed" json:"passwordChanged"`
	TemporaryPassword    string `bson:"temporary_password,omitempty" json:"-"`

	LoginCount        int        `bson:"login_count" json:"loginCount"`
	LastLogin         *time.Time `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	PasswordChangedAt *time.Time `bson:"password_changed_at,omitempty" json:"passwordChangedAt,omitempty"`

	// Tenant fields.
	LandlordID    string `bson:"landlord_id,omitempty" json:"landlordId,omitempty"`
	RoomNumber    string `bson:"room_number,omitempty" json:"roomNumber,omitempty"`
	RentalAddress string `bson:"rental_address,omitempty" json:"rentalAddress,omitempty"`
	Occupation    string `bson:"occupation,omitempty" json:"occupation,omitempty"`
	Age           int    `bson:"age,omitempty" json:"age,omitempty"`
	CreatedBy     string `bson:"created_by,omitempty" json:"createdBy,omitempty"`

	// Landlord fields.
	Properties []string `bson:"properties,omitempty" json:"properties,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`

	// Derived, never persisted.
	IsAdmin                bool `bson:"-" json:"isAdmin"`
	RequiresPasswordChange bool `bson:"-" json:"requiresPasswordChange"`
}

// DisplayName returns the user's name, falling back to the local part
// of the email address.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// IsTenant reports whether the user has the tenant role.
func (u *User) IsTenant() bool { return u.Role == RoleTenant }

// IsLandlord reports whether the user has the landlord role.
func (u *User) IsLandlord() bool { return u.Role == RoleLandlord }

// ValidRole reports whether role is one of the recognized roles.
func ValidRole(role string) bool {
	switch role {
	case RoleTenant, RoleLandlord, RoleAdmin:
		return true
	}
	return false
}
