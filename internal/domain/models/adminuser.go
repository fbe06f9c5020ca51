// internal/domain/models/adminuser.go
package models

import "time"

// AdminUser lives in the admin_users collection, keyed by identity uid.
// Its presence with IsActive=true is one of two admin signals; the other
// is the static admin email allow-list checked before any store read.
type AdminUser struct {
	ID        string     `bson:"_id" json:"id"`
	Email     string     `bson:"email" json:"email"`
	Name      string     `bson:"name" json:"name"`
	Role      string     `bson:"role" json:"role"` // super_admin
	IsActive  bool       `bson:"is_active" json:"isActive"`
	LastLogin *time.Time `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
}
