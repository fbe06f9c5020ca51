// internal/domain/models/unit.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Unit statuses.
const (
	UnitVacant      = "vacant"
	UnitOccupied    = "occupied"
	UnitMaintenance = "maintenance"
)

// Unit is a rental unit within a property.
type Unit struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PropertyID      primitive.ObjectID `bson:"property_id" json:"propertyId"`
	UnitNumber      string             `bson:"unit_number" json:"unitNumber"`
	BedroomCount    int                `bson:"bedroom_count" json:"bedroomCount"`
	BathroomCount   int                `bson:"bathroom_count" json:"bathroomCount"`
	SquareFeet      int                `bson:"square_feet,omitempty" json:"squareFeet,omitempty"`
	RentAmount      float64            `bson:"rent_amount" json:"rentAmount"`
	SecurityDeposit float64            `bson:"security_deposit,omitempty" json:"securityDeposit,omitempty"`
	Status          string             `bson:"status" json:"status"` // vacant | occupied | maintenance
	CurrentTenantID string             `bson:"current_tenant_id,omitempty" json:"currentTenantId,omitempty"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Amenities       []string           `bson:"amenities,omitempty" json:"amenities,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}

// IsOccupied reports whether the unit currently has a tenant.
func (u *Unit) IsOccupied() bool {
	return u.Status == UnitOccupied && u.CurrentTenantID != ""
}

// Validate checks required unit fields.
func (u *Unit) Validate() []string {
	var errs []string
	if u.PropertyID.IsZero() {
		errs = append(errs, "property is required")
	}
	if u.UnitNumber == "" {
		errs = append(errs, "unit number is required")
	}
	if u.BedroomCount < 0 {
		errs = append(errs, "bedroom count cannot be negative")
	}
	if u.BathroomCount < 0 {
		errs = append(errs, "bathroom count cannot be negative")
	}
	if u.RentAmount <= 0 {
		errs = append(errs, "rent amount must be greater than 0")
	}
	return errs
}
