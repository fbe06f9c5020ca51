// internal/domain/models/property.go
package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Property is a rental property owned by a landlord.
type Property struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LandlordID   string             `bson:"landlord_id" json:"landlordId"`
	Name         string             `bson:"name,omitempty" json:"name,omitempty"`
	Address      string             `bson:"address" json:"address"`
	City         string             `bson:"city" json:"city"`
	State        string             `bson:"state" json:"state"`
	ZipCode      string             `bson:"zip_code,omitempty" json:"zipCode,omitempty"`
	Country      string             `bson:"country,omitempty" json:"country,omitempty"`
	PropertyType string             `bson:"property_type" json:"propertyType"` // apartment, house, condo, ...
	TotalUnits   int                `bson:"total_units" json:"totalUnits"`
	Bedrooms     int                `bson:"bedrooms,omitempty" json:"bedrooms,omitempty"`
	Bathrooms    int                `bson:"bathrooms,omitempty" json:"bathrooms,omitempty"`
	MonthlyRate  float64            `bson:"monthly_rate,omitempty" json:"monthlyRate,omitempty"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Amenities    []string           `bson:"amenities,omitempty" json:"amenities,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// FullAddress renders the property address as a single line.
func (p *Property) FullAddress() string {
	return fmt.Sprintf("%s, %s, %s %s", p.Address, p.City, p.State, p.ZipCode)
}

// Validate checks the fields a property needs before it can be stored.
// Minimal listings are accepted: a located property with units, bedrooms,
// or a rate is enough.
func (p *Property) Validate() []string {
	var errs []string
	if p.LandlordID == "" {
		errs = append(errs, "landlord is required")
	}
	if p.Address == "" {
		errs = append(errs, "address is required")
	}
	if p.City == "" {
		errs = append(errs, "city is required")
	}
	if p.State == "" {
		errs = append(errs, "state is required")
	}
	if p.TotalUnits <= 0 && p.Bedrooms <= 0 && p.MonthlyRate <= 0 {
		errs = append(errs, "provide total units, bedrooms, or a monthly rate")
	}
	return errs
}
