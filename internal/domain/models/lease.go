// internal/domain/models/lease.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lease statuses.
const (
	LeaseActive  = "active"
	LeaseEnded   = "ended"
	LeasePending = "pending"
)

// Lease is an agreement between a landlord and a tenant for a unit.
type Lease struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UnitID          primitive.ObjectID `bson:"unit_id" json:"unitId"`
	PropertyID      primitive.ObjectID `bson:"property_id" json:"propertyId"`
	TenantID        string             `bson:"tenant_id" json:"tenantId"`
	LandlordID      string             `bson:"landlord_id" json:"landlordId"`
	StartDate       time.Time          `bson:"start_date" json:"startDate"`
	EndDate         *time.Time         `bson:"end_date,omitempty" json:"endDate,omitempty"`
	MonthlyRent     float64            `bson:"monthly_rent" json:"monthlyRent"`
	SecurityDeposit float64            `bson:"security_deposit,omitempty" json:"securityDeposit,omitempty"`
	DepositPaid     bool               `bson:"deposit_paid" json:"depositPaid"`
	Terms           string             `bson:"terms,omitempty" json:"terms,omitempty"`
	Status          string             `bson:"status" json:"status"` // active | ended | pending
	RenewalDate     *time.Time         `bson:"renewal_date,omitempty" json:"renewalDate,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}

// IsExpired reports whether the lease end date has passed.
func (l *Lease) IsExpired() bool {
	return l.EndDate != nil && time.Now().After(*l.EndDate)
}

// IsExpiringSoon reports whether the lease ends within the next 30 days.
func (l *Lease) IsExpiringSoon() bool {
	if l.EndDate == nil {
		return false
	}
	until := time.Until(*l.EndDate)
	return until > 0 && until <= 30*24*time.Hour
}

// Validate checks required lease fields.
func (l *Lease) Validate() []string {
	var errs []string
	if l.UnitID.IsZero() {
		errs = append(errs, "unit is required")
	}
	if l.TenantID == "" {
		errs = append(errs, "tenant is required")
	}
	if l.LandlordID == "" {
		errs = append(errs, "landlord is required")
	}
	if l.MonthlyRent <= 0 {
		errs = append(errs, "monthly rent must be greater than 0")
	}
	if l.StartDate.IsZero() {
		errs = append(errs, "start date is required")
	}
	if l.EndDate != nil && !l.StartDate.Before(*l.EndDate) {
		errs = append(errs, "end date must be after start date")
	}
	return errs
}
