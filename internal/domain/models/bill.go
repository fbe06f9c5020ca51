// internal/domain/models/bill.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Bill statuses.
const (
	BillPending = "pending"
	BillPaid    = "paid"
	BillOverdue = "overdue"
)

// Bill is a charge issued against a lease (rent, utilities, fees).
type Bill struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LeaseID    primitive.ObjectID `bson:"lease_id" json:"leaseId"`
	TenantID   string             `bson:"tenant_id" json:"tenantId"`
	LandlordID string             `bson:"landlord_id" json:"landlordId"`
	Category   string             `bson:"category" json:"category"` // rent | utility | fee
	Amount     float64            `bson:"amount" json:"amount"`
	DueDate    time.Time          `bson:"due_date" json:"dueDate"`
	Status     string             `bson:"status" json:"status"` // pending | paid | overdue
	PaidAt     *time.Time         `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	Notes      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updatedAt"`
}

// IsOverdue reports whether an unpaid bill is past its due date.
func (b *Bill) IsOverdue() bool {
	return b.Status != BillPaid && time.Now().After(b.DueDate)
}

// Validate checks required bill fields.
func (b *Bill) Validate() []string {
	var errs []string
	if b.LeaseID.IsZero() {
		errs = append(errs, "lease is required")
	}
	if b.TenantID == "" {
		errs = append(errs, "tenant is required")
	}
	if b.Amount <= 0 {
		errs = append(errs, "amount must be greater than 0")
	}
	if b.DueDate.IsZero() {
		errs = append(errs, "due date is required")
	}
	return errs
}
