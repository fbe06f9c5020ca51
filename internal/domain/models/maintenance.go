// internal/domain/models/maintenance.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Maintenance request statuses.
const (
	RequestOpen       = "open"
	RequestAssigned   = "assigned"
	RequestInProgress = "in-progress"
	RequestCompleted  = "completed"
	RequestCancelled  = "cancelled"
)

// Maintenance request priorities.
const (
	PriorityLow       = "low"
	PriorityNormal    = "normal"
	PriorityHigh      = "high"
	PriorityEmergency = "emergency"
)

// MaintenanceRequest is a repair request filed by a tenant for a unit.
type MaintenanceRequest struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UnitID        primitive.ObjectID `bson:"unit_id" json:"unitId"`
	PropertyID    primitive.ObjectID `bson:"property_id,omitempty" json:"propertyId,omitempty"`
	TenantID      string             `bson:"tenant_id" json:"tenantId"`
	LandlordID    string             `bson:"landlord_id" json:"landlordId"`
	Title         string             `bson:"title" json:"title"`
	Description   string             `bson:"description" json:"description"`
	Category      string             `bson:"category" json:"category"` // plumbing, electrical, structural, general
	Priority      string             `bson:"priority" json:"priority"` // low | normal | high | emergency
	Status        string             `bson:"status" json:"status"`
	EstimatedCost float64            `bson:"estimated_cost,omitempty" json:"estimatedCost,omitempty"`
	ActualCost    *float64           `bson:"actual_cost,omitempty" json:"actualCost,omitempty"`
	AssignedTo    string             `bson:"assigned_to,omitempty" json:"assignedTo,omitempty"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CompletedAt   *time.Time         `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updatedAt"`
}

// IsUrgent reports whether the request is high priority or an emergency.
func (m *MaintenanceRequest) IsUrgent() bool {
	return m.Priority == PriorityHigh || m.Priority == PriorityEmergency
}

// ValidTransition reports whether a status change is allowed.
// Completed and cancelled are terminal.
func (m *MaintenanceRequest) ValidTransition(next string) bool {
	switch m.Status {
	case RequestOpen:
		return next == RequestAssigned || next == RequestInProgress || next == RequestCancelled
	case RequestAssigned:
		return next == RequestInProgress || next == RequestCancelled
	case RequestInProgress:
		return next == RequestCompleted || next == RequestCancelled
	}
	return false
}

// Validate checks required request fields.
func (m *MaintenanceRequest) Validate() []string {
	var errs []string
	if m.UnitID.IsZero() {
		errs = append(errs, "unit is required")
	}
	if m.Title == "" {
		errs = append(errs, "title is required")
	}
	if m.Description == "" {
		errs = append(errs, "description is required")
	}
	if m.Category == "" {
		errs = append(errs, "category is required")
	}
	switch m.Priority {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityEmergency:
	default:
		errs = append(errs, "priority must be low, normal, high, or emergency")
	}
	return errs
}
