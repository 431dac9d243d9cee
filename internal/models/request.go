package models

import "time"

// RequestPriority ranks how urgent a request is.
type RequestPriority string

const (
	PriorityLow      RequestPriority = "low"
	PriorityMedium   RequestPriority = "medium"
	PriorityHigh     RequestPriority = "high"
	PriorityCritical RequestPriority = "critical"
)

// ValidRequestPriority reports whether p is one of the known priorities.
func ValidRequestPriority(p RequestPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// RequestStatus is a state in the request lifecycle.
type RequestStatus string

const (
	// RequestStatusPending awaits a provider decision. Capacity is not yet
	// reserved, so competing pending requests may oversubscribe a resource.
	RequestStatusPending RequestStatus = "pending"
	// RequestStatusApproved means capacity has been reserved for this request.
	RequestStatusApproved RequestStatus = "approved"
	// RequestStatusAllocated means fulfillment has been scheduled.
	RequestStatusAllocated RequestStatus = "allocated"
	// RequestStatusCompleted is terminal; the aid was delivered.
	RequestStatusCompleted RequestStatus = "completed"
	// RequestStatusRejected is terminal; any reserved capacity was released.
	RequestStatusRejected RequestStatus = "rejected"
)

// ValidRequestStatus reports whether s is one of the five lifecycle states.
// Any other literal (the legacy UI used strings like "fulfilled") is a
// validation error, never a silent extra state.
func ValidRequestStatus(s RequestStatus) bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusAllocated,
		RequestStatusCompleted, RequestStatusRejected:
		return true
	}
	return false
}

// TerminalRequestStatus reports whether no further transition is allowed
// out of s.
func TerminalRequestStatus(s RequestStatus) bool {
	return s == RequestStatusRejected || s == RequestStatusCompleted
}

// Request is a victim's claim for some quantity of a resource. Status only
// ever moves forward; requests that reached allocated or completed are kept
// as an audit trail and cannot be deleted.
type Request struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	UserID            uint            `gorm:"not null;index" json:"user_id"`
	User              *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ResourceID        uint            `gorm:"not null;index" json:"resource_id"`
	Resource          *Resource       `gorm:"foreignKey:ResourceID" json:"resource,omitempty"`
	QuantityRequested int             `gorm:"not null" json:"quantity_requested"`
	Priority          RequestPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Status            RequestStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Message           string          `gorm:"type:text" json:"message,omitempty"`
	AdminNotes        string          `gorm:"type:text" json:"admin_notes,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
