package models

import (
	"time"

	"gorm.io/gorm"
)

// ResourceType classifies a resource pool by aid category.
type ResourceType string

const (
	ResourceTypeFood      ResourceType = "food"
	ResourceTypeShelter   ResourceType = "shelter"
	ResourceTypeMedical   ResourceType = "medical"
	ResourceTypeTransport ResourceType = "transport"
)

// ValidResourceType reports whether t is one of the known resource types.
func ValidResourceType(t ResourceType) bool {
	switch t {
	case ResourceTypeFood, ResourceTypeShelter, ResourceTypeMedical, ResourceTypeTransport:
		return true
	}
	return false
}

// ResourceStatus is the advertised availability of a resource pool. It is
// derived from the remaining quantity unless the provider overrides it.
type ResourceStatus string

const (
	ResourceStatusAvailable   ResourceStatus = "available"
	ResourceStatusLimited     ResourceStatus = "limited"
	ResourceStatusUnavailable ResourceStatus = "unavailable"
)

// ValidResourceStatus reports whether s is one of the known statuses.
func ValidResourceStatus(s ResourceStatus) bool {
	switch s {
	case ResourceStatusAvailable, ResourceStatusLimited, ResourceStatusUnavailable:
		return true
	}
	return false
}

// Resource is a finite pool of an aid category offered by a provider.
// AvailableQuantity tracks what remains after approved reservations and never
// leaves the range [0, Quantity].
type Resource struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Type        ResourceType `gorm:"type:varchar(20);not null;index" json:"type"`
	Quantity    int          `gorm:"not null" json:"quantity"`
	// AvailableQuantity is the only field contended by concurrent writers;
	// it is mutated exclusively through conditional updates.
	AvailableQuantity int            `gorm:"not null" json:"available_quantity"`
	Location          Location       `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Status            ResourceStatus `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	StatusOverridden  bool           `gorm:"not null;default:false" json:"status_overridden"`
	ProviderID        uint           `gorm:"not null;index" json:"provider_id"`
	Provider          *User          `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// DeriveResourceStatus maps remaining quantity to an advertised status.
// A pool is limited once at most a fifth of it remains.
func DeriveResourceStatus(available, quantity int) ResourceStatus {
	switch {
	case available <= 0:
		return ResourceStatusUnavailable
	case available*5 <= quantity:
		return ResourceStatusLimited
	default:
		return ResourceStatusAvailable
	}
}
