// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Role identifies what a user is allowed to do on the platform.
type Role string

const (
	// RoleAdmin can manage any resource or request.
	RoleAdmin Role = "admin"
	// RoleVolunteer provides resources and decides on requests against them.
	RoleVolunteer Role = "volunteer"
	// RoleVictim files requests for relief resources.
	RoleVictim Role = "victim"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleVolunteer, RoleVictim:
		return true
	}
	return false
}

// Location is a geographic point with an optional human-readable address.
// Embedded into users and resources; all fields are optional.
type Location struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Address   string   `json:"address,omitempty"`
}

// User represents a participant in the relief network: an admin, a volunteer
// providing resources, or a victim requesting them.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"unique;not null" json:"email"`
	Password     string         `gorm:"not null" json:"-"`
	Role         Role           `gorm:"type:varchar(20);not null;index" json:"role"`
	Phone        string         `json:"phone,omitempty"`
	Location     Location       `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Organization string         `json:"organization,omitempty"`
	Skills       []string       `gorm:"serializer:json" json:"skills,omitempty"`
	Availability bool           `gorm:"not null;default:true" json:"availability"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// VolunteerProfile is a volunteer as returned by the volunteers listing:
// the user profile annotated with the number of requests they have approved
// against their own resources.
type VolunteerProfile struct {
	User
	ApprovedCount int64 `json:"approvedCount"`
}
