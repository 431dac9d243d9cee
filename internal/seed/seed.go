// Package seed provides database seeding utilities for development and
// testing. It populates the relief network with volunteers, victims,
// resources and requests in various lifecycle states while keeping the
// stock accounting consistent.
package seed

import (
	"fmt"
	"log"
	"math/rand"

	"reliefhub/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumVolunteers int
	NumVictims    int
	// ResourcesPerVolunteer is the upper bound; each volunteer gets 1..N.
	ResourcesPerVolunteer int
	NumRequests           int
	// ApproveRatio is the fraction of requests decided in the victim's
	// favor (approved, allocated or completed).
	ApproveRatio float64
	ShouldClean  bool
}

// DefaultOptions returns a small but representative data set.
func DefaultOptions() Options {
	return Options{
		NumVolunteers:         10,
		NumVictims:            30,
		ResourcesPerVolunteer: 3,
		NumRequests:           60,
		ApproveRatio:          0.5,
		ShouldClean:           true,
	}
}

// Seeder populates the database with generated relief data.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a new Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db)}
}

// ClearAll removes all seeded domain data. Requests go first to satisfy
// foreign keys.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	for _, table := range []string{"requests", "resources", "users"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Run generates the full data set described by opts.
func (s *Seeder) Run(opts Options) error {
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	admin, err := s.factory.CreateUser(models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	log.Printf("Created admin %s", admin.Email)

	volunteers := make([]*models.User, 0, opts.NumVolunteers)
	for i := 0; i < opts.NumVolunteers; i++ {
		user, err := s.factory.CreateUser(models.RoleVolunteer)
		if err != nil {
			return fmt.Errorf("failed to create volunteer: %w", err)
		}
		volunteers = append(volunteers, user)
	}

	victims := make([]*models.User, 0, opts.NumVictims)
	for i := 0; i < opts.NumVictims; i++ {
		user, err := s.factory.CreateUser(models.RoleVictim)
		if err != nil {
			return fmt.Errorf("failed to create victim: %w", err)
		}
		victims = append(victims, user)
	}

	resources := make([]*models.Resource, 0, opts.NumVolunteers*opts.ResourcesPerVolunteer)
	for _, volunteer := range volunteers {
		n := 1 + rand.Intn(max(opts.ResourcesPerVolunteer, 1))
		for i := 0; i < n; i++ {
			resource, err := s.factory.CreateResource(volunteer)
			if err != nil {
				return fmt.Errorf("failed to create resource: %w", err)
			}
			resources = append(resources, resource)
		}
	}
	log.Printf("Created %d volunteers, %d victims, %d resources",
		len(volunteers), len(victims), len(resources))

	if len(resources) == 0 || len(victims) == 0 {
		return nil
	}

	// remaining tracks undecided stock per resource so that approved
	// requests always have a matching reservation.
	remaining := make(map[uint]int, len(resources))
	for _, r := range resources {
		remaining[r.ID] = r.Quantity
	}

	created := 0
	for i := 0; i < opts.NumRequests; i++ {
		victim := victims[rand.Intn(len(victims))]
		resource := resources[rand.Intn(len(resources))]

		quantity := 1 + rand.Intn(3)
		status := s.pickStatus(opts.ApproveRatio)
		if reservesStock(status) && remaining[resource.ID] < quantity {
			status = models.RequestStatusPending
		}

		if _, err := s.factory.CreateRequest(victim, resource, quantity, status); err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		if reservesStock(status) {
			remaining[resource.ID] -= quantity
		}
		created++
	}
	log.Printf("Created %d requests", created)

	// Flush the final stock positions and derived statuses.
	for _, resource := range resources {
		available := remaining[resource.ID]
		err := s.db.Model(&models.Resource{}).
			Where("id = ?", resource.ID).
			Updates(map[string]any{
				"available_quantity": available,
				"status":             models.DeriveResourceStatus(available, resource.Quantity),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to update resource stock: %w", err)
		}
	}

	return nil
}

func (s *Seeder) pickStatus(approveRatio float64) models.RequestStatus {
	if rand.Float64() >= approveRatio {
		if rand.Float64() < 0.5 {
			return models.RequestStatusPending
		}
		return models.RequestStatusRejected
	}
	switch rand.Intn(3) {
	case 0:
		return models.RequestStatusApproved
	case 1:
		return models.RequestStatusAllocated
	default:
		return models.RequestStatusCompleted
	}
}

// reservesStock reports whether a request in this state holds a reservation
// against its resource. Rejected requests seeded here never held one.
func reservesStock(status models.RequestStatus) bool {
	switch status {
	case models.RequestStatusApproved, models.RequestStatusAllocated, models.RequestStatusCompleted:
		return true
	}
	return false
}
