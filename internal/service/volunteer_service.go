package service

import (
	"context"

	"reliefhub/internal/cache"
	"reliefhub/internal/models"
	"reliefhub/internal/repository"
)

// VolunteerService aggregates read-only volunteer metrics.
type VolunteerService struct {
	userRepo    repository.UserRepository
	requestRepo repository.RequestRepository
}

func NewVolunteerService(userRepo repository.UserRepository, requestRepo repository.RequestRepository) *VolunteerService {
	return &VolunteerService{userRepo: userRepo, requestRepo: requestRepo}
}

// listCap bounds the volunteer listing, it is a dashboard view, not an export.
const listCap = 500

// ListVolunteers returns every volunteer annotated with how many requests
// against their resources have been approved. The whole listing is cached as
// one unit and invalidated on any counted transition.
func (s *VolunteerService) ListVolunteers(ctx context.Context) ([]models.VolunteerProfile, error) {
	var profiles []models.VolunteerProfile

	err := cache.Aside(ctx, cache.VolunteersKey(), &profiles, cache.VolunteersTTL, func() error {
		volunteers, err := s.userRepo.ListByRole(ctx, models.RoleVolunteer, listCap, 0)
		if err != nil {
			return err
		}

		ids := make([]uint, len(volunteers))
		for i, v := range volunteers {
			ids[i] = v.ID
		}
		counts, err := s.requestRepo.ApprovedCounts(ctx, ids)
		if err != nil {
			return err
		}

		profiles = make([]models.VolunteerProfile, len(volunteers))
		for i, v := range volunteers {
			profiles[i] = models.VolunteerProfile{
				User:          v,
				ApprovedCount: counts[v.ID],
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// ApprovedCounts exposes the raw per-provider counts.
func (s *VolunteerService) ApprovedCounts(ctx context.Context, volunteerIDs []uint) (map[uint]int64, error) {
	return s.requestRepo.ApprovedCounts(ctx, volunteerIDs)
}
