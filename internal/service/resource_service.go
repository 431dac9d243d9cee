package service

import (
	"context"
	"strings"

	"reliefhub/internal/models"
	"reliefhub/internal/repository"
)

// ResourceService owns the resource ledger: stock levels, derived status,
// and the provider-facing edits that must keep both consistent.
type ResourceService struct {
	resourceRepo repository.ResourceRepository
	userRepo     repository.UserRepository
}

type CreateResourceInput struct {
	Actor       Actor
	Title       string
	Description string
	Type        models.ResourceType
	Quantity    int
	Location    models.Location
}

type UpdateResourceInput struct {
	Actor       Actor
	ResourceID  uint
	Title       string
	Description string
	Location    *models.Location
}

type SetQuantityInput struct {
	Actor      Actor
	ResourceID uint
	Quantity   int
}

type SetStatusOverrideInput struct {
	Actor      Actor
	ResourceID uint
	// Status pins the resource to this status. Empty clears the pin and
	// recomputes from current stock.
	Status models.ResourceStatus
}

func NewResourceService(resourceRepo repository.ResourceRepository, userRepo repository.UserRepository) *ResourceService {
	return &ResourceService{resourceRepo: resourceRepo, userRepo: userRepo}
}

func (s *ResourceService) CreateResource(ctx context.Context, in CreateResourceInput) (*models.Resource, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if !models.ValidResourceType(in.Type) {
		return nil, models.NewValidationError("Invalid resource type")
	}
	if in.Quantity < 1 {
		return nil, models.NewValidationError("Quantity must be at least 1")
	}
	if in.Actor.Role != models.RoleVolunteer && !in.Actor.IsAdmin() {
		return nil, models.NewForbiddenError("Only volunteers or admins can provide resources")
	}

	resource := &models.Resource{
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		Type:              in.Type,
		Quantity:          in.Quantity,
		AvailableQuantity: in.Quantity,
		Status:            models.DeriveResourceStatus(in.Quantity, in.Quantity),
		Location:          in.Location,
		ProviderID:        in.Actor.ID,
	}
	if err := s.resourceRepo.Create(ctx, resource); err != nil {
		return nil, err
	}
	return resource, nil
}

func (s *ResourceService) GetResource(ctx context.Context, id uint) (*models.Resource, error) {
	return s.resourceRepo.GetByID(ctx, id)
}

func (s *ResourceService) ListResources(ctx context.Context, filter repository.ResourceFilter, limit, offset int) ([]models.Resource, error) {
	return s.resourceRepo.List(ctx, filter, limit, offset)
}

func (s *ResourceService) UpdateResource(ctx context.Context, in UpdateResourceInput) (*models.Resource, error) {
	resource, err := s.authorizeProvider(ctx, in.Actor, in.ResourceID)
	if err != nil {
		return nil, err
	}

	if in.Title != "" {
		resource.Title = strings.TrimSpace(in.Title)
	}
	if in.Description != "" {
		resource.Description = in.Description
	}
	if in.Location != nil {
		resource.Location = *in.Location
	}

	if err := s.resourceRepo.Update(ctx, resource); err != nil {
		return nil, err
	}
	return resource, nil
}

// SetQuantity changes the total stock of a resource. It is refused once any
// request is open against the resource, since rewriting the pool under live
// reservations would break the books.
func (s *ResourceService) SetQuantity(ctx context.Context, in SetQuantityInput) (*models.Resource, error) {
	if in.Quantity < 1 {
		return nil, models.NewValidationError("Quantity must be at least 1")
	}

	resource, err := s.authorizeProvider(ctx, in.Actor, in.ResourceID)
	if err != nil {
		return nil, err
	}

	open, err := s.resourceRepo.HasOpenRequests(ctx, in.ResourceID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, models.NewConflictError("Quantity cannot change while requests are open")
	}

	reserved := resource.Quantity - resource.AvailableQuantity
	if reserved < 0 {
		reserved = 0
	}
	if in.Quantity < reserved {
		return nil, models.NewValidationError("Quantity cannot drop below the reserved amount")
	}

	available := in.Quantity - reserved
	if err := s.resourceRepo.SetStock(ctx, in.ResourceID,
		resource.Quantity, resource.AvailableQuantity, in.Quantity, available); err != nil {
		return nil, err
	}

	resource.Quantity = in.Quantity
	resource.AvailableQuantity = available
	if !resource.StatusOverridden {
		resource.Status = models.DeriveResourceStatus(available, in.Quantity)
	}
	return resource, nil
}

func (s *ResourceService) SetStatusOverride(ctx context.Context, in SetStatusOverrideInput) (*models.Resource, error) {
	resource, err := s.authorizeProvider(ctx, in.Actor, in.ResourceID)
	if err != nil {
		return nil, err
	}

	if in.Status == "" {
		resource.StatusOverridden = false
		resource.Status = models.DeriveResourceStatus(resource.AvailableQuantity, resource.Quantity)
	} else {
		if !models.ValidResourceStatus(in.Status) {
			return nil, models.NewValidationError("Invalid resource status")
		}
		resource.StatusOverridden = true
		resource.Status = in.Status
	}

	if err := s.resourceRepo.Update(ctx, resource); err != nil {
		return nil, err
	}
	return resource, nil
}

func (s *ResourceService) DeleteResource(ctx context.Context, actor Actor, id uint) error {
	if _, err := s.authorizeProvider(ctx, actor, id); err != nil {
		return err
	}
	return s.resourceRepo.Delete(ctx, id)
}

func (s *ResourceService) authorizeProvider(ctx context.Context, actor Actor, resourceID uint) (*models.Resource, error) {
	resource, err := s.resourceRepo.GetByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.ID != resource.ProviderID {
		return nil, models.NewForbiddenError("Only the provider or an admin can modify this resource")
	}
	return resource, nil
}
