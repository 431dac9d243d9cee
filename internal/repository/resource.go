package repository

import (
	"context"
	"errors"

	"reliefhub/internal/cache"
	"reliefhub/internal/models"

	"gorm.io/gorm"
)

// ResourceFilter narrows List results. Zero values mean "no filter".
type ResourceFilter struct {
	Type       models.ResourceType
	Status     models.ResourceStatus
	ProviderID uint
}

// ResourceRepository defines persistence operations for resources,
// including the conditional stock updates the lifecycle engine relies on.
type ResourceRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Resource, error)
	Create(ctx context.Context, resource *models.Resource) error
	Update(ctx context.Context, resource *models.Resource) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter ResourceFilter, limit, offset int) ([]models.Resource, error)

	// Reserve atomically decrements available_quantity by quantity,
	// refusing the decrement when not enough stock remains.
	Reserve(ctx context.Context, tx *gorm.DB, id uint, quantity int) error
	// Release returns previously reserved stock, capped at quantity.
	Release(ctx context.Context, tx *gorm.DB, id uint, quantity int) error
	// SetStock rewrites the stock columns, but only while they still hold
	// the values the caller observed. A reservation committed in between
	// makes the write fail with a conflict instead of being overwritten.
	SetStock(ctx context.Context, id uint, observedQuantity, observedAvailable, quantity, available int) error

	HasOpenRequests(ctx context.Context, id uint) (bool, error)
}

type resourceRepository struct {
	db *gorm.DB
}

// NewResourceRepository returns a new ResourceRepository implementation.
func NewResourceRepository(db *gorm.DB) ResourceRepository {
	return &resourceRepository{db: db}
}

func (r *resourceRepository) GetByID(ctx context.Context, id uint) (*models.Resource, error) {
	var resource models.Resource
	key := cache.ResourceKey(id)

	err := cache.Aside(ctx, key, &resource, cache.ResourceTTL, func() error {
		if err := r.db.WithContext(ctx).Preload("Provider").First(&resource, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Resource", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &resource, nil
}

func (r *resourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	if err := r.db.WithContext(ctx).Create(resource).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Update persists the descriptive and status fields. The stock columns are
// left alone on purpose; quantity and available_quantity move only through
// Reserve, Release and SetStock, so a reservation committed between the
// caller's read and this write can never be clobbered.
func (r *resourceRepository) Update(ctx context.Context, resource *models.Resource) error {
	updates := map[string]interface{}{
		"title":              resource.Title,
		"description":        resource.Description,
		"location_latitude":  resource.Location.Latitude,
		"location_longitude": resource.Location.Longitude,
		"location_address":   resource.Location.Address,
		"status":             resource.Status,
		"status_overridden":  resource.StatusOverridden,
	}
	if err := r.db.WithContext(ctx).Model(&models.Resource{}).
		Where("id = ?", resource.ID).
		Updates(updates).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateResource(ctx, resource.ID)
	return nil
}

// Delete soft-deletes the resource. Resources with non-terminal requests
// against them cannot be removed.
func (r *resourceRepository) Delete(ctx context.Context, id uint) error {
	open, err := r.HasOpenRequests(ctx, id)
	if err != nil {
		return err
	}
	if open {
		return models.NewConflictError("Resource has open requests")
	}
	if err := r.db.WithContext(ctx).Delete(&models.Resource{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateResource(ctx, id)
	return nil
}

func (r *resourceRepository) List(ctx context.Context, filter ResourceFilter, limit, offset int) ([]models.Resource, error) {
	var resources []models.Resource
	q := r.db.WithContext(ctx).Preload("Provider")
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.ProviderID != 0 {
		q = q.Where("provider_id = ?", filter.ProviderID)
	}
	if err := q.Limit(limit).Offset(offset).Order("created_at DESC").Find(&resources).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return resources, nil
}

func (r *resourceRepository) Reserve(ctx context.Context, tx *gorm.DB, id uint, quantity int) error {
	if tx == nil {
		tx = r.db
	}
	res := tx.WithContext(ctx).Model(&models.Resource{}).
		Where("id = ? AND available_quantity >= ?", id, quantity).
		UpdateColumn("available_quantity", gorm.Expr("available_quantity - ?", quantity))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		// Either the resource is gone or stock ran out under us.
		var exists int64
		if err := tx.WithContext(ctx).Model(&models.Resource{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return models.NewInternalError(err)
		}
		if exists == 0 {
			return models.NewNotFoundError("Resource", id)
		}
		return models.NewInsufficientAvailabilityError(id, quantity)
	}
	if err := r.refreshDerivedStatus(ctx, tx, id); err != nil {
		return err
	}
	cache.InvalidateResource(ctx, id)
	return nil
}

func (r *resourceRepository) Release(ctx context.Context, tx *gorm.DB, id uint, quantity int) error {
	if tx == nil {
		tx = r.db
	}
	// Cap at quantity so a release can never push available past total.
	res := tx.WithContext(ctx).Model(&models.Resource{}).
		Where("id = ?", id).
		UpdateColumn("available_quantity", gorm.Expr(
			"CASE WHEN available_quantity + ? > quantity THEN quantity ELSE available_quantity + ? END",
			quantity, quantity,
		))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Resource", id)
	}
	if err := r.refreshDerivedStatus(ctx, tx, id); err != nil {
		return err
	}
	cache.InvalidateResource(ctx, id)
	return nil
}

func (r *resourceRepository) SetStock(ctx context.Context, id uint, observedQuantity, observedAvailable, quantity, available int) error {
	res := r.db.WithContext(ctx).Model(&models.Resource{}).
		Where("id = ? AND quantity = ? AND available_quantity = ?", id, observedQuantity, observedAvailable).
		UpdateColumns(map[string]interface{}{
			"quantity":           quantity,
			"available_quantity": available,
		})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&models.Resource{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return models.NewInternalError(err)
		}
		if exists == 0 {
			return models.NewNotFoundError("Resource", id)
		}
		return models.NewConflictError("Resource stock changed concurrently")
	}
	if err := r.refreshDerivedStatus(ctx, r.db, id); err != nil {
		return err
	}
	cache.InvalidateResource(ctx, id)
	return nil
}

// refreshDerivedStatus recomputes the availability status from the current
// quantities unless an admin pinned the status manually.
func (r *resourceRepository) refreshDerivedStatus(ctx context.Context, tx *gorm.DB, id uint) error {
	var resource models.Resource
	if err := tx.WithContext(ctx).Select("id", "quantity", "available_quantity", "status", "status_overridden").
		First(&resource, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	if resource.StatusOverridden {
		return nil
	}
	derived := models.DeriveResourceStatus(resource.AvailableQuantity, resource.Quantity)
	if derived == resource.Status {
		return nil
	}
	if err := tx.WithContext(ctx).Model(&models.Resource{}).
		Where("id = ?", id).
		UpdateColumn("status", derived).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *resourceRepository) HasOpenRequests(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Request{}).
		Where("resource_id = ? AND status NOT IN ?", id, []models.RequestStatus{
			models.RequestStatusCompleted,
			models.RequestStatusRejected,
		}).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
