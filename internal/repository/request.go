package repository

import (
	"context"
	"errors"

	"reliefhub/internal/models"

	"gorm.io/gorm"
)

// RequestFilter narrows List results. Zero values mean "no filter".
type RequestFilter struct {
	UserID     uint
	ResourceID uint
	// ProviderID scopes to requests against resources owned by this
	// provider, resolved via an indexed join rather than an in-memory scan.
	ProviderID uint
	Status     models.RequestStatus
	Priority   models.RequestPriority
}

// RequestRepository defines persistence operations for relief requests.
type RequestRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Request, error)
	Create(ctx context.Context, request *models.Request) error
	List(ctx context.Context, filter RequestFilter, limit, offset int) ([]models.Request, error)
	Delete(ctx context.Context, id uint) error

	// UpdateStatusCAS moves the request from `from` to `to` only if it is
	// still in `from`, reporting whether the swap won.
	UpdateStatusCAS(ctx context.Context, tx *gorm.DB, id uint, from, to models.RequestStatus, adminNotes string) (bool, error)

	// ApprovedCounts returns, per provider, how many requests against that
	// provider's resources have been approved (including later stages).
	ApprovedCounts(ctx context.Context, providerIDs []uint) (map[uint]int64, error)
}

type requestRepository struct {
	db *gorm.DB
}

// NewRequestRepository returns a new RequestRepository implementation.
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) GetByID(ctx context.Context, id uint) (*models.Request, error) {
	var request models.Request
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Resource").
		First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

func (r *requestRepository) Create(ctx context.Context, request *models.Request) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter, limit, offset int) ([]models.Request, error) {
	var requests []models.Request
	q := r.db.WithContext(ctx).Preload("User").Preload("Resource")
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.ResourceID != 0 {
		q = q.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.ProviderID != 0 {
		q = q.Joins("JOIN resources ON resources.id = requests.resource_id").
			Where("resources.provider_id = ?", filter.ProviderID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if err := q.Limit(limit).Offset(offset).Order("requests.created_at DESC").Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

// Delete removes a request. Completed requests are the audit trail of
// consumed stock and stay on record; only rejected ones may be deleted.
func (r *requestRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status = ?", id, models.RequestStatusRejected).
		Delete(&models.Request{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		var exists int64
		if err := r.db.WithContext(ctx).Model(&models.Request{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return models.NewInternalError(err)
		}
		if exists == 0 {
			return models.NewNotFoundError("Request", id)
		}
		return models.NewConflictError("Only rejected requests can be deleted")
	}
	return nil
}

func (r *requestRepository) UpdateStatusCAS(ctx context.Context, tx *gorm.DB, id uint, from, to models.RequestStatus, adminNotes string) (bool, error) {
	if tx == nil {
		tx = r.db
	}
	updates := map[string]interface{}{"status": to}
	if adminNotes != "" {
		updates["admin_notes"] = adminNotes
	}
	res := tx.WithContext(ctx).Model(&models.Request{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *requestRepository) ApprovedCounts(ctx context.Context, providerIDs []uint) (map[uint]int64, error) {
	if len(providerIDs) == 0 {
		return map[uint]int64{}, nil
	}

	type row struct {
		ProviderID uint
		Count      int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&models.Request{}).
		Select("resources.provider_id AS provider_id, COUNT(requests.id) AS count").
		Joins("JOIN resources ON resources.id = requests.resource_id").
		Where("resources.provider_id IN ? AND requests.status IN ?", providerIDs, []models.RequestStatus{
			models.RequestStatusApproved,
			models.RequestStatusAllocated,
			models.RequestStatusCompleted,
		}).
		Group("resources.provider_id").
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	counts := make(map[uint]int64, len(providerIDs))
	for _, id := range providerIDs {
		counts[id] = 0
	}
	for _, row := range rows {
		counts[row.ProviderID] = row.Count
	}
	return counts, nil
}
