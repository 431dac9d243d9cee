package service

import (
	"context"
	"errors"

	"reliefhub/internal/cache"
	"reliefhub/internal/middleware"
	"reliefhub/internal/models"
	"reliefhub/internal/repository"

	"gorm.io/gorm"
)

// Actor identifies who is performing a lifecycle operation.
type Actor struct {
	ID   uint
	Role models.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// OutcomeNotifier delivers the accepted/rejected message for a transition.
// Implementations must be non-blocking; a transition never waits on delivery.
type OutcomeNotifier interface {
	NotifyOutcome(ctx context.Context, user *models.User, request *models.Request, accepted bool)
}

// RequestService is the single entry point for creating relief requests and
// moving them through the status state machine.
type RequestService struct {
	db           *gorm.DB
	requestRepo  repository.RequestRepository
	resourceRepo repository.ResourceRepository
	userRepo     repository.UserRepository
	notifier     OutcomeNotifier
}

type CreateRequestInput struct {
	Actor      Actor
	UserID     uint // 0 means the actor requests for themselves
	ResourceID uint
	Quantity   int
	Priority   models.RequestPriority
	Message    string
}

type UpdateRequestStatusInput struct {
	Actor      Actor
	RequestID  uint
	NewStatus  models.RequestStatus
	AdminNotes string
}

type ListRequestsInput struct {
	Actor  Actor
	Filter repository.RequestFilter
	Limit  int
	Offset int
}

func NewRequestService(
	db *gorm.DB,
	requestRepo repository.RequestRepository,
	resourceRepo repository.ResourceRepository,
	userRepo repository.UserRepository,
	notifier OutcomeNotifier,
) *RequestService {
	return &RequestService{
		db:           db,
		requestRepo:  requestRepo,
		resourceRepo: resourceRepo,
		userRepo:     userRepo,
		notifier:     notifier,
	}
}

// legalTransitions is the forward-only status graph. A status never returns
// to pending, and rejected/completed are terminal.
var legalTransitions = map[models.RequestStatus][]models.RequestStatus{
	models.RequestStatusPending:   {models.RequestStatusApproved, models.RequestStatusRejected},
	models.RequestStatusApproved:  {models.RequestStatusAllocated, models.RequestStatusRejected},
	models.RequestStatusAllocated: {models.RequestStatusCompleted},
}

func transitionAllowed(from, to models.RequestStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *RequestService) CreateRequest(ctx context.Context, in CreateRequestInput) (*models.Request, error) {
	if in.Quantity < 1 {
		return nil, models.NewValidationError("Quantity must be at least 1")
	}

	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidRequestPriority(priority) {
		return nil, models.NewValidationError("Invalid priority")
	}

	userID := in.UserID
	if userID == 0 {
		userID = in.Actor.ID
	}
	if userID != in.Actor.ID && !in.Actor.IsAdmin() {
		return nil, models.NewForbiddenError("Only admins can file requests on behalf of others")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleVictim {
		return nil, models.NewValidationError("Requests can only be filed for victims")
	}

	resource, err := s.resourceRepo.GetByID(ctx, in.ResourceID)
	if err != nil {
		return nil, err
	}
	if resource.Status == models.ResourceStatusUnavailable {
		return nil, models.NewValidationError("Resource is currently unavailable")
	}

	// No reservation here. Competing pending requests may together exceed
	// availability; scarcity is resolved at approval time.
	request := &models.Request{
		UserID:            userID,
		ResourceID:        in.ResourceID,
		QuantityRequested: in.Quantity,
		Priority:          priority,
		Status:            models.RequestStatusPending,
		Message:           in.Message,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	return s.requestRepo.GetByID(ctx, request.ID)
}

// UpdateStatus moves a request to newStatus. The status swap and any stock
// movement commit in one transaction, so a failed reservation leaves the
// request untouched. The outcome notification is scheduled only after the
// transaction commits.
func (s *RequestService) UpdateStatus(ctx context.Context, in UpdateRequestStatusInput) (*models.Request, error) {
	if !models.ValidRequestStatus(in.NewStatus) {
		return nil, models.NewValidationError("Unknown request status")
	}

	request, err := s.requestRepo.GetByID(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	if request.Resource == nil {
		return nil, models.NewInternalError(errors.New("request is missing its resource"))
	}

	if !in.Actor.IsAdmin() && in.Actor.ID != request.Resource.ProviderID {
		return nil, models.NewForbiddenError("Only the resource provider or an admin can update this request")
	}

	from := request.Status
	to := in.NewStatus
	if from == to {
		return nil, models.NewInvalidTransitionError(from, to)
	}
	if !transitionAllowed(from, to) {
		return nil, models.NewInvalidTransitionError(from, to)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		won, casErr := s.requestRepo.UpdateStatusCAS(ctx, tx, request.ID, from, to, in.AdminNotes)
		if casErr != nil {
			return casErr
		}
		if !won {
			return models.NewConflictError("Request status changed concurrently")
		}

		switch {
		case from == models.RequestStatusPending && to == models.RequestStatusApproved:
			if resErr := s.resourceRepo.Reserve(ctx, tx, request.ResourceID, request.QuantityRequested); resErr != nil {
				return resErr
			}
		case from == models.RequestStatusApproved && to == models.RequestStatusRejected:
			// Late rejection, return the reserved stock.
			if relErr := s.resourceRepo.Release(ctx, tx, request.ResourceID, request.QuantityRequested); relErr != nil {
				return relErr
			}
		}
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeInsufficientAvail {
			middleware.ReservationConflicts.Inc()
		}
		return nil, err
	}

	middleware.RequestTransitions.WithLabelValues(string(to)).Inc()
	cache.InvalidateVolunteers(ctx)

	request.Status = to
	if in.AdminNotes != "" {
		request.AdminNotes = in.AdminNotes
	}

	// Exactly one dispatch per transition into approved or rejected. The
	// recipient comes from the pre-transition read, so the dispatch happens
	// even if the re-read below fails.
	if s.notifier != nil && request.User != nil {
		switch to {
		case models.RequestStatusApproved:
			s.notifier.NotifyOutcome(ctx, request.User, request, true)
		case models.RequestStatusRejected:
			s.notifier.NotifyOutcome(ctx, request.User, request, false)
		}
	}

	updated, err := s.requestRepo.GetByID(ctx, request.ID)
	if err != nil {
		// The transition is committed; serve the local copy rather than
		// reporting a failure for work that succeeded.
		return request, nil
	}
	return updated, nil
}

func (s *RequestService) GetRequest(ctx context.Context, id uint) (*models.Request, error) {
	return s.requestRepo.GetByID(ctx, id)
}

// ListRequests scopes results to what the actor may see: victims get their
// own requests, volunteers the requests against their resources, admins all.
func (s *RequestService) ListRequests(ctx context.Context, in ListRequestsInput) ([]models.Request, error) {
	filter := in.Filter
	switch in.Actor.Role {
	case models.RoleAdmin:
		// unrestricted
	case models.RoleVictim:
		filter.UserID = in.Actor.ID
	case models.RoleVolunteer:
		filter.ProviderID = in.Actor.ID
	default:
		return nil, models.NewForbiddenError("Unknown role")
	}
	return s.requestRepo.List(ctx, filter, in.Limit, in.Offset)
}

// DeleteRequest removes a rejected request. Requests in flight, and completed
// ones, are the audit trail for stock movements and cannot be deleted.
func (s *RequestService) DeleteRequest(ctx context.Context, actor Actor, id uint) error {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && actor.ID != request.UserID {
		return models.NewForbiddenError("Only the requester or an admin can delete this request")
	}
	return s.requestRepo.Delete(ctx, id)
}
