package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"reliefhub/internal/database"
	"reliefhub/internal/models"
	"reliefhub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// countingNotifier records every dispatch so tests can assert the
// exactly-once rule.
type countingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

type notifyCall struct {
	userID    uint
	requestID uint
	accepted  bool
}

func (n *countingNotifier) NotifyOutcome(_ context.Context, user *models.User, request *models.Request, accepted bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{userID: user.ID, requestID: request.ID, accepted: accepted})
}

func (n *countingNotifier) callsFor(requestID uint) []notifyCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notifyCall
	for _, c := range n.calls {
		if c.requestID == requestID {
			out = append(out, c)
		}
	}
	return out
}

type lifecycleFixture struct {
	db       *gorm.DB
	svc      *RequestService
	notifier *countingNotifier
	admin    *models.User
	provider *models.User
	victim   *models.User
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	db, err := database.ConnectForTesting()
	require.NoError(t, err)

	notifier := &countingNotifier{}
	svc := NewRequestService(
		db,
		repository.NewRequestRepository(db),
		repository.NewResourceRepository(db),
		repository.NewUserRepository(db),
		notifier,
	)

	f := &lifecycleFixture{db: db, svc: svc, notifier: notifier}
	f.admin = f.seedUser(t, models.RoleAdmin, "admin@example.com")
	f.provider = f.seedUser(t, models.RoleVolunteer, "provider@example.com")
	f.victim = f.seedUser(t, models.RoleVictim, "victim@example.com")
	return f
}

func (f *lifecycleFixture) seedUser(t *testing.T, role models.Role, email string) *models.User {
	t.Helper()
	user := &models.User{
		Name:     "Test " + string(role),
		Email:    email,
		Password: "hashed",
		Role:     role,
		Phone:    "9876543210",
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *lifecycleFixture) seedResource(t *testing.T, quantity int) *models.Resource {
	t.Helper()
	resource := &models.Resource{
		Title:             "Blankets",
		Type:              models.ResourceTypeShelter,
		Quantity:          quantity,
		AvailableQuantity: quantity,
		Status:            models.DeriveResourceStatus(quantity, quantity),
		ProviderID:        f.provider.ID,
	}
	require.NoError(t, f.db.Create(resource).Error)
	return resource
}

func (f *lifecycleFixture) providerActor() Actor { return Actor{ID: f.provider.ID, Role: models.RoleVolunteer} }
func (f *lifecycleFixture) adminActor() Actor    { return Actor{ID: f.admin.ID, Role: models.RoleAdmin} }
func (f *lifecycleFixture) victimActor() Actor   { return Actor{ID: f.victim.ID, Role: models.RoleVictim} }

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestRequestService_CreateRequest(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	resource := f.seedResource(t, 10)

	t.Run("victim files own request", func(t *testing.T) {
		req, err := f.svc.CreateRequest(ctx, CreateRequestInput{
			Actor:      f.victimActor(),
			ResourceID: resource.ID,
			Quantity:   3,
			Message:    "family of four",
		})
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusPending, req.Status)
		assert.Equal(t, models.PriorityMedium, req.Priority, "priority defaults to medium")

		// No reservation on create.
		var got models.Resource
		require.NoError(t, f.db.First(&got, resource.ID).Error)
		assert.Equal(t, 10, got.AvailableQuantity)
	})

	t.Run("admin files on behalf of victim", func(t *testing.T) {
		req, err := f.svc.CreateRequest(ctx, CreateRequestInput{
			Actor:      f.adminActor(),
			UserID:     f.victim.ID,
			ResourceID: resource.ID,
			Quantity:   1,
			Priority:   models.PriorityCritical,
		})
		require.NoError(t, err)
		assert.Equal(t, f.victim.ID, req.UserID)
		assert.Equal(t, models.PriorityCritical, req.Priority)
	})

	t.Run("victim cannot file for someone else", func(t *testing.T) {
		_, err := f.svc.CreateRequest(ctx, CreateRequestInput{
			Actor:      f.victimActor(),
			UserID:     f.provider.ID,
			ResourceID: resource.ID,
			Quantity:   1,
		})
		assertAppErrorCode(t, err, models.CodeForbidden)
	})

	t.Run("quantity below one", func(t *testing.T) {
		_, err := f.svc.CreateRequest(ctx, CreateRequestInput{
			Actor:      f.victimActor(),
			ResourceID: resource.ID,
			Quantity:   0,
		})
		assertAppErrorCode(t, err, models.CodeValidation)
	})

	t.Run("invalid priority", func(t *testing.T) {
		_, err := f.svc.CreateRequest(ctx, CreateRequestInput{
			Actor:      f.victimActor(),
			ResourceID: resource.ID,
			Quantity:   1,
			Priority:   "urgent",
		})
		assertAppErrorCode(t, err, models.CodeValidation)
	})

	t.Run("non-victim target", func(t *testing.T) {
		_, err := f.svc.CreateRequest(ctx, CreateRequestInput{
			Actor:      f.adminActor(),
			UserID:     f.provider.ID,
			ResourceID: resource.ID,
			Quantity:   1,
		})
		assertAppErrorCode(t, err, models.CodeValidation)
	})

	t.Run("unknown resource", func(t *testing.T) {
		_, err := f.svc.CreateRequest(ctx, CreateRequestInput{
			Actor:      f.victimActor(),
			ResourceID: 999,
			Quantity:   1,
		})
		assertAppErrorCode(t, err, models.CodeNotFound)
	})

	t.Run("unavailable resource", func(t *testing.T) {
		drained := f.seedResource(t, 5)
		require.NoError(t, f.db.Model(drained).Updates(map[string]interface{}{
			"available_quantity": 0,
			"status":             models.ResourceStatusUnavailable,
		}).Error)

		_, err := f.svc.CreateRequest(ctx, CreateRequestInput{
			Actor:      f.victimActor(),
			ResourceID: drained.ID,
			Quantity:   1,
		})
		assertAppErrorCode(t, err, models.CodeValidation)
	})
}

func TestRequestService_UpdateStatus_ApproveFlow(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	resource := f.seedResource(t, 10)

	req, err := f.svc.CreateRequest(ctx, CreateRequestInput{
		Actor:      f.victimActor(),
		ResourceID: resource.ID,
		Quantity:   4,
	})
	require.NoError(t, err)

	// pending -> approved reserves stock and notifies once.
	approved, err := f.svc.UpdateStatus(ctx, UpdateRequestStatusInput{
		Actor:      f.providerActor(),
		RequestID:  req.ID,
		NewStatus:  models.RequestStatusApproved,
		AdminNotes: "pickup at shelter 3",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, approved.Status)
	assert.Equal(t, "pickup at shelter 3", approved.AdminNotes)

	var got models.Resource
	require.NoError(t, f.db.First(&got, resource.ID).Error)
	assert.Equal(t, 6, got.AvailableQuantity)

	calls := f.notifier.callsFor(req.ID)
	require.Len(t, calls, 1)
	assert.True(t, calls[0].accepted)
	assert.Equal(t, f.victim.ID, calls[0].userID)

	// approved -> allocated keeps the ledger and stays silent.
	allocated, err := f.svc.UpdateStatus(ctx, UpdateRequestStatusInput{
		Actor:     f.providerActor(),
		RequestID: req.ID,
		NewStatus: models.RequestStatusAllocated,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusAllocated, allocated.Status)

	require.NoError(t, f.db.First(&got, resource.ID).Error)
	assert.Equal(t, 6, got.AvailableQuantity)
	assert.Len(t, f.notifier.callsFor(req.ID), 1)

	// allocated -> completed, still silent, still no ledger change.
	completed, err := f.svc.UpdateStatus(ctx, UpdateRequestStatusInput{
		Actor:     f.adminActor(),
		RequestID: req.ID,
		NewStatus: models.RequestStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusCompleted, completed.Status)
	assert.Len(t, f.notifier.callsFor(req.ID), 1)

	// Terminal: nothing moves out of completed.
	_, err = f.svc.UpdateStatus(ctx, UpdateRequestStatusInput{
		Actor:     f.adminActor(),
		RequestID: req.ID,
		NewStatus: models.RequestStatusRejected,
	})
	assertAppErrorCode(t, err, models.CodeInvalidTransition)
}

func TestRequestService_UpdateStatus_RejectFromPending(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	resource := f.seedResource(t, 10)

	req, err := f.svc.CreateRequest(ctx, CreateRequestInput{
		Actor:      f.victimActor(),
		ResourceID: resource.ID,
		Quantity:   4,
	})
	require.NoError(t, err)

	rejected, err := f.svc.UpdateStatus(ctx, UpdateRequestStatusInput{
		Actor:     f.providerActor(),
		RequestID: req.ID,
		NewStatus: models.RequestStatusRejected,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, rejected.Status)

	// Nothing was reserved, nothing moves.
	var got models.Resource
	require.NoError(t, f.db.First(&got, resource.ID).Error)
	assert.Equal(t, 10, got.AvailableQuantity)

	calls := f.notifier.callsFor(req.ID)
	require.Len(t, calls, 1)
	assert.False(t, calls[0].accepted)
}

func TestRequestService_UpdateStatus_LateRejectionReleasesStock(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	resource := f.seedResource(t, 10)

	req, err := f.svc.CreateRequest(ctx, CreateRequestInput{
		Actor:      f.victimActor(),
		ResourceID: resource.ID,
		Quantity:   4,
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, UpdateRequestStatusInput{
		Actor:     f.providerActor(),
		RequestID: req.ID,
		NewStatus: models.RequestStatusApproved,
	})
	require.NoError(t, err)

	rejected, err := f.svc.UpdateStatus(ctx, UpdateRequestStatusInput{
		Actor:     f.providerActor(),
		RequestID: req.ID,
		NewStatus: models.RequestStatusRejected,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, rejected.Status)

	var got models.Resource
	require.NoError(t, f.db.First(&got, resource.ID).Error)
	assert.Equal(t, 10, got.AvailableQuantity, "late rejection returns the reservation")

	// One accepted and one rejected dispatch, one per transition.
	calls := f.notifier.callsFor(req.ID)
	require.Len(t, calls, 2)
	assert.True(t, calls[0].accepted)
	assert.False(t, calls[1].accepted)
}

func TestRequestService_UpdateStatus_Guards(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	resource := f.seedResource(t, 10)

	req, err := f.svc.CreateRequest(ctx, CreateRequestInput{
		Actor:      f.victimActor(),
		ResourceID: resource.ID,
		Quantity:   1,
	})
	require.NoError(t, err)

	t.Run("victim cannot transition", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, UpdateRequestStatusInput{
			Actor:     f.victimActor(),
			RequestID: req.ID,
			NewStatus: models.RequestStatusApproved,
		})
		assertAppErrorCode(t, err, models.CodeForbidden)
	})

	t.Run("other volunteer cannot transition", func(t *testing.T) {
		other := f.seedUser(t, models.RoleVolunteer, "other@example.com")
		_, err := f.svc.UpdateStatus(ctx, UpdateRequestStatusInput{
			Actor:     Actor{ID: other.ID, Role: models.RoleVolunteer},
			RequestID: req.ID,
			NewStatus: models.RequestStatusApproved,
		})
		assertAppErrorCode(t, err, models.CodeForbidden)
	})

	t.Run("unknown status literal", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, UpdateRequestStatusInput{
			Actor:     f.providerActor(),
			RequestID: req.ID,
			NewStatus: "fulfilled",
		})
		assertAppErrorCode(t, err, models.CodeValidation)
	})

	t.Run("pending cannot jump to completed", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, UpdateRequestStatusInput{
			Actor:     f.providerActor(),
			RequestID: req.ID,
			NewStatus: models.RequestStatusCompleted,
		})
		assertAppErrorCode(t, err, models.CodeInvalidTransition)
	})

	t.Run("no re-entering pending", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, UpdateRequestStatusInput{
			Actor:     f.providerActor(),
			RequestID: req.ID,
			NewStatus: models.RequestStatusPending,
		})
		assertAppErrorCode(t, err, models.CodeInvalidTransition)
	})

	t.Run("no notification on failed transition", func(t *testing.T) {
		assert.Empty(t, f.notifier.callsFor(req.ID))
	})
}

// Two approvals compete for the last unit. The loser must fail with
// insufficient availability and its request must stay pending for a retry
// or rejection.
func TestRequestService_UpdateStatus_ApprovalContention(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	resource := f.seedResource(t, 1)

	first, err := f.svc.CreateRequest(ctx, CreateRequestInput{
		Actor:      f.victimActor(),
		ResourceID: resource.ID,
		Quantity:   1,
	})
	require.NoError(t, err)

	second, err := f.svc.CreateRequest(ctx, CreateRequestInput{
		Actor:      f.victimActor(),
		ResourceID: resource.ID,
		Quantity:   1,
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, UpdateRequestStatusInput{
		Actor:     f.providerActor(),
		RequestID: first.ID,
		NewStatus: models.RequestStatusApproved,
	})
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, UpdateRequestStatusInput{
		Actor:     f.providerActor(),
		RequestID: second.ID,
		NewStatus: models.RequestStatusApproved,
	})
	assertAppErrorCode(t, err, models.CodeInsufficientAvail)

	// Loser is untouched and retryable.
	loser, err := f.svc.GetRequest(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, loser.Status)
	assert.Empty(t, f.notifier.callsFor(second.ID))

	var got models.Resource
	require.NoError(t, f.db.First(&got, resource.ID).Error)
	assert.Equal(t, 0, got.AvailableQuantity)
	assert.Equal(t, models.ResourceStatusUnavailable, got.Status)

	// The provider rejects the loser instead.
	_, err = f.svc.UpdateStatus(ctx, UpdateRequestStatusInput{
		Actor:     f.providerActor(),
		RequestID: second.ID,
		NewStatus: models.RequestStatusRejected,
	})
	require.NoError(t, err)

	// Rejecting a never-reserved request releases nothing.
	require.NoError(t, f.db.First(&got, resource.ID).Error)
	assert.Equal(t, 0, got.AvailableQuantity)
}

func TestRequestService_ListRequests_Scoping(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	resource := f.seedResource(t, 10)

	otherProvider := f.seedUser(t, models.RoleVolunteer, "other@example.com")
	otherResource := &models.Resource{
		Title:             "Rations",
		Type:              models.ResourceTypeFood,
		Quantity:          10,
		AvailableQuantity: 10,
		Status:            models.ResourceStatusAvailable,
		ProviderID:        otherProvider.ID,
	}
	require.NoError(t, f.db.Create(otherResource).Error)

	_, err := f.svc.CreateRequest(ctx, CreateRequestInput{
		Actor: f.victimActor(), ResourceID: resource.ID, Quantity: 1,
	})
	require.NoError(t, err)
	_, err = f.svc.CreateRequest(ctx, CreateRequestInput{
		Actor: f.victimActor(), ResourceID: otherResource.ID, Quantity: 1,
	})
	require.NoError(t, err)

	all, err := f.svc.ListRequests(ctx, ListRequestsInput{Actor: f.adminActor(), Limit: 20})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.svc.ListRequests(ctx, ListRequestsInput{Actor: f.victimActor(), Limit: 20})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	owned, err := f.svc.ListRequests(ctx, ListRequestsInput{Actor: f.providerActor(), Limit: 20})
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, resource.ID, owned[0].ResourceID)
}

func TestRequestService_DeleteRequest(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	resource := f.seedResource(t, 10)

	req, err := f.svc.CreateRequest(ctx, CreateRequestInput{
		Actor: f.victimActor(), ResourceID: resource.ID, Quantity: 1,
	})
	require.NoError(t, err)

	t.Run("stranger cannot delete", func(t *testing.T) {
		err := f.svc.DeleteRequest(ctx, f.providerActor(), req.ID)
		assertAppErrorCode(t, err, models.CodeForbidden)
	})

	t.Run("non-terminal blocked", func(t *testing.T) {
		err := f.svc.DeleteRequest(ctx, f.victimActor(), req.ID)
		assertAppErrorCode(t, err, models.CodeConflict)
	})

	t.Run("terminal deletable by owner", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, UpdateRequestStatusInput{
			Actor: f.providerActor(), RequestID: req.ID, NewStatus: models.RequestStatusRejected,
		})
		require.NoError(t, err)
		require.NoError(t, f.svc.DeleteRequest(ctx, f.victimActor(), req.ID))
	})
}

// rereadFailingRepo delegates to a real repository but fails every GetByID
// after the first, mimicking a read failure once the transition committed.
type rereadFailingRepo struct {
	repository.RequestRepository
	mu    sync.Mutex
	reads int
}

func (r *rereadFailingRepo) GetByID(ctx context.Context, id uint) (*models.Request, error) {
	r.mu.Lock()
	r.reads++
	n := r.reads
	r.mu.Unlock()
	if n > 1 {
		return nil, models.NewInternalError(errors.New("read replica down"))
	}
	return r.RequestRepository.GetByID(ctx, id)
}

func TestRequestService_UpdateStatus_NotifiesWhenRereadFails(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	resource := f.seedResource(t, 10)

	req, err := f.svc.CreateRequest(ctx, CreateRequestInput{
		Actor: f.victimActor(), ResourceID: resource.ID, Quantity: 3,
	})
	require.NoError(t, err)

	svc := NewRequestService(
		f.db,
		&rereadFailingRepo{RequestRepository: repository.NewRequestRepository(f.db)},
		repository.NewResourceRepository(f.db),
		repository.NewUserRepository(f.db),
		f.notifier,
	)

	updated, err := svc.UpdateStatus(ctx, UpdateRequestStatusInput{
		Actor: f.providerActor(), RequestID: req.ID, NewStatus: models.RequestStatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, updated.Status)

	calls := f.notifier.callsFor(req.ID)
	require.Len(t, calls, 1, "the committed approval must still notify")
	assert.True(t, calls[0].accepted)
	assert.Equal(t, f.victim.ID, calls[0].userID)

	var persisted models.Request
	require.NoError(t, f.db.First(&persisted, req.ID).Error)
	assert.Equal(t, models.RequestStatusApproved, persisted.Status)

	var stock models.Resource
	require.NoError(t, f.db.First(&stock, resource.ID).Error)
	assert.Equal(t, 7, stock.AvailableQuantity)
}
