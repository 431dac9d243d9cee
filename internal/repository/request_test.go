package repository

import (
	"context"
	"testing"

	"reliefhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRepository_UpdateStatusCAS(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRequestRepository(db)

	provider := seedUser(t, db, models.RoleVolunteer, "provider@example.com")
	victim := seedUser(t, db, models.RoleVictim, "victim@example.com")
	resource := seedResource(t, db, provider.ID, 10, 10)
	request := seedRequest(t, db, victim.ID, resource.ID, 2, models.RequestStatusPending)

	t.Run("wins when status matches", func(t *testing.T) {
		ok, err := repo.UpdateStatusCAS(ctx, nil, request.ID, models.RequestStatusPending, models.RequestStatusApproved, "stock confirmed")
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := repo.GetByID(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusApproved, got.Status)
		assert.Equal(t, "stock confirmed", got.AdminNotes)
	})

	t.Run("loses when status moved on", func(t *testing.T) {
		ok, err := repo.UpdateStatusCAS(ctx, nil, request.ID, models.RequestStatusPending, models.RequestStatusRejected, "")
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := repo.GetByID(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusApproved, got.Status, "losing swap must not modify the row")
	})

	t.Run("empty notes leave prior notes intact", func(t *testing.T) {
		ok, err := repo.UpdateStatusCAS(ctx, nil, request.ID, models.RequestStatusApproved, models.RequestStatusAllocated, "")
		require.NoError(t, err)
		assert.True(t, ok)

		got, err := repo.GetByID(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, "stock confirmed", got.AdminNotes)
	})
}

func TestRequestRepository_GetByID_Preloads(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRequestRepository(db)

	provider := seedUser(t, db, models.RoleVolunteer, "provider@example.com")
	victim := seedUser(t, db, models.RoleVictim, "victim@example.com")
	resource := seedResource(t, db, provider.ID, 10, 10)
	request := seedRequest(t, db, victim.ID, resource.ID, 2, models.RequestStatusPending)

	got, err := repo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	require.NotNil(t, got.User)
	require.NotNil(t, got.Resource)
	assert.Equal(t, victim.Email, got.User.Email)
	assert.Equal(t, resource.Title, got.Resource.Title)

	_, err = repo.GetByID(ctx, 999)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestRequestRepository_List_Filters(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRequestRepository(db)

	provider := seedUser(t, db, models.RoleVolunteer, "provider@example.com")
	victimA := seedUser(t, db, models.RoleVictim, "a@example.com")
	victimB := seedUser(t, db, models.RoleVictim, "b@example.com")
	resource := seedResource(t, db, provider.ID, 10, 10)

	seedRequest(t, db, victimA.ID, resource.ID, 1, models.RequestStatusPending)
	seedRequest(t, db, victimA.ID, resource.ID, 2, models.RequestStatusApproved)
	seedRequest(t, db, victimB.ID, resource.ID, 3, models.RequestStatusPending)

	byUser, err := repo.List(ctx, RequestFilter{UserID: victimA.ID}, 20, 0)
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	byStatus, err := repo.List(ctx, RequestFilter{Status: models.RequestStatusPending}, 20, 0)
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	combined, err := repo.List(ctx, RequestFilter{UserID: victimB.ID, Status: models.RequestStatusApproved}, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, combined)
}

func TestRequestRepository_Delete_RejectedOnly(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRequestRepository(db)

	provider := seedUser(t, db, models.RoleVolunteer, "provider@example.com")
	victim := seedUser(t, db, models.RoleVictim, "victim@example.com")
	resource := seedResource(t, db, provider.ID, 10, 10)

	pending := seedRequest(t, db, victim.ID, resource.ID, 1, models.RequestStatusPending)
	completed := seedRequest(t, db, victim.ID, resource.ID, 1, models.RequestStatusCompleted)
	rejected := seedRequest(t, db, victim.ID, resource.ID, 1, models.RequestStatusRejected)

	err := repo.Delete(ctx, pending.ID)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)

	// Completed requests record consumed stock and stay on the books.
	err = repo.Delete(ctx, completed.ID)
	require.Error(t, err)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)

	require.NoError(t, repo.Delete(ctx, rejected.ID))

	err = repo.Delete(ctx, 999)
	require.Error(t, err)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestRequestRepository_ApprovedCounts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewRequestRepository(db)

	alice := seedUser(t, db, models.RoleVolunteer, "alice@example.com")
	bob := seedUser(t, db, models.RoleVolunteer, "bob@example.com")
	victim := seedUser(t, db, models.RoleVictim, "victim@example.com")

	aliceRes := seedResource(t, db, alice.ID, 20, 20)
	bobRes := seedResource(t, db, bob.ID, 20, 20)

	// Alice: one approved, one completed, one pending (pending must not count).
	seedRequest(t, db, victim.ID, aliceRes.ID, 1, models.RequestStatusApproved)
	seedRequest(t, db, victim.ID, aliceRes.ID, 1, models.RequestStatusCompleted)
	seedRequest(t, db, victim.ID, aliceRes.ID, 1, models.RequestStatusPending)
	// Bob: one rejected only.
	seedRequest(t, db, victim.ID, bobRes.ID, 1, models.RequestStatusRejected)

	counts, err := repo.ApprovedCounts(ctx, []uint{alice.ID, bob.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[alice.ID])
	assert.Equal(t, int64(0), counts[bob.ID], "providers with no approvals still appear with zero")

	empty, err := repo.ApprovedCounts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
