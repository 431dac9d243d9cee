package service

import (
	"context"
	"testing"

	"reliefhub/internal/models"
	"reliefhub/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The canonical metrics scenario: V1 has one approved and one pending
// request against their resources, V2 has one approved. Counts must be
// {V1: 1, V2: 1} and pending must not count.
func TestVolunteerService_ApprovedCounts(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	svc := NewVolunteerService(
		repository.NewUserRepository(f.db),
		repository.NewRequestRepository(f.db),
	)

	v2 := f.seedUser(t, models.RoleVolunteer, "v2@example.com")

	v1Res := f.seedResource(t, 10)
	v2Res := &models.Resource{
		Title:             "Medicine",
		Type:              models.ResourceTypeMedical,
		Quantity:          10,
		AvailableQuantity: 10,
		Status:            models.ResourceStatusAvailable,
		ProviderID:        v2.ID,
	}
	require.NoError(t, f.db.Create(v2Res).Error)

	mkRequest := func(resourceID uint, status models.RequestStatus) {
		require.NoError(t, f.db.Create(&models.Request{
			UserID:            f.victim.ID,
			ResourceID:        resourceID,
			QuantityRequested: 1,
			Priority:          models.PriorityMedium,
			Status:            status,
		}).Error)
	}
	mkRequest(v1Res.ID, models.RequestStatusApproved)
	mkRequest(v1Res.ID, models.RequestStatusPending)
	mkRequest(v2Res.ID, models.RequestStatusApproved)

	counts, err := svc.ApprovedCounts(ctx, []uint{f.provider.ID, v2.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[f.provider.ID])
	assert.Equal(t, int64(1), counts[v2.ID])
}

func TestVolunteerService_ListVolunteers(t *testing.T) {
	ctx := context.Background()
	f := newLifecycleFixture(t)
	svc := NewVolunteerService(
		repository.NewUserRepository(f.db),
		repository.NewRequestRepository(f.db),
	)

	resource := f.seedResource(t, 10)
	require.NoError(t, f.db.Create(&models.Request{
		UserID:            f.victim.ID,
		ResourceID:        resource.ID,
		QuantityRequested: 2,
		Priority:          models.PriorityMedium,
		Status:            models.RequestStatusCompleted,
	}).Error)

	profiles, err := svc.ListVolunteers(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 1, "admins and victims are excluded")
	assert.Equal(t, f.provider.ID, profiles[0].ID)
	assert.Equal(t, int64(1), profiles[0].ApprovedCount)
}
