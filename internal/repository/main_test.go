package repository

import (
	"testing"

	"reliefhub/internal/database"
	"reliefhub/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a fresh in-memory database with the schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.ConnectForTesting()
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, db *gorm.DB, role models.Role, email string) *models.User {
	t.Helper()
	user := &models.User{
		Name:     "Test " + string(role),
		Email:    email,
		Password: "hashed",
		Role:     role,
		Phone:    "9876543210",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedResource(t *testing.T, db *gorm.DB, providerID uint, quantity, available int) *models.Resource {
	t.Helper()
	resource := &models.Resource{
		Title:             "Water Bottles",
		Type:              models.ResourceTypeFood,
		Quantity:          quantity,
		AvailableQuantity: available,
		Status:            models.DeriveResourceStatus(available, quantity),
		ProviderID:        providerID,
	}
	require.NoError(t, db.Create(resource).Error)
	return resource
}

func seedRequest(t *testing.T, db *gorm.DB, userID, resourceID uint, qty int, status models.RequestStatus) *models.Request {
	t.Helper()
	request := &models.Request{
		UserID:            userID,
		ResourceID:        resourceID,
		QuantityRequested: qty,
		Priority:          models.PriorityMedium,
		Status:            status,
	}
	require.NoError(t, db.Create(request).Error)
	return request
}
