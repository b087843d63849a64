package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/webbiemuchy/agrimarket/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points the package-level DB at a fresh in-memory sqlite
// database for the duration of one test.
func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	prev := DB
	DB = db
	t.Cleanup(func() { DB = prev })
}

func createTestUser(t *testing.T, firstName, lastName, userType string) *models.User {
	t.Helper()
	user := &models.User{
		Email:     firstName + "." + lastName + "@example.com",
		Password:  "hash",
		FirstName: firstName,
		LastName:  lastName,
		UserType:  userType,
		IsActive:  true,
	}
	require.NoError(t, CreateUser(user))
	return user
}

func createTestProject(t *testing.T, farmer *models.User, title string) *models.Project {
	t.Helper()
	project := &models.Project{
		FarmerID: farmer.ID,
		Title:    title,
		Status:   models.ProjectStatusApproved,
	}
	require.NoError(t, CreateProject(project))
	return project
}
