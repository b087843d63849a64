package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/webbiemuchy/agrimarket/internal/api/middleware"
	"github.com/webbiemuchy/agrimarket/internal/models"
	"github.com/webbiemuchy/agrimarket/internal/realtime"
	"github.com/webbiemuchy/agrimarket/internal/repositories"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupHandlerTest(t *testing.T) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db))

	prevDB, prevHub := repositories.DB, Hub
	repositories.DB = db
	Hub = realtime.NewHub()
	go Hub.Run()
	t.Cleanup(func() {
		repositories.DB = prevDB
		Hub = prevHub
	})
}

func createUser(t *testing.T, firstName, lastName, userType string) *models.User {
	t.Helper()
	user := &models.User{
		Email:     firstName + "." + lastName + "@example.com",
		Password:  "hash",
		FirstName: firstName,
		LastName:  lastName,
		UserType:  userType,
		IsActive:  true,
	}
	require.NoError(t, repositories.CreateUser(user))
	return user
}

func createProject(t *testing.T, farmer *models.User, title string) *models.Project {
	t.Helper()
	project := &models.Project{
		FarmerID: farmer.ID,
		Title:    title,
		Status:   models.ProjectStatusApproved,
	}
	require.NoError(t, repositories.CreateProject(project))
	return project
}

// authedRequest builds a request carrying the authenticated user id the
// way AuthMiddleware would have stored it.
func authedRequest(t *testing.T, method, target string, user *models.User, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, user.ID))
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var env struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
}
