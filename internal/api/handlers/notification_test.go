package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webbiemuchy/agrimarket/internal/models"
	"github.com/webbiemuchy/agrimarket/internal/repositories"
)

func TestMarkNotificationReadHandler(t *testing.T) {
	setupHandlerTest(t)

	user := createUser(t, "Amina", "Farmer", models.UserTypeFarmer)
	note, err := repositories.InsertNotification(user.ID, "New message", "You have a new message",
		models.NotificationTypeMessage, nil)
	require.NoError(t, err)

	req := authedRequest(t, http.MethodPatch, "/notifications/"+note.ID.String()+"/read", user, nil)
	req.SetPathValue("id", note.ID.String())
	rec := httptest.NewRecorder()
	MarkNotificationRead(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)

	notes, err := repositories.FindNotificationsByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.True(t, notes[0].IsRead)
}

func TestMarkNotificationReadRejectsForeignNotification(t *testing.T) {
	setupHandlerTest(t)

	owner := createUser(t, "Amina", "Farmer", models.UserTypeFarmer)
	other := createUser(t, "Ben", "Investor", models.UserTypeInvestor)
	note, err := repositories.InsertNotification(owner.ID, "New message", "You have a new message",
		models.NotificationTypeMessage, nil)
	require.NoError(t, err)

	req := authedRequest(t, http.MethodPatch, "/notifications/"+note.ID.String()+"/read", other, nil)
	req.SetPathValue("id", note.ID.String())
	rec := httptest.NewRecorder()
	MarkNotificationRead(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	notes, err := repositories.FindNotificationsByUser(owner.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.False(t, notes[0].IsRead)
}

func TestMarkNotificationReadInvalidID(t *testing.T) {
	setupHandlerTest(t)

	user := createUser(t, "Amina", "Farmer", models.UserTypeFarmer)

	req := authedRequest(t, http.MethodPatch, "/notifications/not-a-uuid/read", user, nil)
	req.SetPathValue("id", "not-a-uuid")
	rec := httptest.NewRecorder()
	MarkNotificationRead(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkAllNotificationsReadHandler(t *testing.T) {
	setupHandlerTest(t)

	user := createUser(t, "Amina", "Farmer", models.UserTypeFarmer)
	bystander := createUser(t, "Ben", "Investor", models.UserTypeInvestor)
	for i := 0; i < 3; i++ {
		_, err := repositories.InsertNotification(user.ID, "New message", "You have a new message",
			models.NotificationTypeMessage, nil)
		require.NoError(t, err)
	}
	_, err := repositories.InsertNotification(bystander.ID, "New message", "You have a new message",
		models.NotificationTypeMessage, nil)
	require.NoError(t, err)

	req := authedRequest(t, http.MethodPatch, "/notifications/mark-all-read", user, nil)
	rec := httptest.NewRecorder()
	MarkAllNotificationsRead(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)

	notes, err := repositories.FindNotificationsByUser(user.ID)
	require.NoError(t, err)
	for _, n := range notes {
		assert.True(t, n.IsRead)
	}

	others, err := repositories.FindNotificationsByUser(bystander.ID)
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.False(t, others[0].IsRead)
}

func TestCreateNotificationHandler(t *testing.T) {
	setupHandlerTest(t)

	user := createUser(t, "Amina", "Farmer", models.UserTypeFarmer)

	req := authedRequest(t, http.MethodPost, "/notifications", user, map[string]any{
		"title":    "Proposal reviewed",
		"message":  "Your proposal was approved",
		"type":     models.NotificationTypeStatusUpdate,
		"metadata": map[string]string{"projectId": "p1"},
	})
	rec := httptest.NewRecorder()
	CreateNotification(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var note models.Notification
	decodeData(t, rec, &note)
	assert.Equal(t, user.ID, note.UserID)
	assert.Equal(t, models.NotificationTypeStatusUpdate, note.Type)
	assert.Equal(t, "p1", note.Metadata["projectId"])
}

func TestCreateNotificationMissingFields(t *testing.T) {
	setupHandlerTest(t)

	user := createUser(t, "Amina", "Farmer", models.UserTypeFarmer)

	req := authedRequest(t, http.MethodPost, "/notifications", user, map[string]any{
		"title": "Only a title",
	})
	rec := httptest.NewRecorder()
	CreateNotification(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	notes, err := repositories.FindNotificationsByUser(user.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
}
