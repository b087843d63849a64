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

func TestPostChatMessageCreatesMessageAndNotification(t *testing.T) {
	setupHandlerTest(t)

	farmer := createUser(t, "Amina", "Farmer", models.UserTypeFarmer)
	investor := createUser(t, "Ben", "Investor", models.UserTypeInvestor)
	project := createProject(t, farmer, "Drip Irrigation")

	req := authedRequest(t, http.MethodPost, "/chats/"+project.ID.String(), investor, map[string]string{
		"recipientId": farmer.ID.String(),
		"content":     "-----BEGIN PGP MESSAGE-----\n...\n-----END PGP MESSAGE-----",
	})
	req.SetPathValue("id", project.ID.String())
	rec := httptest.NewRecorder()
	PostChatMessage(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		Message models.Message `json:"message"`
	}
	decodeData(t, rec, &out)
	assert.Equal(t, project.ID, out.Message.ProjectID)
	assert.Equal(t, investor.ID, out.Message.SenderID)
	assert.Equal(t, farmer.ID, out.Message.RecipientID)

	notifications, err := repositories.FindNotificationsByUser(farmer.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationTypeMessage, notifications[0].Type)
	assert.Equal(t, project.ID.String(), notifications[0].Metadata["projectId"])
	assert.Equal(t, investor.ID.String(), notifications[0].Metadata["senderId"])
	assert.Equal(t, "Drip Irrigation", notifications[0].Metadata["projectTitle"])
}

func TestPostChatMessageMissingFields(t *testing.T) {
	setupHandlerTest(t)

	farmer := createUser(t, "Amina", "Farmer", models.UserTypeFarmer)
	investor := createUser(t, "Ben", "Investor", models.UserTypeInvestor)
	project := createProject(t, farmer, "Drip Irrigation")

	req := authedRequest(t, http.MethodPost, "/chats/"+project.ID.String(), investor, map[string]string{
		"recipientId": farmer.ID.String(),
	})
	req.SetPathValue("id", project.ID.String())
	rec := httptest.NewRecorder()
	PostChatMessage(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	messages, err := repositories.FindMessagesByProject(project.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestPostChatMessageUnknownProject(t *testing.T) {
	setupHandlerTest(t)

	investor := createUser(t, "Ben", "Investor", models.UserTypeInvestor)
	farmer := createUser(t, "Amina", "Farmer", models.UserTypeFarmer)
	missing := "b6f1f9a4-2f0e-4a6a-8a67-7d8c3b1d9f00"

	req := authedRequest(t, http.MethodPost, "/chats/"+missing, investor, map[string]string{
		"recipientId": farmer.ID.String(),
		"content":     "hello",
	})
	req.SetPathValue("id", missing)
	rec := httptest.NewRecorder()
	PostChatMessage(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostChatMessageRequiresFarmerOrParticipant(t *testing.T) {
	setupHandlerTest(t)

	farmer := createUser(t, "Amina", "Farmer", models.UserTypeFarmer)
	investor := createUser(t, "Ben", "Investor", models.UserTypeInvestor)
	outsider := createUser(t, "Omar", "Outsider", models.UserTypeInvestor)
	project := createProject(t, farmer, "Drip Irrigation")

	// Two non-farmers with no prior involvement cannot open a chat.
	req := authedRequest(t, http.MethodPost, "/chats/"+project.ID.String(), outsider, map[string]string{
		"recipientId": investor.ID.String(),
		"content":     "psst",
	})
	req.SetPathValue("id", project.ID.String())
	rec := httptest.NewRecorder()
	PostChatMessage(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	messages, err := repositories.FindMessagesByProject(project.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)

	// Addressing the farmer opens the conversation.
	req = authedRequest(t, http.MethodPost, "/chats/"+project.ID.String(), outsider, map[string]string{
		"recipientId": farmer.ID.String(),
		"content":     "hello farmer",
	})
	req.SetPathValue("id", project.ID.String())
	rec = httptest.NewRecorder()
	PostChatMessage(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestGetChatReturnsMessagesInOrder(t *testing.T) {
	setupHandlerTest(t)

	farmer := createUser(t, "Amina", "Farmer", models.UserTypeFarmer)
	investor := createUser(t, "Ben", "Investor", models.UserTypeInvestor)
	project := createProject(t, farmer, "Drip Irrigation")

	for _, content := range []string{"first", "second", "third"} {
		_, err := repositories.InsertMessage(project.ID, investor.ID, farmer.ID, content)
		require.NoError(t, err)
	}

	req := authedRequest(t, http.MethodGet, "/chats/"+project.ID.String(), farmer, nil)
	req.SetPathValue("id", project.ID.String())
	rec := httptest.NewRecorder()
	GetChat(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Messages []models.Message `json:"messages"`
	}
	decodeData(t, rec, &out)
	require.Len(t, out.Messages, 3)
	assert.Equal(t, "first", out.Messages[0].Content)
	assert.Equal(t, "third", out.Messages[2].Content)
}

func TestGetChatForbiddenForNonParticipant(t *testing.T) {
	setupHandlerTest(t)

	farmer := createUser(t, "Amina", "Farmer", models.UserTypeFarmer)
	outsider := createUser(t, "Omar", "Outsider", models.UserTypeInvestor)
	project := createProject(t, farmer, "Drip Irrigation")

	req := authedRequest(t, http.MethodGet, "/chats/"+project.ID.String(), outsider, nil)
	req.SetPathValue("id", project.ID.String())
	rec := httptest.NewRecorder()
	GetChat(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetConversations(t *testing.T) {
	setupHandlerTest(t)

	farmer := createUser(t, "Amina", "Farmer", models.UserTypeFarmer)
	investor := createUser(t, "Ben", "Investor", models.UserTypeInvestor)
	project := createProject(t, farmer, "Drip Irrigation")

	_, err := repositories.InsertMessage(project.ID, investor.ID, farmer.ID, "hello")
	require.NoError(t, err)
	_, err = repositories.InsertMessage(project.ID, farmer.ID, investor.ID, "hi back")
	require.NoError(t, err)

	req := authedRequest(t, http.MethodGet, "/chats", investor, nil)
	rec := httptest.NewRecorder()
	GetConversations(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Conversations []repositories.Conversation `json:"conversations"`
	}
	decodeData(t, rec, &out)
	require.Len(t, out.Conversations, 1)
	assert.Equal(t, "Drip Irrigation", out.Conversations[0].ProjectTitle)
	assert.Equal(t, "hi back", out.Conversations[0].LastMessage.Content)
	assert.Equal(t, farmer.ID, out.Conversations[0].OtherParticipant.ID)
}
