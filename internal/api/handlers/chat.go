package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/webbiemuchy/agrimarket/internal/api/middleware"
	"github.com/webbiemuchy/agrimarket/internal/models"
	"github.com/webbiemuchy/agrimarket/internal/realtime"
	"github.com/webbiemuchy/agrimarket/internal/repositories"
	"github.com/webbiemuchy/agrimarket/internal/utils"
	"gorm.io/gorm"
)

// Hub is the realtime channel handlers push events through. Set once by
// api.SetupRouter before any request is served.
var Hub *realtime.Hub

// messageEvent is the newMessage payload: the stored row plus the resolved
// names clients render without a second fetch.
type messageEvent struct {
	models.Message
	ProjectTitle  string `json:"projectTitle"`
	SenderName    string `json:"senderName"`
	RecipientName string `json:"recipientName"`
}

// GET /api/chats/{id}
// GetChat godoc
// @Summary Project chat history
// @Description Returns all messages for a project, oldest first. Caller must be a participant.
// @Tags Chat
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/chats/{id} [get]
func GetChat(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r)
	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid project id",
		})
		return
	}

	ok, err := repositories.IsProjectParticipant(projectID, userID)
	if err == gorm.ErrRecordNotFound {
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "Project not found",
		})
		return
	}
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database error",
		})
		return
	}
	if !ok {
		utils.JSONResponse(w, http.StatusForbidden, utils.Payload{
			Success: false,
			Message: "Not a participant of this chat",
		})
		return
	}

	messages, err := repositories.FindMessagesByProject(projectID)
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database error",
		})
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Messages retrieved",
		Data:    map[string]any{"messages": messages},
	})
}

// POST /api/chats/{id}
// PostChatMessage godoc
// @Summary Send a chat message
// @Description Persists the (already encrypted) content, pushes it to the recipient's room, and creates a notification.
// @Tags Chat
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/chats/{id} [post]
func PostChatMessage(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r)
	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid project id",
		})
		return
	}

	var input struct {
		RecipientID uuid.UUID `json:"recipientId"`
		Content     string    `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil ||
		input.RecipientID == uuid.Nil || input.Content == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Missing required fields",
		})
		return
	}

	project, err := repositories.FindProjectByID(projectID)
	if err == gorm.ErrRecordNotFound {
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "Project not found",
		})
		return
	}
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database error",
		})
		return
	}

	// A chat always involves the project's farmer: the farmer may message
	// any enquirer, anyone may open a conversation with the farmer, and
	// beyond that the sender must already be party to the chat.
	if project.FarmerID != userID && project.FarmerID != input.RecipientID {
		ok, err := repositories.IsProjectParticipant(projectID, userID)
		if err != nil {
			utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
				Success: false,
				Message: "Database error",
			})
			return
		}
		if !ok {
			utils.JSONResponse(w, http.StatusForbidden, utils.Payload{
				Success: false,
				Message: "Not a participant of this chat",
			})
			return
		}
	}

	msg, err := repositories.InsertMessage(projectID, userID, input.RecipientID, input.Content)
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database insert failed",
		})
		return
	}

	var senderName, recipientName string
	if sender, err := repositories.FindUserByID(userID); err == nil {
		senderName = sender.FullName()
	}
	if recipient, err := repositories.FindUserByID(input.RecipientID); err == nil {
		recipientName = recipient.FullName()
	}

	Hub.EmitToRoom(realtime.UserRoom(input.RecipientID), realtime.EventNewMessage, messageEvent{
		Message:       *msg,
		ProjectTitle:  project.Title,
		SenderName:    senderName,
		RecipientName: recipientName,
	})

	note, err := repositories.InsertNotification(
		input.RecipientID,
		"New chat message",
		"New message in "+project.Title,
		models.NotificationTypeMessage,
		models.JSONMap{
			"projectId":    projectID.String(),
			"messageId":    msg.ID.String(),
			"senderId":     userID.String(),
			"projectTitle": project.Title,
		},
	)
	if err != nil {
		// The message itself is stored; log and keep going.
		log.Printf("post message: create notification: %v", err)
	} else {
		Hub.EmitToRoom(realtime.UserRoom(input.RecipientID), realtime.EventNewNotification, note)
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "Message sent",
		Data:    map[string]any{"message": msg},
	})
}

// GET /api/chats
// GetConversations godoc
// @Summary Conversation summaries
// @Description One entry per project the caller exchanged messages in, latest message first.
// @Tags Chat
// @Produce json
// @Success 200 {object} utils.Payload
// @Router /api/chats [get]
func GetConversations(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r)

	conversations, err := repositories.FindLatestMessagePerProjectForUser(userID)
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database error",
		})
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Conversations retrieved",
		Data:    map[string]any{"conversations": conversations},
	})
}
