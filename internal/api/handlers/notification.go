package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/webbiemuchy/agrimarket/internal/api/middleware"
	"github.com/webbiemuchy/agrimarket/internal/realtime"
	"github.com/webbiemuchy/agrimarket/internal/repositories"
	"github.com/webbiemuchy/agrimarket/internal/utils"
	"gorm.io/gorm"
)

// GET /api/notifications
// ListNotifications godoc
// @Summary List the caller's notifications, newest first
// @Tags Notifications
// @Produce json
// @Success 200 {object} utils.Payload
// @Router /api/notifications [get]
func ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r)

	notes, err := repositories.FindNotificationsByUser(userID)
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database error",
		})
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Notifications retrieved",
		Data:    map[string]any{"notifications": notes},
	})
}

// PATCH /api/notifications/{id}/read
// MarkNotificationRead godoc
// @Summary Mark one notification read
// @Description 404 when the notification does not exist or belongs to another user.
// @Tags Notifications
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 404 {object} utils.Payload
// @Router /api/notifications/{id}/read [patch]
func MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r)
	notificationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid notification id",
		})
		return
	}

	switch err := repositories.MarkNotificationRead(userID, notificationID); err {
	case nil:
	case gorm.ErrRecordNotFound:
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "Notification not found",
		})
		return
	default:
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database error",
		})
		return
	}

	Hub.EmitToRoom(realtime.UserRoom(userID), realtime.EventNotificationRead,
		map[string]string{"id": notificationID.String()})

	w.WriteHeader(http.StatusNoContent)
}

// PATCH /api/notifications/mark-all-read
// MarkAllNotificationsRead godoc
// @Summary Mark every unread notification of the caller read
// @Tags Notifications
// @Success 204
// @Router /api/notifications/mark-all-read [patch]
func MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r)

	if _, err := repositories.MarkAllNotificationsRead(userID); err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database error",
		})
		return
	}

	// One bulk event, not one per row.
	Hub.EmitToRoom(realtime.UserRoom(userID), realtime.EventAllNotificationsRead, nil)

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/notifications
// CreateNotification godoc
// @Summary Create a notification for the caller
// @Tags Notifications
// @Accept json
// @Produce json
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Router /api/notifications [post]
func CreateNotification(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r)

	var input struct {
		Title    string         `json:"title"`
		Message  string         `json:"message"`
		Type     string         `json:"type"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil ||
		input.Title == "" || input.Message == "" || input.Type == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Missing required fields",
		})
		return
	}

	note, err := repositories.InsertNotification(userID, input.Title, input.Message, input.Type, input.Metadata)
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database insert failed",
		})
		return
	}

	Hub.EmitToRoom(realtime.UserRoom(userID), realtime.EventNewNotification, note)

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "Notification created",
		Data:    note,
	})
}
