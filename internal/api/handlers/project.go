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

// POST /api/projects
// CreateProject godoc
// @Summary Submit a project proposal
// @Description Farmers only. Creates the proposal in pending status.
// @Tags Projects
// @Accept json
// @Produce json
// @Success 201 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Router /api/projects [post]
func CreateProject(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r)
	caller, err := repositories.FindUserByID(userID)
	if err != nil {
		utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
			Success: false,
			Message: "Unauthorized",
		})
		return
	}
	if caller.UserType != models.UserTypeFarmer {
		utils.JSONResponse(w, http.StatusForbidden, utils.Payload{
			Success: false,
			Message: "Only farmers can submit proposals",
		})
		return
	}

	var input struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		FundingGoal float64 `json:"funding_goal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Title == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Missing required fields",
		})
		return
	}

	project := models.Project{
		FarmerID:    userID,
		Title:       input.Title,
		Description: input.Description,
		FundingGoal: input.FundingGoal,
		Status:      models.ProjectStatusPending,
	}
	if err := repositories.CreateProject(&project); err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database insert failed",
		})
		return
	}

	utils.JSONResponse(w, http.StatusCreated, utils.Payload{
		Success: true,
		Message: "Proposal submitted",
		Data:    map[string]any{"project": project},
	})
}

// PATCH /api/projects/{id}/status
// UpdateProjectStatus godoc
// @Summary Approve or reject a proposal
// @Description Admins only. Notifies the farmer over the realtime channel.
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/projects/{id}/status [patch]
func UpdateProjectStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r)
	caller, err := repositories.FindUserByID(userID)
	if err != nil || caller.UserType != models.UserTypeAdmin {
		utils.JSONResponse(w, http.StatusForbidden, utils.Payload{
			Success: false,
			Message: "Insufficient permissions",
		})
		return
	}

	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid project id",
		})
		return
	}

	var input struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}
	switch input.Status {
	case models.ProjectStatusApproved, models.ProjectStatusRejected:
	default:
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "status must be approved or rejected",
		})
		return
	}

	project, err := repositories.UpdateProjectStatus(projectID, input.Status)
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

	note, err := repositories.InsertNotification(
		project.FarmerID,
		"Your proposal was "+input.Status,
		"Project \""+project.Title+"\" has been "+input.Status,
		models.NotificationTypeStatusUpdate,
		models.JSONMap{"projectId": projectID.String()},
	)
	if err != nil {
		log.Printf("update status: create notification: %v", err)
	} else {
		Hub.EmitToRoom(realtime.UserRoom(project.FarmerID), realtime.EventNewNotification, note)
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Status updated",
		Data:    map[string]any{"project": project},
	})
}
