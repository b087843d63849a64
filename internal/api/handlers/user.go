package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/webbiemuchy/agrimarket/internal/api/middleware"
	"github.com/webbiemuchy/agrimarket/internal/repositories"
	"github.com/webbiemuchy/agrimarket/internal/utils"
	"gorm.io/gorm"
)

// PUT /api/users/me/publicKey
// UpdatePublicKey godoc
// @Summary Store the caller's armored public key
// @Tags Users
// @Accept json
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Router /api/users/me/publicKey [put]
func UpdatePublicKey(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r)

	var input struct {
		PublicKey string `json:"publicKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.PublicKey == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Missing publicKey",
		})
		return
	}

	if err := repositories.UpdateUserPublicKey(userID, input.PublicKey); err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database error",
		})
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Public key saved",
	})
}

// GET /api/users/{id}
// GetUser godoc
// @Summary Encryption-target lookup
// @Description Returns id, display name, and public key of a user.
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/users/{id} [get]
func GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid user id",
		})
		return
	}

	user, err := repositories.FindUserByID(id)
	if err == gorm.ErrRecordNotFound {
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "User not found",
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

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "User retrieved",
		Data: map[string]any{"user": map[string]any{
			"id":         user.ID,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"publicKey":  user.PublicKey,
		}},
	})
}
