package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/webbiemuchy/agrimarket/internal/api/middleware"
	"github.com/webbiemuchy/agrimarket/internal/models"
	"github.com/webbiemuchy/agrimarket/internal/repositories"
	"github.com/webbiemuchy/agrimarket/internal/utils"
	"gorm.io/gorm"
)

const presignTTL = 15 * time.Minute

const maxDocumentSize = 25 << 20 // 25 MB

// POST /api/projects/{id}/documents/presign
// PresignDocumentUpload godoc
// @Summary Presign a proposal document upload
// @Description Only the project's farmer may attach documents. Returns a temporary PUT URL.
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Router /api/projects/{id}/documents/presign [post]
func PresignDocumentUpload(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r)
	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid project id",
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
	if project.FarmerID != userID {
		utils.JSONResponse(w, http.StatusForbidden, utils.Payload{
			Success: false,
			Message: "Only the project owner can attach documents",
		})
		return
	}

	var input struct {
		Filename    string `json:"filename"`
		Size        int64  `json:"size"`
		ContentType string `json:"contentType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil ||
		input.Filename == "" || input.Size <= 0 {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Missing filename or size",
		})
		return
	}
	if input.Size > maxDocumentSize {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Document exceeds 25 MB limit",
		})
		return
	}

	doc := models.Document{
		ProjectID:   projectID,
		Filename:    input.Filename,
		Size:        input.Size,
		ContentType: input.ContentType,
		Key:         "projects/" + projectID.String() + "/" + uuid.NewString(),
	}
	if err := repositories.CreateDocument(&doc); err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database insert failed",
		})
		return
	}

	uploadURL, err := repositories.GeneratePresignedPutURL(r.Context(), doc.Key, presignTTL)
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Failed to presign upload",
		})
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Upload URL generated",
		Data: map[string]any{
			"documentId": doc.ID,
			"uploadUrl":  uploadURL,
			"expiresIn":  presignTTL.String(),
		},
	})
}

// POST /api/projects/{id}/documents/{docId}/complete
// CompleteDocumentUpload godoc
// @Summary Confirm a presigned upload finished
// @Description Verifies the object exists in storage before marking the document usable.
// @Tags Documents
// @Produce json
// @Param id path string true "Project ID"
// @Param docId path string true "Document ID"
// @Success 200 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/projects/{id}/documents/{docId}/complete [post]
func CompleteDocumentUpload(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r)
	docID, err := uuid.Parse(r.PathValue("docId"))
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid document id",
		})
		return
	}

	doc, err := repositories.FindDocumentByID(docID)
	if err != nil {
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "Document not found",
		})
		return
	}
	project, err := repositories.FindProjectByID(doc.ProjectID)
	if err != nil || project.FarmerID != userID {
		utils.JSONResponse(w, http.StatusForbidden, utils.Payload{
			Success: false,
			Message: "Only the project owner can confirm uploads",
		})
		return
	}

	exists, err := repositories.VerifyObjectExists(r.Context(), doc.Key)
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Storage check failed",
		})
		return
	}
	if !exists {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Object not found in storage",
		})
		return
	}

	if err := repositories.MarkDocumentUploaded(docID); err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database error",
		})
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Upload confirmed",
	})
}

// GET /api/projects/{id}/documents
func ListProjectDocuments(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid project id",
		})
		return
	}

	docs, err := repositories.FindDocumentsByProject(projectID)
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Database error",
		})
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Documents retrieved",
		Data:    map[string]any{"documents": docs},
	})
}

// GET /api/projects/{id}/documents/{docId}/download
// PresignDocumentDownload godoc
// @Summary Presign a proposal document download
// @Tags Documents
// @Produce json
// @Param id path string true "Project ID"
// @Param docId path string true "Document ID"
// @Success 200 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/projects/{id}/documents/{docId}/download [get]
func PresignDocumentDownload(w http.ResponseWriter, r *http.Request) {
	docID, err := uuid.Parse(r.PathValue("docId"))
	if err != nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid document id",
		})
		return
	}

	doc, err := repositories.FindDocumentByID(docID)
	if err != nil || !doc.Uploaded {
		utils.JSONResponse(w, http.StatusNotFound, utils.Payload{
			Success: false,
			Message: "Document not found",
		})
		return
	}

	downloadURL, err := repositories.GeneratePresignedGetURL(r.Context(), doc.Key, presignTTL)
	if err != nil {
		utils.JSONResponse(w, http.StatusInternalServerError, utils.Payload{
			Success: false,
			Message: "Failed to presign download",
		})
		return
	}

	utils.JSONResponse(w, http.StatusOK, utils.Payload{
		Success: true,
		Message: "Download URL generated",
		Data: map[string]any{
			"downloadUrl": downloadURL,
			"filename":    doc.Filename,
			"expiresIn":   presignTTL.String(),
		},
	})
}
