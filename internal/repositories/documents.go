package repositories

import (
	"github.com/google/uuid"
	"github.com/webbiemuchy/agrimarket/internal/models"
)

func CreateDocument(doc *models.Document) error {
	return DB.Create(doc).Error
}

func FindDocumentsByProject(projectID uuid.UUID) ([]models.Document, error) {
	var docs []models.Document
	err := DB.Where("project_id = ? AND uploaded = ?", projectID, true).
		Order("created_at ASC").
		Find(&docs).Error
	return docs, err
}

func FindDocumentByID(id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	if err := DB.First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarkDocumentUploaded flips the uploaded flag once the client confirms the
// presigned PUT completed and the object is verified in storage.
func MarkDocumentUploaded(id uuid.UUID) error {
	return DB.Model(&models.Document{}).Where("id = ?", id).
		Update("uploaded", true).Error
}
