package repositories

import (
	"github.com/google/uuid"
	"github.com/webbiemuchy/agrimarket/internal/models"
)

func CreateProject(project *models.Project) error {
	return DB.Create(project).Error
}

func FindProjectByID(id uuid.UUID) (*models.Project, error) {
	var project models.Project
	if err := DB.First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProjectStatus sets the review status and returns the updated row.
func UpdateProjectStatus(id uuid.UUID, status string) (*models.Project, error) {
	project, err := FindProjectByID(id)
	if err != nil {
		return nil, err
	}
	if err := DB.Model(project).Update("status", status).Error; err != nil {
		return nil, err
	}
	return project, nil
}
