package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document is a supporting file attached to a project proposal, stored in
// object storage and referenced by key.
type Document struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID   uuid.UUID `json:"projectId" gorm:"type:uuid;index;not null"`
	Filename    string    `json:"filename" gorm:"not null"`
	Size        int64     `json:"size" gorm:"not null"`
	ContentType string    `json:"contentType"`
	Key         string    `json:"-" gorm:"uniqueIndex;not null"` // object storage key
	Uploaded    bool      `json:"uploaded" gorm:"default:false"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
