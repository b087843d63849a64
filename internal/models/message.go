package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is immutable once created. Content is either an armored PGP
// envelope or legacy plain text; the server never inspects it.
type Message struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProjectID   uuid.UUID `json:"project_id" gorm:"type:uuid;index;not null"`
	SenderID    uuid.UUID `json:"sender_id" gorm:"type:uuid;index;not null"`
	RecipientID uuid.UUID `json:"recipient_id" gorm:"type:uuid;index;not null"`
	Sender      *User     `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
	Recipient   *User     `json:"recipient,omitempty" gorm:"foreignKey:RecipientID"`
	Content     string    `json:"content" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
