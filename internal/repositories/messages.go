package repositories

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/webbiemuchy/agrimarket/internal/models"
)

// Conversation is the derived latest-message-per-project view for one user.
// It has no backing table and is recomputed on read.
type Conversation struct {
	ProjectID        uuid.UUID   `json:"projectId"`
	ProjectTitle     string      `json:"projectTitle"`
	OtherParticipant Participant `json:"otherParticipant"`
	LastMessage      LastMessage `json:"lastMessage"`
}

type Participant struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type LastMessage struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func InsertMessage(projectID, senderID, recipientID uuid.UUID, content string) (*models.Message, error) {
	msg := models.Message{
		ProjectID:   projectID,
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
	}
	if err := DB.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// FindMessagesByProject returns the full history for a project, oldest first.
// Equal timestamps fall back to id: stable and deterministic, though ids are
// random so this is not insertion order.
func FindMessagesByProject(projectID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := DB.Where("project_id = ?", projectID).
		Order("created_at ASC").Order("id ASC").
		Find(&messages).Error
	return messages, err
}

// IsProjectParticipant reports whether the user may read a project's chat:
// the project's farmer always may, anyone else only once they are party to
// at least one message in it.
func IsProjectParticipant(projectID, userID uuid.UUID) (bool, error) {
	var project models.Project
	if err := DB.Select("farmer_id").First(&project, "id = ?", projectID).Error; err != nil {
		return false, err
	}
	if project.FarmerID == userID {
		return true, nil
	}
	var count int64
	err := DB.Model(&models.Message{}).
		Where("project_id = ? AND (sender_id = ? OR recipient_id = ?)", projectID, userID, userID).
		Count(&count).Error
	return count > 0, err
}

// FindLatestMessagePerProjectForUser derives the user's conversation list:
// one entry per project the user exchanged messages in, carrying the most
// recent message with the counter-party resolved. Ordered by recency
// descending, project id as the stable secondary order. Among messages with
// the same timestamp the one with the larger id wins, an arbitrary but
// deterministic choice.
func FindLatestMessagePerProjectForUser(userID uuid.UUID) ([]Conversation, error) {
	var messages []models.Message
	err := DB.Preload("Sender").Preload("Recipient").
		Where("sender_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC").Order("id DESC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]bool)
	conversations := make([]Conversation, 0)
	for _, msg := range messages {
		if seen[msg.ProjectID] {
			continue
		}
		seen[msg.ProjectID] = true

		other := msg.Sender
		if msg.SenderID == userID {
			other = msg.Recipient
		}
		participant := Participant{}
		if other != nil {
			participant = Participant{ID: other.ID, Name: other.FullName()}
		}

		var project models.Project
		if err := DB.Select("id", "title").First(&project, "id = ?", msg.ProjectID).Error; err != nil {
			return nil, err
		}

		conversations = append(conversations, Conversation{
			ProjectID:        msg.ProjectID,
			ProjectTitle:     project.Title,
			OtherParticipant: participant,
			LastMessage: LastMessage{
				Content:   msg.Content,
				Timestamp: msg.CreatedAt,
			},
		})
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		ti, tj := conversations[i].LastMessage.Timestamp, conversations[j].LastMessage.Timestamp
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return conversations[i].ProjectID.String() < conversations[j].ProjectID.String()
	})
	return conversations, nil
}
