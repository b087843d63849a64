package repositories

import (
	"github.com/google/uuid"
	"github.com/webbiemuchy/agrimarket/internal/models"
	"gorm.io/gorm"
)

func InsertNotification(userID uuid.UUID, title, message, ntype string, metadata models.JSONMap) (*models.Notification, error) {
	note := models.Notification{
		UserID:   userID,
		Title:    title,
		Message:  message,
		Type:     ntype,
		Metadata: metadata,
	}
	if err := DB.Create(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func FindNotificationsByUser(userID uuid.UUID) ([]models.Notification, error) {
	var notes []models.Notification
	err := DB.Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&notes).Error
	return notes, err
}

// MarkNotificationRead flips the read flag. The ownership check is part of
// the query: a notification that exists but belongs to someone else is
// indistinguishable from a missing one and yields gorm.ErrRecordNotFound.
func MarkNotificationRead(userID, notificationID uuid.UUID) error {
	res := DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish already-read from not-owned: re-check existence.
		var count int64
		if err := DB.Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", notificationID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

// MarkAllNotificationsRead flips every unread notification owned by the
// user and returns how many rows changed.
func MarkAllNotificationsRead(userID uuid.UUID) (int64, error) {
	res := DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
