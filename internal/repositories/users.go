package repositories

import (
	"github.com/google/uuid"
	"github.com/webbiemuchy/agrimarket/internal/models"
)

func CreateUser(user *models.User) error {
	return DB.Create(user).Error
}

func FindUserByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := DB.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := DB.First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserPublicKey stores or overwrites the armored public key a client
// uploaded for the given user.
func UpdateUserPublicKey(userID uuid.UUID, publicKey string) error {
	return DB.Model(&models.User{}).Where("id = ?", userID).
		Update("public_key", publicKey).Error
}
