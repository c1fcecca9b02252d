package repositories

import (
	"errors"

	"qaforum_backend/internal/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(db *gorm.DB, user *models.User) error
	FindByID(db *gorm.DB, id string) (*models.User, error)
	FindByUsername(db *gorm.DB, username string) (*models.User, error)
	FindByUsernames(db *gorm.DB, usernames []string) ([]models.User, error)
	FindByAPITokenHash(db *gorm.DB, hash string) (*models.User, error)
	SetAPITokenHash(db *gorm.DB, userID, hash string) error
	SetEmailNotifications(db *gorm.DB, userID string, enabled bool) error
}

type UserRepositoryImpl struct{}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (r *UserRepositoryImpl) Create(db *gorm.DB, user *models.User) error {
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrUserAlreadyExists
		}
		return err
	}
	return nil
}

func (r *UserRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.User, error) {
	return r.findOne(db, "id = ?", id)
}

func (r *UserRepositoryImpl) FindByUsername(db *gorm.DB, username string) (*models.User, error) {
	return r.findOne(db, "username = ?", username)
}

// FindByUsernames returns the users that exist among usernames, in no particular order.
func (r *UserRepositoryImpl) FindByUsernames(db *gorm.DB, usernames []string) ([]models.User, error) {
	var users []models.User
	if len(usernames) == 0 {
		return users, nil
	}
	err := db.Where("username IN ?", usernames).Find(&users).Error
	return users, err
}

func (r *UserRepositoryImpl) FindByAPITokenHash(db *gorm.DB, hash string) (*models.User, error) {
	return r.findOne(db, "api_token_hash = ?", hash)
}

func (r *UserRepositoryImpl) SetAPITokenHash(db *gorm.DB, userID, hash string) error {
	result := db.Model(&models.User{}).Where("id = ?", userID).Update("api_token_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) SetEmailNotifications(db *gorm.DB, userID string, enabled bool) error {
	// Update по имени колонки пишет и false
	result := db.Model(&models.User{}).Where("id = ?", userID).Update("email_notifications", enabled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) findOne(db *gorm.DB, query string, args ...any) (*models.User, error) {
	var user models.User
	if err := db.Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
