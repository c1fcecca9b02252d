package repositories

import (
	"qaforum_backend/internal/models"

	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(db *gorm.DB, comment *models.Comment) error
	FindByAnswer(db *gorm.DB, answerID string) ([]models.Comment, error)
}

type CommentRepositoryImpl struct{}

func NewCommentRepository() CommentRepository {
	return &CommentRepositoryImpl{}
}

func (r *CommentRepositoryImpl) Create(db *gorm.DB, comment *models.Comment) error {
	return db.Create(comment).Error
}

func (r *CommentRepositoryImpl) FindByAnswer(db *gorm.DB, answerID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := db.Preload("Author").
		Where("answer_id = ?", answerID).
		Order("created_at ASC").
		Find(&comments).Error
	return comments, err
}
