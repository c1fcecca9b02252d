package repositories

import (
	"errors"

	"qaforum_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionRepository interface {
	Create(db *gorm.DB, question *models.Question) error
	FindByID(db *gorm.DB, id string) (*models.Question, error)
	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(tx *gorm.DB, id string) (*models.Question, error)
	// SetAcceptedAnswer writes AcceptedAnswerID only if the row still has expectedVersion.
	SetAcceptedAnswer(tx *gorm.DB, questionID string, answerID *string, expectedVersion int) error
}

type QuestionRepositoryImpl struct{}

func NewQuestionRepository() QuestionRepository {
	return &QuestionRepositoryImpl{}
}

func (r *QuestionRepositoryImpl) Create(db *gorm.DB, question *models.Question) error {
	return db.Create(question).Error
}

func (r *QuestionRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Question, error) {
	var question models.Question
	if err := db.Preload("Author").First(&question, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return &question, nil
}

func (r *QuestionRepositoryImpl) FindByIDForUpdate(tx *gorm.DB, id string) (*models.Question, error) {
	var question models.Question
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&question, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return &question, nil
}

func (r *QuestionRepositoryImpl) SetAcceptedAnswer(tx *gorm.DB, questionID string, answerID *string, expectedVersion int) error {
	result := tx.Model(&models.Question{}).
		Where("id = ? AND version = ?", questionID, expectedVersion).
		Updates(map[string]any{
			"accepted_answer_id": answerID,
			"version":            gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}
	return nil
}
