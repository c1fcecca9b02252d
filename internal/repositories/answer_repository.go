package repositories

import (
	"errors"

	"qaforum_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository interface {
	Create(db *gorm.DB, answer *models.Answer) error
	FindByID(db *gorm.DB, id string) (*models.Answer, error)
	FindByIDForUpdate(tx *gorm.DB, id string) (*models.Answer, error)
	FindByQuestion(db *gorm.DB, questionID string) ([]models.Answer, error)
}

type AnswerRepositoryImpl struct{}

func NewAnswerRepository() AnswerRepository {
	return &AnswerRepositoryImpl{}
}

// Create relies on the (question_id, author_id) unique index to reject a second
// answer from the same author, so concurrent duplicates cannot both succeed.
func (r *AnswerRepositoryImpl) Create(db *gorm.DB, answer *models.Answer) error {
	if err := db.Create(answer).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAnswerAlreadyExists
		}
		return err
	}
	return nil
}

func (r *AnswerRepositoryImpl) FindByID(db *gorm.DB, id string) (*models.Answer, error) {
	var answer models.Answer
	if err := db.First(&answer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnswerNotFound
		}
		return nil, err
	}
	return &answer, nil
}

func (r *AnswerRepositoryImpl) FindByIDForUpdate(tx *gorm.DB, id string) (*models.Answer, error) {
	return r.FindByID(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *AnswerRepositoryImpl) FindByQuestion(db *gorm.DB, questionID string) ([]models.Answer, error) {
	var answers []models.Answer
	err := db.Preload("Author").
		Where("question_id = ?", questionID).
		Order("vote_score DESC, created_at ASC").
		Find(&answers).Error
	return answers, err
}
