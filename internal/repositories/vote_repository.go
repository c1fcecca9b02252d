package repositories

import (
	"errors"
	"fmt"

	"qaforum_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VoteRepository interface {
	// FindValue returns the current ledger value of userID on the target, 0 if none.
	FindValue(tx *gorm.DB, targetType models.TargetType, targetID, userID string) (int, error)
	Upsert(tx *gorm.DB, vote *models.Vote) error
	Delete(tx *gorm.DB, targetType models.TargetType, targetID, userID string) error
	// RefreshScore recomputes the cached vote_score of the target from the ledger
	// and returns the new value.
	RefreshScore(tx *gorm.DB, targetType models.TargetType, targetID string) (int, error)
}

type VoteRepositoryImpl struct{}

func NewVoteRepository() VoteRepository {
	return &VoteRepositoryImpl{}
}

func (r *VoteRepositoryImpl) FindValue(tx *gorm.DB, targetType models.TargetType, targetID, userID string) (int, error) {
	var vote models.Vote
	err := tx.Where("target_type = ? AND target_id = ? AND user_id = ?", targetType, targetID, userID).
		Take(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return vote.Value, nil
}

// Upsert moves the voter into the set selected by vote.Value in one statement.
func (r *VoteRepositoryImpl) Upsert(tx *gorm.DB, vote *models.Vote) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "target_type"}, {Name: "target_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(vote).Error
}

func (r *VoteRepositoryImpl) Delete(tx *gorm.DB, targetType models.TargetType, targetID, userID string) error {
	return tx.Where("target_type = ? AND target_id = ? AND user_id = ?", targetType, targetID, userID).
		Delete(&models.Vote{}).Error
}

func (r *VoteRepositoryImpl) RefreshScore(tx *gorm.DB, targetType models.TargetType, targetID string) (int, error) {
	table, err := targetTable(targetType)
	if err != nil {
		return 0, err
	}

	sum := tx.Model(&models.Vote{}).
		Select("COALESCE(SUM(value), 0)").
		Where("target_type = ? AND target_id = ?", targetType, targetID)

	if err := tx.Table(table).Where("id = ?", targetID).Update("vote_score", sum).Error; err != nil {
		return 0, err
	}

	var score int
	if err := tx.Table(table).Select("vote_score").Where("id = ?", targetID).Scan(&score).Error; err != nil {
		return 0, err
	}
	return score, nil
}

func targetTable(targetType models.TargetType) (string, error) {
	switch targetType {
	case models.TargetQuestion:
		return "questions", nil
	case models.TargetAnswer:
		return "answers", nil
	}
	return "", fmt.Errorf("unknown vote target %q", targetType)
}
