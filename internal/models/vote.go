package models

import "time"

// Vote is one row of the vote ledger. The composite primary key keeps a user in
// at most one of the upvoter/downvoter sets of an entity.
type Vote struct {
	TargetType TargetType `gorm:"type:varchar(16);primaryKey" json:"targetType"`
	TargetID   string     `gorm:"type:varchar(36);primaryKey" json:"targetId"`
	UserID     string     `gorm:"type:varchar(36);primaryKey;index" json:"userId"`
	Value      int        `gorm:"not null" json:"value"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
