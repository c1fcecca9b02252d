package models

// VoteType - действие над голосом пользователя
type VoteType string

const (
	VoteTypeUpvote   VoteType = "upvote"
	VoteTypeDownvote VoteType = "downvote"
	VoteTypeRemove   VoteType = "remove"
)

func (v VoteType) IsValid() bool {
	switch v {
	case VoteTypeUpvote, VoteTypeDownvote, VoteTypeRemove:
		return true
	}
	return false
}

// Value returns the ledger value stored for the vote (+1 / -1, 0 for remove).
func (v VoteType) Value() int {
	switch v {
	case VoteTypeUpvote:
		return 1
	case VoteTypeDownvote:
		return -1
	}
	return 0
}

// VoteTypeFromValue is the inverse of VoteType.Value; 0 means "no vote".
func VoteTypeFromValue(value int) VoteType {
	switch {
	case value > 0:
		return VoteTypeUpvote
	case value < 0:
		return VoteTypeDownvote
	}
	return ""
}

// TargetType - тип сущности, за которую голосуют
type TargetType string

const (
	TargetQuestion TargetType = "question"
	TargetAnswer   TargetType = "answer"
)

func (t TargetType) IsValid() bool {
	return t == TargetQuestion || t == TargetAnswer
}

// NotificationType - тип уведомления
type NotificationType string

const (
	NotificationTypeAnswer  NotificationType = "answer"
	NotificationTypeComment NotificationType = "comment"
	NotificationTypeVote    NotificationType = "vote"
	NotificationTypeAccept  NotificationType = "accept"
	NotificationTypeMention NotificationType = "mention"
	NotificationTypeBounty  NotificationType = "bounty"
	NotificationTypeSystem  NotificationType = "system"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationTypeAnswer, NotificationTypeComment, NotificationTypeVote,
		NotificationTypeAccept, NotificationTypeMention, NotificationTypeBounty,
		NotificationTypeSystem:
		return true
	}
	return false
}
