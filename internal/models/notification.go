package models

import "time"

// NotificationType describes what happened.
type NotificationType string

const (
	NotifyFollow         NotificationType = "FOLLOW"
	NotifyPostLike       NotificationType = "POST_LIKE"
	NotifyComment        NotificationType = "COMMENT"
	NotifyAnswer         NotificationType = "ANSWER"
	NotifyAnswerAccepted NotificationType = "ANSWER_ACCEPTED"
	NotifyArticleComment NotificationType = "ARTICLE_COMMENT"
	NotifyMessage        NotificationType = "MESSAGE"
	NotifyReportUpdate   NotificationType = "REPORT_UPDATE"
)

// Notification is an inbox entry for UserID caused by ActorID.
type Notification struct {
	ID        string           `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	UserID    string           `gorm:"type:varchar(36);not null;index:idx_notifications_user_read" json:"user_id" bson:"user_id"`
	Type      NotificationType `gorm:"type:varchar(32);not null" json:"type" bson:"type"`
	ActorID   string           `gorm:"type:varchar(36)" json:"actor_id" bson:"actor_id"`
	Target    Target           `gorm:"embedded;embeddedPrefix:target_" json:"target" bson:"target"`
	Message   string           `gorm:"size:255" json:"message" bson:"message"`
	IsRead    bool             `gorm:"not null;default:false;index:idx_notifications_user_read" json:"is_read" bson:"is_read"`
	CreatedAt time.Time        `gorm:"index" json:"created_at" bson:"created_at"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}
