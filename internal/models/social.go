package models

import "time"

// UserFollow records that FollowerID follows FollowingID.
type UserFollow struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	FollowerID  string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_follow_pair;index" json:"follower_id" bson:"follower_id"`
	FollowingID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_follow_pair;index" json:"following_id" bson:"following_id"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// TableName specifies the table name for GORM.
func (UserFollow) TableName() string {
	return "user_follows"
}

// UserBlock records that BlockerID blocked BlockedID.
type UserBlock struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	BlockerID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_block_pair;index" json:"blocker_id" bson:"blocker_id"`
	BlockedID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_block_pair;index" json:"blocked_id" bson:"blocked_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// TableName specifies the table name for GORM.
func (UserBlock) TableName() string {
	return "user_blocks"
}
