package models

import (
	"time"

	"gorm.io/datatypes"
)

// Post is a status update, optionally published inside a community.
type Post struct {
	ID            string                      `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	AuthorID      string                      `gorm:"type:varchar(36);not null;index" json:"author_id" bson:"author_id"`
	CommunityID   *string                     `gorm:"type:varchar(36);index" json:"community_id,omitempty" bson:"community_id"`
	Text          string                      `gorm:"type:text;not null" json:"text" bson:"text"`
	Media         datatypes.JSONSlice[string] `json:"media" bson:"media"`
	Likes         datatypes.JSONSlice[string] `json:"likes" bson:"likes"`
	CommentsCount int                         `gorm:"not null;default:0" json:"comments_count" bson:"comments_count"`
	CreatedAt     time.Time                   `gorm:"index" json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at" bson:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Post) TableName() string {
	return "posts"
}

// LikedBy reports whether userID is in the post's like set.
func (p *Post) LikedBy(userID string) bool {
	return containsID(p.Likes, userID)
}

// Comment is a reply to a Post.
type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	PostID    string    `gorm:"type:varchar(36);not null;index" json:"post_id" bson:"post_id"`
	AuthorID  string    `gorm:"type:varchar(36);not null;index" json:"author_id" bson:"author_id"`
	Text      string    `gorm:"type:text;not null" json:"text" bson:"text"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Comment) TableName() string {
	return "comments"
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
