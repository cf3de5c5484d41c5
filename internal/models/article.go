package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// ArticleKind classifies hub content.
type ArticleKind string

const (
	ArticleNews      ArticleKind = "NEWS"
	ArticleKnowledge ArticleKind = "KNOWLEDGE"
	ArticleTip       ArticleKind = "TIP"
)

// Valid reports whether k is a known article kind.
func (k ArticleKind) Valid() bool {
	switch k {
	case ArticleNews, ArticleKnowledge, ArticleTip:
		return true
	}
	return false
}

// Article is a knowledge-hub entry.
type Article struct {
	ID            string                      `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	AuthorID      string                      `gorm:"type:varchar(36);not null;index" json:"author_id" bson:"author_id"`
	Kind          ArticleKind                 `gorm:"type:varchar(20);not null;index" json:"kind" bson:"kind"`
	Title         string                      `gorm:"size:200;not null" json:"title" bson:"title"`
	Summary       string                      `gorm:"size:500" json:"summary" bson:"summary"`
	Body          string                      `gorm:"type:text;not null" json:"body" bson:"body"`
	CoverURL      string                      `gorm:"column:cover_url" json:"cover_url" bson:"cover_url"`
	Tags          datatypes.JSONSlice[string] `json:"tags" bson:"tags"`
	Likes         datatypes.JSONSlice[string] `json:"likes" bson:"likes"`
	CommentsCount int                         `gorm:"not null;default:0" json:"comments_count" bson:"comments_count"`
	CreatedAt     time.Time                   `gorm:"index" json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at" bson:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Article) TableName() string {
	return "articles"
}

// ArticleComment is a reply to an Article.
type ArticleComment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	ArticleID string    `gorm:"type:varchar(36);not null;index" json:"article_id" bson:"article_id"`
	AuthorID  string    `gorm:"type:varchar(36);not null;index" json:"author_id" bson:"author_id"`
	Text      string    `gorm:"type:text;not null" json:"text" bson:"text"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// TableName specifies the table name for GORM.
func (ArticleComment) TableName() string {
	return "article_comments"
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
