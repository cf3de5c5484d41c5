package models

import (
	"time"

	"gorm.io/datatypes"
)

// Question is a forum thread opener.
type Question struct {
	ID             string                      `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	AuthorID       string                      `gorm:"type:varchar(36);not null;index" json:"author_id" bson:"author_id"`
	Title          string                      `gorm:"size:200;not null" json:"title" bson:"title"`
	Body           string                      `gorm:"type:text" json:"body" bson:"body"`
	Tags           datatypes.JSONSlice[string] `json:"tags" bson:"tags"`
	Upvotes        datatypes.JSONSlice[string] `json:"upvotes" bson:"upvotes"`
	AnswersCount   int                         `gorm:"not null;default:0" json:"answers_count" bson:"answers_count"`
	SolvedAnswerID *string                     `gorm:"type:varchar(36)" json:"solved_answer_id,omitempty" bson:"solved_answer_id"`
	CreatedAt      time.Time                   `gorm:"index" json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at" bson:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Question) TableName() string {
	return "questions"
}

// HasTag reports whether the question carries tag (case-insensitive).
func (q *Question) HasTag(tag string) bool {
	for _, t := range q.Tags {
		if equalFold(t, tag) {
			return true
		}
	}
	return false
}

// Answer is a reply to a Question.
type Answer struct {
	ID         string                      `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	QuestionID string                      `gorm:"type:varchar(36);not null;index" json:"question_id" bson:"question_id"`
	AuthorID   string                      `gorm:"type:varchar(36);not null;index" json:"author_id" bson:"author_id"`
	Body       string                      `gorm:"type:text;not null" json:"body" bson:"body"`
	Upvotes    datatypes.JSONSlice[string] `json:"upvotes" bson:"upvotes"`
	CreatedAt  time.Time                   `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at" bson:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Answer) TableName() string {
	return "answers"
}
