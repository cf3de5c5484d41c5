package models

import "time"

// Conversation is a one-to-one direct-message thread. The participant pair
// is stored in sorted order so that (A,B) and (B,A) resolve to one row.
type Conversation struct {
	ID             string     `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	ParticipantAID string     `gorm:"column:participant_a_id;type:varchar(36);not null;uniqueIndex:idx_conversation_pair;index" json:"participant_a_id" bson:"participant_a_id"`
	ParticipantBID string     `gorm:"column:participant_b_id;type:varchar(36);not null;uniqueIndex:idx_conversation_pair;index" json:"participant_b_id" bson:"participant_b_id"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty" bson:"last_message_at"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" bson:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Conversation) TableName() string {
	return "conversations"
}

// HasParticipant reports whether userID is one side of the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	return c.ParticipantAID == userID || c.ParticipantBID == userID
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID string) string {
	if c.ParticipantAID == userID {
		return c.ParticipantBID
	}
	return c.ParticipantAID
}

// ParticipantPair orders two user ids canonically.
func ParticipantPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Message is a direct message inside a Conversation.
type Message struct {
	ID             string     `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	ConversationID string     `gorm:"type:varchar(36);not null;index" json:"conversation_id" bson:"conversation_id"`
	SenderID       string     `gorm:"type:varchar(36);not null;index" json:"sender_id" bson:"sender_id"`
	Text           string     `gorm:"type:text;not null" json:"text" bson:"text"`
	IsRead         bool       `gorm:"not null;default:false" json:"is_read" bson:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty" bson:"read_at"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at" bson:"created_at"`
}

// TableName specifies the table name for GORM.
func (Message) TableName() string {
	return "messages"
}
