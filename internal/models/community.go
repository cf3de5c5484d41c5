package models

import "time"

// CommunityType classifies what a community is organised around.
type CommunityType string

const (
	CommunityBrand  CommunityType = "BRAND"
	CommunityModel  CommunityType = "MODEL"
	CommunityRegion CommunityType = "REGION"
	CommunityTopic  CommunityType = "TOPIC"
)

// Valid reports whether t is a known community type.
func (t CommunityType) Valid() bool {
	switch t {
	case CommunityBrand, CommunityModel, CommunityRegion, CommunityTopic:
		return true
	}
	return false
}

// Community is a group of owners around a brand, model, region or topic.
type Community struct {
	ID           string        `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	Slug         string        `gorm:"size:48;not null;uniqueIndex" json:"slug" bson:"slug"`
	Name         string        `gorm:"size:120;not null" json:"name" bson:"name"`
	Description  string        `gorm:"type:text" json:"description" bson:"description"`
	Type         CommunityType `gorm:"type:varchar(20);not null;default:'TOPIC'" json:"type" bson:"type"`
	CreatorID    string        `gorm:"type:varchar(36);not null;index" json:"creator_id" bson:"creator_id"`
	MembersCount int           `gorm:"not null;default:0" json:"members_count" bson:"members_count"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" bson:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Community) TableName() string {
	return "communities"
}

// MemberRole defines a member's role in a community.
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "OWNER"
	MemberRoleMember MemberRole = "MEMBER"
)

// CommunityMember maps users to communities.
type CommunityMember struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	CommunityID string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_community_member_pair" json:"community_id" bson:"community_id"`
	UserID      string     `gorm:"type:varchar(36);not null;uniqueIndex:idx_community_member_pair;index" json:"user_id" bson:"user_id"`
	Role        MemberRole `gorm:"type:varchar(20);not null;default:'MEMBER'" json:"role" bson:"role"`
	JoinedAt    time.Time  `json:"joined_at" bson:"joined_at"`
}

// TableName specifies the table name for GORM.
func (CommunityMember) TableName() string {
	return "community_members"
}
