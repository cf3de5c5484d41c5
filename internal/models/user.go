// Package models contains data structures for the application's domain models.
package models

import "time"

// UserRole is the authorization level of an account.
type UserRole string

const (
	RoleUser      UserRole = "USER"
	RoleModerator UserRole = "MODERATOR"
	RoleAdmin     UserRole = "ADMIN"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// CanModerate reports whether the role may act on reports and other users' content.
func (r UserRole) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// UserStatus is the standing of an account.
type UserStatus string

const (
	StatusActive    UserStatus = "ACTIVE"
	StatusSuspended UserStatus = "SUSPENDED"
	StatusBanned    UserStatus = "BANNED"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusBanned:
		return true
	}
	return false
}

// User is an account.
type User struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	Email        string     `gorm:"size:254;not null;uniqueIndex" json:"email" bson:"email"`
	PasswordHash string     `gorm:"not null" json:"-" bson:"password_hash"`
	Role         UserRole   `gorm:"type:varchar(20);not null;default:'USER'" json:"role" bson:"role"`
	Status       UserStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status" bson:"status"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}

// Profile is the public face of a User.
type Profile struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	UserID         string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"user_id" bson:"user_id"`
	DisplayName    string    `gorm:"size:80;not null;index" json:"display_name" bson:"display_name"`
	Bio            string    `gorm:"type:text" json:"bio" bson:"bio"`
	Location       string    `gorm:"size:120" json:"location" bson:"location"`
	Vehicle        string    `gorm:"size:120" json:"vehicle" bson:"vehicle"`
	AvatarURL      string    `gorm:"column:avatar_url" json:"avatar_url" bson:"avatar_url"`
	FollowersCount int       `gorm:"not null;default:0" json:"followers_count" bson:"followers_count"`
	FollowingCount int       `gorm:"not null;default:0" json:"following_count" bson:"following_count"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Profile) TableName() string {
	return "profiles"
}
