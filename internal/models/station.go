package models

import (
	"time"

	"gorm.io/datatypes"
)

// Station is a community-contributed charging location.
type Station struct {
	ID             string                      `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	Name           string                      `gorm:"size:160;not null" json:"name" bson:"name"`
	Address        string                      `gorm:"size:255" json:"address" bson:"address"`
	Latitude       float64                     `gorm:"not null" json:"latitude" bson:"latitude"`
	Longitude      float64                     `gorm:"not null" json:"longitude" bson:"longitude"`
	Connectors     datatypes.JSONSlice[string] `json:"connectors" bson:"connectors"`
	Network        string                      `gorm:"size:120" json:"network" bson:"network"`
	PowerKW        float64                     `gorm:"column:power_kw" json:"power_kw" bson:"power_kw"`
	AddedBy        string                      `gorm:"type:varchar(36);index" json:"added_by" bson:"added_by"`
	BookmarksCount int                         `gorm:"not null;default:0" json:"bookmarks_count" bson:"bookmarks_count"`
	CreatedAt      time.Time                   `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at" bson:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Station) TableName() string {
	return "stations"
}

// Bookmark is a user's saved reference to a station, post, question or article.
type Bookmark struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"user_id" bson:"user_id"`
	Target    Target    `gorm:"embedded;embeddedPrefix:target_" json:"target" bson:"target"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// TableName specifies the table name for GORM.
func (Bookmark) TableName() string {
	return "bookmarks"
}
