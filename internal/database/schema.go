package database

import (
	"fmt"

	"evcircle/internal/models"

	"gorm.io/gorm"
)

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Post{},
		&models.Comment{},
		&models.Community{},
		&models.CommunityMember{},
		&models.Station{},
		&models.Bookmark{},
		&models.Question{},
		&models.Answer{},
		&models.Article{},
		&models.ArticleComment{},
		&models.Report{},
		&models.AuditLog{},
		&models.UserFollow{},
		&models.UserBlock{},
		&models.Notification{},
		&models.Conversation{},
		&models.Message{},
	}
}

// Indexes GORM tags cannot express on embedded targets.
var manualIndexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_bookmarks_user_target ON bookmarks (user_id, target_kind, target_id)",
}

// Migrate creates or updates every table in PersistentModels.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	for _, stmt := range manualIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
