package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReportStatus tracks a report through review.
type ReportStatus string

const (
	ReportOpen      ReportStatus = "OPEN"
	ReportInReview  ReportStatus = "IN_REVIEW"
	ReportResolved  ReportStatus = "RESOLVED"
	ReportDismissed ReportStatus = "DISMISSED"
)

// Valid reports whether s is a known report status.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportOpen, ReportInReview, ReportResolved, ReportDismissed:
		return true
	}
	return false
}

// Report is a user's complaint about a piece of content or another user.
type Report struct {
	ID         string       `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	ReporterID string       `gorm:"type:varchar(36);not null;index" json:"reporter_id" bson:"reporter_id"`
	Target     Target       `gorm:"embedded;embeddedPrefix:target_" json:"target" bson:"target"`
	Reason     string       `gorm:"size:120;not null" json:"reason" bson:"reason"`
	Details    string       `gorm:"type:text" json:"details" bson:"details"`
	Status     ReportStatus `gorm:"type:varchar(20);not null;default:'OPEN';index" json:"status" bson:"status"`
	HandledBy  *string      `gorm:"type:varchar(36)" json:"handled_by,omitempty" bson:"handled_by"`
	Resolution string       `gorm:"type:text" json:"resolution" bson:"resolution"`
	CreatedAt  time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" bson:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Report) TableName() string {
	return "reports"
}

// Audit actions recorded by moderation flows.
const (
	AuditReportUpdated   = "report.updated"
	AuditRoleChanged     = "user.role_changed"
	AuditStatusChanged   = "user.status_changed"
	AuditContentRemoved  = "content.removed"
	AuditCountersRecount = "counters.recount"
)

// AuditLog is an append-only record of a privileged action.
type AuditLog struct {
	ID        string            `gorm:"primaryKey;type:varchar(36)" json:"id" bson:"_id"`
	Action    string            `gorm:"size:64;not null;index" json:"action" bson:"action"`
	ActorID   string            `gorm:"type:varchar(36);not null;index" json:"actor_id" bson:"actor_id"`
	Target    Target            `gorm:"embedded;embeddedPrefix:target_" json:"target" bson:"target"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty" bson:"metadata"`
	CreatedAt time.Time         `gorm:"index" json:"created_at" bson:"created_at"`
}

// TableName specifies the table name for GORM.
func (AuditLog) TableName() string {
	return "audit_logs"
}
