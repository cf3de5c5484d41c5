package models

import "fmt"

// TargetKind names the entity type a polymorphic reference points at.
type TargetKind string

const (
	TargetUser           TargetKind = "USER"
	TargetPost           TargetKind = "POST"
	TargetComment        TargetKind = "COMMENT"
	TargetCommunity      TargetKind = "COMMUNITY"
	TargetStation        TargetKind = "STATION"
	TargetQuestion       TargetKind = "QUESTION"
	TargetAnswer         TargetKind = "ANSWER"
	TargetArticle        TargetKind = "ARTICLE"
	TargetArticleComment TargetKind = "ARTICLE_COMMENT"
	TargetMessage        TargetKind = "MESSAGE"
)

var allTargetKinds = []TargetKind{
	TargetUser, TargetPost, TargetComment, TargetCommunity, TargetStation,
	TargetQuestion, TargetAnswer, TargetArticle, TargetArticleComment, TargetMessage,
}

// BookmarkTargets are the kinds a user can bookmark.
var BookmarkTargets = []TargetKind{TargetStation, TargetPost, TargetQuestion, TargetArticle}

// ReportTargets are the kinds a user can report to moderators.
var ReportTargets = []TargetKind{
	TargetUser, TargetPost, TargetComment, TargetCommunity, TargetQuestion,
	TargetAnswer, TargetArticle, TargetArticleComment, TargetMessage,
}

// Target is a typed reference to another entity. Bookmarks, reports,
// notifications and audit logs embed it instead of a loose type/id pair.
type Target struct {
	Kind TargetKind `gorm:"column:kind;type:varchar(32);index" json:"kind" bson:"kind"`
	ID   string     `gorm:"column:id;type:varchar(36);index" json:"id" bson:"id"`
}

// NewTarget builds a Target.
func NewTarget(kind TargetKind, id string) Target {
	return Target{Kind: kind, ID: id}
}

// IsZero reports whether the target is unset.
func (t Target) IsZero() bool {
	return t.Kind == "" && t.ID == ""
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.ID)
}

// Validate checks that the target is complete and, when allowed is non-empty,
// that its kind is one of them.
func (t Target) Validate(allowed ...TargetKind) error {
	if t.ID == "" {
		return NewValidationError("target id is required")
	}
	if len(allowed) == 0 {
		allowed = allTargetKinds
	}
	for _, k := range allowed {
		if t.Kind == k {
			return nil
		}
	}
	return NewValidationError(fmt.Sprintf("unsupported target type %q", t.Kind))
}
