package storage

import (
	"time"

	"evcircle/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is an offset window over a newest-first listing.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the window to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Window returns the [start, end) bounds of p over n items.
func (p Page) Window(n int) (int, int) {
	p = p.Normalize()
	start := p.Offset
	if start > n {
		start = n
	}
	end := start + p.Limit
	if end > n {
		end = n
	}
	return start, end
}

type NewUser struct {
	Email        string
	PasswordHash string
	Role         models.UserRole
	Status       models.UserStatus
}

type UserPatch struct {
	Email        *string
	PasswordHash *string
	Role         *models.UserRole
	Status       *models.UserStatus
}

type NewProfile struct {
	UserID      string
	DisplayName string
	Bio         string
	Location    string
	Vehicle     string
	AvatarURL   string
}

type ProfilePatch struct {
	DisplayName *string
	Bio         *string
	Location    *string
	Vehicle     *string
	AvatarURL   *string
}

type NewPost struct {
	AuthorID    string
	CommunityID *string
	Text        string
	Media       []string
}

type PostPatch struct {
	Text  *string
	Media *[]string
}

// PostFilter narrows ListPosts. Empty fields are ignored; AuthorIDs matches
// any of the listed authors.
type PostFilter struct {
	AuthorID    string
	AuthorIDs   []string
	CommunityID string
	Page        Page
}

type NewComment struct {
	PostID   string
	AuthorID string
	Text     string
}

type NewCommunity struct {
	Slug        string
	Name        string
	Description string
	Type        models.CommunityType
	CreatorID   string
}

type CommunityPatch struct {
	Name        *string
	Description *string
	Type        *models.CommunityType
}

type CommunityFilter struct {
	Type models.CommunityType
	Page Page
}

type NewStation struct {
	Name       string
	Address    string
	Latitude   float64
	Longitude  float64
	Connectors []string
	Network    string
	PowerKW    float64
	AddedBy    string
}

type StationPatch struct {
	Name       *string
	Address    *string
	Latitude   *float64
	Longitude  *float64
	Connectors *[]string
	Network    *string
	PowerKW    *float64
}

// StationFilter narrows ListStations. Connector matches case-insensitively.
type StationFilter struct {
	Network   string
	Connector string
	AddedBy   string
	Page      Page
}

type NewQuestion struct {
	AuthorID string
	Title    string
	Body     string
	Tags     []string
}

type QuestionPatch struct {
	Title *string
	Body  *string
	Tags  *[]string
}

type QuestionFilter struct {
	AuthorID string
	Tag      string
	// Solved filters on whether a solved answer is set when non-nil.
	Solved *bool
	Page   Page
}

type NewAnswer struct {
	QuestionID string
	AuthorID   string
	Body       string
}

type NewArticle struct {
	AuthorID string
	Kind     models.ArticleKind
	Title    string
	Summary  string
	Body     string
	CoverURL string
	Tags     []string
}

type ArticlePatch struct {
	Kind     *models.ArticleKind
	Title    *string
	Summary  *string
	Body     *string
	CoverURL *string
	Tags     *[]string
}

type ArticleFilter struct {
	Kind     models.ArticleKind
	Tag      string
	AuthorID string
	Page     Page
}

type NewArticleComment struct {
	ArticleID string
	AuthorID  string
	Text      string
}

type NewReport struct {
	ReporterID string
	Target     models.Target
	Reason     string
	Details    string
}

type ReportPatch struct {
	Status     *models.ReportStatus
	HandledBy  *string
	Resolution *string
}

type NewAuditLog struct {
	Action   string
	ActorID  string
	Target   models.Target
	Metadata map[string]interface{}
}

type AuditFilter struct {
	ActorID string
	Action  string
	Target  *models.Target
	Page    Page
}

type NewNotification struct {
	UserID  string
	Type    models.NotificationType
	ActorID string
	Target  models.Target
	Message string
}

type NewMessage struct {
	ConversationID string
	SenderID       string
	Text           string
	// SentAt overrides the creation time; zero means now.
	SentAt time.Time
}
