// Package storage defines the persistence contract shared by every backend.
//
// Listings are newest first unless noted. Reads that miss return (nil, nil)
// and deletes that miss return false. Storage never validates permissions;
// it only guards its own invariants (unique pairs, derived counters). Driver
// failures surface as *models.AppError with code INTERNAL_ERROR.
package storage

import (
	"context"

	"evcircle/internal/models"
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, in NewUser) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (*models.User, error)
	ListUsers(ctx context.Context, page Page) ([]models.User, error)
}

// ProfileStore persists public profiles, keyed by user id.
type ProfileStore interface {
	CreateProfile(ctx context.Context, in NewProfile) (*models.Profile, error)
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, patch ProfilePatch) (*models.Profile, error)
	ListProfiles(ctx context.Context, userIDs []string) ([]models.Profile, error)
}

// PostStore persists posts and their like sets.
type PostStore interface {
	CreatePost(ctx context.Context, in NewPost) (*models.Post, error)
	GetPost(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, filter PostFilter) ([]models.Post, error)
	UpdatePost(ctx context.Context, id string, patch PostPatch) (*models.Post, error)
	DeletePost(ctx context.Context, id string) (bool, error)
	TogglePostLike(ctx context.Context, postID, userID string) (*models.Post, error)
}

// CommentStore persists post comments and keeps Post.CommentsCount in step.
type CommentStore interface {
	CreateComment(ctx context.Context, in NewComment) (*models.Comment, error)
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	ListComments(ctx context.Context, postID string, page Page) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id string) (bool, error)
}

// CommunityStore persists communities and memberships.
type CommunityStore interface {
	CreateCommunity(ctx context.Context, in NewCommunity) (*models.Community, error)
	GetCommunity(ctx context.Context, id string) (*models.Community, error)
	GetCommunityBySlug(ctx context.Context, slug string) (*models.Community, error)
	ListCommunities(ctx context.Context, filter CommunityFilter) ([]models.Community, error)
	UpdateCommunity(ctx context.Context, id string, patch CommunityPatch) (*models.Community, error)
	DeleteCommunity(ctx context.Context, id string) (bool, error)

	// JoinCommunity is idempotent per (community, user). The creator joins
	// as OWNER, everyone else as MEMBER.
	JoinCommunity(ctx context.Context, communityID, userID string) (*models.CommunityMember, error)
	LeaveCommunity(ctx context.Context, communityID, userID string) (bool, error)
	IsCommunityMember(ctx context.Context, communityID, userID string) (bool, error)
	ListCommunityMembers(ctx context.Context, communityID string, page Page) ([]models.CommunityMember, error)
	ListUserCommunities(ctx context.Context, userID string) ([]models.Community, error)
}

// StationStore persists community-contributed charging stations.
type StationStore interface {
	CreateStation(ctx context.Context, in NewStation) (*models.Station, error)
	GetStation(ctx context.Context, id string) (*models.Station, error)
	ListStations(ctx context.Context, filter StationFilter) ([]models.Station, error)
	UpdateStation(ctx context.Context, id string, patch StationPatch) (*models.Station, error)
	DeleteStation(ctx context.Context, id string) (bool, error)
}

// BookmarkStore persists bookmarks. A (user, target) pair is stored once:
// CreateBookmark returns the existing row for a repeat and leaves
// Station.BookmarksCount alone. Earlier versions of the service stored
// duplicates and counted each one.
type BookmarkStore interface {
	CreateBookmark(ctx context.Context, userID string, target models.Target) (*models.Bookmark, error)
	GetBookmark(ctx context.Context, id string) (*models.Bookmark, error)
	DeleteBookmark(ctx context.Context, id string) (bool, error)
	DeleteBookmarkByTarget(ctx context.Context, userID string, target models.Target) (bool, error)
	ListBookmarks(ctx context.Context, userID string, kind models.TargetKind) ([]models.Bookmark, error)
	IsBookmarked(ctx context.Context, userID string, target models.Target) (bool, error)
}

// ForumStore persists questions and answers.
type ForumStore interface {
	CreateQuestion(ctx context.Context, in NewQuestion) (*models.Question, error)
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	ListQuestions(ctx context.Context, filter QuestionFilter) ([]models.Question, error)
	UpdateQuestion(ctx context.Context, id string, patch QuestionPatch) (*models.Question, error)
	DeleteQuestion(ctx context.Context, id string) (bool, error)
	ToggleQuestionUpvote(ctx context.Context, questionID, userID string) (*models.Question, error)
	// MarkQuestionSolved sets the solved answer. A nil answerID clears it.
	MarkQuestionSolved(ctx context.Context, questionID string, answerID *string) (*models.Question, error)

	CreateAnswer(ctx context.Context, in NewAnswer) (*models.Answer, error)
	GetAnswer(ctx context.Context, id string) (*models.Answer, error)
	// ListAnswers returns a thread's answers oldest first.
	ListAnswers(ctx context.Context, questionID string) ([]models.Answer, error)
	DeleteAnswer(ctx context.Context, id string) (bool, error)
	ToggleAnswerUpvote(ctx context.Context, answerID, userID string) (*models.Answer, error)
}

// ArticleStore persists knowledge-hub articles and their comments.
type ArticleStore interface {
	CreateArticle(ctx context.Context, in NewArticle) (*models.Article, error)
	GetArticle(ctx context.Context, id string) (*models.Article, error)
	ListArticles(ctx context.Context, filter ArticleFilter) ([]models.Article, error)
	UpdateArticle(ctx context.Context, id string, patch ArticlePatch) (*models.Article, error)
	DeleteArticle(ctx context.Context, id string) (bool, error)
	ToggleArticleLike(ctx context.Context, articleID, userID string) (*models.Article, error)

	CreateArticleComment(ctx context.Context, in NewArticleComment) (*models.ArticleComment, error)
	GetArticleComment(ctx context.Context, id string) (*models.ArticleComment, error)
	ListArticleComments(ctx context.Context, articleID string, page Page) ([]models.ArticleComment, error)
	DeleteArticleComment(ctx context.Context, id string) (bool, error)
}

// ModerationStore persists reports and the append-only audit log.
type ModerationStore interface {
	CreateReport(ctx context.Context, in NewReport) (*models.Report, error)
	GetReport(ctx context.Context, id string) (*models.Report, error)
	// ListReports filters by status unless status is empty.
	ListReports(ctx context.Context, status models.ReportStatus, page Page) ([]models.Report, error)
	UpdateReport(ctx context.Context, id string, patch ReportPatch) (*models.Report, error)

	CreateAuditLog(ctx context.Context, in NewAuditLog) (*models.AuditLog, error)
	ListAuditLogs(ctx context.Context, filter AuditFilter) ([]models.AuditLog, error)
}

// SocialStore persists follow and block relationships. Following updates
// both profiles' counters; blocking removes follows in both directions.
type SocialStore interface {
	FollowUser(ctx context.Context, followerID, followingID string) (*models.UserFollow, error)
	UnfollowUser(ctx context.Context, followerID, followingID string) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	ListFollowers(ctx context.Context, userID string, page Page) ([]models.UserFollow, error)
	ListFollowing(ctx context.Context, userID string, page Page) ([]models.UserFollow, error)

	BlockUser(ctx context.Context, blockerID, blockedID string) (*models.UserBlock, error)
	UnblockUser(ctx context.Context, blockerID, blockedID string) (bool, error)
	// IsBlocked reports a block in either direction.
	IsBlocked(ctx context.Context, a, b string) (bool, error)
	ListBlocked(ctx context.Context, blockerID string) ([]models.UserBlock, error)
}

// NotificationStore persists per-user notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, in NewNotification) (*models.Notification, error)
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, page Page) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) (*models.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
}

// MessageStore persists one-to-one conversations and their messages.
type MessageStore interface {
	// GetOrCreateConversation resolves the unordered pair (a, b) to a single
	// conversation.
	GetOrCreateConversation(ctx context.Context, a, b string) (*models.Conversation, error)
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)

	CreateMessage(ctx context.Context, in NewMessage) (*models.Message, error)
	ListMessages(ctx context.Context, conversationID string, page Page) ([]models.Message, error)
	// MarkMessageRead leaves the message untouched when userID sent it.
	MarkMessageRead(ctx context.Context, conversationID, messageID, userID string) (*models.Message, error)
	GetUnreadMessageCount(ctx context.Context, userID string) (int, error)
}

// SearchStore runs case-insensitive substring matches per category.
type SearchStore interface {
	SearchCommunities(ctx context.Context, term string, limit int) ([]models.Community, error)
	SearchPosts(ctx context.Context, term string, limit int) ([]models.Post, error)
	SearchStations(ctx context.Context, term string, limit int) ([]models.Station, error)
	SearchProfiles(ctx context.Context, term string, limit int) ([]models.Profile, error)
	SearchUsersByEmail(ctx context.Context, term string, limit int) ([]models.User, error)
}

// Storage is the full contract a backend implements.
type Storage interface {
	UserStore
	ProfileStore
	PostStore
	CommentStore
	CommunityStore
	StationStore
	BookmarkStore
	ForumStore
	ArticleStore
	ModerationStore
	SocialStore
	NotificationStore
	MessageStore
	SearchStore

	// RecountCounters recomputes every derived counter from the
	// relationship data it summarises.
	RecountCounters(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	// Backend names the implementation, e.g. "memory" or "postgres".
	Backend() string
}
