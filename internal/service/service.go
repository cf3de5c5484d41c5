// Package service holds the application rules that sit between HTTP handlers
// and storage: validation, authorization and side effects.
package service

import (
	"strings"

	"evcircle/internal/models"
	"evcircle/internal/notifications"
	"evcircle/internal/storage"

	"github.com/redis/go-redis/v9"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID     string
	Role   models.UserRole
	Status models.UserStatus
}

// ActorFor builds an Actor from a loaded user.
func ActorFor(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role, Status: u.Status}
}

// CanModerate reports whether the actor may act on other users' content.
func (a Actor) CanModerate() bool {
	return a.Role.CanModerate()
}

// IsAdmin reports whether the actor has the ADMIN role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// Services bundles every domain service over one storage backend.
type Services struct {
	Auth          *AuthService
	Notifications *NotificationService
	Posts         *PostService
	Communities   *CommunityService
	Social        *SocialService
	Stations      *StationService
	Forum         *ForumService
	Articles      *ArticleService
	Messages      *MessageService
	Moderation    *ModerationService
}

// New wires the services. rdb may be nil, which disables token revocation
// and realtime delivery.
func New(store storage.Storage, rdb *redis.Client, jwtSecret string) *Services {
	notify := NewNotificationService(store, notifications.NewNotifier(rdb))
	return &Services{
		Auth:          NewAuthService(store, rdb, jwtSecret),
		Notifications: notify,
		Posts:         NewPostService(store, notify),
		Communities:   NewCommunityService(store),
		Social:        NewSocialService(store, notify),
		Stations:      NewStationService(store),
		Forum:         NewForumService(store, notify),
		Articles:      NewArticleService(store, notify),
		Messages:      NewMessageService(store, notify),
		Moderation:    NewModerationService(store, notify),
	}
}

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return models.NewValidationError(err.Error())
}

// authorOrModerator allows the owner of a resource or any moderator.
func authorOrModerator(actor Actor, ownerID, action string) error {
	if actor.ID == ownerID || actor.CanModerate() {
		return nil
	}
	return models.NewForbiddenError("You are not allowed to " + action)
}

// cleanTags trims, lower-cases and de-duplicates tags, dropping blanks.
func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
