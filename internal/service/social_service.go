package service

import (
	"context"

	"evcircle/internal/cache"
	"evcircle/internal/models"
	"evcircle/internal/storage"
	"evcircle/internal/validation"
)

const (
	maxBioLen      = 500
	maxLocationLen = 120
	maxVehicleLen  = 120
	maxURLLen      = 2048
)

type SocialService struct {
	store  storage.Storage
	notify *NotificationService
}

func NewSocialService(store storage.Storage, notify *NotificationService) *SocialService {
	return &SocialService{store: store, notify: notify}
}

type UpdateProfileInput struct {
	DisplayName *string
	Bio         *string
	Location    *string
	Vehicle     *string
	AvatarURL   *string
}

// GetProfile reads a user's public profile through the Redis cache.
func (s *SocialService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var profile *models.Profile
	err := cache.Aside(ctx, cache.ProfileKey(userID), &profile, cache.ProfileTTL, func() error {
		p, err := s.store.GetProfile(ctx, userID)
		if err != nil {
			return err
		}
		if p == nil {
			return models.NewNotFoundError("User", userID)
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *SocialService) UpdateProfile(ctx context.Context, actor Actor, in UpdateProfileInput) (*models.Profile, error) {
	patch := storage.ProfilePatch{
		DisplayName: trimmed(in.DisplayName),
		Bio:         trimmed(in.Bio),
		Location:    trimmed(in.Location),
		Vehicle:     trimmed(in.Vehicle),
		AvatarURL:   trimmed(in.AvatarURL),
	}
	if patch.DisplayName != nil {
		if err := validation.ValidateDisplayName(*patch.DisplayName); err != nil {
			return nil, invalid(err)
		}
	}
	checks := []struct {
		field string
		value *string
		max   int
	}{
		{"bio", patch.Bio, maxBioLen},
		{"location", patch.Location, maxLocationLen},
		{"vehicle", patch.Vehicle, maxVehicleLen},
		{"avatar_url", patch.AvatarURL, maxURLLen},
	}
	for _, c := range checks {
		if c.value == nil {
			continue
		}
		if err := validation.ValidateLength(c.field, *c.value, c.max); err != nil {
			return nil, invalid(err)
		}
	}

	profile, err := s.store.UpdateProfile(ctx, actor.ID, patch)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, models.NewNotFoundError("Profile", actor.ID)
	}
	cache.InvalidateProfile(ctx, actor.ID)
	return profile, nil
}

func (s *SocialService) requireUser(ctx context.Context, id string) error {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

// Follow is refused for self-follows and when either user blocked the other.
func (s *SocialService) Follow(ctx context.Context, actor Actor, targetID string) (*models.UserFollow, error) {
	if actor.ID == targetID {
		return nil, models.NewValidationError("You cannot follow yourself")
	}
	if err := s.requireUser(ctx, targetID); err != nil {
		return nil, err
	}
	blocked, err := s.store.IsBlocked(ctx, actor.ID, targetID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, models.NewForbiddenError("You cannot follow this user")
	}

	already, err := s.store.IsFollowing(ctx, actor.ID, targetID)
	if err != nil {
		return nil, err
	}
	follow, err := s.store.FollowUser(ctx, actor.ID, targetID)
	if err != nil {
		return nil, err
	}
	cache.InvalidateProfile(ctx, actor.ID)
	cache.InvalidateProfile(ctx, targetID)
	if !already {
		s.notify.notifyQuietly(ctx, storage.NewNotification{
			UserID:  targetID,
			Type:    models.NotifyFollow,
			ActorID: actor.ID,
			Target:  models.NewTarget(models.TargetUser, actor.ID),
			Message: "started following you",
		})
	}
	return follow, nil
}

func (s *SocialService) Unfollow(ctx context.Context, actor Actor, targetID string) (bool, error) {
	removed, err := s.store.UnfollowUser(ctx, actor.ID, targetID)
	if err != nil {
		return false, err
	}
	if removed {
		cache.InvalidateProfile(ctx, actor.ID)
		cache.InvalidateProfile(ctx, targetID)
	}
	return removed, nil
}

func (s *SocialService) Block(ctx context.Context, actor Actor, targetID string) (*models.UserBlock, error) {
	if actor.ID == targetID {
		return nil, models.NewValidationError("You cannot block yourself")
	}
	if err := s.requireUser(ctx, targetID); err != nil {
		return nil, err
	}
	block, err := s.store.BlockUser(ctx, actor.ID, targetID)
	if err != nil {
		return nil, err
	}
	cache.InvalidateProfile(ctx, actor.ID)
	cache.InvalidateProfile(ctx, targetID)
	return block, nil
}

func (s *SocialService) Unblock(ctx context.Context, actor Actor, targetID string) (bool, error) {
	return s.store.UnblockUser(ctx, actor.ID, targetID)
}

func (s *SocialService) Followers(ctx context.Context, userID string, page storage.Page) ([]models.UserFollow, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListFollowers(ctx, userID, page)
}

func (s *SocialService) Following(ctx context.Context, userID string, page storage.Page) ([]models.UserFollow, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListFollowing(ctx, userID, page)
}

func (s *SocialService) Blocked(ctx context.Context, actor Actor) ([]models.UserBlock, error) {
	return s.store.ListBlocked(ctx, actor.ID)
}

func (s *SocialService) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	return s.store.IsFollowing(ctx, followerID, followingID)
}
