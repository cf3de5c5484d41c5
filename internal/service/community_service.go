package service

import (
	"context"
	"strings"

	"evcircle/internal/cache"
	"evcircle/internal/models"
	"evcircle/internal/storage"
	"evcircle/internal/validation"
)

const (
	maxCommunityNameLen = 80
	maxDescriptionLen   = 2000
)

type CommunityService struct {
	store storage.Storage
}

func NewCommunityService(store storage.Storage) *CommunityService {
	return &CommunityService{store: store}
}

type CreateCommunityInput struct {
	Slug        string
	Name        string
	Description string
	Type        models.CommunityType
}

type UpdateCommunityInput struct {
	Name        *string
	Description *string
	Type        *models.CommunityType
}

// CreateCommunity creates the community and joins the creator as OWNER.
func (s *CommunityService) CreateCommunity(ctx context.Context, actor Actor, in CreateCommunityInput) (*models.Community, error) {
	slug := storage.NormalizeSlug(in.Slug)
	if err := validation.ValidateSlug(slug); err != nil {
		return nil, invalid(err)
	}
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateRequired("name", name, maxCommunityNameLen); err != nil {
		return nil, invalid(err)
	}
	if err := validation.ValidateLength("description", in.Description, maxDescriptionLen); err != nil {
		return nil, invalid(err)
	}
	if in.Type == "" {
		in.Type = models.CommunityTopic
	}
	if !in.Type.Valid() {
		return nil, models.NewValidationError("Invalid community type")
	}

	community, err := s.store.CreateCommunity(ctx, storage.NewCommunity{
		Slug:        slug,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Type:        in.Type,
		CreatorID:   actor.ID,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.store.JoinCommunity(ctx, community.ID, actor.ID); err != nil {
		return nil, err
	}
	return s.GetCommunity(ctx, community.ID)
}

func (s *CommunityService) GetCommunity(ctx context.Context, id string) (*models.Community, error) {
	community, err := s.store.GetCommunity(ctx, id)
	if err != nil {
		return nil, err
	}
	if community == nil {
		return nil, models.NewNotFoundError("Community", id)
	}
	return community, nil
}

// GetBySlug reads through the Redis cache.
func (s *CommunityService) GetBySlug(ctx context.Context, slug string) (*models.Community, error) {
	slug = storage.NormalizeSlug(slug)
	var community *models.Community
	err := cache.Aside(ctx, cache.CommunityKey(slug), &community, cache.CommunityTTL, func() error {
		c, err := s.store.GetCommunityBySlug(ctx, slug)
		if err != nil {
			return err
		}
		if c == nil {
			return models.NewNotFoundError("Community", slug)
		}
		community = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return community, nil
}

func (s *CommunityService) ListCommunities(ctx context.Context, filter storage.CommunityFilter) ([]models.Community, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, models.NewValidationError("Invalid community type")
	}
	return s.store.ListCommunities(ctx, filter)
}

func (s *CommunityService) UpdateCommunity(ctx context.Context, actor Actor, id string, in UpdateCommunityInput) (*models.Community, error) {
	community, err := s.GetCommunity(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorOrModerator(actor, community.CreatorID, "edit this community"); err != nil {
		return nil, err
	}

	patch := storage.CommunityPatch{Name: trimmed(in.Name), Description: trimmed(in.Description), Type: in.Type}
	if patch.Name != nil {
		if err := validation.ValidateRequired("name", *patch.Name, maxCommunityNameLen); err != nil {
			return nil, invalid(err)
		}
	}
	if patch.Description != nil {
		if err := validation.ValidateLength("description", *patch.Description, maxDescriptionLen); err != nil {
			return nil, invalid(err)
		}
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return nil, models.NewValidationError("Invalid community type")
	}

	updated, err := s.store.UpdateCommunity(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, models.NewNotFoundError("Community", id)
	}
	cache.InvalidateCommunity(ctx, updated.Slug)
	return updated, nil
}

func (s *CommunityService) DeleteCommunity(ctx context.Context, actor Actor, id string) error {
	community, err := s.GetCommunity(ctx, id)
	if err != nil {
		return err
	}
	if err := authorOrModerator(actor, community.CreatorID, "delete this community"); err != nil {
		return err
	}
	deleted, err := s.store.DeleteCommunity(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Community", id)
	}
	cache.InvalidateCommunity(ctx, community.Slug)
	if actor.ID != community.CreatorID {
		auditRemoval(ctx, s.store, actor, models.NewTarget(models.TargetCommunity, id), community.CreatorID)
	}
	return nil
}

func (s *CommunityService) Join(ctx context.Context, actor Actor, id string) (*models.CommunityMember, error) {
	member, err := s.store.JoinCommunity(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, models.NewNotFoundError("Community", id)
	}
	s.invalidate(ctx, id)
	return member, nil
}

// invalidate drops the cached copy so member counts stay fresh.
func (s *CommunityService) invalidate(ctx context.Context, id string) {
	if community, err := s.store.GetCommunity(ctx, id); err == nil && community != nil {
		cache.InvalidateCommunity(ctx, community.Slug)
	}
}

// Leave removes the membership. The creator cannot leave their own community.
func (s *CommunityService) Leave(ctx context.Context, actor Actor, id string) (bool, error) {
	community, err := s.GetCommunity(ctx, id)
	if err != nil {
		return false, err
	}
	if community.CreatorID == actor.ID {
		return false, models.NewConflictError("The creator cannot leave the community")
	}
	left, err := s.store.LeaveCommunity(ctx, id, actor.ID)
	if err != nil {
		return false, err
	}
	if left {
		cache.InvalidateCommunity(ctx, community.Slug)
	}
	return left, nil
}

func (s *CommunityService) Members(ctx context.Context, id string, page storage.Page) ([]models.CommunityMember, error) {
	if _, err := s.GetCommunity(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListCommunityMembers(ctx, id, page)
}

func (s *CommunityService) Posts(ctx context.Context, id string, page storage.Page) ([]models.Post, error) {
	if _, err := s.GetCommunity(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListPosts(ctx, storage.PostFilter{CommunityID: id, Page: page})
}

func (s *CommunityService) UserCommunities(ctx context.Context, userID string) ([]models.Community, error) {
	return s.store.ListUserCommunities(ctx, userID)
}
