package memory

import (
	"context"
	"time"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) CreateCommunity(_ context.Context, in storage.NewCommunity) (*models.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slug := storage.NormalizeSlug(in.Slug)
	if _, taken := s.communitySlugs[slug]; taken {
		return nil, storage.ErrSlugTaken(slug)
	}
	now := s.now()
	c := models.Community{
		ID:          storage.NewID(),
		Slug:        slug,
		Name:        in.Name,
		Description: in.Description,
		Type:        in.Type,
		CreatorID:   in.CreatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.Type == "" {
		c.Type = models.CommunityTopic
	}
	s.communities[c.ID] = c
	s.communitySlugs[slug] = c.ID
	return cloneCommunity(c), nil
}

func (s *Store) GetCommunity(_ context.Context, id string) (*models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.communities[id]
	if !ok {
		return nil, nil
	}
	return cloneCommunity(c), nil
}

func (s *Store) GetCommunityBySlug(_ context.Context, slug string) (*models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.communitySlugs[storage.NormalizeSlug(slug)]
	if !ok {
		return nil, nil
	}
	return cloneCommunity(s.communities[id]), nil
}

func (s *Store) ListCommunities(_ context.Context, f storage.CommunityFilter) ([]models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.communities, cloneCommunity, func(c *models.Community) bool {
		return f.Type == "" || c.Type == f.Type
	})
	newestFirst(out, func(c *models.Community) time.Time { return c.CreatedAt })
	return paginate(out, f.Page), nil
}

func (s *Store) UpdateCommunity(_ context.Context, id string, patch storage.CommunityPatch) (*models.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.communities[id]
	if !ok {
		return nil, nil
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Description != nil {
		c.Description = *patch.Description
	}
	if patch.Type != nil {
		c.Type = *patch.Type
	}
	c.UpdatedAt = s.now()
	s.communities[id] = c
	return cloneCommunity(c), nil
}

func (s *Store) DeleteCommunity(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.communities[id]
	if !ok {
		return false, nil
	}
	for mid, m := range s.members {
		if m.CommunityID == id {
			delete(s.members, mid)
			delete(s.memberIndex, pairKey(m.CommunityID, m.UserID))
		}
	}
	delete(s.communitySlugs, c.Slug)
	delete(s.communities, id)
	return true, nil
}

func (s *Store) JoinCommunity(_ context.Context, communityID, userID string) (*models.CommunityMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.communities[communityID]
	if !ok {
		return nil, nil
	}
	key := pairKey(communityID, userID)
	if mid, exists := s.memberIndex[key]; exists {
		return cloneMember(s.members[mid]), nil
	}
	role := models.MemberRoleMember
	if userID == c.CreatorID {
		role = models.MemberRoleOwner
	}
	m := models.CommunityMember{
		ID:          storage.NewID(),
		CommunityID: communityID,
		UserID:      userID,
		Role:        role,
		JoinedAt:    s.now(),
	}
	s.members[m.ID] = m
	s.memberIndex[key] = m.ID
	addCount(&c.MembersCount, 1)
	s.communities[communityID] = c
	return cloneMember(m), nil
}

func (s *Store) LeaveCommunity(_ context.Context, communityID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for mid, m := range s.members {
		if m.CommunityID == communityID && m.UserID == userID {
			delete(s.members, mid)
			removed++
		}
	}
	delete(s.memberIndex, pairKey(communityID, userID))
	if removed == 0 {
		return false, nil
	}
	if c, ok := s.communities[communityID]; ok {
		addCount(&c.MembersCount, -removed)
		s.communities[communityID] = c
	}
	return true, nil
}

func (s *Store) IsCommunityMember(_ context.Context, communityID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.memberIndex[pairKey(communityID, userID)]
	return ok, nil
}

func (s *Store) ListCommunityMembers(_ context.Context, communityID string, page storage.Page) ([]models.CommunityMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.members, cloneMember, func(m *models.CommunityMember) bool { return m.CommunityID == communityID })
	newestFirst(out, func(m *models.CommunityMember) time.Time { return m.JoinedAt })
	return paginate(out, page), nil
}

func (s *Store) ListUserCommunities(_ context.Context, userID string) ([]models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Community
	for _, m := range s.members {
		if m.UserID != userID {
			continue
		}
		if c, ok := s.communities[m.CommunityID]; ok {
			out = append(out, c)
		}
	}
	newestFirst(out, func(c *models.Community) time.Time { return c.CreatedAt })
	return out, nil
}
