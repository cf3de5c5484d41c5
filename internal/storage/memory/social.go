package memory

import (
	"context"
	"time"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) FollowUser(_ context.Context, followerID, followingID string) (*models.UserFollow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(followerID, followingID)
	if id, exists := s.followIndex[key]; exists {
		f := s.follows[id]
		return &f, nil
	}
	f := models.UserFollow{
		ID:          storage.NewID(),
		FollowerID:  followerID,
		FollowingID: followingID,
		CreatedAt:   s.now(),
	}
	s.follows[f.ID] = f
	s.followIndex[key] = f.ID
	s.adjustFollowCountsLocked(followerID, followingID, 1)
	return &f, nil
}

func (s *Store) UnfollowUser(_ context.Context, followerID, followingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unfollowLocked(followerID, followingID), nil
}

func (s *Store) unfollowLocked(followerID, followingID string) bool {
	key := pairKey(followerID, followingID)
	id, ok := s.followIndex[key]
	if !ok {
		return false
	}
	delete(s.follows, id)
	delete(s.followIndex, key)
	s.adjustFollowCountsLocked(followerID, followingID, -1)
	return true
}

func (s *Store) adjustFollowCountsLocked(followerID, followingID string, delta int) {
	if p, ok := s.profiles[followerID]; ok {
		addCount(&p.FollowingCount, delta)
		s.profiles[followerID] = p
	}
	if p, ok := s.profiles[followingID]; ok {
		addCount(&p.FollowersCount, delta)
		s.profiles[followingID] = p
	}
}

func (s *Store) IsFollowing(_ context.Context, followerID, followingID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.followIndex[pairKey(followerID, followingID)]
	return ok, nil
}

func (s *Store) ListFollowers(_ context.Context, userID string, page storage.Page) ([]models.UserFollow, error) {
	return s.listFollows(page, func(f *models.UserFollow) bool { return f.FollowingID == userID })
}

func (s *Store) ListFollowing(_ context.Context, userID string, page storage.Page) ([]models.UserFollow, error) {
	return s.listFollows(page, func(f *models.UserFollow) bool { return f.FollowerID == userID })
}

func (s *Store) listFollows(page storage.Page, keep func(*models.UserFollow) bool) ([]models.UserFollow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.follows, func(f models.UserFollow) *models.UserFollow { return &f }, keep)
	newestFirst(out, func(f *models.UserFollow) time.Time { return f.CreatedAt })
	return paginate(out, page), nil
}

func (s *Store) BlockUser(_ context.Context, blockerID, blockedID string) (*models.UserBlock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(blockerID, blockedID)
	if id, exists := s.blockIndex[key]; exists {
		b := s.blocks[id]
		return &b, nil
	}
	b := models.UserBlock{
		ID:        storage.NewID(),
		BlockerID: blockerID,
		BlockedID: blockedID,
		CreatedAt: s.now(),
	}
	s.blocks[b.ID] = b
	s.blockIndex[key] = b.ID
	s.unfollowLocked(blockerID, blockedID)
	s.unfollowLocked(blockedID, blockerID)
	return &b, nil
}

func (s *Store) UnblockUser(_ context.Context, blockerID, blockedID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(blockerID, blockedID)
	id, ok := s.blockIndex[key]
	if !ok {
		return false, nil
	}
	delete(s.blocks, id)
	delete(s.blockIndex, key)
	return true, nil
}

func (s *Store) IsBlocked(_ context.Context, a, b string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ab := s.blockIndex[pairKey(a, b)]
	_, ba := s.blockIndex[pairKey(b, a)]
	return ab || ba, nil
}

func (s *Store) ListBlocked(_ context.Context, blockerID string) ([]models.UserBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.blocks, func(b models.UserBlock) *models.UserBlock { return &b }, func(b *models.UserBlock) bool {
		return b.BlockerID == blockerID
	})
	newestFirst(out, func(b *models.UserBlock) time.Time { return b.CreatedAt })
	return out, nil
}
