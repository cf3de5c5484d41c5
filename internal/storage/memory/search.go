package memory

import (
	"context"
	"time"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) SearchCommunities(_ context.Context, term string, limit int) ([]models.Community, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.communities, cloneCommunity, func(c *models.Community) bool {
		return storage.ContainsFold(c.Name, term) || storage.ContainsFold(c.Slug, term) || storage.ContainsFold(c.Description, term)
	})
	newestFirst(out, func(c *models.Community) time.Time { return c.CreatedAt })
	return limitTo(out, limit), nil
}

func (s *Store) SearchPosts(_ context.Context, term string, limit int) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.posts, clonePost, func(p *models.Post) bool { return storage.ContainsFold(p.Text, term) })
	newestFirst(out, func(p *models.Post) time.Time { return p.CreatedAt })
	return limitTo(out, limit), nil
}

func (s *Store) SearchStations(_ context.Context, term string, limit int) ([]models.Station, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.stations, cloneStation, func(st *models.Station) bool {
		return storage.ContainsFold(st.Name, term) || storage.ContainsFold(st.Address, term) || storage.ContainsFold(st.Network, term)
	})
	newestFirst(out, func(st *models.Station) time.Time { return st.CreatedAt })
	return limitTo(out, limit), nil
}

func (s *Store) SearchProfiles(_ context.Context, term string, limit int) ([]models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.profiles, cloneProfile, func(p *models.Profile) bool { return storage.ContainsFold(p.DisplayName, term) })
	newestFirst(out, func(p *models.Profile) time.Time { return p.CreatedAt })
	return limitTo(out, limit), nil
}

func (s *Store) SearchUsersByEmail(_ context.Context, term string, limit int) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.users, cloneUser, func(u *models.User) bool { return storage.ContainsFold(u.Email, term) })
	newestFirst(out, func(u *models.User) time.Time { return u.CreatedAt })
	return limitTo(out, limit), nil
}
