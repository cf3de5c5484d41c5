package memory

import (
	"context"
	"time"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) CreateUser(_ context.Context, in storage.NewUser) (*models.User, error) {
	in, err := storage.ValidateNewUser(in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.usersByEmail[in.Email]; taken {
		return nil, storage.ErrEmailTaken()
	}
	now := s.now()
	u := models.User{
		ID:           storage.NewID(),
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		Status:       in.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u
	s.usersByEmail[u.Email] = u.ID
	return cloneUser(u), nil
}

func (s *Store) GetUser(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usersByEmail[storage.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	return cloneUser(s.users[id]), nil
}

func (s *Store) UpdateUser(_ context.Context, id string, patch storage.UserPatch) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	if patch.Email != nil {
		email := storage.NormalizeEmail(*patch.Email)
		if owner, taken := s.usersByEmail[email]; taken && owner != id {
			return nil, storage.ErrEmailTaken()
		}
		delete(s.usersByEmail, u.Email)
		u.Email = email
		s.usersByEmail[email] = id
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = *patch.PasswordHash
	}
	if patch.Role != nil {
		u.Role = *patch.Role
	}
	if patch.Status != nil {
		u.Status = *patch.Status
	}
	u.UpdatedAt = s.now()
	s.users[id] = u
	return cloneUser(u), nil
}

func (s *Store) ListUsers(_ context.Context, page storage.Page) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.users, cloneUser, nil)
	newestFirst(out, func(u *models.User) time.Time { return u.CreatedAt })
	return paginate(out, page), nil
}

func (s *Store) CreateProfile(_ context.Context, in storage.NewProfile) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.profiles[in.UserID]; exists {
		return nil, models.NewValidationError("profile already exists for user")
	}
	now := s.now()
	p := models.Profile{
		ID:          storage.NewID(),
		UserID:      in.UserID,
		DisplayName: in.DisplayName,
		Bio:         in.Bio,
		Location:    in.Location,
		Vehicle:     in.Vehicle,
		AvatarURL:   in.AvatarURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.profiles[in.UserID] = p
	return cloneProfile(p), nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return cloneProfile(p), nil
}

func (s *Store) UpdateProfile(_ context.Context, userID string, patch storage.ProfilePatch) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	if patch.DisplayName != nil {
		p.DisplayName = *patch.DisplayName
	}
	if patch.Bio != nil {
		p.Bio = *patch.Bio
	}
	if patch.Location != nil {
		p.Location = *patch.Location
	}
	if patch.Vehicle != nil {
		p.Vehicle = *patch.Vehicle
	}
	if patch.AvatarURL != nil {
		p.AvatarURL = *patch.AvatarURL
	}
	p.UpdatedAt = s.now()
	s.profiles[userID] = p
	return cloneProfile(p), nil
}

func (s *Store) ListProfiles(_ context.Context, userIDs []string) ([]models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Profile, 0, len(userIDs))
	seen := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := s.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
