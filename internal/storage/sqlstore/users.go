package sqlstore

import (
	"context"

	"gorm.io/gorm"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) CreateUser(ctx context.Context, in storage.NewUser) (*models.User, error) {
	in, err := storage.ValidateNewUser(in)
	if err != nil {
		return nil, err
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
	err = s.tx(ctx, "create_user", func(tx *gorm.DB) error {
		existing, err := take[models.User](tx, "email = ?", u.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return storage.ErrEmailTaken()
		}
		if err := tx.Create(&u).Error; err != nil {
			if isDuplicate(err) {
				return storage.ErrEmailTaken()
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := take[models.User](s.conn(ctx), "id = ?", id)
	return u, s.wrap("get_user", err)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := take[models.User](s.conn(ctx), "email = ?", storage.NormalizeEmail(email))
	return u, s.wrap("get_user_by_email", err)
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch storage.UserPatch) (*models.User, error) {
	updates := map[string]interface{}{}
	if patch.Email != nil {
		email := storage.NormalizeEmail(*patch.Email)
		owner, err := take[models.User](s.conn(ctx), "email = ?", email)
		if err != nil {
			return nil, s.wrap("update_user", err)
		}
		if owner != nil && owner.ID != id {
			return nil, storage.ErrEmailTaken()
		}
		updates["email"] = email
	}
	if patch.PasswordHash != nil {
		updates["password_hash"] = *patch.PasswordHash
	}
	if patch.Role != nil {
		updates["role"] = *patch.Role
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	u, err := patchRow[models.User](s, ctx, "update_user", "id", id, updates)
	if err != nil && patch.Email != nil && isDuplicate(err) {
		return nil, storage.ErrEmailTaken()
	}
	return u, err
}

func (s *Store) ListUsers(ctx context.Context, page storage.Page) ([]models.User, error) {
	out, err := findPage[models.User](s.conn(ctx).Order("created_at DESC"), page)
	return out, s.wrap("list_users", err)
}

func (s *Store) CreateProfile(ctx context.Context, in storage.NewProfile) (*models.Profile, error) {
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
	if err := s.conn(ctx).Create(&p).Error; err != nil {
		if isDuplicate(err) {
			return nil, models.NewValidationError("profile already exists for user")
		}
		return nil, s.wrap("create_profile", err)
	}
	return &p, nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := take[models.Profile](s.conn(ctx), "user_id = ?", userID)
	return p, s.wrap("get_profile", err)
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, patch storage.ProfilePatch) (*models.Profile, error) {
	updates := map[string]interface{}{}
	if patch.DisplayName != nil {
		updates["display_name"] = *patch.DisplayName
	}
	if patch.Bio != nil {
		updates["bio"] = *patch.Bio
	}
	if patch.Location != nil {
		updates["location"] = *patch.Location
	}
	if patch.Vehicle != nil {
		updates["vehicle"] = *patch.Vehicle
	}
	if patch.AvatarURL != nil {
		updates["avatar_url"] = *patch.AvatarURL
	}
	return patchRow[models.Profile](s, ctx, "update_profile", "user_id", userID, updates)
}

func (s *Store) ListProfiles(ctx context.Context, userIDs []string) ([]models.Profile, error) {
	if len(userIDs) == 0 {
		return []models.Profile{}, nil
	}
	out, err := findAll[models.Profile](s.conn(ctx).Where("user_id IN ?", userIDs))
	return out, s.wrap("list_profiles", err)
}
