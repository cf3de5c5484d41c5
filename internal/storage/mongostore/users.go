package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

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
	if _, err := s.c(colUsers).InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, storage.ErrEmailTaken()
		}
		return nil, s.wrap("create_user", err)
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := findOne[models.User](ctx, s.c(colUsers), byID(id))
	return u, s.wrap("get_user", err)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := findOne[models.User](ctx, s.c(colUsers), bson.M{"email": storage.NormalizeEmail(email)})
	return u, s.wrap("get_user_by_email", err)
}

func (s *Store) UpdateUser(ctx context.Context, id string, p storage.UserPatch) (*models.User, error) {
	set := bson.M{}
	if p.Email != nil {
		email := storage.NormalizeEmail(*p.Email)
		owner, err := findOne[models.User](ctx, s.c(colUsers), bson.M{"email": email})
		if err != nil {
			return nil, s.wrap("update_user", err)
		}
		if owner != nil && owner.ID != id {
			return nil, storage.ErrEmailTaken()
		}
		set["email"] = email
	}
	if p.PasswordHash != nil {
		set["password_hash"] = *p.PasswordHash
	}
	if p.Role != nil {
		set["role"] = *p.Role
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	u, err := patch[models.User](s, ctx, colUsers, "update_user", byID(id), set)
	if err != nil && p.Email != nil && mongo.IsDuplicateKeyError(err) {
		return nil, storage.ErrEmailTaken()
	}
	return u, err
}

func (s *Store) ListUsers(ctx context.Context, page storage.Page) ([]models.User, error) {
	out, err := findPage[models.User](ctx, s.c(colUsers), bson.M{}, newestFirst, page)
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
	if _, err := s.c(colProfiles).InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, models.NewValidationError("profile already exists for user")
		}
		return nil, s.wrap("create_profile", err)
	}
	return &p, nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := findOne[models.Profile](ctx, s.c(colProfiles), bson.M{"user_id": userID})
	return p, s.wrap("get_profile", err)
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, p storage.ProfilePatch) (*models.Profile, error) {
	set := bson.M{}
	if p.DisplayName != nil {
		set["display_name"] = *p.DisplayName
	}
	if p.Bio != nil {
		set["bio"] = *p.Bio
	}
	if p.Location != nil {
		set["location"] = *p.Location
	}
	if p.Vehicle != nil {
		set["vehicle"] = *p.Vehicle
	}
	if p.AvatarURL != nil {
		set["avatar_url"] = *p.AvatarURL
	}
	return patch[models.Profile](s, ctx, colProfiles, "update_profile", bson.M{"user_id": userID}, set)
}

func (s *Store) ListProfiles(ctx context.Context, userIDs []string) ([]models.Profile, error) {
	if len(userIDs) == 0 {
		return []models.Profile{}, nil
	}
	out, err := findAll[models.Profile](ctx, s.c(colProfiles), bson.M{"user_id": bson.M{"$in": userIDs}})
	return out, s.wrap("list_profiles", err)
}
