package sqlstore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) CreateCommunity(ctx context.Context, in storage.NewCommunity) (*models.Community, error) {
	slug := storage.NormalizeSlug(in.Slug)
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
	err := s.tx(ctx, "create_community", func(tx *gorm.DB) error {
		existing, err := take[models.Community](tx, "slug = ?", slug)
		if err != nil {
			return err
		}
		if existing != nil {
			return storage.ErrSlugTaken(slug)
		}
		if err := tx.Create(&c).Error; err != nil {
			if isDuplicate(err) {
				return storage.ErrSlugTaken(slug)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetCommunity(ctx context.Context, id string) (*models.Community, error) {
	c, err := take[models.Community](s.conn(ctx), "id = ?", id)
	return c, s.wrap("get_community", err)
}

func (s *Store) GetCommunityBySlug(ctx context.Context, slug string) (*models.Community, error) {
	c, err := take[models.Community](s.conn(ctx), "slug = ?", storage.NormalizeSlug(slug))
	return c, s.wrap("get_community_by_slug", err)
}

func (s *Store) ListCommunities(ctx context.Context, f storage.CommunityFilter) ([]models.Community, error) {
	q := s.conn(ctx).Order("created_at DESC")
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	out, err := findPage[models.Community](q, f.Page)
	return out, s.wrap("list_communities", err)
}

func (s *Store) UpdateCommunity(ctx context.Context, id string, patch storage.CommunityPatch) (*models.Community, error) {
	updates := map[string]interface{}{}
	if patch.Name != nil {
		updates["name"] = *patch.Name
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.Type != nil {
		updates["type"] = *patch.Type
	}
	return patchRow[models.Community](s, ctx, "update_community", "id", id, updates)
}

func (s *Store) DeleteCommunity(ctx context.Context, id string) (bool, error) {
	deleted := false
	err := s.tx(ctx, "delete_community", func(tx *gorm.DB) error {
		if err := tx.Where("community_id = ?", id).Delete(&models.CommunityMember{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Community{})
		deleted = res.RowsAffected > 0
		return res.Error
	})
	return deleted, err
}

func (s *Store) JoinCommunity(ctx context.Context, communityID, userID string) (*models.CommunityMember, error) {
	var out *models.CommunityMember
	err := s.tx(ctx, "join_community", func(tx *gorm.DB) error {
		c, err := take[models.Community](tx, "id = ?", communityID)
		if err != nil || c == nil {
			return err
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
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&m)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			if err := adjust(tx, &models.Community{}, "members_count", 1, "id = ?", communityID); err != nil {
				return err
			}
		}
		out, err = take[models.CommunityMember](tx, "community_id = ? AND user_id = ?", communityID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) LeaveCommunity(ctx context.Context, communityID, userID string) (bool, error) {
	left := false
	err := s.tx(ctx, "leave_community", func(tx *gorm.DB) error {
		res := tx.Where("community_id = ? AND user_id = ?", communityID, userID).Delete(&models.CommunityMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		left = true
		return adjust(tx, &models.Community{}, "members_count", -int(res.RowsAffected), "id = ?", communityID)
	})
	return left, err
}

func (s *Store) IsCommunityMember(ctx context.Context, communityID, userID string) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).Count(&n).Error
	return n > 0, s.wrap("is_community_member", err)
}

func (s *Store) ListCommunityMembers(ctx context.Context, communityID string, page storage.Page) ([]models.CommunityMember, error) {
	out, err := findPage[models.CommunityMember](
		s.conn(ctx).Where("community_id = ?", communityID).Order("joined_at DESC"), page)
	return out, s.wrap("list_community_members", err)
}

func (s *Store) ListUserCommunities(ctx context.Context, userID string) ([]models.Community, error) {
	db := s.conn(ctx)
	joined := db.Model(&models.CommunityMember{}).Select("community_id").Where("user_id = ?", userID)
	out, err := findAll[models.Community](db.Where("id IN (?)", joined).Order("created_at DESC"))
	return out, s.wrap("list_user_communities", err)
}
