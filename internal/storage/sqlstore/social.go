package sqlstore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) FollowUser(ctx context.Context, followerID, followingID string) (*models.UserFollow, error) {
	var out *models.UserFollow
	err := s.tx(ctx, "follow_user", func(tx *gorm.DB) error {
		f := models.UserFollow{
			ID:          storage.NewID(),
			FollowerID:  followerID,
			FollowingID: followingID,
			CreatedAt:   s.now(),
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
			DoNothing: true,
		}).Create(&f)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			if err := followCounts(tx, followerID, followingID, 1); err != nil {
				return err
			}
		}
		var err error
		out, err = take[models.UserFollow](tx, "follower_id = ? AND following_id = ?", followerID, followingID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UnfollowUser(ctx context.Context, followerID, followingID string) (bool, error) {
	removed := false
	err := s.tx(ctx, "unfollow_user", func(tx *gorm.DB) error {
		var err error
		removed, err = unfollow(tx, followerID, followingID)
		return err
	})
	return removed, err
}

func unfollow(tx *gorm.DB, followerID, followingID string) (bool, error) {
	res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.UserFollow{})
	if res.Error != nil || res.RowsAffected == 0 {
		return false, res.Error
	}
	return true, followCounts(tx, followerID, followingID, -1)
}

func followCounts(tx *gorm.DB, followerID, followingID string, delta int) error {
	if err := adjust(tx, &models.Profile{}, "following_count", delta, "user_id = ?", followerID); err != nil {
		return err
	}
	return adjust(tx, &models.Profile{}, "followers_count", delta, "user_id = ?", followingID)
}

func (s *Store) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.UserFollow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).Count(&n).Error
	return n > 0, s.wrap("is_following", err)
}

func (s *Store) ListFollowers(ctx context.Context, userID string, page storage.Page) ([]models.UserFollow, error) {
	out, err := findPage[models.UserFollow](s.conn(ctx).Where("following_id = ?", userID).Order("created_at DESC"), page)
	return out, s.wrap("list_followers", err)
}

func (s *Store) ListFollowing(ctx context.Context, userID string, page storage.Page) ([]models.UserFollow, error) {
	out, err := findPage[models.UserFollow](s.conn(ctx).Where("follower_id = ?", userID).Order("created_at DESC"), page)
	return out, s.wrap("list_following", err)
}

func (s *Store) BlockUser(ctx context.Context, blockerID, blockedID string) (*models.UserBlock, error) {
	var out *models.UserBlock
	err := s.tx(ctx, "block_user", func(tx *gorm.DB) error {
		b := models.UserBlock{
			ID:        storage.NewID(),
			BlockerID: blockerID,
			BlockedID: blockedID,
			CreatedAt: s.now(),
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
			DoNothing: true,
		}).Create(&b)
		if res.Error != nil {
			return res.Error
		}
		if _, err := unfollow(tx, blockerID, blockedID); err != nil {
			return err
		}
		if _, err := unfollow(tx, blockedID, blockerID); err != nil {
			return err
		}
		var err error
		out, err = take[models.UserBlock](tx, "blocker_id = ? AND blocked_id = ?", blockerID, blockedID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) UnblockUser(ctx context.Context, blockerID, blockedID string) (bool, error) {
	res := s.conn(ctx).Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).Delete(&models.UserBlock{})
	return res.RowsAffected > 0, s.wrap("unblock_user", res.Error)
}

func (s *Store) IsBlocked(ctx context.Context, a, b string) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&models.UserBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&n).Error
	return n > 0, s.wrap("is_blocked", err)
}

func (s *Store) ListBlocked(ctx context.Context, blockerID string) ([]models.UserBlock, error) {
	out, err := findAll[models.UserBlock](s.conn(ctx).Where("blocker_id = ?", blockerID).Order("created_at DESC"))
	return out, s.wrap("list_blocked", err)
}
