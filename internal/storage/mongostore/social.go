package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func followPair(followerID, followingID string) bson.M {
	return bson.M{"follower_id": followerID, "following_id": followingID}
}

func (s *Store) FollowUser(ctx context.Context, followerID, followingID string) (*models.UserFollow, error) {
	f := models.UserFollow{
		ID:          storage.NewID(),
		FollowerID:  followerID,
		FollowingID: followingID,
		CreatedAt:   s.now(),
	}
	inserted, err := s.insertOnce(ctx, colFollows, f)
	if err != nil {
		return nil, s.wrap("follow_user", err)
	}
	if !inserted {
		existing, err := findOne[models.UserFollow](ctx, s.c(colFollows), followPair(followerID, followingID))
		return existing, s.wrap("follow_user", err)
	}
	if err := s.followCounts(ctx, followerID, followingID, 1); err != nil {
		return nil, s.wrap("follow_user", err)
	}
	return &f, nil
}

func (s *Store) UnfollowUser(ctx context.Context, followerID, followingID string) (bool, error) {
	removed, err := s.unfollow(ctx, followerID, followingID)
	return removed, s.wrap("unfollow_user", err)
}

func (s *Store) unfollow(ctx context.Context, followerID, followingID string) (bool, error) {
	res, err := s.c(colFollows).DeleteOne(ctx, followPair(followerID, followingID))
	if err != nil || res.DeletedCount == 0 {
		return false, err
	}
	return true, s.followCounts(ctx, followerID, followingID, -1)
}

func (s *Store) followCounts(ctx context.Context, followerID, followingID string, delta int) error {
	if err := s.adjust(ctx, colProfiles, bson.M{"user_id": followerID}, "following_count", delta); err != nil {
		return err
	}
	return s.adjust(ctx, colProfiles, bson.M{"user_id": followingID}, "followers_count", delta)
}

func (s *Store) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	n, err := s.c(colFollows).CountDocuments(ctx, followPair(followerID, followingID))
	return n > 0, s.wrap("is_following", err)
}

func (s *Store) ListFollowers(ctx context.Context, userID string, page storage.Page) ([]models.UserFollow, error) {
	out, err := findPage[models.UserFollow](ctx, s.c(colFollows), bson.M{"following_id": userID}, newestFirst, page)
	return out, s.wrap("list_followers", err)
}

func (s *Store) ListFollowing(ctx context.Context, userID string, page storage.Page) ([]models.UserFollow, error) {
	out, err := findPage[models.UserFollow](ctx, s.c(colFollows), bson.M{"follower_id": userID}, newestFirst, page)
	return out, s.wrap("list_following", err)
}

func blockPair(blockerID, blockedID string) bson.M {
	return bson.M{"blocker_id": blockerID, "blocked_id": blockedID}
}

func (s *Store) BlockUser(ctx context.Context, blockerID, blockedID string) (*models.UserBlock, error) {
	b := models.UserBlock{
		ID:        storage.NewID(),
		BlockerID: blockerID,
		BlockedID: blockedID,
		CreatedAt: s.now(),
	}
	inserted, err := s.insertOnce(ctx, colBlocks, b)
	if err != nil {
		return nil, s.wrap("block_user", err)
	}
	if _, err := s.unfollow(ctx, blockerID, blockedID); err != nil {
		return nil, s.wrap("block_user", err)
	}
	if _, err := s.unfollow(ctx, blockedID, blockerID); err != nil {
		return nil, s.wrap("block_user", err)
	}
	if inserted {
		return &b, nil
	}
	existing, err := findOne[models.UserBlock](ctx, s.c(colBlocks), blockPair(blockerID, blockedID))
	return existing, s.wrap("block_user", err)
}

func (s *Store) UnblockUser(ctx context.Context, blockerID, blockedID string) (bool, error) {
	res, err := s.c(colBlocks).DeleteOne(ctx, blockPair(blockerID, blockedID))
	if err != nil {
		return false, s.wrap("unblock_user", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) IsBlocked(ctx context.Context, a, b string) (bool, error) {
	n, err := s.c(colBlocks).CountDocuments(ctx, bson.M{"$or": bson.A{blockPair(a, b), blockPair(b, a)}})
	return n > 0, s.wrap("is_blocked", err)
}

func (s *Store) ListBlocked(ctx context.Context, blockerID string) ([]models.UserBlock, error) {
	out, err := findAll[models.UserBlock](ctx, s.c(colBlocks), bson.M{"blocker_id": blockerID},
		options.Find().SetSort(newestFirst))
	return out, s.wrap("list_blocked", err)
}
