package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

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
	if _, err := s.c(colCommunities).InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, storage.ErrSlugTaken(slug)
		}
		return nil, s.wrap("create_community", err)
	}
	return &c, nil
}

func (s *Store) GetCommunity(ctx context.Context, id string) (*models.Community, error) {
	c, err := findOne[models.Community](ctx, s.c(colCommunities), byID(id))
	return c, s.wrap("get_community", err)
}

func (s *Store) GetCommunityBySlug(ctx context.Context, slug string) (*models.Community, error) {
	c, err := findOne[models.Community](ctx, s.c(colCommunities), bson.M{"slug": storage.NormalizeSlug(slug)})
	return c, s.wrap("get_community_by_slug", err)
}

func (s *Store) ListCommunities(ctx context.Context, f storage.CommunityFilter) ([]models.Community, error) {
	filter := bson.M{}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	out, err := findPage[models.Community](ctx, s.c(colCommunities), filter, newestFirst, f.Page)
	return out, s.wrap("list_communities", err)
}

func (s *Store) UpdateCommunity(ctx context.Context, id string, p storage.CommunityPatch) (*models.Community, error) {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Type != nil {
		set["type"] = *p.Type
	}
	return patch[models.Community](s, ctx, colCommunities, "update_community", byID(id), set)
}

func (s *Store) DeleteCommunity(ctx context.Context, id string) (bool, error) {
	res, err := s.c(colCommunities).DeleteOne(ctx, byID(id))
	if err != nil {
		return false, s.wrap("delete_community", err)
	}
	if _, err := s.c(colMembers).DeleteMany(ctx, bson.M{"community_id": id}); err != nil {
		return res.DeletedCount > 0, s.wrap("delete_community", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) JoinCommunity(ctx context.Context, communityID, userID string) (*models.CommunityMember, error) {
	c, err := findOne[models.Community](ctx, s.c(colCommunities), byID(communityID))
	if err != nil || c == nil {
		return nil, s.wrap("join_community", err)
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
	inserted, err := s.insertOnce(ctx, colMembers, m)
	if err != nil {
		return nil, s.wrap("join_community", err)
	}
	if !inserted {
		existing, err := findOne[models.CommunityMember](ctx, s.c(colMembers), memberPair(communityID, userID))
		return existing, s.wrap("join_community", err)
	}
	if err := s.adjust(ctx, colCommunities, byID(communityID), "members_count", 1); err != nil {
		return nil, s.wrap("join_community", err)
	}
	return &m, nil
}

func memberPair(communityID, userID string) bson.M {
	return bson.M{"community_id": communityID, "user_id": userID}
}

func (s *Store) LeaveCommunity(ctx context.Context, communityID, userID string) (bool, error) {
	res, err := s.c(colMembers).DeleteMany(ctx, memberPair(communityID, userID))
	if err != nil {
		return false, s.wrap("leave_community", err)
	}
	if res.DeletedCount == 0 {
		return false, nil
	}
	err = s.adjust(ctx, colCommunities, byID(communityID), "members_count", -int(res.DeletedCount))
	return true, s.wrap("leave_community", err)
}

func (s *Store) IsCommunityMember(ctx context.Context, communityID, userID string) (bool, error) {
	n, err := s.c(colMembers).CountDocuments(ctx, memberPair(communityID, userID))
	return n > 0, s.wrap("is_community_member", err)
}

func (s *Store) ListCommunityMembers(ctx context.Context, communityID string, page storage.Page) ([]models.CommunityMember, error) {
	out, err := findPage[models.CommunityMember](ctx, s.c(colMembers), bson.M{"community_id": communityID},
		bson.D{{Key: "joined_at", Value: -1}}, page)
	return out, s.wrap("list_community_members", err)
}

func (s *Store) ListUserCommunities(ctx context.Context, userID string) ([]models.Community, error) {
	ids, err := s.c(colMembers).Distinct(ctx, "community_id", bson.M{"user_id": userID})
	if err != nil {
		return nil, s.wrap("list_user_communities", err)
	}
	if len(ids) == 0 {
		return []models.Community{}, nil
	}
	out, err := findAll[models.Community](ctx, s.c(colCommunities), bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(newestFirst))
	return out, s.wrap("list_user_communities", err)
}
