package service

import (
	"context"
	"strings"

	"evcircle/internal/models"
	"evcircle/internal/storage"
	"evcircle/internal/validation"
)

const (
	maxPostLen    = 5000
	maxCommentLen = 2000
	maxMediaItems = 10
)

type PostService struct {
	store  storage.Storage
	notify *NotificationService
}

func NewPostService(store storage.Storage, notify *NotificationService) *PostService {
	return &PostService{store: store, notify: notify}
}

type CreatePostInput struct {
	Text        string
	Media       []string
	CommunityID *string
}

type UpdatePostInput struct {
	Text  *string
	Media *[]string
}

func validateMedia(media []string) error {
	if len(media) > maxMediaItems {
		return models.NewValidationError("Too many media items (max 10)")
	}
	for _, m := range media {
		if strings.TrimSpace(m) == "" {
			return models.NewValidationError("Media URLs must not be empty")
		}
	}
	return nil
}

func (s *PostService) CreatePost(ctx context.Context, actor Actor, in CreatePostInput) (*models.Post, error) {
	text := strings.TrimSpace(in.Text)
	if err := validation.ValidateRequired("text", text, maxPostLen); err != nil {
		return nil, invalid(err)
	}
	if err := validateMedia(in.Media); err != nil {
		return nil, err
	}

	if in.CommunityID != nil && *in.CommunityID != "" {
		community, err := s.store.GetCommunity(ctx, *in.CommunityID)
		if err != nil {
			return nil, err
		}
		if community == nil {
			return nil, models.NewNotFoundError("Community", *in.CommunityID)
		}
		member, err := s.store.IsCommunityMember(ctx, community.ID, actor.ID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, models.NewForbiddenError("Join the community before posting in it")
		}
	} else {
		in.CommunityID = nil
	}

	return s.store.CreatePost(ctx, storage.NewPost{
		AuthorID:    actor.ID,
		CommunityID: in.CommunityID,
		Text:        text,
		Media:       in.Media,
	})
}

func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, filter storage.PostFilter) ([]models.Post, error) {
	return s.store.ListPosts(ctx, filter)
}

// Feed lists posts by the user and everyone they follow.
func (s *PostService) Feed(ctx context.Context, userID string, page storage.Page) ([]models.Post, error) {
	authors := []string{userID}
	offset := 0
	for {
		following, err := s.store.ListFollowing(ctx, userID, storage.Page{Limit: storage.MaxPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, f := range following {
			authors = append(authors, f.FollowingID)
		}
		if len(following) < storage.MaxPageSize {
			break
		}
		offset += len(following)
	}
	return s.store.ListPosts(ctx, storage.PostFilter{AuthorIDs: authors, Page: page})
}

func (s *PostService) UpdatePost(ctx context.Context, actor Actor, id string, in UpdatePostInput) (*models.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != actor.ID {
		return nil, models.NewForbiddenError("Only the author can edit this post")
	}

	patch := storage.PostPatch{Text: trimmed(in.Text), Media: in.Media}
	if patch.Text != nil {
		if err := validation.ValidateRequired("text", *patch.Text, maxPostLen); err != nil {
			return nil, invalid(err)
		}
	}
	if patch.Media != nil {
		if err := validateMedia(*patch.Media); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.UpdatePost(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, models.NewNotFoundError("Post", id)
	}
	return updated, nil
}

func (s *PostService) DeletePost(ctx context.Context, actor Actor, id string) error {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if err := authorOrModerator(actor, post.AuthorID, "delete this post"); err != nil {
		return err
	}
	deleted, err := s.store.DeletePost(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Post", id)
	}
	if actor.ID != post.AuthorID {
		auditRemoval(ctx, s.store, actor, models.NewTarget(models.TargetPost, id), post.AuthorID)
	}
	return nil
}

// ToggleLike likes or unlikes a post. A new like notifies the author.
func (s *PostService) ToggleLike(ctx context.Context, actor Actor, id string) (*models.Post, error) {
	post, err := s.store.TogglePostLike(ctx, id, actor.ID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", id)
	}
	if post.LikedBy(actor.ID) {
		s.notify.notifyQuietly(ctx, storage.NewNotification{
			UserID:  post.AuthorID,
			Type:    models.NotifyPostLike,
			ActorID: actor.ID,
			Target:  models.NewTarget(models.TargetPost, post.ID),
			Message: "liked your post",
		})
	}
	return post, nil
}

func (s *PostService) CreateComment(ctx context.Context, actor Actor, postID, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if err := validation.ValidateRequired("text", text, maxCommentLen); err != nil {
		return nil, invalid(err)
	}
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	comment, err := s.store.CreateComment(ctx, storage.NewComment{PostID: postID, AuthorID: actor.ID, Text: text})
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, models.NewNotFoundError("Post", postID)
	}
	s.notify.notifyQuietly(ctx, storage.NewNotification{
		UserID:  post.AuthorID,
		Type:    models.NotifyComment,
		ActorID: actor.ID,
		Target:  models.NewTarget(models.TargetPost, post.ID),
		Message: "commented on your post",
	})
	return comment, nil
}

func (s *PostService) ListComments(ctx context.Context, postID string, page storage.Page) ([]models.Comment, error) {
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	return s.store.ListComments(ctx, postID, page)
}

// DeleteComment is allowed for the comment author, the post author and
// moderators.
func (s *PostService) DeleteComment(ctx context.Context, actor Actor, id string) error {
	comment, err := s.store.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if comment == nil {
		return models.NewNotFoundError("Comment", id)
	}
	allowed := comment.AuthorID == actor.ID || actor.CanModerate()
	if !allowed {
		post, err := s.store.GetPost(ctx, comment.PostID)
		if err != nil {
			return err
		}
		allowed = post != nil && post.AuthorID == actor.ID
	}
	if !allowed {
		return models.NewForbiddenError("You are not allowed to delete this comment")
	}
	deleted, err := s.store.DeleteComment(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Comment", id)
	}
	if actor.ID != comment.AuthorID && actor.CanModerate() {
		auditRemoval(ctx, s.store, actor, models.NewTarget(models.TargetComment, id), comment.AuthorID)
	}
	return nil
}
