package memory

import (
	"context"
	"time"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

func (s *Store) CreatePost(_ context.Context, in storage.NewPost) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := models.Post{
		ID:          storage.NewID(),
		AuthorID:    in.AuthorID,
		CommunityID: strPtr(in.CommunityID),
		Text:        in.Text,
		Media:       strList(in.Media),
		Likes:       strList(nil),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.posts[p.ID] = p
	return clonePost(p), nil
}

func (s *Store) GetPost(_ context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	return clonePost(p), nil
}

func (s *Store) ListPosts(_ context.Context, f storage.PostFilter) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var authors map[string]bool
	if len(f.AuthorIDs) > 0 {
		authors = make(map[string]bool, len(f.AuthorIDs))
		for _, id := range f.AuthorIDs {
			authors[id] = true
		}
	}
	out := values(s.posts, clonePost, func(p *models.Post) bool {
		if f.AuthorID != "" && p.AuthorID != f.AuthorID {
			return false
		}
		if authors != nil && !authors[p.AuthorID] {
			return false
		}
		if f.CommunityID != "" && (p.CommunityID == nil || *p.CommunityID != f.CommunityID) {
			return false
		}
		return true
	})
	newestFirst(out, func(p *models.Post) time.Time { return p.CreatedAt })
	return paginate(out, f.Page), nil
}

func (s *Store) UpdatePost(_ context.Context, id string, patch storage.PostPatch) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	if patch.Text != nil {
		p.Text = *patch.Text
	}
	if patch.Media != nil {
		p.Media = strList(*patch.Media)
	}
	p.UpdatedAt = s.now()
	s.posts[id] = p
	return clonePost(p), nil
}

func (s *Store) DeletePost(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return false, nil
	}
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	s.dropBookmarksLocked(models.NewTarget(models.TargetPost, id))
	delete(s.posts, id)
	return true, nil
}

func (s *Store) TogglePostLike(_ context.Context, postID, userID string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, nil
	}
	p.Likes = strList(storage.ToggleID(p.Likes, userID))
	s.posts[postID] = p
	return clonePost(p), nil
}

func (s *Store) CreateComment(_ context.Context, in storage.NewComment) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[in.PostID]
	if !ok {
		return nil, nil
	}
	now := s.now()
	c := models.Comment{
		ID:        storage.NewID(),
		PostID:    in.PostID,
		AuthorID:  in.AuthorID,
		Text:      in.Text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.comments[c.ID] = c
	addCount(&p.CommentsCount, 1)
	s.posts[p.ID] = p
	return cloneComment(c), nil
}

func (s *Store) GetComment(_ context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, nil
	}
	return cloneComment(c), nil
}

func (s *Store) ListComments(_ context.Context, postID string, page storage.Page) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := values(s.comments, cloneComment, func(c *models.Comment) bool { return c.PostID == postID })
	newestFirst(out, func(c *models.Comment) time.Time { return c.CreatedAt })
	return paginate(out, page), nil
}

func (s *Store) DeleteComment(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.comments[id]
	if !ok {
		return false, nil
	}
	delete(s.comments, id)
	if p, ok := s.posts[c.PostID]; ok {
		addCount(&p.CommentsCount, -1)
		s.posts[p.ID] = p
	}
	return true, nil
}
