package memory

import (
	"context"

	"evcircle/internal/models"
)

func (s *Store) RecountCounters(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	followers := map[string]int{}
	following := map[string]int{}
	for _, f := range s.follows {
		followers[f.FollowingID]++
		following[f.FollowerID]++
	}
	for id, p := range s.profiles {
		p.FollowersCount = followers[id]
		p.FollowingCount = following[id]
		s.profiles[id] = p
	}

	comments := map[string]int{}
	for _, c := range s.comments {
		comments[c.PostID]++
	}
	for id, p := range s.posts {
		p.CommentsCount = comments[id]
		s.posts[id] = p
	}

	members := map[string]int{}
	for _, m := range s.members {
		members[m.CommunityID]++
	}
	for id, c := range s.communities {
		c.MembersCount = members[id]
		s.communities[id] = c
	}

	bookmarks := map[string]int{}
	for _, b := range s.bookmarks {
		if b.Target.Kind == models.TargetStation {
			bookmarks[b.Target.ID]++
		}
	}
	for id, st := range s.stations {
		st.BookmarksCount = bookmarks[id]
		s.stations[id] = st
	}

	answers := map[string]int{}
	for _, a := range s.answers {
		answers[a.QuestionID]++
	}
	for id, q := range s.questions {
		q.AnswersCount = answers[id]
		s.questions[id] = q
	}

	articleComments := map[string]int{}
	for _, c := range s.articleComments {
		articleComments[c.ArticleID]++
	}
	for id, a := range s.articles {
		a.CommentsCount = articleComments[id]
		s.articles[id] = a
	}
	return nil
}
