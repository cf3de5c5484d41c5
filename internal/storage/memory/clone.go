package memory

import (
	"gorm.io/datatypes"

	"evcircle/internal/models"
)

func cloneUser(u models.User) *models.User { return &u }

func cloneProfile(p models.Profile) *models.Profile { return &p }

func clonePost(p models.Post) *models.Post {
	p.CommunityID = strPtr(p.CommunityID)
	p.Media = strList(p.Media)
	p.Likes = strList(p.Likes)
	return &p
}

func cloneComment(c models.Comment) *models.Comment { return &c }

func cloneCommunity(c models.Community) *models.Community { return &c }

func cloneMember(m models.CommunityMember) *models.CommunityMember { return &m }

func cloneStation(st models.Station) *models.Station {
	st.Connectors = strList(st.Connectors)
	return &st
}

func cloneBookmark(b models.Bookmark) *models.Bookmark { return &b }

func cloneQuestion(q models.Question) *models.Question {
	q.Tags = strList(q.Tags)
	q.Upvotes = strList(q.Upvotes)
	q.SolvedAnswerID = strPtr(q.SolvedAnswerID)
	return &q
}

func cloneAnswer(a models.Answer) *models.Answer {
	a.Upvotes = strList(a.Upvotes)
	return &a
}

func cloneArticle(a models.Article) *models.Article {
	a.Tags = strList(a.Tags)
	a.Likes = strList(a.Likes)
	return &a
}

func cloneArticleComment(c models.ArticleComment) *models.ArticleComment { return &c }

func cloneReport(r models.Report) *models.Report {
	r.HandledBy = strPtr(r.HandledBy)
	return &r
}

func cloneAuditLog(a models.AuditLog) *models.AuditLog {
	a.Metadata = cloneMap(a.Metadata)
	return &a
}

func cloneMap(in map[string]interface{}) datatypes.JSONMap {
	if in == nil {
		return nil
	}
	out := make(datatypes.JSONMap, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneNotification(n models.Notification) *models.Notification { return &n }

func cloneConversation(c models.Conversation) *models.Conversation {
	c.LastMessageAt = timePtr(c.LastMessageAt)
	return &c
}

func cloneMessage(m models.Message) *models.Message {
	m.ReadAt = timePtr(m.ReadAt)
	return &m
}

// values copies every map value through clone into a slice.
func values[T any](m map[string]T, clone func(T) *T, keep func(*T) bool) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		c := clone(v)
		if keep == nil || keep(c) {
			out = append(out, *c)
		}
	}
	return out
}
