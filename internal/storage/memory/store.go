// Package memory is a process-local storage backend. All state lives in maps
// guarded by a single RWMutex; compound operations run under one write lock.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"

	"evcircle/internal/models"
	"evcircle/internal/storage"
)

// Store implements storage.Storage in memory.
type Store struct {
	mu   sync.RWMutex
	last time.Time

	users        map[string]models.User
	usersByEmail map[string]string
	profiles     map[string]models.Profile // keyed by user id

	posts    map[string]models.Post
	comments map[string]models.Comment

	communities    map[string]models.Community
	communitySlugs map[string]string
	members        map[string]models.CommunityMember
	memberIndex    map[string]string

	stations      map[string]models.Station
	bookmarks     map[string]models.Bookmark
	bookmarkIndex map[string]string

	questions map[string]models.Question
	answers   map[string]models.Answer

	articles        map[string]models.Article
	articleComments map[string]models.ArticleComment

	reports   map[string]models.Report
	auditLogs []models.AuditLog

	follows     map[string]models.UserFollow
	followIndex map[string]string
	blocks      map[string]models.UserBlock
	blockIndex  map[string]string

	notifications map[string]models.Notification

	conversations map[string]models.Conversation
	pairIndex     map[string]string
	messages      map[string]models.Message
}

var _ storage.Storage = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:           make(map[string]models.User),
		usersByEmail:    make(map[string]string),
		profiles:        make(map[string]models.Profile),
		posts:           make(map[string]models.Post),
		comments:        make(map[string]models.Comment),
		communities:     make(map[string]models.Community),
		communitySlugs:  make(map[string]string),
		members:         make(map[string]models.CommunityMember),
		memberIndex:     make(map[string]string),
		stations:        make(map[string]models.Station),
		bookmarks:       make(map[string]models.Bookmark),
		bookmarkIndex:   make(map[string]string),
		questions:       make(map[string]models.Question),
		answers:         make(map[string]models.Answer),
		articles:        make(map[string]models.Article),
		articleComments: make(map[string]models.ArticleComment),
		reports:         make(map[string]models.Report),
		follows:         make(map[string]models.UserFollow),
		followIndex:     make(map[string]string),
		blocks:          make(map[string]models.UserBlock),
		blockIndex:      make(map[string]string),
		notifications:   make(map[string]models.Notification),
		conversations:   make(map[string]models.Conversation),
		pairIndex:       make(map[string]string),
		messages:        make(map[string]models.Message),
	}
}

func (s *Store) Backend() string { return "memory" }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close(context.Context) error { return nil }

// now returns a strictly increasing timestamp so listings order
// deterministically. Callers must hold the write lock.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func pairKey(parts ...string) string {
	key := ""
	for i, p := range parts {
		if i > 0 {
			key += "|"
		}
		key += p
	}
	return key
}

func newestFirst[T any](items []T, at func(*T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return at(&items[i]).After(at(&items[j]))
	})
}

func oldestFirst[T any](items []T, at func(*T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return at(&items[i]).Before(at(&items[j]))
	})
}

func paginate[T any](items []T, page storage.Page) []T {
	start, end := page.Window(len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

func limitTo[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func strList(in []string) datatypes.JSONSlice[string] {
	return datatypes.JSONSlice[string](storage.StringsOrEmpty(in))
}

func strPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func timePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func addCount(n *int, delta int) {
	*n = storage.Floor(*n + delta)
}
