package storage

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"evcircle/internal/models"
)

const (
	// SuggestLimit caps each category for live suggestions.
	SuggestLimit = 5
	// FullLimit caps each category on the full results page.
	FullLimit = 20
	// MaxSearchLimit is the largest per-category limit a caller may request.
	MaxSearchLimit = 50

	snippetLead  = 40
	snippetWidth = 160
)

// SearchSource is what the aggregation needs from a backend.
type SearchSource interface {
	SearchStore
	ListProfiles(ctx context.Context, userIDs []string) ([]models.Profile, error)
}

// PostHit is a matched post with a window of text around the match.
type PostHit struct {
	models.Post
	Snippet string `json:"snippet"`
}

// UserHit is one row per matched user, merged from profile and email hits.
// Email is only a match key and never part of the hit.
type UserHit struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// SearchResults groups hits by category.
type SearchResults struct {
	Query       string             `json:"query"`
	Communities []models.Community `json:"communities"`
	Posts       []PostHit          `json:"posts"`
	Stations    []models.Station   `json:"stations"`
	Users       []UserHit          `json:"users"`
}

func emptyResults(query string) *SearchResults {
	return &SearchResults{
		Query:       query,
		Communities: []models.Community{},
		Posts:       []PostHit{},
		Stations:    []models.Station{},
		Users:       []UserHit{},
	}
}

// ClampSearchLimit bounds a requested per-category limit.
func ClampSearchLimit(limit int) int {
	if limit <= 0 {
		return FullLimit
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}

// Search runs the four category searches concurrently. A blank query returns
// empty categories without touching the backend.
func Search(ctx context.Context, src SearchSource, query string, limit int) (*SearchResults, error) {
	term := strings.TrimSpace(query)
	res := emptyResults(term)
	if term == "" {
		return res, nil
	}
	limit = ClampSearchLimit(limit)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		communities, err := src.SearchCommunities(gctx, term, limit)
		if err != nil {
			return err
		}
		res.Communities = append(res.Communities, communities...)
		return nil
	})
	g.Go(func() error {
		posts, err := src.SearchPosts(gctx, term, limit)
		if err != nil {
			return err
		}
		for _, p := range posts {
			res.Posts = append(res.Posts, PostHit{Post: p, Snippet: Snippet(p.Text, term)})
		}
		return nil
	})
	g.Go(func() error {
		stations, err := src.SearchStations(gctx, term, limit)
		if err != nil {
			return err
		}
		res.Stations = append(res.Stations, stations...)
		return nil
	})
	g.Go(func() error {
		users, err := searchUsers(gctx, src, term, limit)
		if err != nil {
			return err
		}
		res.Users = users
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func searchUsers(ctx context.Context, src SearchSource, term string, limit int) ([]UserHit, error) {
	profiles, err := src.SearchProfiles(ctx, term, limit)
	if err != nil {
		return nil, err
	}
	users, err := src.SearchUsersByEmail(ctx, term, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]UserHit, 0, limit)
	index := make(map[string]int, limit)
	for _, p := range profiles {
		if _, seen := index[p.UserID]; seen {
			continue
		}
		index[p.UserID] = len(hits)
		hits = append(hits, UserHit{UserID: p.UserID, DisplayName: p.DisplayName, AvatarURL: p.AvatarURL})
	}

	var missing []string
	for _, u := range users {
		if _, seen := index[u.ID]; seen {
			continue
		}
		index[u.ID] = len(hits)
		hits = append(hits, UserHit{UserID: u.ID})
		missing = append(missing, u.ID)
	}

	if len(missing) > 0 {
		extra, err := src.ListProfiles(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, p := range extra {
			i := index[p.UserID]
			hits[i].DisplayName = p.DisplayName
			hits[i].AvatarURL = p.AvatarURL
		}
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Snippet returns up to 160 runes of text starting 40 runes before the first
// case-insensitive match of term. When term does not occur the snippet is the
// leading 160 runes.
func Snippet(text, term string) string {
	runes := []rune(text)
	idx := indexFold(runes, []rune(strings.TrimSpace(term)))
	start := 0
	if idx > snippetLead {
		start = idx - snippetLead
	}
	end := start + snippetWidth
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start:end])
}

func indexFold(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, r := range needle {
			if unicode.ToLower(haystack[i+j]) != unicode.ToLower(r) {
				continue outer
			}
		}
		return i
	}
	return -1
}
