// Package seed populates a storage backend with demo data for development
// and manual testing. It only talks to the storage contract, so every
// backend can be seeded the same way.
package seed

import (
	"context"
	"fmt"
	"strings"

	"evcircle/internal/middleware"
	"evcircle/internal/models"
	"evcircle/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is shared by every seeded account.
const DefaultPassword = "Charge-Point42!"

// Well-known accounts created ahead of the random users.
const (
	AdminEmail     = "admin@evcircle.dev"
	ModeratorEmail = "moderator@evcircle.dev"
)

// Options configures the seeder.
type Options struct {
	NumUsers     int
	NumPosts     int
	NumStations  int
	NumQuestions int
	// Seed makes the generated data reproducible when non-zero.
	Seed     int64
	Password string
}

// DefaultOptions is a small but well-connected dataset.
func DefaultOptions() Options {
	return Options{
		NumUsers:     25,
		NumPosts:     120,
		NumStations:  40,
		NumQuestions: 20,
		Password:     DefaultPassword,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users       int
	Communities int
	Posts       int
	Comments    int
	Follows     int
	Stations    int
	Questions   int
	Answers     int
	Articles    int
	Messages    int
}

func (s Summary) String() string {
	return fmt.Sprintf("users=%d communities=%d posts=%d comments=%d follows=%d stations=%d questions=%d answers=%d articles=%d messages=%d",
		s.Users, s.Communities, s.Posts, s.Comments, s.Follows, s.Stations, s.Questions, s.Answers, s.Articles, s.Messages)
}

// Seeder writes generated data through the storage contract.
type Seeder struct {
	store storage.Storage
	fake  *gofakeit.Faker
	opts  Options
}

// New creates a Seeder bound to store.
func New(store storage.Storage, opts Options) *Seeder {
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	return &Seeder{store: store, fake: gofakeit.New(opts.Seed), opts: opts}
}

// Run creates the full dataset. It stops at the first storage error.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	var sum Summary
	log := middleware.Logger

	hash, err := bcrypt.GenerateFromPassword([]byte(s.opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	users, err := s.createUsers(ctx, string(hash))
	if err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	sum.Users = len(users)
	log.Info("seeded users", "count", sum.Users)

	admin, moderator := users[0], users[1]

	communities, err := s.createCommunities(ctx, admin, users)
	if err != nil {
		return nil, fmt.Errorf("create communities: %w", err)
	}
	sum.Communities = len(communities)

	if sum.Follows, err = s.createFollows(ctx, users); err != nil {
		return nil, fmt.Errorf("create follows: %w", err)
	}

	if sum.Posts, sum.Comments, err = s.createPosts(ctx, users, communities); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	log.Info("seeded posts", "posts", sum.Posts, "comments", sum.Comments)

	if sum.Stations, err = s.createStations(ctx, users); err != nil {
		return nil, fmt.Errorf("create stations: %w", err)
	}

	if sum.Questions, sum.Answers, err = s.createForum(ctx, users); err != nil {
		return nil, fmt.Errorf("create forum: %w", err)
	}

	if sum.Articles, err = s.createArticles(ctx, moderator); err != nil {
		return nil, fmt.Errorf("create articles: %w", err)
	}

	if sum.Messages, err = s.createConversations(ctx, users); err != nil {
		return nil, fmt.Errorf("create conversations: %w", err)
	}

	log.Info("seeding complete", "summary", sum.String())
	return &sum, nil
}

func (s *Seeder) createUsers(ctx context.Context, hash string) ([]*models.User, error) {
	n := s.opts.NumUsers
	if n < 2 {
		n = 2
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		first, last := s.fake.FirstName(), s.fake.LastName()
		email := fmt.Sprintf("%s.%s%d@evcircle.dev", strings.ToLower(first), strings.ToLower(last), i)
		role := models.RoleUser
		switch i {
		case 0:
			email, role, first, last = AdminEmail, models.RoleAdmin, "Ada", "Admin"
		case 1:
			email, role, first, last = ModeratorEmail, models.RoleModerator, "Max", "Moderator"
		}

		user, err := s.store.CreateUser(ctx, storage.NewUser{
			Email:        storage.NormalizeEmail(email),
			PasswordHash: hash,
			Role:         role,
			Status:       models.StatusActive,
		})
		if err != nil {
			return nil, err
		}
		_, err = s.store.CreateProfile(ctx, storage.NewProfile{
			UserID:      user.ID,
			DisplayName: first + " " + last,
			Bio:         s.fake.Sentence(10),
			Location:    s.fake.City(),
			Vehicle:     s.fake.RandomString(vehicles),
			AvatarURL:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", user.ID),
		})
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) createCommunities(ctx context.Context, creator *models.User, users []*models.User) ([]*models.Community, error) {
	out := make([]*models.Community, 0, len(communities))
	for _, c := range communities {
		community, err := s.store.CreateCommunity(ctx, storage.NewCommunity{
			Slug:        c.Slug,
			Name:        c.Name,
			Description: c.Description,
			Type:        c.Kind,
			CreatorID:   creator.ID,
		})
		if err != nil {
			return nil, err
		}
		if _, err := s.store.JoinCommunity(ctx, community.ID, creator.ID); err != nil {
			return nil, err
		}
		for _, u := range users[1:] {
			if s.fake.Number(0, 2) == 0 {
				if _, err := s.store.JoinCommunity(ctx, community.ID, u.ID); err != nil {
					return nil, err
				}
			}
		}
		out = append(out, community)
	}
	return out, nil
}

// createFollows gives every user a handful of followees.
func (s *Seeder) createFollows(ctx context.Context, users []*models.User) (int, error) {
	count := 0
	for _, u := range users {
		for j := 0; j < s.fake.Number(1, 5); j++ {
			other := s.pick(users)
			if other.ID == u.ID {
				continue
			}
			following, err := s.store.IsFollowing(ctx, u.ID, other.ID)
			if err != nil {
				return count, err
			}
			if following {
				continue
			}
			if _, err := s.store.FollowUser(ctx, u.ID, other.ID); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func (s *Seeder) createPosts(ctx context.Context, users []*models.User, communities []*models.Community) (int, int, error) {
	posts, comments := 0, 0
	for i := 0; i < s.opts.NumPosts; i++ {
		author := s.pick(users)
		in := storage.NewPost{
			AuthorID: author.ID,
			Text:     s.postText(),
		}
		if len(communities) > 0 && s.fake.Bool() {
			id := communities[s.fake.Number(0, len(communities)-1)].ID
			in.CommunityID = &id
		}
		if s.fake.Number(0, 4) == 0 {
			in.Media = []string{fmt.Sprintf("https://picsum.photos/seed/%s/800/600", s.fake.UUID())}
		}

		post, err := s.store.CreatePost(ctx, in)
		if err != nil {
			return posts, comments, err
		}
		posts++

		for j := 0; j < s.fake.Number(0, 4); j++ {
			if _, err := s.store.TogglePostLike(ctx, post.ID, s.pick(users).ID); err != nil {
				return posts, comments, err
			}
		}
		for j := 0; j < s.fake.Number(0, 3); j++ {
			_, err := s.store.CreateComment(ctx, storage.NewComment{
				PostID:   post.ID,
				AuthorID: s.pick(users).ID,
				Text:     s.fake.RandomString(commentLines),
			})
			if err != nil {
				return posts, comments, err
			}
			comments++
		}
	}
	return posts, comments, nil
}

func (s *Seeder) createStations(ctx context.Context, users []*models.User) (int, error) {
	for i := 0; i < s.opts.NumStations; i++ {
		c := cities[s.fake.Number(0, len(cities)-1)]
		network := s.fake.RandomString(networks)
		station, err := s.store.CreateStation(ctx, storage.NewStation{
			Name:       fmt.Sprintf("%s %s", network, s.fake.Street()),
			Address:    fmt.Sprintf("%s, %s", s.fake.Street(), c.Name),
			Latitude:   c.Lat + s.fake.Float64Range(-0.08, 0.08),
			Longitude:  c.Lng + s.fake.Float64Range(-0.08, 0.08),
			Connectors: s.connectors(),
			Network:    network,
			PowerKW:    float64(s.fake.RandomInt([]int{11, 22, 50, 150, 250, 350})),
			AddedBy:    s.pick(users).ID,
		})
		if err != nil {
			return i, err
		}
		if s.fake.Bool() {
			target := models.NewTarget(models.TargetStation, station.ID)
			if _, err := s.store.CreateBookmark(ctx, s.pick(users).ID, target); err != nil {
				return i, err
			}
		}
	}
	return s.opts.NumStations, nil
}

func (s *Seeder) createForum(ctx context.Context, users []*models.User) (int, int, error) {
	questions, answers := 0, 0
	for i := 0; i < s.opts.NumQuestions; i++ {
		q := forumQuestions[i%len(forumQuestions)]
		question, err := s.store.CreateQuestion(ctx, storage.NewQuestion{
			AuthorID: s.pick(users).ID,
			Title:    q.Title,
			Body:     s.fake.Paragraph(1, 3, 12, " "),
			Tags:     q.Tags,
		})
		if err != nil {
			return questions, answers, err
		}
		questions++

		var first *models.Answer
		for j := 0; j < s.fake.Number(0, 3); j++ {
			answer, err := s.store.CreateAnswer(ctx, storage.NewAnswer{
				QuestionID: question.ID,
				AuthorID:   s.pick(users).ID,
				Body:       s.fake.Paragraph(1, 2, 10, " "),
			})
			if err != nil {
				return questions, answers, err
			}
			if first == nil {
				first = answer
			}
			answers++
		}
		if first != nil && s.fake.Bool() {
			if _, err := s.store.MarkQuestionSolved(ctx, question.ID, &first.ID); err != nil {
				return questions, answers, err
			}
		}
	}
	return questions, answers, nil
}

func (s *Seeder) createArticles(ctx context.Context, author *models.User) (int, error) {
	for _, a := range articles {
		_, err := s.store.CreateArticle(ctx, storage.NewArticle{
			AuthorID: author.ID,
			Kind:     a.Kind,
			Title:    a.Title,
			Summary:  a.Summary,
			Body:     s.fake.Paragraph(3, 4, 14, "\n\n"),
			Tags:     a.Tags,
		})
		if err != nil {
			return 0, err
		}
	}
	return len(articles), nil
}

// createConversations starts a few direct conversations with the admin.
func (s *Seeder) createConversations(ctx context.Context, users []*models.User) (int, error) {
	admin := users[0]
	sent := 0
	for _, u := range users[1:min(len(users), 4)] {
		conv, err := s.store.GetOrCreateConversation(ctx, admin.ID, u.ID)
		if err != nil {
			return sent, err
		}
		for j := 0; j < 3; j++ {
			sender := u.ID
			if j%2 == 1 {
				sender = admin.ID
			}
			_, err := s.store.CreateMessage(ctx, storage.NewMessage{
				ConversationID: conv.ID,
				SenderID:       sender,
				Text:           s.fake.RandomString(commentLines),
			})
			if err != nil {
				return sent, err
			}
			sent++
		}
	}
	return sent, nil
}

func (s *Seeder) pick(users []*models.User) *models.User {
	return users[s.fake.Number(0, len(users)-1)]
}

func (s *Seeder) postText() string {
	return fmt.Sprintf(s.fake.RandomString(postTemplates), s.fake.RandomString(vehicles), s.fake.City())
}

func (s *Seeder) connectors() []string {
	n := s.fake.Number(1, 3)
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for len(out) < n {
		c := s.fake.RandomString(connectorTypes)
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
