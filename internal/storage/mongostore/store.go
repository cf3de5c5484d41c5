// Package mongostore implements storage.Storage on MongoDB.
//
// Every entity lives in its own collection keyed by the string id in _id.
// Relationship pairs are guarded by unique compound indexes: a duplicate-key
// error on insert means the pair already exists and resolves to the stored
// document. Counters move with $inc and are clamped back to zero when a
// decrement overshoots; RecountCounters rebuilds them from scratch.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"evcircle/internal/models"
	"evcircle/internal/observability"
	"evcircle/internal/storage"
)

const backendName = "mongo"

// Collection names.
const (
	colUsers           = "users"
	colProfiles        = "profiles"
	colPosts           = "posts"
	colComments        = "comments"
	colCommunities     = "communities"
	colMembers         = "community_members"
	colStations        = "stations"
	colBookmarks       = "bookmarks"
	colQuestions       = "questions"
	colAnswers         = "answers"
	colArticles        = "articles"
	colArticleComments = "article_comments"
	colReports         = "reports"
	colAuditLogs       = "audit_logs"
	colFollows         = "user_follows"
	colBlocks          = "user_blocks"
	colNotifications   = "notifications"
	colConversations   = "conversations"
	colMessages        = "messages"
)

// Store implements storage.Storage over a *mongo.Database.
type Store struct {
	db     *mongo.Database
	client *mongo.Client
	owned  bool

	mu   sync.Mutex
	last time.Time
}

var _ storage.Storage = (*Store)(nil)

// Open connects to uri, selects database and ensures the indexes exist.
// The returned Store disconnects the client on Close.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetMonitor(commandMonitor()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	s, err := New(ctx, client.Database(database))
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	s.owned = true
	return s, nil
}

// New wraps an existing database handle. The caller keeps ownership of the
// client.
func New(ctx context.Context, db *mongo.Database) (*Store, error) {
	s := &Store{db: db, client: db.Client()}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Backend() string { return backendName }

func (s *Store) Ping(ctx context.Context) error {
	return s.wrap("ping", s.client.Ping(ctx, readpref.Primary()))
}

func (s *Store) Close(ctx context.Context) error {
	if !s.owned {
		return nil
	}
	return s.wrap("close", s.client.Disconnect(ctx))
}

type index struct {
	collection string
	keys       bson.D
	unique     bool
}

func asc(fields ...string) bson.D {
	d := make(bson.D, 0, len(fields))
	for _, f := range fields {
		d = append(d, bson.E{Key: f, Value: 1})
	}
	return d
}

var indexes = []index{
	{colUsers, asc("email"), true},
	{colProfiles, asc("user_id"), true},
	{colCommunities, asc("slug"), true},
	{colMembers, asc("community_id", "user_id"), true},
	{colMembers, asc("user_id"), false},
	{colBookmarks, asc("user_id", "target.kind", "target.id"), true},
	{colBookmarks, asc("target.kind", "target.id"), false},
	{colFollows, asc("follower_id", "following_id"), true},
	{colFollows, asc("following_id"), false},
	{colBlocks, asc("blocker_id", "blocked_id"), true},
	{colConversations, asc("participant_a_id", "participant_b_id"), true},
	{colConversations, asc("participant_b_id"), false},
	{colPosts, asc("author_id"), false},
	{colPosts, asc("community_id"), false},
	{colComments, asc("post_id"), false},
	{colAnswers, asc("question_id"), false},
	{colArticleComments, asc("article_id"), false},
	{colMessages, asc("conversation_id"), false},
	{colNotifications, asc("user_id", "is_read"), false},
	{colReports, asc("status"), false},
	{colAuditLogs, asc("actor_id"), false},
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	for _, ix := range indexes {
		model := mongo.IndexModel{Keys: ix.keys}
		if ix.unique {
			model.Options = options.Index().SetUnique(true)
		}
		if _, err := s.c(ix.collection).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", ix.collection, err)
		}
	}
	return nil
}

// now returns a strictly increasing UTC timestamp at millisecond precision,
// the resolution BSON dates keep.
func (s *Store) now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := time.Now().UTC().Truncate(time.Millisecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Millisecond)
	}
	s.last = t
	return t
}

func (s *Store) c(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func (s *Store) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	observability.ObserveStorageError(backendName, op)
	return storage.Internal(op, err)
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}}

func byID(id string) bson.M { return bson.M{"_id": id} }

// findOne decodes the first document matching filter, or nil when none does.
func findOne[T any](ctx context.Context, coll *mongo.Collection, filter interface{}) (*T, error) {
	var out T
	err := coll.FindOne(ctx, filter).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findPage[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, sort bson.D, page storage.Page) ([]T, error) {
	page = page.Normalize()
	opts := options.Find().SetSort(sort).SetSkip(int64(page.Offset)).SetLimit(int64(page.Limit))
	return findAll[T](ctx, coll, filter, opts)
}

// patch applies $set to the document matching filter and returns the fresh
// document, or nil when nothing matched.
func patch[T any](s *Store, ctx context.Context, coll, op string, filter bson.M, set bson.M) (*T, error) {
	set["updated_at"] = s.now()
	var out T
	err := s.c(coll).FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrap(op, err)
	}
	return &out, nil
}

// adjust adds delta to an integer field on every matching document and
// clamps any result below zero back to zero.
func (s *Store) adjust(ctx context.Context, coll string, filter bson.M, field string, delta int) error {
	if delta == 0 {
		return nil
	}
	if _, err := s.c(coll).UpdateMany(ctx, filter, bson.M{"$inc": bson.M{field: delta}}); err != nil {
		return err
	}
	if delta > 0 {
		return nil
	}
	clamp := bson.M{field: bson.M{"$lt": 0}}
	for k, v := range filter {
		clamp[k] = v
	}
	_, err := s.c(coll).UpdateMany(ctx, clamp, bson.M{"$set": bson.M{field: 0}})
	return err
}

// toggle adds userID to the array field when absent and pulls it when
// present, returning the updated document or nil when id does not exist.
func toggle[T any](s *Store, ctx context.Context, coll, op, field, id, userID string) (*T, error) {
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out T
	err := s.c(coll).FindOneAndUpdate(ctx,
		bson.M{"_id": id, field: bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{field: userID}}, after).Decode(&out)
	if err == nil {
		return &out, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, s.wrap(op, err)
	}
	err = s.c(coll).FindOneAndUpdate(ctx,
		bson.M{"_id": id, field: userID},
		bson.M{"$pull": bson.M{field: userID}}, after).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrap(op, err)
	}
	return &out, nil
}

// insertOnce inserts doc and reports whether it was new. A duplicate-key
// error means a concurrent or earlier insert already holds the unique pair.
func (s *Store) insertOnce(ctx context.Context, coll string, doc interface{}) (bool, error) {
	_, err := s.c(coll).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func strList(in []string) []string {
	return storage.StringsOrEmpty(in)
}

func strPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// deleteOne removes the first document matching filter, decoding it into
// out. It reports false when nothing matched.
func (s *Store) deleteOne(ctx context.Context, coll string, filter interface{}, out interface{}) (bool, error) {
	err := s.c(coll).FindOneAndDelete(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
