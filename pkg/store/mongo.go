package store

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/supportree/pkg/errors"
	"github.com/matzehuels/supportree/pkg/problem"
)

// MongoOptions configures a [MongoStore].
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
}

// Defaults for MongoOptions.
const (
	DefaultMongoDatabase   = "supportree"
	DefaultMongoCollection = "runs"
)

// MongoStore stores runs as documents with the run id as _id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects, pings the server and makes sure the listing index
// exists.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo uri is required")
	}
	if opts.Database == "" {
		opts.Database = DefaultMongoDatabase
	}
	if opts.Collection == "" {
		opts.Collection = DefaultMongoCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackend, err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeBackend, err, "ping mongo")
	}

	s := &MongoStore{
		client: client,
		coll:   client.Database(opts.Database).Collection(opts.Collection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "problem_hash", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeBackend, err, "create indexes")
	}
	return nil
}

func (s *MongoStore) Save(ctx context.Context, r *problem.Result) error {
	if r.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "run has no id")
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": r.ID}, r, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeBackend, err, "save run %s", r.ID)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*problem.Result, error) {
	var r problem.Result
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackend, err, "get run %s", id)
	}
	return &r, nil
}

// listProjection drops the bulky per-tree fields that summaries do not need.
var listProjection = bson.M{
	"edges":             0,
	"attempts":          0,
	"adjacency":         0,
	"trees.edges":       0,
	"trees.depths":      0,
	"trees.layers":      0,
	"trees.resolutions": 0,
}

func (s *MongoStore) List(ctx context.Context, limit int) ([]problem.Summary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(int64(normalizeLimit(limit))).
		SetProjection(listProjection)

	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackend, err, "list runs")
	}
	var runs []problem.Result
	if err := cur.All(ctx, &runs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBackend, err, "decode runs")
	}

	out := make([]problem.Summary, len(runs))
	for i := range runs {
		out[i] = runs[i].Summary()
	}
	return out, nil
}

// Drop removes the whole collection. Used by tests against a live server.
func (s *MongoStore) Drop(ctx context.Context) error {
	if err := s.coll.Drop(ctx); err != nil {
		return fmt.Errorf("drop %s: %w", s.coll.Name(), err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}
