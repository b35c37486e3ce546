// Package store encapsulates MongoDB client management and the catalog, user
// and counter repositories.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"course_catalog_bot/internal/config"
)

// Collection names used across the bot.
const (
	CollectionUsers     = "users"
	CollectionYears     = "years"
	CollectionTerms     = "terms"
	CollectionCourses   = "courses"
	CollectionFiles     = "files"
	CollectionStats     = "stats"
	CollectionSequences = "sequences"
)

// mongoClient captures the subset of mongo.Client behavior we rely on to allow
// lightweight stubbing in tests without a live Mongo deployment.
type mongoClient interface {
	Ping(context.Context, *readpref.ReadPref) error
	Database(string, ...*options.DatabaseOptions) *mongo.Database
	Disconnect(context.Context) error
}

// connectMongo is overridable for tests.
var connectMongo = func(ctx context.Context, opts *options.ClientOptions) (mongoClient, error) {
	return mongo.Connect(ctx, opts)
}

// createIndexes is overridable for tests.
var createIndexes = func(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) ([]string, error) {
	return coll.Indexes().CreateMany(ctx, models)
}

// Manager owns a MongoDB client and the configured database handle.
type Manager struct {
	client mongoClient
	db     *mongo.Database
}

// NewManager initializes the Mongo client using the supplied configuration and
// verifies connectivity with a ping.
func NewManager(ctx context.Context, cfg config.Config) (*Manager, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	client, err := connectMongo(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Manager{
		client: client,
		db:     client.Database(cfg.MongoDB),
	}, nil
}

// Ping verifies the primary is reachable. Used by the health endpoint.
func (m *Manager) Ping(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if m == nil || m.client == nil {
		return errors.New("store manager is not initialized")
	}

	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	return nil
}

// Database returns the configured database handle.
func (m *Manager) Database() *mongo.Database {
	return m.db
}

// Collection returns a collection handle for the given name.
func (m *Manager) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// Users returns the users collection handle.
func (m *Manager) Users() *mongo.Collection { return m.Collection(CollectionUsers) }

// Years returns the years collection handle.
func (m *Manager) Years() *mongo.Collection { return m.Collection(CollectionYears) }

// Terms returns the terms collection handle.
func (m *Manager) Terms() *mongo.Collection { return m.Collection(CollectionTerms) }

// Courses returns the courses collection handle.
func (m *Manager) Courses() *mongo.Collection { return m.Collection(CollectionCourses) }

// Files returns the files collection handle.
func (m *Manager) Files() *mongo.Collection { return m.Collection(CollectionFiles) }

// Stats returns the counters collection handle.
func (m *Manager) Stats() *mongo.Collection { return m.Collection(CollectionStats) }

// Sequences returns the id sequence collection handle.
func (m *Manager) Sequences() *mongo.Collection { return m.Collection(CollectionSequences) }

type indexPlan struct {
	collection string
	models     []mongo.IndexModel
}

// EnsureBaseIndexes creates the unique indexes every repository relies on.
// Collections are created implicitly if they do not already exist.
func (m *Manager) EnsureBaseIndexes(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if m == nil || m.db == nil {
		return errors.New("store manager is not initialized")
	}

	for _, plan := range basePlans() {
		if _, err := createIndexes(ctx, m.Collection(plan.collection), plan.models); err != nil {
			return fmt.Errorf("create %s indexes: %w", plan.collection, err)
		}
	}

	return nil
}

func basePlans() []indexPlan {
	return []indexPlan{
		{CollectionUsers, []mongo.IndexModel{uniqueIndex("user_id_unique", "user_id")}},
		{CollectionYears, []mongo.IndexModel{
			uniqueIndex("year_id_unique", "year_id"),
			uniqueIndex("name_unique", "name"),
		}},
		{CollectionTerms, []mongo.IndexModel{
			uniqueIndex("term_id_unique", "term_id"),
			uniqueIndex("year_name_unique", "year_id", "name"),
		}},
		{CollectionCourses, []mongo.IndexModel{
			uniqueIndex("course_id_unique", "course_id"),
			uniqueIndex("term_name_unique", "term_id", "name"),
		}},
		{CollectionFiles, []mongo.IndexModel{
			uniqueIndex("file_id_unique", "file_id"),
			{
				Keys:    bson.D{{Key: "course_id", Value: 1}},
				Options: options.Index().SetName("course_id"),
			},
		}},
		{CollectionStats, []mongo.IndexModel{uniqueIndex("stat_name_unique", "stat_name")}},
	}
}

func uniqueIndex(name string, keys ...string) mongo.IndexModel {
	doc := make(bson.D, 0, len(keys))
	for _, key := range keys {
		doc = append(doc, bson.E{Key: key, Value: 1})
	}

	return mongo.IndexModel{
		Keys:    doc,
		Options: options.Index().SetName(name).SetUnique(true),
	}
}

// Close disconnects the Mongo client.
func (m *Manager) Close(ctx context.Context) error {
	if m == nil || m.client == nil {
		return nil
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	return m.client.Disconnect(ctx)
}
