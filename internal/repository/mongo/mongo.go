// Package mongo implements the repository interfaces on MongoDB.
//
// Creators embed their emotions, availability windows and visual posts; meetings
// reference users and creators by ObjectID. Book and Transition run inside a
// session transaction, so the server must be a replica set (a single-node
// replica set is enough).
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sakif/heartline/internal/apperror"
	"github.com/sakif/heartline/internal/repository"
)

const (
	colUsers    = "users"
	colAdmins   = "admins"
	colCreators = "creators"
	colMeetings = "meetings"
	colVideos   = "videos"
)

const connectTimeout = 10 * time.Second

var _ repository.Store = (*Store)(nil)

// Store is a MongoDB-backed repository.Store.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, pings the server and ensures indexes on database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: URI not provided")
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: pinging: %w", err)
	}

	s := &Store{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	slog.Info("connected to mongodb", "database", database)
	return s, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		colUsers:    {{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		colAdmins:   {{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		colCreators: {{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique}},
		colMeetings: {
			{Keys: bson.D{{Key: "creator_id", Value: 1}, {Key: "scheduled_at", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "scheduled_at", Value: 1}}},
		},
		colVideos: {{Keys: bson.D{{Key: "created_at", Value: -1}}}},
	}
	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: creating %s indexes: %w", col, err)
		}
	}
	return nil
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// withTx runs fn in a session transaction. The driver retries fn on transient
// transaction errors, so fn must be safe to run more than once.
func (s *Store) withTx(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo: starting session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// objectID parses a hex id; ids that cannot exist are reported as NotFound.
func objectID(resource, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperror.NotFound(resource, id)
	}
	return oid, nil
}
