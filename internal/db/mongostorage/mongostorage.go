// Package mongostorage keeps listings, reviews, users and sessions in MongoDB,
// one collection each. Listings reference their reviews by ObjectID.
package mongostorage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	listingsCollection = "listings"
	reviewsCollection  = "reviews"
	usersCollection    = "users"
	sessionsCollection = "sessions"
)

// MongoStorage is the document-store backend.
type MongoStorage struct {
	client            *mongo.Client
	database          *mongo.Database
	connectionTimeout time.Duration
}

type initOptions struct {
	DBPreReset bool
}

// InitOption configures New.
type InitOption func(*initOptions)

// WithDBPreReset drops the database before use. Tests rely on it to start empty.
func WithDBPreReset(value bool) InitOption {
	return func(options *initOptions) {
		options.DBPreReset = value
	}
}

// New connects to uri, checks the connection and makes sure the indexes exist.
func New(
	ctx context.Context,
	uri string,
	dbName string,
	connectionTimeout time.Duration,
	optionsProto ...InitOption,
) (*MongoStorage, error) {
	opts := &initOptions{
		DBPreReset: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(opts)
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("in internal/db/mongostorage/mongostorage.go/New(): error while `mongo.Connect()` calling: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("in internal/db/mongostorage/mongostorage.go/New(): error while `client.Ping()` calling: %w", err)
	}

	result := &MongoStorage{
		client:            client,
		database:          client.Database(dbName),
		connectionTimeout: connectionTimeout,
	}

	if opts.DBPreReset {
		if err := result.database.Drop(connectCtx); err != nil {
			return nil, fmt.Errorf("in internal/db/mongostorage/mongostorage.go/New(): error while `database.Drop()` calling: %w", err)
		}
	}

	if err := result.ensureIndexes(connectCtx); err != nil {
		return nil, err
	}

	return result, nil
}

func (db *MongoStorage) ensureIndexes(ctx context.Context) error {
	_, err := db.database.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("in internal/db/mongostorage/mongostorage.go/ensureIndexes(): error while `users.CreateOne()` calling: %w", err)
	}

	_, err = db.database.Collection(sessionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("in internal/db/mongostorage/mongostorage.go/ensureIndexes(): error while `sessions.CreateOne()` calling: %w", err)
	}

	_, err = db.database.Collection(reviewsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "listing", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("in internal/db/mongostorage/mongostorage.go/ensureIndexes(): error while `reviews.CreateOne()` calling: %w", err)
	}

	return nil
}

// Ping checks the server within the configured timeout.
func (db *MongoStorage) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.client.Ping(ctxWithTimeout, nil)
}

func (db *MongoStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), db.connectionTimeout)
	defer cancel()

	return db.client.Disconnect(ctx)
}

func (db *MongoStorage) collection(name string) *mongo.Collection {
	return db.database.Collection(name)
}

// objectID parses a hex id. Malformed ids are simply not found.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func objectIDs(ids []string) []primitive.ObjectID {
	result := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := objectID(id); ok {
			result = append(result, oid)
		}
	}
	return result
}

func hexes(oids []primitive.ObjectID) []string {
	result := make([]string, 0, len(oids))
	for _, oid := range oids {
		result = append(result, oid.Hex())
	}
	return result
}

func (db *MongoStorage) count(ctx context.Context, name string) (int64, error) {
	count, err := db.collection(name).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("in internal/db/mongostorage/mongostorage.go/count(): error while `%s.CountDocuments()` calling: %w", name, err)
	}
	return count, nil
}

func (db *MongoStorage) CountListings(ctx context.Context) (int64, error) {
	return db.count(ctx, listingsCollection)
}

func (db *MongoStorage) CountReviews(ctx context.Context) (int64, error) {
	return db.count(ctx, reviewsCollection)
}

func (db *MongoStorage) CountUsers(ctx context.Context) (int64, error) {
	return db.count(ctx, usersCollection)
}
