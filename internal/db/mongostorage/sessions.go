package mongostorage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

// Field names follow connect-mongo so an existing sessions collection stays readable.
type sessionDocument struct {
	ID        string    `bson:"_id"`
	Session   string    `bson:"session"`
	Expires   time.Time `bson:"expires"`
	TouchedAt time.Time `bson:"lastModified"`
}

func (db *MongoStorage) SaveSession(ctx context.Context, record *models.SessionRecord) error {
	doc := sessionDocument{
		ID:        record.ID,
		Session:   record.Data,
		Expires:   record.ExpiresAt,
		TouchedAt: record.TouchedAt,
	}

	_, err := db.collection(sessionsCollection).ReplaceOne(
		ctx,
		bson.M{"_id": record.ID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("in internal/db/mongostorage/sessions.go/SaveSession(): error while `ReplaceOne()` calling: %w", err)
	}

	return nil
}

// FindSession ignores records the TTL monitor has not collected yet.
func (db *MongoStorage) FindSession(ctx context.Context, id string) (*models.SessionRecord, bool, error) {
	var doc sessionDocument
	err := db.collection(sessionsCollection).FindOne(
		ctx,
		bson.M{"_id": id, "expires": bson.M{"$gt": time.Now()}},
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("in internal/db/mongostorage/sessions.go/FindSession(): error while `FindOne()` calling: %w", err)
	}

	return &models.SessionRecord{
		ID:        doc.ID,
		Data:      doc.Session,
		ExpiresAt: doc.Expires,
		TouchedAt: doc.TouchedAt,
	}, true, nil
}

func (db *MongoStorage) TouchSession(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := db.collection(sessionsCollection).UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"expires": expiresAt, "lastModified": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("in internal/db/mongostorage/sessions.go/TouchSession(): error while `UpdateOne()` calling: %w", err)
	}

	return nil
}

func (db *MongoStorage) DeleteSession(ctx context.Context, id string) error {
	if _, err := db.collection(sessionsCollection).DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("in internal/db/mongostorage/sessions.go/DeleteSession(): error while `DeleteOne()` calling: %w", err)
	}

	return nil
}

// DeleteExpiredSessions duplicates the TTL index for deployments where the monitor lags.
func (db *MongoStorage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	deleteResult, err := db.collection(sessionsCollection).DeleteMany(ctx, bson.M{"expires": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("in internal/db/mongostorage/sessions.go/DeleteExpiredSessions(): error while `DeleteMany()` calling: %w", err)
	}

	return deleteResult.DeletedCount, nil
}
