package mongostorage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Hash      string             `bson:"hash"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Hash,
		CreatedAt:    d.CreatedAt,
	}
}

// CreateUser relies on the unique username index to detect duplicates.
func (db *MongoStorage) CreateUser(ctx context.Context, usr *models.User) (string, error) {
	doc := userDocument{
		ID:        primitive.NewObjectID(),
		Username:  usr.Username,
		Email:     usr.Email,
		Hash:      usr.PasswordHash,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.collection(usersCollection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return "", models.ErrUserExists
	}
	if err != nil {
		return "", fmt.Errorf("in internal/db/mongostorage/users.go/CreateUser(): error while `InsertOne()` calling: %w", err)
	}

	return doc.ID.Hex(), nil
}

func (db *MongoStorage) findUser(ctx context.Context, filter bson.M) (*models.User, bool, error) {
	var doc userDocument
	err := db.collection(usersCollection).FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("in internal/db/mongostorage/users.go/findUser(): error while `FindOne()` calling: %w", err)
	}

	return doc.toModel(), true, nil
}

func (db *MongoStorage) FindUserByUsername(ctx context.Context, username string) (*models.User, bool, error) {
	return db.findUser(ctx, bson.M{"username": username})
}

func (db *MongoStorage) FindUserByID(ctx context.Context, id string) (*models.User, bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, false, nil
	}

	return db.findUser(ctx, bson.M{"_id": oid})
}
