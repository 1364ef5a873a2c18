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

type reviewDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Listing   primitive.ObjectID `bson:"listing"`
	Comment   string             `bson:"comment"`
	Rating    int                `bson:"rating"`
	Author    string             `bson:"author"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (d *reviewDocument) toModel() *models.Review {
	return &models.Review{
		ID:        d.ID.Hex(),
		ListingID: d.Listing.Hex(),
		Comment:   d.Comment,
		Rating:    d.Rating,
		AuthorID:  d.Author,
		CreatedAt: d.CreatedAt,
	}
}

// InsertReview stores the review and pushes its id onto the listing.
func (db *MongoStorage) InsertReview(ctx context.Context, listingID string, review *models.Review) (string, bool, error) {
	listingOID, ok := objectID(listingID)
	if !ok {
		return "", false, nil
	}

	doc := reviewDocument{
		ID:        primitive.NewObjectID(),
		Listing:   listingOID,
		Comment:   review.Comment,
		Rating:    review.Rating,
		Author:    review.AuthorID,
		CreatedAt: time.Now().UTC(),
	}

	updateResult, err := db.collection(listingsCollection).UpdateOne(
		ctx,
		bson.M{"_id": listingOID},
		bson.M{"$push": bson.M{"reviews": doc.ID}},
	)
	if err != nil {
		return "", false, fmt.Errorf("in internal/db/mongostorage/reviews.go/InsertReview(): error while `UpdateOne()` calling: %w", err)
	}
	if updateResult.MatchedCount == 0 {
		return "", false, nil
	}

	if _, err := db.collection(reviewsCollection).InsertOne(ctx, doc); err != nil {
		return "", true, fmt.Errorf("in internal/db/mongostorage/reviews.go/InsertReview(): error while `InsertOne()` calling: %w", err)
	}

	return doc.ID.Hex(), true, nil
}

func (db *MongoStorage) FindReviewByID(ctx context.Context, id string) (*models.Review, bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, false, nil
	}

	var doc reviewDocument
	err := db.collection(reviewsCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("in internal/db/mongostorage/reviews.go/FindReviewByID(): error while `FindOne()` calling: %w", err)
	}

	return doc.toModel(), true, nil
}

// FindReviewsByIDs populates reviews in the order the ids are given.
func (db *MongoStorage) FindReviewsByIDs(ctx context.Context, ids []string) ([]models.Review, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []models.Review{}, nil
	}

	cursor, err := db.collection(reviewsCollection).Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("in internal/db/mongostorage/reviews.go/FindReviewsByIDs(): error while `Find()` calling: %w", err)
	}

	var docs []reviewDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("in internal/db/mongostorage/reviews.go/FindReviewsByIDs(): error while `cursor.All()` calling: %w", err)
	}

	byID := make(map[string]*models.Review, len(docs))
	for i := range docs {
		byID[docs[i].ID.Hex()] = docs[i].toModel()
	}

	result := make([]models.Review, 0, len(docs))
	for _, id := range ids {
		if review, ok := byID[id]; ok {
			result = append(result, *review)
		}
	}

	return result, nil
}

// DeleteReview pulls the id from the listing, then removes the review.
func (db *MongoStorage) DeleteReview(ctx context.Context, listingID, reviewID string) (bool, error) {
	reviewOID, ok := objectID(reviewID)
	if !ok {
		return false, nil
	}

	if listingOID, ok := objectID(listingID); ok {
		_, err := db.collection(listingsCollection).UpdateOne(
			ctx,
			bson.M{"_id": listingOID},
			bson.M{"$pull": bson.M{"reviews": reviewOID}},
		)
		if err != nil {
			return false, fmt.Errorf("in internal/db/mongostorage/reviews.go/DeleteReview(): error while `UpdateOne()` calling: %w", err)
		}
	}

	deleteResult, err := db.collection(reviewsCollection).DeleteOne(ctx, bson.M{"_id": reviewOID})
	if err != nil {
		return false, fmt.Errorf("in internal/db/mongostorage/reviews.go/DeleteReview(): error while `DeleteOne()` calling: %w", err)
	}

	return deleteResult.DeletedCount > 0, nil
}

func (db *MongoStorage) DeleteReviews(ctx context.Context, ids []string) (int64, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return 0, nil
	}

	deleteResult, err := db.collection(reviewsCollection).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return 0, fmt.Errorf("in internal/db/mongostorage/reviews.go/DeleteReviews(): error while `DeleteMany()` calling: %w", err)
	}

	return deleteResult.DeletedCount, nil
}
