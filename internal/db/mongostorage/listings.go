package mongostorage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

type listingDocument struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Title       string               `bson:"title"`
	Description string               `bson:"description"`
	Image       string               `bson:"image"`
	Price       float64              `bson:"price"`
	Location    string               `bson:"location"`
	Country     string               `bson:"country"`
	Reviews     []primitive.ObjectID `bson:"reviews"`
	CreatedAt   time.Time            `bson:"created_at"`
}

func (d *listingDocument) toModel() *models.Listing {
	return &models.Listing{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Image:       d.Image,
		Price:       d.Price,
		Location:    d.Location,
		Country:     d.Country,
		Reviews:     hexes(d.Reviews),
		CreatedAt:   d.CreatedAt,
	}
}

func editableFields(listing *models.Listing) bson.M {
	return bson.M{
		"title":       listing.Title,
		"description": listing.Description,
		"image":       listing.Image,
		"price":       listing.Price,
		"location":    listing.Location,
		"country":     listing.Country,
	}
}

func (db *MongoStorage) InsertListing(ctx context.Context, listing *models.Listing) (string, error) {
	doc := listingDocument{
		ID:          primitive.NewObjectID(),
		Title:       listing.Title,
		Description: listing.Description,
		Image:       listing.Image,
		Price:       listing.Price,
		Location:    listing.Location,
		Country:     listing.Country,
		Reviews:     []primitive.ObjectID{},
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := db.collection(listingsCollection).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("in internal/db/mongostorage/listings.go/InsertListing(): error while `InsertOne()` calling: %w", err)
	}

	return doc.ID.Hex(), nil
}

// FindListings returns the whole collection in insertion order.
func (db *MongoStorage) FindListings(ctx context.Context) ([]models.Listing, error) {
	cursor, err := db.collection(listingsCollection).Find(
		ctx,
		bson.D{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/mongostorage/listings.go/FindListings(): error while `Find()` calling: %w", err)
	}

	var docs []listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("in internal/db/mongostorage/listings.go/FindListings(): error while `cursor.All()` calling: %w", err)
	}

	result := make([]models.Listing, 0, len(docs))
	for i := range docs {
		result = append(result, *docs[i].toModel())
	}

	return result, nil
}

func (db *MongoStorage) FindListingByID(ctx context.Context, id string) (*models.Listing, bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, false, nil
	}

	var doc listingDocument
	err := db.collection(listingsCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("in internal/db/mongostorage/listings.go/FindListingByID(): error while `FindOne()` calling: %w", err)
	}

	return doc.toModel(), true, nil
}

// UpdateListing sets the editable fields and returns the document after the update.
func (db *MongoStorage) UpdateListing(ctx context.Context, id string, listing *models.Listing) (*models.Listing, bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, false, nil
	}

	var doc listingDocument
	err := db.collection(listingsCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": editableFields(listing)},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("in internal/db/mongostorage/listings.go/UpdateListing(): error while `FindOneAndUpdate()` calling: %w", err)
	}

	return doc.toModel(), true, nil
}

// DeleteListing removes the listing only; the reviews collection is untouched.
func (db *MongoStorage) DeleteListing(ctx context.Context, id string) (*models.Listing, bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, false, nil
	}

	var doc listingDocument
	err := db.collection(listingsCollection).FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("in internal/db/mongostorage/listings.go/DeleteListing(): error while `FindOneAndDelete()` calling: %w", err)
	}

	return doc.toModel(), true, nil
}
