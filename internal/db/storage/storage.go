// Package storage declares the contract every persistence backend fulfils.
// Consumers declare the narrower interfaces they need; Storage is what
// the application wires together.
package storage

import (
	"context"
	"time"

	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

type ListingKeeper interface {
	InsertListing(ctx context.Context, listing *models.Listing) (string, error)
	FindListings(ctx context.Context) ([]models.Listing, error)
	FindListingByID(ctx context.Context, id string) (*models.Listing, bool, error)
	UpdateListing(ctx context.Context, id string, listing *models.Listing) (*models.Listing, bool, error)
	DeleteListing(ctx context.Context, id string) (*models.Listing, bool, error)
}

type ReviewKeeper interface {
	InsertReview(ctx context.Context, listingID string, review *models.Review) (string, bool, error)
	FindReviewByID(ctx context.Context, id string) (*models.Review, bool, error)
	FindReviewsByIDs(ctx context.Context, ids []string) ([]models.Review, error)
	DeleteReview(ctx context.Context, listingID, reviewID string) (bool, error)
	DeleteReviews(ctx context.Context, ids []string) (int64, error)
}

type UserKeeper interface {
	CreateUser(ctx context.Context, usr *models.User) (string, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, bool, error)
	FindUserByID(ctx context.Context, id string) (*models.User, bool, error)
}

type SessionKeeper interface {
	SaveSession(ctx context.Context, record *models.SessionRecord) error
	FindSession(ctx context.Context, id string) (*models.SessionRecord, bool, error)
	TouchSession(ctx context.Context, id string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type Counter interface {
	CountListings(ctx context.Context) (int64, error)
	CountReviews(ctx context.Context) (int64, error)
	CountUsers(ctx context.Context) (int64, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Storage interface {
	ListingKeeper
	ReviewKeeper
	UserKeeper
	SessionKeeper
	Counter
	Pinger
	Close() error
}
