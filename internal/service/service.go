// Package service holds the application's use cases: listings, their reviews,
// user accounts and statistics. HTTP concerns stay in the router.
package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/wanderlust/internal/db/storage"
	"github.com/patric-chuzhbe/wanderlust/internal/logger"
	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

type Service struct {
	db                     storage.Storage
	cascadeReviewsOnDelete bool
	bcryptCost             int
}

type InitOption func(*Service)

// WithCascadeReviewsOnDelete makes DeleteListing remove the listing's reviews too.
func WithCascadeReviewsOnDelete(cascade bool) InitOption {
	return func(s *Service) {
		s.cascadeReviewsOnDelete = cascade
	}
}

// WithBcryptCost overrides the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) InitOption {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func New(db storage.Storage, optionsProto ...InitOption) *Service {
	s := &Service{
		db:         db,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, protoOption := range optionsProto {
		protoOption(s)
	}
	return s
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Service) ListListings(ctx context.Context) ([]models.Listing, error) {
	return s.db.FindListings(ctx)
}

func (s *Service) CreateListing(ctx context.Context, payload models.ListingPayload) (string, error) {
	return s.db.InsertListing(ctx, payload.ToListing())
}

func (s *Service) GetListing(ctx context.Context, id string) (*models.Listing, bool, error) {
	return s.db.FindListingByID(ctx, id)
}

// GetListingWithReviews loads the listing and expands its review ids.
func (s *Service) GetListingWithReviews(ctx context.Context, id string) (*models.ListingWithReviews, bool, error) {
	listing, found, err := s.db.FindListingByID(ctx, id)
	if err != nil || !found {
		return nil, false, err
	}

	reviews, err := s.db.FindReviewsByIDs(ctx, listing.Reviews)
	if err != nil {
		return nil, false, err
	}

	return &models.ListingWithReviews{Listing: *listing, ReviewDocs: reviews}, true, nil
}

func (s *Service) UpdateListing(ctx context.Context, id string, payload models.ListingPayload) (*models.Listing, bool, error) {
	return s.db.UpdateListing(ctx, id, payload.ToListing())
}

// DeleteListing removes the listing. Its reviews are removed as well only when
// the service was built WithCascadeReviewsOnDelete(true).
func (s *Service) DeleteListing(ctx context.Context, id string) (bool, error) {
	listing, found, err := s.db.DeleteListing(ctx, id)
	if err != nil || !found {
		return false, err
	}

	if !s.cascadeReviewsOnDelete || len(listing.Reviews) == 0 {
		return true, nil
	}

	deleted, err := s.db.DeleteReviews(ctx, listing.Reviews)
	if err != nil {
		return true, fmt.Errorf("in internal/service/service.go/DeleteListing(): error while `s.db.DeleteReviews()` calling: %w", err)
	}
	logger.Log.Debugw("cascaded listing delete", "listing_id", id, "reviews_deleted", deleted)

	return true, nil
}

// AddReview attaches a new review by authorID. found is false when the listing is gone.
func (s *Service) AddReview(
	ctx context.Context,
	listingID string,
	authorID string,
	payload models.ReviewPayload,
) (string, bool, error) {
	return s.db.InsertReview(ctx, listingID, &models.Review{
		Comment:  payload.Comment,
		Rating:   payload.Rating,
		AuthorID: authorID,
	})
}

// DeleteReview removes a review of listingID written by userID.
// It returns models.ErrNotReviewAuthor when someone else wrote it.
func (s *Service) DeleteReview(ctx context.Context, listingID, reviewID, userID string) (bool, error) {
	review, found, err := s.db.FindReviewByID(ctx, reviewID)
	if err != nil || !found {
		return false, err
	}
	if review.ListingID != listingID {
		return false, nil
	}
	if review.AuthorID != userID {
		return true, models.ErrNotReviewAuthor
	}

	return s.db.DeleteReview(ctx, listingID, reviewID)
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, payload models.SignupPayload) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("in internal/service/service.go/Register(): error while `bcrypt.GenerateFromPassword()` calling: %w", err)
	}

	usr := &models.User{
		Username:     payload.Username,
		Email:        payload.Email,
		PasswordHash: string(hash),
	}
	usr.ID, err = s.db.CreateUser(ctx, usr)
	if err != nil {
		return nil, err
	}

	return usr, nil
}

// Authenticate returns the user for valid credentials and
// models.ErrInvalidCredentials otherwise.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	usr, found, err := s.db.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	return usr, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*models.User, bool, error) {
	return s.db.FindUserByID(ctx, id)
}

// Stats counts the stored records.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	var stats models.Stats
	var err error

	if stats.Listings, err = s.db.CountListings(ctx); err != nil {
		return models.Stats{}, err
	}
	if stats.Reviews, err = s.db.CountReviews(ctx); err != nil {
		return models.Stats{}, err
	}
	if stats.Users, err = s.db.CountUsers(ctx); err != nil {
		return models.Stats{}, err
	}

	return stats, nil
}
