// Package mockstorage provides a testify-based mock of the storage contract.
// It is used for unit testing services and HTTP handlers by simulating storage behavior.
package mockstorage

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/wanderlust/internal/db/storage"
	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

// StorageMock is a testify mock that implements storage.Storage.
type StorageMock struct {
	mock.Mock
}

var _ storage.Storage = (*StorageMock)(nil)

func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

func listingArg(args mock.Arguments, index int) *models.Listing {
	listing, _ := args.Get(index).(*models.Listing)
	return listing
}

func (m *StorageMock) InsertListing(ctx context.Context, listing *models.Listing) (string, error) {
	args := m.Called(ctx, listing)
	return args.String(0), args.Error(1)
}

func (m *StorageMock) FindListings(ctx context.Context) ([]models.Listing, error) {
	args := m.Called(ctx)
	listings, _ := args.Get(0).([]models.Listing)
	return listings, args.Error(1)
}

func (m *StorageMock) FindListingByID(ctx context.Context, id string) (*models.Listing, bool, error) {
	args := m.Called(ctx, id)
	return listingArg(args, 0), args.Bool(1), args.Error(2)
}

func (m *StorageMock) UpdateListing(ctx context.Context, id string, listing *models.Listing) (*models.Listing, bool, error) {
	args := m.Called(ctx, id, listing)
	return listingArg(args, 0), args.Bool(1), args.Error(2)
}

func (m *StorageMock) DeleteListing(ctx context.Context, id string) (*models.Listing, bool, error) {
	args := m.Called(ctx, id)
	return listingArg(args, 0), args.Bool(1), args.Error(2)
}

func (m *StorageMock) InsertReview(ctx context.Context, listingID string, review *models.Review) (string, bool, error) {
	args := m.Called(ctx, listingID, review)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *StorageMock) FindReviewByID(ctx context.Context, id string) (*models.Review, bool, error) {
	args := m.Called(ctx, id)
	review, _ := args.Get(0).(*models.Review)
	return review, args.Bool(1), args.Error(2)
}

func (m *StorageMock) FindReviewsByIDs(ctx context.Context, ids []string) ([]models.Review, error) {
	args := m.Called(ctx, ids)
	reviews, _ := args.Get(0).([]models.Review)
	return reviews, args.Error(1)
}

func (m *StorageMock) DeleteReview(ctx context.Context, listingID, reviewID string) (bool, error) {
	args := m.Called(ctx, listingID, reviewID)
	return args.Bool(0), args.Error(1)
}

func (m *StorageMock) DeleteReviews(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return int64(args.Int(0)), args.Error(1)
}

func (m *StorageMock) CreateUser(ctx context.Context, usr *models.User) (string, error) {
	args := m.Called(ctx, usr)
	return args.String(0), args.Error(1)
}

func (m *StorageMock) FindUserByUsername(ctx context.Context, username string) (*models.User, bool, error) {
	args := m.Called(ctx, username)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Bool(1), args.Error(2)
}

func (m *StorageMock) FindUserByID(ctx context.Context, id string) (*models.User, bool, error) {
	args := m.Called(ctx, id)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Bool(1), args.Error(2)
}

func (m *StorageMock) SaveSession(ctx context.Context, record *models.SessionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *StorageMock) FindSession(ctx context.Context, id string) (*models.SessionRecord, bool, error) {
	args := m.Called(ctx, id)
	record, _ := args.Get(0).(*models.SessionRecord)
	return record, args.Bool(1), args.Error(2)
}

func (m *StorageMock) TouchSession(ctx context.Context, id string, expiresAt time.Time) error {
	args := m.Called(ctx, id, expiresAt)
	return args.Error(0)
}

func (m *StorageMock) DeleteSession(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *StorageMock) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return int64(args.Int(0)), args.Error(1)
}

func (m *StorageMock) CountListings(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return int64(args.Int(0)), args.Error(1)
}

func (m *StorageMock) CountReviews(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return int64(args.Int(0)), args.Error(1)
}

func (m *StorageMock) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return int64(args.Int(0)), args.Error(1)
}
