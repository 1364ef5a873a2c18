// Package storagetest runs the same behavioural checks against any storage backend.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/wanderlust/internal/db/storage"
	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

// Run exercises the whole storage contract. The backend must start empty.
func Run(t *testing.T, db storage.Storage) {
	t.Helper()

	t.Run("listing lifecycle", func(t *testing.T) { listingLifecycle(t, db) })
	t.Run("reviews outlive their listing", func(t *testing.T) { reviewsOutliveListing(t, db) })
	t.Run("users", func(t *testing.T) { users(t, db) })
	t.Run("sessions", func(t *testing.T) { sessions(t, db) })
	t.Run("malformed ids are absent", func(t *testing.T) { malformedIDs(t, db) })
}

func listingLifecycle(t *testing.T, db storage.Storage) {
	ctx := context.Background()

	id, err := db.InsertListing(ctx, &models.Listing{Title: "Cabin", Price: 100, Country: "Norway"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	listings, err := db.FindListings(ctx)
	require.NoError(t, err)
	matches := 0
	for _, listing := range listings {
		if listing.ID == id {
			matches++
		}
	}
	assert.Equal(t, 1, matches)

	updated, found, err := db.UpdateListing(ctx, id, &models.Listing{Title: "Cabin by the lake", Price: 120})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, id, updated.ID)
	assert.Equal(t, "Cabin by the lake", updated.Title)
	assert.Equal(t, 120.0, updated.Price)

	deleted, found, err := db.DeleteListing(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, id, deleted.ID)

	_, found, err = db.FindListingByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = db.DeleteListing(ctx, id)
	require.NoError(t, err)
	assert.False(t, found)
}

func reviewsOutliveListing(t *testing.T, db storage.Storage) {
	ctx := context.Background()

	listingID, err := db.InsertListing(ctx, &models.Listing{Title: "Loft", Price: 80})
	require.NoError(t, err)

	reviewID, found, err := db.InsertReview(ctx, listingID, &models.Review{Comment: "Great", Rating: 5, AuthorID: "someone"})
	require.NoError(t, err)
	require.True(t, found)

	listing, found, err := db.FindListingByID(ctx, listingID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{reviewID}, listing.Reviews)

	reviews, err := db.FindReviewsByIDs(ctx, listing.Reviews)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Great", reviews[0].Comment)

	_, _, err = db.DeleteListing(ctx, listingID)
	require.NoError(t, err)

	orphan, found, err := db.FindReviewByID(ctx, reviewID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, listingID, orphan.ListingID)

	deleted, err := db.DeleteReviews(ctx, []string{reviewID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func users(t *testing.T, db storage.Storage) {
	ctx := context.Background()

	id, err := db.CreateUser(ctx, &models.User{Username: "storagetest-user", Email: "u@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	_, err = db.CreateUser(ctx, &models.User{Username: "storagetest-user", Email: "other@example.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, models.ErrUserExists)

	usr, found, err := db.FindUserByUsername(ctx, "storagetest-user")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, id, usr.ID)
	assert.Equal(t, "hash", usr.PasswordHash)

	byID, found, err := db.FindUserByID(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "storagetest-user", byID.Username)
}

func sessions(t *testing.T, db storage.Storage) {
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, db.SaveSession(ctx, &models.SessionRecord{
		ID: "storagetest-live", Data: "payload", ExpiresAt: now.Add(time.Hour), TouchedAt: now,
	}))
	require.NoError(t, db.SaveSession(ctx, &models.SessionRecord{
		ID: "storagetest-stale", Data: "payload", ExpiresAt: now.Add(-time.Hour), TouchedAt: now,
	}))

	record, found, err := db.FindSession(ctx, "storagetest-live")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "payload", record.Data)

	_, found, err = db.FindSession(ctx, "storagetest-stale")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, db.TouchSession(ctx, "storagetest-live", now.Add(3*time.Hour)))
	record, _, err = db.FindSession(ctx, "storagetest-live")
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(3*time.Hour), record.ExpiresAt, time.Second)

	deleted, err := db.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, deleted, int64(1))

	require.NoError(t, db.DeleteSession(ctx, "storagetest-live"))
	_, found, err = db.FindSession(ctx, "storagetest-live")
	require.NoError(t, err)
	assert.False(t, found)
}

func malformedIDs(t *testing.T, db storage.Storage) {
	ctx := context.Background()

	_, found, err := db.FindListingByID(ctx, "not-an-id")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = db.FindReviewByID(ctx, "not-an-id")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = db.FindUserByID(ctx, "not-an-id")
	require.NoError(t, err)
	assert.False(t, found)
}
