package jsondb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

// InsertReview stores the review and appends its id to the listing.
// found is false when the listing does not exist.
func (db *JSONDB) InsertReview(ctx context.Context, listingID string, review *models.Review) (string, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	listing, found := db.Cache.Listings[listingID]
	if !found {
		return "", false, nil
	}

	stored := *review
	stored.ID = uuid.NewString()
	stored.ListingID = listingID
	stored.CreatedAt = time.Now().UTC()
	db.Cache.Reviews[stored.ID] = &stored
	listing.Reviews = append(listing.Reviews, stored.ID)

	return stored.ID, true, nil
}

func (db *JSONDB) FindReviewByID(ctx context.Context, id string) (*models.Review, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	review, found := db.Cache.Reviews[id]
	if !found {
		return nil, false, nil
	}
	result := *review

	return &result, true, nil
}

// FindReviewsByIDs keeps the order of ids and skips the missing ones.
func (db *JSONDB) FindReviewsByIDs(ctx context.Context, ids []string) ([]models.Review, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := make([]models.Review, 0, len(ids))
	for _, id := range ids {
		if review, ok := db.Cache.Reviews[id]; ok {
			result = append(result, *review)
		}
	}

	return result, nil
}

// DeleteReview detaches the review from the listing and removes it.
func (db *JSONDB) DeleteReview(ctx context.Context, listingID, reviewID string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if listing, ok := db.Cache.Listings[listingID]; ok {
		listing.Reviews = funk.FilterString(listing.Reviews, func(id string) bool {
			return id != reviewID
		})
	}

	_, found := db.Cache.Reviews[reviewID]
	delete(db.Cache.Reviews, reviewID)

	return found, nil
}

func (db *JSONDB) DeleteReviews(ctx context.Context, ids []string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var deleted int64
	for _, id := range funk.UniqString(ids) {
		if _, ok := db.Cache.Reviews[id]; ok {
			delete(db.Cache.Reviews, id)
			deleted++
		}
	}

	return deleted, nil
}

func (db *JSONDB) CountReviews(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Reviews)), nil
}
