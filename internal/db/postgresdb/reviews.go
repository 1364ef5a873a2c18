package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

// InsertReview inserts the review only when the listing exists.
func (db *PostgresDB) InsertReview(ctx context.Context, listingID string, review *models.Review) (string, bool, error) {
	if !validID(listingID) {
		return "", false, nil
	}

	id := uuid.NewString()
	result, err := db.database.ExecContext(
		ctx,
		`
			INSERT INTO reviews (id, listing_id, comment, rating, author_id)
				SELECT $1, listings.id, $3, $4, $5
					FROM listings
					WHERE listings.id = $2
		`,
		id,
		listingID,
		review.Comment,
		review.Rating,
		review.AuthorID,
	)
	if err != nil {
		return "", false, fmt.Errorf("in internal/db/postgresdb/reviews.go/InsertReview(): error while `ExecContext()` calling: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return "", false, err
	}
	if affected == 0 {
		return "", false, nil
	}

	return id, true, nil
}

func (db *PostgresDB) FindReviewByID(ctx context.Context, id string) (*models.Review, bool, error) {
	if !validID(id) {
		return nil, false, nil
	}

	review := &models.Review{}
	err := db.database.QueryRowContext(
		ctx,
		`SELECT id, listing_id, comment, rating, author_id, created_at FROM reviews WHERE id = $1`,
		id,
	).Scan(&review.ID, &review.ListingID, &review.Comment, &review.Rating, &review.AuthorID, &review.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("in internal/db/postgresdb/reviews.go/FindReviewByID(): error while `Scan()` calling: %w", err)
	}

	return review, true, nil
}

// FindReviewsByIDs keeps the order of ids and skips the missing ones.
func (db *PostgresDB) FindReviewsByIDs(ctx context.Context, ids []string) ([]models.Review, error) {
	result := make([]models.Review, 0, len(ids))
	for _, id := range ids {
		review, found, err := db.FindReviewByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if found {
			result = append(result, *review)
		}
	}

	return result, nil
}

// DeleteReview removes the row, which also detaches it from its listing.
func (db *PostgresDB) DeleteReview(ctx context.Context, listingID, reviewID string) (bool, error) {
	if !validID(reviewID) {
		return false, nil
	}

	result, err := db.database.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID)
	if err != nil {
		return false, fmt.Errorf("in internal/db/postgresdb/reviews.go/DeleteReview(): error while `ExecContext()` calling: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// DeleteReviews removes a batch of reviews in one transaction.
func (db *PostgresDB) DeleteReviews(ctx context.Context, ids []string) (int64, error) {
	transaction, err := db.database.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	var deleted int64
	for _, id := range funk.UniqString(ids) {
		if !validID(id) {
			continue
		}
		result, err := transaction.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
		if err != nil {
			if rollbackErr := transaction.Rollback(); rollbackErr != nil {
				return 0, rollbackErr
			}
			return 0, fmt.Errorf("in internal/db/postgresdb/reviews.go/DeleteReviews(): error while `ExecContext()` calling: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			if rollbackErr := transaction.Rollback(); rollbackErr != nil {
				return 0, rollbackErr
			}
			return 0, err
		}
		deleted += affected
	}

	if err := transaction.Commit(); err != nil {
		return 0, err
	}

	return deleted, nil
}
