package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

const selectListingWithReviewIDs = `
	SELECT
		listings.id, listings.title, listings.description, listings.image, listings.price,
		listings.location, listings.country, listings.created_at,
		(
			SELECT string_agg(reviews.id::text, ',' ORDER BY reviews.position)
				FROM reviews
				WHERE reviews.listing_id = listings.id
		)
	FROM listings
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*models.Listing, error) {
	listing := &models.Listing{}
	var reviewIDs sql.NullString
	err := row.Scan(
		&listing.ID,
		&listing.Title,
		&listing.Description,
		&listing.Image,
		&listing.Price,
		&listing.Location,
		&listing.Country,
		&listing.CreatedAt,
		&reviewIDs,
	)
	if err != nil {
		return nil, err
	}
	listing.Reviews = splitIDs(reviewIDs)

	return listing, nil
}

func (db *PostgresDB) InsertListing(ctx context.Context, listing *models.Listing) (string, error) {
	id := uuid.NewString()
	_, err := db.database.ExecContext(
		ctx,
		`
			INSERT INTO listings (id, title, description, image, price, location, country)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
		id,
		listing.Title,
		listing.Description,
		listing.Image,
		listing.Price,
		listing.Location,
		listing.Country,
	)
	if err != nil {
		return "", fmt.Errorf("in internal/db/postgresdb/listings.go/InsertListing(): error while `ExecContext()` calling: %w", err)
	}

	return id, nil
}

// FindListings returns every listing, oldest first.
func (db *PostgresDB) FindListings(ctx context.Context) ([]models.Listing, error) {
	rows, err := db.database.QueryContext(ctx, selectListingWithReviewIDs+` ORDER BY listings.created_at, listings.id`)
	if err != nil {
		return nil, fmt.Errorf("in internal/db/postgresdb/listings.go/FindListings(): error while `QueryContext()` calling: %w", err)
	}
	defer rows.Close()

	result := []models.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("in internal/db/postgresdb/listings.go/FindListings(): error while `scanListing()` calling: %w", err)
		}
		result = append(result, *listing)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (db *PostgresDB) findListing(ctx context.Context, database queryer, id string) (*models.Listing, bool, error) {
	if !validID(id) {
		return nil, false, nil
	}

	listing, err := scanListing(database.QueryRowContext(ctx, selectListingWithReviewIDs+` WHERE listings.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("in internal/db/postgresdb/listings.go/findListing(): error while `scanListing()` calling: %w", err)
	}

	return listing, true, nil
}

func (db *PostgresDB) FindListingByID(ctx context.Context, id string) (*models.Listing, bool, error) {
	return db.findListing(ctx, db.database, id)
}

func (db *PostgresDB) UpdateListing(ctx context.Context, id string, listing *models.Listing) (*models.Listing, bool, error) {
	if !validID(id) {
		return nil, false, nil
	}

	result, err := db.database.ExecContext(
		ctx,
		`
			UPDATE listings
				SET title = $2, description = $3, image = $4, price = $5, location = $6, country = $7
				WHERE id = $1
		`,
		id,
		listing.Title,
		listing.Description,
		listing.Image,
		listing.Price,
		listing.Location,
		listing.Country,
	)
	if err != nil {
		return nil, false, fmt.Errorf("in internal/db/postgresdb/listings.go/UpdateListing(): error while `ExecContext()` calling: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if affected == 0 {
		return nil, false, nil
	}

	return db.findListing(ctx, db.database, id)
}

// DeleteListing removes the listing row and returns it. Review rows stay.
func (db *PostgresDB) DeleteListing(ctx context.Context, id string) (*models.Listing, bool, error) {
	transaction, err := db.database.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		_ = transaction.Rollback()
	}()

	listing, found, err := db.findListing(ctx, transaction, id)
	if err != nil || !found {
		return nil, false, err
	}

	if err := deleteByID(ctx, transaction, "listings", id); err != nil {
		return nil, false, err
	}

	if err := transaction.Commit(); err != nil {
		return nil, false, err
	}

	return listing, true, nil
}

func deleteByID(ctx context.Context, database executor, table, id string) error {
	_, err := database.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("in internal/db/postgresdb/listings.go/deleteByID(): error while `ExecContext()` calling: %w", err)
	}
	return nil
}
