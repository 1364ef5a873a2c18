// Package jsondb is an in-process storage backend whose state is loaded from
// and written back to a single JSON file.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

// JSONDB keeps every collection in memory and persists them on Close.
type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

// CacheStruct is the on-disk layout.
type CacheStruct struct {
	Listings   map[string]*models.Listing
	ListingIDs []string
	Reviews    map[string]*models.Review
	Users      map[string]*models.User
	UserIDs    map[string]string
	Sessions   map[string]*models.SessionRecord
}

// NewCache returns an empty cache with every map allocated.
func NewCache() CacheStruct {
	return CacheStruct{
		Listings:   map[string]*models.Listing{},
		ListingIDs: []string{},
		Reviews:    map[string]*models.Review{},
		Users:      map[string]*models.User{},
		UserIDs:    map[string]string{},
		Sessions:   map[string]*models.SessionRecord{},
	}
}

func (c *CacheStruct) fillMissing() {
	empty := NewCache()
	if c.Listings == nil {
		c.Listings = empty.Listings
	}
	if c.ListingIDs == nil {
		c.ListingIDs = empty.ListingIDs
	}
	if c.Reviews == nil {
		c.Reviews = empty.Reviews
	}
	if c.Users == nil {
		c.Users = empty.Users
	}
	if c.UserIDs == nil {
		c.UserIDs = empty.UserIDs
	}
	if c.Sessions == nil {
		c.Sessions = empty.Sessions
	}
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	if err := os.WriteFile(fileName, jsonData, 0644); err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}

func parseJSONFile(fileName string, cache *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cache)
}

// New opens fileName, creating it when it does not exist yet.
func New(fileName string) (*JSONDB, error) {
	db := &JSONDB{
		fileName: fileName,
		Cache:    NewCache(),
	}

	err := parseJSONFile(fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("in internal/db/jsondb/jsondb.go/New(): error while `parseJSONFile()` calling: %w", err)
		}
		if err := writeToJSONFile(fileName, db.Cache); err != nil {
			return nil, fmt.Errorf("in internal/db/jsondb/jsondb.go/New(): error while `writeToJSONFile()` calling: %w", err)
		}
	}
	db.Cache.fillMissing()

	return db, nil
}

// NewInMemory returns a JSONDB that never touches the filesystem.
func NewInMemory() *JSONDB {
	return &JSONDB{Cache: NewCache()}
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close writes the cache back to its file. In-memory instances do nothing.
func (db *JSONDB) Close() error {
	if db.fileName == "" {
		return nil
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	return writeToJSONFile(db.fileName, db.Cache)
}

func copyListing(listing *models.Listing) *models.Listing {
	result := *listing
	result.Reviews = append([]string{}, listing.Reviews...)
	return &result
}

func (db *JSONDB) InsertListing(ctx context.Context, listing *models.Listing) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored := copyListing(listing)
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()
	db.Cache.Listings[stored.ID] = stored
	db.Cache.ListingIDs = append(db.Cache.ListingIDs, stored.ID)

	return stored.ID, nil
}

// FindListings returns every listing in insertion order.
func (db *JSONDB) FindListings(ctx context.Context) ([]models.Listing, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := make([]models.Listing, 0, len(db.Cache.ListingIDs))
	for _, id := range db.Cache.ListingIDs {
		if listing, ok := db.Cache.Listings[id]; ok {
			result = append(result, *copyListing(listing))
		}
	}

	return result, nil
}

func (db *JSONDB) FindListingByID(ctx context.Context, id string) (*models.Listing, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	listing, found := db.Cache.Listings[id]
	if !found {
		return nil, false, nil
	}

	return copyListing(listing), true, nil
}

// UpdateListing replaces the editable fields and returns the stored result.
func (db *JSONDB) UpdateListing(ctx context.Context, id string, listing *models.Listing) (*models.Listing, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored, found := db.Cache.Listings[id]
	if !found {
		return nil, false, nil
	}

	stored.Title = listing.Title
	stored.Description = listing.Description
	stored.Image = listing.Image
	stored.Price = listing.Price
	stored.Location = listing.Location
	stored.Country = listing.Country

	return copyListing(stored), true, nil
}

// DeleteListing removes the listing and returns it. Its reviews are left alone.
func (db *JSONDB) DeleteListing(ctx context.Context, id string) (*models.Listing, bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored, found := db.Cache.Listings[id]
	if !found {
		return nil, false, nil
	}

	delete(db.Cache.Listings, id)
	db.Cache.ListingIDs = funk.FilterString(db.Cache.ListingIDs, func(listingID string) bool {
		return listingID != id
	})

	return stored, true, nil
}

func (db *JSONDB) CountListings(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Listings)), nil
}
