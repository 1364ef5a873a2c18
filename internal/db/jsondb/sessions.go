package jsondb

import (
	"context"
	"time"

	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

// SaveSession inserts or replaces the record.
func (db *JSONDB) SaveSession(ctx context.Context, record *models.SessionRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	stored := *record
	db.Cache.Sessions[record.ID] = &stored

	return nil
}

// FindSession treats expired records as absent.
func (db *JSONDB) FindSession(ctx context.Context, id string) (*models.SessionRecord, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	record, found := db.Cache.Sessions[id]
	if !found || !record.ExpiresAt.After(time.Now()) {
		return nil, false, nil
	}
	result := *record

	return &result, true, nil
}

func (db *JSONDB) TouchSession(ctx context.Context, id string, expiresAt time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if record, ok := db.Cache.Sessions[id]; ok {
		record.ExpiresAt = expiresAt
		record.TouchedAt = time.Now().UTC()
	}

	return nil
}

func (db *JSONDB) DeleteSession(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.Cache.Sessions, id)

	return nil
}

func (db *JSONDB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var deleted int64
	for id, record := range db.Cache.Sessions {
		if !record.ExpiresAt.After(now) {
			delete(db.Cache.Sessions, id)
			deleted++
		}
	}

	return deleted, nil
}

func (db *JSONDB) CountSessions(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Sessions)), nil
}
