package jsondb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/patric-chuzhbe/wanderlust/internal/models"
)

// CreateUser fails with models.ErrUserExists when the username is taken.
func (db *JSONDB) CreateUser(ctx context.Context, usr *models.User) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, taken := db.Cache.UserIDs[usr.Username]; taken {
		return "", models.ErrUserExists
	}

	stored := *usr
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()
	db.Cache.Users[stored.ID] = &stored
	db.Cache.UserIDs[stored.Username] = stored.ID

	return stored.ID, nil
}

func (db *JSONDB) FindUserByID(ctx context.Context, id string) (*models.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr, found := db.Cache.Users[id]
	if !found {
		return nil, false, nil
	}
	result := *usr

	return &result, true, nil
}

func (db *JSONDB) FindUserByUsername(ctx context.Context, username string) (*models.User, bool, error) {
	db.mu.RLock()
	id, found := db.Cache.UserIDs[username]
	db.mu.RUnlock()
	if !found {
		return nil, false, nil
	}

	return db.FindUserByID(ctx, id)
}

func (db *JSONDB) CountUsers(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Users)), nil
}
