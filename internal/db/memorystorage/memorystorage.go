// Package memorystorage is the default storage backend: the jsondb collections
// without a backing file. Everything is lost when the process exits.
package memorystorage

import (
	"github.com/patric-chuzhbe/wanderlust/internal/db/jsondb"
)

type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: jsondb.NewInMemory(),
	}, nil
}
