package viewstate

import (
	"context"
	"time"
)

const DefaultSnapshotTTL = 2 * time.Hour

// JSONStore is the key-value store the fetched rows are kept in.
type JSONStore interface {
	GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SnapshotStore keeps the fetched rows of each session between requests, so
// search, sort and selection never re-fetch.
type SnapshotStore struct {
	store JSONStore
	ttl   time.Duration
}

func NewSnapshotStore(store JSONStore, ttl time.Duration) *SnapshotStore {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotStore{store: store, ttl: ttl}
}

func snapshotKey(sessionID string) string {
	return "rows:" + sessionID
}

// Load returns the rows saved for the session. found is false when none
// were saved or they expired.
func (s *SnapshotStore) Load(ctx context.Context, sessionID string) (rows []Row, found bool, err error) {
	found, err = s.store.GetJSON(ctx, snapshotKey(sessionID), &rows)
	return rows, found, err
}

func (s *SnapshotStore) Save(ctx context.Context, sessionID string, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	return s.store.SetJSON(ctx, snapshotKey(sessionID), rows, s.ttl)
}

// Delete drops the saved rows, forcing the next request to fetch again.
func (s *SnapshotStore) Delete(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, snapshotKey(sessionID))
}
