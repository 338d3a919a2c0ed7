// Package storage contains a snapshot storage interface.
package storage

import (
	"context"
	"fmt"
	"time"
)

//go:generate mockgen -destination=./mock/storage.go -package=mock -source=storage.go

// ErrNotFound is returned by Load when collection has never been saved.
var ErrNotFound = fmt.Errorf("not found")

// Collection is a name of a snapshot stored as a whole.
type Collection string

const (
	// PostsCollection ...
	PostsCollection Collection = "posts"
	// ProfilesCollection ...
	ProfilesCollection Collection = "profiles"
	// ReactionsCollection ...
	ReactionsCollection Collection = "reactions"
	// CommentsCollection ...
	CommentsCollection Collection = "comments"
	// PollsCollection ...
	PollsCollection Collection = "polls"
)

// Collections lists every collection owned by the content store in the order they are flushed.
// nolint:gochecknoglobals
var Collections = []Collection{
	PostsCollection,
	ProfilesCollection,
	ReactionsCollection,
	CommentsCollection,
	PollsCollection,
}

// BackupCollection returns name of a backup bundle created at t.
func BackupCollection(t time.Time) Collection {
	return Collection(fmt.Sprintf("backup_%d", t.UnixNano()/int64(time.Millisecond)))
}

// Storage reads and writes whole-collection snapshots.
// Implementations have no knowledge about snapshot contents.
type Storage interface {
	// Save replaces snapshot of the collection.
	Save(ctx context.Context, c Collection, data []byte) error
	// Load returns the last saved snapshot or ErrNotFound.
	Load(ctx context.Context, c Collection) ([]byte, error)
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}
