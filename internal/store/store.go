// Package store abstracts the persistence collaborators of the AI layer:
// an opaque keyed store for cache entries and an append-only usage log.
// Every backend observes identical get/set/invalidate and append/count
// semantics, so callers never know (or care) which mode is running.
package store

import (
	"context"
	"errors"
	"time"

	"lifeos/internal/models"
)

// ErrNotFound is returned by KeyedStore.Get when the key has no value.
var ErrNotFound = errors.New("store: key not found")

// KeyedStore is a keyed blob store with prefix deletion for feature-wide
// cache invalidation.
type KeyedStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// UsageLog is an append-only sink for usage records. Records are never
// edited in place; CountSince makes the log double as the quota counter.
type UsageLog interface {
	Append(ctx context.Context, rec models.UsageLogRecord) error
	CountSince(ctx context.Context, userID, feature string, since time.Time) (int, error)
	List(ctx context.Context, userID string, limit int) ([]models.UsageLogRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// PreferenceReader answers read-only user preference queries. The only
// one this subsystem needs is the reduced-AI opt-down.
type PreferenceReader interface {
	ReducedAI(ctx context.Context, userID string) (bool, error)
}
