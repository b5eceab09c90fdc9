// Package storage abstracts the document store backing cmdwarden's
// persisted state (rule document, decision logs, push subscriptions).
// Two implementations exist: a local filesystem store and an S3 store.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the requested document does not exist.
var ErrNotFound = errors.New("not found")

// Storage is a flat key/value document store. Paths are slash-separated
// and relative to the store root.
type Storage interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
}
