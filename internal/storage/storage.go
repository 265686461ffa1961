package storage

import (
	"context"
)

// Storage persists diff artifacts (composite diffs, captured screenshots).
type Storage interface {
	// Put stores data under the given key and returns the artifact URL.
	Put(ctx context.Context, key string, data []byte) (string, error)
	// Get retrieves data from a URL previously returned by Put.
	Get(ctx context.Context, url string) ([]byte, error)
}
