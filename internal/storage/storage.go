package storage

import (
	"context"
	"io"
	"time"
)

// Object identifies a stored file. ID is what later Delete/SignedURL calls take.
type Object struct {
	ID  string
	URL string
}

// Store is the media host. Deletes are idempotent.
type Store interface {
	Store(ctx context.Context, r io.Reader, size int64, folder, filename, contentType string) (Object, error)
	Delete(ctx context.Context, id string) error
	SignedURL(ctx context.Context, id string, ttl time.Duration) (string, error)
}
