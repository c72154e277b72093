// Package storage contains the artifact store abstraction and its local disk implementation.
// Keys are flat file names; the store owns a single directory.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidKey     = errors.New("invalid object key")
)

// PutObjectOptions define optional parameters for writing objects.
// Size is the expected number of bytes, or -1 when unknown. A mismatch fails the write.
type PutObjectOptions struct {
	Size        int64
	ContentType string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key          string
	Location     string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Storage is the artifact store used by the converter.
type Storage interface {
	// Put writes an object under the given key, replacing any existing object.
	// Readers never observe a partially written object.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get opens an object for streaming read alongside its info.
	// It returns ErrObjectNotFound when the key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
}
