package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage contains blob storage abstractions over a flat key namespace.
// Implementations stream content and never buffer whole objects in memory.

var (
	// ErrNotExist is returned by Get and Delete when no object exists under the key.
	ErrNotExist = errors.New("object does not exist")
	// ErrAlreadyExists is returned by Put when the key is already taken.
	// Backends must refuse to overwrite; callers decide whether to rename and retry.
	ErrAlreadyExists = errors.New("object already exists")
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the
// implementation will buffer/chunk as supported by the backend.
// ContentType and Metadata are optional.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a blob store over a single flat namespace of keys.
// Keys are single path elements; anything resembling a path is rejected by
// implementations before it can touch the underlying medium.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	// An existing key is never overwritten; ErrAlreadyExists is returned instead.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// List enumerates every object in the namespace. An empty namespace yields an
	// empty slice, not an error.
	List(ctx context.Context) ([]ObjectInfo, error)
	// Delete removes an object by key in a single operation and reports
	// ErrNotExist when there was nothing to remove. No separate existence check.
	Delete(ctx context.Context, key string) error
}
