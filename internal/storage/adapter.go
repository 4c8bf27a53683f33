package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned by Get when no object is stored under a key.
	ErrNotFound = errors.New("storage: object not found")
	// ErrInvalidKey is returned for empty keys and keys escaping the store.
	ErrInvalidKey = errors.New("storage: invalid key")
)

// Adapter stores library objects under slash-separated keys such as
// "library/<id>/package.epub".
type Adapter interface {
	// Put stores data under key, replacing any previous object
	Put(ctx context.Context, key string, data io.Reader) error

	// Get opens the object stored under key. A missing object yields ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object under key. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored under key
	Exists(ctx context.Context, key string) (bool, error)

	// List returns the keys starting with prefix, in lexical order
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases adapter resources
	Close() error
}

// cleanKey normalizes key and rejects keys that are empty or climb out
// of the store root.
func cleanKey(key string) (string, error) {
	k := strings.TrimPrefix(path.Clean("/"+key), "/")
	if k == "" || k == "." || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return k, nil
}
