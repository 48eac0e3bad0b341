// Package storage persists uploaded media bytes behind a small key/value
// interface with local-disk and MinIO backends.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

// ErrNotFound is returned for missing objects and for keys that are not
// allowed to address anything (absolute paths, traversal, directories).
var ErrNotFound = errors.New("storage: object not found")

// Object is an opened stored object. Callers must close Body.
type Object struct {
	Body    io.ReadCloser
	Size    int64
	ModTime time.Time
}

// Store is a flat namespace of slash-separated keys.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// CleanKey validates a client-supplied relative path and returns its
// canonical form. Any ".." segment, absolute path or empty key is rejected.
func CleanKey(rel string) (string, error) {
	if rel == "" || strings.ContainsRune(rel, 0) {
		return "", ErrNotFound
	}
	if strings.HasPrefix(rel, "/") || strings.HasPrefix(rel, `\`) || strings.Contains(rel, ":") {
		return "", ErrNotFound
	}
	for _, seg := range strings.FieldsFunc(rel, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return "", ErrNotFound
		}
	}
	key := path.Clean(strings.ReplaceAll(rel, `\`, "/"))
	if key == "." || key == "" {
		return "", ErrNotFound
	}
	return key, nil
}
