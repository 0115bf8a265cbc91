// Package storage defines the backend-agnostic content store used for
// per-user assets, and the Manager facade handlers talk to.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound means nothing exists at the path (or, for List, the path
	// is not a directory).
	ErrNotFound         = errors.New("storage: not found")
	ErrPermissionDenied = errors.New("storage: permission denied")
	ErrIO               = errors.New("storage: io error")
)

// Backend is a content store keyed by relative, slash-separated paths.
// Implementations must be safe for concurrent use. Concurrent Puts to the
// same path race; the last write wins.
type Backend interface {
	// Get returns the content at path, or ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)
	// Put writes data at path, creating missing parents and overwriting.
	Put(ctx context.Context, path string, data []byte) error
	// Delete removes the content at path; ErrNotFound if absent.
	Delete(ctx context.Context, path string) error
	// Size is the length of a file or the recursive sum under a directory.
	// A missing directory is created and measures 0.
	Size(ctx context.Context, path string) (uint64, error)
	// List returns immediate child names; ErrNotFound if path is not a
	// directory.
	List(ctx context.Context, path string) ([]string, error)
}

// Classify wraps err with the sentinel matching its class. Errors already
// carrying a sentinel are returned unchanged.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPermissionDenied), errors.Is(err, ErrIO):
		return err
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	default:
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
}

// Result names the outcome class of err for logs and metrics.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	default:
		return "error"
	}
}
