// Package fs is the filesystem storage backend. Paths are resolved under a
// base directory fixed at construction.
package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dmitrijs2005/intelligence/internal/filex"
	"github.com/dmitrijs2005/intelligence/internal/logging"
	"github.com/dmitrijs2005/intelligence/internal/server/storage"
)

// Config holds configuration for the filesystem backend.
type Config struct {
	// Root is the storage directory. Relative roots are joined onto the
	// working directory at construction.
	Root string

	// DirMode is the permission mode for created directories. Default: 0755
	DirMode os.FileMode

	// FileMode is the permission mode for written files. Default: 0644
	FileMode os.FileMode

	// Confine rejects paths that resolve outside the base directory with
	// storage.ErrPermissionDenied. When false such paths are served and
	// logged as a warning.
	Confine bool

	Logger logging.Logger
}

// Store is a filesystem-backed storage.Backend. It keeps no mutable state
// after New and is safe for concurrent use.
type Store struct {
	base     string
	dirMode  os.FileMode
	fileMode os.FileMode
	confine  bool
	logger   logging.Logger
}

func New(cfg Config) (*Store, error) {
	if cfg.Root == "" {
		return nil, errors.New("storage root is required")
	}
	if cfg.DirMode == 0 {
		cfg.DirMode = 0o755
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0o644
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}

	base, err := filex.ResolveBaseDir(cfg.Root, cfg.DirMode)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}

	return &Store{
		base:     base,
		dirMode:  cfg.DirMode,
		fileMode: cfg.FileMode,
		confine:  cfg.Confine,
		logger:   cfg.Logger.With("module", "storage.fs", "base_dir", base),
	}, nil
}

// BaseDir is the absolute directory every path is resolved under.
func (s *Store) BaseDir() string { return s.base }

func (s *Store) resolve(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		s.logger.Warn(ctx, "absolute path re-rooted under storage root", "path", p)
	}
	full := filepath.Join(s.base, filepath.FromSlash(p))
	rel, err := filepath.Rel(s.base, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		s.logger.Warn(ctx, "path resolves outside storage root", "path", p, "resolved", full)
		if s.confine {
			return "", fmt.Errorf("%w: %s escapes storage root", storage.ErrPermissionDenied, p)
		}
	}
	return full, nil
}

func (s *Store) Get(ctx context.Context, p string) ([]byte, error) {
	full, err := s.resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if missing(err) {
			return nil, fmt.Errorf("%w: %w", storage.ErrNotFound, err)
		}
		if info, serr := os.Stat(full); serr == nil && info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a directory", storage.ErrNotFound, p)
		}
		return nil, storage.Classify(err)
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, p string, data []byte) error {
	full, err := s.resolve(ctx, p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), s.dirMode); err != nil {
		return storage.Classify(err)
	}
	if err := os.WriteFile(full, data, s.fileMode); err != nil {
		return storage.Classify(err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, p string) error {
	full, err := s.resolve(ctx, p)
	if err != nil {
		return err
	}
	info, err := os.Stat(full)
	if err != nil {
		if missing(err) {
			return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
		}
		return storage.Classify(err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", storage.ErrNotFound, p)
	}
	if err := os.Remove(full); err != nil {
		return storage.Classify(err)
	}
	return nil
}

// Size measures a file, or walks a directory summing regular files. A
// missing path is created as a directory and measures 0.
func (s *Store) Size(ctx context.Context, p string) (uint64, error) {
	full, err := s.resolve(ctx, p)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(full)
	if errors.Is(err, iofs.ErrNotExist) {
		if err := os.MkdirAll(full, s.dirMode); err != nil {
			return 0, storage.Classify(err)
		}
		return 0, nil
	}
	if err != nil {
		return 0, storage.Classify(err)
	}
	if !info.IsDir() {
		return uint64(info.Size()), nil
	}

	var total uint64
	err = filepath.WalkDir(full, func(_ string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += uint64(fi.Size())
		return nil
	})
	if err != nil {
		return 0, storage.Classify(err)
	}
	return total, nil
}

func (s *Store) List(ctx context.Context, p string) ([]string, error) {
	full, err := s.resolve(ctx, p)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if missing(err) {
			return nil, fmt.Errorf("%w: %w", storage.ErrNotFound, err)
		}
		return nil, storage.Classify(err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", storage.ErrNotFound, p)
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		if missing(err) {
			return nil, fmt.Errorf("%w: %w", storage.ErrNotFound, err)
		}
		return nil, storage.Classify(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// missing reports whether nothing is stored at a path: it does not exist,
// or one of its parents is a regular file.
func missing(err error) bool {
	return errors.Is(err, iofs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

var _ storage.Backend = (*Store)(nil)
