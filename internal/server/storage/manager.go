package storage

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/intelligence/internal/logging"
)

// Observer receives one call per backend operation.
type Observer func(op, result string)

// Manager is the facade in front of a Backend. It forwards every call once,
// without retries, and turns not-found into an empty result for Get and
// ListChildren. Copying a Manager copies only the backend handle.
type Manager struct {
	backend  Backend
	logger   logging.Logger
	observer Observer
}

type ManagerOption func(*Manager)

func WithObserver(o Observer) ManagerOption {
	return func(m *Manager) { m.observer = o }
}

func NewManager(b Backend, logger logging.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = logging.Nop()
	}
	m := &Manager{backend: b, logger: logger.With("module", "storage")}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Get returns (data, true, nil) when content exists, (nil, false, nil) when
// it does not, and a non-nil error for any other failure.
func (m *Manager) Get(ctx context.Context, path string) ([]byte, bool, error) {
	data, err := m.backend.Get(ctx, path)
	m.done(ctx, "get", path, err)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (m *Manager) Put(ctx context.Context, path string, data []byte) error {
	err := m.backend.Put(ctx, path, data)
	m.done(ctx, "put", path, err)
	return err
}

func (m *Manager) Delete(ctx context.Context, path string) error {
	err := m.backend.Delete(ctx, path)
	m.done(ctx, "delete", path, err)
	return err
}

func (m *Manager) Size(ctx context.Context, path string) (uint64, error) {
	n, err := m.backend.Size(ctx, path)
	m.done(ctx, "size", path, err)
	return n, err
}

// ListChildren is List with not-found mapped to (nil, false, nil).
func (m *Manager) ListChildren(ctx context.Context, path string) ([]string, bool, error) {
	names, err := m.backend.List(ctx, path)
	m.done(ctx, "list", path, err)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return names, true, nil
}

func (m *Manager) done(ctx context.Context, op, path string, err error) {
	result := Result(err)
	if m.observer != nil {
		m.observer(op, result)
	}
	switch result {
	case "ok", "not_found":
		m.logger.Debug(ctx, "storage op", "op", op, "path", path, "result", result)
	default:
		m.logger.Error(ctx, "storage op failed", "op", op, "path", path, "error", err)
	}
}
