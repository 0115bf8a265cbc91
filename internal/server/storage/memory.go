package storage

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"
)

// MemoryBackend is an in-process Backend. Directories are implied by the
// keys below them, except that Size creates an empty one on demand.
type MemoryBackend struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]struct{}
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{files: map[string][]byte{}, dirs: map[string]struct{}{}}
}

func clean(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

func (b *MemoryBackend) Get(_ context.Context, p string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.files[clean(p)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte{}, data...), nil
}

func (b *MemoryBackend) Put(_ context.Context, p string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.files[clean(p)] = append([]byte{}, data...)
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, p string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := clean(p)
	if _, ok := b.files[key]; !ok {
		return ErrNotFound
	}
	delete(b.files, key)
	return nil
}

func (b *MemoryBackend) Size(_ context.Context, p string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := clean(p)
	if data, ok := b.files[key]; ok {
		return uint64(len(data)), nil
	}
	var total uint64
	for k, v := range b.files {
		if under(key, k) {
			total += uint64(len(v))
		}
	}
	b.dirs[key] = struct{}{}
	return total, nil
}

func (b *MemoryBackend) List(_ context.Context, p string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	key := clean(p)
	if _, ok := b.files[key]; ok {
		return nil, ErrNotFound
	}
	seen := map[string]struct{}{}
	for k := range b.files {
		if under(key, k) {
			seen[firstSegment(key, k)] = struct{}{}
		}
	}
	for d := range b.dirs {
		if d != key && under(key, d) {
			seen[firstSegment(key, d)] = struct{}{}
		}
	}
	_, explicit := b.dirs[key]
	if len(seen) == 0 && !explicit && key != "" {
		return nil, ErrNotFound
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func under(dir, key string) bool {
	if dir == "" {
		return key != ""
	}
	return strings.HasPrefix(key, dir+"/")
}

func firstSegment(dir, key string) string {
	rest := key
	if dir != "" {
		rest = strings.TrimPrefix(key, dir+"/")
	}
	name, _, _ := strings.Cut(rest, "/")
	return name
}

var _ Backend = (*MemoryBackend)(nil)
