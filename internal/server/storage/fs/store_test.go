package fs

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/intelligence/internal/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{Root: t.TempDir()})
	require.NoError(t, err)
	return s
}

func TestNew_RequiresRoot(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestNew_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b")
	s, err := New(Config{Root: root})
	require.NoError(t, err)

	info, err := os.Stat(s.BaseDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestPutGet_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	cases := map[string][]byte{
		"userimages/u1":        []byte("\x89PNG\r\n"),
		"users/u1/docs/a.txt":  []byte("hello"),
		"empty":                {},
		"deep/er/still/binary": {0, 1, 2, 255, 0},
	}
	for p, data := range cases {
		require.NoError(t, s.Put(ctx, p, data), p)
		got, err := s.Get(ctx, p)
		require.NoError(t, err, p)
		assert.Equal(t, len(data), len(got), p)
		assert.Equal(t, string(data), string(got), p)
	}
}

func TestPut_Overwrites(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "f", []byte("first, longer content")))
	require.NoError(t, s.Put(ctx, "f", []byte("second")))

	got, err := s.Get(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestGet_Missing(t *testing.T) {
	s := newStore(t)
	_, err := s.Get(context.Background(), "never/written")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGet_DirectoryIsNotFound(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "d/f", []byte("x")))

	_, err := s.Get(ctx, "d")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPathUnderFileIsNotFound(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "userimages/u1", []byte("img")))

	_, err := s.Get(ctx, "userimages/u1/avatar")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NotErrorIs(t, err, storage.ErrIO)

	_, err = s.List(ctx, "userimages/u1/sub")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "userimages/u1/avatar"), storage.ErrNotFound)

	m := storage.NewManager(s, nil)
	data, ok, err := m.Get(ctx, "userimages/u1/avatar")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)

	names, ok, err := m.ListChildren(ctx, "userimages/u1/sub")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, names)
}

func TestDelete(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "userimages/u1", []byte("img")))
	require.NoError(t, s.Delete(ctx, "userimages/u1"))

	_, err := s.Get(ctx, "userimages/u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, "userimages/u1"), storage.ErrNotFound)
}

func TestDelete_DirectoryIsNotFound(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "d/f", []byte("x")))
	require.NoError(t, os.Mkdir(filepath.Join(s.BaseDir(), "empty"), 0o755))

	assert.ErrorIs(t, s.Delete(ctx, "d"), storage.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "empty"), storage.ErrNotFound)

	_, err := os.Stat(filepath.Join(s.BaseDir(), "empty"))
	assert.NoError(t, err, "empty directory must survive")
	got, err := s.Get(ctx, "d/f")
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}

func TestSize_RecursiveSum(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	files := map[string]int{
		"users/u1/a":       3,
		"users/u1/b/c":     10,
		"users/u1/b/d/e":   7,
		"users/u1/b/d/f":   0,
		"users/u2/ignored": 100,
	}
	for p, n := range files {
		require.NoError(t, s.Put(ctx, p, make([]byte, n)))
	}

	total, err := s.Size(ctx, "users/u1")
	require.NoError(t, err)
	assert.Equal(t, uint64(20), total)

	sub, err := s.Size(ctx, "users/u1/b")
	require.NoError(t, err)
	assert.Equal(t, uint64(17), sub)

	file, err := s.Size(ctx, "users/u1/b/c")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), file)

	all, err := s.Size(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, uint64(120), all)
}

func TestSize_MissingDirIsZeroAndCreated(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	n, err := s.Size(ctx, "users/nobody")
	require.NoError(t, err)
	assert.Zero(t, n)

	info, err := os.Stat(filepath.Join(s.BaseDir(), "users", "nobody"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	names, err := s.List(ctx, "users/nobody")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestList(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, p := range []string{"users/u1/a.txt", "users/u1/b.txt", "users/u1/sub/c.txt"} {
		require.NoError(t, s.Put(ctx, p, []byte("x")))
	}

	names, err := s.List(ctx, "users/u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt", "sub"}, names)

	_, err = s.List(ctx, "users/missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.List(ctx, "users/u1/a.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEscape_AllowedByDefault(t *testing.T) {
	parent := t.TempDir()
	s, err := New(Config{Root: filepath.Join(parent, "root")})
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "../outside", []byte("x")))
	_, err = os.Stat(filepath.Join(parent, "outside"))
	assert.NoError(t, err)
}

func TestEscape_Confined(t *testing.T) {
	parent := t.TempDir()
	s, err := New(Config{Root: filepath.Join(parent, "root"), Confine: true})
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, s.Put(ctx, "../outside", []byte("x")), storage.ErrPermissionDenied)
	_, err = s.Get(ctx, "a/../../outside")
	assert.ErrorIs(t, err, storage.ErrPermissionDenied)

	_, err = os.Stat(filepath.Join(parent, "outside"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, s.Put(ctx, "a/../inside", []byte("x")))
}

func TestAbsolutePathIsReRooted(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "/abs/x", []byte("x")))
	_, err := os.Stat(filepath.Join(s.BaseDir(), "abs", "x"))
	assert.NoError(t, err)

	got, err := s.Get(ctx, "abs/x")
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}

func TestCancelledContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Put(ctx, "f", []byte("x")), context.Canceled)
}

func TestConcurrentDistinctPaths(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := filepath.ToSlash(filepath.Join("users", "u", string(rune('a'+i))))
			assert.NoError(t, s.Put(ctx, p, []byte{byte(i)}))
		}(i)
	}
	wg.Wait()

	n, err := s.Size(ctx, "users/u")
	require.NoError(t, err)
	assert.Equal(t, uint64(16), n)
}
