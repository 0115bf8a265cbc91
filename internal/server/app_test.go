package server

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/intelligence/internal/logging"
	"github.com/dmitrijs2005/intelligence/internal/server/auth"
	"github.com/dmitrijs2005/intelligence/internal/server/config"
	"github.com/dmitrijs2005/intelligence/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "admin", "name", "email", "password", "firstname", "lastname", "created_at"}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.SecretKey = "secret"
	c.FilePath = filepath.Join(t.TempDir(), "files")
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.ShutdownTimeout = time.Second
	return c
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	return db, mock
}

func TestNewBackend_UnknownIsError(t *testing.T) {
	c := testConfig(t)
	c.StorageBackend = "tape"
	_, err := newBackend(context.Background(), c, logging.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tape")
}

func TestNewBackend_S3WithStaticCredentials(t *testing.T) {
	c := testConfig(t)
	c.StorageBackend = config.StorageBackendS3
	c.S3Bucket = "intelligence"
	c.S3BaseEndpoint = "http://127.0.0.1:9000"
	c.S3RootUser = "minio"
	c.S3RootPassword = "minio123"
	c.S3UsePathStyle = true

	b, err := newBackend(context.Background(), c, logging.Nop())
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestNewApp_EmptySecretFails(t *testing.T) {
	db, _ := newMockDB(t)
	defer db.Close()

	c := testConfig(t)
	c.SecretKey = ""
	_, err := newApp(context.Background(), c, logging.Nop(), db, repomanager.NewPostgresRepositoryManager())
	require.ErrorIs(t, err, auth.ErrEmptySecret)
}

func TestNewApp_WiredRouter(t *testing.T) {
	db, mock := newMockDB(t)
	defer db.Close()

	c := testConfig(t)
	app, err := newApp(context.Background(), c, logging.Nop(), db, repomanager.NewPostgresRepositoryManager())
	require.NoError(t, err)

	t.Run("health pings the database", func(t *testing.T) {
		mock.ExpectPing()
		rec := httptest.NewRecorder()
		app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("self can upload and anyone can read", func(t *testing.T) {
		codec, err := auth.NewCodec([]byte(c.SecretKey))
		require.NoError(t, err)
		tok, err := codec.Issue("u1", time.Now())
		require.NoError(t, err)

		mock.ExpectQuery("SELECT id, admin, name, email").
			WithArgs("u1").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow("u1", false, "alice", "a@x", "hash", nil, nil, time.Now()))

		req := httptest.NewRequest(http.MethodPut, "/api/v1/users/alice/image", bytes.NewReader([]byte("\x89PNG\r\n\x1a\n")))
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		app.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = httptest.NewRecorder()
		app.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/alice/image", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	})

	t.Run("unknown subject is rejected", func(t *testing.T) {
		codec, _ := auth.NewCodec([]byte(c.SecretKey))
		tok, _ := codec.Issue("ghost", time.Now())

		mock.ExpectQuery("SELECT id, admin, name, email").
			WithArgs("ghost").
			WillReturnError(sql.ErrNoRows)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		app.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectClose()

	app, err := newApp(context.Background(), testConfig(t), logging.Nop(), db, repomanager.NewPostgresRepositoryManager())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	require.NoError(t, mock.ExpectationsWereMet())
}
