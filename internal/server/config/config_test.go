package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()
	assert.Equal(t, ":6969", c.EndpointAddrHTTP)
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Equal(t, 24*time.Hour, c.TokenValidityDuration)
	assert.Equal(t, StorageBackendFS, c.StorageBackend)
	assert.Equal(t, "files", c.FilePath)
	assert.Empty(t, c.SecretKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"ok fs", func(c *Config) { c.SecretKey = "k" }, false},
		{"ok s3", func(c *Config) { c.SecretKey = "k"; c.StorageBackend = StorageBackendS3; c.S3Bucket = "b" }, false},
		{"missing secret", func(c *Config) {}, true},
		{"missing dsn", func(c *Config) { c.SecretKey = "k"; c.DatabaseDSN = "" }, true},
		{"zero ttl", func(c *Config) { c.SecretKey = "k"; c.TokenValidityDuration = 0 }, true},
		{"unknown backend", func(c *Config) { c.SecretKey = "k"; c.StorageBackend = "ftp" }, true},
		{"fs without path", func(c *Config) { c.SecretKey = "k"; c.FilePath = "" }, true},
		{"s3 without bucket", func(c *Config) { c.SecretKey = "k"; c.StorageBackend = StorageBackendS3 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseEnv_OriginalVariableNames(t *testing.T) {
	c := defaults()
	err := parseEnv(c, map[string]string{
		"FILE_PATH":   "data",
		"DB_HOST":     "db:5432",
		"DB_USER":     "app",
		"DB_PASS":     "p@ss",
		"DB_DATABASE": "intel",
		"JWT_SECRET":  "from-env",
		"TOKEN_TTL":   "90m",
	})
	require.NoError(t, err)

	assert.Equal(t, "data", c.FilePath)
	assert.Equal(t, "from-env", c.SecretKey)
	assert.Equal(t, 90*time.Minute, c.TokenValidityDuration)
	assert.Equal(t, "postgres://app:p%40ss@db:5432/intel?sslmode=disable", c.DatabaseDSN)
	assert.Equal(t, ":6969", c.EndpointAddrHTTP, "unset variables keep their value")
}

func TestParseEnv_ExplicitDSNWins(t *testing.T) {
	c := defaults()
	require.NoError(t, parseEnv(c, map[string]string{
		"DATABASE_DSN": "postgres://explicit/db",
		"DB_HOST":      "ignored",
	}))
	assert.Equal(t, "postgres://explicit/db", c.DatabaseDSN)
}

func TestParseEnv_BadValue(t *testing.T) {
	c := defaults()
	assert.Error(t, parseEnv(c, map[string]string{"TOKEN_TTL": "forever"}))
}

func TestParseFlags(t *testing.T) {
	c := &Config{}
	err := parseFlags(c, []string{
		"-a", "127.0.0.1:8080", "-G", "127.0.0.1:9090", "-d", "db", "-s", "secret",
		"-t", "30", "-l", "debug", "-k", "s3", "-f", "store",
		"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint", "-x", "pfx",
		"-c", "ignored.json", "--unknown", "v",
	})
	require.NoError(t, err)

	want := &Config{
		EndpointAddrHTTP:      "127.0.0.1:8080",
		EndpointAddrGRPC:      "127.0.0.1:9090",
		DatabaseDSN:           "db",
		SecretKey:             "secret",
		TokenValidityDuration: 30 * time.Minute,
		LogLevel:              "debug",
		StorageBackend:        "s3",
		FilePath:              "store",
		S3RootUser:            "user",
		S3RootPassword:        "password",
		S3Bucket:              "bucket",
		S3Region:              "us-west-1",
		S3BaseEndpoint:        "http://endpoint",
		S3KeyPrefix:           "pfx",
	}
	assert.Empty(t, cmp.Diff(want, c))
}

func TestParseFlags_TTLUntouchedWithoutFlag(t *testing.T) {
	c := defaults()
	c.TokenValidityDuration = 90 * time.Second
	require.NoError(t, parseFlags(c, nil))
	assert.Equal(t, 90*time.Second, c.TokenValidityDuration)
}

func TestParseFlags_BadValue(t *testing.T) {
	assert.Error(t, parseFlags(defaults(), []string{"-t", "soon"}))
}

func TestParseJson_PartialOverlay(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"secret_key":              "from-json",
		"token_validity_duration": "1h",
		"storage_backend":         "s3",
		"s3_bucket":               "bucket",
	})

	c := defaults()
	require.NoError(t, parseJson(c, []string{"-config", path}))

	want := defaults()
	want.SecretKey = "from-json"
	want.TokenValidityDuration = time.Hour
	want.StorageBackend = "s3"
	want.S3Bucket = "bucket"
	assert.Empty(t, cmp.Diff(want, c))
}

func TestParseJson_NoFile(t *testing.T) {
	c := defaults()
	require.NoError(t, parseJson(c, []string{"-a", ":1"}))
	assert.Empty(t, cmp.Diff(defaults(), c))
}

func TestParseJson_Errors(t *testing.T) {
	assert.Error(t, parseJson(defaults(), []string{"-c", filepath.Join(t.TempDir(), "missing.json")}))

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	assert.Error(t, parseJson(defaults(), []string{"-c", bad}))
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"secret_key":         "json",
		"endpoint_addr_http": ":1111",
		"file_path":          "json-files",
	})

	cfg, err := load(
		[]string{"-c", path, "-s", "flag"},
		map[string]string{"JWT_SECRET": "env", "FILE_PATH": "env-files"},
	)
	require.NoError(t, err)

	assert.Equal(t, "flag", cfg.SecretKey, "flags beat env")
	assert.Equal(t, "env-files", cfg.FilePath, "env beats json")
	assert.Equal(t, ":1111", cfg.EndpointAddrHTTP, "json beats defaults")
	assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
}

func TestLoad_InvalidFails(t *testing.T) {
	_, err := load(nil, map[string]string{})
	assert.Error(t, err, "missing secret must fail validation")
}

func TestLoadWith_DatabaseOnlyNeedsNoSecret(t *testing.T) {
	cfg, err := loadWith(
		[]string{"-name", "alice"},
		map[string]string{"DB_HOST": "db:5432", "DB_USER": "app", "DB_DATABASE": "intel"},
		(*Config).ValidateDatabase,
	)
	require.NoError(t, err)
	assert.Empty(t, cfg.SecretKey)
	assert.Equal(t, "postgres://app@db:5432/intel?sslmode=disable", cfg.DatabaseDSN)

	_, err = loadWith(nil, map[string]string{}, (*Config).Validate)
	assert.Error(t, err, "the server validation still requires a secret")

	_, err = loadWith([]string{"-d", ""}, map[string]string{}, (*Config).ValidateDatabase)
	assert.Error(t, err, "an empty DSN is still rejected")
}
