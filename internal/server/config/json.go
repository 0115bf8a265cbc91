package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/intelligence/internal/flagx"
	"github.com/dmitrijs2005/intelligence/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "24h" and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	LogLevel              string         `json:"log_level"`
	ShutdownTimeout       timex.Duration `json:"shutdown_timeout"`
	StorageBackend        string         `json:"storage_backend"`
	FilePath              string         `json:"file_path"`
	StorageConfine        bool           `json:"storage_confine"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	S3KeyPrefix           string         `json:"s3_key_prefix"`
	S3UsePathStyle        bool           `json:"s3_use_path_style"`
}

// parseJson loads the file named by -c/-config, if any, over config.
// Keys missing from the file keep their current values.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{
		EndpointAddrHTTP:      config.EndpointAddrHTTP,
		EndpointAddrGRPC:      config.EndpointAddrGRPC,
		DatabaseDSN:           config.DatabaseDSN,
		SecretKey:             config.SecretKey,
		TokenValidityDuration: timex.Duration{Duration: config.TokenValidityDuration},
		LogLevel:              config.LogLevel,
		ShutdownTimeout:       timex.Duration{Duration: config.ShutdownTimeout},
		StorageBackend:        config.StorageBackend,
		FilePath:              config.FilePath,
		StorageConfine:        config.StorageConfine,
		S3RootUser:            config.S3RootUser,
		S3RootPassword:        config.S3RootPassword,
		S3Bucket:              config.S3Bucket,
		S3Region:              config.S3Region,
		S3BaseEndpoint:        config.S3BaseEndpoint,
		S3KeyPrefix:           config.S3KeyPrefix,
		S3UsePathStyle:        config.S3UsePathStyle,
	}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.EndpointAddrGRPC = c.EndpointAddrGRPC
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.TokenValidityDuration = c.TokenValidityDuration.Duration
	config.LogLevel = c.LogLevel
	config.ShutdownTimeout = c.ShutdownTimeout.Duration
	config.StorageBackend = c.StorageBackend
	config.FilePath = c.FilePath
	config.StorageConfine = c.StorageConfine
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.S3KeyPrefix = c.S3KeyPrefix
	config.S3UsePathStyle = c.S3UsePathStyle
	return nil
}
