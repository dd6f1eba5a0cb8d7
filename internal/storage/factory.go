package storage

import (
	"strings"

	"github.com/timmy/hrnotify/internal/config"
)

// NewStorage creates an S3-compatible client from the application config.
func NewStorage(cfg *config.StorageConfig) (*S3Storage, error) {
	s3cfg := &S3Config{
		Type:      StorageType(cfg.Type),
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
	}
	if s3cfg.Type == "" {
		s3cfg.Type = detectStorageType(cfg.Endpoint)
	}
	return NewS3Storage(s3cfg)
}

// detectStorageType attempts to detect the storage type from the endpoint
func detectStorageType(endpoint string) StorageType {
	endpoint = strings.ToLower(endpoint)

	switch {
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StorageTypeR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}
