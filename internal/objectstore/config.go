// Package objectstore wraps an S3-compatible object store (minio-go) for
// vigil's two uses of it: the durable alert sink and the optional
// object-storage-backed rule catalog.
package objectstore

import "errors"

// Config holds S3-compatible connection settings. Works against AWS S3,
// MinIO, and other S3-compatible backends.
type Config struct {
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	UseSSL          bool
}

func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("objectstore config is nil")
	}
	if cfg.Endpoint == "" {
		return errors.New("objectstore endpoint is required")
	}
	if cfg.Bucket == "" {
		return errors.New("objectstore bucket is required")
	}
	if cfg.AccessKeyID == "" {
		return errors.New("objectstore accessKeyId is required")
	}
	if cfg.SecretAccessKey == "" {
		return errors.New("objectstore secretAccessKey is required")
	}
	return nil
}
