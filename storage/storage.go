// Package storage keeps diagnostic artifacts produced while scraping, such as
// page screenshots and raw markup captured when a lookup fails.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage stores and retrieves artifacts by their storage path
type Storage interface {
	// Upload stores an artifact and returns its storage path
	Upload(ctx context.Context, id uuid.UUID, filename string, data io.Reader) (string, error)

	// Download retrieves an artifact by storage path
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes an artifact by storage path
	Delete(ctx context.Context, storagePath string) error
}

// Type represents the storage backend type
type Type string

const (
	TypeLocal Type = "local"
	TypeS3    Type = "s3"
)

// Config holds configuration for artifact storage
type Config struct {
	Type      Type
	LocalPath string // For local storage
	S3Bucket  string // For S3 storage
	S3Region  string
	S3Prefix  string
	// Explicit credentials; the default AWS chain is used when empty.
	AWSAccessKey string
	AWSSecretKey string
}

// New creates a storage backend based on configuration
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Type {
	case TypeLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	case TypeS3:
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

var nowFunc = time.Now

// artifactPath groups artifacts by capture day: 2026/10/18/<id>_<name>.png
func artifactPath(id uuid.UUID, filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)
	base = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':':
			return '_'
		}
		return r
	}, base)

	return path.Join(nowFunc().UTC().Format("2006/01/02"), fmt.Sprintf("%s_%s%s", id, base, strings.ToLower(ext)))
}

// ContentType determines the content type from the artifact extension
func ContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".json":
		return "application/json"
	case ".txt", ".log":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
