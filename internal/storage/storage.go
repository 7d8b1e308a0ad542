// Package storage archives raw webhook payloads.
//
// Two backends implement Storage:
// - LocalStorage: files under a base directory (development)
// - R2Storage: Cloudflare R2 through the S3 API (production)
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage is an object store keyed by slash-separated paths.
//
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at key. Unless opts.Overwrite is set, an existing
	// object yields ErrKeyExists.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get returns the object at key. The caller must close the reader.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType is the MIME type. Empty means derive it from the key.
	ContentType string

	// MaxSize rejects data larger than this many bytes with ErrTooLarge.
	// Zero means no limit.
	MaxSize int64

	// Overwrite allows replacing an existing object at the same key.
	Overwrite bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory where objects are written.
	BasePath string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// Endpoint overrides the account endpoint; used against S3-compatible
	// test servers.
	Endpoint string

	// Region is required by the AWS SDK. R2 accepts "auto".
	Region string
}

// Config selects and configures a backend.
type Config struct {
	Provider string // ProviderNone, ProviderLocal or ProviderR2
	Local    LocalConfig
	R2       R2Config
}

const (
	ProviderNone  = "none"
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// New builds the configured backend. ProviderNone returns a nil Storage and
// no error.
func New(cfg Config, logger *slog.Logger) (Storage, error) {
	switch cfg.Provider {
	case ProviderNone, "":
		return nil, nil
	case ProviderLocal:
		return NewLocalStorage(cfg.Local, logger)
	case ProviderR2:
		return NewR2Storage(cfg.R2, logger)
	}
	return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
}

// ArchiveKey returns the key for one archived webhook payload.
// Format: webhooks/{provider}/YYYY/MM/DD/{id}.json (UTC date)
func ArchiveKey(provider string, at time.Time, id uuid.UUID) string {
	return fmt.Sprintf("webhooks/%s/%s/%s.json", provider, at.UTC().Format("2006/01/02"), id)
}

// validateKey rejects empty keys, absolute keys and keys with ".." segments.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." || segment == "." || segment == "" {
			return ErrInvalidKey
		}
	}
	return nil
}

// contentTypeFor derives a MIME type from the key's extension.
func contentTypeFor(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
