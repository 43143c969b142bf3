// Package storage provides the file store backing asset uploads and
// streaming, with local-disk and S3 implementations.
package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path/filepath"
	"strings"
)

var ErrNotFound = errors.New("object not found")

// FileStore persists binary objects under opaque slash-separated keys.
type FileStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Size(ctx context.Context, key string) (int64, error)
	// ReadRange returns a reader over at most length bytes starting at
	// start. The caller must close it.
	ReadRange(ctx context.Context, key string, start, length int64) (io.ReadCloser, error)
	Save(ctx context.Context, key string, r io.Reader) error
	Delete(ctx context.Context, key string) error
}

// ContentTypeFor resolves a MIME type from the key's extension, falling
// back to application/octet-stream.
func ContentTypeFor(key string) string {
	ext := strings.ToLower(filepath.Ext(key))
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}

	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	}

	return "application/octet-stream"
}
