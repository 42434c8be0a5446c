// Package media stores the files attached to content posts. Posts only keep
// the opaque reference returned by Put.
package media

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"
)

var (
	ErrUnsupportedType = errors.New("unsupported media type")
	ErrTooLarge        = errors.New("media file too large")
	ErrNotFound        = errors.New("media not found")
)

// Upload is a file received from a client.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type Store interface {
	Put(ctx context.Context, schoolID string, up *Upload) (string, error)
	Release(ctx context.Context, ref string) error
	// SignedURL returns a download link for ref that stops working after ttl.
	SignedURL(ctx context.Context, ref string, ttl time.Duration) (string, error)
}

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"video/mp4":  ".mp4",
}

// Validate checks the content type against the allow-list and the size
// against maxBytes. A maxBytes of zero disables the size check.
func Validate(up *Upload, maxBytes int64) error {
	if _, ok := allowedTypes[normalizeType(up.ContentType)]; !ok {
		return ErrUnsupportedType
	}
	if maxBytes > 0 && up.Size > maxBytes {
		return ErrTooLarge
	}
	return nil
}

// extension picks the stored file extension from the content type, falling
// back to the client file name.
func extension(up *Upload) string {
	if ext, ok := allowedTypes[normalizeType(up.ContentType)]; ok {
		return ext
	}
	return strings.ToLower(path.Ext(up.Name))
}

func normalizeType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}
