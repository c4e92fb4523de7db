// Package blobstore keeps attachment bytes outside the database. Keys are
// slash separated relative paths such as "feedback/12/<uuid>_report.pdf".
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// Store persists and serves attachment content.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

var ErrInvalidKey = errors.New("invalid blob key")

// AttachmentKey builds the key an attachment of a feedback is stored under.
func AttachmentKey(feedbackID int64, storedName string) string {
	return fmt.Sprintf("feedback/%d/%s", feedbackID, storedName)
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.ContainsRune(key, '\\') || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	c := path.Clean(key)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return c, nil
}
