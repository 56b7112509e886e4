// Package blob defines the interface for archiving raw fetched payloads.
// Implementations live in subpackages; the importer records the returned
// URI on the import row for later inspection.
package blob

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Store persists an object and returns a stable URI for it.
type Store interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// PayloadPath builds the archive path for an import's raw payload.
func PayloadPath(prefix, importID string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return fmt.Sprintf("imports/%s/payload.html", importID)
	}
	return fmt.Sprintf("%s/imports/%s/payload.html", prefix, importID)
}

// Noop discards payloads. Used when no bucket is configured.
type Noop struct{}

// PutObject drains the reader and returns an empty URI.
func (Noop) PutObject(_ context.Context, _ string, _ string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", fmt.Errorf("drain payload: %w", err)
	}
	return "", nil
}
