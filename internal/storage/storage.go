// Package storage abstracts where the server keeps image blobs: a
// local directory by default, or an S3-compatible bucket.
package storage

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/cespare/xxhash/v2"
)

// ErrNotFound is returned when a named blob does not exist.
var ErrNotFound = errors.New("blob not found")

// Store is the blob storage boundary.
type Store interface {
	// Save writes a blob under the given name, replacing any
	// existing one.
	Save(ctx context.Context, name string, data []byte, contentType string) error

	// Get returns the blob's bytes, or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes the blob. Deleting a missing blob is not an
	// error.
	Delete(ctx context.Context, name string) error
}

// ContentHash returns the first 16 hex chars of the xxHash64 of data.
// Recorded alongside stored blobs for dedup diagnostics; 64 bits is
// collision-safe for practical gallery sizes.
func ContentHash(data []byte) string {
	sum := xxhash.Sum64(data)
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(sum >> (56 - 8*i))
	}
	return hex.EncodeToString(b)
}
