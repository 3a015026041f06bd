// Package codec ties format tags to their container decoders and
// provides the single canonical output encoding (lossless PNG).
package codec

import (
	"fmt"

	"github.com/blukraken/texview/internal/sniff"
	"github.com/blukraken/texview/internal/texture"
)

// Decoder turns raw container bytes into a canonical image. Decoders
// are pure: the same input always yields the same output and nothing
// is retained between calls.
type Decoder interface {
	// Format returns the tag this decoder handles.
	Format() sniff.Format

	// Decode parses the container and returns its base image.
	Decode(data []byte) (*texture.Image, error)
}

// DecodeError reports a malformed or truncated proprietary container.
// It is terminal for the file that raised it, never for the batch.
type DecodeError struct {
	Format sniff.Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports an unencodable canonical image. Given the
// decoder invariants it should be unreachable in practice.
type EncodeError struct {
	Reason string
}

func (e *EncodeError) Error() string { return "encode png: " + e.Reason }
