// Package sniff classifies input files by extension into the closed
// set of formats the ingestion pipeline knows how to handle.
package sniff

import (
	"path/filepath"
	"strings"
)

// Format tags a file with the decode strategy it needs.
type Format int

const (
	// PassThrough files are uploaded with their original bytes.
	PassThrough Format = iota
	// BLP is the Blizzard mip-mapped texture container.
	BLP
	// TGA is the legacy Truevision raster container.
	TGA
)

// String returns the format name for logs and error messages.
func (f Format) String() string {
	switch f {
	case BLP:
		return "blp"
	case TGA:
		return "tga"
	default:
		return "passthrough"
	}
}

// Proprietary reports whether the format needs decoding before upload.
func (f Format) Proprietary() bool {
	return f == BLP || f == TGA
}

// Classify maps a file name to its format tag. Matching is by trailing
// extension only, case-insensitive; renamed files will misclassify.
func Classify(fileName string) Format {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".blp":
		return BLP
	case ".tga":
		return TGA
	default:
		return PassThrough
	}
}
