package codec

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/blukraken/texview/internal/texture"
)

// EncodePNG serializes a canonical image as a lossless PNG stream.
// Every pixel's four channel values survive a decode round trip
// exactly.
func EncodePNG(im *texture.Image) ([]byte, error) {
	if im.Width <= 0 || im.Height <= 0 {
		return nil, &EncodeError{Reason: fmt.Sprintf("invalid dimensions %dx%d", im.Width, im.Height)}
	}
	if err := im.Validate(); err != nil {
		return nil, &EncodeError{Reason: err.Error()}
	}

	var buf bytes.Buffer
	buf.Grow(im.Width * im.Height) // rough pre-alloc, PNG usually compresses well below raw

	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, im.NRGBA()); err != nil {
		return nil, &EncodeError{Reason: err.Error()}
	}
	return buf.Bytes(), nil
}
