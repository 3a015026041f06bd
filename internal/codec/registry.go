package codec

import (
	"errors"

	"github.com/blukraken/texview/internal/blp"
	"github.com/blukraken/texview/internal/sniff"
	"github.com/blukraken/texview/internal/texture"
	"github.com/blukraken/texview/internal/tga"
)

var errNoDecoder = errors.New("no decoder registered")

// Registry maps format tags to decoders. The default set covers both
// proprietary containers; tests swap in fakes.
type Registry struct {
	decoders map[sniff.Format]Decoder
}

// NewRegistry returns a registry with the built-in decoders installed.
func NewRegistry() *Registry {
	r := &Registry{decoders: make(map[sniff.Format]Decoder)}
	r.Register(blpDecoder{})
	r.Register(tgaDecoder{})
	return r
}

// Register installs a decoder, replacing any existing one for the
// same format.
func (r *Registry) Register(d Decoder) {
	r.decoders[d.Format()] = d
}

// Get returns the decoder for a format, or nil if none is installed.
func (r *Registry) Get(f sniff.Format) Decoder {
	return r.decoders[f]
}

// Decode routes the bytes through the registered decoder for the
// format and wraps failures in a DecodeError.
func (r *Registry) Decode(f sniff.Format, data []byte) (*texture.Image, error) {
	d := r.Get(f)
	if d == nil {
		return nil, &DecodeError{Format: f, Err: errNoDecoder}
	}
	img, err := d.Decode(data)
	if err != nil {
		return nil, &DecodeError{Format: f, Err: err}
	}
	return img, nil
}

type blpDecoder struct{}

func (blpDecoder) Format() sniff.Format { return sniff.BLP }
func (blpDecoder) Decode(data []byte) (*texture.Image, error) {
	return blp.Decode(data)
}

type tgaDecoder struct{}

func (tgaDecoder) Format() sniff.Format { return sniff.TGA }
func (tgaDecoder) Decode(data []byte) (*texture.Image, error) {
	return tga.Decode(data)
}
