// Package blp decodes BLP2 texture containers into canonical RGBA.
//
// BLP2 stores a fixed 148-byte header (magic, compression mode, alpha
// depth, dimensions, 16-entry mip offset/size tables) optionally
// followed by a 256-entry BGRA palette, then the mip level payloads.
// Only the base (highest resolution) mip level is decoded. Three
// payload encodings exist: palettized indices with a separate alpha
// plane, S3TC block compression (DXT1/3/5), and raw BGRA.
package blp

import (
	"encoding/binary"
	"fmt"

	"github.com/blukraken/texview/internal/texture"
)

const (
	headerSize  = 148
	paletteSize = 256 * 4

	compressPalette = 1
	compressDXT     = 2
	compressRaw     = 3
)

// maxDim rejects headers whose dimension fields are corrupt before any
// allocation happens.
const maxDim = 1 << 16

type header struct {
	kind        uint32 // 0 = JPEG payload (unsupported), 1 = normal
	compression uint8
	alphaDepth  uint8 // 0, 1, 4 or 8 bits per pixel
	alphaType   uint8 // DXT flavor selector when compression == 2
	hasMips     uint8
	width       uint32
	height      uint32
	mipOffsets  [16]uint32
	mipSizes    [16]uint32
}

func parseHeader(data []byte) (*header, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("truncated header: %d bytes", len(data))
	}
	if string(data[0:4]) != "BLP2" {
		return nil, fmt.Errorf("bad magic %q", data[0:4])
	}
	h := &header{
		kind:        binary.LittleEndian.Uint32(data[4:8]),
		compression: data[8],
		alphaDepth:  data[9],
		alphaType:   data[10],
		hasMips:     data[11],
		width:       binary.LittleEndian.Uint32(data[12:16]),
		height:      binary.LittleEndian.Uint32(data[16:20]),
	}
	for i := 0; i < 16; i++ {
		h.mipOffsets[i] = binary.LittleEndian.Uint32(data[20+i*4 : 24+i*4])
		h.mipSizes[i] = binary.LittleEndian.Uint32(data[84+i*4 : 88+i*4])
	}
	if h.kind != 1 {
		return nil, fmt.Errorf("unsupported content type %d (JPEG payload)", h.kind)
	}
	if h.width == 0 || h.height == 0 || h.width > maxDim || h.height > maxDim {
		return nil, fmt.Errorf("invalid dimensions %dx%d", h.width, h.height)
	}
	return h, nil
}

// baseMip returns the payload bytes of mip level 0.
func (h *header) baseMip(data []byte) ([]byte, error) {
	off, size := int64(h.mipOffsets[0]), int64(h.mipSizes[0])
	if size == 0 {
		return nil, fmt.Errorf("empty base mip level")
	}
	if off < headerSize || off+size > int64(len(data)) {
		return nil, fmt.Errorf("base mip [%d:%d] outside file of %d bytes", off, off+size, len(data))
	}
	return data[off : off+size], nil
}

// Decode parses a BLP2 container and returns its base mip level as a
// canonical image. The input is never modified.
func Decode(data []byte) (*texture.Image, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	mip, err := h.baseMip(data)
	if err != nil {
		return nil, err
	}
	w, ht := int(h.width), int(h.height)

	switch h.compression {
	case compressPalette:
		if len(data) < headerSize+paletteSize {
			return nil, fmt.Errorf("truncated palette: %d bytes", len(data))
		}
		return decodePalettized(w, ht, h.alphaDepth, data[headerSize:headerSize+paletteSize], mip)
	case compressDXT:
		return decodeDXT(w, ht, h.alphaDepth, h.alphaType, mip)
	case compressRaw:
		return decodeRaw(w, ht, mip)
	default:
		return nil, fmt.Errorf("unknown compression mode %d", h.compression)
	}
}

// decodePalettized expands 8-bit palette indices plus a packed alpha
// plane. Palette entries are stored BGRA; the palette's own alpha byte
// is unused.
func decodePalettized(w, h int, alphaDepth uint8, palette, mip []byte) (*texture.Image, error) {
	n := w * h
	if len(mip) < n {
		return nil, fmt.Errorf("palettized payload %d bytes, need %d indices", len(mip), n)
	}
	alpha := mip[n:]
	switch alphaDepth {
	case 0:
	case 1:
		if len(alpha) < (n+7)/8 {
			return nil, fmt.Errorf("truncated 1-bit alpha plane")
		}
	case 4:
		if len(alpha) < (n+1)/2 {
			return nil, fmt.Errorf("truncated 4-bit alpha plane")
		}
	case 8:
		if len(alpha) < n {
			return nil, fmt.Errorf("truncated 8-bit alpha plane")
		}
	default:
		return nil, fmt.Errorf("unsupported alpha depth %d", alphaDepth)
	}

	out, err := texture.New(w, h)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		p := int(mip[i]) * 4
		out.Pix[i*4+0] = palette[p+2] // B,G,R,A on disk
		out.Pix[i*4+1] = palette[p+1]
		out.Pix[i*4+2] = palette[p+0]
		out.Pix[i*4+3] = alphaAt(alpha, alphaDepth, i)
	}
	return out, nil
}

func alphaAt(plane []byte, depth uint8, i int) uint8 {
	switch depth {
	case 1:
		if plane[i/8]&(1<<(i%8)) != 0 {
			return 0xff
		}
		return 0
	case 4:
		nib := plane[i/2] >> ((i % 2) * 4) & 0x0f
		return nib * 17
	case 8:
		return plane[i]
	default:
		return 0xff
	}
}

// decodeRaw expands an uncompressed BGRA payload.
func decodeRaw(w, h int, mip []byte) (*texture.Image, error) {
	if len(mip) < w*h*4 {
		return nil, fmt.Errorf("raw payload %d bytes, need %d", len(mip), w*h*4)
	}
	out, err := texture.New(w, h)
	if err != nil {
		return nil, err
	}
	for i := 0; i < w*h; i++ {
		out.Pix[i*4+0] = mip[i*4+2]
		out.Pix[i*4+1] = mip[i*4+1]
		out.Pix[i*4+2] = mip[i*4+0]
		out.Pix[i*4+3] = mip[i*4+3]
	}
	return out, nil
}
