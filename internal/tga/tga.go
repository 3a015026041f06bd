// Package tga decodes Truevision TGA raster containers into canonical
// RGBA.
//
// Supported layouts: color-mapped, truecolor and grayscale images at
// 8, 15, 16, 24 and 32 bits per pixel, both uncompressed and
// run-length encoded. Bottom-up storage (the format default) and
// BGR(A) channel order are normalized to the canonical top-down RGBA
// definition here, not downstream.
package tga

import (
	"encoding/binary"
	"fmt"

	"github.com/blukraken/texview/internal/texture"
)

const headerSize = 18

const (
	typeColorMapped = 1
	typeTrueColor   = 2
	typeGrayscale   = 3
	typeRLEFlag     = 8
)

type header struct {
	idLen      uint8
	mapType    uint8
	imageType  uint8
	mapFirst   uint16
	mapLen     uint16
	mapDepth   uint8
	width      int
	height     int
	depth      uint8
	descriptor uint8
}

func (h *header) topDown() bool { return h.descriptor&0x20 != 0 }
func (h *header) rle() bool     { return h.imageType&typeRLEFlag != 0 }
func (h *header) baseType() uint8 {
	return h.imageType &^ typeRLEFlag
}

func parseHeader(data []byte) (*header, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("truncated header: %d bytes", len(data))
	}
	h := &header{
		idLen:      data[0],
		mapType:    data[1],
		imageType:  data[2],
		mapFirst:   binary.LittleEndian.Uint16(data[3:5]),
		mapLen:     binary.LittleEndian.Uint16(data[5:7]),
		mapDepth:   data[7],
		width:      int(binary.LittleEndian.Uint16(data[12:14])),
		height:     int(binary.LittleEndian.Uint16(data[14:16])),
		depth:      data[16],
		descriptor: data[17],
	}
	if h.width == 0 || h.height == 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", h.width, h.height)
	}
	switch h.baseType() {
	case typeColorMapped, typeTrueColor, typeGrayscale:
	default:
		return nil, fmt.Errorf("unsupported image type %d", h.imageType)
	}
	switch h.depth {
	case 8, 15, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported pixel depth %d", h.depth)
	}
	if h.baseType() == typeColorMapped && h.mapType != 1 {
		return nil, fmt.Errorf("color-mapped image without color map")
	}
	return h, nil
}

// Decode parses a TGA container into a canonical image. The input is
// never modified.
func Decode(data []byte) (*texture.Image, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	pos := headerSize + int(h.idLen)
	if pos > len(data) {
		return nil, fmt.Errorf("truncated image id field")
	}

	var palette [][4]uint8
	if h.mapType == 1 {
		entryBytes := (int(h.mapDepth) + 7) / 8
		mapBytes := int(h.mapLen) * entryBytes
		if pos+mapBytes > len(data) {
			return nil, fmt.Errorf("truncated color map")
		}
		if h.baseType() == typeColorMapped {
			palette = make([][4]uint8, h.mapLen)
			for i := range palette {
				palette[i] = unpackEntry(data[pos+i*entryBytes:], h.mapDepth)
			}
		}
		pos += mapBytes
	}

	pixelBytes := (int(h.depth) + 7) / 8
	n := h.width * h.height
	raw := make([]byte, n*pixelBytes)
	if h.rle() {
		if err := expandRLE(data[pos:], raw, pixelBytes); err != nil {
			return nil, err
		}
	} else {
		if pos+len(raw) > len(data) {
			return nil, fmt.Errorf("truncated pixel data: have %d bytes, need %d", len(data)-pos, len(raw))
		}
		copy(raw, data[pos:])
	}

	out, err := texture.New(h.width, h.height)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		px, err := unpackPixel(raw[i*pixelBytes:(i+1)*pixelBytes], h, palette)
		if err != nil {
			return nil, err
		}
		// Source rows run bottom-up unless the descriptor says
		// otherwise; remap to top-down while writing.
		y := i / h.width
		if !h.topDown() {
			y = h.height - 1 - y
		}
		o := (y*h.width + i%h.width) * 4
		copy(out.Pix[o:o+4], px[:])
	}
	return out, nil
}

// expandRLE decompresses run-length packets into dst. Runs may cross
// row boundaries.
func expandRLE(src, dst []byte, pixelBytes int) error {
	di := 0
	si := 0
	for di < len(dst) {
		if si >= len(src) {
			return fmt.Errorf("truncated RLE stream")
		}
		hdr := src[si]
		si++
		count := int(hdr&0x7f) + 1
		if hdr&0x80 != 0 {
			if si+pixelBytes > len(src) {
				return fmt.Errorf("truncated RLE run")
			}
			for i := 0; i < count && di < len(dst); i++ {
				copy(dst[di:], src[si:si+pixelBytes])
				di += pixelBytes
			}
			si += pixelBytes
		} else {
			need := count * pixelBytes
			if si+need > len(src) {
				return fmt.Errorf("truncated raw packet")
			}
			c := copy(dst[di:], src[si:si+need])
			di += c
			si += need
		}
	}
	return nil
}

// unpackEntry converts a color map entry to RGBA.
func unpackEntry(b []byte, depth uint8) [4]uint8 {
	switch depth {
	case 15, 16:
		return unpack16(binary.LittleEndian.Uint16(b))
	case 32:
		return [4]uint8{b[2], b[1], b[0], b[3]}
	default: // 24
		return [4]uint8{b[2], b[1], b[0], 0xff}
	}
}

// unpack16 expands a 5:5:5 packed pixel; the attribute bit is ignored.
func unpack16(v uint16) [4]uint8 {
	r5 := uint8(v >> 10 & 0x1f)
	g5 := uint8(v >> 5 & 0x1f)
	b5 := uint8(v & 0x1f)
	return [4]uint8{r5<<3 | r5>>2, g5<<3 | g5>>2, b5<<3 | b5>>2, 0xff}
}

func unpackPixel(b []byte, h *header, palette [][4]uint8) ([4]uint8, error) {
	switch h.baseType() {
	case typeColorMapped:
		idx := int(b[0]) - int(h.mapFirst)
		if idx < 0 || idx >= len(palette) {
			return [4]uint8{}, fmt.Errorf("palette index %d out of range", b[0])
		}
		return palette[idx], nil
	case typeGrayscale:
		return [4]uint8{b[0], b[0], b[0], 0xff}, nil
	default: // truecolor
		switch h.depth {
		case 15, 16:
			return unpack16(binary.LittleEndian.Uint16(b)), nil
		case 24:
			return [4]uint8{b[2], b[1], b[0], 0xff}, nil
		case 32:
			return [4]uint8{b[2], b[1], b[0], b[3]}, nil
		default:
			return [4]uint8{}, fmt.Errorf("truecolor at depth %d unsupported", h.depth)
		}
	}
}
