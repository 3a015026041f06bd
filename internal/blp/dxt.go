package blp

import (
	"encoding/binary"
	"fmt"

	"github.com/blukraken/texview/internal/texture"
)

// decodeDXT decompresses an S3TC payload. The DXT flavor follows the
// header's alpha fields: no alpha bits means DXT1, alpha type 1 is
// DXT3 (explicit 4-bit alpha) and alpha type 7 is DXT5 (interpolated
// alpha).
func decodeDXT(w, h int, alphaDepth, alphaType uint8, mip []byte) (*texture.Image, error) {
	var blockSize int
	var decodeBlock func(block []byte, px []byte, stride, bw, bh int)

	switch {
	case alphaDepth <= 1 && alphaType == 0:
		blockSize = 8
		decodeBlock = func(block, px []byte, stride, bw, bh int) {
			decodeColorBlock(block, px, stride, bw, bh, alphaDepth == 1)
		}
	case alphaType == 1:
		blockSize = 16
		decodeBlock = decodeDXT3Block
	case alphaType == 7:
		blockSize = 16
		decodeBlock = decodeDXT5Block
	default:
		return nil, fmt.Errorf("unsupported DXT variant: alpha depth %d, type %d", alphaDepth, alphaType)
	}

	blocksX := (w + 3) / 4
	blocksY := (h + 3) / 4
	if need := blocksX * blocksY * blockSize; len(mip) < need {
		return nil, fmt.Errorf("DXT payload %d bytes, need %d", len(mip), need)
	}

	out, err := texture.New(w, h)
	if err != nil {
		return nil, err
	}
	stride := w * 4
	for by := 0; by < blocksY; by++ {
		for bx := 0; bx < blocksX; bx++ {
			block := mip[(by*blocksX+bx)*blockSize:]
			// Edge blocks still occupy a full 4x4 on disk; clamp the
			// writable region to the image bounds.
			bw, bh := 4, 4
			if w-bx*4 < 4 {
				bw = w - bx*4
			}
			if h-by*4 < 4 {
				bh = h - by*4
			}
			px := out.Pix[by*4*stride+bx*16:]
			decodeBlock(block[:blockSize], px, stride, bw, bh)
		}
	}
	return out, nil
}

// rgb565 expands a packed 5:6:5 color to 8-bit channels.
func rgb565(v uint16) (r, g, b uint8) {
	r5 := uint8(v >> 11 & 0x1f)
	g6 := uint8(v >> 5 & 0x3f)
	b5 := uint8(v & 0x1f)
	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}

// decodeColorBlock handles the 8-byte color half shared by all DXT
// flavors. oneBitAlpha enables DXT1's transparent fourth color when
// c0 <= c1; DXT3/5 always run in four-color mode.
func decodeColorBlock(block, px []byte, stride, bw, bh int, oneBitAlpha bool) {
	c0 := binary.LittleEndian.Uint16(block[0:2])
	c1 := binary.LittleEndian.Uint16(block[2:4])
	bits := binary.LittleEndian.Uint32(block[4:8])

	var colors [4][4]uint8
	r0, g0, b0 := rgb565(c0)
	r1, g1, b1 := rgb565(c1)
	colors[0] = [4]uint8{r0, g0, b0, 0xff}
	colors[1] = [4]uint8{r1, g1, b1, 0xff}
	if c0 > c1 || !oneBitAlpha {
		colors[2] = [4]uint8{
			uint8((2*int(r0) + int(r1)) / 3),
			uint8((2*int(g0) + int(g1)) / 3),
			uint8((2*int(b0) + int(b1)) / 3),
			0xff,
		}
		colors[3] = [4]uint8{
			uint8((int(r0) + 2*int(r1)) / 3),
			uint8((int(g0) + 2*int(g1)) / 3),
			uint8((int(b0) + 2*int(b1)) / 3),
			0xff,
		}
	} else {
		colors[2] = [4]uint8{
			uint8((int(r0) + int(r1)) / 2),
			uint8((int(g0) + int(g1)) / 2),
			uint8((int(b0) + int(b1)) / 2),
			0xff,
		}
		colors[3] = [4]uint8{0, 0, 0, 0}
	}

	for y := 0; y < bh; y++ {
		for x := 0; x < bw; x++ {
			idx := bits >> (2 * uint(y*4+x)) & 0x3
			c := colors[idx]
			o := y*stride + x*4
			px[o+0] = c[0]
			px[o+1] = c[1]
			px[o+2] = c[2]
			px[o+3] = c[3]
		}
	}
}

// decodeDXT3Block: 8 bytes of explicit 4-bit alpha then a color block.
func decodeDXT3Block(block, px []byte, stride, bw, bh int) {
	decodeColorBlock(block[8:16], px, stride, bw, bh, false)
	for y := 0; y < bh; y++ {
		row := binary.LittleEndian.Uint16(block[y*2 : y*2+2])
		for x := 0; x < bw; x++ {
			nib := uint8(row >> (4 * uint(x)) & 0x0f)
			px[y*stride+x*4+3] = nib * 17
		}
	}
}

// decodeDXT5Block: two alpha endpoints, 48 bits of 3-bit indices, then
// a color block.
func decodeDXT5Block(block, px []byte, stride, bw, bh int) {
	decodeColorBlock(block[8:16], px, stride, bw, bh, false)

	a0, a1 := block[0], block[1]
	var alphas [8]uint8
	alphas[0], alphas[1] = a0, a1
	if a0 > a1 {
		for i := 0; i < 6; i++ {
			alphas[i+2] = uint8(((6-i)*int(a0) + (i+1)*int(a1)) / 7)
		}
	} else {
		for i := 0; i < 4; i++ {
			alphas[i+2] = uint8(((4-i)*int(a0) + (i+1)*int(a1)) / 5)
		}
		alphas[6] = 0
		alphas[7] = 0xff
	}

	var bits uint64
	for i := 0; i < 6; i++ {
		bits |= uint64(block[2+i]) << (8 * uint(i))
	}
	for y := 0; y < bh; y++ {
		for x := 0; x < bw; x++ {
			idx := bits >> (3 * uint(y*4+x)) & 0x7
			px[y*stride+x*4+3] = alphas[idx]
		}
	}
}
