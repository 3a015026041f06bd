package blp

import (
	"encoding/binary"
	"testing"
)

// buildBLP assembles a minimal single-mip BLP2 container. The palette
// slice may be nil for non-palettized modes.
func buildBLP(compression, alphaDepth, alphaType uint8, w, h int, palette, mip []byte) []byte {
	var out []byte
	hdr := make([]byte, headerSize)
	copy(hdr, "BLP2")
	binary.LittleEndian.PutUint32(hdr[4:], 1) // normal content
	hdr[8] = compression
	hdr[9] = alphaDepth
	hdr[10] = alphaType
	hdr[11] = 0 // no mip chain beyond the base
	binary.LittleEndian.PutUint32(hdr[12:], uint32(w))
	binary.LittleEndian.PutUint32(hdr[16:], uint32(h))

	offset := headerSize
	if palette != nil {
		offset += paletteSize
	}
	binary.LittleEndian.PutUint32(hdr[20:], uint32(offset))
	binary.LittleEndian.PutUint32(hdr[84:], uint32(len(mip)))

	out = append(out, hdr...)
	if palette != nil {
		pal := make([]byte, paletteSize)
		copy(pal, palette)
		out = append(out, pal...)
	}
	return append(out, mip...)
}

func TestDecode_Palettized(t *testing.T) {
	// Entry 0: B=1 G=2 R=3; entry 1: B=10 G=20 R=30.
	palette := []byte{1, 2, 3, 0, 10, 20, 30, 0}
	// 2x2 indices plus an 8-bit alpha plane.
	mip := []byte{0, 1, 1, 0, 100, 150, 200, 250}
	data := buildBLP(compressPalette, 8, 0, 2, 2, palette, mip)

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Width != 2 || img.Height != 2 {
		t.Fatalf("dimensions: got %dx%d", img.Width, img.Height)
	}
	want := []byte{
		3, 2, 1, 100, // palette entry 0, BGR flipped to RGB
		30, 20, 10, 150,
		30, 20, 10, 200,
		3, 2, 1, 250,
	}
	for i, b := range want {
		if img.Pix[i] != b {
			t.Fatalf("pix[%d]: got %d, want %d", i, img.Pix[i], b)
		}
	}
}

func TestDecode_PalettizedOpaque(t *testing.T) {
	palette := []byte{5, 6, 7, 0}
	mip := []byte{0, 0, 0, 0} // no alpha plane at depth 0
	data := buildBLP(compressPalette, 0, 0, 2, 2, palette, mip)

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := 0; i < 4; i++ {
		if a := img.Pix[i*4+3]; a != 0xff {
			t.Errorf("pixel %d alpha: got %d, want 255", i, a)
		}
	}
}

func TestDecode_Palettized1BitAlpha(t *testing.T) {
	palette := []byte{0, 0, 0, 0}
	// 4 indices, then one alpha byte: bits 0 and 2 set.
	mip := []byte{0, 0, 0, 0, 0b0101}
	data := buildBLP(compressPalette, 1, 0, 2, 2, palette, mip)

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	wantAlpha := []byte{255, 0, 255, 0}
	for i, a := range wantAlpha {
		if img.Pix[i*4+3] != a {
			t.Errorf("pixel %d alpha: got %d, want %d", i, img.Pix[i*4+3], a)
		}
	}
}

func TestDecode_Raw(t *testing.T) {
	// 2x1 BGRA payload.
	mip := []byte{
		200, 100, 50, 255, // stored B,G,R,A
		1, 2, 3, 128,
	}
	data := buildBLP(compressRaw, 8, 8, 2, 1, nil, mip)

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []byte{50, 100, 200, 255, 3, 2, 1, 128}
	for i, b := range want {
		if img.Pix[i] != b {
			t.Fatalf("pix[%d]: got %d, want %d", i, img.Pix[i], b)
		}
	}
}

func TestDecode_DXT1(t *testing.T) {
	// One 4x4 block, all indices 0: every pixel is color0 (pure red).
	block := make([]byte, 8)
	binary.LittleEndian.PutUint16(block[0:], 0xf800) // red in 5:6:5
	binary.LittleEndian.PutUint16(block[2:], 0x001f) // blue
	data := buildBLP(compressDXT, 0, 0, 4, 4, nil, block)

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := 0; i < 16; i++ {
		px := img.Pix[i*4 : i*4+4]
		if px[0] != 255 || px[1] != 0 || px[2] != 0 || px[3] != 255 {
			t.Fatalf("pixel %d: got %v, want opaque red", i, px)
		}
	}
}

func TestDecode_DXT1_TransparentIndex(t *testing.T) {
	// c0 <= c1 with 1-bit alpha: index 3 is transparent black.
	block := make([]byte, 8)
	binary.LittleEndian.PutUint16(block[0:], 0x0000)
	binary.LittleEndian.PutUint16(block[2:], 0xffff)
	for i := 4; i < 8; i++ {
		block[i] = 0xff // all indices 3
	}
	data := buildBLP(compressDXT, 1, 0, 4, 4, nil, block)

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := 0; i < 16; i++ {
		if a := img.Pix[i*4+3]; a != 0 {
			t.Fatalf("pixel %d alpha: got %d, want 0", i, a)
		}
	}
}

func TestDecode_DXT3(t *testing.T) {
	block := make([]byte, 16)
	// Explicit alpha nibbles: pixel 0 gets 0xf (255), the rest 0x8 (136).
	alphaRow := uint16(0x888f)
	binary.LittleEndian.PutUint16(block[0:], alphaRow)
	for y := 1; y < 4; y++ {
		binary.LittleEndian.PutUint16(block[y*2:], 0x8888)
	}
	binary.LittleEndian.PutUint16(block[8:], 0x07e0) // green
	binary.LittleEndian.PutUint16(block[10:], 0x07e0)
	data := buildBLP(compressDXT, 8, 1, 4, 4, nil, block)

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a := img.Pix[3]; a != 255 {
		t.Errorf("pixel 0 alpha: got %d, want 255", a)
	}
	if a := img.Pix[7]; a != 136 {
		t.Errorf("pixel 1 alpha: got %d, want 136", a)
	}
	if g := img.Pix[1]; g != 255 {
		t.Errorf("pixel 0 green: got %d, want 255", g)
	}
}

func TestDecode_DXT5(t *testing.T) {
	block := make([]byte, 16)
	block[0] = 200 // a0
	block[1] = 40  // a1
	// All alpha indices 0 -> a0 everywhere.
	binary.LittleEndian.PutUint16(block[8:], 0x001f) // blue
	binary.LittleEndian.PutUint16(block[10:], 0x001f)
	data := buildBLP(compressDXT, 8, 7, 4, 4, nil, block)

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := 0; i < 16; i++ {
		px := img.Pix[i*4 : i*4+4]
		if px[2] != 255 || px[3] != 200 {
			t.Fatalf("pixel %d: got %v, want blue with alpha 200", i, px)
		}
	}
}

func TestDecode_DXT_NonMultipleOfFour(t *testing.T) {
	// 2x2 image still stored as one full 4x4 block.
	block := make([]byte, 8)
	binary.LittleEndian.PutUint16(block[0:], 0xf800)
	data := buildBLP(compressDXT, 0, 0, 2, 2, nil, block)

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Width != 2 || img.Height != 2 {
		t.Fatalf("dimensions: got %dx%d", img.Width, img.Height)
	}
	if img.Pix[0] != 255 {
		t.Errorf("pixel 0 red: got %d", img.Pix[0])
	}
}

func TestDecode_Malformed(t *testing.T) {
	valid := buildBLP(compressRaw, 8, 8, 2, 1, nil, make([]byte, 8))
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short header", valid[:100]},
		{"bad magic", append([]byte("NOPE"), valid[4:]...)},
		{"truncated payload", valid[:len(valid)-4]},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Decode(tc.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestDecode_JPEGContentRejected(t *testing.T) {
	data := buildBLP(compressRaw, 8, 8, 2, 1, nil, make([]byte, 8))
	binary.LittleEndian.PutUint32(data[4:], 0) // JPEG content type
	if _, err := Decode(data); err == nil {
		t.Error("expected error for JPEG content type")
	}
}

func TestDecode_MipOutsideFile(t *testing.T) {
	data := buildBLP(compressRaw, 8, 8, 2, 1, nil, make([]byte, 8))
	binary.LittleEndian.PutUint32(data[20:], 1<<20) // offset beyond EOF
	if _, err := Decode(data); err == nil {
		t.Error("expected error for out-of-range mip offset")
	}
}

func TestDecode_InputUntouched(t *testing.T) {
	data := buildBLP(compressRaw, 8, 8, 2, 1, nil, []byte{9, 8, 7, 6, 5, 4, 3, 2})
	before := make([]byte, len(data))
	copy(before, data)
	if _, err := Decode(data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range data {
		if data[i] != before[i] {
			t.Fatalf("input mutated at byte %d", i)
		}
	}
}
