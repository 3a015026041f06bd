// Package texture defines the canonical in-memory picture that every
// container decoder must produce: 8-bit-per-channel RGBA, row-major
// from the top-left, non-premultiplied alpha.
package texture

import (
	"fmt"
	"image"
)

// Image is a decoded picture in canonical form.
type Image struct {
	Width  int
	Height int
	// Pix holds interleaved R, G, B, A bytes, exactly Width*Height*4 long.
	Pix []byte
}

// New allocates a zeroed canonical image of the given dimensions.
func New(w, h int) (*Image, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", w, h)
	}
	return &Image{Width: w, Height: h, Pix: make([]byte, w*h*4)}, nil
}

// Validate checks the pixel buffer against the dimensions.
func (im *Image) Validate() error {
	if im.Width <= 0 || im.Height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d", im.Width, im.Height)
	}
	if want := im.Width * im.Height * 4; len(im.Pix) != want {
		return fmt.Errorf("pixel buffer is %d bytes, want %d", len(im.Pix), want)
	}
	return nil
}

// NRGBA wraps the pixel buffer as a standard library image without copying.
func (im *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    im.Pix,
		Stride: im.Width * 4,
		Rect:   image.Rect(0, 0, im.Width, im.Height),
	}
}

// FromImage converts any standard library image into canonical form.
func FromImage(src image.Image) *Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := &Image{Width: w, Height: h, Pix: make([]byte, w*h*4)}

	// Fast path: NRGBA already matches the canonical layout.
	if n, ok := src.(*image.NRGBA); ok {
		i := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			o := n.PixOffset(b.Min.X, y)
			copy(out.Pix[i:i+w*4], n.Pix[o:o+w*4])
			i += w * 4
		}
		return out
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := src.At(x, y)
			r, g, bb, a := c.RGBA()
			if a == 0 {
				i += 4
				continue
			}
			// Un-premultiply back to straight alpha.
			out.Pix[i+0] = uint8((r * 0xffff / a) >> 8)
			out.Pix[i+1] = uint8((g * 0xffff / a) >> 8)
			out.Pix[i+2] = uint8((bb * 0xffff / a) >> 8)
			out.Pix[i+3] = uint8(a >> 8)
			i += 4
		}
	}
	return out
}
