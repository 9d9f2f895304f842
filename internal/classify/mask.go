package classify

import (
	"fmt"
	"image"
)

// Mask is a per-pixel boolean grid with the extent of the region it was
// computed from.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// NewMask allocates a cleared mask.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Bits: make([]bool, width*height)}
}

// At reports whether (x, y) is set.
func (m *Mask) At(x, y int) bool { return m.Bits[y*m.Width+x] }

// Set sets (x, y).
func (m *Mask) Set(x, y int, v bool) { m.Bits[y*m.Width+x] = v }

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Or sets every pixel that is set in other. Both masks must have the same
// extent.
func (m *Mask) Or(other *Mask) error {
	if other.Width != m.Width || other.Height != m.Height {
		return fmt.Errorf("mask extent %dx%d does not match %dx%d",
			other.Width, other.Height, m.Width, m.Height)
	}
	for i, b := range other.Bits {
		if b {
			m.Bits[i] = true
		}
	}
	return nil
}

// Image renders the mask as 8-bit grayscale: 255 where set, 0 elsewhere.
func (m *Mask) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, b := range m.Bits {
		if b {
			img.Pix[i] = 255
		}
	}
	return img
}

// Compose returns the logical OR of all masks. The result does not depend
// on the order of masks.
func Compose(masks []*Mask) (*Mask, error) {
	if len(masks) == 0 {
		return nil, fmt.Errorf("compose: no masks")
	}
	out := NewMask(masks[0].Width, masks[0].Height)
	for i, m := range masks {
		if err := out.Or(m); err != nil {
			return nil, fmt.Errorf("compose: mask %d: %w", i, err)
		}
	}
	return out, nil
}
