package raster

import (
	"fmt"
	"image"
	"strings"
)

// ChannelOrder names the canonical order of the color channels in a Raster
// buffer. Category bounds are interpreted in the same order.
type ChannelOrder string

const (
	// RGB stores red, green, blue.
	RGB ChannelOrder = "rgb"
	// BGR stores blue, green, red (the order OpenCV decoders produce).
	BGR ChannelOrder = "bgr"
)

// ParseChannelOrder parses a channel order name. Matching is case-insensitive.
func ParseChannelOrder(s string) (ChannelOrder, error) {
	switch ChannelOrder(strings.ToLower(strings.TrimSpace(s))) {
	case RGB:
		return RGB, nil
	case BGR:
		return BGR, nil
	default:
		return "", fmt.Errorf("unknown channel order %q (want rgb or bgr)", s)
	}
}

// Permute reorders an RGB triple into this channel order.
func (o ChannelOrder) Permute(r, g, b uint8) []uint8 {
	if o == BGR {
		return []uint8{b, g, r}
	}
	return []uint8{r, g, b}
}

// Raster is an owned, interleaved 8-bit pixel buffer.
//
// Pixel (x, y) occupies Pix[(y*Width+x)*Channels : (y*Width+x+1)*Channels].
type Raster struct {
	Pix      []uint8
	Width    int
	Height   int
	Channels int
	Order    ChannelOrder
}

// New allocates a zeroed raster.
func New(width, height, channels int, order ChannelOrder) *Raster {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Raster{
		Pix:      make([]uint8, width*height*channels),
		Width:    width,
		Height:   height,
		Channels: channels,
		Order:    order,
	}
}

// FromImage converts a decoded image into a 3-channel raster laid out in the
// given channel order. Alpha is discarded; 16-bit images are scaled down to
// 8 bits the same way color sampling does.
func FromImage(img image.Image, order ChannelOrder) *Raster {
	bounds := img.Bounds()
	r := New(bounds.Dx(), bounds.Dy(), 3, order)

	// Fast path for the common decoder outputs.
	switch src := img.(type) {
	case *image.NRGBA:
		r.copyInterleaved(src.Pix, src.Stride)
		return r
	case *image.RGBA:
		r.copyInterleaved(src.Pix, src.Stride)
		return r
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			r.put(i, uint8(cr>>8), uint8(cg>>8), uint8(cb>>8))
			i += 3
		}
	}
	return r
}

// copyInterleaved copies a 4-byte-per-pixel buffer whose first byte is the
// top-left pixel. Premultiplied RGBA is taken as-is; scanned maps are opaque.
func (r *Raster) copyInterleaved(pix []uint8, stride int) {
	i := 0
	for y := 0; y < r.Height; y++ {
		row := pix[y*stride : y*stride+r.Width*4]
		for x := 0; x < r.Width; x++ {
			p := row[x*4 : x*4+3]
			r.put(i, p[0], p[1], p[2])
			i += 3
		}
	}
}

func (r *Raster) put(i int, red, green, blue uint8) {
	if r.Order == BGR {
		r.Pix[i], r.Pix[i+1], r.Pix[i+2] = blue, green, red
		return
	}
	r.Pix[i], r.Pix[i+1], r.Pix[i+2] = red, green, blue
}

// Whole returns a region covering the entire raster.
func (r *Raster) Whole() Region {
	return Region{buf: r, Width: r.Width, Height: r.Height}
}

// Region returns a view over a rectangle of the raster.
func (r *Raster) Region(x0, y0, width, height int) (Region, error) {
	return r.Whole().Sub(x0, y0, width, height)
}

// Region is a rectangular, non-owning view over a Raster.
//
// X0 and Y0 are in raster coordinates. A Region must not outlive the raster
// it borrows from, and the core never writes through it.
type Region struct {
	buf    *Raster
	X0     int
	Y0     int
	Width  int
	Height int
}

// Sub returns a view over a rectangle relative to this region's origin.
// The rectangle must lie inside the region.
func (g Region) Sub(x0, y0, width, height int) (Region, error) {
	if g.buf == nil {
		return Region{}, fmt.Errorf("sub-region of detached region: %w", ErrInvalidRegion)
	}
	if x0 < 0 || y0 < 0 || width < 0 || height < 0 ||
		x0+width > g.Width || y0+height > g.Height {
		return Region{}, fmt.Errorf("sub-region (%d,%d %dx%d) outside %dx%d: %w",
			x0, y0, width, height, g.Width, g.Height, ErrInvalidRegion)
	}
	return Region{
		buf:    g.buf,
		X0:     g.X0 + x0,
		Y0:     g.Y0 + y0,
		Width:  width,
		Height: height,
	}, nil
}

// Pixel returns the channel values at region-relative (x, y). The slice
// aliases the backing buffer.
func (g Region) Pixel(x, y int) []uint8 {
	c := g.buf.Channels
	i := ((g.Y0+y)*g.buf.Width + g.X0 + x) * c
	return g.buf.Pix[i : i+c : i+c]
}

// Row returns the interleaved channel values of region-relative row y.
func (g Region) Row(y int) []uint8 {
	c := g.buf.Channels
	i := ((g.Y0+y)*g.buf.Width + g.X0) * c
	return g.buf.Pix[i : i+g.Width*c : i+g.Width*c]
}

// Channels reports the channel depth of the backing buffer.
func (g Region) Channels() int {
	if g.buf == nil {
		return 0
	}
	return g.buf.Channels
}

// Order reports the channel order of the backing buffer.
func (g Region) Order() ChannelOrder {
	if g.buf == nil {
		return ""
	}
	return g.buf.Order
}

// Pixels is the number of pixels in the region.
func (g Region) Pixels() int { return g.Width * g.Height }

// Empty reports whether the region has zero extent in either dimension.
func (g Region) Empty() bool { return g.Width == 0 || g.Height == 0 }

// Bounds returns the region as a rectangle in raster coordinates.
func (g Region) Bounds() image.Rectangle {
	return image.Rect(g.X0, g.Y0, g.X0+g.Width, g.Y0+g.Height)
}

func (g Region) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", g.X0, g.Y0, g.Width, g.Height)
}
