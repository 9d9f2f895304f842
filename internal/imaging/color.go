package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/map-coverage/internal/classify"
	"github.com/ironsheep/map-coverage/internal/raster"
)

// HSLColor represents a color in HSL space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorSample describes one pixel the way the classifier sees it.
//
// Sampling legend swatches is how category bounds are calibrated: the
// Channels field is in the configured channel order and can be pasted into
// a category's min/max directly, while Hex is always RGB.
type ColorSample struct {
	Label string `json:"label,omitempty"`
	X     int    `json:"x"`
	Y     int    `json:"y"`

	// Channels holds the 8-bit channel values in Order.
	Channels []int  `json:"channels"`
	Order    string `json:"order"`

	Hex string   `json:"hex"`
	HSL HSLColor `json:"hsl"`

	// Categories lists the categories whose bounds contain the pixel, in
	// table order. More than one entry means the table overlaps here.
	Categories []string `json:"categories"`
}

// SampleColor reads the pixel at (x, y) and classifies it against table.
//
// Coordinates are 0-based with the origin at the top-left of the image.
func SampleColor(img image.Image, x, y int, order raster.ChannelOrder, table classify.Table) (*ColorSample, error) {
	bounds := img.Bounds()
	if x < 0 || y < 0 || x >= bounds.Dx() || y >= bounds.Dy() {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
	r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(b>>8)
	channels := order.Permute(r8, g8, b8)
	values := make([]int, len(channels))
	for i, v := range channels {
		values[i] = int(v)
	}

	c := colorful.Color{R: float64(r8) / 255, G: float64(g8) / 255, B: float64(b8) / 255}
	h, s, l := c.Hsl()
	if math.IsNaN(h) {
		h = 0
	}

	matches := []string{}
	if len(channels) == table.Width() {
		for _, cat := range table {
			if cat.Contains(channels) {
				matches = append(matches, cat.Name)
			}
		}
	}

	return &ColorSample{
		X:          x,
		Y:          y,
		Channels:   values,
		Order:      string(order),
		Hex:        c.Hex(),
		HSL:        HSLColor{H: int(h), S: int(s * 100), L: int(l * 100)},
		Categories: matches,
	}, nil
}

// LabeledPoint is a pixel coordinate with an optional label such as
// "legend_forest".
type LabeledPoint struct {
	X     int
	Y     int
	Label string
}

// SampleColorsMulti samples several points in one call. Results are in
// input order; any out-of-bounds point fails the whole call.
func SampleColorsMulti(img image.Image, points []LabeledPoint, order raster.ChannelOrder, table classify.Table) ([]ColorSample, error) {
	samples := make([]ColorSample, 0, len(points))
	for _, p := range points {
		s, err := SampleColor(img, p.X, p.Y, order, table)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		s.Label = p.Label
		samples = append(samples, *s)
	}
	return samples, nil
}
