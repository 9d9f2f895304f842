package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/map-coverage/internal/partition"
)

// OverlayResult contains an image with partition boundaries drawn on it.
type OverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Leaves      int    `json:"leaves"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

var defaultOverlayColor = color.RGBA{255, 0, 255, 255}

// PartitionOverlay draws the boundaries of the given leaves over img and,
// if showLabels is set, each leaf's pre-order index in its top-left corner.
// The labels match the suffix of the record IDs produced for the same depth.
//
// lineColorHex is an "#RRGGBB" color; an empty or invalid value selects
// magenta, which no map legend uses.
func PartitionOverlay(img image.Image, leaves []partition.Leaf, showLabels bool, lineColorHex string) (*OverlayResult, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	lineColor := defaultOverlayColor
	if c, err := colorful.Hex(lineColorHex); err == nil {
		r, g, b := c.RGB255()
		lineColor = color.RGBA{r, g, b, 255}
	}

	result := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	// Every leaf draws its top and left edges; together they trace all
	// interior boundaries exactly once.
	for _, l := range leaves {
		r := l.Region.Bounds()
		if r.Min.Y > 0 {
			for x := r.Min.X; x < r.Max.X; x++ {
				result.Set(x, r.Min.Y, lineColor)
			}
		}
		if r.Min.X > 0 {
			for y := r.Min.Y; y < r.Max.Y; y++ {
				result.Set(r.Min.X, y, lineColor)
			}
		}
	}

	if showLabels {
		fg := color.RGBA{255, 255, 255, 255}
		bg := color.RGBA{0, 0, 0, 180}
		for _, l := range leaves {
			r := l.Region.Bounds()
			drawLabel(result, r.Min.X+2, r.Min.Y+2, strconv.Itoa(l.Index), fg, bg)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, result); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &OverlayResult{
		Width:       width,
		Height:      height,
		Leaves:      len(leaves),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// drawLabel draws text in basicfont's 7x13 face on a filled background
// box whose top-left corner is (x, y). Drawing is clipped to the image.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	box := image.Rect(x-1, y-1, x+len(text)*face.Advance+1, y+face.Height)
	draw.Draw(img, box.Intersect(img.Bounds()), image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y + face.Ascent)},
	}
	d.DrawString(text)
}
