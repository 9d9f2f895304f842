package analysis

import (
	"math"
	"strconv"

	"github.com/ironsheep/map-coverage/internal/classify"
)

// CategoryStat is the coverage of one category within one region.
type CategoryStat struct {
	Name string `json:"name"`

	// Count is the pixel count after the border-prone correction.
	Count int `json:"count"`

	// RawCount is the number of pixels inside the category bounds.
	RawCount int `json:"raw_count"`

	// Relative is Count as a percentage of the region's pixels, rounded to
	// two decimals.
	Relative float64 `json:"relative"`
}

// Record holds the statistics of one analyzed region. Records are built
// once by the Analyzer and not modified afterwards.
type Record struct {
	ID string `json:"id"`

	// Leaf is the pre-order leaf index, or -1 when the whole image was
	// analyzed.
	Leaf int `json:"leaf"`

	// Path is the quadrant path of the leaf ("0.3"), empty for the whole
	// image.
	Path string `json:"path,omitempty"`

	X0        int `json:"x0"`
	Y0        int `json:"y0"`
	Height    int `json:"height"`
	Width     int `json:"width"`
	Channels  int `json:"channels"`
	PixelsAll int `json:"pixels_all"`

	Categories  []CategoryStat `json:"categories"`
	RelativeSum float64        `json:"relative_sum"`

	// Composite is the OR of all category masks. It is handed to a mask
	// sink by the caller and is not part of the tabular view.
	Composite *classify.Mask `json:"-"`

	// CategoryMasks holds one mask per category in table order. Like
	// Composite it is left out of the tabular view.
	CategoryMasks []*classify.Mask `json:"-"`
}

// Columns returns the tabular column names of the record. Records built
// from the same category table share the same columns.
func (r *Record) Columns() []string {
	cols := []string{"raster_name", "leaf", "x0", "y0", "height", "width", "channels", "pixels_all"}
	for _, c := range r.Categories {
		cols = append(cols, c.Name)
	}
	for _, c := range r.Categories {
		cols = append(cols, c.Name+"_relative")
	}
	return append(cols, "relative_sum")
}

// Values returns the record's fields formatted in Columns order.
func (r *Record) Values() []string {
	vals := []string{
		r.ID,
		strconv.Itoa(r.Leaf),
		strconv.Itoa(r.X0),
		strconv.Itoa(r.Y0),
		strconv.Itoa(r.Height),
		strconv.Itoa(r.Width),
		strconv.Itoa(r.Channels),
		strconv.Itoa(r.PixelsAll),
	}
	for _, c := range r.Categories {
		vals = append(vals, strconv.Itoa(c.Count))
	}
	for _, c := range r.Categories {
		vals = append(vals, formatPercent(c.Relative))
	}
	return append(vals, formatPercent(r.RelativeSum))
}

// Stat returns the statistics of the named category.
func (r *Record) Stat(name string) (CategoryStat, bool) {
	for _, c := range r.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return CategoryStat{}, false
}

// Relative returns count as a percentage of total, rounded to two decimals.
// Exact halves round to the even digit, so 1 of 800 pixels is 0.12.
func Relative(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(count) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
