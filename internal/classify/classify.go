package classify

import (
	"fmt"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/map-coverage/internal/raster"
)

// Result holds one mask and count per category, in table order.
type Result struct {
	Masks []*Mask

	// RawCounts are the set-pixel counts of each mask.
	RawCounts []int

	// Counts are RawCounts after the border-prone correction.
	Counts []int
}

// Classify computes a mask per category over the region and counts the
// pixels in each.
//
// Rows are processed in parallel; every worker writes a disjoint band of
// rows of every mask, so the masks need no locking. The backing buffer is
// only read.
//
// # Errors
//
//   - raster.ErrInvalidRegion if the region has zero width or height
//   - raster.ErrChannelMismatch if the region's channel depth differs from
//     the bound width of any category
func Classify(region raster.Region, table Table) (*Result, error) {
	if region.Empty() {
		return nil, fmt.Errorf("region %s has zero extent: %w", region, raster.ErrInvalidRegion)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("empty category table")
	}
	channels := region.Channels()
	for _, c := range table {
		if len(c.Lower) != channels || len(c.Upper) != channels {
			return nil, fmt.Errorf("region has %d channels, category %q has %d/%d: %w",
				channels, c.Name, len(c.Lower), len(c.Upper), raster.ErrChannelMismatch)
		}
	}

	w, h := region.Width, region.Height
	masks := make([]*Mask, len(table))
	for i := range masks {
		masks[i] = NewMask(w, h)
	}

	parallel.Line(h, func(start, end int) {
		for y := start; y < end; y++ {
			row := region.Row(y)
			base := y * w
			for x := 0; x < w; x++ {
				p := row[x*channels : (x+1)*channels]
				for i, c := range table {
					if c.Contains(p) {
						masks[i].Bits[base+x] = true
					}
				}
			}
		}
	})

	res := &Result{
		Masks:     masks,
		RawCounts: make([]int, len(table)),
		Counts:    make([]int, len(table)),
	}
	for i, m := range masks {
		raw := m.Count()
		res.RawCounts[i] = raw
		res.Counts[i] = table[i].Adjust(raw)
	}
	return res, nil
}
