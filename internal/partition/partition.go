// Package partition splits regions into quadrants, recursively.
//
// Quadrants are always returned in the order top-left, top-right,
// bottom-left, bottom-right, and recursion is depth-first, so leaf index i
// maps to the same spatial location on every run.
package partition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ironsheep/map-coverage/internal/raster"
)

// Quadrant positions within a single split.
const (
	TopLeft = iota
	TopRight
	BottomLeft
	BottomRight
)

// QuadrantNames are the positional names of a single split, by index.
var QuadrantNames = [4]string{"top-left", "top-right", "bottom-left", "bottom-right"}

// SplitQuadrants splits a region at (w/2, h/2). When a dimension is odd the
// extra row or column goes to the bottom or right quadrants.
//
// A region narrower or shorter than 2 pixels cannot be split without
// producing an empty quadrant and fails with raster.ErrRegionTooSmall.
func SplitQuadrants(region raster.Region) ([4]raster.Region, error) {
	var out [4]raster.Region
	if region.Empty() {
		return out, fmt.Errorf("split %s: %w", region, raster.ErrInvalidRegion)
	}
	w, h := region.Width, region.Height
	if w < 2 || h < 2 {
		return out, fmt.Errorf("split %s: %w", region, raster.ErrRegionTooSmall)
	}

	cx, cy := w/2, h/2
	rects := [4][4]int{
		{0, 0, cx, cy},
		{cx, 0, w - cx, cy},
		{0, cy, cx, h - cy},
		{cx, cy, w - cx, h - cy},
	}
	for i, r := range rects {
		sub, err := region.Sub(r[0], r[1], r[2], r[3])
		if err != nil {
			return out, err
		}
		out[i] = sub
	}
	return out, nil
}

// RecursiveSplit applies SplitQuadrants depth times and returns the 4^depth
// leaves in pre-order. Depth 0 returns the region itself.
func RecursiveSplit(region raster.Region, depth int) ([]raster.Region, error) {
	leaves, err := Leaves(region, depth)
	if err != nil {
		return nil, err
	}
	out := make([]raster.Region, len(leaves))
	for i, l := range leaves {
		out[i] = l.Region
	}
	return out, nil
}

// Leaf is one region produced by a recursive split.
type Leaf struct {
	// Index is the leaf's position in pre-order.
	Index int

	// Path lists the quadrant taken at every level, outermost first.
	Path []int

	Region raster.Region
}

// PathString renders the path as dot-separated quadrant indexes, e.g. "0.3".
// The whole region has an empty path.
func (l Leaf) PathString() string {
	parts := make([]string, len(l.Path))
	for i, q := range l.Path {
		parts[i] = strconv.Itoa(q)
	}
	return strings.Join(parts, ".")
}

// Leaves is RecursiveSplit with the index and quadrant path of every leaf.
func Leaves(region raster.Region, depth int) ([]Leaf, error) {
	if depth < 0 {
		return nil, fmt.Errorf("negative partition depth %d: %w", depth, raster.ErrInvalidRegion)
	}
	if region.Empty() {
		return nil, fmt.Errorf("split %s: %w", region, raster.ErrInvalidRegion)
	}
	if limit := MaxDepth(region.Width, region.Height); depth > limit {
		return nil, fmt.Errorf("depth %d exceeds %d supported by %dx%d: %w",
			depth, limit, region.Width, region.Height, raster.ErrRegionTooSmall)
	}

	leaves := make([]Leaf, 0, pow4(depth))
	var walk func(r raster.Region, path []int) error
	walk = func(r raster.Region, path []int) error {
		if len(path) == depth {
			leaves = append(leaves, Leaf{
				Index:  len(leaves),
				Path:   append([]int(nil), path...),
				Region: r,
			})
			return nil
		}
		quads, err := SplitQuadrants(r)
		if err != nil {
			return err
		}
		for i, q := range quads {
			if err := walk(q, append(path, i)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(region, make([]int, 0, depth)); err != nil {
		return nil, err
	}
	return leaves, nil
}

// MaxDepth returns the deepest recursive split a width x height region
// supports. The smallest leaf at depth d is floor(n / 2^d) along each axis,
// so the limit is floor(log2(min(width, height))).
func MaxDepth(width, height int) int {
	n := width
	if height < n {
		n = height
	}
	d := 0
	for n >= 2 {
		n /= 2
		d++
	}
	return d
}

func pow4(d int) int {
	n := 1
	for i := 0; i < d; i++ {
		n *= 4
	}
	return n
}
