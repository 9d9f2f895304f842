package classify

import (
	"encoding/json"
	"fmt"
)

// BorderDivisor is the fixed divisor applied to the raw count of a
// border-prone category. Outline strokes on scanned maps are drawn about
// four pixels wide around the area they enclose.
const BorderDivisor = 4

// Category is a named inclusive channel-value range.
//
// Lower and Upper are in the channel order of the rasters the table is
// applied to. A pixel belongs to the category iff Lower[c] <= p[c] <= Upper[c]
// for every channel c.
type Category struct {
	Name  string  `json:"name"`
	Lower []uint8 `json:"lower"`
	Upper []uint8 `json:"upper"`

	// BorderProne marks categories whose raw count is over-counted by
	// outline artifacts; the count is floor-divided by BorderDivisor.
	BorderProne bool `json:"border_prone,omitempty"`
}

// Contains reports whether the pixel lies inside the category bounds.
func (c Category) Contains(p []uint8) bool {
	for i, v := range p {
		if v < c.Lower[i] || v > c.Upper[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the bounds as arrays of numbers.
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name        string `json:"name"`
		Lower       []int  `json:"lower"`
		Upper       []int  `json:"upper"`
		BorderProne bool   `json:"border_prone,omitempty"`
	}{c.Name, ints(c.Lower), ints(c.Upper), c.BorderProne})
}

func ints(b []uint8) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

// Adjust applies the border-prone correction to a raw count.
func (c Category) Adjust(raw int) int {
	if c.BorderProne {
		return raw / BorderDivisor
	}
	return raw
}

// Table is an ordered list of categories. The order fixes the order of
// masks, counts and result columns.
type Table []Category

// Width is the number of channels each bound covers.
func (t Table) Width() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0].Lower)
}

// Names returns the category names in table order.
func (t Table) Names() []string {
	names := make([]string, len(t))
	for i, c := range t {
		names[i] = c.Name
	}
	return names
}

// Validate checks that the table is usable for classification.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("category table is empty")
	}
	width := t.Width()
	if width == 0 {
		return fmt.Errorf("category %q has empty bounds", t[0].Name)
	}

	seen := make(map[string]bool, len(t))
	for _, c := range t {
		if c.Name == "" {
			return fmt.Errorf("category with empty name")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate category %q", c.Name)
		}
		seen[c.Name] = true

		if len(c.Lower) != width || len(c.Upper) != width {
			return fmt.Errorf("category %q: bounds have %d/%d channels, want %d",
				c.Name, len(c.Lower), len(c.Upper), width)
		}
		for i := range c.Lower {
			if c.Lower[i] > c.Upper[i] {
				return fmt.Errorf("category %q: channel %d lower bound %d exceeds upper bound %d",
					c.Name, i, c.Lower[i], c.Upper[i])
			}
		}
	}
	return nil
}
