package analysis

import (
	"strings"
	"testing"
)

func sampleRecord() *Record {
	return &Record{
		ID:        "map_2",
		Leaf:      2,
		Path:      "2",
		X0:        0,
		Y0:        5,
		Height:    5,
		Width:     4,
		Channels:  3,
		PixelsAll: 20,
		Categories: []CategoryStat{
			{Name: "black", Count: 3, RawCount: 3, Relative: 15},
			{Name: "red", Count: 1, RawCount: 7, Relative: 5},
		},
		RelativeSum: 20,
	}
}

func TestRecord_Columns(t *testing.T) {
	got := strings.Join(sampleRecord().Columns(), ",")
	want := "raster_name,leaf,x0,y0,height,width,channels,pixels_all,black,red,black_relative,red_relative,relative_sum"
	if got != want {
		t.Errorf("columns:\n got %s\nwant %s", got, want)
	}
}

func TestRecord_Values(t *testing.T) {
	rec := sampleRecord()
	got := strings.Join(rec.Values(), ",")
	want := "map_2,2,0,5,5,4,3,20,3,1,15,5,20"
	if got != want {
		t.Errorf("values:\n got %s\nwant %s", got, want)
	}
	if len(rec.Values()) != len(rec.Columns()) {
		t.Error("values and columns differ in length")
	}
}

func TestRecord_Stat(t *testing.T) {
	rec := sampleRecord()
	if s, ok := rec.Stat("red"); !ok || s.RawCount != 7 {
		t.Errorf("Stat(red): got %+v, %v", s, ok)
	}
	if _, ok := rec.Stat("blue"); ok {
		t.Error("Stat(blue) should not be found")
	}
}

func TestRelative(t *testing.T) {
	tests := []struct {
		count, total int
		want         float64
	}{
		{4, 4, 100},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{0, 10, 0},
		{5, 0, 0},
		{1, 8, 12.5},
		{1, 800, 0.12},
		{5, 800, 0.62},
		{9, 800, 1.12},
		{3, 1600, 0.19},
	}

	for _, tt := range tests {
		if got := Relative(tt.count, tt.total); got != tt.want {
			t.Errorf("Relative(%d, %d) = %v, want %v", tt.count, tt.total, got, tt.want)
		}
	}
}
