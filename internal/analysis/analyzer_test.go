package analysis

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/ironsheep/map-coverage/internal/classify"
	"github.com/ironsheep/map-coverage/internal/raster"
)

func blackTable() classify.Table {
	return classify.Table{{Name: "black", Lower: []uint8{0, 0, 0}, Upper: []uint8{5, 5, 5}}}
}

func legendTable() classify.Table {
	return classify.Table{
		{Name: "black", Lower: []uint8{0, 0, 0}, Upper: []uint8{20, 20, 20}},
		{Name: "grey", Lower: []uint8{50, 50, 50}, Upper: []uint8{90, 90, 90}},
		{Name: "red", Lower: []uint8{180, 0, 20}, Upper: []uint8{205, 10, 55}, BorderProne: true},
	}
}

// mixedRaster paints a deterministic mix of black, grey, red and white.
func mixedRaster(width, height int) *raster.Raster {
	palette := [][3]uint8{{0, 0, 0}, {70, 70, 70}, {190, 5, 30}, {255, 255, 255}, {70, 70, 70}}
	r := raster.New(width, height, 3, raster.RGB)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := palette[(x*7+y*3)%len(palette)]
			copy(r.Pix[(y*width+x)*3:], c[:])
		}
	}
	return r
}

func TestNew_RejectsInvalidTable(t *testing.T) {
	if _, err := New(classify.Table{}); err == nil {
		t.Error("New should reject an empty table")
	}
}

func TestAnalyze_EndToEndQuadrants(t *testing.T) {
	r := raster.New(4, 4, 3, raster.RGB) // all pixels (0,0,0)
	a, err := New(blackTable())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	records, err := a.Analyze(context.Background(), "map", r.Whole(), 1)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}

	for i, rec := range records {
		if rec.Width != 2 || rec.Height != 2 {
			t.Errorf("record %d: extent %dx%d, want 2x2", i, rec.Width, rec.Height)
		}
		black, ok := rec.Stat("black")
		if !ok {
			t.Fatalf("record %d: missing black", i)
		}
		if black.Count != 4 {
			t.Errorf("record %d: black count %d, want 4", i, black.Count)
		}
		if black.Relative != 100.0 {
			t.Errorf("record %d: black relative %v, want 100", i, black.Relative)
		}
		if rec.RelativeSum != 100.0 {
			t.Errorf("record %d: relative sum %v, want 100", i, rec.RelativeSum)
		}
		if rec.Composite == nil || rec.Composite.Count() != 4 {
			t.Errorf("record %d: composite should cover all 4 pixels", i)
		}
		if len(rec.CategoryMasks) != 1 || rec.CategoryMasks[0].Count() != 4 {
			t.Errorf("record %d: expected one black mask covering 4 pixels", i)
		}
	}
}

func TestAnalyze_WholeImage(t *testing.T) {
	r := mixedRaster(10, 6)
	a, _ := New(legendTable())

	records, err := a.Analyze(context.Background(), "sheet.tif", r.Whole(), 0)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	rec := records[0]
	if rec.ID != "sheet.tif" {
		t.Errorf("ID: got %q, want sheet.tif", rec.ID)
	}
	if rec.Leaf != -1 || rec.Path != "" {
		t.Errorf("whole image leaf/path: got %d/%q", rec.Leaf, rec.Path)
	}
	if rec.PixelsAll != 60 || rec.Channels != 3 {
		t.Errorf("pixels/channels: got %d/%d, want 60/3", rec.PixelsAll, rec.Channels)
	}
}

func TestAnalyze_LeafIDs(t *testing.T) {
	r := mixedRaster(8, 8)
	a, _ := New(legendTable(), WithWorkers(3))

	records, err := a.Analyze(context.Background(), "map", r.Whole(), 2)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(records) != 16 {
		t.Fatalf("got %d records, want 16", len(records))
	}
	if records[0].ID != "map_0" || records[15].ID != "map_15" {
		t.Errorf("IDs: got %q..%q", records[0].ID, records[15].ID)
	}
	if records[5].Path != "1.1" || records[5].X0 != 6 || records[5].Y0 != 0 {
		t.Errorf("leaf 5: path %q origin (%d,%d)", records[5].Path, records[5].X0, records[5].Y0)
	}
}

func TestAnalyze_RelativePercentages(t *testing.T) {
	// 40x20 = 800 pixels: 1 black, 5 grey and 36 red on white. Red is
	// border-prone, so its count is 9.
	r := raster.New(40, 20, 3, raster.RGB)
	for i := range r.Pix {
		r.Pix[i] = 255
	}
	paint := func(n, start int, c [3]uint8) {
		for i := start; i < start+n; i++ {
			copy(r.Pix[i*3:], c[:])
		}
	}
	paint(1, 0, [3]uint8{0, 0, 0})
	paint(5, 100, [3]uint8{70, 70, 70})
	paint(36, 400, [3]uint8{190, 5, 30})

	a, _ := New(legendTable())
	records, err := a.Analyze(context.Background(), "map", r.Whole(), 0)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	rec := records[0]

	tests := []struct {
		name     string
		count    int
		relative float64
	}{
		{"black", 1, 0.12},
		{"grey", 5, 0.62},
		{"red", 9, 1.12},
	}
	for _, tt := range tests {
		c, ok := rec.Stat(tt.name)
		if !ok {
			t.Fatalf("missing category %s", tt.name)
		}
		if c.Count != tt.count || c.Relative != tt.relative {
			t.Errorf("%s: got count %d relative %v, want %d %v",
				tt.name, c.Count, c.Relative, tt.count, tt.relative)
		}
	}
	if rec.RelativeSum != 1.86 {
		t.Errorf("relative sum: got %v, want 1.86", rec.RelativeSum)
	}
}

func TestAnalyze_RelativeInvariant(t *testing.T) {
	r := mixedRaster(23, 17)
	a, _ := New(legendTable())

	for depth := 0; depth <= 2; depth++ {
		records, err := a.Analyze(context.Background(), "map", r.Whole(), depth)
		if err != nil {
			t.Fatalf("depth %d: %v", depth, err)
		}
		for _, rec := range records {
			var sum float64
			for _, c := range rec.Categories {
				if c.Relative < 0 || c.Relative > 100 {
					t.Errorf("%s %s: relative %v out of range", rec.ID, c.Name, c.Relative)
				}
				sum += c.Relative
			}
			if math.Abs(rec.RelativeSum-sum) > 0.01 {
				t.Errorf("%s: relative sum %v, want %v", rec.ID, rec.RelativeSum, sum)
			}
			if rec.PixelsAll != rec.Width*rec.Height {
				t.Errorf("%s: pixels %d != %dx%d", rec.ID, rec.PixelsAll, rec.Width, rec.Height)
			}
		}
	}
}

func TestAnalyze_LeafCountsSumToWhole(t *testing.T) {
	r := mixedRaster(16, 12)
	// No border-prone categories, so floor division cannot skew the sums.
	table := legendTable()[:2]
	a, _ := New(table)

	whole, err := a.Analyze(context.Background(), "map", r.Whole(), 0)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	leaves, err := a.Analyze(context.Background(), "map", r.Whole(), 2)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	for i, c := range whole[0].Categories {
		sum, pixels := 0, 0
		for _, rec := range leaves {
			sum += rec.Categories[i].Count
			pixels += rec.PixelsAll
		}
		if sum != c.Count {
			t.Errorf("%s: leaves sum to %d, whole has %d", c.Name, sum, c.Count)
		}
		if pixels != whole[0].PixelsAll {
			t.Errorf("leaf pixels %d, whole %d", pixels, whole[0].PixelsAll)
		}
	}
}

func TestAnalyze_ParallelMatchesSerial(t *testing.T) {
	r := mixedRaster(32, 32)
	serial, _ := New(legendTable(), WithWorkers(1))
	wide, _ := New(legendTable(), WithWorkers(8))

	a, err := serial.Analyze(context.Background(), "m", r.Whole(), 3)
	if err != nil {
		t.Fatalf("serial: %v", err)
	}
	b, err := wide.Analyze(context.Background(), "m", r.Whole(), 3)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	for i := range a {
		av, bv := a[i].Values(), b[i].Values()
		for j := range av {
			if av[j] != bv[j] {
				t.Fatalf("record %d column %d: %s vs %s", i, j, av[j], bv[j])
			}
		}
	}
}

func TestAnalyze_Errors(t *testing.T) {
	a, _ := New(legendTable())

	t.Run("too deep", func(t *testing.T) {
		r := raster.New(4, 4, 3, raster.RGB)
		_, err := a.Analyze(context.Background(), "small.png", r.Whole(), 3)
		if !errors.Is(err, raster.ErrRegionTooSmall) {
			t.Fatalf("got %v, want ErrRegionTooSmall", err)
		}
		var re *raster.RegionError
		if !errors.As(err, &re) || re.ID != "small.png" {
			t.Errorf("error should carry the image id, got %v", err)
		}
	})

	t.Run("channel mismatch", func(t *testing.T) {
		r := raster.New(4, 4, 4, raster.RGB)
		_, err := a.Analyze(context.Background(), "rgba.png", r.Whole(), 1)
		if !errors.Is(err, raster.ErrChannelMismatch) {
			t.Fatalf("got %v, want ErrChannelMismatch", err)
		}
		var re *raster.RegionError
		if !errors.As(err, &re) || re.ID != "rgba.png_0" {
			t.Errorf("error should carry the first leaf id, got %v", err)
		}
	})

	t.Run("empty image", func(t *testing.T) {
		r := raster.New(0, 0, 3, raster.RGB)
		_, err := a.Analyze(context.Background(), "empty.png", r.Whole(), 0)
		if !errors.Is(err, raster.ErrInvalidRegion) {
			t.Errorf("got %v, want ErrInvalidRegion", err)
		}
	})
}

func TestAnalyze_Cancelled(t *testing.T) {
	r := mixedRaster(16, 16)
	a, _ := New(legendTable(), WithWorkers(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Analyze(ctx, "map", r.Whole(), 2); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestAnalyzer_TableIsCopied(t *testing.T) {
	table := legendTable()
	a, _ := New(table)
	table[0].Name = "changed"

	if a.Table()[0].Name != "black" {
		t.Error("Analyzer should not observe later changes to the caller's table")
	}
}
