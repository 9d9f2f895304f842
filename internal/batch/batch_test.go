package batch

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/map-coverage/internal/analysis"
	"github.com/ironsheep/map-coverage/internal/classify"
	"github.com/ironsheep/map-coverage/internal/imaging"
	"github.com/ironsheep/map-coverage/internal/raster"
)

type recordingSink struct {
	batches [][]analysis.Record
}

func (s *recordingSink) Write(records []analysis.Record) error {
	s.batches = append(s.batches, records)
	return nil
}

func (s *recordingSink) all() []analysis.Record {
	var out []analysis.Record
	for _, b := range s.batches {
		out = append(out, b...)
	}
	return out
}

func writeSheet(t *testing.T, dir, name string, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeGarbage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newRunner(t *testing.T, sink *recordingSink, masks *imaging.MaskWriter) *Runner {
	t.Helper()
	a, err := analysis.New(classify.Table{
		{Name: "black", Lower: []uint8{0, 0, 0}, Upper: []uint8{20, 20, 20}},
	})
	if err != nil {
		t.Fatal(err)
	}
	return &Runner{
		Analyzer: a,
		Cache:    imaging.NewImageCache(),
		Masks:    masks,
		Sink:     sink,
		Order:    raster.RGB,
		Depth:    1,
	}
}

func TestRun(t *testing.T) {
	in := t.TempDir()
	maskDir := filepath.Join(t.TempDir(), "masks")
	inputs := []string{
		writeSheet(t, in, "a.png", color.Black),
		writeSheet(t, in, "b.png", color.White),
	}

	masks, err := imaging.NewMaskWriter(maskDir, "png")
	if err != nil {
		t.Fatal(err)
	}
	sink := &recordingSink{}
	r := newRunner(t, sink, masks)

	sum, err := r.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sum != (Summary{Images: 2, Failed: 0, Records: 8}) {
		t.Errorf("summary: got %+v", sum)
	}

	records := sink.all()
	if len(sink.batches) != 1 || len(records) != 8 {
		t.Fatalf("sink: got %d batches with %d records", len(sink.batches), len(records))
	}
	if records[0].ID != "a.png_0" || records[4].ID != "b.png_0" {
		t.Errorf("ids: %s, %s", records[0].ID, records[4].ID)
	}
	if st, _ := records[0].Stat("black"); st.Relative != 100 {
		t.Errorf("black leaf relative: got %v, want 100", st.Relative)
	}
	if st, _ := records[4].Stat("black"); st.Count != 0 {
		t.Errorf("white leaf black count: got %d, want 0", st.Count)
	}

	for _, name := range []string{"a_0_composite.png", "a_3_composite.png", "b_2_composite.png"} {
		if _, err := os.Stat(filepath.Join(maskDir, name)); err != nil {
			t.Errorf("missing mask %s: %v", name, err)
		}
	}
	if r.Cache.Len() != 0 {
		t.Error("analyzed sheets should be evicted from the cache")
	}
}

func TestRun_WholeImageMaskName(t *testing.T) {
	in := t.TempDir()
	maskDir := t.TempDir()
	masks, err := imaging.NewMaskWriter(maskDir, "tif")
	if err != nil {
		t.Fatal(err)
	}
	r := newRunner(t, &recordingSink{}, masks)
	r.Depth = 0

	if _, err := r.Run(context.Background(), []string{writeSheet(t, in, "sheet.png", color.Black)}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(maskDir, "sheet_composite.tif")); err != nil {
		t.Errorf("missing whole-image mask: %v", err)
	}
}

func TestRun_CategoryMasks(t *testing.T) {
	in := t.TempDir()
	maskDir := t.TempDir()
	masks, err := imaging.NewMaskWriter(maskDir, "png")
	if err != nil {
		t.Fatal(err)
	}
	r := newRunner(t, &recordingSink{}, masks)
	r.CategoryMasks = true

	if _, err := r.Run(context.Background(), []string{writeSheet(t, in, "sheet.png", color.Black)}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, name := range []string{"sheet_0_black.png", "sheet_3_black.png", "sheet_0_composite.png"} {
		if _, err := os.Stat(filepath.Join(maskDir, name)); err != nil {
			t.Errorf("missing mask %s: %v", name, err)
		}
	}

	f, err := os.Open(filepath.Join(maskDir, "sheet_1_black.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode mask: %v", err)
	}
	if g := color.GrayModel.Convert(img.At(0, 0)).(color.Gray); g.Y != 255 {
		t.Errorf("black sheet mask pixel: got %d, want 255", g.Y)
	}
}

func TestRun_CategoryMasksOff(t *testing.T) {
	in := t.TempDir()
	maskDir := t.TempDir()
	masks, err := imaging.NewMaskWriter(maskDir, "png")
	if err != nil {
		t.Fatal(err)
	}
	r := newRunner(t, &recordingSink{}, masks)
	r.Depth = 0

	if _, err := r.Run(context.Background(), []string{writeSheet(t, in, "sheet.png", color.Black)}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	entries, err := os.ReadDir(maskDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "sheet_composite.png" {
		t.Errorf("masks written: %v", entries)
	}
}

func TestRun_AbortKeepsCompletedRecords(t *testing.T) {
	in := t.TempDir()
	inputs := []string{
		writeSheet(t, in, "a.png", color.Black),
		writeGarbage(t, in, "b.png"),
		writeSheet(t, in, "c.png", color.Black),
	}
	sink := &recordingSink{}
	r := newRunner(t, sink, nil)

	sum, err := r.Run(context.Background(), inputs)
	if err == nil {
		t.Fatal("Run should fail on an undecodable image")
	}
	if sum != (Summary{Images: 1, Failed: 1, Records: 4}) {
		t.Errorf("summary: got %+v", sum)
	}
	if got := len(sink.all()); got != 4 {
		t.Errorf("exported records: got %d, want 4", got)
	}
}

func TestRun_KeepGoing(t *testing.T) {
	in := t.TempDir()
	inputs := []string{
		writeGarbage(t, in, "a.png"),
		writeSheet(t, in, "b.png", color.Black),
	}
	sink := &recordingSink{}
	r := newRunner(t, sink, nil)
	r.KeepGoing = true

	sum, err := r.Run(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sum != (Summary{Images: 1, Failed: 1, Records: 4}) {
		t.Errorf("summary: got %+v", sum)
	}
	for _, rec := range sink.all() {
		if rec.ID[:1] != "b" {
			t.Errorf("unexpected record %s", rec.ID)
		}
	}
}

func TestRun_TooDeep(t *testing.T) {
	in := t.TempDir()
	sink := &recordingSink{}
	r := newRunner(t, sink, nil)
	r.Depth = 3 // a 4x4 sheet supports depth 2

	sum, err := r.Run(context.Background(), []string{writeSheet(t, in, "a.png", color.Black)})
	if err == nil {
		t.Fatal("Run should fail when the depth exceeds the sheet size")
	}
	if sum.Failed != 1 || len(sink.batches) != 0 {
		t.Errorf("summary %+v, batches %d", sum, len(sink.batches))
	}
}

func TestRun_Cancelled(t *testing.T) {
	in := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRunner(t, &recordingSink{}, nil)
	sum, err := r.Run(ctx, []string{writeSheet(t, in, "a.png", color.Black)})
	if err != context.Canceled {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if sum.Images != 0 {
		t.Errorf("no image should be analyzed, got %d", sum.Images)
	}
}

func TestMaskName(t *testing.T) {
	tests := []struct {
		leaf int
		kind string
		want string
	}{
		{-1, "composite", "sheet_composite"},
		{0, "composite", "sheet_0_composite"},
		{12, "composite", "sheet_12_composite"},
		{-1, "forest", "sheet_forest"},
		{3, "forest", "sheet_3_forest"},
	}
	for _, tt := range tests {
		if got := maskName("sheet", tt.leaf, tt.kind); got != tt.want {
			t.Errorf("maskName(%d, %s) = %s, want %s", tt.leaf, tt.kind, got, tt.want)
		}
	}
}
