package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"sync"

	"github.com/ironsheep/map-coverage/internal/classify"
	"github.com/ironsheep/map-coverage/internal/partition"
	"github.com/ironsheep/map-coverage/internal/raster"
)

// Analyzer computes Records for images using one fixed category table.
//
// An Analyzer is safe for concurrent use; it holds no per-call state.
type Analyzer struct {
	table   classify.Table
	workers int
	logger  *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWorkers bounds the number of leaves analyzed concurrently.
// Values <= 0 select GOMAXPROCS.
func WithWorkers(n int) Option { return func(a *Analyzer) { a.workers = n } }

// WithLogger sets the logger used for per-region debug output.
func WithLogger(l *slog.Logger) Option { return func(a *Analyzer) { a.logger = l } }

// New returns an Analyzer for the given table. The table is validated once
// here and shared read-only by every analysis.
func New(table classify.Table, opts ...Option) (*Analyzer, error) {
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid category table: %w", err)
	}
	a := &Analyzer{
		table:  append(classify.Table(nil), table...),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(a)
	}
	if a.workers <= 0 {
		a.workers = runtime.GOMAXPROCS(0)
	}
	return a, nil
}

// Table returns the category table the analyzer classifies with.
func (a *Analyzer) Table() classify.Table {
	return append(classify.Table(nil), a.table...)
}

// Analyze classifies region and returns its statistics.
//
// With depth 0 the whole region yields one Record whose ID is id. With
// depth > 0 the region is split recursively and every leaf yields a Record,
// in pre-order, whose ID is id followed by "_" and the leaf index.
//
// Percentages in each Record are relative to that Record's own pixel total.
// Failures are returned as *raster.RegionError carrying the image or leaf
// identifier. If ctx is cancelled no further leaves are started and
// ctx.Err() is returned.
func (a *Analyzer) Analyze(ctx context.Context, id string, region raster.Region, depth int) ([]Record, error) {
	if depth == 0 {
		rec, err := a.analyzeRegion(id, partition.Leaf{Index: -1, Region: region})
		if err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	}

	leaves, err := partition.Leaves(region, depth)
	if err != nil {
		return nil, &raster.RegionError{ID: id, Op: "split", Err: err}
	}
	a.logger.Debug("partitioned region",
		"id", id, "depth", depth, "leaves", len(leaves), "workers", a.workers)

	records := make([]Record, len(leaves))
	errs := make([]error, len(leaves))

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := a.workers
	if workers > len(leaves) {
		workers = len(leaves)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				leaf := leaves[i]
				records[i], errs[i] = a.analyzeRegion(id+"_"+strconv.Itoa(leaf.Index), leaf)
			}
		}()
	}

feed:
	for i := range leaves {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (a *Analyzer) analyzeRegion(id string, leaf partition.Leaf) (Record, error) {
	region := leaf.Region
	res, err := classify.Classify(region, a.table)
	if err != nil {
		return Record{}, &raster.RegionError{ID: id, Op: "classify", Err: err}
	}
	composite, err := classify.Compose(res.Masks)
	if err != nil {
		return Record{}, &raster.RegionError{ID: id, Op: "compose", Err: err}
	}

	total := region.Pixels()
	stats := make([]CategoryStat, len(a.table))
	var sum float64
	for i, c := range a.table {
		rel := Relative(res.Counts[i], total)
		stats[i] = CategoryStat{
			Name:     c.Name,
			Count:    res.Counts[i],
			RawCount: res.RawCounts[i],
			Relative: rel,
		}
		sum += rel
	}

	rec := Record{
		ID:          id,
		Leaf:        leaf.Index,
		Path:        leaf.PathString(),
		X0:          region.X0,
		Y0:          region.Y0,
		Height:      region.Height,
		Width:       region.Width,
		Channels:    region.Channels(),
		PixelsAll:   total,
		Categories:  stats,
		RelativeSum: round2(sum),
		Composite:   composite,

		CategoryMasks: res.Masks,
	}
	a.logger.Debug("analyzed region",
		"id", id, "region", region.String(), "pixels", total, "relative_sum", rec.RelativeSum)
	return rec, nil
}
