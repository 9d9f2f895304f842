// Package batch runs coverage analysis over a set of map sheets.
package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"

	"github.com/ironsheep/map-coverage/internal/analysis"
	"github.com/ironsheep/map-coverage/internal/export"
	"github.com/ironsheep/map-coverage/internal/imaging"
	"github.com/ironsheep/map-coverage/internal/raster"
)

// Runner analyzes images one after another. Leaves of a single image are
// analyzed concurrently by the Analyzer.
type Runner struct {
	Analyzer *analysis.Analyzer
	Cache    *imaging.ImageCache

	// Masks receives the composite mask of every record. Nil skips masks.
	Masks *imaging.MaskWriter

	// CategoryMasks also writes one mask per category of every record.
	CategoryMasks bool

	// Sink receives all records once the run ends. Nil skips export.
	Sink export.Sink

	Order raster.ChannelOrder
	Depth int

	// KeepGoing skips images that fail instead of aborting the run.
	KeepGoing bool

	Logger *slog.Logger
}

// Summary reports what a run did.
type Summary struct {
	Images  int `json:"images"`
	Failed  int `json:"failed"`
	Records int `json:"records"`
}

// Run analyzes each input and writes the collected records to the sink.
//
// Records of an image are only kept when the whole image succeeded. When
// an image fails and KeepGoing is false the run stops, but the records of
// the images completed so far are still exported.
func (r *Runner) Run(ctx context.Context, inputs []string) (Summary, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cache := r.Cache
	if cache == nil {
		cache = imaging.NewImageCache()
	}

	var (
		sum     Summary
		records []analysis.Record
		runErr  error
	)

	for _, path := range inputs {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		recs, err := r.processImage(ctx, cache, path)
		// Decoded sheets are large and each is analyzed once.
		cache.Evict(path)
		if err != nil {
			sum.Failed++
			logger.Error("image failed", "path", path, "error", err)
			if !r.KeepGoing {
				runErr = fmt.Errorf("%s: %w", path, err)
				break
			}
			continue
		}

		sum.Images++
		records = append(records, recs...)
		logger.Info("image analyzed", "path", path, "records", len(recs))
	}

	sum.Records = len(records)
	if r.Sink != nil && len(records) > 0 {
		if err := r.Sink.Write(records); err != nil {
			logger.Error("export failed", "error", err)
			if runErr == nil {
				runErr = fmt.Errorf("failed to export records: %w", err)
			}
		}
	}
	return sum, runErr
}

func (r *Runner) processImage(ctx context.Context, cache *imaging.ImageCache, path string) ([]analysis.Record, error) {
	img, err := imaging.LoadRaster(cache, path, r.Order)
	if err != nil {
		return nil, err
	}

	recs, err := r.Analyzer.Analyze(ctx, filepath.Base(path), img.Whole(), r.Depth)
	if err != nil {
		return nil, err
	}

	if r.Masks != nil {
		name := imaging.BaseName(path)
		table := r.Analyzer.Table()
		for i := range recs {
			rec := &recs[i]
			if _, err := r.Masks.WriteMask(maskName(name, rec.Leaf, "composite"), rec.Composite); err != nil {
				return nil, err
			}
			if !r.CategoryMasks {
				continue
			}
			for j, m := range rec.CategoryMasks {
				if _, err := r.Masks.WriteMask(maskName(name, rec.Leaf, table[j].Name), m); err != nil {
					return nil, err
				}
			}
		}
	}
	return recs, nil
}

// maskName names a mask of a record: "<name>_<kind>" for a whole image and
// "<name>_<leaf>_<kind>" for a leaf. kind is "composite" or a category name.
func maskName(name string, leaf int, kind string) string {
	if leaf < 0 {
		return name + "_" + kind
	}
	return name + "_" + strconv.Itoa(leaf) + "_" + kind
}
