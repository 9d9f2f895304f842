package raster

import "errors"

var (
	// ErrInvalidRegion is returned for a zero-area region or a view that
	// does not fit its parent.
	ErrInvalidRegion = errors.New("invalid region")

	// ErrChannelMismatch is returned when the pixel channel depth differs
	// from the width of the category bounds.
	ErrChannelMismatch = errors.New("channel mismatch")

	// ErrRegionTooSmall is returned when a partition depth is requested
	// that the region's dimensions cannot support.
	ErrRegionTooSmall = errors.New("region too small")
)

// RegionError attaches the identifier of the offending image or region to
// an analysis failure.
type RegionError struct {
	ID  string // image or leaf identifier
	Op  string // "classify", "split", ...
	Err error
}

func (e *RegionError) Error() string {
	return e.Op + " " + e.ID + ": " + e.Err.Error()
}

func (e *RegionError) Unwrap() error { return e.Err }
