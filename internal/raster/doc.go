// Package raster holds decoded pixel data and rectangular views over it.
//
// A Raster owns an interleaved 8-bit buffer in one canonical channel order
// (RGB or BGR). A Region borrows a rectangle of that buffer without copying;
// regions are cheap values that the partitioner slices further and the
// classifier reads row by row.
//
// # Coordinate System
//
// Region origins (X0, Y0) are in raster coordinates with (0,0) at the
// top-left. Pixel and Row take coordinates relative to the region.
//
// # Errors
//
// The sentinel errors ErrInvalidRegion, ErrChannelMismatch and
// ErrRegionTooSmall are shared by the classify, partition and analysis
// packages. RegionError wraps them with the identifier of the image or leaf
// being analyzed; use errors.Is to test for the kind.
package raster
