// Package imaging handles the image side of coverage analysis: decoding
// map sheets, writing masks, and rendering previews for the MCP tools.
//
// # Coordinate System
//
// All pixel coordinates are 0-based and relative to the image's top-left
// corner, regardless of the decoded image's Bounds().Min. Rectangles are
// half-open: Min is inclusive, Max is exclusive. These are the same
// coordinates raster regions and partition leaves use, so a leaf's
// Bounds() can be passed to Crop directly.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The other functions are stateless
// and may be called concurrently on different images.
//
// # Formats
//
// Sheets may be PNG, JPEG, GIF, TIFF, BMP or WebP. Masks are written
// losslessly as TIFF (the default), PNG or WebP so that pixel counts
// survive a round trip.
package imaging
