// Package server implements the MCP (Model Context Protocol) server for map
// coverage analysis.
//
// The server communicates over stdio using JSON-RPC 2.0, one request per
// line on stdin and one response per line on stdout. Supported methods are
// initialize, tools/list, tools/call and ping.
//
// # Tools
//
// Image information:
//   - image_load: Load a map and get its metadata
//   - image_dimensions: Get width and height
//
// Coverage:
//   - coverage_categories: List the category table
//   - coverage_analyze: Per-region category counts and percentages
//   - coverage_split: List quadrant leaves at a depth
//   - coverage_sample_color: Channel values and matching categories at a pixel
//   - coverage_crop_leaf: Crop one leaf as PNG
//   - coverage_partition_overlay: Draw leaf boundaries over the map
//
// Leaf indexes are pre-order and match the numeric suffix of the record
// IDs returned by coverage_analyze for the same depth.
//
// # Image Caching
//
// Decoded images are cached by path for the lifetime of the server, so
// analyzing a map and then cropping its leaves decodes it once.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with code
// -32000 and the Go error string as data.
package server
