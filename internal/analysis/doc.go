// Package analysis turns classified regions into coverage statistics.
//
// An Analyzer drives the classifier over a whole image or over the leaves of
// a recursive quadrant split, and produces one Record per analyzed region:
// extent, per-category counts, percentages relative to that region and the
// composite coverage mask.
//
// Leaves are independent. They are analyzed on a bounded pool of goroutines
// that share only the read-only category table and pixel buffer, and the
// resulting Records are returned in leaf pre-order regardless of completion
// order.
package analysis
