// Package classify sorts the pixels of a region into color categories.
//
// A category is a named inclusive range per channel. Classify produces one
// boolean mask per category and the number of pixels in each; Compose ORs
// the masks into a single coverage mask for reporting.
//
// Categories flagged BorderProne have their count floor-divided by
// BorderDivisor. Map outlines of those colors are drawn as strokes around
// the areas they enclose and would otherwise dominate the statistics.
package classify
