// Package export writes coverage records to tabular sinks.
//
// A run produces one table: every record written to a sink must have the
// same columns as the first one, which holds as long as all records come
// from the same category table.
package export
