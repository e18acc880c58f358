package services

import "errors"

// Flow service errors
var (
	// Snapshot errors
	ErrDataNotLoaded = errors.New("record set not loaded")

	// Request-level errors, distinguishable from a valid empty graph
	ErrYearNotFound = errors.New("year not found in loaded data")
	ErrInvalidLevel = errors.New("rollup level out of range")
)
