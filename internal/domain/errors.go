package domain

import "errors"

// Error classes shared by the parsing, classification and filtering stages.
var (
	// ErrMalformedValue marks a single field that could not be parsed.
	// It is never fatal: the field degrades to null/unknown and the row continues.
	ErrMalformedValue = errors.New("malformed value")

	// ErrInvalidConfig marks a configuration problem (unknown session, bad window,
	// rules table without required columns, malformed pair code). It is fatal and
	// must surface before any processing starts.
	ErrInvalidConfig = errors.New("invalid configuration")
)
