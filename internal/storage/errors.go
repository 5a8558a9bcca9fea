package storage

import "errors"

var (
	// ErrNotFound means the requested key has no row.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey means a run-scoped output was already written. Run outputs
	// are insert-once; a rerun gets a new run id.
	ErrDuplicateKey = errors.New("run output already stored")

	// ErrInvalidInput rejects nil records and records missing their key.
	ErrInvalidInput = errors.New("invalid record")
)
