package catalog

import "errors"

var (
	// ErrDatabase marks a source-of-truth failure. It is the only error
	// class the cache layer lets through to callers; providers wrap their
	// query errors with it so handlers can classify via errors.Is.
	ErrDatabase = errors.New("database error")

	// ErrNotFound is returned when the requested entity does not exist in
	// the source of truth.
	ErrNotFound = errors.New("not found")
)
