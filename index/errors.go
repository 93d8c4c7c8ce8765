package index

import "errors"

var (
	// ErrEmptyID indicates an attempt to index an entry without an id.
	ErrEmptyID = errors.New("index: empty id")

	// ErrDimensionMismatch indicates a vector whose length differs from the index dimension.
	ErrDimensionMismatch = errors.New("index: vector dimension mismatch")
)
