package pvdb

import "errors"

var (
	// ErrChunkNotFound indicates the requested chunk id is unknown.
	ErrChunkNotFound = errors.New("chunk not found")

	// ErrDocumentNotFound indicates the requested document id is unknown.
	ErrDocumentNotFound = errors.New("document not found")
)
