package retrieval

import "errors"

var (
	// ErrEmptyQuery indicates a retrieval request without query text.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrStoreRequired indicates a pipeline was built without a store.
	ErrStoreRequired = errors.New("store is required")

	// ErrPolicyRequired indicates a pipeline was built without a policy source.
	ErrPolicyRequired = errors.New("policy source is required")
)
