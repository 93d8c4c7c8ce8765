package policy

import "errors"

var (
	// ErrInvalidPolicy indicates a policy document failed validation.
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrMissingVersion indicates a change was submitted without a version.
	ErrMissingVersion = errors.New("policy version cannot be empty")
)
