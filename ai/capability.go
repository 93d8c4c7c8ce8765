package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// FirstReady checks candidates in order and returns the first one whose
// Ready call succeeds. Nil candidates are skipped.
func FirstReady[T Capability](ctx context.Context, logger *slog.Logger, candidates ...T) (T, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var zero T
	var errs []error
	for _, c := range candidates {
		if any(c) == nil {
			continue
		}
		if err := c.Ready(ctx); err != nil {
			logger.Warn("capability not ready", "capability", c.Name(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
			continue
		}
		logger.Debug("capability selected", "capability", c.Name())
		return c, nil
	}
	return zero, errors.Join(append([]error{ErrNoCapabilityReady}, errs...)...)
}

// Unavailable wraps err so callers can match ErrCapabilityUnavailable.
func Unavailable(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCapabilityUnavailable, name, err)
}
