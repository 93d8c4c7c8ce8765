package chronorag

import (
	"context"
	"fmt"
)

// Purge drops every chunk and document, clears the cache and forgets
// policy idempotency keys. The empty store is persisted immediately.
func (a *App) Purge(ctx context.Context) (map[string]string, error) {
	if err := a.store.Clear(ctx); err != nil {
		return nil, fmt.Errorf("purge store: %w", err)
	}
	if err := a.cache.Clear(ctx); err != nil {
		return nil, fmt.Errorf("purge cache: %w", err)
	}
	a.policies.ResetIdempotency()
	a.logger.Info("purged store and cache")
	return map[string]string{"status": "ok", "pvdb": "cleared", "cache": "cleared"}, nil
}
