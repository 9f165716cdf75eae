package store

import (
	"context"
	"errors"
	"fmt"
)

// ShrinkFunc re-encodes a payload in a smaller form for a second write attempt.
type ShrinkFunc func() ([]byte, error)

// SetWithRecovery writes value under key. When the store reports ErrQuotaExceeded it
// deletes the related keys (only keys owned by the caller), retries once with the
// shrunk payload and gives up with ErrNotPersisted if that fails too.
// Any other write error is returned wrapped.
func SetWithRecovery(ctx context.Context, st Store, key string, value []byte, related []string, shrink ShrinkFunc) error {
	err := st.Set(ctx, key, value)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrQuotaExceeded) {
		return fmt.Errorf("persist %s: %w", key, err)
	}

	if len(related) > 0 {
		if delErr := st.Delete(ctx, related...); delErr != nil {
			return fmt.Errorf("%w: cleanup failed: %v", ErrNotPersisted, delErr)
		}
	}

	retry := value
	if shrink != nil {
		shrunk, shrinkErr := shrink()
		if shrinkErr != nil {
			return fmt.Errorf("%w: shrink failed: %v", ErrNotPersisted, shrinkErr)
		}
		retry = shrunk
	}

	if err := st.Set(ctx, key, retry); err != nil {
		return fmt.Errorf("%w: %v", ErrNotPersisted, err)
	}
	return nil
}
