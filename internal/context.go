package internal

import (
	"context"
	"time"
)

// DefaultOperationTimeout bounds a store-backed operation when none is configured.
const DefaultOperationTimeout = 10 * time.Second

// WithOperationTimeout bounds ctx by d, or by DefaultOperationTimeout when d is not positive.
func WithOperationTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultOperationTimeout
	}
	return context.WithTimeout(ctx, d)
}
