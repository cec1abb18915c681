package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "auth:revoked:"

// Revoker stores revoked token ids with a TTL matching the token's
// remaining lifetime, so the set never outgrows live tokens.
// Key format: auth:revoked:<jti>
type Revoker struct {
	client redis.Cmdable
}

func NewRevoker(client redis.Cmdable) *Revoker {
	return &Revoker{client: client}
}

func (r *Revoker) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	// go-redis reads a negative expiry as KEEPTTL and zero as no expiry
	if ttl < time.Second {
		ttl = time.Second
	}
	if err := r.client.Set(ctx, keyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *Revoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}
