package repository

import (
	"context"
	"sync/atomic"
	"time"

	"voyago/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverCache prefers the primary (Redis) cache and falls back to the
// in-memory one while the primary is down, probing it again after a
// cooldown.
type FailoverCache struct {
	primary   domain.Cache
	fallback  domain.Cache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

const failoverRecoveryInterval = time.Minute

func NewFailoverCache(primary, fallback domain.Cache, logger *zerolog.Logger) *FailoverCache {
	return &FailoverCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (c *FailoverCache) markDown(err error) {
	c.logger.Error().Err(err).Msg("primary cache failed, falling back to memory")
	c.isDown.Store(true)
	c.lastCheck.Store(time.Now().UnixNano())
}

func (c *FailoverCache) shouldProbe() bool {
	last := time.Unix(0, c.lastCheck.Load())
	return time.Since(last) > failoverRecoveryInterval
}

func (c *FailoverCache) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.isDown.Load() {
		val, err := c.primary.Get(ctx, key)
		if err == nil {
			return val, nil
		}
		c.markDown(err)
	} else if c.shouldProbe() {
		val, err := c.primary.Get(ctx, key)
		if err == nil {
			c.isDown.Store(false)
			return val, nil
		}
		c.lastCheck.Store(time.Now().UnixNano())
	}

	return c.fallback.Get(ctx, key)
}

func (c *FailoverCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !c.isDown.Load() {
		if err := c.primary.Set(ctx, key, value, ttl); err == nil {
			return nil
		} else {
			c.markDown(err)
		}
	}
	return c.fallback.Set(ctx, key, value, ttl)
}

func (c *FailoverCache) Delete(ctx context.Context, keys ...string) error {
	// Invalidation goes to both layers so a recovered primary never
	// serves rows deleted while it was down.
	var primaryErr error
	if !c.isDown.Load() {
		if primaryErr = c.primary.Delete(ctx, keys...); primaryErr != nil {
			c.markDown(primaryErr)
		}
	}
	return c.fallback.Delete(ctx, keys...)
}
