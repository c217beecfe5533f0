package cache

import (
	"context"
	"time"
)

// Cache is an abstraction layer for cache operations. A miss is a nil
// value with a nil error, never an error.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
