package cache

import (
	"time"
)

// CacheService represents a generic cache service
type CacheService interface {
	// Add stores a value only if the key is absent and reports whether it did
	Add(key string, value []byte, expiration time.Duration) (bool, error)
}
