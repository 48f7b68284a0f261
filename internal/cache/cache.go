package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey derives a stable key from a label; case and surrounding
// whitespace do not produce distinct entries.
func CacheKey(label string) string {
	normalized := strings.ToLower(strings.TrimSpace(label))
	hash := sha256.Sum256([]byte(normalized))
	return "wildlens-v1-" + hex.EncodeToString(hash[:])
}

// GetJSON loads a cached JSON value into v. A corrupt entry counts as a miss.
func GetJSON(c Cache, key string, v any) bool {
	data, found := c.Get(key)
	if !found {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.Delete(key)
		return false
	}
	return true
}

// SetJSON stores v as JSON
func SetJSON(c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.Set(key, data, ttl)
}
