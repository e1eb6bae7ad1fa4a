// Package cache stores tokenization results so re-analyzing a case does not
// re-run pattern extraction over unchanged pages. Keys are derived from the
// window content, so an edited page never serves a stale fact set.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// WindowKey generates a cache key for one text window. The key covers the
// document id, page and full text, so any change invalidates the entry.
func WindowKey(documentID string, page int, text string) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%d\x00%s", documentID, page, text)))
	return "evidentia:v1:" + hex.EncodeToString(hash[:])
}
