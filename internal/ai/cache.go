package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"

	"lifeos/internal/store"
)

// ResponseCache is the content-addressed cache over AI outputs. Keys are
// derived from a stable hash of the serialized {feature, input} pair,
// scoped by user, so identical inputs always map to the same entry and
// different users can never collide.
type ResponseCache struct {
	store store.KeyedStore
}

func NewResponseCache(s store.KeyedStore) *ResponseCache {
	return &ResponseCache{store: s}
}

// hashInput produces the stable content address for an input value.
func hashInput(feature string, input any) string {
	payload, err := json.Marshal(struct {
		Feature string `json:"feature"`
		Input   any    `json:"input"`
	}{feature, input})
	if err != nil {
		// Unmarshalable input degenerates to its Go representation;
		// still deterministic for identical values.
		payload = []byte(fmt.Sprintf("%s|%v", feature, input))
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func cacheKey(userID, feature string, input any) string {
	return fmt.Sprintf("aicache:%s:%s:%s", userID, feature, hashInput(feature, input))
}

func cachePrefix(userID, feature string) string {
	return fmt.Sprintf("aicache:%s:%s:", userID, feature)
}

// Get returns the cached output for (user, feature, input), or (nil,
// false) on a miss. Storage errors are a miss, never surfaced: a broken
// cache must not break the request.
func (c *ResponseCache) Get(ctx context.Context, userID, feature string, input any) (json.RawMessage, bool) {
	val, err := c.store.Get(ctx, cacheKey(userID, feature, input))
	if err != nil {
		if err != store.ErrNotFound {
			log.Printf("⚠️ [AI-CACHE] get failed for %s/%s: %v", userID, feature, err)
		}
		return nil, false
	}
	return json.RawMessage(val), true
}

// Set upserts the output for (user, feature, input). Last writer wins;
// failures are logged and swallowed so caching stays off the critical
// path of returning an already-obtained answer.
func (c *ResponseCache) Set(ctx context.Context, userID, feature string, input, output any) {
	payload, err := json.Marshal(output)
	if err != nil {
		log.Printf("⚠️ [AI-CACHE] failed to serialize output for %s/%s: %v", userID, feature, err)
		return
	}
	if err := c.store.Set(ctx, cacheKey(userID, feature, input), payload); err != nil {
		log.Printf("⚠️ [AI-CACHE] set failed for %s/%s: %v", userID, feature, err)
	}
}

// Invalidate removes one entry when input is non-nil, otherwise every
// entry for the (user, feature) pair. Called whenever the domain data a
// feature's context depends on changes.
func (c *ResponseCache) Invalidate(ctx context.Context, userID, feature string, input any) error {
	if input != nil {
		return c.store.Delete(ctx, cacheKey(userID, feature, input))
	}
	return c.store.DeletePrefix(ctx, cachePrefix(userID, feature))
}
