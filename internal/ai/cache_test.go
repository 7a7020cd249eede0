package ai

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"lifeos/internal/store"
)

func newTestCache() *ResponseCache {
	return NewResponseCache(store.NewMemoryStore(time.Hour))
}

func TestResponseCache_RoundTrip(t *testing.T) {
	cache := newTestCache()
	ctx := context.Background()
	input := map[string]string{"content": "treino de manhã", "type": "habit"}

	if _, hit := cache.Get(ctx, "user-1", "tags", input); hit {
		t.Fatal("Expected a miss on empty cache")
	}

	cache.Set(ctx, "user-1", "tags", input, json.RawMessage(`["fitness","habit"]`))

	raw, hit := cache.Get(ctx, "user-1", "tags", input)
	if !hit {
		t.Fatal("Expected a hit after set")
	}
	if string(raw) != `["fitness","habit"]` {
		t.Errorf("Expected stored payload, got %s", raw)
	}
}

func TestResponseCache_KeyIsDeterministic(t *testing.T) {
	cache := newTestCache()
	ctx := context.Background()

	// equal inputs constructed separately must address the same entry
	cache.Set(ctx, "user-1", "swot", map[string]string{"ctx": "q3 goals"}, json.RawMessage(`{"ok":1}`))
	if _, hit := cache.Get(ctx, "user-1", "swot", map[string]string{"ctx": "q3 goals"}); !hit {
		t.Error("Identical input should map to the same cache entry")
	}
	if _, hit := cache.Get(ctx, "user-1", "swot", map[string]string{"ctx": "q4 goals"}); hit {
		t.Error("Different input must not share an entry")
	}
}

func TestResponseCache_UserScoped(t *testing.T) {
	cache := newTestCache()
	ctx := context.Background()
	input := "same input"

	cache.Set(ctx, "user-1", "daily-summary", input, json.RawMessage(`["a"]`))

	if _, hit := cache.Get(ctx, "user-2", "daily-summary", input); hit {
		t.Error("Cache entries must never cross users")
	}
}

func TestResponseCache_InvalidateSingle(t *testing.T) {
	cache := newTestCache()
	ctx := context.Background()

	cache.Set(ctx, "user-1", "tags", "a", json.RawMessage(`["x"]`))
	cache.Set(ctx, "user-1", "tags", "b", json.RawMessage(`["y"]`))

	if err := cache.Invalidate(ctx, "user-1", "tags", "a"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	if _, hit := cache.Get(ctx, "user-1", "tags", "a"); hit {
		t.Error("Invalidated entry should be gone")
	}
	if _, hit := cache.Get(ctx, "user-1", "tags", "b"); !hit {
		t.Error("Sibling entry should survive a single invalidation")
	}
}

func TestResponseCache_InvalidateFeature(t *testing.T) {
	cache := newTestCache()
	ctx := context.Background()

	cache.Set(ctx, "user-1", "tags", "a", json.RawMessage(`["x"]`))
	cache.Set(ctx, "user-1", "tags", "b", json.RawMessage(`["y"]`))
	cache.Set(ctx, "user-1", "swot", "a", json.RawMessage(`{"s":[]}`))

	if err := cache.Invalidate(ctx, "user-1", "tags", nil); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	if _, hit := cache.Get(ctx, "user-1", "tags", "a"); hit {
		t.Error("Feature-wide invalidation should drop every tags entry")
	}
	if _, hit := cache.Get(ctx, "user-1", "tags", "b"); hit {
		t.Error("Feature-wide invalidation should drop every tags entry")
	}
	if _, hit := cache.Get(ctx, "user-1", "swot", "a"); !hit {
		t.Error("Other features must be untouched")
	}
}

func TestResponseCache_LastWriterWins(t *testing.T) {
	cache := newTestCache()
	ctx := context.Background()

	cache.Set(ctx, "user-1", "tags", "a", json.RawMessage(`["old"]`))
	cache.Set(ctx, "user-1", "tags", "a", json.RawMessage(`["new"]`))

	raw, hit := cache.Get(ctx, "user-1", "tags", "a")
	if !hit {
		t.Fatal("Expected a hit")
	}
	if string(raw) != `["new"]` {
		t.Errorf("Expected the newer payload, got %s", raw)
	}
}
