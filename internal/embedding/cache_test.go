package embedding

import (
	"math"
	"path/filepath"
	"testing"
)

func vectorsEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1e-6 {
			return false
		}
	}
	return true
}

func TestEncodeDecodeVector_Roundtrips(t *testing.T) {
	vec := []float32{0.1, -0.2, 3.5, 0, 1e10}
	encoded := encodeVector(vec)
	decoded, err := decodeVector(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if !vectorsEqual(vec, decoded) {
		t.Errorf("decode(encode(v)) = %v, want %v", decoded, vec)
	}
}

func TestMemoryCache_GetSetMiss(t *testing.T) {
	c := NewMemoryCache()
	if _, ok := c.Get("unseen text"); ok {
		t.Error("expected miss on empty cache")
	}

	vec := []float32{1, 2, 3}
	c.Set("hello", vec)
	got, ok := c.Get("hello")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if !vectorsEqual(got, vec) {
		t.Errorf("Get = %v, want %v", got, vec)
	}
}

func TestMemoryCache_DifferentTextDifferentKey(t *testing.T) {
	c := NewMemoryCache()
	c.Set("text a", []float32{1})
	c.Set("text b", []float32{2})

	a, _ := c.Get("text a")
	b, _ := c.Get("text b")
	if vectorsEqual(a, b) {
		t.Error("expected distinct vectors for distinct text")
	}
}

func TestBboltCache_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "embeddings.db")

	c1, err := NewBboltCache(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	vec := []float32{0.5, 0.25, 0.125}
	c1.Set("persisted chunk", vec)
	if err := c1.Close(); err != nil {
		t.Fatal(err)
	}

	c2, err := NewBboltCache(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c2.Close()

	got, ok := c2.Get("persisted chunk")
	if !ok {
		t.Fatal("expected hit after reopening bbolt cache")
	}
	if !vectorsEqual(got, vec) {
		t.Errorf("Get = %v, want %v", got, vec)
	}
}

func TestLRUCache_EvictsBeyondCapacity(t *testing.T) {
	backing := newMemoryCache()
	cache := newLRUCache(backing, 4)

	for i := 0; i < 10; i++ {
		key := string(rune('a' + i))
		cache.Set(key, key)
	}

	inMemory := 0
	for i := 0; i < 10; i++ {
		key := string(rune('a' + i))
		if cache.(*lruCache).memory.Contains(key) {
			inMemory++
		}
	}
	if inMemory > 4 {
		t.Errorf("in-memory entry count = %d, want <= 4", inMemory)
	}
}

func TestLRUCache_RecentlyUsedKeySurvivesEviction(t *testing.T) {
	backing := newMemoryCache()
	cache := newLRUCache(backing, 3)

	cache.Set("a", "1")
	cache.Set("b", "2")
	cache.Set("c", "3")

	// touching "a" makes "b" the least recently used entry.
	cache.Get("a")
	cache.Set("d", "4")

	if _, ok := cache.Get("a"); !ok {
		t.Error("expected recently touched key to survive eviction")
	}
	if cache.(*lruCache).memory.Contains("b") {
		t.Error("expected least recently used key to be evicted")
	}
}

func TestLRUCache_DeletePropagatesToBacking(t *testing.T) {
	backing := newMemoryCache()
	cache := newLRUCache(backing, 8)

	cache.Set("k", "v")
	cache.Delete("k")

	if _, ok := backing.Get("k"); ok {
		t.Error("expected Delete to remove key from backing store")
	}
	if _, ok := cache.Get("k"); ok {
		t.Error("expected Delete to remove key from cache")
	}
}

func TestLRUCache_EvictionDeletesFromBacking(t *testing.T) {
	backing := newMemoryCache()
	cache := newLRUCache(backing, 2)

	cache.Set("a", "1")
	cache.Set("b", "2")
	cache.Set("c", "3") // evicts "a", the least recently used

	if _, ok := backing.Get("a"); ok {
		t.Error("expected eviction of \"a\" to delete it from backing store")
	}
}

func TestCache_MissThenSetThenHit(t *testing.T) {
	c := NewMemoryCache()
	text := "the quick brown fox"

	if _, ok := c.Get(text); ok {
		t.Fatal("expected miss before Set")
	}

	vec := []float32{0.1, 0.2, 0.3, 0.4}
	c.Set(text, vec)

	got, ok := c.Get(text)
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if !vectorsEqual(got, vec) {
		t.Errorf("Get = %v, want %v", got, vec)
	}
}
