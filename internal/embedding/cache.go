// Package embedding's cache.go bounds the cost of re-embedding identical
// chunk text across repeated indexing runs. It is a cross-session cache
// keyed by chunk content hash, storing the encoded embedding vector,
// persisted to bbolt and bounded in memory by an LRU layer sized for the
// working set of one reconciliation pass.
package embedding

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	bolt "go.etcd.io/bbolt"

	"privacy-llm-gateway/internal/logger"
)

// persistentCache is the cross-session embedding cache interface. All
// implementations must be safe for concurrent use.
type persistentCache interface {
	Get(key string) (value string, ok bool)
	Set(key, value string)
	Delete(key string)
	Close() error
}

// --- memoryCache ---

type memoryCache struct {
	mu    sync.RWMutex
	store map[string]string
}

func newMemoryCache() persistentCache {
	return &memoryCache{store: make(map[string]string)}
}

func (c *memoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	v, ok := c.store[key]
	c.mu.RUnlock()
	return v, ok
}

func (c *memoryCache) Set(key, value string) {
	c.mu.Lock()
	c.store[key] = value
	c.mu.Unlock()
}

func (c *memoryCache) Delete(key string) {
	c.mu.Lock()
	delete(c.store, key)
	c.mu.Unlock()
}

func (c *memoryCache) Close() error { return nil }

// --- bboltCache ---

const bboltBucket = "embedding_cache"

type bboltCache struct {
	db  *bolt.DB
	log *logger.Logger
}

func newBboltCache(path string, log *logger.Logger) (persistentCache, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bbolt cache %q: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bboltBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create bbolt bucket: %w", err)
	}

	if log != nil {
		log.Infof("cache_open", "persistent embedding cache opened at %s", path)
	}
	return &bboltCache{db: db, log: log}, nil
}

func (c *bboltCache) Get(key string) (string, bool) {
	var value string
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bboltBucket))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			value = string(v)
		}
		return nil
	})
	if err != nil {
		if c.log != nil {
			c.log.Errorf("cache_get", "bbolt Get error: %v", err)
		}
		return "", false
	}
	return value, value != ""
}

func (c *bboltCache) Set(key, value string) {
	if err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bboltBucket))
		if b == nil {
			return fmt.Errorf("bucket %q not found", bboltBucket)
		}
		return b.Put([]byte(key), []byte(value))
	}); err != nil && c.log != nil {
		c.log.Errorf("cache_set", "bbolt Set error: %v", err)
	}
}

func (c *bboltCache) Delete(key string) {
	if err := c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bboltBucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	}); err != nil && c.log != nil {
		c.log.Errorf("cache_delete", "bbolt Delete error: %v", err)
	}
}

func (c *bboltCache) Close() error {
	return c.db.Close()
}

// --- bounded in-memory layer ---

// lruCache wraps backing with a fixed-size in-memory LRU layer: reads check
// memory first and pull from backing on miss, writes go to both, and an
// eviction from memory deletes the corresponding backing row, so the bbolt
// file never grows past what the in-memory layer has ever admitted.
type lruCache struct {
	mu      sync.Mutex
	memory  *lru.Cache[string, string]
	backing persistentCache
}

// newLRUCache wraps backing with an in-memory LRU bounded to capacity
// entries (clamped to a minimum of 2).
func newLRUCache(backing persistentCache, capacity int) persistentCache {
	if capacity < 2 {
		capacity = 2
	}
	c := &lruCache{backing: backing}
	// hashicorp/golang-lru's NewWithEvict only fails on a non-positive size,
	// which capacity is clamped against above.
	memory, _ := lru.NewWithEvict[string, string](capacity, func(key, _ string) {
		backing.Delete(key)
	})
	c.memory = memory
	return c
}

func (c *lruCache) Get(key string) (string, bool) {
	c.mu.Lock()
	if v, ok := c.memory.Get(key); ok {
		c.mu.Unlock()
		return v, true
	}
	c.mu.Unlock()

	value, ok := c.backing.Get(key)
	if !ok {
		return "", false
	}
	c.mu.Lock()
	c.memory.Add(key, value)
	c.mu.Unlock()
	return value, true
}

func (c *lruCache) Set(key, value string) {
	c.mu.Lock()
	c.memory.Add(key, value)
	c.mu.Unlock()
	c.backing.Set(key, value)
}

func (c *lruCache) Delete(key string) {
	c.mu.Lock()
	c.memory.Remove(key)
	c.mu.Unlock()
	c.backing.Delete(key)
}

func (c *lruCache) Close() error {
	return c.backing.Close()
}

// --- public Cache wrapper ---

// cacheCapacity bounds the in-memory LRU layer; an eviction from that layer
// also deletes the entry's backing bbolt row.
const cacheCapacity = 10000

// Cache maps chunk text to its embedding vector, hashing text to a stable
// key and encoding the vector for storage in the string-valued backing cache.
type Cache struct {
	backing persistentCache
}

// NewMemoryCache returns a Cache with no persistent backing, suitable for
// tests or when caching is disabled.
func NewMemoryCache() *Cache {
	return &Cache{backing: newLRUCache(newMemoryCache(), cacheCapacity)}
}

// NewBboltCache returns a Cache backed by a bbolt database at path.
func NewBboltCache(path string, log *logger.Logger) (*Cache, error) {
	backing, err := newBboltCache(path, log)
	if err != nil {
		return nil, err
	}
	return &Cache{backing: newLRUCache(backing, cacheCapacity)}, nil
}

// Get returns the cached embedding for text, if present.
func (c *Cache) Get(text string) ([]float32, bool) {
	encoded, ok := c.backing.Get(contentKey(text))
	if !ok {
		return nil, false
	}
	vec, err := decodeVector(encoded)
	if err != nil {
		return nil, false
	}
	return vec, true
}

// Set stores vec as the embedding for text.
func (c *Cache) Set(text string, vec []float32) {
	c.backing.Set(contentKey(text), encodeVector(vec))
}

// Close releases resources held by the backing store.
func (c *Cache) Close() error {
	return c.backing.Close()
}

func contentKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func encodeVector(vec []float32) string {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func decodeVector(encoded string) ([]float32, error) {
	buf, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode cached vector: %w", err)
	}
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("cached vector has invalid byte length %d", len(buf))
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec, nil
}
