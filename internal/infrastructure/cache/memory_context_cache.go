package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/viccon/sturdyc"
)

const (
	memoryShards             = 16
	memoryEvictionPercentage = 10
)

// MemoryContextCache keeps resolved request contexts in a sharded in-process
// TTL cache. It does not share state across instances: a switch or logout
// on one instance leaves other instances serving the old entry until TTL.
type MemoryContextCache struct {
	client *sturdyc.Client[identity.RequestContext]

	mu       sync.Mutex
	index    map[uuid.UUID]map[string]struct{}
	capacity int
	// sweepAt is the index size that triggers dropping expired keys
	sweepAt int
}

// NewMemoryContextCache creates an in-memory cache holding at most capacity
// entries, each living for ttl.
func NewMemoryContextCache(capacity int, ttl time.Duration) *MemoryContextCache {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = DefaultContextTTL
	}
	return &MemoryContextCache{
		client: sturdyc.New[identity.RequestContext](capacity, memoryShards, ttl, memoryEvictionPercentage),
		index:    make(map[uuid.UUID]map[string]struct{}),
		capacity: capacity,
		sweepAt:  capacity,
	}
}

// Get returns a copy of the cached context
func (c *MemoryContextCache) Get(_ context.Context, key identity.ContextKey) (*identity.RequestContext, bool) {
	k := key.String()
	rc, ok := c.client.Get(k)
	if !ok {
		c.forget(key.UserID, k)
		return nil, false
	}
	rc.Roles = append([]string(nil), rc.Roles...)
	return &rc, true
}

// Set stores rc under key and records the key in the user's index
func (c *MemoryContextCache) Set(_ context.Context, key identity.ContextKey, rc *identity.RequestContext) {
	if rc == nil {
		return
	}
	k := key.String()
	snapshot := *rc
	snapshot.Roles = append([]string(nil), rc.Roles...)
	c.client.Set(k, snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()
	keys, ok := c.index[key.UserID]
	if !ok {
		keys = make(map[string]struct{})
		c.index[key.UserID] = keys
	}
	keys[k] = struct{}{}
	if len(c.index) > c.sweepAt {
		c.sweepLocked()
	}
}

// Invalidate drops every entry of the user
func (c *MemoryContextCache) Invalidate(_ context.Context, userID uuid.UUID) {
	c.mu.Lock()
	keys := c.index[userID]
	delete(c.index, userID)
	c.mu.Unlock()

	for k := range keys {
		c.client.Delete(k)
	}
}

// forget drops k from the user's index after the entry expired or was evicted
func (c *MemoryContextCache) forget(userID uuid.UUID, k string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys, ok := c.index[userID]
	if !ok {
		return
	}
	// a concurrent Set may have stored it again
	if _, live := c.client.Get(k); live {
		return
	}
	delete(keys, k)
	if len(keys) == 0 {
		delete(c.index, userID)
	}
}

// sweepLocked drops index keys sturdyc no longer holds. The next sweep runs
// once the index doubles again, so Set stays amortized O(1).
func (c *MemoryContextCache) sweepLocked() {
	for userID, keys := range c.index {
		for k := range keys {
			if _, ok := c.client.Get(k); !ok {
				delete(keys, k)
			}
		}
		if len(keys) == 0 {
			delete(c.index, userID)
		}
	}
	c.sweepAt = max(2*len(c.index), c.capacity)
}

// Backend returns the backend name
func (c *MemoryContextCache) Backend() string { return BackendMemory }

// Close is a no-op
func (c *MemoryContextCache) Close() error { return nil }
