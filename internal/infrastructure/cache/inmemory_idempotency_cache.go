package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// entry is a cached voucher id with its expiration
type entry struct {
	voucherID uuid.UUID
	expiresAt time.Time
}

// InMemoryIdempotencyCache implements IdempotencyCache with a process-local map.
// It suits single-instance deployments and tests.
type InMemoryIdempotencyCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyCache creates the cache and starts its expiry sweeper
func NewInMemoryIdempotencyCache() *InMemoryIdempotencyCache {
	return newInMemoryIdempotencyCache(5 * time.Minute)
}

func newInMemoryIdempotencyCache(sweepInterval time.Duration) *InMemoryIdempotencyCache {
	c := &InMemoryIdempotencyCache{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}
	c.wg.Add(1)
	go c.cleanupLoop(sweepInterval)
	return c
}

// Get returns the voucher id cached for the key
func (c *InMemoryIdempotencyCache) Get(ctx context.Context, tenantID uuid.UUID, key string) (uuid.UUID, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[shared.IdempotencyCacheKey(tenantID, key)]
	if !ok || time.Now().After(e.expiresAt) {
		return uuid.Nil, false, nil
	}
	return e.voucherID, true, nil
}

// Put caches the voucher id for the key until ttl elapses
func (c *InMemoryIdempotencyCache) Put(ctx context.Context, tenantID uuid.UUID, key string, voucherID uuid.UUID, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[shared.IdempotencyCacheKey(tenantID, key)] = entry{
		voucherID: voucherID,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Close stops the sweeper. Safe to call multiple times.
func (c *InMemoryIdempotencyCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryIdempotencyCache) cleanupLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemoryIdempotencyCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// Size returns the number of entries, expired ones included until swept
func (c *InMemoryIdempotencyCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ shared.IdempotencyCache = (*InMemoryIdempotencyCache)(nil)
