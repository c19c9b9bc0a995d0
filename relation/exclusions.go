package relation

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/deemkeen/anancus/db"
	"github.com/deemkeen/anancus/domain"
	"golang.org/x/sync/singleflight"
)

// ExclusionCache memoizes per-account exclusion sets. It sits on the hot
// path of every timeline and notification read: hits are lock-cheap map
// reads, misses collapse through singleflight so a stampede of concurrent
// reads for one account does the recompute once. Entries expire after the
// TTL and are dropped synchronously when an edge touching the account
// changes.
type ExclusionCache struct {
	db  *db.DB
	ttl time.Duration

	group singleflight.Group

	mu      sync.RWMutex
	entries map[int64]cacheEntry
	gens    map[int64]uint64
}

type cacheEntry struct {
	set       *domain.ExclusionSet
	expiresAt time.Time
}

func NewExclusionCache(database *db.DB, ttl time.Duration) *ExclusionCache {
	return &ExclusionCache{
		db:      database,
		ttl:     ttl,
		entries: make(map[int64]cacheEntry),
		gens:    make(map[int64]uint64),
	}
}

// ExclusionsFor returns the viewer's exclusion set, recomputing on miss.
// A recompute failure degrades to an empty set so the read path never
// blocks on cache trouble; the degradation is logged because it is
// correctness-relevant.
func (c *ExclusionCache) ExclusionsFor(ctx context.Context, accountId int64) (*domain.ExclusionSet, error) {
	c.mu.RLock()
	entry, ok := c.entries[accountId]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.set, nil
	}

	v, err, _ := c.group.Do(cacheKey(accountId), func() (interface{}, error) {
		return c.recompute(ctx, accountId)
	})
	if err != nil {
		log.Printf("Warning: exclusion recompute for account %d degraded to empty set: %v", accountId, err)
		return domain.NewExclusionSet(), nil
	}
	return v.(*domain.ExclusionSet), nil
}

func (c *ExclusionCache) recompute(ctx context.Context, accountId int64) (*domain.ExclusionSet, error) {
	gen := c.generation(accountId)
	set, err := c.compute(ctx, accountId)
	if err != nil {
		return nil, err
	}
	c.store(accountId, gen, set)
	return set, nil
}

func (c *ExclusionCache) compute(ctx context.Context, accountId int64) (*domain.ExclusionSet, error) {
	set := domain.NewExclusionSet()

	blocking, err := c.db.BlockingIds(ctx, accountId)
	if err != nil {
		return nil, err
	}
	blockedBy, err := c.db.BlockedByIds(ctx, accountId)
	if err != nil {
		return nil, err
	}
	muting, err := c.db.MutingIds(ctx, accountId)
	if err != nil {
		return nil, err
	}
	domains, err := c.db.BlockedDomains(ctx, accountId)
	if err != nil {
		return nil, err
	}

	for _, id := range blocking {
		set.BlockedOrBlockingIds[id] = struct{}{}
	}
	for _, id := range blockedBy {
		set.BlockedOrBlockingIds[id] = struct{}{}
	}
	for _, id := range muting {
		set.MutedIds[id] = struct{}{}
	}
	for _, d := range domains {
		set.BlockedDomains[d] = struct{}{}
	}

	// Only a complete recompute may be cached; a cancelled query must not
	// leave partial state behind
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

func (c *ExclusionCache) generation(accountId int64) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[accountId]
}

// store caches the set unless an invalidation arrived while it was being
// computed. A recompute that read the edges before a mutation committed
// must not outlive that mutation's Invalidate call.
func (c *ExclusionCache) store(accountId int64, gen uint64, set *domain.ExclusionSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[accountId] != gen {
		return
	}
	c.entries[accountId] = cacheEntry{set: set, expiresAt: time.Now().Add(c.ttl)}
}

// Invalidate drops the cached sets for the given accounts and detaches any
// in-flight recompute, so a result read before the mutation committed can
// neither repopulate the cache nor be handed to callers arriving after the
// mutation returned. Graph mutations call this synchronously after the edge
// write commits.
func (c *ExclusionCache) Invalidate(accountIds ...int64) {
	c.mu.Lock()
	for _, id := range accountIds {
		delete(c.entries, id)
		c.gens[id]++
	}
	c.mu.Unlock()
	for _, id := range accountIds {
		c.group.Forget(cacheKey(id))
	}
}

func cacheKey(accountId int64) string {
	return strconv.FormatInt(accountId, 10)
}
