package memcache

import (
	"time"

	"github.com/rcrowley/go-metrics"

	"github.com/brilliance-boy/nimbus/log"
)

// Config configures a Cache.
type Config struct {
	// Capacity is an initial table size hint. It only avoids early table
	// growth and has no semantic effect.
	Capacity int
	// Now is the time source used for access times and expiry checks.
	// Defaults to time.Now.
	Now func() time.Time
	// Policy observes mutations. Defaults to NopPolicy.
	Policy Policy
	// Metrics, when non-nil, receives hit/miss/store/delete/expire/evict
	// counters under "memcache.*" names.
	Metrics metrics.Registry
}

// Cache maps string keys to opaque values. Entries may carry an expiration
// deadline; expired entries are never returned and are dropped on access.
type Cache struct {
	log    log.Logger
	table  map[string]*entry
	now    func() time.Time
	policy Policy
	events events
}

func New(l log.Logger, conf Config) *Cache {
	c := &Cache{
		log:    l,
		table:  make(map[string]*entry, conf.Capacity),
		now:    conf.Now,
		policy: conf.Policy,
		events: newEvents(conf.Metrics),
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.policy == nil {
		c.policy = NopPolicy{}
	}
	return c
}

// Set stores value under key with no expiration deadline.
func (c *Cache) Set(key string, value interface{}) {
	c.SetExpiring(key, value, time.Time{})
}

// SetExpiring stores value under key until deadline. A zero deadline means
// the entry never expires.
//
// A deadline that is already past acts as a delete: any existing entry under
// key is removed and nothing is stored. The entry would be dropped on its
// next access anyway, so it is dropped eagerly.
func (c *Cache) SetExpiring(key string, value interface{}, deadline time.Time) {
	now := c.now()
	if !deadline.IsZero() && !deadline.After(now) {
		c.log.Warnf("Set of already expired entry %s. Skip add.", key)
		c.Delete(key)
		return
	}
	prev, overwrite := c.table[key]
	var prevValue interface{}
	if overwrite {
		c.log.Debugf("Overwrite entry %s.", key)
		prevValue = prev.value
	} else {
		c.log.Debugf("Add entry %s.", key)
	}
	c.policy.WillSet(key, value, prevValue)
	c.events.stores.Inc(1)
	if overwrite {
		prev.value = value
		prev.expiresAt = deadline
		prev.lastUsedAt = now
		return
	}
	c.table[key] = &entry{
		key:        key,
		value:      value,
		expiresAt:  deadline,
		lastUsedAt: now,
	}
}

// Get returns the value stored under key. A hit counts as an access: the
// entry becomes the most recently used. An expired entry is removed and
// reported as a miss.
func (c *Cache) Get(key string) (value interface{}, ok bool) {
	e, ok := c.table[key]
	if !ok {
		c.events.misses.Inc(1)
		return nil, false
	}
	now := c.now()
	if e.expired(now) {
		c.expire(e)
		c.events.misses.Inc(1)
		return nil, false
	}
	e.lastUsedAt = now
	c.events.hits.Inc(1)
	return e.value, true
}

// Delete removes the entry under key, if any.
func (c *Cache) Delete(key string) (deleted bool) {
	e, ok := c.table[key]
	if !ok {
		return false
	}
	c.log.Debugf("Remove entry %s.", key)
	c.policy.WillRemove(key, e.value)
	delete(c.table, key)
	c.events.deletes.Inc(1)
	return true
}

// Purge drops all entries unconditionally, expired or not. The policy is NOT
// consulted per entry; a policy keeping aggregate accounting must reset its
// own accumulators.
func (c *Cache) Purge() {
	c.log.Debug("Purge.")
	c.table = make(map[string]*entry)
}

// ReduceMemoryUsage drops every expired entry through the normal remove
// path. Meant to be called on a low-memory signal.
//
// The table is snapshotted before removal so the policy may mutate the cache
// safely from its callbacks.
func (c *Cache) ReduceMemoryUsage() {
	now := c.now()
	var expired []*entry
	for _, e := range c.table {
		if e.expired(now) {
			expired = append(expired, e)
		}
	}
	for _, e := range expired {
		if cur, ok := c.table[e.key]; ok && cur == e {
			c.expire(e)
		}
	}
}

// Len returns the number of entries in the table, including expired entries
// that have not been collected yet.
func (c *Cache) Len() int {
	return len(c.table)
}

func (c *Cache) expire(e *entry) {
	c.log.Debugf("Entry %s expired.", e.key)
	c.policy.WillRemove(e.key, e.value)
	delete(c.table, e.key)
	c.events.expirations.Inc(1)
}

// evict removes a live entry to free memory.
func (c *Cache) evict(e *entry) {
	c.log.Debugf("Entry %s evicted.", e.key)
	c.policy.WillRemove(e.key, e.value)
	delete(c.table, e.key)
	c.events.evictions.Inc(1)
}
