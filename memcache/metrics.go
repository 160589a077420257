package memcache

import "github.com/rcrowley/go-metrics"

// events counts cache lifecycle events. With a nil registry every counter is
// a metrics.NilCounter, so the counting costs nothing on the hot path.
type events struct {
	hits        metrics.Counter
	misses      metrics.Counter
	stores      metrics.Counter
	deletes     metrics.Counter
	expirations metrics.Counter
	evictions   metrics.Counter
}

func newEvents(r metrics.Registry) events {
	if r == nil {
		nop := metrics.NilCounter{}
		return events{nop, nop, nop, nop, nop, nop}
	}
	return events{
		hits:        metrics.NewRegisteredCounter("memcache.hits", r),
		misses:      metrics.NewRegisteredCounter("memcache.misses", r),
		stores:      metrics.NewRegisteredCounter("memcache.stores", r),
		deletes:     metrics.NewRegisteredCounter("memcache.deletes", r),
		expirations: metrics.NewRegisteredCounter("memcache.expirations", r),
		evictions:   metrics.NewRegisteredCounter("memcache.evictions", r),
	}
}
