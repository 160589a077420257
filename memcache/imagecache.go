package memcache

import (
	"image"
	"sort"
	"time"

	"github.com/brilliance-boy/nimbus/log"
)

// Assume 32 bit color.
const bytesPerPixel = 4

// Scaled is implemented by values whose reported dimensions are in scaled
// units, e.g. points on a 2x display.
type Scaled interface {
	Scale() float64
}

// ImageCache is a Cache that tracks the total estimated memory usage of its
// values and sheds least recently used entries under memory pressure.
//
// ImageCache acts as its own Policy, so a Config.Policy passed to
// NewImageCache is ignored.
type ImageCache struct {
	*Cache

	// MaxTotalMemoryUsage is the most memory the cache should ever use.
	// Advisory only: it is not enforced on Set. 0 means unbounded.
	MaxTotalMemoryUsage uint64

	// MaxTotalLowMemoryUsage is the ceiling ReduceMemoryUsage drives usage
	// under. 0 means unbounded, with one sharp edge: the sweep evicts while
	// usage >= ceiling, and usage >= 0 always holds, so a zero ceiling with
	// live entries evicts everything. That matches the behavior this cache
	// was ported from.
	MaxTotalLowMemoryUsage uint64

	totalUsage uint64
}

func NewImageCache(l log.Logger, conf Config) *ImageCache {
	c := &ImageCache{}
	conf.Policy = c
	c.Cache = New(l, conf)
	return c
}

var _ Policy = (*ImageCache)(nil)

func (c *ImageCache) WillSet(key string, value, previous interface{}) {
	c.totalUsage -= estimateSize(previous)
	c.totalUsage += estimateSize(value)
}

func (c *ImageCache) WillRemove(key string, value interface{}) {
	c.totalUsage -= estimateSize(value)
}

func (c *ImageCache) Set(key string, value interface{}) {
	defer c.checkInvariants()
	c.Cache.Set(key, value)
}

func (c *ImageCache) SetExpiring(key string, value interface{}, deadline time.Time) {
	defer c.checkInvariants()
	c.Cache.SetExpiring(key, value, deadline)
}

func (c *ImageCache) Get(key string) (value interface{}, ok bool) {
	defer c.checkInvariants()
	return c.Cache.Get(key)
}

func (c *ImageCache) Delete(key string) (deleted bool) {
	defer c.checkInvariants()
	return c.Cache.Delete(key)
}

// Purge drops all entries and resets the usage accumulator, which Purge
// bypasses by not firing per-entry callbacks.
func (c *ImageCache) Purge() {
	defer c.checkInvariants()
	c.Cache.Purge()
	c.totalUsage = 0
}

// ReduceMemoryUsage first drops expired entries, then evicts least recently
// used entries until usage falls under MaxTotalLowMemoryUsage or the cache
// is empty.
//
// Every sweep sorts all live entries by access time. O(n log n) per call,
// deliberately: eviction is rare and driven by memory pressure, and the sort
// keeps Get free of list maintenance. Entries with equal access times are
// evicted in a stable but arbitrary order.
func (c *ImageCache) ReduceMemoryUsage() {
	defer c.checkInvariants()
	c.Cache.ReduceMemoryUsage()

	live := make([]*entry, 0, len(c.table))
	for _, e := range c.table {
		live = append(live, e)
	}
	sort.SliceStable(live, func(i, j int) bool {
		return live[i].lastUsedAt.Before(live[j].lastUsedAt)
	})
	for _, e := range live {
		if c.totalUsage < c.MaxTotalLowMemoryUsage {
			break
		}
		c.evict(e)
	}
}

// TotalMemoryUsage returns the estimated memory used by all live entries.
func (c *ImageCache) TotalMemoryUsage() uint64 {
	return c.totalUsage
}

// estimateSize approximates the decoded footprint of a value: pixel bounds
// times 4 bytes per pixel, times the scale factor for Scaled values. It is
// an approximation, not an exact byte count. Values that report no bounds,
// nil included, contribute 0 rather than failing.
func estimateSize(value interface{}) uint64 {
	b, ok := value.(interface{ Bounds() image.Rectangle })
	if !ok {
		return 0
	}
	r := b.Bounds()
	size := uint64(r.Dx()) * uint64(r.Dy()) * bytesPerPixel
	if s, ok := value.(Scaled); ok && s.Scale() > 0 {
		size = uint64(float64(size) * s.Scale())
	}
	return size
}
