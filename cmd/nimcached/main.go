// Command nimcached demonstrates the bounded image cache: it fills the cache
// past the configured low-memory ceiling, triggers a reduce sweep and dumps
// event counters.
package main

import (
	"fmt"
	"image"
	"os"

	"github.com/rcrowley/go-metrics"

	"github.com/brilliance-boy/nimbus/internal/tag"
	"github.com/brilliance-boy/nimbus/log"
	"github.com/brilliance-boy/nimbus/memcache"
)

func main() {
	conf := config()
	l := log.NewLogger(conf.LogLevel, conf.LogDestination)
	l.Debugf("Config: %#v", conf)
	if tag.Debug {
		l.Warn("Using debug build. It has more runtime checks and large performance overhead.")
	}

	registry := metrics.NewRegistry()
	c := memcache.NewImageCache(l, memcache.Config{
		Capacity: conf.Capacity,
		Metrics:  registry,
	})
	c.MaxTotalMemoryUsage = conf.MaxMemoryUsage
	c.MaxTotalLowMemoryUsage = conf.LowMemoryUsage

	const side = 256 // 256x256 RGBA, 256 KiB per image.
	var stored int
	for c.TotalMemoryUsage() <= conf.LowMemoryUsage {
		key := fmt.Sprintf("image_%d", stored)
		c.Set(key, image.NewRGBA(image.Rect(0, 0, side, side)))
		stored++
	}
	l.Infof("Stored %v images, usage %v of %v ceiling.",
		stored, c.TotalMemoryUsage(), conf.LowMemoryUsage)

	// Touch the first image so it survives the sweep.
	if _, ok := c.Get("image_0"); !ok {
		l.Fatal("image_0 not found")
	}

	c.ReduceMemoryUsage()
	l.Infof("After reduce: %v images, usage %v.", c.Len(), c.TotalMemoryUsage())
	if _, ok := c.Get("image_0"); !ok && c.Len() > 0 {
		l.Error("Most recently used image evicted before older ones.")
	}

	metrics.WriteOnce(registry, os.Stdout)
}
