//go:build !debug

package memcache

func (c *ImageCache) checkInvariants() {}
