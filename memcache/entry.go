package memcache

import (
	"fmt"
	"time"
)

// entry is a stored value with its bookkeeping. The cache table is the sole
// owner of entries; values are shared with callers that hold a Get result.
type entry struct {
	key        string
	value      interface{}
	expiresAt  time.Time // Zero means never expires.
	lastUsedAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(now)
}

func (e *entry) GoString() string {
	return fmt.Sprintf("{key:%q, value:%v, expiresAt:%v, lastUsedAt:%v}",
		e.key, e.value, e.expiresAt, e.lastUsedAt)
}

var _ fmt.GoStringer = (*entry)(nil)
