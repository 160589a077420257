package memcache

// Policy observes cache mutations. Callbacks fire before the table mutation
// commits, so an implementation can adjust aggregate accounting against the
// pre-mutation state.
//
// WillSet fires on every create or overwrite with the previous value, or nil
// when the key was absent. WillRemove fires on every removal path (explicit
// delete, lazy expiry, the expired sweep, eviction) except Purge.
type Policy interface {
	WillSet(key string, value, previous interface{})
	WillRemove(key string, value interface{})
}

// NopPolicy is the default Policy. It ignores all events.
type NopPolicy struct{}

var _ Policy = NopPolicy{}

func (NopPolicy) WillSet(key string, value, previous interface{}) {}
func (NopPolicy) WillRemove(key string, value interface{})        {}
