package memcache

import (
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/brilliance-boy/nimbus/log"
	"github.com/brilliance-boy/nimbus/testutil"
)

var _ = Describe("Cache", func() {
	var (
		clock *testutil.Clock
		conf  Config
		c     *Cache
	)
	BeforeEach(func() {
		resetTestKeys()
		clock = testutil.NewClock(time.Unix(1000, 0))
		conf = Config{Now: clock.Now}
	})
	JustBeforeEach(func() {
		c = New(log.NewLogger(log.DebugLevel, GinkgoWriter), conf)
	})

	ExpectAbsent := func(key string) {
		value, ok := c.Get(key)
		ExpectWithOffset(1, ok).To(BeFalse())
		ExpectWithOffset(1, value).To(BeNil())
	}

	It("init", func() {
		Expect(c.Len()).To(BeZero())
	})

	Context("get", func() {
		It("returns absent for keys never stored", func() {
			ExpectAbsent(testKey())
		})

		It("returns a stored value immediately and repeatedly", func() {
			key := testKey()
			c.Set(key, "value")
			for i := 0; i < 3; i++ {
				value, ok := c.Get(key)
				Expect(ok).To(BeTrue())
				Expect(value).To(Equal("value"))
			}
			Expect(c.Len()).To(Equal(1))
		})

		It("accepts a nil value", func() {
			key := testKey()
			c.Set(key, nil)
			value, ok := c.Get(key)
			Expect(ok).To(BeTrue())
			Expect(value).To(BeNil())
		})
	})

	Context("set with deadline", func() {
		It("keeps the entry until the deadline passes, then drops it on access", func() {
			key := testKey()
			c.SetExpiring(key, "value", clock.Now().Add(time.Minute))

			clock.Advance(59 * time.Second)
			value, ok := c.Get(key)
			Expect(ok).To(BeTrue())
			Expect(value).To(Equal("value"))

			clock.Advance(time.Second)
			ExpectAbsent(key)
			Expect(c.Len()).To(BeZero(), "expired get removes the entry")
		})

		It("treats a deadline equal to now as already expired", func() {
			key := testKey()
			c.SetExpiring(key, "value", clock.Now())
			ExpectAbsent(key)
			Expect(c.Len()).To(BeZero())
		})

		It("acts as a delete when the deadline is already past", func() {
			key := testKey()
			c.Set(key, "old")
			c.SetExpiring(key, "new", clock.Now().Add(-time.Second))
			ExpectAbsent(key)
			Expect(c.Len()).To(BeZero())
		})
	})

	Context("overwrite", func() {
		It("replaces the value", func() {
			key := testKey()
			c.Set(key, "old")
			c.Set(key, "new")
			value, _ := c.Get(key)
			Expect(value).To(Equal("new"))
			Expect(c.Len()).To(Equal(1))
		})

		It("replaces the deadline, clearing it when none is given", func() {
			key := testKey()
			c.SetExpiring(key, "value", clock.Now().Add(time.Minute))
			c.Set(key, "value")
			clock.Advance(time.Hour)
			_, ok := c.Get(key)
			Expect(ok).To(BeTrue())
		})

		It("can shorten the deadline", func() {
			key := testKey()
			c.SetExpiring(key, "value", clock.Now().Add(time.Hour))
			c.SetExpiring(key, "value", clock.Now().Add(time.Second))
			clock.Advance(2 * time.Second)
			ExpectAbsent(key)
		})
	})

	Context("delete", func() {
		It("not found", func() {
			Expect(c.Delete(testKey())).To(BeFalse())
		})

		It("found", func() {
			key := testKey()
			c.Set(key, "value")
			Expect(c.Delete(key)).To(BeTrue())
			ExpectAbsent(key)
			Expect(c.Len()).To(BeZero())
		})
	})

	Context("purge", func() {
		It("empties the cache regardless of expiry states", func() {
			c.Set(testKey(), "forever")
			c.SetExpiring(testKey(), "later", clock.Now().Add(time.Minute))
			c.Purge()
			Expect(c.Len()).To(BeZero())
		})
	})

	Context("reduce memory usage", func() {
		It("drops expired entries only", func() {
			live := testKey()
			dead := testKey()
			c.Set(live, "live")
			c.SetExpiring(dead, "dead", clock.Now().Add(time.Second))
			clock.Advance(time.Minute)

			c.ReduceMemoryUsage()
			Expect(c.Len()).To(Equal(1))
			Expect(c.keys()).To(ConsistOf(live))
		})

		It("is a no-op on an empty cache", func() {
			c.ReduceMemoryUsage()
			Expect(c.Len()).To(BeZero())
		})
	})

	Context("fuzzed store and fetch", func() {
		It("returns the last stored value for every key", func() {
			expected := map[string]string{}
			for i := 0; i < 100; i++ {
				var key, value string
				testutil.Fuzz(&key)
				testutil.Fuzz(&value)
				c.Set(key, value)
				expected[key] = value
			}
			for key, value := range expected {
				got, ok := c.Get(key)
				Expect(ok).To(BeTrue())
				Expect(got).To(Equal(value))
			}
			Expect(c.Len()).To(Equal(len(expected)))
		})
	})

	Context("policy callbacks", func() {
		var p *MockPolicy
		BeforeEach(func() {
			p = &MockPolicy{}
			conf.Policy = p
		})
		AfterEach(func() {
			p.AssertExpectations(GinkgoT())
		})

		It("fires WillSet with nil previous on first store", func() {
			key := testKey()
			p.On("WillSet", key, "value", nil).Once()
			c.Set(key, "value")
		})

		It("fires exactly one WillSet with the prior value on overwrite", func() {
			key := testKey()
			p.On("WillSet", key, "old", nil).Once()
			c.Set(key, "old")
			p.On("WillSet", key, "new", "old").Once()
			c.Set(key, "new")
		})

		It("fires WillRemove on delete", func() {
			key := testKey()
			p.On("WillSet", key, "value", nil).Once()
			c.Set(key, "value")
			p.On("WillRemove", key, "value").Once()
			c.Delete(key)
		})

		It("fires WillRemove, not WillSet, when storing with a past deadline", func() {
			key := testKey()
			p.On("WillSet", key, "old", nil).Once()
			c.Set(key, "old")
			p.On("WillRemove", key, "old").Once()
			c.SetExpiring(key, "new", clock.Now().Add(-time.Second))
		})

		It("fires WillRemove on lazy expiry", func() {
			key := testKey()
			p.On("WillSet", key, "value", nil).Once()
			c.SetExpiring(key, "value", clock.Now().Add(time.Second))
			clock.Advance(time.Minute)
			p.On("WillRemove", key, "value").Once()
			ExpectAbsent(key)
		})

		It("fires WillRemove for each entry dropped by the expired sweep", func() {
			k0, k1 := testKey(), testKey()
			p.On("WillSet", k0, "v0", nil).Once()
			p.On("WillSet", k1, "v1", nil).Once()
			c.SetExpiring(k0, "v0", clock.Now().Add(time.Second))
			c.Set(k1, "v1")
			clock.Advance(time.Minute)

			p.On("WillRemove", k0, "v0").Once()
			c.ReduceMemoryUsage()
			Expect(c.Len()).To(Equal(1))
		})

		It("does not fire per-entry callbacks on purge", func() {
			key := testKey()
			p.On("WillSet", key, "value", nil).Once()
			c.Set(key, "value")
			c.Purge()
		})
	})
})
