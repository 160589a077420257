//go:build debug

// Gomega should not be dependency in non-debug build.

package memcache

import (
	"errors"
	"log"

	"github.com/facebookgo/stackerr"
	. "github.com/onsi/gomega"
)

var _ = func() (_ struct{}) {
	RegisterFailHandler(GomegaFailHandler)
	return
}()

func GomegaFailHandler(message string, callerSkip ...int) {
	skip := callerSkip[0] + 1
	log.Fatal("FATAL: invariants are broken:", stackerr.WrapSkip(errors.New(message), skip))
}

func (c *ImageCache) checkInvariants() {
	var actualUsage uint64
	for key, e := range c.table {
		Expect(e.key).To(Equal(key), "entry key differs from its table key")
		actualUsage += estimateSize(e.value)
	}
	Expect(c.totalUsage).To(Equal(actualUsage), "usage accumulator out of sync")
	if len(c.table) == 0 {
		Expect(c.totalUsage).To(BeZero())
	}
}
