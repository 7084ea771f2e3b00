// internal/gateway/cache.go
package gateway

import (
	"time"

	"github.com/tamzrod/modbus-gateway/internal/config"
	"github.com/tamzrod/modbus-gateway/internal/profile"
)

// registerCache holds the latest successfully read raw words per slot.
// One row per binding slot, one array per register class. Rows are
// overwritten wholesale on a successful poll, never partially. All access
// happens under the gateway's data lock.
type registerCache struct {
	holding [config.MaxBindings][config.MaxRegisters]uint16
	input   [config.MaxBindings][config.MaxRegisters]uint16
}

// row selects the cache row for a register class.
func (c *registerCache) row(fn profile.ReadFunction, slot int) *[config.MaxRegisters]uint16 {
	if fn == profile.ReadInput {
		return &c.input[slot]
	}
	return &c.holding[slot]
}

// store overwrites a slot's row with a freshly read window.
func (c *registerCache) store(fn profile.ReadFunction, slot int, words []uint16) {
	row := c.row(fn, slot)
	copy(row[:], words)
}

// snapshot copies the first `count` words of a slot's row.
func (c *registerCache) snapshot(fn profile.ReadFunction, slot int, count uint16) []uint16 {
	row := c.row(fn, slot)
	out := make([]uint16, count)
	copy(out, row[:count])
	return out
}

// timedLock is a mutual-exclusion lock with bounded acquisition.
// A failed acquire means the cycle is abandoned, never blocked on.
type timedLock chan struct{}

func newTimedLock() timedLock {
	return make(chan struct{}, 1)
}

// acquire returns false if the lock could not be taken within `timeout`.
func (l timedLock) acquire(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case l <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

func (l timedLock) release() {
	<-l
}
