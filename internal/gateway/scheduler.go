// internal/gateway/scheduler.go
package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/tamzrod/modbus-gateway/internal/profile"
)

const (
	// tickPeriod is the scheduler clock, independent of poll intervals.
	tickPeriod = 10 * time.Millisecond

	// maxAttempts bounds the retry loop of a single polling pass.
	maxAttempts = 3

	// retryBackoff separates attempts within one polling pass. Across
	// passes the binding's own interval applies.
	retryBackoff = 100 * time.Millisecond
)

// Run drives the poll scheduler until the context is cancelled.
// One goroutine owns this loop; everything it touches is behind the
// gateway's locks, so the network-facing surfaces stay responsive while the
// bus is slow or stalled.
func (g *Gateway) Run(ctx context.Context) error {
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	g.log.Info("scheduler started", "tick", tickPeriod.String())

	for {
		select {
		case <-ctx.Done():
			g.log.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if g.paused.Load() {
				continue
			}
			g.tick()
		}
	}
}

// tick services every due binding once, in fixed slot order. A congested
// device delays later slots only by its own bounded retry loop.
func (g *Gateway) tick() {
	now := g.now()

	if !g.cfgMu.acquire(readLockTimeout) {
		g.lockTimeouts.Add(1)
		return
	}
	type duePoll struct {
		slot int
		b    binding
	}
	var due []duePoll
	for i := range g.bindings {
		if g.bindings[i].due(now) {
			due = append(due, duePoll{slot: i, b: g.bindings[i]})
		}
	}
	g.cfgMu.release()

	for _, d := range due {
		g.poll(d.slot, d.b)
	}
}

// poll performs one polling pass for a binding: a bounded retry loop against
// the shared transport, then bookkeeping. LastPoll advances on success and
// on exhausted failure alike, so a dead device backs off to its normal
// interval cadence instead of monopolizing the bus every tick.
func (g *Gateway) poll(slot int, b binding) {
	p, _ := profile.ByID(b.Profile)

	var words []uint16
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		g.requests.Add(1)

		if !g.dataMu.acquire(readLockTimeout) {
			// Contention is a system condition, not a device failure:
			// no error counter, no LastPoll advance. The binding stays
			// due and retries on the next tick.
			g.lockTimeouts.Add(1)
			g.record("lock_timeout", fmt.Sprintf("slot %d: transport busy", slot))
			return
		}
		words, err = g.read(p.ReadFunction, b.ID, b.StartAddress, b.RegisterCount)
		if err == nil {
			g.publish(p.ReadFunction, slot, b.StartAddress, words)
			g.dataMu.release()
			break
		}
		g.dataMu.release()

		if attempt < maxAttempts {
			time.Sleep(g.backoff)
		}
	}

	g.finishPoll(slot, b, err)
}

// publish copies a freshly read window into the cache row and mirrors it
// into the outward register table. Caller holds the data lock, so a
// concurrent reader sees the prior snapshot or this one, never a mix.
func (g *Gateway) publish(fn profile.ReadFunction, slot int, baseAddr uint16, words []uint16) {
	g.cache.store(fn, slot, words)

	if g.mirror == nil {
		return
	}
	if fn == profile.ReadInput {
		g.mirror.SetInputRegisters(baseAddr, words)
	} else {
		g.mirror.SetHoldingRegisters(baseAddr, words)
	}
}

// finishPoll updates counters and the interval gate for a completed pass.
func (g *Gateway) finishPoll(slot int, b binding, err error) {
	if !g.cfgMu.acquire(readLockTimeout) {
		g.lockTimeouts.Add(1)
		return
	}
	defer g.cfgMu.release()

	// The binding set may have been replaced mid-pass; drop stale bookkeeping.
	if slot >= len(g.bindings) || g.bindings[slot].ID != b.ID {
		return
	}
	cur := &g.bindings[slot]
	cur.LastPoll = g.now()

	if err == nil {
		cur.SuccessCount++
		if cur.failing {
			cur.failing = false
			g.record("poll_recovered", fmt.Sprintf("slot %d device %d", slot, b.ID))
			g.log.Info("device recovered", "slot", slot, "device", b.ID)
		}
		return
	}

	cur.ErrorCount++
	g.errorsTotal.Add(1)
	if !cur.failing {
		cur.failing = true
		g.record("poll_error", fmt.Sprintf("slot %d device %d: %v", slot, b.ID, err))
	}
	g.log.Warn("poll failed", "slot", slot, "device", b.ID, "error", err)
}
