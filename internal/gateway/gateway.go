// internal/gateway/gateway.go
package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tamzrod/modbus-gateway/internal/codec"
	"github.com/tamzrod/modbus-gateway/internal/config"
	"github.com/tamzrod/modbus-gateway/internal/profile"
)

// Lock acquisition bounds. Contention is rare (a handful of bindings at
// sub-second-to-minute cadence), so a missed acquire skips the cycle and the
// next tick retries naturally.
const (
	readLockTimeout    = 100 * time.Millisecond
	persistLockTimeout = 1 * time.Second
)

// ErrLockTimeout reports a contended shared resource. It is recoverable:
// the operation was abandoned for this cycle, nothing was mutated.
var ErrLockTimeout = errors.New("gateway: lock acquisition timed out")

// ErrInvalidSlot reports a slot index outside the configured bindings.
var ErrInvalidSlot = errors.New("gateway: invalid binding slot")

// Config carries everything the gateway owns at runtime.
type Config struct {
	Bindings []config.BindingConfig // must be pre-validated
	Mirror   Mirror                 // optional outward register table
	Events   EventSink              // optional advisory sink
	Logger   *slog.Logger

	// Now and RetryBackoff are injectable for tests.
	Now          func() time.Time
	RetryBackoff time.Duration
}

// Gateway owns the binding store, the register cache and the poll scheduler
// context. There is no ambient global state: everything mutable lives here,
// behind two locks. The configuration lock guards bindings and counters; the
// data lock guards the cache, the outward mirror and the downstream
// transport, which change far more often.
type Gateway struct {
	transport Reader
	mirror    Mirror
	events    EventSink
	log       *slog.Logger

	now     func() time.Time
	backoff time.Duration

	cfgMu    timedLock
	bindings []binding

	dataMu timedLock
	cache  registerCache

	requests     atomic.Uint64
	errorsTotal  atomic.Uint64
	lockTimeouts atomic.Uint64

	paused atomic.Bool
}

// New builds a gateway around a downstream transport.
// Bindings must already be validated; New clamps nothing.
func New(cfg Config, transport Reader) (*Gateway, error) {
	if transport == nil {
		return nil, errors.New("gateway: transport required")
	}
	if len(cfg.Bindings) == 0 || len(cfg.Bindings) > config.MaxBindings {
		return nil, fmt.Errorf("gateway: binding count %d outside [1,%d]", len(cfg.Bindings), config.MaxBindings)
	}

	g := &Gateway{
		transport: transport,
		mirror:    cfg.Mirror,
		events:    cfg.Events,
		log:       cfg.Logger,
		now:       cfg.Now,
		backoff:   cfg.RetryBackoff,
		cfgMu:     newTimedLock(),
		dataMu:    newTimedLock(),
		bindings:  bindingsFromConfig(cfg.Bindings),
	}
	if g.log == nil {
		g.log = slog.Default()
	}
	if g.now == nil {
		g.now = time.Now
	}
	if g.backoff == 0 {
		g.backoff = retryBackoff
	}
	return g, nil
}

// record forwards an advisory event when a sink is attached.
func (g *Gateway) record(kind, detail string) {
	if g.events != nil {
		g.events.Record(kind, detail)
	}
}

// ---- ACCESSORS (presentation contract) ----

// Bindings returns a snapshot of every slot with its counters.
func (g *Gateway) Bindings() ([]BindingStatus, error) {
	if !g.cfgMu.acquire(readLockTimeout) {
		g.lockTimeouts.Add(1)
		return nil, ErrLockTimeout
	}
	defer g.cfgMu.release()

	out := make([]BindingStatus, len(g.bindings))
	for i := range g.bindings {
		out[i] = g.bindings[i].status(i)
	}
	return out, nil
}

// ConfigBindings returns the current bindings in persisted form, for saving.
func (g *Gateway) ConfigBindings() ([]config.BindingConfig, error) {
	if !g.cfgMu.acquire(persistLockTimeout) {
		g.lockTimeouts.Add(1)
		return nil, ErrLockTimeout
	}
	defer g.cfgMu.release()

	out := make([]config.BindingConfig, len(g.bindings))
	for i := range g.bindings {
		out[i] = g.bindings[i].configView()
	}
	return out, nil
}

// UpdateBindings replaces the binding set. Input is clamped to the
// invariants, excess bindings are truncated to capacity, and the corrections
// are returned as warnings. Runtime counters start fresh and every new slot
// is due immediately.
func (g *Gateway) UpdateBindings(in []config.BindingConfig) ([]config.Warning, error) {
	corrected, warns := config.ValidateBindings(in)

	if !g.cfgMu.acquire(persistLockTimeout) {
		g.lockTimeouts.Add(1)
		return warns, ErrLockTimeout
	}
	defer g.cfgMu.release()

	g.bindings = bindingsFromConfig(corrected)

	for _, w := range warns {
		g.record("config_corrected", w.String())
	}
	return warns, nil
}

// ReadRaw returns the cached raw word at the given offset of a slot's
// window. ok is false when the offset lies beyond the binding's register
// count: those cache entries are stale and must not be surfaced.
func (g *Gateway) ReadRaw(slot int, offset uint16) (word uint16, ok bool, err error) {
	b, err := g.bindingAt(slot)
	if err != nil {
		return 0, false, err
	}
	if offset >= b.RegisterCount {
		return 0, false, nil
	}

	p, _ := profile.ByID(b.Profile)
	if !g.dataMu.acquire(readLockTimeout) {
		g.lockTimeouts.Add(1)
		return 0, false, ErrLockTimeout
	}
	defer g.dataMu.release()

	return g.cache.row(p.ReadFunction, slot)[offset], true, nil
}

// DecodedRegister is one decoded entry of a binding's register window.
type DecodedRegister struct {
	Address     uint16   `json:"address"`
	Value       float64  `json:"value"`
	Raw         []uint16 `json:"raw"`
	Description string   `json:"description"`
}

// ReadDecoded returns a decoded snapshot of a slot's register window under
// its bound profile. Float profiles walk the window two words at a time,
// everything else one word at a time.
func (g *Gateway) ReadDecoded(slot int) ([]DecodedRegister, error) {
	b, err := g.bindingAt(slot)
	if err != nil {
		return nil, err
	}
	p, _ := profile.ByID(b.Profile)

	if !g.dataMu.acquire(readLockTimeout) {
		g.lockTimeouts.Add(1)
		return nil, ErrLockTimeout
	}
	words := g.cache.snapshot(p.ReadFunction, slot, b.RegisterCount)
	g.dataMu.release()

	order := p.Order()
	var out []DecodedRegister

	if p.FloatPairs {
		for i := 0; i+1 < len(words); i += 2 {
			addr := b.StartAddress + uint16(i)
			out = append(out, DecodedRegister{
				Address:     addr,
				Value:       float64(codec.Float32(words[i], words[i+1], order)),
				Raw:         []uint16{words[i], words[i+1]},
				Description: p.Describe(addr),
			})
		}
		return out, nil
	}

	for i := 0; i < len(words); i++ {
		addr := b.StartAddress + uint16(i)
		out = append(out, DecodedRegister{
			Address:     addr,
			Value:       float64(codec.Uint16(words[i], order)),
			Raw:         []uint16{words[i]},
			Description: p.Describe(addr),
		})
	}
	return out, nil
}

// TestRead performs one ad-hoc passthrough read for diagnostics. It bypasses
// the schedule, the cache and the counters entirely; only the shared
// transport discipline applies.
func (g *Gateway) TestRead(deviceID uint8, addr, count uint16, fn profile.ReadFunction) ([]uint16, error) {
	if count < 1 || count > config.MaxRegisters {
		return nil, fmt.Errorf("gateway: test read count %d outside [1,%d]", count, config.MaxRegisters)
	}

	if !g.dataMu.acquire(readLockTimeout) {
		g.lockTimeouts.Add(1)
		return nil, ErrLockTimeout
	}
	defer g.dataMu.release()

	return g.read(fn, deviceID, addr, count)
}

// ResetStatistics zeroes every per-binding counter and the global counters.
// Cache contents and binding configuration are untouched.
func (g *Gateway) ResetStatistics() error {
	if !g.cfgMu.acquire(readLockTimeout) {
		g.lockTimeouts.Add(1)
		return ErrLockTimeout
	}
	defer g.cfgMu.release()

	for i := range g.bindings {
		g.bindings[i].SuccessCount = 0
		g.bindings[i].ErrorCount = 0
	}
	g.requests.Store(0)
	g.errorsTotal.Store(0)
	g.lockTimeouts.Store(0)
	return nil
}

// Pause parks the scheduler: ticks become no-ops until Resume. Used around
// transport-exclusive maintenance such as a firmware push, where sharing the
// bus with an in-progress update is unsafe.
func (g *Gateway) Pause() {
	g.paused.Store(true)
	g.log.Info("scheduler paused")
}

// Resume restarts scheduling after Pause.
func (g *Gateway) Resume() {
	g.paused.Store(false)
	g.log.Info("scheduler resumed")
}

// Paused reports whether the scheduler is parked.
func (g *Gateway) Paused() bool {
	return g.paused.Load()
}

// Stats are the gateway-wide counters.
type Stats struct {
	Requests     uint64 `json:"requests"`
	Errors       uint64 `json:"errors"`
	LockTimeouts uint64 `json:"lock_timeouts"`
}

// Counters returns a snapshot of the global counters.
func (g *Gateway) Counters() Stats {
	return Stats{
		Requests:     g.requests.Load(),
		Errors:       g.errorsTotal.Load(),
		LockTimeouts: g.lockTimeouts.Load(),
	}
}

// ---- internal helpers ----

// bindingAt copies one slot under the configuration lock.
func (g *Gateway) bindingAt(slot int) (binding, error) {
	if !g.cfgMu.acquire(readLockTimeout) {
		g.lockTimeouts.Add(1)
		return binding{}, ErrLockTimeout
	}
	defer g.cfgMu.release()

	if slot < 0 || slot >= len(g.bindings) {
		return binding{}, ErrInvalidSlot
	}
	return g.bindings[slot], nil
}

// read dispatches on the register class. Caller holds the data lock.
func (g *Gateway) read(fn profile.ReadFunction, deviceID uint8, addr, qty uint16) ([]uint16, error) {
	if fn == profile.ReadInput {
		return g.transport.ReadInputRegisters(deviceID, addr, qty)
	}
	return g.transport.ReadHoldingRegisters(deviceID, addr, qty)
}
