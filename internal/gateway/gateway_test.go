// internal/gateway/gateway_test.go
package gateway

import (
	"testing"
	"time"

	"github.com/tamzrod/modbus-gateway/internal/config"
	"github.com/tamzrod/modbus-gateway/internal/profile"
)

func TestReadDecoded_FloatPairs_EndToEnd(t *testing.T) {
	// 0x4348 0x0000 is IEEE-754 200.0 in natural order.
	tr := &fakeTransport{words: []uint16{0x4348, 0x0000, 0x4348, 0x0000}}
	clock := newFakeClock()
	g := buildGateway(t, tr, clock, testBinding(1, 4, 1000, 2)) // generic float profile

	g.tick()

	regs, err := g.ReadDecoded(0)
	if err != nil {
		t.Fatalf("ReadDecoded err=%v", err)
	}
	if len(regs) != 2 {
		t.Fatalf("expected 2 decoded entries, got %d", len(regs))
	}
	if regs[0].Address != 0 || regs[0].Value != 200.0 {
		t.Fatalf("entry 0: addr=%d value=%v", regs[0].Address, regs[0].Value)
	}
	if regs[1].Address != 2 || regs[1].Value != 200.0 {
		t.Fatalf("entry 1: addr=%d value=%v", regs[1].Address, regs[1].Value)
	}
	if len(regs[0].Raw) != 2 || regs[0].Raw[0] != 0x4348 || regs[0].Raw[1] != 0x0000 {
		t.Fatalf("entry 0 raw words: %v", regs[0].Raw)
	}
	if regs[0].Description != "Register 0" {
		t.Fatalf("entry 0 description: %q", regs[0].Description)
	}
}

func TestReadDecoded_SingleWordWalk(t *testing.T) {
	tr := &fakeTransport{words: []uint16{10, 20, 30}}
	clock := newFakeClock()
	b := testBinding(1, 3, 1000, 0)
	b.StartAddress = 50
	g := buildGateway(t, tr, clock, b)

	g.tick()

	regs, err := g.ReadDecoded(0)
	if err != nil {
		t.Fatalf("ReadDecoded err=%v", err)
	}
	if len(regs) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(regs))
	}
	for i, want := range []float64{10, 20, 30} {
		if regs[i].Value != want || regs[i].Address != uint16(50+i) {
			t.Fatalf("entry %d: addr=%d value=%v", i, regs[i].Address, regs[i].Value)
		}
	}
}

func TestReadRaw_OffsetBeyondWindow(t *testing.T) {
	tr := &fakeTransport{words: []uint16{1, 2, 3, 4}}
	clock := newFakeClock()
	g := buildGateway(t, tr, clock, testBinding(1, 4, 1000, 0))

	g.tick()

	if _, ok, _ := g.ReadRaw(0, 3); !ok {
		t.Fatalf("offset 3 of a 4-register window must be valid")
	}
	if _, ok, _ := g.ReadRaw(0, 4); ok {
		t.Fatalf("offset at register count is stale and must not be surfaced")
	}
	if _, _, err := g.ReadRaw(7, 0); err != ErrInvalidSlot {
		t.Fatalf("expected ErrInvalidSlot, got %v", err)
	}
}

func TestTestRead_BypassesCacheAndCounters(t *testing.T) {
	tr := &fakeTransport{words: []uint16{0xBEEF, 0xCAFE}}
	clock := newFakeClock()
	g := buildGateway(t, tr, clock, testBinding(1, 4, 1000, 0))

	words, err := g.TestRead(9, 200, 2, profile.ReadHolding)
	if err != nil {
		t.Fatalf("TestRead err=%v", err)
	}
	if len(words) != 2 || words[0] != 0xBEEF {
		t.Fatalf("unexpected words %v", words)
	}

	// The cache row stays zeroed and nothing was counted.
	if w, ok, _ := g.ReadRaw(0, 0); !ok || w != 0 {
		t.Fatalf("test read leaked into the cache: %d", w)
	}
	if c := g.Counters(); c.Requests != 0 || c.Errors != 0 {
		t.Fatalf("test read touched counters: %+v", c)
	}
	st, _ := g.Bindings()
	if st[0].SuccessCount != 0 {
		t.Fatalf("test read touched binding counters")
	}
}

func TestTestRead_CountBounds(t *testing.T) {
	tr := &fakeTransport{}
	clock := newFakeClock()
	g := buildGateway(t, tr, clock, testBinding(1, 4, 1000, 0))

	if _, err := g.TestRead(1, 0, 0, profile.ReadHolding); err == nil {
		t.Fatalf("count 0 must be rejected")
	}
	if _, err := g.TestRead(1, 0, config.MaxRegisters+1, profile.ReadHolding); err == nil {
		t.Fatalf("count beyond %d must be rejected", config.MaxRegisters)
	}
}

func TestResetStatistics(t *testing.T) {
	tr := &fakeTransport{words: []uint16{5, 5}}
	clock := newFakeClock()
	g := buildGateway(t, tr, clock, testBinding(1, 2, 1000, 0))

	for i := 0; i < 3; i++ {
		g.tick()
		clock.advance(time.Second)
	}

	st, _ := g.Bindings()
	if st[0].SuccessCount == 0 {
		t.Fatalf("expected some successes before reset")
	}

	if err := g.ResetStatistics(); err != nil {
		t.Fatalf("ResetStatistics err=%v", err)
	}

	st, _ = g.Bindings()
	if st[0].SuccessCount != 0 || st[0].ErrorCount != 0 {
		t.Fatalf("counters not zeroed: %+v", st[0])
	}
	if c := g.Counters(); c.Requests != 0 || c.Errors != 0 || c.LockTimeouts != 0 {
		t.Fatalf("global counters not zeroed: %+v", c)
	}

	// Cache and configuration stay untouched.
	if w, ok, _ := g.ReadRaw(0, 0); !ok || w != 5 {
		t.Fatalf("reset disturbed the cache: %d", w)
	}
	if st[0].RegisterCount != 2 || st[0].PollIntervalMs != 1000 {
		t.Fatalf("reset disturbed the binding configuration: %+v", st[0])
	}
}

func TestUpdateBindings_CapacityTruncation(t *testing.T) {
	tr := &fakeTransport{}
	clock := newFakeClock()
	g := buildGateway(t, tr, clock, testBinding(1, 4, 1000, 0))

	in := []config.BindingConfig{
		testBinding(1, 10, 1000, 0),
		testBinding(2, 10, 1000, 0),
		testBinding(3, 10, 1000, 0),
		testBinding(4, 10, 1000, 0),
		testBinding(5, 10, 1000, 0),
	}
	warns, err := g.UpdateBindings(in)
	if err != nil {
		t.Fatalf("UpdateBindings err=%v", err)
	}
	if len(warns) == 0 {
		t.Fatalf("expected a capacity warning")
	}

	st, _ := g.Bindings()
	if len(st) != config.MaxBindings {
		t.Fatalf("expected %d bindings, got %d", config.MaxBindings, len(st))
	}
	for i := 0; i < config.MaxBindings; i++ {
		if st[i].ID != uint8(i+1) {
			t.Fatalf("slot %d: expected id %d, got %d", i, i+1, st[i].ID)
		}
	}
}

func TestUpdateBindings_ClampsAndRestartsSchedule(t *testing.T) {
	tr := &fakeTransport{}
	clock := newFakeClock()
	g := buildGateway(t, tr, clock, testBinding(1, 4, 1000, 0))
	g.tick()

	warns, err := g.UpdateBindings([]config.BindingConfig{{ID: 999, RegisterCount: 5, PollIntervalMs: 500}})
	if err != nil {
		t.Fatalf("UpdateBindings err=%v", err)
	}
	if len(warns) == 0 {
		t.Fatalf("expected clamp warnings")
	}

	st, _ := g.Bindings()
	if st[0].ID != config.DefaultSlaveID {
		t.Fatalf("id not clamped: %d", st[0].ID)
	}
	if !st[0].LastPoll.IsZero() {
		t.Fatalf("replaced binding must be due immediately")
	}
}

func TestConfigBindings_RoundTrip(t *testing.T) {
	tr := &fakeTransport{}
	clock := newFakeClock()
	b := testBinding(7, 42, 2500, 4)
	b.StartAddress = 12
	g := buildGateway(t, tr, clock, b)

	out, err := g.ConfigBindings()
	if err != nil {
		t.Fatalf("ConfigBindings err=%v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(out))
	}
	got := out[0]
	if got.ID != 7 || got.StartAddress != 12 || got.RegisterCount != 42 ||
		got.PollIntervalMs != 2500 || got.Profile != 4 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Enabled == nil || !*got.Enabled {
		t.Fatalf("enabled flag lost")
	}
}

func TestPauseResume(t *testing.T) {
	tr := &fakeTransport{}
	clock := newFakeClock()
	g := buildGateway(t, tr, clock, testBinding(1, 4, 1000, 0))

	if g.Paused() {
		t.Fatalf("gateway must start unpaused")
	}
	g.Pause()
	if !g.Paused() {
		t.Fatalf("Pause() did not park the scheduler")
	}
	g.Resume()
	if g.Paused() {
		t.Fatalf("Resume() did not clear the pause")
	}
}

func TestNew_RejectsEmptyAndOversized(t *testing.T) {
	tr := &fakeTransport{}
	if _, err := New(Config{}, tr); err == nil {
		t.Fatalf("empty binding set must be rejected (validation synthesizes one first)")
	}
	too := make([]config.BindingConfig, config.MaxBindings+1)
	for i := range too {
		too[i] = testBinding(i+1, 4, 1000, 0)
	}
	if _, err := New(Config{Bindings: too}, tr); err == nil {
		t.Fatalf("over-capacity binding set must be rejected")
	}
	if _, err := New(Config{Bindings: []config.BindingConfig{testBinding(1, 4, 1000, 0)}}, nil); err == nil {
		t.Fatalf("nil transport must be rejected")
	}
}
