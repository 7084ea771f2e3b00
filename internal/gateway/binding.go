// internal/gateway/binding.go
package gateway

import (
	"time"

	"github.com/tamzrod/modbus-gateway/internal/config"
	"github.com/tamzrod/modbus-gateway/internal/profile"
)

// binding is one downstream device slot with its runtime counters.
// Owned by the gateway's configuration lock.
type binding struct {
	ID            uint8
	Enabled       bool
	StartAddress  uint16
	RegisterCount uint16
	PollInterval  time.Duration
	Profile       int

	// LastPoll advances on success and on exhausted failure, never on a
	// lock timeout. Zero means never polled: due immediately.
	LastPoll     time.Time
	SuccessCount uint64
	ErrorCount   uint64

	failing bool // last completed poll exhausted its retries
}

// due reports whether the binding should be polled at `now`.
func (b *binding) due(now time.Time) bool {
	if !b.Enabled {
		return false
	}
	if b.LastPoll.IsZero() {
		return true
	}
	return now.Sub(b.LastPoll) >= b.PollInterval
}

// bindingsFromConfig builds runtime slots from validated configuration.
// Callers must validate first; this conversion does not clamp.
func bindingsFromConfig(in []config.BindingConfig) []binding {
	out := make([]binding, 0, len(in))
	for _, b := range in {
		enabled := b.Enabled == nil || *b.Enabled
		out = append(out, binding{
			ID:            uint8(b.ID),
			Enabled:       enabled,
			StartAddress:  uint16(b.StartAddress),
			RegisterCount: uint16(b.RegisterCount),
			PollInterval:  time.Duration(b.PollIntervalMs) * time.Millisecond,
			Profile:       b.Profile,
		})
	}
	return out
}

// configView converts a runtime slot back to its persisted form.
func (b *binding) configView() config.BindingConfig {
	enabled := b.Enabled
	return config.BindingConfig{
		ID:             int(b.ID),
		Enabled:        &enabled,
		StartAddress:   int(b.StartAddress),
		RegisterCount:  int(b.RegisterCount),
		PollIntervalMs: int(b.PollInterval / time.Millisecond),
		Profile:        b.Profile,
	}
}

// BindingStatus is the read-only view exposed to presentation code.
type BindingStatus struct {
	Slot           int       `json:"slot"`
	ID             uint8     `json:"id"`
	Enabled        bool      `json:"enabled"`
	StartAddress   uint16    `json:"start_address"`
	RegisterCount  uint16    `json:"register_count"`
	PollIntervalMs int       `json:"poll_interval_ms"`
	Profile        int       `json:"profile"`
	ProfileName    string    `json:"profile_name"`
	LastPoll       time.Time `json:"last_poll"`
	SuccessCount   uint64    `json:"success_count"`
	ErrorCount     uint64    `json:"error_count"`
}

func (b *binding) status(slot int) BindingStatus {
	p, _ := profile.ByID(b.Profile)
	return BindingStatus{
		Slot:           slot,
		ID:             b.ID,
		Enabled:        b.Enabled,
		StartAddress:   b.StartAddress,
		RegisterCount:  b.RegisterCount,
		PollIntervalMs: int(b.PollInterval / time.Millisecond),
		Profile:        b.Profile,
		ProfileName:    p.Name,
		LastPoll:       b.LastPoll,
		SuccessCount:   b.SuccessCount,
		ErrorCount:     b.ErrorCount,
	}
}
