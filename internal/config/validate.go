// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/tamzrod/modbus-gateway/internal/profile"
)

// Warning records one fail-safe correction made while validating.
// Warnings are advisory: the returned configuration is always fully valid
// and the system runs with it.
type Warning struct {
	Context string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Context, w.Message)
}

// Validate returns a fully-corrected copy of the configuration plus the
// corrections it made. It never rejects: the gateway must stay operable with
// degraded, defaulted configuration rather than refuse to boot.
//
// Validate is idempotent: validating its own output yields no warnings.
func Validate(cfg Config) (Config, []Warning) {
	var warns []Warning

	out := cfg
	out.Gateway.Bus, warns = validateBus(cfg.Gateway.Bus, warns)

	if out.Gateway.Hostname == "" {
		out.Gateway.Hostname = DefaultHostname
	}
	if out.Gateway.Server.Listen == "" {
		out.Gateway.Server.Listen = DefaultServerListen
	}
	if out.Gateway.API.Listen == "" {
		out.Gateway.API.Listen = DefaultAPIListen
	}
	if out.Gateway.EventLog.Path == "" {
		out.Gateway.EventLog.Path = DefaultEventLogPath
	}

	bindings, bindingWarns := ValidateBindings(cfg.Gateway.Bindings)
	out.Gateway.Bindings = bindings

	return out, append(warns, bindingWarns...)
}

func validateBus(bus BusConfig, warns []Warning) (BusConfig, []Warning) {
	if bus.Endpoint == "" && bus.Device == "" {
		bus.Device = DefaultBusDevice
	}
	if bus.Baud <= 0 {
		bus.Baud = DefaultBusBaud
	}
	switch bus.Parity {
	case "N", "E", "O":
	case "":
		bus.Parity = DefaultBusParity
	default:
		warns = append(warns, Warning{
			Context: "bus",
			Message: fmt.Sprintf("parity %q is not one of N/E/O, using %q", bus.Parity, DefaultBusParity),
		})
		bus.Parity = DefaultBusParity
	}
	if bus.StopBits != 1 && bus.StopBits != 2 {
		bus.StopBits = DefaultBusStopBits
	}
	if bus.TimeoutMs <= 0 {
		bus.TimeoutMs = DefaultBusTimeoutMs
	}
	return bus, warns
}

// ValidateBindings clamps every binding into its invariants and enforces
// capacity. A zero-binding input synthesizes the default binding so the
// scheduler always has at least one unit of work.
func ValidateBindings(in []BindingConfig) ([]BindingConfig, []Warning) {
	var warns []Warning

	if len(in) > MaxBindings {
		warns = append(warns, Warning{
			Context: "bindings",
			Message: fmt.Sprintf("%d bindings exceed capacity %d, keeping the first %d", len(in), MaxBindings, MaxBindings),
		})
		in = in[:MaxBindings]
	}

	out := make([]BindingConfig, 0, MaxBindings)
	for i, b := range in {
		out = append(out, validateBinding(i, b, &warns))
	}

	if len(out) == 0 {
		warns = append(warns, Warning{
			Context: "bindings",
			Message: "no bindings configured, adding the default binding",
		})
		out = append(out, DefaultBinding())
	}

	return out, warns
}

// DefaultBinding is the binding synthesized on first boot.
func DefaultBinding() BindingConfig {
	enabled := true
	return BindingConfig{
		ID:             DefaultSlaveID,
		Enabled:        &enabled,
		StartAddress:   DefaultStartAddress,
		RegisterCount:  DefaultRegisterCount,
		PollIntervalMs: DefaultPollIntervalMs,
		Profile:        DefaultProfile,
	}
}

func validateBinding(slot int, b BindingConfig, warns *[]Warning) BindingConfig {
	ctx := fmt.Sprintf("binding %d", slot)
	warnf := func(format string, args ...interface{}) {
		*warns = append(*warns, Warning{Context: ctx, Message: fmt.Sprintf(format, args...)})
	}

	if b.ID < MinSlaveID || b.ID > MaxSlaveID {
		warnf("device address %d outside [%d,%d], using %d", b.ID, MinSlaveID, MaxSlaveID, DefaultSlaveID)
		b.ID = DefaultSlaveID
	}
	if b.Enabled == nil {
		enabled := true
		b.Enabled = &enabled
	}
	if b.StartAddress < 0 || b.StartAddress > 0xFFFF {
		warnf("start address %d outside [0,65535], using %d", b.StartAddress, DefaultStartAddress)
		b.StartAddress = DefaultStartAddress
	}
	if b.RegisterCount < 1 || b.RegisterCount > MaxRegisters {
		warnf("register count %d outside [1,%d], using %d", b.RegisterCount, MaxRegisters, DefaultRegisterCount)
		b.RegisterCount = DefaultRegisterCount
	}
	if b.StartAddress+b.RegisterCount > 0x10000 {
		warnf("window %d+%d crosses the address space, using start %d", b.StartAddress, b.RegisterCount, DefaultStartAddress)
		b.StartAddress = DefaultStartAddress
	}
	if b.PollIntervalMs < MinPollIntervalMs || b.PollIntervalMs > MaxPollIntervalMs {
		warnf("poll interval %dms outside [%d,%d], using %d", b.PollIntervalMs, MinPollIntervalMs, MaxPollIntervalMs, DefaultPollIntervalMs)
		b.PollIntervalMs = DefaultPollIntervalMs
	}
	if _, ok := profile.ByID(b.Profile); !ok {
		warnf("profile %d is not registered, using %d", b.Profile, profile.DefaultID)
		b.Profile = profile.DefaultID
	}

	return b
}
