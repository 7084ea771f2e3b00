// internal/profile/profile.go
package profile

import (
	"fmt"
	"time"

	"github.com/tamzrod/modbus-gateway/internal/codec"
)

// ReadFunction selects the register class a profile reads.
type ReadFunction uint8

const (
	// ReadHolding reads holding registers (FC 3).
	ReadHolding ReadFunction = iota
	// ReadInput reads input registers (FC 4).
	ReadInput
)

func (f ReadFunction) String() string {
	switch f {
	case ReadHolding:
		return "holding"
	case ReadInput:
		return "input"
	}
	return fmt.Sprintf("ReadFunction(%d)", uint8(f))
}

// Preset is a named register window used to pre-fill binding configuration.
type Preset struct {
	Name         string `json:"name"`
	StartAddress uint16 `json:"start_address"`
	Count        uint16 `json:"count"`
}

// Profile describes how to read and decode one device family.
// Profiles are static and immutable after registry construction.
type Profile struct {
	Name                string
	ReadFunction        ReadFunction
	FloatPairs          bool // consecutive register pairs are 32-bit floats
	SwapBytes           bool
	SwapWords           bool
	RecommendedInterval time.Duration
	Presets             []Preset

	describe func(addr uint16) string
}

// Order is the codec layout policy of the profile.
func (p Profile) Order() codec.Order {
	return codec.Order{SwapBytes: p.SwapBytes, SwapWords: p.SwapWords}
}

// Describe maps an absolute register address to a human label.
// Addresses the profile does not know get a generic label.
func (p Profile) Describe(addr uint16) string {
	if p.describe != nil {
		if s := p.describe(addr); s != "" {
			return s
		}
	}
	return fmt.Sprintf("Register %d", addr)
}

// DefaultID is the registry index used when a configured profile id is out
// of range.
const DefaultID = 0

// Count returns the number of registered profiles.
func Count() int {
	return len(table)
}

// ByID returns the profile at the given index.
// Out-of-range indices yield the default profile and ok=false; the caller
// treats that as a configuration warning, never a failure.
func ByID(id int) (p Profile, ok bool) {
	if id < 0 || id >= len(table) {
		return table[DefaultID], false
	}
	return table[id], true
}

// Describe is a registry-level convenience for presentation code.
func Describe(id int, addr uint16) string {
	p, _ := ByID(id)
	return p.Describe(addr)
}
