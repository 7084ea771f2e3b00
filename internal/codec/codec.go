// internal/codec/codec.go
package codec

import (
	"math"
	"math/bits"
)

// Order is the register layout policy of a device family.
// Modbus registers travel big-endian on the wire, but vendors disagree on
// how multi-register values are laid out across word pairs.
type Order struct {
	SwapBytes bool // reverse the two bytes inside each word
	SwapWords bool // low word first for 32-bit values
}

// Natural is big-endian bytes, high word first.
var Natural = Order{}

// assemble combines a register pair into a 32-bit pattern under the policy.
// Word swap happens before byte assembly.
func assemble(hi, lo uint16, o Order) uint32 {
	if o.SwapWords {
		hi, lo = lo, hi
	}
	if o.SwapBytes {
		hi = bits.ReverseBytes16(hi)
		lo = bits.ReverseBytes16(lo)
	}
	return uint32(hi)<<16 | uint32(lo)
}

// split is the inverse of assemble.
func split(v uint32, o Order) (hi, lo uint16) {
	hi = uint16(v >> 16)
	lo = uint16(v)
	if o.SwapBytes {
		hi = bits.ReverseBytes16(hi)
		lo = bits.ReverseBytes16(lo)
	}
	if o.SwapWords {
		hi, lo = lo, hi
	}
	return hi, lo
}

// Float32 decodes a register pair as an IEEE-754 single.
// This is a pure bit-layout transform: feeding it unrelated words yields a
// garbage float, never an error.
func Float32(hi, lo uint16, o Order) float32 {
	return math.Float32frombits(assemble(hi, lo, o))
}

// Uint32 decodes a register pair as an unsigned 32-bit integer.
func Uint32(hi, lo uint16, o Order) uint32 {
	return assemble(hi, lo, o)
}

// Int32 decodes a register pair as a signed 32-bit integer.
func Int32(hi, lo uint16, o Order) int32 {
	return int32(assemble(hi, lo, o))
}

// Uint16 decodes a single register.
func Uint16(w uint16, o Order) uint16 {
	if o.SwapBytes {
		return bits.ReverseBytes16(w)
	}
	return w
}

// Int16 decodes a single register as signed.
func Int16(w uint16, o Order) int16 {
	return int16(Uint16(w, o))
}

// PutFloat32 encodes a float into a register pair under the policy.
// PutFloat32 then Float32 with the same Order is bit-for-bit lossless.
func PutFloat32(v float32, o Order) (hi, lo uint16) {
	return split(math.Float32bits(v), o)
}

// PutUint32 encodes an unsigned 32-bit integer into a register pair.
func PutUint32(v uint32, o Order) (hi, lo uint16) {
	return split(v, o)
}

// PutUint16 encodes a single register.
func PutUint16(v uint16, o Order) uint16 {
	return Uint16(v, o)
}
