// internal/codec/codec_test.go
package codec

import (
	"math"
	"testing"
)

var policies = []Order{
	{SwapBytes: false, SwapWords: false},
	{SwapBytes: true, SwapWords: false},
	{SwapBytes: false, SwapWords: true},
	{SwapBytes: true, SwapWords: true},
}

func TestFloat32_RoundTrip_AllPolicies(t *testing.T) {
	values := []float32{0, 1, -1, 200.0, 0.1, -273.15, 3.4028235e38, 1.4e-45, float32(math.Inf(1))}

	for _, o := range policies {
		for _, v := range values {
			hi, lo := PutFloat32(v, o)
			got := Float32(hi, lo, o)
			if math.Float32bits(got) != math.Float32bits(v) {
				t.Fatalf("policy %+v: round trip of %v: got %v (bits %08x want %08x)",
					o, v, got, math.Float32bits(got), math.Float32bits(v))
			}
		}
	}
}

func TestFloat32_KnownBits(t *testing.T) {
	// 200.0 is 0x43480000.
	if got := Float32(0x4348, 0x0000, Natural); got != 200.0 {
		t.Fatalf("natural order: got %v, want 200.0", got)
	}
	if got := Float32(0x0000, 0x4348, Order{SwapWords: true}); got != 200.0 {
		t.Fatalf("swapped words: got %v, want 200.0", got)
	}
	if got := Float32(0x4843, 0x0000, Order{SwapBytes: true}); got != 200.0 {
		t.Fatalf("swapped bytes: got %v, want 200.0", got)
	}
	if got := Float32(0x0000, 0x4843, Order{SwapBytes: true, SwapWords: true}); got != 200.0 {
		t.Fatalf("swapped both: got %v, want 200.0", got)
	}
}

func TestUint32_RoundTrip_AllPolicies(t *testing.T) {
	values := []uint32{0, 1, 0xDEADBEEF, 0xFFFFFFFF, 1 << 31}

	for _, o := range policies {
		for _, v := range values {
			hi, lo := PutUint32(v, o)
			if got := Uint32(hi, lo, o); got != v {
				t.Fatalf("policy %+v: round trip of %08x: got %08x", o, v, got)
			}
		}
	}
}

func TestInt32_Sign(t *testing.T) {
	hi, lo := PutUint32(0xFFFFFFFE, Natural)
	if got := Int32(hi, lo, Natural); got != -2 {
		t.Fatalf("got %d, want -2", got)
	}
}

func TestUint16_ByteSwap(t *testing.T) {
	if got := Uint16(0x1234, Natural); got != 0x1234 {
		t.Fatalf("natural: got %04x", got)
	}
	if got := Uint16(0x1234, Order{SwapBytes: true}); got != 0x3412 {
		t.Fatalf("swapped: got %04x", got)
	}
}

func TestInt16_Sign(t *testing.T) {
	if got := Int16(0xFFFF, Natural); got != -1 {
		t.Fatalf("got %d, want -1", got)
	}
}
