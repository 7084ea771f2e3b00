// internal/gateway/transport.go
package gateway

// Reader abstracts the downstream bus master.
// One bus carries several devices, so the device address travels with every
// call. The gateway depends on geometry only: it sees words or failure,
// framing and CRC live beneath this interface.
type Reader interface {
	ReadHoldingRegisters(deviceID uint8, addr, qty uint16) ([]uint16, error) // FC 3
	ReadInputRegisters(deviceID uint8, addr, qty uint16) ([]uint16, error)   // FC 4
}

// Mirror is the outward register table the scheduler republishes into.
// The scheduler is its sole writer.
type Mirror interface {
	SetHoldingRegisters(addr uint16, words []uint16)
	SetInputRegisters(addr uint16, words []uint16)
}

// EventSink receives advisory records (poll failures, recoveries, lock
// timeouts). Implementations must not block.
type EventSink interface {
	Record(kind, detail string)
}
