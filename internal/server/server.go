// internal/server/server.go
package server

import (
	"fmt"

	"github.com/tbrandon/mbserver"
)

// Server is the outward-facing Modbus TCP slave. Network clients read the
// register map the poll scheduler keeps in sync with the cache; the
// scheduler is the sole writer of that map.
type Server struct {
	mb *mbserver.Server
}

// New allocates the outward register table without listening yet.
func New() *Server {
	return &Server{mb: mbserver.NewServer()}
}

// ListenTCP starts serving the register table on the given address.
func (s *Server) ListenTCP(addr string) error {
	if err := s.mb.ListenTCP(addr); err != nil {
		return fmt.Errorf("outward server listen %s: %w", addr, err)
	}
	return nil
}

// Close stops listening and drops client connections.
func (s *Server) Close() {
	s.mb.Close()
}

// ---- gateway.Mirror interface ----
//
// mbserver's connection goroutines read the register slices without
// synchronization, so an outward client polling mid-update can see a torn
// window. The authoritative snapshot path is the cache behind the data
// lock; the outward table is eventually consistent between polls.

// SetHoldingRegisters copies a polled window into the outward holding
// register map at its absolute base address.
func (s *Server) SetHoldingRegisters(addr uint16, words []uint16) {
	copyWindow(s.mb.HoldingRegisters, addr, words)
}

// SetInputRegisters copies a polled window into the outward input register
// map at its absolute base address.
func (s *Server) SetInputRegisters(addr uint16, words []uint16) {
	copyWindow(s.mb.InputRegisters, addr, words)
}

// copyWindow writes words at base, clipping at the end of the 16-bit
// address space rather than wrapping.
func copyWindow(table []uint16, base uint16, words []uint16) {
	if int(base) >= len(table) {
		return
	}
	copy(table[base:], words)
}
