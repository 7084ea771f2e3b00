// internal/gateway/modbus/client.go
package modbus

import (
	"errors"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/modbus-gateway/internal/config"
)

// settableHandler is the part of the goburrow handlers this adapter needs:
// connection lifecycle plus per-call slave addressing.
type settableHandler interface {
	Connect() error
	Close() error
	SetSlave(id byte)
}

type rtuHandler struct{ *modbus.RTUClientHandler }

func (h rtuHandler) SetSlave(id byte) { h.SlaveId = id }

type tcpHandler struct{ *modbus.TCPClientHandler }

func (h tcpHandler) SetSlave(id byte) { h.SlaveId = id }

// Client is the downstream bus master. One bus carries several devices, so
// it mutates the handler's SlaveId per call and serializes requests.
type Client struct {
	mu      sync.Mutex
	handler settableHandler
	client  modbus.Client
}

// New opens the downstream transport described by the bus configuration:
// Modbus TCP when an endpoint is set, RTU over the serial device otherwise.
func New(bus config.BusConfig) (*Client, error) {
	timeout := time.Duration(bus.TimeoutMs) * time.Millisecond

	var handler settableHandler
	if bus.Endpoint != "" {
		h := modbus.NewTCPClientHandler(bus.Endpoint)
		h.Timeout = timeout
		handler = tcpHandler{h}
	} else {
		if bus.Device == "" {
			return nil, errors.New("bus: serial device required")
		}
		h := modbus.NewRTUClientHandler(bus.Device)
		h.BaudRate = bus.Baud
		h.DataBits = 8
		h.Parity = bus.Parity
		h.StopBits = bus.StopBits
		h.Timeout = timeout
		handler = rtuHandler{h}
	}

	if err := handler.Connect(); err != nil {
		return nil, err
	}

	var c *Client
	switch h := handler.(type) {
	case rtuHandler:
		c = &Client{handler: h, client: modbus.NewClient(h.RTUClientHandler)}
	case tcpHandler:
		c = &Client{handler: h, client: modbus.NewClient(h.TCPClientHandler)}
	}
	return c, nil
}

// Close closes the underlying transport.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// ---- gateway.Reader interface ----

func (c *Client) ReadHoldingRegisters(deviceID uint8, addr, qty uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SetSlave(deviceID)

	payload, err := c.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, err
	}
	return unpackRegisters(payload, qty)
}

func (c *Client) ReadInputRegisters(deviceID uint8, addr, qty uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SetSlave(deviceID)

	payload, err := c.client.ReadInputRegisters(addr, qty)
	if err != nil {
		return nil, err
	}
	return unpackRegisters(payload, qty)
}

// unpackRegisters converts the big-endian wire payload into words.
func unpackRegisters(data []byte, qty uint16) ([]uint16, error) {
	if len(data) < int(qty)*2 {
		return nil, errors.New("modbus: response shorter than requested quantity")
	}
	out := make([]uint16, qty)
	for i := range out {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out, nil
}
