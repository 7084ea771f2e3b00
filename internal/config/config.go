// internal/config/config.go
package config

// Capacity and invariant bounds. These are part of the persisted format:
// loaders clamp stored values into these ranges rather than reject them.
const (
	// MaxBindings is the fixed number of downstream device slots.
	MaxBindings = 3

	// MaxRegisters is the widest register window a binding may read.
	MaxRegisters = 122

	MinSlaveID = 1
	MaxSlaveID = 247

	MinPollIntervalMs = 100
	MaxPollIntervalMs = 60000
)

// Defaults applied for absent fields and for the synthesized first-boot binding.
const (
	DefaultSlaveID        = 1
	DefaultStartAddress   = 0
	DefaultRegisterCount  = 10
	DefaultPollIntervalMs = 1000
	DefaultProfile        = 0

	DefaultBusDevice    = "/dev/ttyUSB0"
	DefaultBusBaud      = 9600
	DefaultBusParity    = "N"
	DefaultBusStopBits  = 1
	DefaultBusTimeoutMs = 1000

	DefaultHostname     = "modbus-gateway"
	DefaultServerListen = ":1502"
	DefaultAPIListen    = ":8080"
	DefaultEventLogPath = "gateway-events.db"
)

type Config struct {
	Gateway GatewayConfig `yaml:"gateway" json:"gateway"`
}

type GatewayConfig struct {
	Hostname string          `yaml:"hostname" json:"hostname"`
	Bus      BusConfig       `yaml:"bus" json:"bus"`
	Server   ServerConfig    `yaml:"server" json:"server"`
	API      APIConfig       `yaml:"api" json:"api"`
	EventLog EventLogConfig  `yaml:"event_log" json:"event_log"`
	Bindings []BindingConfig `yaml:"bindings" json:"bindings"`
}

// ---- BUS ----

// BusConfig describes the downstream field bus. When Endpoint is set the
// gateway speaks Modbus TCP to it (bench setups); otherwise it opens the
// serial device as an RTU master.
type BusConfig struct {
	Device    string `yaml:"device" json:"device"`
	Baud      int    `yaml:"baud" json:"baud"`
	Parity    string `yaml:"parity" json:"parity"`
	StopBits  int    `yaml:"stop_bits" json:"stop_bits"`
	TimeoutMs int    `yaml:"timeout_ms" json:"timeout_ms"`
	Endpoint  string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
}

// ---- OUTWARD SURFACES ----

type ServerConfig struct {
	Listen string `yaml:"listen" json:"listen"`
}

type APIConfig struct {
	Listen string `yaml:"listen" json:"listen"`
}

type EventLogConfig struct {
	Path string `yaml:"path" json:"path"`
}

// ---- BINDINGS ----

// BindingConfig is one downstream device slot as persisted.
// Fields are plain ints so out-of-range stored values survive unmarshalling
// and can be clamped by Validate.
type BindingConfig struct {
	ID             int   `yaml:"id" json:"id"`
	Enabled        *bool `yaml:"enabled" json:"enabled"` // absent means enabled
	StartAddress   int   `yaml:"start_address" json:"start_address"`
	RegisterCount  int   `yaml:"register_count" json:"register_count"`
	PollIntervalMs int   `yaml:"poll_interval_ms" json:"poll_interval_ms"`
	Profile        int   `yaml:"profile" json:"profile"`
}
