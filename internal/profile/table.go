// internal/profile/table.go
package profile

import "time"

// table is the static profile registry. Index order is part of the persisted
// configuration format and must not be reshuffled; append only.
var table = []Profile{
	0: {
		Name:                "Generic",
		ReadFunction:        ReadHolding,
		RecommendedInterval: 1000 * time.Millisecond,
	},
	1: {
		Name:                "Generic (input registers)",
		ReadFunction:        ReadInput,
		RecommendedInterval: 1000 * time.Millisecond,
	},
	2: {
		Name:                "Generic float",
		ReadFunction:        ReadHolding,
		FloatPairs:          true,
		RecommendedInterval: 1000 * time.Millisecond,
		Presets: []Preset{
			{Name: "First 16 pairs", StartAddress: 0, Count: 32},
		},
	},
	3: {
		Name:                "Growatt inverter",
		ReadFunction:        ReadHolding, // Growatt serves everything via FC 3
		RecommendedInterval: 2000 * time.Millisecond,
		Presets: []Preset{
			{Name: "Status block", StartAddress: 0, Count: 45},
			{Name: "Output power", StartAddress: 35, Count: 8},
		},
		describe: describeGrowatt,
	},
	4: {
		Name:                "Eastron SDM energy meter",
		ReadFunction:        ReadInput,
		FloatPairs:          true,
		RecommendedInterval: 1000 * time.Millisecond,
		Presets: []Preset{
			{Name: "Phase voltages and currents", StartAddress: 0, Count: 12},
			{Name: "Power summary", StartAddress: 52, Count: 28},
			{Name: "Energy totals", StartAddress: 72, Count: 8},
		},
		describe: describeEastron,
	},
	5: {
		Name:                "EPEver charge controller",
		ReadFunction:        ReadInput,
		SwapWords:           true, // low word first on 32-bit quantities
		RecommendedInterval: 2000 * time.Millisecond,
		Presets: []Preset{
			{Name: "Rated data", StartAddress: 0x3100, Count: 18},
		},
		describe: describeEpever,
	},
	6: {
		Name:                "SunSpec inverter",
		ReadFunction:        ReadHolding,
		RecommendedInterval: 5000 * time.Millisecond,
		Presets: []Preset{
			{Name: "Common model", StartAddress: 40000, Count: 69},
		},
		describe: describeSunSpec,
	},
}

func describeGrowatt(addr uint16) string {
	switch addr {
	case 0:
		return "On/Off state"
	case 1:
		return "Safety function enable"
	case 3:
		return "Max output active power (%)"
	case 30:
		return "Communication address"
	case 35:
		return "Inverter status"
	case 36:
		return "PV input power (high word)"
	case 37:
		return "PV input power (low word)"
	case 38:
		return "PV1 voltage (0.1 V)"
	case 39:
		return "PV1 input current (0.1 A)"
	case 45:
		return "Grid frequency (0.01 Hz)"
	}
	return ""
}

func describeEastron(addr uint16) string {
	switch addr {
	case 0:
		return "Phase 1 voltage (V)"
	case 2:
		return "Phase 2 voltage (V)"
	case 4:
		return "Phase 3 voltage (V)"
	case 6:
		return "Phase 1 current (A)"
	case 8:
		return "Phase 2 current (A)"
	case 10:
		return "Phase 3 current (A)"
	case 12:
		return "Phase 1 active power (W)"
	case 14:
		return "Phase 2 active power (W)"
	case 16:
		return "Phase 3 active power (W)"
	case 52:
		return "Total system power (W)"
	case 70:
		return "Frequency (Hz)"
	case 72:
		return "Import active energy (kWh)"
	case 74:
		return "Export active energy (kWh)"
	}
	return ""
}

func describeEpever(addr uint16) string {
	switch addr {
	case 0x3100:
		return "PV array voltage (0.01 V)"
	case 0x3101:
		return "PV array current (0.01 A)"
	case 0x3104:
		return "Battery voltage (0.01 V)"
	case 0x3105:
		return "Battery charging current (0.01 A)"
	case 0x310C:
		return "Load voltage (0.01 V)"
	case 0x310D:
		return "Load current (0.01 A)"
	case 0x311A:
		return "Battery state of charge (%)"
	}
	return ""
}

func describeSunSpec(addr uint16) string {
	switch addr {
	case 40000:
		return "SunSpec identifier ('Su')"
	case 40001:
		return "SunSpec identifier ('nS')"
	case 40004:
		return "Manufacturer"
	case 40070:
		return "AC current (A)"
	case 40079:
		return "AC power (W)"
	case 40085:
		return "AC frequency (Hz)"
	}
	return ""
}
