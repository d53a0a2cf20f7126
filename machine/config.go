// Package machine implements the pen-plotter motion core: parsing, queueing,
// kinematics, stepping, homing and the dispatcher loop that ties them
// together. Everything here is host-testable; hardware access is reached
// only through the narrow interfaces in core.
package machine

// Axis identifies one of the three motion axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
	numAxes = 3
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return "?"
	}
}

// AxisConfig holds the compile-time-constant parameters for one axis.
type AxisConfig struct {
	StepsPerMM     float64
	MaxVelocityMMS float64 // mm/s
	MaxAccelMMSS   float64 // mm/s^2
	MaxPositionMM  float64 // soft limit, minimum is always 0
	HomeDir        int     // -1 or +1
	InvertDir      bool
	InvertEndstop  bool
	EndstopPullup  bool

	StepPin   uint32
	DirPin    uint32
	EnablePin uint32
	MinPin    uint32
}

// MachineConfig is the full set of compile-time constants for one machine.
// There is no persisted or host-loaded configuration in the core: every
// field here is a build-time decision, the way original_source/config.h
// is a set of #defines.
type MachineConfig struct {
	FirmwareName    string
	FirmwareVersion string
	BoardType       string

	Axes [numAxes]AxisConfig

	PenUpZ            float64
	ZHomePosition     float64
	HomingFeedFast    float64 // mm/s
	HomingFeedSlow    float64 // mm/s
	HomingBackoffMM   float64
	HomingAccelFactor float64 // < 1
	HomingTimeoutS    float64

	MaxAllowedJumpMM float64

	EndstopDebounceMS float64

	DisableIdleTimeoutS float64

	// PotMinSpeedPercent/PotMaxSpeedPercent bound the analog speed-override
	// input's mapped range (spec §3's [10, 200] clamp).
	PotMinSpeedPercent float64
	PotMaxSpeedPercent float64
	PotPin             uint32

	BeeperPin    uint32
	SDDetectPin  uint32
	SDSelectPin  uint32

	GCodeMaxLength int
	QueueCapacity  int
}

// DefaultConfig mirrors original_source/SimplePlotter_Firmware/src/config.h.
// The Z axis step density is the documented "800 vs 400" open question
// (see DESIGN.md): this repository, like the original, commits to 400 at
// compile time rather than guessing a different value silently.
func DefaultConfig() MachineConfig {
	return MachineConfig{
		FirmwareName:    "SimplePlotter",
		FirmwareVersion: "1.4.0",
		BoardType:       "MKS_Gen_v1.4",

		Axes: [numAxes]AxisConfig{
			AxisX: {
				StepsPerMM:     160.0,
				MaxVelocityMMS: 100.0,
				MaxAccelMMSS:   1000.0,
				MaxPositionMM:  234.0,
				HomeDir:        1,
				InvertDir:      true,
				InvertEndstop:  false,
				EndstopPullup:  true,
				StepPin:        54,
				DirPin:         55,
				EnablePin:      38,
				MinPin:         3,
			},
			AxisY: {
				StepsPerMM:     160.0,
				MaxVelocityMMS: 100.0,
				MaxAccelMMSS:   1000.0,
				MaxPositionMM:  191.0,
				HomeDir:        -1,
				InvertDir:      false,
				InvertEndstop:  true,
				EndstopPullup:  true,
				StepPin:        60,
				DirPin:         61,
				EnablePin:      56,
				MinPin:         14,
			},
			AxisZ: {
				StepsPerMM:     400.0,
				MaxVelocityMMS: 10.0,
				MaxAccelMMSS:   500.0,
				MaxPositionMM:  203.0,
				HomeDir:        -1,
				InvertDir:      false,
				InvertEndstop:  false,
				EndstopPullup:  true,
				StepPin:        46,
				DirPin:         48,
				EnablePin:      62,
				MinPin:         18,
			},
		},

		PenUpZ:            3.0,
		ZHomePosition:     2.0,
		HomingFeedFast:    20.0,
		HomingFeedSlow:    5.0,
		HomingBackoffMM:   10.0,
		HomingAccelFactor: 0.5,
		HomingTimeoutS:    60,

		MaxAllowedJumpMM: 1000.0,

		EndstopDebounceMS: 10,

		DisableIdleTimeoutS: 600,

		PotMinSpeedPercent: 10,
		PotMaxSpeedPercent: 200,
		PotPin:             0, // A0

		BeeperPin:   37,
		SDDetectPin: 49,
		SDSelectPin: 53,

		GCodeMaxLength: 64,
		QueueCapacity:  8,
	}
}

// Axis returns the config for the given axis.
func (c *MachineConfig) Axis(a Axis) *AxisConfig {
	return &c.Axes[a]
}
