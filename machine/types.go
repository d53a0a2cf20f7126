package machine

// Point3D is a position in millimeters, used everywhere motion is
// expressed in physical units.
type Point3D struct {
	X, Y, Z float64
}

// Get returns the coordinate for the given axis.
func (p Point3D) Get(a Axis) float64 {
	switch a {
	case AxisX:
		return p.X
	case AxisY:
		return p.Y
	default:
		return p.Z
	}
}

// With returns a copy of p with the given axis set to v.
func (p Point3D) With(a Axis, v float64) Point3D {
	switch a {
	case AxisX:
		p.X = v
	case AxisY:
		p.Y = v
	default:
		p.Z = v
	}
	return p
}

// CommandTag discriminates ParsedCommand's variant. Each tag has exactly
// one payload shape, and handlers must not read a payload field that
// doesn't belong to the tag in hand (spec §9's tagged-union requirement).
type CommandTag int

const (
	CmdUnknown CommandTag = iota
	CmdMove              // G0 / G1
	CmdHome              // G28
	CmdSetPosition       // G92
	CmdModeAbsolute      // G90
	CmdModeRelative      // G91
	CmdDisableSteppers   // M84
	CmdSetSpeedFactor    // M220
	CmdQueryPosition     // M114
	CmdQueryFirmware     // M115
	CmdQueryEndstops     // M119
	CmdReportSettings    // M503
	CmdPause             // M25
	CmdResume            // M24
	CmdStop              // M0
	CmdQuickStop         // M410
	CmdDiagnosticMotor   // M999
)

// OptFloat carries a "present" bit alongside a value, mirroring the
// original firmware's pattern of only touching axes explicitly named on
// the line.
type OptFloat struct {
	Present bool
	Value   float64
}

func present(v float64) OptFloat { return OptFloat{Present: true, Value: v} }

// MoveArgs is the payload for CmdMove.
type MoveArgs struct {
	X, Y, Z, F OptFloat
}

// HomeArgs is the payload for CmdHome.
type HomeArgs struct {
	X, Y, Z, All bool
}

// SetPositionArgs is the payload for CmdSetPosition.
type SetPositionArgs struct {
	X, Y, Z OptFloat
}

// DisableArgs is the payload for CmdDisableSteppers.
type DisableArgs struct {
	S OptFloat
}

// SpeedFactorArgs is the payload for CmdSetSpeedFactor.
type SpeedFactorArgs struct {
	S OptFloat
}

// DiagnosticArgs is the payload for CmdDiagnosticMotor.
type DiagnosticArgs struct {
	Axis Axis
}

// ParsedCommand is the tagged-variant record the parser produces and the
// dispatcher consumes. Only the fields matching Tag are meaningful; the
// rest are zero value and must not be read.
type ParsedCommand struct {
	Tag CommandTag

	Move       MoveArgs
	Home       HomeArgs
	SetPos     SetPositionArgs
	Disable    DisableArgs
	SpeedScale SpeedFactorArgs
	Diagnostic DiagnosticArgs
}
