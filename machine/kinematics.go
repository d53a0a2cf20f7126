package machine

import "math"

// Kinematics converts between millimeters and steps per axis and checks
// soft limits, grounded on original_source/motion/kinematics.cpp — with
// one deliberate correction: the original truncates when converting mm to
// steps, but spec §4.2 calls for rounding, so this implementation rounds.
type Kinematics struct {
	cfg *MachineConfig
}

// NewKinematics binds a Kinematics to the machine's compile-time config.
func NewKinematics(cfg *MachineConfig) *Kinematics {
	return &Kinematics{cfg: cfg}
}

// MMToSteps converts a millimeter offset on one axis to an integer step
// count: round(mm * stepsPerMm[axis]).
func (k *Kinematics) MMToSteps(a Axis, mm float64) int64 {
	return int64(math.Round(mm * k.cfg.Axes[a].StepsPerMM))
}

// StepsToMM is the inverse conversion.
func (k *Kinematics) StepsToMM(a Axis, steps int64) float64 {
	return float64(steps) / k.cfg.Axes[a].StepsPerMM
}

// PointToSteps converts a full Point3D to a [3]int64 step vector.
func (k *Kinematics) PointToSteps(p Point3D) [numAxes]int64 {
	return [numAxes]int64{
		k.MMToSteps(AxisX, p.X),
		k.MMToSteps(AxisY, p.Y),
		k.MMToSteps(AxisZ, p.Z),
	}
}

// StepsToPoint is the inverse of PointToSteps.
func (k *Kinematics) StepsToPoint(steps [numAxes]int64) Point3D {
	return Point3D{
		X: k.StepsToMM(AxisX, steps[AxisX]),
		Y: k.StepsToMM(AxisY, steps[AxisY]),
		Z: k.StepsToMM(AxisZ, steps[AxisZ]),
	}
}

// IsValidPosition reports whether target lies within every axis's soft
// limits: 0 <= target.axis <= axisMax.
func (k *Kinematics) IsValidPosition(target Point3D) bool {
	for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
		v := target.Get(a)
		if v < 0 || v > k.cfg.Axes[a].MaxPositionMM {
			return false
		}
	}
	return true
}

// MaxMachineCoords returns the per-axis soft-limit maxima as a Point3D.
func (k *Kinematics) MaxMachineCoords() Point3D {
	return Point3D{
		X: k.cfg.Axes[AxisX].MaxPositionMM,
		Y: k.cfg.Axes[AxisY].MaxPositionMM,
		Z: k.cfg.Axes[AxisZ].MaxPositionMM,
	}
}
