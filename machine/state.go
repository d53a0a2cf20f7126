package machine

// MachineState is the single process-wide aggregate the dispatcher owns
// (spec §9's "single owned aggregate passed by reference" — explicit
// ownership rather than ambient globals, unlike original_source's extern
// globals in globals.h).
type MachineState struct {
	Position Point3D

	AbsoluteMode bool // true = absolute, false = relative

	FeedRateMMMin float64 // current feed rate, mm/min
	SpeedFactor   float64 // percent, [1,999] by command, [10,200] by analog

	Homed [numAxes]bool

	SteppersDisabled   bool
	LastActivityS      float64
	IdleTimeoutS       float64 // 0 = never auto-disable

	FileSourceState FileSourceState
}

// NewMachineState returns the boot-time default state, matching
// original_source/main.cpp's setup().
func NewMachineState(cfg *MachineConfig, now float64) *MachineState {
	return &MachineState{
		Position:      Point3D{},
		AbsoluteMode:  true,
		FeedRateMMMin: cfg.Axes[AxisX].MaxVelocityMMS * 60,
		SpeedFactor:   100,
		IdleTimeoutS:  cfg.DisableIdleTimeoutS,
		LastActivityS: now,
	}
}

// AllHomed reports whether every axis has been homed.
func (s *MachineState) AllHomed() bool {
	for _, h := range s.Homed {
		if !h {
			return false
		}
	}
	return true
}
