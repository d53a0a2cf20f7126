package machine

import (
	"time"

	"gopper/core"
)

// StepperChannel drives one axis's step/direction/enable lines. Unlike
// the teacher's interrupt/timer-driven stepgen.Stepper, a channel here
// emits at most one pulse per call to Step — spec §4.3's "step-pulse
// routine that emits at most one pulse per invocation based on the
// current speed" — so the motion executor and homing coordinator can
// drive it cooperatively from inside their own loops instead of from a
// hardware timer callback.
type StepperChannel struct {
	driver core.GPIODriver
	clock  Clock

	stepPin, dirPin, enablePin core.GPIOPin
	invertDir, invertEnable    bool

	currentSteps int64
	targetSteps  int64
	speed        float64 // steps/s, always >= 0; direction is separate
	maxSpeed     float64 // steps/s
	accel        float64 // steps/s^2

	lastPulseTimeS float64
	enabled        bool

	// sleepUS backs PulseRaw's inter-pulse delay; overridable in tests so
	// a diagnostic pulse burst doesn't actually block for milliseconds.
	sleepUS func(us int)
}

// NewStepperChannel constructs a channel and configures its pins.
func NewStepperChannel(driver core.GPIODriver, stepPin, dirPin, enablePin core.GPIOPin, invertDir bool, clock Clock) *StepperChannel {
	_ = driver.ConfigureOutput(stepPin)
	_ = driver.ConfigureOutput(dirPin)
	_ = driver.ConfigureOutput(enablePin)
	return &StepperChannel{
		driver:    driver,
		clock:     clock,
		stepPin:   stepPin,
		dirPin:    dirPin,
		enablePin: enablePin,
		invertDir: invertDir,
		sleepUS:   func(us int) { time.Sleep(time.Duration(us) * time.Microsecond) },
	}
}

// CurrentSteps returns the channel's current step position.
func (s *StepperChannel) CurrentSteps() int64 { return s.currentSteps }

// SetCurrentSteps forcibly re-seats the channel's position without
// motion, used by G92 and by homing's zero-seating.
func (s *StepperChannel) SetCurrentSteps(v int64) {
	s.currentSteps = v
	s.targetSteps = v
	s.speed = 0
}

// SetTarget sets the step the channel should run toward.
func (s *StepperChannel) SetTarget(target int64) { s.targetSteps = target }

// Target returns the channel's current target step.
func (s *StepperChannel) Target() int64 { return s.targetSteps }

// RemainingSteps is the absolute distance left to the target.
func (s *StepperChannel) RemainingSteps() int64 {
	d := s.targetSteps - s.currentSteps
	if d < 0 {
		return -d
	}
	return d
}

// AtTarget reports whether the channel has reached its target.
func (s *StepperChannel) AtTarget() bool { return s.currentSteps == s.targetSteps }

// SetMaxSpeed records the channel's speed ceiling for the current move.
// A zero value is silently refused (spec §4.3): an axis that is not
// moving in a composite move simply keeps whatever speed it last had,
// which is never driven because RemainingSteps is already zero for it.
func (s *StepperChannel) SetMaxSpeed(v float64) {
	if v <= 0 {
		return
	}
	s.maxSpeed = v
}

// SetAcceleration records the channel's acceleration for the current move.
func (s *StepperChannel) SetAcceleration(a float64) { s.accel = a }

// MaxSpeed returns the channel's configured speed ceiling.
func (s *StepperChannel) MaxSpeed() float64 { return s.maxSpeed }

// Acceleration returns the channel's configured acceleration.
func (s *StepperChannel) Acceleration() float64 { return s.accel }

// SetSpeed seats the instantaneous speed (steps/s, unsigned) the channel
// should pulse at until the next SetSpeed call.
func (s *StepperChannel) SetSpeed(v float64) { s.speed = v }

// Enable drives the enable line active and marks the channel enabled.
func (s *StepperChannel) Enable() {
	_ = s.driver.SetPin(s.enablePin, !s.invertEnable)
	s.enabled = true
}

// Disable drives the enable line inactive.
func (s *StepperChannel) Disable() {
	_ = s.driver.SetPin(s.enablePin, s.invertEnable)
	s.enabled = false
}

// Enabled reports whether the channel's driver is currently enabled.
func (s *StepperChannel) Enabled() bool { return s.enabled }

// StopImmediate re-seats current position to itself, zeroing remaining
// distance and speed in one atomic step (spec §4.3's "immediate stop").
func (s *StepperChannel) StopImmediate() {
	s.targetSteps = s.currentSteps
	s.speed = 0
}

// Step emits at most one pulse, based on the channel's current speed and
// the time elapsed since the last pulse. It is a no-op if the channel has
// already reached its target or has zero speed.
func (s *StepperChannel) Step() {
	if s.AtTarget() || s.speed <= 0 {
		return
	}
	now := s.clock()
	interval := 1.0 / s.speed
	if now-s.lastPulseTimeS < interval {
		return
	}
	s.lastPulseTimeS = now

	dir := int64(1)
	if s.targetSteps < s.currentSteps {
		dir = -1
	}
	dirLevel := dir > 0
	if s.invertDir {
		dirLevel = !dirLevel
	}
	_ = s.driver.SetPin(s.dirPin, dirLevel)

	_ = s.driver.SetPin(s.stepPin, true)
	_ = s.driver.SetPin(s.stepPin, false)
	s.currentSteps += dir
}

// PulseRaw directly toggles the step pin once with a fixed inter-pulse
// delay, bypassing target/speed bookkeeping entirely — the diagnostic
// path grounded on original_source/motion/stepper_control.cpp's
// testMotorDirect, which exists purely to check hardware path integrity.
func (s *StepperChannel) PulseRaw(delayUS int) {
	_ = s.driver.SetPin(s.stepPin, true)
	s.sleepUS(delayUS)
	_ = s.driver.SetPin(s.stepPin, false)
	s.sleepUS(delayUS)
}
