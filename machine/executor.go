package machine

import "math"

// motionTickSeconds is the cadence at which the executor recomputes the
// dominant axis's instantaneous speed (spec §4.4: "≈ every 5 ms").
const motionTickSeconds = 0.005

// minSpeedFraction is the floor applied to the recomputed speed, and also
// the floor used for the initial nonzero seed speed (spec §4.4 steps 3-4).
const minSpeedFraction = 0.05

// minSeedSpeedStepsPerSec is the absolute floor for the initial speed,
// below the 5%-of-dominant-max floor, so very slow axes still move.
const minSeedSpeedStepsPerSec = 50.0

// MotionExecutor runs three stepper channels to their targets under one
// shared trapezoidal speed profile synchronized to the dominant axis,
// grounded on original_source/motion/stepper_control.cpp's
// runBlocking/runBlockingWithCheck.
type MotionExecutor struct {
	clock Clock
	wd    Watchdog
}

// NewMotionExecutor constructs an executor bound to a clock and watchdog.
func NewMotionExecutor(clock Clock, wd Watchdog) *MotionExecutor {
	if wd == nil {
		wd = NoopWatchdog
	}
	return &MotionExecutor{clock: clock, wd: wd}
}

// profile holds the per-call trapezoid state.
type profile struct {
	dominant       Axis
	dominantDist   int64
	accelSteps     int64
	decelStart     int64 // step count at which deceleration begins
	dominantMax    float64
	dominantAccel  float64
}

func buildProfile(channels [numAxes]*StepperChannel) profile {
	var dominant Axis
	var maxDist int64 = -1
	for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
		d := channels[a].RemainingSteps()
		if d > maxDist {
			maxDist = d
			dominant = a
		}
	}
	ch := channels[dominant]
	vmax := ch.MaxSpeed()
	accel := ch.Acceleration()

	var accelSteps int64
	if accel > 0 && vmax > 0 {
		accelSteps = int64(vmax * vmax / (2 * accel))
	}
	if 2*accelSteps >= maxDist {
		accelSteps = maxDist / 2
	}
	return profile{
		dominant:      dominant,
		dominantDist:  maxDist,
		accelSteps:    accelSteps,
		decelStart:    maxDist - accelSteps,
		dominantMax:   vmax,
		dominantAccel: accel,
	}
}

// speedAt computes the dominant axis's instantaneous speed given progress
// (steps already traveled) into the profile.
func (p profile) speedAt(progress int64) float64 {
	var v float64
	switch {
	case progress < p.accelSteps:
		v = math.Sqrt(2 * p.dominantAccel * float64(progress))
	case progress >= p.decelStart:
		remaining := p.dominantDist - progress
		if remaining < 0 {
			remaining = 0
		}
		v = math.Sqrt(2 * p.dominantAccel * float64(remaining))
	default:
		v = p.dominantMax
	}
	floor := p.dominantMax * minSpeedFraction
	if v < floor {
		v = floor
	}
	if v > p.dominantMax {
		v = p.dominantMax
	}
	return v
}

// seedSpeeds gives every moving channel a nonzero initial speed; a zero
// initial speed would never generate a pulse (spec §4.4 step 3).
func seedSpeeds(channels [numAxes]*StepperChannel, p profile) {
	seed := p.dominantMax * minSpeedFraction
	if seed < minSeedSpeedStepsPerSec {
		seed = minSeedSpeedStepsPerSec
	}
	for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
		if channels[a].RemainingSteps() == 0 {
			continue
		}
		channels[a].SetSpeed(axisSpeed(channels, p, a, seed))
	}
}

// axisSpeed scales a non-dominant axis's speed to the dominant axis's
// current target speed v, proportional to its own max speed — so every
// axis runs at the same fraction of its own ceiling as the dominant axis
// runs of its own, and all arrive together. An axis tied with the
// dominant axis's distance runs at v directly.
func axisSpeed(channels [numAxes]*StepperChannel, p profile, a Axis, v float64) float64 {
	if channels[a].RemainingSteps() == p.dominantDist {
		return v
	}
	if p.dominantMax <= 0 {
		return 0
	}
	ratio := v / p.dominantMax
	return channels[a].MaxSpeed() * ratio
}

// Run drives all three channels to their targets and returns once every
// channel has reached its target.
func (m *MotionExecutor) Run(channels [numAxes]*StepperChannel) {
	m.run(channels, nil)
}

// RunWithAbort behaves like Run but also polls shouldStop on every loop
// iteration, before any step is emitted in that iteration (more often than
// the speed profile is recomputed); if it returns true, every
// channel is immediately stopped (current position re-seated to itself)
// and RunWithAbort returns true. shouldStop must not block.
func (m *MotionExecutor) RunWithAbort(channels [numAxes]*StepperChannel, shouldStop func() bool) (aborted bool) {
	return m.run(channels, shouldStop)
}

func (m *MotionExecutor) run(channels [numAxes]*StepperChannel, shouldStop func() bool) (aborted bool) {
	p := buildProfile(channels)
	if p.dominantDist == 0 {
		return false
	}
	seedSpeeds(channels, p)

	lastTick := m.clock()
	for {
		m.wd.Feed()

		if shouldStop != nil && shouldStop() {
			for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
				channels[a].StopImmediate()
			}
			return true
		}

		allDone := true
		for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
			if !channels[a].AtTarget() {
				allDone = false
			}
		}
		if allDone {
			return false
		}

		now := m.clock()
		if now-lastTick >= motionTickSeconds {
			lastTick = now
			progress := p.dominantDist - channels[p.dominant].RemainingSteps()
			v := p.speedAt(progress)
			for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
				ch := channels[a]
				if ch.AtTarget() {
					continue
				}
				ch.SetSpeed(axisSpeed(channels, p, a, v))
			}
		}

		for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
			channels[a].Step()
		}
	}
}
