package machine

// HomingCoordinator runs the four-phase homing sequence per axis, grounded
// on original_source/motion/homing.cpp's homeAxis/_singleAxisHomingSequence.
// Unlike the original, which always moves in the negative direction
// regardless of configuration, every move here is expressed through
// cfg.Axes[axis].HomeDir so the sequence generalizes to an axis homing
// toward its maximum (as X does on this machine).
type HomingCoordinator struct {
	cfg        *MachineConfig
	kin        *Kinematics
	executor   *MotionExecutor
	clock      Clock
	wd         Watchdog
}

// NewHomingCoordinator constructs a coordinator bound to the machine's
// config and shared collaborators.
func NewHomingCoordinator(cfg *MachineConfig, kin *Kinematics, executor *MotionExecutor, clock Clock, wd Watchdog) *HomingCoordinator {
	if wd == nil {
		wd = NoopWatchdog
	}
	return &HomingCoordinator{cfg: cfg, kin: kin, executor: executor, clock: clock, wd: wd}
}

// HomeResult reports the outcome of homing one axis.
type HomeResult struct {
	OK    bool
	Err   protocolError
}

// parkedChannels sets every channel except moving to hold at its current
// position, so the shared executor can be reused for a single-axis homing
// move without disturbing the other axes.
func parkedChannels(channels [numAxes]*StepperChannel, moving Axis) [numAxes]*StepperChannel {
	out := channels
	for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
		if a != moving {
			out[a].SetTarget(out[a].CurrentSteps())
		}
	}
	return out
}

// HomeAxis runs the full four-phase sequence for one axis. channels must
// contain all three stepper channels (only the named axis moves).
func (h *HomingCoordinator) HomeAxis(axis Axis, channels [numAxes]*StepperChannel, endstops [numAxes]*EndstopChannel) HomeResult {
	ac := h.cfg.Axes[axis]
	ch := channels[axis]
	es := endstops[axis]

	accel := ac.MaxAccelMMSS * h.cfg.HomingAccelFactor * ac.StepsPerMM
	fastSpeed := ac.MaxVelocityMMS
	if h.cfg.HomingFeedFast < fastSpeed {
		fastSpeed = h.cfg.HomingFeedFast
	}
	slowSpeed := ac.MaxVelocityMMS
	if h.cfg.HomingFeedSlow < slowSpeed {
		slowSpeed = h.cfg.HomingFeedSlow
	}
	fastStepsPerSec := fastSpeed * ac.StepsPerMM
	slowStepsPerSec := slowSpeed * ac.StepsPerMM
	backoffSteps := float64(h.kin.MMToSteps(axis, h.cfg.HomingBackoffMM))
	if backoffSteps < 0 {
		backoffSteps = -backoffSteps
	}
	maxTravelSteps := float64(h.kin.MMToSteps(axis, ac.MaxPositionMM*2))
	if maxTravelSteps < 0 {
		maxTravelSteps = -maxTravelSteps
	}

	ch.SetMaxSpeed(fastStepsPerSec)
	ch.SetAcceleration(accel)

	// settledTriggered re-reads the endstop after a move the endstop was not
	// polled during: the first sample registers any change, and the final
	// read comes once the debounce window has passed since that sample.
	settledTriggered := func() bool {
		es.IsTriggered()
		start := h.clock()
		for (h.clock()-start)*1000 <= h.cfg.EndstopDebounceMS {
			h.wd.Feed()
		}
		return es.IsTriggered()
	}

	// Phase 1: pre-clear.
	if es.IsTriggered() {
		h.moveRelative(ch, channels, axis, -ac.HomeDir, backoffSteps*2, fastStepsPerSec, accel)
		if settledTriggered() {
			return HomeResult{OK: false, Err: errCannotClearPreTrig}
		}
	}

	// Phase 2: fast approach, reduced acceleration, until triggered.
	if ok := h.moveUntilTriggered(ch, channels, axis, es, ac.HomeDir, maxTravelSteps, fastStepsPerSec, accel); !ok {
		return HomeResult{OK: false, Err: errHomingStall}
	}

	// Phase 3: backoff.
	h.moveRelative(ch, channels, axis, -ac.HomeDir, backoffSteps, fastStepsPerSec, accel)
	if settledTriggered() {
		return HomeResult{OK: false, Err: errHomingBackoffStuck}
	}

	// Phase 4: slow approach, until triggered again.
	if ok := h.moveUntilTriggered(ch, channels, axis, es, ac.HomeDir, backoffSteps*4, slowStepsPerSec, accel); !ok {
		return HomeResult{OK: false, Err: errHomingStall}
	}

	return HomeResult{OK: true}
}

// moveRelative moves one axis by deltaSteps (in direction sign) at the
// given speed/accel, leaving the other axes parked.
func (h *HomingCoordinator) moveRelative(ch *StepperChannel, channels [numAxes]*StepperChannel, axis Axis, direction int, deltaSteps, stepsPerSec, accel float64) {
	target := ch.CurrentSteps() + int64(direction)*int64(deltaSteps)
	ch.SetTarget(target)
	ch.SetMaxSpeed(stepsPerSec)
	ch.SetAcceleration(accel)
	h.executor.Run(parkedChannels(channels, axis))
}

// moveUntilTriggered drives the axis toward its endstop, polling the
// endstop every tick; on trigger the channel is stopped immediately
// (no overshoot). Returns false if the full travel budget elapses
// without a trigger (stall).
func (h *HomingCoordinator) moveUntilTriggered(ch *StepperChannel, channels [numAxes]*StepperChannel, axis Axis, es *EndstopChannel, direction int, travelSteps, stepsPerSec, accel float64) bool {
	target := ch.CurrentSteps() + int64(direction)*int64(travelSteps)
	ch.SetTarget(target)
	ch.SetMaxSpeed(stepsPerSec)
	ch.SetAcceleration(accel)

	triggered := false
	deadline := h.clock() + h.cfg.HomingTimeoutS
	aborted := h.executor.RunWithAbort(parkedChannels(channels, axis), func() bool {
		if h.clock() > deadline {
			return true
		}
		if es.IsTriggered() {
			triggered = true
			return true
		}
		return false
	})
	_ = aborted
	return triggered
}

// HomeAll runs homing for the requested axes in Z, X, Y order (pen lift
// first for safety). Every requested axis is attempted even if an
// earlier one fails; whenever Z itself was requested and homed
// successfully, it additionally parks at its post-home position, whatever
// the results of the other axes.
func (h *HomingCoordinator) HomeAll(which HomeArgs, channels [numAxes]*StepperChannel, endstops [numAxes]*EndstopChannel, state *MachineState) map[Axis]HomeResult {
	order := [numAxes]Axis{AxisZ, AxisX, AxisY}
	wantAll := which.All || (!which.X && !which.Y && !which.Z)

	results := make(map[Axis]HomeResult)
	for _, a := range order {
		want := wantAll
		switch a {
		case AxisX:
			want = want || which.X
		case AxisY:
			want = want || which.Y
		case AxisZ:
			want = want || which.Z
		}
		if !want {
			continue
		}
		res := h.HomeAxis(a, channels, endstops)
		results[a] = res
		ac := h.cfg.Axes[a]
		if res.OK {
			state.Homed[a] = true
			var zeroPos float64
			if ac.HomeDir > 0 {
				zeroPos = ac.MaxPositionMM
			} else {
				zeroPos = 0
			}
			state.Position = state.Position.With(a, zeroPos)
			channels[a].SetCurrentSteps(h.kin.MMToSteps(a, zeroPos))
		} else {
			state.Homed[a] = false
			state.Position = state.Position.With(a, 0)
			channels[a].SetCurrentSteps(0)
		}
	}

	if z, ok := results[AxisZ]; ok && z.OK {
		ch := channels[AxisZ]
		ch.SetTarget(h.kin.MMToSteps(AxisZ, h.cfg.ZHomePosition))
		ch.SetMaxSpeed(h.cfg.Axes[AxisZ].MaxVelocityMMS * h.cfg.Axes[AxisZ].StepsPerMM)
		ch.SetAcceleration(h.cfg.Axes[AxisZ].MaxAccelMMSS * h.cfg.Axes[AxisZ].StepsPerMM)
		h.executor.Run(parkedChannels(channels, AxisZ))
		state.Position.Z = h.cfg.ZHomePosition
	}

	return results
}
