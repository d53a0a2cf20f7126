package machine

import (
	"io"

	"gopper/core"
)

// Dispatcher is the cooperative main loop described in spec §4.9: it owns
// the MachineState and every other component, and a single call to Tick
// dispatches at most one queued command to completion. It is the Go shape
// of original_source/main.cpp's loop() plus the switch over GCodeType,
// generalized from the original's extern globals into one owned struct
// (spec §9).
type Dispatcher struct {
	cfg   *MachineConfig
	clock Clock
	wd    Watchdog

	kin      *Kinematics
	channels [numAxes]*StepperChannel
	endstops [numAxes]*EndstopChannel
	executor *MotionExecutor
	homing   *HomingCoordinator

	parser    *Parser
	queue     *CommandQueue
	assembler *LineAssembler
	responder *Responder

	speedSrc SpeedOverrideSource
	fileSrc  FileSource
	ui       UIDriver
	buzzer   Buzzer

	state *MachineState
}

// DispatcherDeps bundles the narrow collaborators a Dispatcher needs
// beyond the GPIO driver and config, so callers can leave any of them at
// their no-op default.
type DispatcherDeps struct {
	SpeedSource SpeedOverrideSource
	FileSource  FileSource
	UI          UIDriver
	Buzzer      Buzzer
}

// NewDispatcher wires every component together. gpio is the only hardware
// seam besides the clock/watchdog; out is the response transport.
func NewDispatcher(cfg *MachineConfig, gpio core.GPIODriver, clock Clock, wd Watchdog, out io.Writer, deps DispatcherDeps) *Dispatcher {
	if wd == nil {
		wd = NoopWatchdog
	}
	if deps.SpeedSource == nil {
		deps.SpeedSource = noopSpeedSource{}
	}
	if deps.FileSource == nil {
		deps.FileSource = NoopFileSource
	}
	if deps.UI == nil {
		deps.UI = NoopUI
	}
	if deps.Buzzer == nil {
		deps.Buzzer = NoopBuzzer
	}

	kin := NewKinematics(cfg)
	var channels [numAxes]*StepperChannel
	var endstops [numAxes]*EndstopChannel
	for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
		ac := cfg.Axes[a]
		channels[a] = NewStepperChannel(gpio, core.GPIOPin(ac.StepPin), core.GPIOPin(ac.DirPin), core.GPIOPin(ac.EnablePin), ac.InvertDir, clock)
		endstops[a] = NewEndstopChannel(gpio, core.GPIOPin(ac.MinPin), ac.InvertEndstop, ac.EndstopPullup, cfg.EndstopDebounceMS, clock)
	}
	executor := NewMotionExecutor(clock, wd)
	homing := NewHomingCoordinator(cfg, kin, executor, clock, wd)
	parser := NewParser()
	queue := NewCommandQueue(cfg.QueueCapacity)

	return &Dispatcher{
		cfg:       cfg,
		clock:     clock,
		wd:        wd,
		kin:       kin,
		channels:  channels,
		endstops:  endstops,
		executor:  executor,
		homing:    homing,
		parser:    parser,
		queue:     queue,
		assembler: NewLineAssembler(parser, queue, cfg.GCodeMaxLength),
		responder: NewResponder(out),
		speedSrc:  deps.SpeedSource,
		fileSrc:   deps.FileSource,
		ui:        deps.UI,
		buzzer:    deps.Buzzer,
		state:     NewMachineState(cfg, clock()),
	}
}

type noopSpeedSource struct{}

func (noopSpeedSource) Poll() (float64, bool) { return 0, false }

// State exposes the owned machine state for read access (e.g. by a UI
// driver or tests); the dispatcher remains the sole mutator.
func (d *Dispatcher) State() *MachineState { return d.state }

// Boot emits the unprompted firmware banner on reset (spec §6) and the
// original's startup buzzer chirp.
func (d *Dispatcher) Boot() {
	d.responder.Firmware(d.cfg)
	d.buzzer.PlayStartup()
}

// FeedByte processes one input byte from the serial transport (spec §4.9
// step 2 / §4.8). Any response-worthy event (overflow, unknown command,
// full queue) is answered immediately and exclusively by this call; a
// successfully queued command is not answered here. A line-overflow event
// gets only the error, no terminator: original_source/io/serial_handler.cpp
// discards an overflowed line without ever reaching processIncomingLine,
// so no sendOK() follows its sendError(ERR_BUFFER_OVERFLOW, ...) either.
func (d *Dispatcher) FeedByte(b byte) {
	for _, ev := range d.assembler.Feed(b) {
		switch {
		case ev.LineOverflow:
			d.responder.Error(errBufferOverflowLine)
		case ev.UnknownCmd:
			d.responder.Error(errUnknownCommand)
			d.responder.OK()
		case ev.QueueFull:
			d.responder.Error(errBufferOverflowQueue)
			d.responder.OK()
		}
	}
}

// Tick runs one pass of the dispatcher (spec §4.9 steps 1, 3-7; step 2 is
// driven by repeated FeedByte calls from the caller's transport loop).
func (d *Dispatcher) Tick() {
	d.wd.Feed()

	if percent, changed := d.speedSrc.Poll(); changed {
		d.state.SpeedFactor = percent
	}

	d.ui.Tick(d.state, d.cfg)

	if d.state.IdleTimeoutS > 0 && d.clock()-d.state.LastActivityS > d.state.IdleTimeoutS {
		d.disableSteppers()
	}

	d.pollFileSource()

	if cmd, ok := d.queue.Pop(); ok {
		d.dispatch(cmd)
	}
}

func (d *Dispatcher) pollFileSource() {
	if !d.fileSrc.Active() || d.queue.IsFull() {
		return
	}
	line, ok := d.fileSrc.NextLine()
	if !ok {
		return
	}
	cmd := d.parser.Parse(line)
	if cmd.Tag == CmdUnknown {
		return
	}
	d.queue.Push(cmd)
}

func (d *Dispatcher) disableSteppers() {
	for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
		d.channels[a].Disable()
	}
	d.state.SteppersDisabled = true
}

func (d *Dispatcher) enableSteppers() {
	for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
		d.channels[a].Enable()
	}
	d.state.SteppersDisabled = false
	d.state.LastActivityS = d.clock()
}

func (d *Dispatcher) dispatch(cmd ParsedCommand) {
	switch cmd.Tag {
	case CmdMove:
		d.handleMove(cmd.Move)
	case CmdHome:
		d.handleHome(cmd.Home)
	case CmdSetPosition:
		d.handleSetPosition(cmd.SetPos)
	case CmdModeAbsolute:
		d.state.AbsoluteMode = true
		d.responder.Info("Absolute positioning mode (G90)")
		d.responder.OK()
	case CmdModeRelative:
		d.state.AbsoluteMode = false
		d.responder.Info("Relative positioning mode (G91)")
		d.responder.OK()
	case CmdDisableSteppers:
		d.handleDisableSteppers(cmd.Disable)
	case CmdSetSpeedFactor:
		d.handleSetSpeedFactor(cmd.SpeedScale)
	case CmdQueryPosition:
		d.responder.Position(d.state.Position)
		d.responder.OK()
	case CmdQueryFirmware:
		d.responder.Firmware(d.cfg)
		d.responder.OK()
	case CmdQueryEndstops:
		d.responder.Endstops(d.endstops[AxisX].IsTriggered(), d.endstops[AxisY].IsTriggered(), d.endstops[AxisZ].IsTriggered())
		d.responder.OK()
	case CmdReportSettings:
		d.responder.Settings(d.state, d.cfg)
		d.responder.OK()
	case CmdPause:
		if d.fileSrc.State() == FileSourceRunning {
			d.fileSrc.Pause()
			d.responder.Info("Execution paused.")
		} else {
			d.responder.Info("Not running.")
		}
		d.responder.OK()
	case CmdResume:
		if d.fileSrc.State() == FileSourcePaused {
			d.fileSrc.Resume()
			d.responder.Info("Execution resumed.")
		} else {
			d.responder.Info("Nothing to resume.")
		}
		d.responder.OK()
	case CmdStop:
		d.fileSrc.Stop()
		d.queue.Clear()
		d.disableSteppers()
		d.responder.Info("M0: Stop.")
		d.responder.OK()
	case CmdQuickStop:
		d.queue.Clear()
		d.disableSteppers()
		d.responder.Info("M410: Quickstop initiated. G-code buffer cleared.")
		d.responder.OK()
	case CmdDiagnosticMotor:
		d.handleDiagnosticMotor(cmd.Diagnostic)
	default:
		d.responder.Error(errUnknownCommand)
		d.responder.OK()
	}
}

// handleMove implements spec §4.9's Move handler.
func (d *Dispatcher) handleMove(args MoveArgs) {
	target := d.state.Position
	if d.state.AbsoluteMode {
		if args.X.Present {
			target.X = args.X.Value
		}
		if args.Y.Present {
			target.Y = args.Y.Value
		}
		if args.Z.Present {
			target.Z = args.Z.Value
		}
	} else {
		if args.X.Present {
			target.X += args.X.Value
		}
		if args.Y.Present {
			target.Y += args.Y.Value
		}
		if args.Z.Present {
			target.Z += args.Z.Value
		}
	}

	dx, dy, dz := target.X-d.state.Position.X, target.Y-d.state.Position.Y, target.Z-d.state.Position.Z
	dist := sqrt(dx*dx + dy*dy + dz*dz)
	if dist > d.cfg.MaxAllowedJumpMM {
		d.responder.Error(errImpossibleJump)
		d.responder.OK()
		return
	}

	if d.state.AbsoluteMode {
		for _, a := range namedAxes(args) {
			if !d.state.Homed[a] {
				d.responder.Error(errAxisNotHomed)
				d.responder.OK()
				return
			}
		}
		if !d.kin.IsValidPosition(target) {
			d.responder.Error(errOutOfBounds)
			d.responder.OK()
			return
		}
	}

	feedRateMMMin := d.state.FeedRateMMMin
	if args.F.Present {
		feedRateMMMin = args.F.Value
	}
	feedRateMMMin *= d.state.SpeedFactor / 100.0
	feedRateMMS := feedRateMMMin / 60.0

	d.seatMoveTargets(target, dist, feedRateMMS)
	d.enableSteppers()

	jogAxis, jogging := d.jogGuardAxis(args, target)
	var trippedAxis Axis
	var aborted bool
	if jogging {
		aborted = d.executor.RunWithAbort(d.channels, func() bool {
			return d.endstops[jogAxis].IsTriggered()
		})
		trippedAxis = jogAxis
	} else {
		d.executor.Run(d.channels)
	}

	if aborted {
		d.responder.Info(trippedAxis.String() + " endstop hit during jog, auto-homing")
		res := d.homing.HomeAxis(trippedAxis, d.channels, d.endstops)
		ac := d.cfg.Axes[trippedAxis]
		if res.OK {
			d.state.Homed[trippedAxis] = true
			var zero float64
			if ac.HomeDir > 0 {
				zero = ac.MaxPositionMM
			}
			d.state.Position = d.state.Position.With(trippedAxis, zero)
			d.channels[trippedAxis].SetCurrentSteps(d.kin.MMToSteps(trippedAxis, zero))
		} else {
			d.responder.Error(res.Err)
			// Mirror HomeAll's failure handling (machine/homing.go): the
			// pre-clear/backoff phases moved the stepper before failing,
			// so both the homed flag and the logical/step-counter pair
			// for this axis must be resynced to 0, not left stale.
			d.state.Homed[trippedAxis] = false
			d.state.Position = d.state.Position.With(trippedAxis, 0)
			d.channels[trippedAxis].SetCurrentSteps(0)
		}
		// The abort stopped every axis; the other two axes now complete
		// their planned travel while the homed axis holds its position.
		for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
			if a != trippedAxis {
				d.channels[a].SetTarget(d.kin.MMToSteps(a, target.Get(a)))
				d.state.Position = d.state.Position.With(a, target.Get(a))
			}
		}
		d.executor.Run(d.channels)
	} else {
		d.state.Position = target
	}

	d.state.LastActivityS = d.clock()
	d.responder.OK()
}

// namedAxes returns the axes explicitly present in a MoveArgs.
func namedAxes(args MoveArgs) []Axis {
	var axes []Axis
	if args.X.Present {
		axes = append(axes, AxisX)
	}
	if args.Y.Present {
		axes = append(axes, AxisY)
	}
	if args.Z.Present {
		axes = append(axes, AxisZ)
	}
	return axes
}

// seatMoveTargets converts target to steps, seats per-axis speed/accel
// proportional to |delta axis| / totalDist so all axes arrive together,
// and sets each channel's target.
func (d *Dispatcher) seatMoveTargets(target Point3D, dist, feedRateMMS float64) {
	for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
		ac := d.cfg.Axes[a]
		delta := target.Get(a) - d.state.Position.Get(a)
		d.channels[a].SetTarget(d.kin.MMToSteps(a, target.Get(a)))

		var axisFeedMMS float64
		if dist > 0.001 {
			axisFeedMMS = absF(delta) / dist * feedRateMMS
		} else {
			axisFeedMMS = feedRateMMS
		}
		if axisFeedMMS > ac.MaxVelocityMMS {
			axisFeedMMS = ac.MaxVelocityMMS
		}
		d.channels[a].SetMaxSpeed(axisFeedMMS * ac.StepsPerMM)
		d.channels[a].SetAcceleration(ac.MaxAccelMMSS * ac.StepsPerMM)
	}
}

// jogGuardAxis reports whether this relative-mode move approaches an
// axis's home endstop, and if so which axis to watch. Only one axis's
// endstop is guarded at a time, matching spec scenario 5.
func (d *Dispatcher) jogGuardAxis(args MoveArgs, target Point3D) (Axis, bool) {
	if d.state.AbsoluteMode {
		return 0, false
	}
	for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
		delta := target.Get(a) - d.state.Position.Get(a)
		if delta == 0 {
			continue
		}
		ac := d.cfg.Axes[a]
		sign := 1
		if delta < 0 {
			sign = -1
		}
		if sign == ac.HomeDir {
			return a, true
		}
	}
	return 0, false
}

func (d *Dispatcher) handleHome(args HomeArgs) {
	d.enableSteppers()
	results := d.homing.HomeAll(args, d.channels, d.endstops, d.state)

	allOK := len(results) > 0
	for _, r := range results {
		if !r.OK {
			allOK = false
		}
	}
	if allOK {
		d.responder.Info("Homing complete.")
	} else {
		d.responder.Error(errPartialHoming)
	}
	d.responder.OK()
}

func (d *Dispatcher) handleSetPosition(args SetPositionArgs) {
	if args.X.Present {
		d.state.Position.X = args.X.Value
	}
	if args.Y.Present {
		d.state.Position.Y = args.Y.Value
	}
	if args.Z.Present {
		d.state.Position.Z = args.Z.Value
	}
	for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
		d.channels[a].SetCurrentSteps(d.kin.MMToSteps(a, d.state.Position.Get(a)))
	}
	d.responder.Info("Current position set.")
	d.state.LastActivityS = d.clock()
	d.responder.OK()
}

func (d *Dispatcher) handleDisableSteppers(args DisableArgs) {
	if args.S.Present {
		d.state.IdleTimeoutS = args.S.Value
		d.disableSteppers()
		if args.S.Value != 0 {
			d.state.LastActivityS = d.clock()
		}
	} else {
		d.disableSteppers()
		d.state.IdleTimeoutS = d.cfg.DisableIdleTimeoutS
	}
	d.responder.Info("Steppers disabled.")
	d.responder.OK()
}

func (d *Dispatcher) handleSetSpeedFactor(args SpeedFactorArgs) {
	if args.S.Present {
		v := args.S.Value
		if v < 1 {
			v = 1
		}
		if v > 999 {
			v = 999
		}
		d.state.SpeedFactor = v
		d.responder.Info("Speed factor updated.")
	}
	d.responder.OK()
}

// diagnosticPulseCount and diagnosticPulseDelayUS match
// original_source/motion/stepper_control.cpp's testMotorDirect literal
// constants.
const (
	diagnosticPulseCount    = 800
	diagnosticPulseDelayUS  = 500
)

// handleDiagnosticMotor bypasses the motion executor entirely, directly
// toggling the named axis's step pin to check hardware path integrity.
func (d *Dispatcher) handleDiagnosticMotor(args DiagnosticArgs) {
	d.responder.Info("Running direct motor diagnostic on " + args.Axis.String())
	ch := d.channels[args.Axis]
	ch.Enable()
	for i := 0; i < diagnosticPulseCount; i++ {
		d.wd.Feed()
		ch.PulseRaw(diagnosticPulseDelayUS)
	}
	d.responder.Info("Diagnostic complete.")
	d.responder.OK()
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func sqrt(v float64) float64 {
	if v <= 0 {
		return 0
	}
	// Newton's method, matching the embedded-friendly texture of
	// standalone/gcode/interpreter.go's hand-rolled sqrt rather than
	// reaching for math.Sqrt in the hottest dispatch path.
	x := v
	for i := 0; i < 12; i++ {
		x = 0.5 * (x + v/x)
	}
	return x
}
