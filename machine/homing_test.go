package machine

import (
	"testing"

	"gopper/core"
)

// posTriggerDriver reports an endstop pin's triggered level purely as a
// function of a bound stepper channel's live position crossing
// triggerAtSteps in the homing direction — modeling a real switch tied to
// physical position, so a move-away (backoff) genuinely clears it and a
// move-back-toward-it genuinely re-trips it, unlike a driver keyed off
// call counts. The level honors the axis's configured endstop polarity.
type posTriggerDriver struct {
	*fakeGPIODriver
	minPin         core.GPIOPin
	ch             *StepperChannel
	triggerAtSteps int64
	direction      int
	inverting      bool
}

func (d *posTriggerDriver) ReadPin(pin core.GPIOPin) bool {
	if pin != d.minPin || d.ch == nil {
		return d.fakeGPIODriver.ReadPin(pin)
	}
	var triggered bool
	if d.direction > 0 {
		triggered = d.ch.CurrentSteps() >= d.triggerAtSteps
	} else {
		triggered = d.ch.CurrentSteps() <= d.triggerAtSteps
	}
	// non-inverting (active-HIGH): high == triggered; inverting (active-LOW):
	// low == triggered.
	return triggered != d.inverting
}

func newHomingRig(axis Axis, triggerMM float64) (*HomingCoordinator, [numAxes]*StepperChannel, [numAxes]*EndstopChannel, MachineConfig, *Kinematics) {
	cfg := DefaultConfig()
	kin := NewKinematics(&cfg)
	clock := autoIncrementClock(0.0003)

	driver := &posTriggerDriver{
		fakeGPIODriver: newFakeGPIODriver(),
		minPin:         core.GPIOPin(cfg.Axes[axis].MinPin),
		triggerAtSteps: kin.MMToSteps(axis, triggerMM),
		direction:      cfg.Axes[axis].HomeDir,
		inverting:      cfg.Axes[axis].InvertEndstop,
	}

	var channels [numAxes]*StepperChannel
	var endstops [numAxes]*EndstopChannel
	for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
		ac := cfg.Axes[a]
		channels[a] = NewStepperChannel(driver, core.GPIOPin(ac.StepPin), core.GPIOPin(ac.DirPin), core.GPIOPin(ac.EnablePin), ac.InvertDir, clock)
		endstops[a] = NewEndstopChannel(driver, core.GPIOPin(ac.MinPin), ac.InvertEndstop, ac.EndstopPullup, cfg.EndstopDebounceMS, clock)
	}
	driver.ch = channels[axis]

	executor := NewMotionExecutor(clock, NoopWatchdog)
	homing := NewHomingCoordinator(&cfg, kin, executor, clock, NoopWatchdog)
	return homing, channels, endstops, cfg, kin
}

func TestHomeAxisXSucceeds(t *testing.T) {
	homing, channels, endstops, cfg, kin := newHomingRig(AxisX, 50)

	res := homing.HomeAxis(AxisX, channels, endstops)
	if !res.OK {
		t.Fatalf("expected homing to succeed, got %+v", res)
	}
	// X homes toward its endstop in the +1 direction; the final resting
	// point should be close to the trigger point, not back at 0.
	gotMM := kin.StepsToMM(AxisX, channels[AxisX].CurrentSteps())
	if gotMM <= 0 || gotMM > cfg.Axes[AxisX].MaxPositionMM {
		t.Errorf("expected X to settle near the endstop within bounds, got %.2fmm", gotMM)
	}
}

func TestHomeAxisYSucceeds(t *testing.T) {
	// Y homes in the -1 direction starting from 0; move the simulated
	// trigger point negative of the start so the fast approach can reach
	// it without the backoff going out of the travel budget.
	homing, channels, endstops, cfg, kin := newHomingRig(AxisY, -30)
	_ = cfg

	res := homing.HomeAxis(AxisY, channels, endstops)
	if !res.OK {
		t.Fatalf("expected homing to succeed, got %+v", res)
	}
	gotMM := kin.StepsToMM(AxisY, channels[AxisY].CurrentSteps())
	if gotMM >= 0 {
		t.Errorf("expected Y to have moved negative toward its endstop, got %.2fmm", gotMM)
	}
}

func TestHomeAllParksZOnFullSuccess(t *testing.T) {
	cfg := DefaultConfig()
	kin := NewKinematics(&cfg)
	clock := autoIncrementClock(0.0003)

	// One driver instance, wired to whichever axis is currently homing via
	// separate posTriggerDriver-style lookup per axis pin.
	driver := newFakeGPIODriver()
	triggerSteps := map[Axis]int64{
		AxisX: kin.MMToSteps(AxisX, 50),
		AxisY: kin.MMToSteps(AxisY, -30),
		AxisZ: kin.MMToSteps(AxisZ, -20),
	}
	var channels [numAxes]*StepperChannel
	var endstops [numAxes]*EndstopChannel
	multi := &multiAxisTriggerDriver{fakeGPIODriver: driver, triggerSteps: triggerSteps, channels: &channels, cfg: &cfg}
	for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
		ac := cfg.Axes[a]
		channels[a] = NewStepperChannel(multi, core.GPIOPin(ac.StepPin), core.GPIOPin(ac.DirPin), core.GPIOPin(ac.EnablePin), ac.InvertDir, clock)
		endstops[a] = NewEndstopChannel(multi, core.GPIOPin(ac.MinPin), ac.InvertEndstop, ac.EndstopPullup, cfg.EndstopDebounceMS, clock)
	}

	executor := NewMotionExecutor(clock, NoopWatchdog)
	homing := NewHomingCoordinator(&cfg, kin, executor, clock, NoopWatchdog)
	state := NewMachineState(&cfg, clock())

	results := homing.HomeAll(HomeArgs{All: true}, channels, endstops, state)
	for a, r := range results {
		if !r.OK {
			t.Fatalf("axis %v failed to home: %+v", a, r)
		}
	}
	if !state.AllHomed() {
		t.Fatalf("expected all axes marked homed")
	}
	gotZ := kin.StepsToMM(AxisZ, channels[AxisZ].CurrentSteps())
	if absF(gotZ-cfg.ZHomePosition) > 0.01 {
		t.Errorf("expected Z parked at ZHomePosition=%.2f, got %.2f", cfg.ZHomePosition, gotZ)
	}
}

// multiAxisTriggerDriver is the same position-triggered model as
// posTriggerDriver generalized across all three axes' min pins at once,
// so HomeAll's Z->X->Y sequence can be exercised with one shared driver.
type multiAxisTriggerDriver struct {
	*fakeGPIODriver
	triggerSteps map[Axis]int64
	channels     *[numAxes]*StepperChannel
	cfg          *MachineConfig
}

func (d *multiAxisTriggerDriver) ReadPin(pin core.GPIOPin) bool {
	for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
		ac := d.cfg.Axes[a]
		if core.GPIOPin(ac.MinPin) != pin {
			continue
		}
		ch := d.channels[a]
		target := d.triggerSteps[a]
		if ac.HomeDir > 0 {
			return (ch.CurrentSteps() >= target) != ac.InvertEndstop
		}
		return (ch.CurrentSteps() <= target) != ac.InvertEndstop
	}
	return d.fakeGPIODriver.ReadPin(pin)
}
