package machine

import (
	"testing"

	"gopper/core"
)

// autoIncrementClock returns a Clock that advances by step seconds on
// every call, standing in for a wall clock so the executor's busy loop
// (which has no sleep of its own) makes finite, deterministic progress
// in a test instead of spinning on a frozen FakeClock.
func autoIncrementClock(step float64) Clock {
	t := 0.0
	return func() float64 {
		t += step
		return t
	}
}

func newTestChannels(driver core.GPIODriver, clock Clock) [numAxes]*StepperChannel {
	var channels [numAxes]*StepperChannel
	for i, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
		channels[a] = NewStepperChannel(driver, core.GPIOPin(100+i*3), core.GPIOPin(101+i*3), core.GPIOPin(102+i*3), false, clock)
	}
	return channels
}

func TestMotionExecutorSingleAxisReachesTarget(t *testing.T) {
	driver := newFakeGPIODriver()
	clock := autoIncrementClock(0.0005)
	channels := newTestChannels(driver, clock)

	channels[AxisX].SetTarget(10)
	channels[AxisX].SetMaxSpeed(200)
	channels[AxisX].SetAcceleration(2000)
	channels[AxisY].SetTarget(channels[AxisY].CurrentSteps())
	channels[AxisZ].SetTarget(channels[AxisZ].CurrentSteps())

	executor := NewMotionExecutor(clock, NoopWatchdog)
	executor.Run(channels)

	if !channels[AxisX].AtTarget() || channels[AxisX].CurrentSteps() != 10 {
		t.Fatalf("expected X at target 10, got %d", channels[AxisX].CurrentSteps())
	}
	if !channels[AxisY].AtTarget() || !channels[AxisZ].AtTarget() {
		t.Fatalf("expected untouched axes to remain at their own target")
	}
}

func TestMotionExecutorSynchronizesArrival(t *testing.T) {
	driver := newFakeGPIODriver()
	clock := autoIncrementClock(0.0005)
	channels := newTestChannels(driver, clock)

	channels[AxisX].SetTarget(20) // dominant axis
	channels[AxisX].SetMaxSpeed(400)
	channels[AxisX].SetAcceleration(4000)
	channels[AxisY].SetTarget(10) // half the distance, same direction of travel
	channels[AxisY].SetMaxSpeed(400)
	channels[AxisY].SetAcceleration(4000)
	channels[AxisZ].SetTarget(channels[AxisZ].CurrentSteps())

	executor := NewMotionExecutor(clock, NoopWatchdog)
	executor.Run(channels)

	if channels[AxisX].CurrentSteps() != 20 {
		t.Errorf("expected X at 20, got %d", channels[AxisX].CurrentSteps())
	}
	if channels[AxisY].CurrentSteps() != 10 {
		t.Errorf("expected Y at 10, got %d", channels[AxisY].CurrentSteps())
	}
}

func TestMotionExecutorRunWithAbortStopsImmediately(t *testing.T) {
	driver := newFakeGPIODriver()
	clock := autoIncrementClock(0.0005)
	channels := newTestChannels(driver, clock)

	channels[AxisX].SetTarget(1000)
	channels[AxisX].SetMaxSpeed(50)
	channels[AxisX].SetAcceleration(100)
	channels[AxisY].SetTarget(channels[AxisY].CurrentSteps())
	channels[AxisZ].SetTarget(channels[AxisZ].CurrentSteps())

	executor := NewMotionExecutor(clock, NoopWatchdog)
	aborted := executor.RunWithAbort(channels, func() bool { return true })

	if !aborted {
		t.Fatalf("expected RunWithAbort to report aborted=true")
	}
	if !channels[AxisX].AtTarget() {
		t.Fatalf("expected StopImmediate to re-seat the target to the current position")
	}
	if channels[AxisX].CurrentSteps() != 0 {
		t.Fatalf("expected no progress before the first abort check, got %d steps", channels[AxisX].CurrentSteps())
	}
}

func TestMotionExecutorNoOpWhenAlreadyAtTarget(t *testing.T) {
	driver := newFakeGPIODriver()
	clock := autoIncrementClock(0.0005)
	channels := newTestChannels(driver, clock)
	for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
		channels[a].SetTarget(channels[a].CurrentSteps())
	}

	executor := NewMotionExecutor(clock, NoopWatchdog)
	executor.Run(channels) // must return immediately, not hang

	for _, a := range [numAxes]Axis{AxisX, AxisY, AxisZ} {
		if !channels[a].AtTarget() {
			t.Errorf("axis %v unexpectedly not at target", a)
		}
	}
}
