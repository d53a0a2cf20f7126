package machine

// Clock returns a monotonically increasing timestamp in seconds. Real
// targets supply time.Since(boot).Seconds()-backed clocks; tests supply a
// manually advanced fake so debounce, step-pulse, and homing-timeout logic
// can be exercised without sleeping.
type Clock func() float64

// FakeClock is a Clock a test can advance deterministically.
type FakeClock struct {
	s float64
}

// Now implements Clock.
func (c *FakeClock) Now() float64 { return c.s }

// Advance moves the fake clock forward by the given number of seconds.
func (c *FakeClock) Advance(seconds float64) { c.s += seconds }
