package machine

import "gopper/core"

// SimGPIODriver is a software-only core.GPIODriver backing the host
// simulation harness (cmd/simulate), the same map-of-pin-states shape as
// the teacher's own test mocks (core/gpio_test.go's disabled
// MockGPIODriver), exported here because it is a real, non-test
// component rather than a throwaway test fixture.
type SimGPIODriver struct {
	pins map[core.GPIOPin]bool
}

// NewSimGPIODriver returns an all-pins-low simulated driver.
func NewSimGPIODriver() *SimGPIODriver {
	return &SimGPIODriver{pins: make(map[core.GPIOPin]bool)}
}

func (d *SimGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if _, ok := d.pins[pin]; !ok {
		d.pins[pin] = false
	}
	return nil
}

// ConfigureInputPullUp gives a pin with no level set yet its pulled-up idle
// level (HIGH); a level already set on the pin is kept, as an external
// driver overrides a pull resistor.
func (d *SimGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	if _, ok := d.pins[pin]; !ok {
		d.pins[pin] = true
	}
	return nil
}

// ConfigureInputPullDown is the pull-down counterpart of ConfigureInputPullUp.
func (d *SimGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	if _, ok := d.pins[pin]; !ok {
		d.pins[pin] = false
	}
	return nil
}

func (d *SimGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	d.pins[pin] = value
	return nil
}

func (d *SimGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	return d.pins[pin], nil
}

func (d *SimGPIODriver) ReadPin(pin core.GPIOPin) bool {
	return d.pins[pin]
}
