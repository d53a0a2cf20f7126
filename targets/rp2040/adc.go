//go:build rp2040 || rp2350

package main

import "machine"

// RpAdcDriver implements machine's analogReader seam for the speed-override
// potentiometer (original_source/config.h's POT_PIN), using TinyGo's
// machine.ADC directly. The Klipper-era multi-channel/temperature-sensor
// handling is gone along with the command registry it served; this board
// only samples one analog input.
type RpAdcDriver struct {
	adc machine.ADC
}

// NewRPAdcDriver constructs and configures the speed-override ADC channel.
func NewRPAdcDriver(pin machine.Pin) *RpAdcDriver {
	machine.InitADC()
	adc := machine.ADC{Pin: pin}
	adc.Configure(machine.ADCConfig{})
	return &RpAdcDriver{adc: adc}
}

// ReadRaw implements the analogReader interface machine.DebouncedSpeedOverride
// polls. TinyGo's ADC.Get() returns a left-justified 16-bit sample; shift
// down to the 12-bit range original_source/io/potentiometer.cpp's mapping
// is written in terms of.
func (d *RpAdcDriver) ReadRaw() (uint16, error) {
	return d.adc.Get() >> 4, nil
}
