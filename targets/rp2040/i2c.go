//go:build rp2040 || rp2350

package main

import "machine"

// I2C wiring for the status display (spec §9's optional UIDriver),
// supplemented from original_source/ui/display.cpp's I2C LCD.
const (
	displaySDAPin = machine.GPIO4
	displaySCLPin = machine.GPIO5
)

// configureDisplayI2C brings up the I2C bus the ssd1306 UI driver attaches
// to.
func configureDisplayI2C() *machine.I2C {
	i2c := machine.I2C0
	i2c.Configure(machine.I2CConfig{
		Frequency: 400 * 1000,
		SDA:       displaySDAPin,
		SCL:       displaySCLPin,
	})
	return i2c
}
