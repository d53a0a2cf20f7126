//go:build rp2040 || rp2350

package main

import "machine"

// SD card SPI wiring. original_source/config.h's SDSS (pin 53 on the Mega
// target) has no RP2040 equivalent pin number; the rp2040 port pins the SD
// card to the board's default SPI0 bus instead of replicating the Mega's
// pin numbering.
const (
	sdSCKPin  = machine.GPIO18
	sdMOSIPin = machine.GPIO19
	sdMISOPin = machine.GPIO16
	sdCSPin   = machine.GPIO17
)

// configureSDSPI brings up the SPI bus the sdcard file source reads from.
func configureSDSPI() *machine.SPI {
	spi := machine.SPI0
	spi.Configure(machine.SPIConfig{
		Frequency: 4 * 1000 * 1000,
		SCK:       sdSCKPin,
		SDO:       sdMOSIPin,
		SDI:       sdMISOPin,
		Mode:      0,
	})
	sdCSPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	sdCSPin.High()
	return spi
}
