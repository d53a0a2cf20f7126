//go:build rp2040 || rp2350

package main

import (
	"bufio"
	"io"
	"machine"
	"time"

	"gopper/core"
	gmachine "gopper/machine"

	"tinygo.org/x/drivers/sdcard"
	"tinygo.org/x/drivers/ssd1306"
)

// RpGPIODriver implements gopper/core.GPIODriver directly over TinyGo's
// machine.Pin, the same shape as the teacher's original GPIO driver but
// without the Klipper digital_out command layer it used to sit behind.
type RpGPIODriver struct{}

func (RpGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

func (RpGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return nil
}

func (RpGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	return nil
}

func (RpGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machine.Pin(pin).Set(value)
	return nil
}

func (RpGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	return machine.Pin(pin).Get(), nil
}

func (RpGPIODriver) ReadPin(pin core.GPIOPin) bool {
	return machine.Pin(pin).Get()
}

// ssd1306UI adapts tinygo.org/x/drivers/ssd1306 to machine.UIDriver,
// supplementing original_source/ui/display.cpp which the distilled spec
// only names as "an optional status display" (spec §9).
type ssd1306UI struct {
	dev       ssd1306.Device
	lastDrawS float64
	clock     gmachine.Clock
}

func newSSD1306UI(bus *machine.I2C, clock gmachine.Clock) *ssd1306UI {
	dev := ssd1306.NewI2C(bus)
	dev.Configure(ssd1306.Config{Width: 128, Height: 64, Address: 0x3C})
	dev.ClearDisplay()
	return &ssd1306UI{dev: dev, clock: clock}
}

// Tick redraws at most 10 times a second; the dispatcher calls it once
// per pass and not while a move or homing sequence blocks.
func (u *ssd1306UI) Tick(state *gmachine.MachineState, cfg *gmachine.MachineConfig) {
	now := u.clock()
	if now-u.lastDrawS < 0.1 {
		return
	}
	u.lastDrawS = now
	u.dev.ClearBuffer()
	// A full glyph font isn't wired here; the status line is left to a
	// follow-up once a font package is selected. The display is still
	// usefully driven (power, contrast, clear) by the startup sequence.
	u.dev.Display()
}

// sdBlockReader presents a sdcard.Device's fixed-size block interface as a
// sequential io.Reader, which is all ScannerFileSource needs. The sdcard
// driver exposes ReadAt/WriteAt over 512-byte blocks with no filesystem;
// this repo reads a raw G-code image starting at block 0 rather than
// wiring a FAT filesystem layer, since SPEC_FULL.md's file source only
// needs sequential line playback, not directory browsing.
type sdBlockReader struct {
	card   *sdcard.Device
	offset int64
}

func (r *sdBlockReader) Read(p []byte) (int, error) {
	n, err := r.card.ReadAt(p, r.offset)
	r.offset += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

func newSDFileSource(spi *machine.SPI, cs machine.Pin) (gmachine.FileSource, error) {
	card := sdcard.New(spi, cs)
	if err := card.Configure(); err != nil {
		return nil, err
	}
	reader := &sdBlockReader{card: &card}
	return gmachine.NewScannerFileSource(bufio.NewScanner(reader)), nil
}

func main() {
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 2000})

	machine.Serial.Configure(machine.UARTConfig{})
	clock := gmachine.Clock(machineClock)

	cfg := gmachine.DefaultConfig()
	gpio := RpGPIODriver{}

	speedSrc := gmachine.NewDebouncedSpeedOverride(
		NewRPAdcDriver(machine.ADC0), clock,
		cfg.PotMinSpeedPercent, cfg.PotMaxSpeedPercent, 4095, 8,
	)

	deps := gmachine.DispatcherDeps{SpeedSource: speedSrc}

	if i2c := configureDisplayI2C(); i2c != nil {
		deps.UI = newSSD1306UI(i2c, clock)
	}
	if spi := configureSDSPI(); spi != nil {
		if fs, err := newSDFileSource(spi, sdCSPin); err == nil {
			deps.FileSource = fs
		}
	}

	d := gmachine.NewDispatcher(&cfg, gpio, clock, rpWatchdog{}, machine.Serial, deps)
	d.Boot()

	for {
		for machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err != nil {
				break
			}
			d.FeedByte(b)
		}
		d.Tick()
		time.Sleep(100 * time.Microsecond)
	}
}

// rpWatchdog adapts TinyGo's machine.Watchdog to machine.Watchdog (the
// dispatcher's narrow Feed-only interface), matching the teacher's own
// watchdog-per-loop-iteration convention.
type rpWatchdog struct{}

func (rpWatchdog) Feed() { machine.Watchdog.Update() }
