// Command simulate is a host-side development harness for the dispatcher:
// it drives machine.Dispatcher against a simulated GPIO backend over
// stdin/stdout, or against a real serial port when -port is given, the
// same role host/cmd/gopper-host/main.go played for the teacher's
// Klipper VLQ protocol adapted to this repo's ASCII G-code wire protocol.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/tarm/serial"

	"gopper/machine"
)

// configOverride lets a development session tweak a handful of
// MachineConfig fields from a JSON file without rebuilding, matching the
// teacher's preference for build-time constants while still giving the
// host harness a convenient override knob for bring-up.
type configOverride struct {
	QueueCapacity  *int     `json:"queueCapacity"`
	GCodeMaxLength *int     `json:"gcodeMaxLength"`
	MaxPositionMM  *[3]float64 `json:"maxPositionMM"`
}

func loadOverride(path string) (configOverride, error) {
	var o configOverride
	if path == "" {
		return o, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return o, err
	}
	defer f.Close()
	return o, json.NewDecoder(f).Decode(&o)
}

func applyOverride(cfg *machine.MachineConfig, o configOverride) {
	if o.QueueCapacity != nil {
		cfg.QueueCapacity = *o.QueueCapacity
	}
	if o.GCodeMaxLength != nil {
		cfg.GCodeMaxLength = *o.GCodeMaxLength
	}
	if o.MaxPositionMM != nil {
		for i, a := range [3]machine.Axis{machine.AxisX, machine.AxisY, machine.AxisZ} {
			cfg.Axes[a].MaxPositionMM = o.MaxPositionMM[i]
		}
	}
}

func wallClock(start time.Time) machine.Clock {
	return func() float64 { return time.Since(start).Seconds() }
}

func main() {
	port := flag.String("port", "", "serial device to drive (empty = stdin/stdout simulation)")
	baud := flag.Int("baud", 115200, "baud rate when -port is set")
	configPath := flag.String("config", "", "optional JSON file overriding a few MachineConfig fields")
	flag.Parse()

	override, err := loadOverride(*configPath)
	if err != nil {
		log.Fatalf("reading -config: %v", err)
	}
	cfg := machine.DefaultConfig()
	applyOverride(&cfg, override)

	var in io.Reader = os.Stdin
	var out io.Writer = os.Stdout
	if *port != "" {
		sp, err := serial.OpenPort(&serial.Config{Name: *port, Baud: *baud})
		if err != nil {
			log.Fatalf("opening %s: %v", *port, err)
		}
		defer sp.Close()
		in, out = sp, sp
	}

	clock := wallClock(time.Now())
	gpio := machine.NewSimGPIODriver()
	d := machine.NewDispatcher(&cfg, gpio, clock, machine.NoopWatchdog, out, machine.DispatcherDeps{})
	d.Boot()

	reader := bufio.NewReader(in)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			if err == io.EOF {
				return
			}
			fmt.Fprintln(os.Stderr, "read error:", err)
			return
		}
		d.FeedByte(b)
		d.Tick()
	}
}
