package machine

import (
	"fmt"
	"io"
)

// Responder formats the three wire response kinds (spec §6): ok,
// error:<code> - <text>, and // <text> informational lines, plus the
// structured data responses for M114/M115/M119.
type Responder struct {
	w io.Writer
}

// NewResponder wraps an io.Writer (the serial transport) with the
// protocol's line formats.
func NewResponder(w io.Writer) *Responder {
	return &Responder{w: w}
}

func (r *Responder) writeLine(s string) {
	fmt.Fprintf(r.w, "%s\n", s)
}

// OK emits the terminator. Exactly one must be sent per accepted input
// line (spec §8's "terminator exactness").
func (r *Responder) OK() {
	r.writeLine("ok")
}

// Error emits an error line in the format error:<code> - <text>.
func (r *Responder) Error(e protocolError) {
	r.writeLine(fmt.Sprintf("error:%d - %s", e.Code, e.Text))
}

// Info emits an informational line.
func (r *Responder) Info(text string) {
	r.writeLine(fmt.Sprintf("// %s", text))
}

// Position emits the M114 position report.
func (r *Responder) Position(p Point3D) {
	r.writeLine(fmt.Sprintf("X:%.2f Y:%.2f Z:%.2f", p.X, p.Y, p.Z))
}

// Firmware emits the M115 identification banner.
func (r *Responder) Firmware(cfg *MachineConfig) {
	r.writeLine(fmt.Sprintf(
		"FIRMWARE_NAME:%s FIRMWARE_VERSION:%s PROTOCOL_VERSION:1.0 MACHINE_TYPE:PenPlotter BOARD_TYPE:%s EXTRUDER_COUNT:0",
		cfg.FirmwareName, cfg.FirmwareVersion, cfg.BoardType))
}

// Endstops emits the M119 three-line endstop status report.
func (r *Responder) Endstops(x, y, z bool) {
	r.writeLine(fmt.Sprintf("x_min: %s", triggeredWord(x)))
	r.writeLine(fmt.Sprintf("y_min: %s", triggeredWord(y)))
	r.writeLine(fmt.Sprintf("z_min: %s", triggeredWord(z)))
}

func triggeredWord(triggered bool) string {
	if triggered {
		return "TRIGGERED"
	}
	return "open"
}

// Settings emits the M503 settings report as a sequence of info lines.
func (r *Responder) Settings(state *MachineState, cfg *MachineConfig) {
	r.Info(fmt.Sprintf("Position: X:%.2f Y:%.2f Z:%.2f", state.Position.X, state.Position.Y, state.Position.Z))
	if state.AbsoluteMode {
		r.Info("Mode: Absolute (G90)")
	} else {
		r.Info("Mode: Relative (G91)")
	}
	r.Info(fmt.Sprintf("Speed factor: %.0f%%", state.SpeedFactor))
	r.Info(fmt.Sprintf("Idle timeout: %.0fs", state.IdleTimeoutS))
	r.Info(fmt.Sprintf("Homed: X:%t Y:%t Z:%t", state.Homed[AxisX], state.Homed[AxisY], state.Homed[AxisZ]))
	r.Info(fmt.Sprintf("Max velocity XY: %.1f mm/s", cfg.Axes[AxisX].MaxVelocityMMS))
	r.Info(fmt.Sprintf("Max velocity Z: %.1f mm/s", cfg.Axes[AxisZ].MaxVelocityMMS))
}
