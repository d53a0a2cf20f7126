package machine

// UIDriver is the narrow external-collaborator interface named in spec §9:
// "polymorphic over the capability set {draw, onButtonClick,
// onEncoderTurn}". The dispatcher only ever calls Tick; button/encoder
// input is the UI implementation's own concern and never feeds back into
// the motion core directly, keeping the core free of UI interleaving.
type UIDriver interface {
	// Tick is called once per dispatcher pass (non-blocking). It is not
	// called while a motion or homing sequence blocks the dispatcher.
	Tick(state *MachineState, cfg *MachineConfig)
}

type noopUI struct{}

func (noopUI) Tick(*MachineState, *MachineConfig) {}

// NoopUI is a UIDriver that draws nothing, the default for hosts with no
// display wired.
var NoopUI UIDriver = noopUI{}

// Buzzer is the narrow seam for the out-of-scope audible buzzer
// (original_source/io/buzzer.cpp). The dispatcher's boot sequence calls
// PlayStartup the way main.cpp's setup() calls Buzzer::playStartup(), but
// no tone generation is implemented here.
type Buzzer interface {
	PlayStartup()
	PlayError()
}

type noopBuzzer struct{}

func (noopBuzzer) PlayStartup() {}
func (noopBuzzer) PlayError()   {}

// NoopBuzzer is a Buzzer that makes no sound.
var NoopBuzzer Buzzer = noopBuzzer{}
