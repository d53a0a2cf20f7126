package machine

import "testing"

func TestParseMove(t *testing.T) {
	p := NewParser()
	cmd := p.Parse("G1 X10.5 Y-3 F1200")
	if cmd.Tag != CmdMove {
		t.Fatalf("expected CmdMove, got %v", cmd.Tag)
	}
	if !cmd.Move.X.Present || cmd.Move.X.Value != 10.5 {
		t.Errorf("expected X=10.5, got %+v", cmd.Move.X)
	}
	if !cmd.Move.Y.Present || cmd.Move.Y.Value != -3 {
		t.Errorf("expected Y=-3, got %+v", cmd.Move.Y)
	}
	if cmd.Move.Z.Present {
		t.Errorf("Z should be absent, got %+v", cmd.Move.Z)
	}
	if !cmd.Move.F.Present || cmd.Move.F.Value != 1200 {
		t.Errorf("expected F=1200, got %+v", cmd.Move.F)
	}
}

func TestParseMoveLowercaseAndComment(t *testing.T) {
	p := NewParser()
	cmd := p.Parse("g0 x5 ; move over ")
	if cmd.Tag != CmdMove {
		t.Fatalf("expected CmdMove, got %v", cmd.Tag)
	}
	if !cmd.Move.X.Present || cmd.Move.X.Value != 5 {
		t.Errorf("expected X=5, got %+v", cmd.Move.X)
	}
}

func TestParseHomeSpecificAxes(t *testing.T) {
	p := NewParser()
	cmd := p.Parse("G28 X Y")
	if cmd.Tag != CmdHome {
		t.Fatalf("expected CmdHome, got %v", cmd.Tag)
	}
	if !cmd.Home.X || !cmd.Home.Y || cmd.Home.Z || cmd.Home.All {
		t.Errorf("expected X,Y only, got %+v", cmd.Home)
	}
}

func TestParseHomeAll(t *testing.T) {
	p := NewParser()
	cmd := p.Parse("G28")
	if cmd.Tag != CmdHome {
		t.Fatalf("expected CmdHome, got %v", cmd.Tag)
	}
	if !cmd.Home.All {
		t.Errorf("expected All=true for a bare G28, got %+v", cmd.Home)
	}
}

func TestParseModesAndQueries(t *testing.T) {
	p := NewParser()
	cases := map[string]CommandTag{
		"G90":  CmdModeAbsolute,
		"G91":  CmdModeRelative,
		"M114": CmdQueryPosition,
		"M115": CmdQueryFirmware,
		"M119": CmdQueryEndstops,
		"M503": CmdReportSettings,
		"M24":  CmdResume,
		"M25":  CmdPause,
		"M0":   CmdStop,
		"M410": CmdQuickStop,
	}
	for line, want := range cases {
		if got := p.Parse(line).Tag; got != want {
			t.Errorf("%q: expected tag %v, got %v", line, want, got)
		}
	}
}

func TestParseSetPosition(t *testing.T) {
	p := NewParser()
	cmd := p.Parse("G92 X0 Y0")
	if cmd.Tag != CmdSetPosition {
		t.Fatalf("expected CmdSetPosition, got %v", cmd.Tag)
	}
	if !cmd.SetPos.X.Present || cmd.SetPos.X.Value != 0 {
		t.Errorf("expected X=0 present, got %+v", cmd.SetPos.X)
	}
	if cmd.SetPos.Z.Present {
		t.Errorf("Z should be absent, got %+v", cmd.SetPos.Z)
	}
}

func TestParseDisableWithS(t *testing.T) {
	p := NewParser()
	cmd := p.Parse("M84 S0")
	if cmd.Tag != CmdDisableSteppers {
		t.Fatalf("expected CmdDisableSteppers, got %v", cmd.Tag)
	}
	if !cmd.Disable.S.Present || cmd.Disable.S.Value != 0 {
		t.Errorf("expected S=0 present, got %+v", cmd.Disable.S)
	}
}

func TestParseDisableBare(t *testing.T) {
	p := NewParser()
	cmd := p.Parse("M84")
	if cmd.Tag != CmdDisableSteppers {
		t.Fatalf("expected CmdDisableSteppers, got %v", cmd.Tag)
	}
	if cmd.Disable.S.Present {
		t.Errorf("expected S absent on a bare M84, got %+v", cmd.Disable.S)
	}
}

func TestParseSpeedFactor(t *testing.T) {
	p := NewParser()
	cmd := p.Parse("M220 S150")
	if cmd.Tag != CmdSetSpeedFactor {
		t.Fatalf("expected CmdSetSpeedFactor, got %v", cmd.Tag)
	}
	if !cmd.SpeedScale.S.Present || cmd.SpeedScale.S.Value != 150 {
		t.Errorf("expected S=150, got %+v", cmd.SpeedScale.S)
	}
}

func TestParseDiagnosticMotorAxis(t *testing.T) {
	p := NewParser()
	if got := p.Parse("M999 X").Diagnostic.Axis; got != AxisX {
		t.Errorf("expected AxisX, got %v", got)
	}
	if got := p.Parse("M999 Y").Diagnostic.Axis; got != AxisY {
		t.Errorf("expected AxisY, got %v", got)
	}
	// Default (no axis named) falls back to Z, matching the original's
	// diagnostic default.
	if got := p.Parse("M999").Diagnostic.Axis; got != AxisZ {
		t.Errorf("expected AxisZ default, got %v", got)
	}
}

func TestParseUnknownAndMalformed(t *testing.T) {
	p := NewParser()
	for _, line := range []string{"", "   ", ";just a comment", "G", "G999", "M9999999", "XYZ"} {
		if got := p.Parse(line).Tag; got != CmdUnknown {
			t.Errorf("%q: expected CmdUnknown, got %v", line, got)
		}
	}
}
