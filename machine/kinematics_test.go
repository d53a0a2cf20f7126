package machine

import "testing"

func TestKinematicsRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	k := NewKinematics(&cfg)

	for _, tc := range []struct {
		axis Axis
		mm   float64
	}{
		{AxisX, 100.25}, {AxisY, 50.1}, {AxisZ, 2.5},
	} {
		steps := k.MMToSteps(tc.axis, tc.mm)
		back := k.StepsToMM(tc.axis, steps)
		tolerance := 1.0 / cfg.Axes[tc.axis].StepsPerMM
		if diff := absF(back - tc.mm); diff > tolerance {
			t.Errorf("axis %v: round trip %v -> %d -> %v differs by %v, want <= %v", tc.axis, tc.mm, steps, back, diff, tolerance)
		}
	}
}

func TestKinematicsRounds(t *testing.T) {
	cfg := DefaultConfig()
	k := NewKinematics(&cfg)
	// 160 steps/mm * 1.003 mm = 160.48 -> rounds to 160, not truncates to 160 either;
	// pick a value where round and truncate disagree.
	steps := k.MMToSteps(AxisX, 1.0049) // 1.0049*160 = 160.784 -> rounds to 161
	if steps != 161 {
		t.Errorf("expected rounding to 161, got %d", steps)
	}
}

func TestIsValidPosition(t *testing.T) {
	cfg := DefaultConfig()
	k := NewKinematics(&cfg)

	if !k.IsValidPosition(Point3D{X: 0, Y: 0, Z: 0}) {
		t.Errorf("origin should be valid")
	}
	if !k.IsValidPosition(Point3D{X: 234, Y: 191, Z: 203}) {
		t.Errorf("max corner should be valid")
	}
	if k.IsValidPosition(Point3D{X: 300, Y: 0, Z: 0}) {
		t.Errorf("X=300 exceeds XMax=234, should be invalid")
	}
	if k.IsValidPosition(Point3D{X: -1, Y: 0, Z: 0}) {
		t.Errorf("negative X should be invalid")
	}
}
