package doppler

import (
	"math"
	"testing"
)

// TestShiftedFrequencySign verifies the sign convention: receding targets
// shift down, approaching targets shift up, stationary targets pass
// through unchanged.
func TestShiftedFrequencySign(t *testing.T) {
	const nominal = 145.8e6 // ISS voice downlink, Hz

	if got := ShiftedFrequency(nominal, 7000); got >= nominal {
		t.Errorf("receding: ShiftedFrequency = %v, want < %v", got, nominal)
	}
	if got := ShiftedFrequency(nominal, -7000); got <= nominal {
		t.Errorf("approaching: ShiftedFrequency = %v, want > %v", got, nominal)
	}
	if got := ShiftedFrequency(nominal, 0); got != nominal {
		t.Errorf("stationary: ShiftedFrequency = %v, want %v", got, nominal)
	}
}

// TestShiftMagnitude checks the shift against a hand-computed value: a
// 145.8 MHz carrier at 7 km/s range rate shifts by f*v/c ~ 3.4 kHz.
func TestShiftMagnitude(t *testing.T) {
	got := Shift(145.8e6, 7000)
	want := -145.8e6 * 7000 / SpeedOfLight

	if math.Abs(got-want) > 1e-6 {
		t.Errorf("Shift = %v, want %v", got, want)
	}
	if math.Abs(got) < 3000 || math.Abs(got) > 4000 {
		t.Errorf("Shift magnitude %v Hz outside the expected ~3.4 kHz range", math.Abs(got))
	}
}
