// Package doppler computes the Doppler-shifted frequency of a satellite
// transmitter as seen by a ground observer.
//
// The non-relativistic approximation f' = f * (1 - v/c) is accurate to well
// under a hertz at the few-km/s radial velocities of Earth-orbiting
// satellites. Sign convention follows range rate: positive radial velocity
// means the satellite is receding and the received frequency shifts down.
package doppler

// SpeedOfLight in m/s.
const SpeedOfLight = 299792458.0

// ShiftedFrequency returns the received frequency in Hz for a transmitter
// at nominalHz given the observer-relative radial velocity in m/s
// (positive = receding). A zero radial velocity returns the nominal
// frequency unchanged.
func ShiftedFrequency(nominalHz, radialVelocityMS float64) float64 {
	return nominalHz * (1 - radialVelocityMS/SpeedOfLight)
}

// Shift returns the frequency offset in Hz relative to nominal. Negative
// for a receding satellite.
func Shift(nominalHz, radialVelocityMS float64) float64 {
	return ShiftedFrequency(nominalHz, radialVelocityMS) - nominalHz
}
