package transform

import (
	"math"
	"time"
)

// j2000 is the Julian Date of the J2000.0 epoch.
const j2000 = 2451545.0

// OmegaEarth is Earth's rotation rate in rad/s (IAU value).
const OmegaEarth = 7.292115146706979e-5

// StateTEME is an SGP4 output state: position in km, velocity in km/s,
// True Equator Mean Equinox frame.
type StateTEME struct {
	Position [3]float64
	Velocity [3]float64
}

// StateECEF is an Earth-fixed state: position in meters, velocity in m/s.
type StateECEF struct {
	Position [3]float64
	Velocity [3]float64
}

// JulianDate converts a UTC time to Julian Date using the standard
// astronomical algorithm.
func JulianDate(t time.Time) float64 {
	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())
	h := float64(t.Hour())
	min := float64(t.Minute())
	s := float64(t.Second()) + float64(t.Nanosecond())/1e9

	// January and February count as months 13/14 of the previous year.
	if m <= 2 {
		y -= 1
		m += 12
	}

	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)

	jd := math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + b - 1524.5
	return jd + (h+min/60+s/3600)/24
}

// GMST returns Greenwich Mean Sidereal Time in radians for a UTC time,
// per the IAU-82 model (Vallado Eq 3-47):
//
//	theta = 67310.54841 + (876600h + 8640184.812866)*T + 0.093104*T^2 - 6.2e-6*T^3
//
// with T in Julian centuries from J2000.0 and the result in seconds of
// time before normalization.
func GMST(t time.Time) float64 {
	tUT1 := (JulianDate(t.UTC()) - j2000) / 36525.0

	sec := 67310.54841 +
		(3155760000.0+8640184.812866)*tUT1 +
		0.093104*tUT1*tUT1 -
		6.2e-6*tUT1*tUT1*tUT1

	sec = math.Mod(sec, 86400.0)
	if sec < 0 {
		sec += 86400.0
	}
	return sec / 86400.0 * 2 * math.Pi
}

// TEMEToECEF rotates a TEME state into the Earth-fixed frame at time t.
// GMST-only rotation (no polar motion or equation of equinoxes), which is
// within ~50 m for Earth orbits — more than enough for look angles.
func TEMEToECEF(st StateTEME, t time.Time) StateECEF {
	return TEMEToECEFWithGMST(st, GMST(t))
}

// TEMEToECEFWithGMST is TEMEToECEF with a precomputed GMST angle, for
// callers evaluating many satellites at the same instant.
//
//	r_ecef = R3(theta) * r_teme
//	v_ecef = R3(theta) * v_teme - omega x r_ecef
func TEMEToECEFWithGMST(st StateTEME, gmst float64) StateECEF {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	px := st.Position[0]*cosG + st.Position[1]*sinG
	py := -st.Position[0]*sinG + st.Position[1]*cosG
	pz := st.Position[2]

	vx := st.Velocity[0]*cosG + st.Velocity[1]*sinG + OmegaEarth*py
	vy := -st.Velocity[0]*sinG + st.Velocity[1]*cosG - OmegaEarth*px
	vz := st.Velocity[2]

	// km -> m, km/s -> m/s.
	return StateECEF{
		Position: [3]float64{px * 1000, py * 1000, pz * 1000},
		Velocity: [3]float64{vx * 1000, vy * 1000, vz * 1000},
	}
}
