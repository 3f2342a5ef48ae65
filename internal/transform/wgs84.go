// Package transform holds the coordinate math behind the local ephemeris
// collaborator: WGS-84 ground sites, observer look angles, and the
// TEME-to-ECEF frame rotation for SGP4 output.
package transform

import "math"

// WGS-84 ellipsoid.
const (
	wgs84A  = 6378137.0             // semi-major axis, meters
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// Site is a ground observer. The ECEF vector is precomputed at
// construction so one site can serve many look-angle evaluations.
type Site struct {
	LatRad float64
	LonRad float64
	AltM   float64
	ECEF   [3]float64 // meters
}

// NewSite builds a Site from geodetic coordinates: latitude and longitude
// in degrees, altitude in meters above the ellipsoid.
func NewSite(latDeg, lonDeg, altM float64) Site {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)

	// Radius of curvature in the prime vertical.
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return Site{
		LatRad: lat,
		LonRad: lon,
		AltM:   altM,
		ECEF: [3]float64{
			(n + altM) * cosLat * math.Cos(lon),
			(n + altM) * cosLat * math.Sin(lon),
			(n*(1-wgs84E2) + altM) * sinLat,
		},
	}
}

// LookAngles is the observer-to-satellite pointing solution. Azimuth is a
// compass bearing (0 = North, clockwise), elevation the angle above the
// horizon.
type LookAngles struct {
	AzimuthDeg   float64
	ElevationDeg float64
	RangeKm      float64
}

// LookAngles computes azimuth, elevation, and slant range to a satellite
// given in ECEF meters, via the SEZ (South-East-Zenith) topocentric
// rotation (Vallado section 4.4).
func (s Site) LookAngles(sat [3]float64) LookAngles {
	rx := sat[0] - s.ECEF[0]
	ry := sat[1] - s.ECEF[1]
	rz := sat[2] - s.ECEF[2]

	sinLat := math.Sin(s.LatRad)
	cosLat := math.Cos(s.LatRad)
	sinLon := math.Sin(s.LonRad)
	cosLon := math.Cos(s.LonRad)

	south := sinLat*cosLon*rx + sinLat*sinLon*ry - cosLat*rz
	east := -sinLon*rx + cosLon*ry
	zenith := cosLat*cosLon*rx + cosLat*sinLon*ry + sinLat*rz

	rng := math.Sqrt(south*south + east*east + zenith*zenith)

	// North is the -South direction in SEZ, so az = atan2(E, -S).
	az := math.Atan2(east, -south)
	if az < 0 {
		az += 2 * math.Pi
	}

	return LookAngles{
		AzimuthDeg:   az * 180 / math.Pi,
		ElevationDeg: math.Asin(zenith/rng) * 180 / math.Pi,
		RangeKm:      rng / 1000,
	}
}
