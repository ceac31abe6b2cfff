package astro

import "math"

// Normalize360 wraps an angle in degrees into [0, 360). Negative inputs and
// inputs of several turns are handled. NaN and ±Inf yield NaN; callers that accept provider output should check IsFinite first.
func Normalize360(deg float64) float64 {
	deg = math.Mod(deg, 360.0)
	if deg < 0 {
		deg += 360.0
	}
	// -1e-17 + 360 rounds to exactly 360.
	if deg >= 360.0 || deg == 0 {
		return 0
	}
	return deg
}

// Wrap180 wraps an angle in degrees into (-180, 180]. Used for the signed
// shortest difference between two longitudes.
func Wrap180(deg float64) float64 {
	deg = Normalize360(deg)
	if deg > 180.0 {
		deg -= 360.0
	}
	return deg
}

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
