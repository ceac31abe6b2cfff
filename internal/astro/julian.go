// Package astro holds the time and angle helpers shared by the ephemeris,
// sidereal and orbit packages.
package astro

import (
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// J2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00 TT).
const J2000 = 2451545.0

// DaysPerCentury is the length of a Julian century in days.
const DaysPerCentury = 36525.0

// JulianDate converts t to a Julian Date on the Gregorian calendar. UT is
// treated as TT, well inside the precision of the sidereal calculator.
func JulianDate(t time.Time) float64 {
	return julian.TimeToJD(t)
}

// J2000Centuries returns Julian centuries elapsed since J2000.0.
func J2000Centuries(t time.Time) float64 {
	return (JulianDate(t) - J2000) / DaysPerCentury
}
