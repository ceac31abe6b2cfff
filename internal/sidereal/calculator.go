// Package sidereal converts tropical Sun and Moon longitudes into the
// sidereal (nirayana) frame and derives nakshatra, tithi and raasi.
//
// The ayanamsa is the linear Lahiri approximation
//
//	23.85 + (year - 2000) * 0.01397
//
// evaluated on the UTC calendar year of the timestamp.
package sidereal

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/astro"
	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/ephemeris"
)

const (
	NakshatraCount = 27
	TithiCount     = 30
	RaasiCount     = 12

	// NakshatraSpan is the width of one nakshatra in degrees (13°20′).
	NakshatraSpan = 360.0 / NakshatraCount
	// TithiSpan is the Moon-Sun elongation covered by one tithi.
	TithiSpan = 12.0
	// RaasiSpan is the width of one sign.
	RaasiSpan = 30.0

	ayanamsaAt2000     = 23.85
	ayanamsaPerYear    = 0.01397
	fullMoonIndex      = 14
	newMoonIndex       = 29
	tithisPerFortnight = 15
)

// Paksha is the lunar fortnight.
type Paksha int

const (
	Waxing Paksha = iota // shukla, tithi 1-15
	Waning               // krishna, tithi 16-30
)

func (p Paksha) String() string {
	if p == Waning {
		return "waning"
	}
	return "waxing"
}

// MarshalText encodes the paksha as its String form.
func (p Paksha) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts "waxing" or "waning" in any case.
func (p *Paksha) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "waxing":
		*p = Waxing
	case "waning":
		*p = Waning
	default:
		return fmt.Errorf("unknown paksha %q", b)
	}
	return nil
}

// PakshaOf returns the fortnight of a 0-based tithi index.
func PakshaOf(tithi int) Paksha {
	if clampIndex(tithi, TithiCount) >= tithisPerFortnight {
		return Waning
	}
	return Waxing
}

// Position is the sidereal state of the Sun and Moon at one instant.
// Longitudes are degrees in [0, 360).
type Position struct {
	Time time.Time `json:"time"`

	TropicalSun   float64 `json:"tropical_sun"`
	TropicalMoon  float64 `json:"tropical_moon"`
	Ayanamsa      float64 `json:"ayanamsa"`
	SunLongitude  float64 `json:"sun_longitude"`
	MoonLongitude float64 `json:"moon_longitude"`
	// PhaseAngle is the Moon-Sun elongation.
	PhaseAngle float64 `json:"phase_angle"`

	NakshatraIndex int    `json:"nakshatra_index"`
	NakshatraName  string `json:"nakshatra_name"`

	TithiIndex  int    `json:"tithi_index"`
	TithiNumber int    `json:"tithi_number"`
	TithiName   string `json:"tithi_name"`
	Paksha      Paksha `json:"paksha"`
	MoonPhase   string `json:"moon_phase"`

	RaasiIndex int    `json:"raasi_index"`
	RaasiName  string `json:"raasi_name"`

	// SolarMonth is the sign occupied by the Sun.
	SolarMonthIndex int    `json:"solar_month_index"`
	SolarMonthName  string `json:"solar_month_name"`
}

// Calculator computes Positions from an ephemeris provider.
// It holds no mutable state and is safe for concurrent use when the
// provider is.
type Calculator struct {
	provider ephemeris.Provider
	tables   Tables
}

// New creates a Calculator that labels positions using tables.
func New(provider ephemeris.Provider, tables Tables) *Calculator {
	return &Calculator{provider: provider, tables: tables}
}

// Tables returns the name tables in use.
func (c *Calculator) Tables() Tables {
	return c.tables
}

// Compute returns the sidereal position at t.
//
// A zero t or a non-finite longitude from the provider yields an
// *InvalidInputError. Provider errors, including *ephemeris.RangeError,
// are returned wrapped with %w.
func (c *Calculator) Compute(t time.Time) (Position, error) {
	if t.IsZero() {
		return Position{}, &InvalidInputError{Reason: "zero timestamp"}
	}

	sunTrop, err := c.longitude(ephemeris.Sun, t)
	if err != nil {
		return Position{}, err
	}
	moonTrop, err := c.longitude(ephemeris.Moon, t)
	if err != nil {
		return Position{}, err
	}

	ayanamsa := Ayanamsa(t.UTC().Year())
	sun := astro.Normalize360(sunTrop - ayanamsa)
	moon := astro.Normalize360(moonTrop - ayanamsa)

	nak := NakshatraIndex(moon)
	tithi := TithiIndex(moon, sun)
	raasi := RaasiIndex(moon)
	month := RaasiIndex(sun)

	return Position{
		Time:            t,
		TropicalSun:     astro.Normalize360(sunTrop),
		TropicalMoon:    astro.Normalize360(moonTrop),
		Ayanamsa:        ayanamsa,
		SunLongitude:    sun,
		MoonLongitude:   moon,
		PhaseAngle:      astro.Normalize360(moon - sun),
		NakshatraIndex:  nak,
		NakshatraName:   c.tables.Nakshatra(nak),
		TithiIndex:      tithi,
		TithiNumber:     tithi + 1,
		TithiName:       c.tables.Tithi(tithi),
		Paksha:          PakshaOf(tithi),
		MoonPhase:       c.tables.MoonPhase(tithi),
		RaasiIndex:      raasi,
		RaasiName:       c.tables.Raasi(raasi),
		SolarMonthIndex: month,
		SolarMonthName:  c.tables.SolarMonth(month),
	}, nil
}

func (c *Calculator) longitude(body ephemeris.Body, t time.Time) (float64, error) {
	lon, err := c.provider.Longitude(body, t)
	if err != nil {
		return 0, fmt.Errorf("%s longitude: %w", body, err)
	}
	if err := checkFinite(body, lon, t); err != nil {
		return 0, err
	}
	return lon, nil
}

// ToSidereal converts the tropical longitude of body at t into a sidereal
// longitude in [0, 360). A non-finite longitude yields an *InvalidInputError.
func ToSidereal(body ephemeris.Body, tropical float64, t time.Time) (float64, error) {
	if err := checkFinite(body, tropical, t); err != nil {
		return 0, err
	}
	return astro.Normalize360(tropical - Ayanamsa(t.UTC().Year())), nil
}

func checkFinite(body ephemeris.Body, lon float64, t time.Time) error {
	if astro.IsFinite(lon) {
		return nil
	}
	return &InvalidInputError{
		Input:  t.UTC().Format(time.RFC3339),
		Reason: fmt.Sprintf("non-finite %s longitude %v", body, lon),
	}
}

// Ayanamsa returns the linear Lahiri ayanamsa in degrees for a calendar year.
func Ayanamsa(year int) float64 {
	return ayanamsaAt2000 + float64(year-2000)*ayanamsaPerYear
}

// NakshatraIndex returns the nakshatra (0-26) containing sidereal longitude lon.
func NakshatraIndex(lon float64) int {
	return sector(astro.Normalize360(lon), NakshatraSpan, NakshatraCount)
}

// TithiIndex returns the tithi (0-29) for the given Moon and Sun longitudes.
func TithiIndex(moon, sun float64) int {
	return sector(astro.Normalize360(moon-sun), TithiSpan, TithiCount)
}

// RaasiIndex returns the sign (0-11) containing longitude lon.
func RaasiIndex(lon float64) int {
	return sector(astro.Normalize360(lon), RaasiSpan, RaasiCount)
}

// sector buckets a normalized angle, clamping to [0, n-1] so that values
// rounding up to 360° land in the last sector.
func sector(deg, span float64, n int) int {
	if math.IsNaN(deg) {
		return 0
	}
	return clampIndex(int(math.Floor(deg/span)), n)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
