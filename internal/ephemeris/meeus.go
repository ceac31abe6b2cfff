package ephemeris

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/solar"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/astro"
)

// Ephemeris library choice: github.com/soniakeys/meeus/v3
//
// Pure Go (no CGO, no data files), covers both bodies we need:
//   - Sun: solar.ApparentLongitude (Meeus ch. 25, includes nutation and aberration)
//   - Moon: moonposition.Position (Meeus ch. 47, ELP-2000/82 truncated series)
//     referred to the mean equinox of date, so nutation in longitude is added
//     to get the apparent longitude.
//
// Accuracy is ~0.01° for the Sun and ~0.003° for the Moon, far below the
// ~0.3° uncertainty of the linear ayanamsa applied downstream.

// kmPerAU is the IAU 2012 astronomical unit in kilometres.
const kmPerAU = 149597870.7

// Meeus computes Sun and Moon positions analytically.
// Safe for concurrent use; it holds no mutable state.
type Meeus struct {
	interval Interval
	logger   *slog.Logger
}

// NewMeeus creates a Meeus provider that accepts times within interval.
func NewMeeus(interval Interval, logger *slog.Logger) *Meeus {
	logger.Debug("meeus ephemeris initialized",
		"min", interval.Min.UTC().Format(time.RFC3339),
		"max", interval.Max.UTC().Format(time.RFC3339),
	)
	return &Meeus{interval: interval, logger: logger}
}

// Range returns the interval the provider accepts.
func (m *Meeus) Range() Interval {
	return m.interval
}

// Longitude returns the geocentric apparent ecliptic longitude in degrees.
func (m *Meeus) Longitude(body Body, t time.Time) (float64, error) {
	if err := checkRange(m.interval, t); err != nil {
		return 0, err
	}

	jde := astro.JulianDate(t)
	switch body {
	case Sun:
		return solar.ApparentLongitude(base.J2000Century(jde)).Deg(), nil
	case Moon:
		λ, _, _ := moonposition.Position(jde)
		Δψ, _ := nutation.Nutation(jde)
		return (λ + Δψ).Deg(), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownBody, body)
	}
}

// Distance returns the geocentric distance of the body in AU.
func (m *Meeus) Distance(body Body, t time.Time) (float64, error) {
	if err := checkRange(m.interval, t); err != nil {
		return 0, err
	}

	jde := astro.JulianDate(t)
	switch body {
	case Sun:
		return solar.Radius(base.J2000Century(jde)), nil
	case Moon:
		_, _, Δ := moonposition.Position(jde)
		return Δ / kmPerAU, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownBody, body)
	}
}
