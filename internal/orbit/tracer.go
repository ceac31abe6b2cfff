// Package orbit traces the geocentric paths of the Moon and Sun in the
// sidereal ecliptic plane, with coordinates scaled for a 2D drawing.
package orbit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/astro"
	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/ephemeris"
	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/sidereal"
)

// Scale maps astronomical distances to drawing units.
type Scale struct {
	// Moon multiplies the Moon distance in AU (~0.00257 AU → ~0.77 units).
	Moon float64 `json:"moon"`
	// Sun multiplies the exaggerated Sun distance.
	Sun float64 `json:"sun"`
	// SunEccentricity exaggerates the Sun's deviation from 1 AU so the
	// nearly circular apparent orbit reads as an ellipse.
	SunEccentricity float64 `json:"sun_eccentricity"`
}

// DefaultScale fits both paths inside a frame of half-height 4 units.
func DefaultScale() Scale {
	return Scale{Moon: 300, Sun: 2.8, SunEccentricity: 15}
}

// VisualSunDistance returns the exaggerated Sun distance before scaling.
func (s Scale) VisualSunDistance(au float64) float64 {
	return 1 + (au-1)*s.SunEccentricity
}

// Point is the Sun and Moon position at one instant.
// Longitudes are sidereal degrees in [0, 360); distances are in AU.
type Point struct {
	Time          time.Time `json:"time"`
	MoonLongitude float64   `json:"moon_longitude"`
	MoonDistance  float64   `json:"moon_distance_au"`
	SunLongitude  float64   `json:"sun_longitude"`
	SunDistance   float64   `json:"sun_distance_au"`
	MoonX         float64   `json:"moon_x"`
	MoonY         float64   `json:"moon_y"`
	SunX          float64   `json:"sun_x"`
	SunY          float64   `json:"sun_y"`
}

// Request selects the sampled span of a track.
type Request struct {
	Start       time.Time
	Days        int
	StepsPerDay int
}

const (
	defaultDays        = 30
	defaultStepsPerDay = 4
	maxPoints          = 100_000
)

// MonthRequest starts at the first of the month in UTC with the default span
// of 30 days at 4 samples per day.
func MonthRequest(year, month int) (Request, error) {
	if month < 1 || month > 12 {
		return Request{}, fmt.Errorf("month %d outside 1-12", month)
	}
	return Request{
		Start:       time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
		Days:        defaultDays,
		StepsPerDay: defaultStepsPerDay,
	}, nil
}

// YearRequest covers 366 days from start at 2 samples per day, enough to
// close the Sun's apparent orbit.
func YearRequest(start time.Time) Request {
	return Request{Start: start, Days: 366, StepsPerDay: 2}
}

func (r Request) validate() error {
	if r.Start.IsZero() {
		return errors.New("orbit start is required")
	}
	if r.Days <= 0 || r.StepsPerDay <= 0 {
		return fmt.Errorf("orbit days (%d) and steps per day (%d) must be positive", r.Days, r.StepsPerDay)
	}
	if n := r.Days*r.StepsPerDay + 1; n > maxPoints {
		return fmt.Errorf("orbit track of %d points exceeds %d", n, maxPoints)
	}
	return nil
}

// Track is a sampled orbit.
type Track struct {
	Start  time.Time `json:"start"`
	Points []Point   `json:"points"`
	Errors int       `json:"errors"`
	// Perigee and Apogee are the samples with the smallest and largest
	// Moon distance.
	Perigee Point `json:"perigee"`
	Apogee  Point `json:"apogee"`
}

// Tracer samples a provider that reports both longitude and distance.
type Tracer struct {
	provider ephemeris.Provider
	distance ephemeris.Distancer
	scale    Scale
	logger   *slog.Logger
}

// NewTracer creates a Tracer. The provider must implement ephemeris.Distancer.
func NewTracer(provider ephemeris.Provider, scale Scale, logger *slog.Logger) (*Tracer, error) {
	d, ok := provider.(ephemeris.Distancer)
	if !ok {
		return nil, fmt.Errorf("orbit tracing needs distances; provider %T has none", provider)
	}
	return &Tracer{provider: provider, distance: d, scale: scale, logger: logger}, nil
}

// Track samples Days*StepsPerDay+1 instants from Start, both ends included.
// Failed samples are logged and skipped; Track fails only when the request is
// invalid, the context is cancelled, or no sample succeeded.
func (t *Tracer) Track(ctx context.Context, req Request) (*Track, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	n := req.Days * req.StepsPerDay
	step := 24 * time.Hour / time.Duration(req.StepsPerDay)
	track := &Track{Start: req.Start, Points: make([]Point, 0, n+1)}
	var firstErr error

	for i := 0; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("orbit track cancelled: %w", err)
		}

		at := req.Start.Add(time.Duration(i) * step)
		p, err := t.point(at)
		if err != nil {
			track.Errors++
			if firstErr == nil {
				firstErr = err
			}
			t.logger.Warn("orbit sample failed",
				"timestamp", at.UTC().Format(time.RFC3339),
				"error", err,
			)
			continue
		}
		track.Points = append(track.Points, p)
	}

	if len(track.Points) == 0 {
		return nil, fmt.Errorf("all %d orbit samples failed: %w", track.Errors, firstErr)
	}

	track.Perigee, track.Apogee = track.Points[0], track.Points[0]
	for _, p := range track.Points[1:] {
		if p.MoonDistance < track.Perigee.MoonDistance {
			track.Perigee = p
		}
		if p.MoonDistance > track.Apogee.MoonDistance {
			track.Apogee = p
		}
	}

	t.logger.Debug("orbit track complete",
		"start", req.Start.UTC().Format(time.RFC3339),
		"points", len(track.Points),
		"errors", track.Errors,
	)
	return track, nil
}

// point computes one sample in sidereal longitude.
func (t *Tracer) point(at time.Time) (Point, error) {
	var lon, dist [2]float64
	for i, body := range []ephemeris.Body{ephemeris.Moon, ephemeris.Sun} {
		l, err := t.provider.Longitude(body, at)
		if err != nil {
			return Point{}, fmt.Errorf("%s longitude: %w", body, err)
		}
		if lon[i], err = sidereal.ToSidereal(body, l, at); err != nil {
			return Point{}, err
		}
		d, err := t.distance.Distance(body, at)
		if err != nil {
			return Point{}, fmt.Errorf("%s distance: %w", body, err)
		}
		if !astro.IsFinite(d) || d <= 0 {
			return Point{}, &sidereal.InvalidInputError{
				Input:  at.UTC().Format(time.RFC3339),
				Reason: fmt.Sprintf("%s distance %v", body, d),
			}
		}
		dist[i] = d
	}

	moonR := dist[0] * t.scale.Moon
	sunR := t.scale.VisualSunDistance(dist[1]) * t.scale.Sun
	moonRad, sunRad := astro.DegToRad(lon[0]), astro.DegToRad(lon[1])

	return Point{
		Time:          at,
		MoonLongitude: lon[0],
		MoonDistance:  dist[0],
		SunLongitude:  lon[1],
		SunDistance:   dist[1],
		MoonX:         moonR * math.Cos(moonRad),
		MoonY:         moonR * math.Sin(moonRad),
		SunX:          sunR * math.Cos(sunRad),
		SunY:          sunR * math.Sin(sunRad),
	}, nil
}
