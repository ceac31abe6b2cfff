package orbit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/ephemeris"
	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/sidereal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// staticProvider reports fixed tropical longitudes and distances.
type staticProvider struct {
	sunLon, moonLon   float64
	sunDist, moonDist float64
	failAt            time.Time
}

func (p staticProvider) Longitude(body ephemeris.Body, t time.Time) (float64, error) {
	if t.Equal(p.failAt) {
		return 0, errors.New("no data")
	}
	if body == ephemeris.Sun {
		return p.sunLon, nil
	}
	return p.moonLon, nil
}

func (p staticProvider) Distance(body ephemeris.Body, _ time.Time) (float64, error) {
	if body == ephemeris.Sun {
		return p.sunDist, nil
	}
	return p.moonDist, nil
}

// longitudeOnly lacks distances.
type longitudeOnly struct{}

func (longitudeOnly) Longitude(ephemeris.Body, time.Time) (float64, error) { return 0, nil }

func TestMonthRequest(t *testing.T) {
	req, err := MonthRequest(2026, 2)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), req.Start)
	assert.Equal(t, 30, req.Days)
	assert.Equal(t, 4, req.StepsPerDay)

	_, err = MonthRequest(2026, 13)
	assert.Error(t, err)
	_, err = MonthRequest(2026, 0)
	assert.Error(t, err)
}

func TestNewTracerRequiresDistancer(t *testing.T) {
	_, err := NewTracer(longitudeOnly{}, DefaultScale(), testLogger())
	assert.Error(t, err)
}

func TestTrackScaling(t *testing.T) {
	a := sidereal.Ayanamsa(2026)
	// Sidereal 0° for the Moon and 90° for the Sun.
	p := staticProvider{moonLon: a, sunLon: 90 + a, moonDist: 0.00257, sunDist: 1.0167}
	tr, err := NewTracer(p, DefaultScale(), testLogger())
	require.NoError(t, err)

	req, err := MonthRequest(2026, 3)
	require.NoError(t, err)
	track, err := tr.Track(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, track.Points, 30*4+1)
	assert.Equal(t, req.Start, track.Points[0].Time)
	assert.Equal(t, req.Start.Add(30*24*time.Hour), track.Points[len(track.Points)-1].Time)
	assert.Equal(t, 6*time.Hour, track.Points[1].Time.Sub(track.Points[0].Time))

	pt := track.Points[0]
	assert.InDelta(t, 0, pt.MoonLongitude, 1e-9)
	assert.InDelta(t, 90, pt.SunLongitude, 1e-9)
	assert.InDelta(t, 0.00257*300, pt.MoonX, 1e-9)
	assert.InDelta(t, 0, pt.MoonY, 1e-9)
	assert.InDelta(t, 0, pt.SunX, 1e-9)
	assert.InDelta(t, (1+0.0167*15)*2.8, pt.SunY, 1e-9)
}

func TestVisualSunDistance(t *testing.T) {
	s := DefaultScale()
	assert.InDelta(t, 1.0, s.VisualSunDistance(1.0), 1e-12)
	assert.InDelta(t, 1.2505, s.VisualSunDistance(1.0167), 1e-9)
	assert.InDelta(t, 0.7495, s.VisualSunDistance(0.9833), 1e-9)
}

func TestTrackSkipsFailedSamples(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := staticProvider{moonDist: 0.0025, sunDist: 1, failAt: start.Add(12 * time.Hour)}
	tr, err := NewTracer(p, DefaultScale(), testLogger())
	require.NoError(t, err)

	track, err := tr.Track(context.Background(), Request{Start: start, Days: 1, StepsPerDay: 4})
	require.NoError(t, err)
	assert.Equal(t, 1, track.Errors)
	assert.Len(t, track.Points, 4)
}

func TestTrackRejectsNonFinite(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	req := Request{Start: start, Days: 1, StepsPerDay: 2}

	for name, p := range map[string]staticProvider{
		"nan longitude": {moonLon: math.NaN(), moonDist: 0.0025, sunDist: 1},
		"inf longitude": {sunLon: math.Inf(1), moonDist: 0.0025, sunDist: 1},
		"nan distance":  {moonDist: math.NaN(), sunDist: 1},
		"zero distance": {moonDist: 0.0025},
	} {
		t.Run(name, func(t *testing.T) {
			tr, err := NewTracer(p, DefaultScale(), testLogger())
			require.NoError(t, err)

			_, err = tr.Track(context.Background(), req)
			assert.ErrorIs(t, err, sidereal.ErrInvalidInput)
		})
	}
}

// TestTrackMatchesCalculator checks that track longitudes agree with the
// sidereal calculator at every sample.
func TestTrackMatchesCalculator(t *testing.T) {
	m := ephemeris.NewMeeus(ephemeris.DefaultInterval, testLogger())
	tr, err := NewTracer(m, DefaultScale(), testLogger())
	require.NoError(t, err)
	calc := sidereal.New(m, sidereal.DefaultTables())

	track, err := tr.Track(context.Background(), Request{Start: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), Days: 2, StepsPerDay: 4})
	require.NoError(t, err)
	for _, p := range track.Points {
		pos, err := calc.Compute(p.Time)
		require.NoError(t, err)
		assert.InDelta(t, pos.MoonLongitude, p.MoonLongitude, 1e-9, p.Time.String())
		assert.InDelta(t, pos.SunLongitude, p.SunLongitude, 1e-9, p.Time.String())
	}
}

func TestTrackErrors(t *testing.T) {
	m := ephemeris.NewMeeus(ephemeris.DefaultInterval, testLogger())
	tr, err := NewTracer(m, DefaultScale(), testLogger())
	require.NoError(t, err)

	_, err = tr.Track(context.Background(), Request{})
	assert.Error(t, err)

	_, err = tr.Track(context.Background(), Request{Start: time.Now(), Days: 1000000, StepsPerDay: 24})
	assert.Error(t, err)

	req, _ := MonthRequest(1700, 1)
	_, err = tr.Track(context.Background(), req)
	assert.ErrorIs(t, err, ephemeris.ErrOutOfRange)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, _ = MonthRequest(2026, 1)
	_, err = tr.Track(ctx, req)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrackMeeus(t *testing.T) {
	m := ephemeris.NewMeeus(ephemeris.DefaultInterval, testLogger())
	tr, err := NewTracer(m, DefaultScale(), testLogger())
	require.NoError(t, err)

	req, err := MonthRequest(2026, 1)
	require.NoError(t, err)
	track, err := tr.Track(context.Background(), req)
	require.NoError(t, err)

	for _, p := range track.Points {
		require.True(t, p.MoonDistance > 0.00235 && p.MoonDistance < 0.00275, "moon distance %v AU", p.MoonDistance)
		require.True(t, p.SunDistance > 0.98 && p.SunDistance < 1.02, "sun distance %v AU", p.SunDistance)
		r := math.Hypot(p.MoonX, p.MoonY)
		require.InDelta(t, p.MoonDistance*300, r, 1e-9)
		require.True(t, math.Hypot(p.SunX, p.SunY) < 4, "sun outside frame")
	}

	// A 30-day window spans a full anomalistic month.
	assert.Less(t, track.Perigee.MoonDistance, track.Apogee.MoonDistance)
	assert.Less(t, track.Perigee.MoonDistance, 0.00250)
	assert.Greater(t, track.Apogee.MoonDistance, 0.00268)
}

func TestYearRequestClosesSunOrbit(t *testing.T) {
	m := ephemeris.NewMeeus(ephemeris.DefaultInterval, testLogger())
	tr, err := NewTracer(m, DefaultScale(), testLogger())
	require.NoError(t, err)

	track, err := tr.Track(context.Background(), YearRequest(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.Len(t, track.Points, 366*2+1)

	first, last := track.Points[0], track.Points[len(track.Points)-1]
	diff := math.Abs(first.SunLongitude - last.SunLongitude)
	if diff > 180 {
		diff = 360 - diff
	}
	assert.Less(t, diff, 2.0, "sun should return to its start after a year")
}

func TestRenderCSV(t *testing.T) {
	p := staticProvider{moonDist: 0.0025, sunDist: 1}
	tr, err := NewTracer(p, DefaultScale(), testLogger())
	require.NoError(t, err)

	track, err := tr.Track(context.Background(), Request{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Days: 1, StepsPerDay: 2})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(RenderCSV(track)), "\n")
	require.Len(t, lines, 1+3)
	assert.True(t, strings.HasPrefix(lines[0], "time,moon_lon"))
	assert.True(t, strings.HasPrefix(lines[2], "2026-01-01T12:00:00Z,"))
}
