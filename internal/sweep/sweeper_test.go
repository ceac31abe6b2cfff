package sweep

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/ephemeris"
	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/sidereal"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// linearProvider moves the Sun and Moon at their mean daily motions.
type linearProvider struct{}

func (linearProvider) Longitude(body ephemeris.Body, t time.Time) (float64, error) {
	days := t.Sub(epoch).Hours() / 24
	if body == ephemeris.Sun {
		return 280 + 0.985647*days, nil
	}
	return 10 + 13.176358*days, nil
}

// failingComputer fails at every time for which fail returns true.
type failingComputer struct {
	inner Computer
	fail  func(time.Time) bool
	err   error
}

func (f failingComputer) Compute(t time.Time) (sidereal.Position, error) {
	if f.fail(t) {
		return sidereal.Position{}, f.err
	}
	return f.inner.Compute(t)
}

func newCalc() *sidereal.Calculator {
	return sidereal.New(linearProvider{}, sidereal.DefaultTables())
}

func TestYearRequestTimes(t *testing.T) {
	times, err := YearRequest(2026, 4*time.Hour).Times()
	require.NoError(t, err)

	assert.Len(t, times, 365*6)
	assert.True(t, times[0].Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, times[len(times)-1].Equal(time.Date(2026, 12, 31, 20, 0, 0, 0, time.UTC)))

	leap, err := YearRequest(2024, 4*time.Hour).Times()
	require.NoError(t, err)
	assert.Len(t, leap, 366*6)
}

func TestWindowRequestTimes(t *testing.T) {
	center := time.Date(2026, 2, 17, 12, 0, 0, 0, time.UTC)
	times, err := WindowRequest(center, 360*time.Hour, 400).Times()
	require.NoError(t, err)

	require.Len(t, times, 400)
	assert.True(t, times[0].Equal(center.Add(-360*time.Hour)))
	assert.True(t, times[399].Equal(center.Add(360*time.Hour)))
	for i := 1; i < len(times); i++ {
		require.True(t, times[i].After(times[i-1]), "times not ascending at %d", i)
	}

	single, err := WindowRequest(center, time.Hour, 1).Times()
	require.NoError(t, err)
	assert.Equal(t, []time.Time{center.Add(-time.Hour)}, single)
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{"zero request", Request{}},
		{"zero step", Request{Start: epoch, End: epoch.Add(time.Hour)}},
		{"negative step", Request{Start: epoch, End: epoch.Add(time.Hour), Step: -time.Minute}},
		{"end before start", Request{Start: epoch, End: epoch.Add(-time.Hour), Step: time.Minute}},
		{"too many steps", Request{Start: epoch, End: epoch.AddDate(10, 0, 0), Step: time.Second}},
		{"too many samples", Request{Start: epoch, End: epoch.Add(time.Hour), Samples: MaxSamples + 1}},
		{"negative samples", Request{Start: epoch, End: epoch.Add(time.Hour), Samples: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.req.Validate())
		})
	}

	assert.NoError(t, YearRequest(2026, time.Hour).Validate())
}

// TestRunMatchesSequential verifies the pooled sweep returns exactly what a
// sequential loop would, in time order.
func TestRunMatchesSequential(t *testing.T) {
	calc := newCalc()
	req := Request{Start: epoch, End: epoch.AddDate(0, 0, 60), Step: 3 * time.Hour}

	times, err := req.Times()
	require.NoError(t, err)
	want := make([]sidereal.Position, len(times))
	for i, at := range times {
		want[i], err = calc.Compute(at)
		require.NoError(t, err)
	}

	res, err := NewSweeper(calc, 8, testLogger()).Run(context.Background(), req)
	require.NoError(t, err)

	if diff := cmp.Diff(want, res.Samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
	assert.Zero(t, res.Errors)
}

func TestRunSummary(t *testing.T) {
	res, err := NewSweeper(newCalc(), 4, testLogger()).Run(context.Background(), YearRequest(2026, 4*time.Hour))
	require.NoError(t, err)

	assert.Len(t, res.Samples, 365*6)

	// Visited is sorted and unique.
	for i := 1; i < len(res.Visited); i++ {
		a, b := res.Visited[i-1], res.Visited[i]
		require.True(t, a.Nakshatra < b.Nakshatra || (a.Nakshatra == b.Nakshatra && a.Tithi < b.Tithi),
			"visited not strictly ordered at %d: %v, %v", i, a, b)
	}
	assert.Greater(t, len(res.Visited), 300)
	assert.LessOrEqual(t, len(res.Visited), StateCount)
	assert.InDelta(t, float64(len(res.Visited))/810*100, res.Coverage(), 1e-9)

	// About 361 nakshatra and 371 tithi changes a year; at a 4h step roughly
	// one in six falls in the same interval as the other kind.
	assert.Greater(t, res.Transitions, 600)
	assert.Less(t, res.Transitions, 740)
}

func TestRunSkipsFailedSamples(t *testing.T) {
	boom := errors.New("boom")
	comp := failingComputer{
		inner: newCalc(),
		fail:  func(t time.Time) bool { return t.Hour() == 6 },
		err:   boom,
	}
	req := Request{Start: epoch, End: epoch.AddDate(0, 0, 10), Step: 2 * time.Hour}

	res, err := NewSweeper(comp, 3, testLogger()).Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 10, res.Errors)
	assert.Len(t, res.Samples, 110)
	for _, p := range res.Samples {
		assert.NotEqual(t, 6, p.Time.Hour())
	}
}

func TestRunAllFailed(t *testing.T) {
	m := ephemeris.NewMeeus(ephemeris.DefaultInterval, testLogger())
	calc := sidereal.New(m, sidereal.DefaultTables())
	req := YearRequest(1700, 24*time.Hour)

	_, err := NewSweeper(calc, 2, testLogger()).Run(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, ephemeris.ErrOutOfRange)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSweeper(newCalc(), 2, testLogger()).Run(ctx, YearRequest(2026, time.Hour))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunInvalidRequest(t *testing.T) {
	_, err := NewSweeper(newCalc(), 2, testLogger()).Run(context.Background(), Request{})
	assert.Error(t, err)
}

func TestPolar(t *testing.T) {
	tests := []struct {
		nak, tithi int
		theta, r   float64
	}{
		{0, 0, 0, 10},
		{0, 29, 0, 39},
		{13, 14, 13 * 2 * math.Pi / 27, 24},
		{26, 0, 26 * 2 * math.Pi / 27, 10},
	}
	for _, tt := range tests {
		theta, r := Polar(sidereal.Position{NakshatraIndex: tt.nak, TithiIndex: tt.tithi})
		assert.InDelta(t, tt.theta, theta, 1e-12)
		assert.Equal(t, tt.r, r)
	}
}

func TestRender(t *testing.T) {
	req := Request{Start: epoch, End: epoch.AddDate(0, 0, 2), Step: 6 * time.Hour}
	res, err := NewSweeper(newCalc(), 2, testLogger()).Run(context.Background(), req)
	require.NoError(t, err)

	csv := RenderCSV(res)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	assert.Len(t, lines, 1+8)
	assert.True(t, strings.HasPrefix(lines[0], "time,sun_lon,moon_lon"))
	assert.True(t, strings.HasPrefix(lines[1], "2026-01-01T00:00:00Z,"))

	md := RenderMarkdown(res, sidereal.EnglishTables())
	assert.Contains(t, md, "# Nakshatra–Tithi Sweep")
	assert.Contains(t, md, "| Samples | 8 |")
	assert.Contains(t, md, "| 27 | Revati |")

	s := res.Summarize()
	require.NotNil(t, s.First)
	assert.Equal(t, StateOf(res.Samples[0]), *s.First)
	assert.Equal(t, StateCount, s.Total)
}
