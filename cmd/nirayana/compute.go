package main

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/metrics"
	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/sidereal"
)

// maxOffsetHours bounds the --offset time scrub.
const maxOffsetHours = 72

func newComputeCmd(a *app) *cobra.Command {
	var (
		at     string
		offset float64
		format string
	)

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute the sidereal position at one instant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "table", "json"); err != nil {
				return err
			}
			if math.IsNaN(offset) || math.Abs(offset) > maxOffsetHours {
				return fmt.Errorf("offset %v hours outside ±%d", offset, maxOffsetHours)
			}

			t, err := a.parseTime(at, time.Now())
			if err != nil {
				return err
			}
			t = t.Add(time.Duration(offset * float64(time.Hour)))

			calc, err := a.calculator()
			if err != nil {
				return err
			}
			pos, err := calc.Compute(t)
			metrics.RecordComputation(err)
			if err != nil {
				return fmt.Errorf("computing position at %s: %w", a.formatTime(t), err)
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				return writeJSON(out, pos)
			}
			a.writePosition(out, pos)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&at, "at", "", "instant to compute (RFC 3339 or YYYY-MM-DD[ HH:MM[:SS]]; default now)")
	f.Float64Var(&offset, "offset", 0, "hours added to --at, within ±72")
	f.StringVarP(&format, "format", "o", "table", "output format: table or json")
	return cmd
}

func (a *app) writePosition(w io.Writer, p sidereal.Position) {
	rows := []struct{ label, value string }{
		{"Time", a.formatTime(p.Time)},
		{"Ayanamsa", fmt.Sprintf("%.5f°", p.Ayanamsa)},
		{"Sun", fmt.Sprintf("%.4f° (tropical %.4f°)", p.SunLongitude, p.TropicalSun)},
		{"Moon", fmt.Sprintf("%.4f° (tropical %.4f°)", p.MoonLongitude, p.TropicalMoon)},
		{"Phase angle", fmt.Sprintf("%.4f°", p.PhaseAngle)},
		{"Nakshatra", fmt.Sprintf("%d %s", p.NakshatraIndex+1, p.NakshatraName)},
		{"Tithi", fmt.Sprintf("%d %s", p.TithiNumber, p.TithiName)},
		{"Paksha", a.tables.PakshaName(p.Paksha)},
		{"Moon phase", p.MoonPhase},
		{"Raasi", fmt.Sprintf("%d %s", p.RaasiIndex+1, p.RaasiName)},
		{"Solar month", fmt.Sprintf("%d %s", p.SolarMonthIndex+1, p.SolarMonthName)},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-12s %s\n", r.label+":", r.value)
	}
}
