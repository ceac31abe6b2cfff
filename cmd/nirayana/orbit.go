package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/orbit"
)

func newOrbitCmd(a *app) *cobra.Command {
	var (
		year, month int
		days, steps int
		path        string
		format      string
	)

	cmd := &cobra.Command{
		Use:   "orbit",
		Short: "Trace the geocentric Moon and Sun paths in the sidereal frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "csv", "json"); err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("year") {
				year = a.cfg.Year
			}
			if !flags.Changed("month") {
				month = a.cfg.Month
			}

			var req orbit.Request
			switch path {
			case "month":
				r, err := orbit.MonthRequest(year, month)
				if err != nil {
					return err
				}
				req = r
			case "year":
				req = orbit.YearRequest(time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC))
			default:
				return fmt.Errorf("unknown path %q (want month or year)", path)
			}
			if flags.Changed("days") {
				req.Days = days
			}
			if flags.Changed("steps") {
				req.StepsPerDay = steps
			}

			p, err := a.provider()
			if err != nil {
				return err
			}
			tracer, err := orbit.NewTracer(p, orbit.DefaultScale(), a.logger)
			if err != nil {
				return err
			}
			track, err := tracer.Track(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("orbit: %w", err)
			}

			a.logger.Info("orbit traced",
				"points", len(track.Points),
				"skipped", track.Errors,
				"perigee", track.Perigee.Time.UTC().Format(time.RFC3339),
				"perigee_au", track.Perigee.MoonDistance,
				"apogee", track.Apogee.Time.UTC().Format(time.RFC3339),
				"apogee_au", track.Apogee.MoonDistance,
			)

			out := cmd.OutOrStdout()
			if format == "json" {
				return writeJSON(out, track)
			}
			_, err = io.WriteString(out, orbit.RenderCSV(track))
			return err
		},
	}

	f := cmd.Flags()
	f.IntVar(&year, "year", 0, "year (default from YEAR or the current year)")
	f.IntVar(&month, "month", 0, "month 1-12 (default from MONTH or the current month)")
	f.IntVar(&days, "days", 30, "days to trace")
	f.IntVar(&steps, "steps", 4, "samples per day")
	f.StringVar(&path, "path", "month", "span to trace: month or year")
	f.StringVarP(&format, "format", "o", "csv", "output format: csv or json")
	return cmd
}
