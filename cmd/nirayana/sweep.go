package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/sidereal"
	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/sweep"
)

const (
	historyHalfSpan = 360 * time.Hour
	historySamples  = 400
)

func newSweepCmd(a *app) *cobra.Command {
	var (
		year    int
		step    time.Duration
		workers int
		format  string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Sweep a calendar year and report the nakshatra-tithi states visited",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "csv", "md", "json"); err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("year") {
				year = a.cfg.Year
			}
			if !flags.Changed("step") {
				step = a.cfg.Sweep.Step
			}
			if !flags.Changed("workers") {
				workers = a.cfg.Sweep.Workers
			}

			res, err := a.runSweep(cmd, sweep.YearRequest(year, step), workers)
			if err != nil {
				return err
			}
			return writeSweep(cmd.OutOrStdout(), res, a.tables, format)
		},
	}

	f := cmd.Flags()
	f.IntVar(&year, "year", 0, "calendar year (default from YEAR or the current year)")
	f.DurationVar(&step, "step", 0, "sampling step (default sweep.step, 4h)")
	f.IntVar(&workers, "workers", 0, "worker goroutines (default sweep.workers)")
	f.StringVarP(&format, "format", "o", "md", "output format: csv, md or json")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		at     string
		format string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Trace the nakshatra-tithi trajectory over ±15 days around an instant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "csv", "md", "json"); err != nil {
				return err
			}
			center, err := a.parseTime(at, time.Now())
			if err != nil {
				return err
			}

			req := sweep.WindowRequest(center, historyHalfSpan, historySamples)
			res, err := a.runSweep(cmd, req, a.cfg.Sweep.Workers)
			if err != nil {
				return err
			}
			return writeSweep(cmd.OutOrStdout(), res, a.tables, format)
		},
	}

	f := cmd.Flags()
	f.StringVar(&at, "at", "", "window center (default now)")
	f.StringVarP(&format, "format", "o", "csv", "output format: csv, md or json")
	return cmd
}

func (a *app) runSweep(cmd *cobra.Command, req sweep.Request, workers int) (*sweep.Result, error) {
	calc, err := a.calculator()
	if err != nil {
		return nil, err
	}
	res, err := sweep.NewSweeper(calc, workers, a.logger).Run(cmd.Context(), req)
	if err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}
	return res, nil
}

// sweepReport is the JSON form of a sweep.
type sweepReport struct {
	Summary sweep.Summary       `json:"summary"`
	Visited []sweep.State       `json:"visited"`
	Samples []sidereal.Position `json:"samples"`
}

func writeSweep(w io.Writer, res *sweep.Result, tables sidereal.Tables, format string) error {
	switch format {
	case "json":
		return writeJSON(w, sweepReport{
			Summary: res.Summarize(),
			Visited: res.Visited,
			Samples: res.Samples,
		})
	case "csv":
		_, err := io.WriteString(w, sweep.RenderCSV(res))
		return err
	default:
		_, err := io.WriteString(w, sweep.RenderMarkdown(res, tables))
		return err
	}
}
