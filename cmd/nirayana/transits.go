package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/transit"
)

const defaultTransitSpan = 30 * 24 * time.Hour

func newTransitsCmd(a *app) *cobra.Command {
	var (
		from, to string
		kinds    []string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "transits",
		Short: "List the instants the Moon enters a new nakshatra, tithi or raasi",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, "table", "csv", "json"); err != nil {
				return err
			}
			start, err := a.parseTime(from, time.Now())
			if err != nil {
				return err
			}
			end, err := a.parseTime(to, start.Add(defaultTransitSpan))
			if err != nil {
				return err
			}
			req := transit.Request{Start: start, End: end}
			for _, k := range kinds {
				kind, err := transit.ParseKind(k)
				if err != nil {
					return err
				}
				req.Kinds = append(req.Kinds, kind)
			}

			calc, err := a.calculator()
			if err != nil {
				return err
			}
			events, err := transit.NewFinder(calc, a.logger).Find(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("transit search: %w", err)
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				if events == nil {
					events = []transit.Event{}
				}
				return writeJSON(out, events)
			case "csv":
				return writeEventsCSV(out, events)
			default:
				a.writeEvents(out, events)
				return nil
			}
		},
	}

	f := cmd.Flags()
	f.StringVar(&from, "from", "", "search start (default now)")
	f.StringVar(&to, "to", "", "search end (default 30 days after --from)")
	f.StringSliceVarP(&kinds, "kind", "k", nil, "kinds to follow: nakshatra, tithi, raasi (default all)")
	f.StringVarP(&format, "format", "o", "table", "output format: table, csv or json")
	return cmd
}

func (a *app) writeEvents(w io.Writer, events []transit.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No transits in range.")
		return
	}
	for _, ev := range events {
		fmt.Fprintf(w, "%s  %-9s  %s → %s\n", a.formatTime(ev.Time), ev.Kind, ev.FromName, ev.ToName)
	}
}

func writeEventsCSV(w io.Writer, events []transit.Event) error {
	if _, err := fmt.Fprintln(w, "time,kind,from,to,from_name,to_name"); err != nil {
		return err
	}
	for _, ev := range events {
		if _, err := fmt.Fprintf(w, "%s,%s,%d,%d,%s,%s\n",
			ev.Time.UTC().Format(time.RFC3339), ev.Kind, ev.From, ev.To, ev.FromName, ev.ToName); err != nil {
			return err
		}
	}
	return nil
}
