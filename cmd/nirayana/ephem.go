package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/ephemeris"
)

func newEphemCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ephem",
		Short: "Manage sampled ephemeris tables",
	}
	cmd.AddCommand(newEphemExportCmd(a), newEphemInfoCmd(a), newEphemListCmd(a))
	return cmd
}

func newEphemExportCmd(a *app) *cobra.Command {
	var (
		from, to string
		step     time.Duration
		output   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Sample the built-in ephemeris into a table file",
		Long: "export samples the built-in ephemeris between --from and --to and writes\n" +
			"the table into the cache directory, or to --output when given. Cached\n" +
			"tables are used with --ephemeris table --table latest.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC().Truncate(24 * time.Hour)
			start, err := a.parseTime(from, now)
			if err != nil {
				return err
			}
			end, err := a.parseTime(to, start.AddDate(1, 0, 0))
			if err != nil {
				return err
			}

			m, err := a.meeus()
			if err != nil {
				return err
			}

			tbl, err := ephemeris.SampleProvider(m, start, end, step)
			if err != nil {
				return fmt.Errorf("exporting ephemeris: %w", err)
			}

			path := output
			if output != "" {
				if err := writeTableFile(output, tbl); err != nil {
					return err
				}
			} else {
				entry, err := a.cache().Save(tbl, time.Now())
				if err != nil {
					return fmt.Errorf("caching ephemeris table: %w", err)
				}
				path = entry.Path
			}

			a.logger.Info("ephemeris table written",
				"path", path,
				"samples", tbl.Len(),
				"start", start.UTC().Format(time.RFC3339),
				"end", end.UTC().Format(time.RFC3339),
			)
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&from, "from", "", "first sample (default today 00:00 UTC)")
	f.StringVar(&to, "to", "", "last sample (default one year after --from)")
	f.DurationVar(&step, "step", time.Hour, "sampling step")
	f.StringVar(&output, "output", "", "write to this file instead of the cache")
	return cmd
}

func newEphemInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the validity range of the configured ephemeris",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.provider()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source: %s\n", a.cfg.Ephemeris.Source)
			if r, ok := p.(ephemeris.Ranger); ok {
				iv := r.Range()
				fmt.Fprintf(out, "min:    %s\n", iv.Min.UTC().Format(time.RFC3339))
				fmt.Fprintf(out, "max:    %s\n", iv.Max.UTC().Format(time.RFC3339))
			}
			_, hasDistance := p.(ephemeris.Distancer)
			fmt.Fprintf(out, "distances: %t\n", hasDistance)
			return nil
		},
	}
}

func newEphemListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached ephemeris tables, newest last",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := a.cache().List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tables) == 0 {
				fmt.Fprintf(out, "No cached tables in %s.\n", a.cfg.Ephemeris.CacheDir)
				return nil
			}
			for _, ct := range tables {
				fmt.Fprintf(out, "%s  %s .. %s  %s\n",
					ct.Exported.UTC().Format(time.RFC3339),
					ct.Range.Min.UTC().Format(time.RFC3339),
					ct.Range.Max.UTC().Format(time.RFC3339),
					ct.Path,
				)
			}
			return nil
		},
	}
}

func writeTableFile(path string, tbl *ephemeris.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing ephemeris table: %w", err)
	}
	if err := tbl.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
