package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/config"
	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/ephemeris"
	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/metrics"
	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/sidereal"
)

// app holds what every subcommand shares once configuration is loaded.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	tables sidereal.Tables
	loc    *time.Location
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var cfgFile string

	root := &cobra.Command{
		Use:   "nirayana",
		Short: "Sidereal nakshatra and tithi calculator",
		Long: "nirayana converts instants into sidereal Moon and Sun positions using the\n" +
			"Lahiri ayanamsa, and derives nakshatra, tithi and raasi from them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd, cfgFile)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.finish()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default .nirayana.toml)")
	pf.BoolP("verbose", "v", false, "debug logging")
	pf.String("names", "", "name tables: tamil, english or a TOML file")
	pf.String("ephemeris", "", "ephemeris source: meeus or table")
	pf.String("table", "", "ephemeris table file, or latest from the cache")
	pf.String("tz", "", "timezone for input and output times")
	pf.String("log-format", "", "log format: json or text")
	pf.String("metrics-textfile", "", "write Prometheus metrics to this file on exit")

	for key, flag := range map[string]string{
		"verbose":          "verbose",
		"names":            "names",
		"ephemeris.source": "ephemeris",
		"ephemeris.table":  "table",
		"timezone":         "tz",
		"log.format":       "log-format",
		"metrics.textfile": "metrics-textfile",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newComputeCmd(a),
		newSweepCmd(a),
		newHistoryCmd(a),
		newTransitsCmd(a),
		newOrbitCmd(a),
		newEphemCmd(a),
		newNamesCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, cfgFile string) error {
	if err := config.Init(cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	a.loc = cfg.Location()
	a.logger = newLogger(cmd.ErrOrStderr(), cfg.Log.Format, cfg.Verbose)

	a.tables, err = loadTables(cfg.Names)
	if err != nil {
		return err
	}

	a.logger.Debug("configuration loaded",
		"config_file", viper.ConfigFileUsed(),
		"ephemeris", cfg.Ephemeris.Source,
		"timezone", a.loc.String(),
	)
	return nil
}

func (a *app) finish() error {
	if a.cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		return err
	}
	a.logger.Debug("metrics written", "path", a.cfg.Metrics.Textfile)
	return nil
}

func newLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func loadTables(names string) (sidereal.Tables, error) {
	if t, ok := sidereal.BuiltinTables(names); ok {
		return t, nil
	}
	f, err := os.Open(names)
	if err != nil {
		return sidereal.Tables{}, fmt.Errorf("opening name tables: %w", err)
	}
	defer f.Close()

	t, err := sidereal.LoadTables(f)
	if err != nil {
		return sidereal.Tables{}, fmt.Errorf("loading name tables %s: %w", names, err)
	}
	return t, nil
}

// provider opens the configured ephemeris source.
func (a *app) provider() (ephemeris.Provider, error) {
	if a.cfg.Ephemeris.Source != "table" {
		return a.meeus()
	}

	var (
		tab *ephemeris.Table
		err error
	)
	if a.cfg.Ephemeris.Table == "latest" {
		tab, _, err = a.cache().Latest()
	} else {
		tab, err = openTable(a.cfg.Ephemeris.Table, a.logger)
	}
	if err != nil {
		return nil, fmt.Errorf("loading ephemeris table: %w", err)
	}

	r := tab.Range()
	a.logger.Info("ephemeris table loaded",
		"samples", tab.Len(),
		"min", r.Min.UTC().Format(time.RFC3339),
		"max", r.Max.UTC().Format(time.RFC3339),
	)
	return tab, nil
}

func (a *app) meeus() (*ephemeris.Meeus, error) {
	iv, err := a.cfg.Interval()
	if err != nil {
		return nil, err
	}
	return ephemeris.NewMeeus(iv, a.logger), nil
}

func (a *app) cache() *ephemeris.Cache {
	return ephemeris.NewCache(a.cfg.Ephemeris.CacheDir, a.cfg.Ephemeris.MaxFiles, a.logger)
}

func (a *app) calculator() (*sidereal.Calculator, error) {
	p, err := a.provider()
	if err != nil {
		return nil, err
	}
	return sidereal.New(p, a.tables), nil
}

func openTable(path string, logger *slog.Logger) (*ephemeris.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ephemeris.ParseTable(f, logger)
}

// parseTime parses s in the configured timezone, or returns def when s is empty.
func (a *app) parseTime(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	return sidereal.ParseTimestamp(s, a.loc)
}

func (a *app) formatTime(t time.Time) string {
	return t.In(a.loc).Format("2006-01-02 15:04:05 MST")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func checkFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q (want one of %v)", format, allowed)
}
