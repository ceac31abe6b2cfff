// Package config loads runtime settings from .nirayana.toml, NIRAYANA_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/ephemeris"
	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/sidereal"
)

// EnvPrefix namespaces every environment variable read by Init.
const EnvPrefix = "NIRAYANA"

const dateLayout = "2006-01-02"

// EphemerisConfig selects and bounds the ephemeris provider.
type EphemerisConfig struct {
	Source   string `mapstructure:"source"`
	Table    string `mapstructure:"table"`
	CacheDir string `mapstructure:"cache_dir"`
	MaxFiles int    `mapstructure:"max_files"`
	Min      string `mapstructure:"min"`
	Max      string `mapstructure:"max"`
}

// SweepConfig holds defaults for the yearly state sweep.
type SweepConfig struct {
	Step    time.Duration `mapstructure:"step"`
	Workers int           `mapstructure:"workers"`
}

// MetricsConfig holds the textfile export target.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Format string `mapstructure:"format"`
}

// Config holds all runtime configuration.
type Config struct {
	Timezone  string          `mapstructure:"timezone"`
	Names     string          `mapstructure:"names"`
	Ephemeris EphemerisConfig `mapstructure:"ephemeris"`
	Sweep     SweepConfig     `mapstructure:"sweep"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
	Verbose   bool            `mapstructure:"verbose"`
	// Year and Month also honor the bare YEAR and MONTH variables.
	Year  int `mapstructure:"year"`
	Month int `mapstructure:"month"`
}

// Init points viper at the config file and environment. An explicit cfgFile
// must exist; otherwise a missing .nirayana.toml is not an error.
func Init(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".nirayana")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindEnv("year", EnvPrefix+"_YEAR", "YEAR")
	_ = viper.BindEnv("month", EnvPrefix+"_MONTH", "MONTH")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	now := time.Now()
	viper.SetDefault("timezone", "Asia/Kolkata")
	viper.SetDefault("names", "")
	viper.SetDefault("ephemeris.source", "meeus")
	viper.SetDefault("ephemeris.table", "latest")
	viper.SetDefault("ephemeris.cache_dir", "/tmp/nirayana/ephemeris")
	viper.SetDefault("ephemeris.max_files", 5)
	viper.SetDefault("ephemeris.min", ephemeris.DefaultInterval.Min.Format(dateLayout))
	viper.SetDefault("ephemeris.max", ephemeris.DefaultInterval.Max.Format(dateLayout))
	viper.SetDefault("sweep.step", 4*time.Hour)
	viper.SetDefault("sweep.workers", runtime.NumCPU())
	viper.SetDefault("metrics.textfile", "")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("verbose", false)
	viper.SetDefault("year", now.Year())
	viper.SetDefault("month", int(now.Month()))

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if _, ok := sidereal.BuiltinTables(c.Names); !ok {
		if _, err := os.Stat(c.Names); err != nil {
			errs = append(errs, fmt.Errorf("names %q is neither a built-in table nor a readable file: %w", c.Names, err))
		}
	}
	switch c.Ephemeris.Source {
	case "meeus":
	case "table":
		if c.Ephemeris.Table == "" {
			errs = append(errs, errors.New("ephemeris.table is required when ephemeris.source is table"))
		}
	default:
		errs = append(errs, fmt.Errorf("ephemeris.source %q must be meeus or table", c.Ephemeris.Source))
	}
	if c.Ephemeris.MaxFiles < 1 {
		errs = append(errs, fmt.Errorf("ephemeris.max_files %d must be at least 1", c.Ephemeris.MaxFiles))
	}
	if _, err := c.Interval(); err != nil {
		errs = append(errs, err)
	}
	if c.Sweep.Step <= 0 {
		errs = append(errs, fmt.Errorf("sweep.step %s must be positive", c.Sweep.Step))
	}
	if c.Sweep.Workers < 1 {
		errs = append(errs, fmt.Errorf("sweep.workers %d must be at least 1", c.Sweep.Workers))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or text", c.Log.Format))
	}
	if c.Month < 1 || c.Month > 12 {
		errs = append(errs, fmt.Errorf("month %d outside 1-12", c.Month))
	}

	return errors.Join(errs...)
}

// Location resolves Timezone, falling back to UTC when it cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Interval parses the ephemeris validity bounds, both midnight UTC.
func (c Config) Interval() (ephemeris.Interval, error) {
	lo, err := time.Parse(dateLayout, c.Ephemeris.Min)
	if err != nil {
		return ephemeris.Interval{}, fmt.Errorf("ephemeris.min %q: %w", c.Ephemeris.Min, err)
	}
	hi, err := time.Parse(dateLayout, c.Ephemeris.Max)
	if err != nil {
		return ephemeris.Interval{}, fmt.Errorf("ephemeris.max %q: %w", c.Ephemeris.Max, err)
	}
	iv := ephemeris.Interval{Min: lo, Max: hi}
	if err := iv.Validate(); err != nil {
		return ephemeris.Interval{}, fmt.Errorf("ephemeris interval: %w", err)
	}
	return iv, nil
}
