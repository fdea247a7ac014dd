package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kode4food/tremor"
	"github.com/kode4food/tremor/ingest"
)

type (
	// Settings is the effective configuration of the binary
	Settings struct {
		Data     string           `mapstructure:"data" yaml:"data"`
		Dataset  string           `mapstructure:"dataset" yaml:"dataset"`
		Headless bool             `mapstructure:"headless" yaml:"headless"`
		Watch    bool             `mapstructure:"watch" yaml:"watch"`
		Ingest   IngestSettings   `mapstructure:"ingest" yaml:"ingest"`
		Playback PlaybackSettings `mapstructure:"playback" yaml:"playback"`
		Archive  ArchiveSettings  `mapstructure:"archive" yaml:"archive"`
		Log      LogSettings      `mapstructure:"log" yaml:"log"`
		Metrics  MetricsSettings  `mapstructure:"metrics" yaml:"metrics"`
	}

	// IngestSettings controls how the data file is read
	IngestSettings struct {
		Encoding string `mapstructure:"encoding" yaml:"encoding"`
		Timezone string `mapstructure:"timezone" yaml:"timezone"`
	}

	// PlaybackSettings become the engine's tremor.Config
	PlaybackSettings struct {
		Start        string          `mapstructure:"start" yaml:"start"`
		End          string          `mapstructure:"end" yaml:"end"`
		Step         time.Duration   `mapstructure:"step" yaml:"step"`
		Steps        []time.Duration `mapstructure:"steps" yaml:"steps"`
		TickInterval time.Duration   `mapstructure:"tick_interval" yaml:"tick_interval"`
	}

	// ArchiveSettings select the catalog archive backend
	ArchiveSettings struct {
		Kind string `mapstructure:"kind" yaml:"kind"`
		DSN  string `mapstructure:"dsn" yaml:"dsn"`
	}

	// LogSettings configure the rotated JSON log file
	LogSettings struct {
		Path       string `mapstructure:"path" yaml:"path"`
		Level      string `mapstructure:"level" yaml:"level"`
		MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	}

	// MetricsSettings configure the prometheus endpoint
	MetricsSettings struct {
		Addr string `mapstructure:"addr" yaml:"addr"`
	}
)

const (
	envPrefix    = "TREMOR"
	extentLayout = "2006-01-02 15:04:05"
)

// Error messages
var (
	ErrNoData      = errors.New("no data file or archived dataset given")
	ErrBadTimezone = errors.New("unknown timezone")
)

// flagKeys maps command line flags onto settings keys
var flagKeys = map[string]string{
	"data":         "data",
	"dataset":      "dataset",
	"headless":     "headless",
	"watch":        "watch",
	"log-path":     "log.path",
	"metrics-addr": "metrics.addr",
	"archive":      "archive.kind",
	"archive-dsn":  "archive.dsn",
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("tremor", pflag.ContinueOnError)
	fs.String("config", "", "Path to a YAML or TOML config file")
	fs.String("data", "", "Earthquake catalog CSV to play back")
	fs.String("dataset", "", "Archive name of the catalog. Defaults to the data file's base name")
	fs.String("log-path", "", "File to write JSON logs to. Logs are discarded when blank, unless headless")
	fs.String("metrics-addr", "", "Address to serve prometheus metrics on, e.g. :9090")
	fs.String("archive", "none", "Catalog archive: none, redis, postgres, bolt or sqlite")
	fs.String("archive-dsn", "", "Archive location: a redis:// or postgres:// URL, or a bolt or sqlite file")
	fs.Bool("headless", false, "Play to the end without a terminal UI, logging each frame")
	fs.Bool("watch", false, "Reload the catalog when the data file changes")
	fs.Bool("print-config", false, "Print the effective configuration as YAML and exit")
	return fs
}

func setDefaults(v *viper.Viper) {
	def := tremor.DefaultConfig()
	v.SetDefault("data", "")
	v.SetDefault("dataset", "")
	v.SetDefault("headless", false)
	v.SetDefault("watch", false)
	v.SetDefault("ingest.encoding", string(ingest.EncodingAuto))
	v.SetDefault("ingest.timezone", "")
	v.SetDefault("playback.start", def.Extent.Start.Format(extentLayout))
	v.SetDefault("playback.end", def.Extent.End.Format(extentLayout))
	v.SetDefault("playback.step", def.Step)
	v.SetDefault("playback.steps", def.Steps)
	v.SetDefault("playback.tick_interval", def.TickInterval)
	v.SetDefault("archive.kind", archiveNone)
	v.SetDefault("archive.dsn", "")
	v.SetDefault("log.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("metrics.addr", "")
}

// LoadSettings merges defaults, the config file, TREMOR_ environment
// variables and explicitly set flags, in increasing precedence
func LoadSettings(fs *pflag.FlagSet) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return Settings{}, err
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := readConfigFile(v, fs); err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return s, nil
}

func readConfigFile(v *viper.Viper, fs *pflag.FlagSet) error {
	path, _ := fs.GetString("config")
	if path == "" {
		path = os.Getenv(envPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "tremor"))
	}
	v.SetConfigName("config")
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// PrintSettings writes the settings as YAML
func PrintSettings(w io.Writer, s Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// DatasetName is the archive key for the configured catalog
func (s Settings) DatasetName() string {
	if s.Dataset != "" {
		return s.Dataset
	}
	if s.Data == "" {
		return ""
	}
	base := filepath.Base(s.Data)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Location is the zone naive timestamps in the data file are read in
func (s IngestSettings) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return tremor.JST, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadTimezone, s.Timezone)
	}
	return loc, nil
}

// Options builds the ingest options
func (s IngestSettings) Options(logger *zap.Logger) (ingest.Options, error) {
	loc, err := s.Location()
	if err != nil {
		return ingest.Options{}, err
	}
	return ingest.Options{
		Logger:   logger,
		Location: loc,
		Encoding: ingest.Encoding(s.Encoding),
	}, nil
}

// Extent parses the playback bounds. Both blank means the span of the
// catalog read
func (s PlaybackSettings) Extent() (tremor.Extent, error) {
	if s.Start == "" && s.End == "" {
		return tremor.Extent{}, nil
	}
	start, err := ingest.ParseTimestamp(s.Start, "", tremor.JST)
	if err != nil {
		return tremor.Extent{}, fmt.Errorf("playback start: %w", err)
	}
	end, err := ingest.ParseTimestamp(s.End, "", tremor.JST)
	if err != nil {
		return tremor.Extent{}, fmt.Errorf("playback end: %w", err)
	}
	return tremor.NewExtent(start, end), nil
}

// Config builds the engine configuration
func (s PlaybackSettings) Config(logger *zap.Logger) (tremor.Config, error) {
	ext, err := s.Extent()
	if err != nil {
		return tremor.Config{}, err
	}
	return tremor.Config{
		Logger:       logger,
		Extent:       ext,
		Steps:        s.Steps,
		Step:         s.Step,
		TickInterval: s.TickInterval,
	}, nil
}
