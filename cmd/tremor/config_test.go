package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/tremor"
)

func loadArgs(t *testing.T, args ...string) Settings {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	fs := newFlagSet()
	require.NoError(t, fs.Parse(args))
	s, err := LoadSettings(fs)
	require.NoError(t, err)
	return s
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSettingsDefaults(t *testing.T) {
	s := loadArgs(t)
	def := tremor.DefaultConfig()

	assert.Equal(t, def.Step, s.Playback.Step)
	assert.Equal(t, def.Steps, s.Playback.Steps)
	assert.Equal(t, def.TickInterval, s.Playback.TickInterval)
	assert.Equal(t, archiveNone, s.Archive.Kind)
	assert.Equal(t, "info", s.Log.Level)
	assert.False(t, s.Headless)

	ext, err := s.Playback.Extent()
	require.NoError(t, err)
	assert.True(t, def.Extent.Start.Equal(ext.Start))
	assert.True(t, def.Extent.End.Equal(ext.End))
}

func TestSettingsYAMLFile(t *testing.T) {
	path := writeFile(t, "tremor.yaml", `
data: /var/lib/tremor/jma.csv
playback:
  step: 6h
  steps: [1h, 6h, 24h]
  start: "2011-03-01 00:00:00"
  end: "2011-04-01 00:00:00"
archive:
  kind: bolt
  dsn: /tmp/from-file.db
`)
	s := loadArgs(t, "--config", path, "--archive-dsn", "/tmp/from-flag.db")

	assert.Equal(t, "/var/lib/tremor/jma.csv", s.Data)
	assert.Equal(t, "jma", s.DatasetName())
	assert.Equal(t, 6*time.Hour, s.Playback.Step)
	assert.Equal(t,
		[]time.Duration{time.Hour, 6 * time.Hour, 24 * time.Hour},
		s.Playback.Steps,
	)
	assert.Equal(t, archiveBolt, s.Archive.Kind)
	assert.Equal(t, "/tmp/from-flag.db", s.Archive.DSN)

	ext, err := s.Playback.Extent()
	require.NoError(t, err)
	want := time.Date(2011, time.March, 1, 0, 0, 0, 0, tremor.JST)
	assert.True(t, want.Equal(ext.Start))
}

func TestSettingsTOMLFile(t *testing.T) {
	path := writeFile(t, "tremor.toml", `
headless = true

[log]
level = "debug"
path = "/tmp/tremor.log"
`)
	s := loadArgs(t, "--config", path)
	assert.True(t, s.Headless)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "/tmp/tremor.log", s.Log.Path)
}

func TestSettingsEnvironment(t *testing.T) {
	t.Setenv("TREMOR_PLAYBACK_STEP", "24h")
	t.Setenv("TREMOR_METRICS_ADDR", ":9100")
	t.Setenv("TREMOR_ARCHIVE_KIND", "sqlite")

	s := loadArgs(t, "--archive", "redis")
	assert.Equal(t, 24*time.Hour, s.Playback.Step)
	assert.Equal(t, ":9100", s.Metrics.Addr)
	assert.Equal(t, archiveRedis, s.Archive.Kind)
}

func TestSettingsMissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	fs := newFlagSet()
	require.NoError(t, fs.Parse([]string{
		"--config", filepath.Join(t.TempDir(), "absent.yaml"),
	}))
	_, err := LoadSettings(fs)
	assert.Error(t, err)
}

func TestPrintSettings(t *testing.T) {
	s := loadArgs(t, "--data", "quakes.csv")
	var buf bytes.Buffer
	require.NoError(t, PrintSettings(&buf, s))

	out := buf.String()
	assert.Contains(t, out, "data: quakes.csv")
	assert.Contains(t, out, "step: 72h0m0s")
	assert.Contains(t, out, "tick_interval: 50ms")
	assert.Contains(t, out, "kind: none")

	path := writeFile(t, "printed.yaml", out)
	again := loadArgs(t, "--config", path)
	assert.Equal(t, s, again)
}

func TestDatasetName(t *testing.T) {
	assert.Equal(t, "", Settings{}.DatasetName())
	assert.Equal(t, "jma", Settings{Data: "/data/jma.csv"}.DatasetName())
	assert.Equal(t, "tohoku",
		Settings{Data: "/data/jma.csv", Dataset: "tohoku"}.DatasetName(),
	)
}

func TestPlaybackExtent(t *testing.T) {
	ext, err := PlaybackSettings{}.Extent()
	assert.NoError(t, err)
	assert.Equal(t, tremor.Extent{}, ext)

	_, err = PlaybackSettings{Start: "yesterday", End: "today"}.Extent()
	assert.Error(t, err)

	cfg, err := PlaybackSettings{
		Start: "2011-03-11T05:46:18Z",
		End:   "2011/03/12",
		Step:  time.Hour,
	}.Config(nil)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Step)
	assert.True(t, cfg.Extent.Valid())
}

func TestIngestLocation(t *testing.T) {
	loc, err := IngestSettings{}.Location()
	assert.NoError(t, err)
	assert.Equal(t, tremor.JST, loc)

	loc, err = IngestSettings{Timezone: "UTC"}.Location()
	assert.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	_, err = IngestSettings{Timezone: "Nowhere/Atlantis"}.Location()
	assert.ErrorIs(t, err, ErrBadTimezone)
}
