package main

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kode4food/tremor"
)

type frameSink struct {
	mu     sync.Mutex
	frames []*tremor.Frame
}

func (s *frameSink) Tick(f *tremor.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
}

func (*frameSink) Clear()             {}
func (*frameSink) PauseTransitions()  {}
func (*frameSink) ResumeTransitions() {}

func (s *frameSink) snapshot() []*tremor.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*tremor.Frame(nil), s.frames...)
}

func TestRunHeadless(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := &frameSink{}

	err := RunHeadless(context.Background(),
		hourCatalog(t, 3, 4, 5), testConfig(), zap.New(core), nil, sink,
	)
	require.NoError(t, err)

	frames := sink.snapshot()
	require.Len(t, frames, 5)
	assert.Equal(t, tremor.Seek, frames[0].Motion)
	assert.Equal(t, tremor.Stopped, frames[4].State)

	assert.Equal(t, 5, logs.FilterMessage("Frame").Len())
	assert.Equal(t, 1, logs.FilterMessage("Playback finished").Len())
}

func TestRunHeadlessCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig()
	cfg.TickInterval = time.Hour
	err := RunHeadless(ctx, hourCatalog(t, 3), cfg, zap.NewNop(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunHeadlessReload(t *testing.T) {
	cfg := testConfig()
	cfg.TickInterval = time.Hour

	reloads := make(chan *tremor.Catalog, 1)
	reloads <- hourCatalog(t, 6, 7)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	sink := &frameSink{}
	err := RunHeadless(ctx, hourCatalog(t, 3), cfg, zap.NewNop(), reloads, sink)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	frames := sink.snapshot()
	require.Len(t, frames, 2)
	assert.NotEqual(t, frames[0].Session, frames[1].Session)
}

func TestNewLogger(t *testing.T) {
	logger, closer, err := NewLogger(LogSettings{Level: "info"}, false)
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, closer.Close())

	_, _, err = NewLogger(LogSettings{Level: "chatty"}, false)
	assert.Error(t, err)

	path := writeFile(t, "tremor.log", "")
	logger, closer, err = NewLogger(LogSettings{Level: "info", Path: path}, false)
	require.NoError(t, err)
	logger.Info("Catalog ingested", zap.Int("events", 2))
	require.NoError(t, logger.Sync())
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Catalog ingested"`)
	assert.Contains(t, string(data), `"events":2`)
}
