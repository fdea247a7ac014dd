package main

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the production JSON logger. The terminal belongs to the
// UI, so logs go only to the rotated file unless running headless, where
// they are also written to stdout
func NewLogger(s LogSettings, headless bool) (*zap.Logger, io.Closer, error) {
	level, err := zapcore.ParseLevel(s.Level)
	if err != nil {
		return nil, nil, err
	}

	var sinks []zapcore.WriteSyncer
	var closer io.Closer = nopCloser{}
	if s.Path != "" {
		lj := &lumberjack.Logger{
			Filename:   s.Path,
			MaxSize:    s.MaxSizeMB,
			MaxBackups: s.MaxBackups,
			MaxAge:     s.MaxAgeDays,
		}
		sinks = append(sinks, zapcore.AddSync(lj))
		closer = lj
	}
	if headless {
		sinks = append(sinks, zapcore.Lock(os.Stdout))
	}
	if len(sinks) == 0 {
		return zap.NewNop(), closer, nil
	}

	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(enc, zapcore.NewMultiWriteSyncer(sinks...), level)
	return zap.New(core, zap.AddCaller()), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
