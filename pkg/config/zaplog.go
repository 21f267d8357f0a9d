package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// NewLogger builds the zap.Logger a node runs with, from cfg's Logger
// section. forceTimestamps overrides the terminal-detection heuristic
// used to decide whether timestamps are printed to the console.
func NewLogger(cfg Config, forceTimestamps bool) (*zap.Logger, *zap.AtomicLevel, error) {
	level := zapcore.InfoLevel
	encoding := "console"
	var err error

	if cfg.LogLevel != "" {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("config: log level: %w", err)
		}
	}
	if cfg.LogEncoding != "" {
		encoding = cfg.LogEncoding
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	showTimestamps := forceTimestamps || term.IsTerminal(int(os.Stdout.Fd()))
	if cfg.LogTimestamp != nil {
		showTimestamps = *cfg.LogTimestamp
	}
	if showTimestamps {
		cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cc.EncoderConfig.EncodeTime = func(time.Time, zapcore.PrimitiveArrayEncoder) {}
	}

	cc.Encoding = encoding
	atom := zap.NewAtomicLevelAt(level)
	cc.Level = atom
	cc.Sampling = nil

	if cfg.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0755); err != nil {
			return nil, nil, fmt.Errorf("config: creating log directory: %w", err)
		}
		cc.OutputPaths = []string{cfg.LogPath}
		cc.ErrorOutputPaths = []string{cfg.LogPath}
	}

	logger, err := cc.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("config: building logger: %w", err)
	}
	return logger, &atom, nil
}
