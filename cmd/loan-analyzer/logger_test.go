package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iwvelando/loan-analyzer/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    config.LoggingConfig
		override  string
		wantLevel zapcore.Level
		wantError bool
	}{
		{"defaults", config.LoggingConfig{}, "", zapcore.InfoLevel, false},
		{"config level", config.LoggingConfig{Level: "warn"}, "", zapcore.WarnLevel, false},
		{"override wins", config.LoggingConfig{Level: "warn"}, "debug", zapcore.DebugLevel, false},
		{"warning alias", config.LoggingConfig{Level: "warning", Format: "console"}, "", zapcore.WarnLevel, false},
		{"upper case", config.LoggingConfig{Level: "ERROR"}, "", zapcore.ErrorLevel, false},
		{"invalid level", config.LoggingConfig{Level: "verbose"}, "", zapcore.InfoLevel, true},
		{"invalid format", config.LoggingConfig{Format: "xml"}, "", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := initializeLogger(tt.config, tt.override)
			if tt.wantError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("initializeLogger() error = %v", err)
			}
			if !logger.Core().Enabled(tt.wantLevel) {
				t.Errorf("expected level %s to be enabled", tt.wantLevel)
			}
			if tt.wantLevel > zapcore.DebugLevel && logger.Core().Enabled(tt.wantLevel-1) {
				t.Errorf("expected level %s to be disabled", tt.wantLevel-1)
			}
		})
	}
}

func TestInitializeLoggerOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "analyzer.log")

	logger, err := initializeLogger(config.LoggingConfig{OutputFile: path}, "")
	if err != nil {
		t.Fatalf("initializeLogger() error = %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log output in file")
	}
}
