package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iwvelando/loan-analyzer/pkg/constants"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Address != constants.DefaultServerAddress {
		t.Fatalf("expected default address, got %q", cfg.Address)
	}
	if cfg.UploadSizeBytes() != constants.DefaultMaxUploadSizeBytes {
		t.Fatalf("expected default max upload size, got %d", cfg.UploadSizeBytes())
	}
	if cfg.RequestTimeoutDuration() != 30*time.Second {
		t.Fatalf("expected 30s request timeout, got %s", cfg.RequestTimeoutDuration())
	}
	if cfg.Logging.Level != "" || cfg.Logging.Format != "" || cfg.Logging.OutputFile != "" {
		t.Fatalf("expected empty logging defaults, got %+v", cfg.Logging)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.UploadSizeBytes() != constants.DefaultMaxUploadSizeBytes {
		t.Fatalf("expected default max upload size, got %d", cfg.UploadSizeBytes())
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server-config.yaml")

	contents := []byte(`address: 127.0.0.1:9000
maxUploadSize: 2M
requestTimeout: 5s
logging:
  level: debug
  format: console
  outputFile: /tmp/server.log
`)
	if err := os.WriteFile(path, contents, 0600); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Address != "127.0.0.1:9000" {
		t.Fatalf("expected address override, got %s", cfg.Address)
	}
	if cfg.UploadSizeBytes() != 2*1024*1024 {
		t.Fatalf("expected max upload override, got %d", cfg.UploadSizeBytes())
	}
	if cfg.RequestTimeoutDuration() != 5*time.Second {
		t.Fatalf("expected request timeout override, got %s", cfg.RequestTimeoutDuration())
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging config %+v", cfg.Logging)
	}
	if cfg.Logging.OutputFile != "/tmp/server.log" {
		t.Fatalf("expected logging outputFile /tmp/server.log, got %s", cfg.Logging.OutputFile)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"bad size", "maxUploadSize: invalid"},
		{"bad timeout", "requestTimeout: soon"},
		{"negative timeout", "requestTimeout: -1s"},
		{"malformed yaml", "address: [unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.contents), 0600); err != nil {
				t.Fatalf("failed to write temp config: %v", err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Fatal("expected error but got nil")
			}
		})
	}
}

func TestSetUploadSizeBytes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetUploadSizeBytes(512)
	if cfg.UploadSizeBytes() != 512 || cfg.MaxUploadSize != "512" {
		t.Fatalf("expected 512 bytes, got %d (%s)", cfg.UploadSizeBytes(), cfg.MaxUploadSize)
	}
	cfg.SetUploadSizeBytes(0)
	if cfg.UploadSizeBytes() != 512 {
		t.Fatalf("expected non-positive override to be ignored, got %d", cfg.UploadSizeBytes())
	}
}

func TestParseSize(t *testing.T) {
	tests := map[string]int64{
		"":      constants.DefaultMaxUploadSizeBytes,
		"100":   100,
		"100B":  100,
		"256K":  256 * 1024,
		"256kb": 256 * 1024,
		" 10M ": 10 * 1024 * 1024,
		"1GB":   1024 * 1024 * 1024,
	}

	for input, expected := range tests {
		got, err := ParseSize(input)
		if err != nil {
			t.Fatalf("ParseSize(%q) error = %v", input, err)
		}
		if got != expected {
			t.Fatalf("ParseSize(%q) = %d, want %d", input, got, expected)
		}
	}

	for _, input := range []string{"abc", "10T", "M"} {
		if _, err := ParseSize(input); err == nil {
			t.Fatalf("ParseSize(%q) expected error", input)
		}
	}
}
