package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("serial:\n  device: /dev/ttyS3\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Serial.Device != "/dev/ttyS3" {
		t.Errorf("Expected device /dev/ttyS3, got %q", cfg.Serial.Device)
	}
	if cfg.Serial.Baud != 9600 {
		t.Errorf("Expected default baud 9600, got %d", cfg.Serial.Baud)
	}
	if cfg.Timeout() != 500*time.Millisecond {
		t.Errorf("Expected 500ms timeout, got %v", cfg.Timeout())
	}

	port := cfg.SerialPort()
	if port.Device != "/dev/ttyS3" || port.Baud != 9600 || port.ReadTimeout != DefaultReadMs {
		t.Errorf("Unexpected port config %+v", port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"wrong baud", "serial:\n  baud: 115200\n", "only supports 9600"},
		{"negative timeout", "serial:\n  timeout_ms: -1\n", "must not be negative"},
		{"read longer than deadline", "serial:\n  timeout_ms: 100\n  read_ms: 200\n", "exceeds timeout_ms"},
		{"bad yaml", "serial: [\n", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error: got %q want %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fanctl.yaml")
	if err := os.WriteFile(path, []byte("serial:\n  device: COM4\n  timeout_ms: 800\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Serial.Device != "COM4" || cfg.Timeout() != 800*time.Millisecond {
		t.Errorf("Unexpected config %+v", cfg.Serial)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
	if cfg.Serial.Device != DefaultDevice {
		t.Errorf("Expected %q, got %q", DefaultDevice, cfg.Serial.Device)
	}
}
