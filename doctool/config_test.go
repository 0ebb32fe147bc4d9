package doctool

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doctool.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  name: report-tools
  version: "1.4.0"
engine:
  kind: memory
limits:
  max_read_chars: 512
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Name != "report-tools" || cfg.Server.Version != "1.4.0" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Engine.Kind != "memory" {
		t.Errorf("engine kind = %q", cfg.Engine.Kind)
	}
	if cfg.Limits.MaxReadChars != 512 {
		t.Errorf("max_read_chars = %d, want 512", cfg.Limits.MaxReadChars)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
	path := writeConfig(t, "server: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Error("Load of invalid YAML succeeded")
	}
}

func TestConfigValidate(t *testing.T) {
	var cfg Config
	cfg.Limits.MaxReadChars = -1
	if err := cfg.Validate(); err == nil {
		t.Error("negative max_read_chars passed validation")
	}

	cfg = Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	cfg.applyDefaults()
	if cfg.Server.Name != "docselect" || cfg.Server.Version != "dev" {
		t.Errorf("server defaults = %+v", cfg.Server)
	}
	if cfg.Engine.Kind != "memory" {
		t.Errorf("engine kind default = %q", cfg.Engine.Kind)
	}
	if cfg.Limits.MaxReadChars != DefaultMaxReadChars {
		t.Errorf("max_read_chars default = %d", cfg.Limits.MaxReadChars)
	}
}
