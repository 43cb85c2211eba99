package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_FromRoot(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "version: 1\ntimeout: 10m\nno_output_timeout: 30s\nkill_grace: 0s\nmax_output: 4096\nenv:\n  CI: \"true\"\n")

	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Root != dir {
		t.Errorf("Root = %q, want %q", res.Root, dir)
	}
	cfg := res.Config
	if cfg.Version != 1 {
		t.Errorf("Config.Version = %d, want 1", cfg.Version)
	}
	if cfg.Timeout() != 10*time.Minute {
		t.Errorf("Timeout() = %s, want 10m", cfg.Timeout())
	}
	if cfg.NoOutputTimeout() != 30*time.Second {
		t.Errorf("NoOutputTimeout() = %s, want 30s", cfg.NoOutputTimeout())
	}
	if cfg.KillGrace() != 0 {
		t.Errorf("KillGrace() = %s, want 0", cfg.KillGrace())
	}
	if cfg.MaxOutputBytes() != 4096 {
		t.Errorf("MaxOutputBytes() = %d, want 4096", cfg.MaxOutputBytes())
	}
	if cfg.Env["CI"] != "true" {
		t.Errorf("Env[CI] = %q, want %q", cfg.Env["CI"], "true")
	}
}

func TestLoad_FromSubdirectory(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "version: 2\n")

	sub := filepath.Join(root, "pkg", "foo")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := Load(sub)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Root != root {
		t.Errorf("Root = %q, want %q", res.Root, root)
	}
	if res.Config.Version != 2 {
		t.Errorf("Config.Version = %d, want 2", res.Config.Version)
	}
}

func TestLoad_NoFile(t *testing.T) {
	dir := t.TempDir()

	res, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Root != dir {
		t.Errorf("Root = %q, want %q (fallback to workspace)", res.Root, dir)
	}
	if res.Path != "" {
		t.Errorf("Path = %q, want empty", res.Path)
	}
	// Should return default config.
	cfg := res.Config
	if cfg.Timeout() != DefaultTimeout {
		t.Errorf("Timeout() = %s, want %s", cfg.Timeout(), DefaultTimeout)
	}
	if cfg.NoOutputTimeout() != 0 {
		t.Errorf("NoOutputTimeout() = %s, want 0", cfg.NoOutputTimeout())
	}
	if cfg.KillGrace() != DefaultKillGrace {
		t.Errorf("KillGrace() = %s, want %s", cfg.KillGrace(), DefaultKillGrace)
	}
	if cfg.MaxOutputBytes() != DefaultMaxOutput {
		t.Errorf("MaxOutputBytes() = %d, want %d", cfg.MaxOutputBytes(), DefaultMaxOutput)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad yaml", "timeout: [", "parsing"},
		{"bad duration", "timeout: soon\n", "timeout"},
		{"negative grace", "kill_grace: -1s\n", "kill_grace"},
		{"negative output", "max_output: -5\n", "max_output"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.body)
			_, err := Load(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want to mention %q", err, tt.want)
			}
		})
	}
}

func TestConfig_ZeroTimeoutFallsBack(t *testing.T) {
	cfg := &Config{RawTimeout: "0s", RawNoOutputTimeout: "0s"}
	if cfg.Timeout() != DefaultTimeout {
		t.Errorf("Timeout() = %s, want %s", cfg.Timeout(), DefaultTimeout)
	}
	if cfg.NoOutputTimeout() != 0 {
		t.Errorf("NoOutputTimeout() = %s, want 0", cfg.NoOutputTimeout())
	}
}
