package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("resolved path = %q", resolved)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	def := Default()
	if cfg.ServerURL != def.ServerURL || cfg.RetryDelay != def.RetryDelay || !reflect.DeepEqual(cfg.DefaultRooms, def.DefaultRooms) {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	again, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.ShutdownTimeout != def.ShutdownTimeout || again.SendBurst != def.SendBurst {
		t.Fatalf("written defaults did not round-trip: %+v", again)
	}
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("control_addr: 127.0.0.1:9000\nretry_delay: 250ms\ndefault_rooms:\n  - techcode\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PSCORD_CONTROL_ADDR", "127.0.0.1:9100")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ControlAddr != "127.0.0.1:9100" {
		t.Fatalf("env must win over file, got %q", cfg.ControlAddr)
	}
	if cfg.RetryDelay != 250*time.Millisecond {
		t.Fatalf("file must win over defaults, got %v", cfg.RetryDelay)
	}
	if !reflect.DeepEqual(cfg.DefaultRooms, []string{"techcode"}) {
		t.Fatalf("default rooms = %v", cfg.DefaultRooms)
	}
	if cfg.ChallengePoll != Default().ChallengePoll {
		t.Fatalf("unset keys keep defaults, got %v", cfg.ChallengePoll)
	}
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{LogLevel: "debug", SendBurst: 2, DefaultRooms: []string{"help"}})

	if cfg.LogLevel != "debug" || cfg.SendBurst != 2 || !reflect.DeepEqual(cfg.DefaultRooms, []string{"help"}) {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.ServerURL != Default().ServerURL {
		t.Fatalf("zero values must not overwrite")
	}
}
