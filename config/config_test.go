package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Bus.ConnectTimeout != 2500*time.Millisecond {
		t.Errorf("connect timeout = %v", cfg.Bus.ConnectTimeout)
	}
	if cfg.Jobs.ReturnDelay != 300*time.Millisecond {
		t.Errorf("return delay = %v", cfg.Jobs.ReturnDelay)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wmsbridge.yaml")

	cfg := Defaults()
	cfg.Web.Port = 9001
	cfg.Bus.Backend = "kafka"
	cfg.Bus.StatusDebounce = 5 * time.Second
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Web.Port != 9001 {
		t.Errorf("port = %d", got.Web.Port)
	}
	if got.Bus.Backend != "kafka" {
		t.Errorf("backend = %q", got.Bus.Backend)
	}
	if got.Bus.StatusDebounce != 5*time.Second {
		t.Errorf("debounce = %v", got.Bus.StatusDebounce)
	}
}

func TestPartialFileKeepsOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("web:\n  port: 9100\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Web.Port != 9100 {
		t.Errorf("port = %d", cfg.Web.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want default kept", cfg.Database.Driver)
	}
}
