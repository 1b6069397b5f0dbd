package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFrom_MissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Source.Kind != SourceHTTP {
		t.Fatalf("Source.Kind = %q, want http", cfg.Source.Kind)
	}
	if got := cfg.RefreshInterval(); got != 30*time.Second {
		t.Fatalf("RefreshInterval = %v, want 30s", got)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fincast", "config.toml")
	cfg := DefaultConfig()
	cfg.Source.Kind = SourceFile
	cfg.Source.File = "/tmp/user_data.json"
	cfg.General.RefreshSeconds = 45
	cfg.Advisor.Mode = AdvisorLLM

	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.Source != cfg.Source || got.Advisor.Mode != AdvisorLLM {
		t.Fatalf("round trip = %+v, want %+v", got, cfg)
	}
	if got.RefreshInterval() != 45*time.Second {
		t.Fatalf("RefreshInterval = %v, want 45s", got.RefreshInterval())
	}
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[source]\nkind = \"static\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Source.Kind != SourceStatic {
		t.Errorf("Source.Kind = %q, want static", cfg.Source.Kind)
	}
	if cfg.Daemon.Addr != DefaultConfig().Daemon.Addr {
		t.Errorf("Daemon.Addr = %q, want default", cfg.Daemon.Addr)
	}
}

func TestLoadFrom_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[source\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("FINCAST_SOURCE_URL", "http://example.test/data.json")
	t.Setenv("FINCAST_ADVISOR_API_KEY", "env-key")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := DefaultConfig()
	cfg.Advisor.APIKey = "file-key"
	ApplyEnv(&cfg)

	if cfg.Source.URL != "http://example.test/data.json" {
		t.Errorf("Source.URL = %q", cfg.Source.URL)
	}
	if cfg.Advisor.APIKey != "env-key" {
		t.Errorf("Advisor.APIKey = %q, want env-key", cfg.Advisor.APIKey)
	}
}

func TestRefreshIntervalFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.RefreshSeconds = 1
	if got := cfg.RefreshInterval(); got != 30*time.Second {
		t.Fatalf("RefreshInterval = %v, want fallback 30s", got)
	}
}
