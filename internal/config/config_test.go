package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.Audit.Cap != 1000 {
		t.Fatalf("audit cap = %d", cfg.Audit.Cap)
	}
	if cfg.TwoFactor.WarningDuration != 10*time.Second {
		t.Fatalf("warning duration = %s", cfg.TwoFactor.WarningDuration)
	}
	if cfg.Session.ChannelName != "vehix-admin-session" {
		t.Fatalf("channel name = %q", cfg.Session.ChannelName)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("listen_addr: \":9090\"\naudit:\n  cap: 500\ntwofactor:\n  issuer: \"Test Admin\"\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":9090" {
		t.Fatalf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.Audit.Cap != 500 {
		t.Fatalf("audit cap = %d", cfg.Audit.Cap)
	}
	if cfg.TwoFactor.Issuer != "Test Admin" {
		t.Fatalf("issuer = %q", cfg.TwoFactor.Issuer)
	}
	// Unset fields keep their defaults.
	if cfg.Auth.TokenTTL != 12*time.Hour {
		t.Fatalf("token ttl = %s", cfg.Auth.TokenTTL)
	}
}

func TestMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("listen addr = %q", cfg.ListenAddr)
	}
}

func TestInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(":\n  - ["), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VEHIX_LISTEN_ADDR", ":7070")
	t.Setenv("VEHIX_AUDIT_CAP", "250")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":7070" {
		t.Fatalf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.Audit.Cap != 250 {
		t.Fatalf("audit cap = %d", cfg.Audit.Cap)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Audit.Cap = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero cap must be rejected")
	}
	cfg = Default()
	cfg.Session.ChannelName = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty channel name must be rejected")
	}
}
