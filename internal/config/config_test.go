package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "lodo")

	cfg, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database != filepath.Join(dir, "lodo.db") {
		t.Fatalf("Database = %q", cfg.Database)
	}
	if cfg.ServiceURL != "" || cfg.FriendCode != "" {
		t.Fatalf("network fields should default empty: %+v", cfg)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.json")); err != nil {
		t.Fatalf("default config.json not written: %v", err)
	}
}

func TestLoadReadsExisting(t *testing.T) {
	dir := t.TempDir()
	blob := `{"database":"/tmp/other.db","service_url":"https://lodo.example","friend_code":"abc123","nickname":"dh"}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(blob), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database != "/tmp/other.db" {
		t.Fatalf("Database = %q", cfg.Database)
	}
	if cfg.ServiceURL != "https://lodo.example" || cfg.FriendCode != "abc123" || cfg.Nickname != "dh" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadFlagOverridesDatabase(t *testing.T) {
	dir := t.TempDir()
	blob := `{"database":"/tmp/configured.db"}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(blob), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir, "/tmp/flag.db")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database != "/tmp/flag.db" {
		t.Fatalf("Database = %q, want flag override", cfg.Database)
	}
}

func TestLoadBadJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir, ""); err == nil {
		t.Fatal("want error for malformed config")
	}
}
