package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesEnvAndDefaults(t *testing.T) {
	t.Setenv("DASHSCOPE_API_KEY", "ds-from-env")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if cfg.Dashscope.ApiKey != "ds-from-env" {
		t.Errorf("env overlay failed, got %q", cfg.Dashscope.ApiKey)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Bank.Path != "./data/p1_bank.json" {
		t.Errorf("default bank path = %q", cfg.Bank.Path)
	}
}

func TestLoadConfigFileWinsOverEnv(t *testing.T) {
	t.Setenv("DASHSCOPE_API_KEY", "ds-from-env")

	path := filepath.Join(t.TempDir(), "config.yml")
	content := "server:\n  port: 9001\ndashscope:\n  apiKey: ds-from-file\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dashscope.ApiKey != "ds-from-file" {
		t.Errorf("file value should win, got %q", cfg.Dashscope.ApiKey)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d, want 9001", cfg.Server.Port)
	}
}

func TestLoadConfigMalformedYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error for malformed yaml")
	}
}
