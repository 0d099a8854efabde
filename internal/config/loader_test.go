package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFallsBackToDefaultsWhenFileMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != defaultConfig().Server.Port {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, defaultConfig().Server.Port)
	}
	if cfg.ConfigDir != dir {
		t.Errorf("ConfigDir = %q, want %q", cfg.ConfigDir, dir)
	}
}

func TestLoadExpandsEnvAndOverridesDefaults(t *testing.T) {
	t.Setenv("GW_TEST_PUBLIC_MODEL_ID", "env-expanded-model")
	dir := t.TempDir()
	yaml := "server:\n  port: 9090\n  public_model_id: ${GW_TEST_PUBLIC_MODEL_ID}\n"
	if err := os.WriteFile(filepath.Join(dir, "gateway.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatalf("seed gateway.yaml: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.PublicModelID != "env-expanded-model" {
		t.Errorf("Server.PublicModelID = %q, want %q", cfg.Server.PublicModelID, "env-expanded-model")
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "gateway.yaml"), []byte("server: [this is not valid"), 0o600); err != nil {
		t.Fatalf("seed gateway.yaml: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

func TestLoadRejectsConfigThatFailsValidation(t *testing.T) {
	dir := t.TempDir()
	yaml := "server:\n  port: -1\n"
	if err := os.WriteFile(filepath.Join(dir, "gateway.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatalf("seed gateway.yaml: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected a validation error for a negative port")
	}
}

func TestResolvePathJoinsRelativeAgainstConfigDir(t *testing.T) {
	cfg := &Config{ConfigDir: "/etc/gateway"}
	if got := cfg.ResolvePath("prompts"); got != filepath.Join("/etc/gateway", "prompts") {
		t.Errorf("ResolvePath(relative) = %q", got)
	}
	if got := cfg.ResolvePath("/abs/path"); got != "/abs/path" {
		t.Errorf("ResolvePath(absolute) = %q, want unchanged", got)
	}
}
