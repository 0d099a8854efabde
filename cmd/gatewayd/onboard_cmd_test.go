package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUpsertEnvFileCreatesFileWithKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := upsertEnvFile(path, map[string]string{"OPENAI_API_KEY": "sk-test"}); err != nil {
		t.Fatalf("upsertEnvFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "OPENAI_API_KEY=sk-test") {
		t.Fatalf("expected key in output, got %q", data)
	}
}

func TestUpsertEnvFilePreservesCommentsAndOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	original := "# keep this comment\nFOO=bar\nOPENAI_API_KEY=old-value\n\nBAZ=qux\n"
	if err := os.WriteFile(path, []byte(original), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	if err := upsertEnvFile(path, map[string]string{"OPENAI_API_KEY": "new-value"}); err != nil {
		t.Fatalf("upsertEnvFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")

	want := []string{"# keep this comment", "FOO=bar", "OPENAI_API_KEY=new-value", "", "BAZ=qux"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %v", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestUpsertEnvFileAppendsNewKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("FOO=bar\n"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	if err := upsertEnvFile(path, map[string]string{"GATEWAY_DATABASE_URL": "postgres://x"}); err != nil {
		t.Fatalf("upsertEnvFile: %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "FOO=bar") || !strings.Contains(string(data), "GATEWAY_DATABASE_URL=postgres://x") {
		t.Fatalf("expected both keys present, got %q", data)
	}
}

func TestEnvLineKeyIgnoresCommentsAndBlankLines(t *testing.T) {
	if _, ok := envLineKey("# a comment"); ok {
		t.Error("comment line should not yield a key")
	}
	if _, ok := envLineKey("   "); ok {
		t.Error("blank line should not yield a key")
	}
	key, ok := envLineKey("export FOO=bar")
	if !ok || key != "FOO" {
		t.Errorf("got (%q, %v), want (FOO, true)", key, ok)
	}
}
