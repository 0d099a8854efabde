package promptregistry

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetFallsBackToBuiltin(t *testing.T) {
	dir := t.TempDir()
	builtins := map[string]string{"orchestrator": "built-in text"}
	r := New(dir, []string{"orchestrator"}, builtins, true, false)
	defer r.Close()

	if got := r.Get("orchestrator"); got != "built-in text" {
		t.Fatalf("got %q", got)
	}
}

func TestGetReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orchestrator.md")
	if err := os.WriteFile(path, []byte("version one\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	builtins := map[string]string{"orchestrator": "built-in text"}
	r := New(dir, []string{"orchestrator"}, builtins, true, false)
	defer r.Close()

	if got := r.Get("orchestrator"); got != "version one" {
		t.Fatalf("got %q", got)
	}

	// Ensure a distinct mtime so the fingerprint changes even on coarse
	// filesystem clocks.
	time.Sleep(10 * time.Millisecond)
	if err := os.WriteFile(path, []byte("version two\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := r.Get("orchestrator"); got != "version two" {
		t.Fatalf("got %q, want reloaded content", got)
	}
}

func TestGetNeverFails(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "orchestrator.md"), []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}
	builtins := map[string]string{"orchestrator": "built-in text"}
	r := New(dir, []string{"orchestrator"}, builtins, true, false)
	defer r.Close()

	if got := r.Get("missing-key"); got != "" {
		t.Fatalf("expected empty string for unknown key with no builtin, got %q", got)
	}
}
