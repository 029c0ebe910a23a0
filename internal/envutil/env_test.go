package envutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nATT_TEST_A=from-file\nexport ATT_TEST_B=\"quoted value\"\nbroken-line\nATT_TEST_C=kept\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("ATT_TEST_C", "from-env")
	t.Cleanup(func() {
		_ = os.Unsetenv("ATT_TEST_A")
		_ = os.Unsetenv("ATT_TEST_B")
	})

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("ATT_TEST_A"); got != "from-file" {
		t.Fatalf("expected from-file, got %q", got)
	}
	if got := os.Getenv("ATT_TEST_B"); got != "quoted value" {
		t.Fatalf("expected quotes stripped, got %q", got)
	}
	if got := os.Getenv("ATT_TEST_C"); got != "from-env" {
		t.Fatalf("existing env var was overwritten: %q", got)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("missing file should be ignored, got %v", err)
	}
}

func TestWriteDotEnvRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := WriteDotEnv(path, map[string]string{"B": "2", "A": "1"}, false); err != nil {
		t.Fatalf("first write: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(raw) != "A=1\nB=2\n" {
		t.Fatalf("unexpected content %q", raw)
	}
	if err := WriteDotEnv(path, map[string]string{"A": "3"}, false); err == nil {
		t.Fatalf("expected refusal without overwrite")
	}
	if err := WriteDotEnv(path, map[string]string{"A": "3"}, true); err != nil {
		t.Fatalf("forced write: %v", err)
	}
}

func TestTypedGetters(t *testing.T) {
	t.Setenv("ATT_FLOAT", "41.5")
	t.Setenv("ATT_BAD_FLOAT", "north")
	t.Setenv("ATT_DUR", "750ms")
	t.Setenv("ATT_SECS", "7")

	if got := Float("ATT_FLOAT", 0); got != 41.5 {
		t.Fatalf("expected 41.5, got %v", got)
	}
	if got := Float("ATT_BAD_FLOAT", 2); got != 2 {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := Duration("ATT_DUR", time.Second); got != 750*time.Millisecond {
		t.Fatalf("expected 750ms, got %v", got)
	}
	if got := Duration("ATT_SECS", time.Second); got != 7*time.Second {
		t.Fatalf("expected 7s, got %v", got)
	}
	if got := String("ATT_UNSET_VALUE", "dflt"); got != "dflt" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
