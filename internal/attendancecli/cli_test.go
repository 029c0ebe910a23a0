package attendancecli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phillip-england/attendance/internal/envutil"
	"github.com/phillip-england/attendance/internal/qrscan"
)

func TestExecuteWithoutArgsIsUsage(t *testing.T) {
	if err := Execute(nil); !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if err := Execute([]string{"nope"}); !errors.Is(err, ErrUsage) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestSetupWritesSessionSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := Execute([]string{"setup", "--env-file", path, "--api-base-url", "http://api.test/api/v1"}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read env: %v", err)
	}
	text := string(raw)
	if !strings.Contains(text, "API_BASE_URL=http://api.test/api/v1\n") {
		t.Fatalf("missing API_BASE_URL in %q", text)
	}
	var secret string
	for _, line := range strings.Split(text, "\n") {
		if v, ok := strings.CutPrefix(line, "SESSION_SECRET="); ok {
			secret = v
		}
	}
	if len(secret) < 32 {
		t.Fatalf("expected a generated session secret, got %q", secret)
	}

	if err := Execute([]string{"setup", "--env-file", path}); err == nil {
		t.Fatalf("expected setup to refuse overwriting without --force")
	}
	if err := Execute([]string{"setup", "--env-file", path, "--force"}); err != nil {
		t.Fatalf("setup --force: %v", err)
	}
}

func TestSetupOutputLoadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := Execute([]string{"setup", "--env-file", path, "--addr", ":4123"}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Setenv("CLIENT_ADDR", "")
	os.Unsetenv("CLIENT_ADDR")
	if err := envutil.LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := envutil.String("CLIENT_ADDR", ""); got != ":4123" {
		t.Fatalf("expected :4123, got %q", got)
	}
}

func TestBadgeCommandWritesDecodablePNG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "badges", "e9.png")
	if err := Execute([]string{"badge", "--employee-id", "E009", "--out", out}); err != nil {
		t.Fatalf("badge: %v", err)
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read badge: %v", err)
	}
	got, err := qrscan.DecodeFrame(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != "E009" {
		t.Fatalf("expected E009, got %q", got)
	}
}

func TestBadgeRequiresEmployeeID(t *testing.T) {
	if err := Execute([]string{"badge"}); err == nil {
		t.Fatalf("expected error without --employee-id")
	}
}

func TestRunRejectsUnknownTarget(t *testing.T) {
	if err := Execute([]string{"run", "api"}); err == nil {
		t.Fatalf("expected error for removed api target")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Fatalf("unexpected log output %q", out)
	}
}
