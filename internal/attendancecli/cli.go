package attendancecli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/phillip-england/attendance/internal/apiclient"
	"github.com/phillip-england/attendance/internal/clientapp"
	"github.com/phillip-england/attendance/internal/envutil"
	"github.com/phillip-england/attendance/internal/qrscan"
	"github.com/phillip-england/attendance/internal/security"
)

var ErrUsage = errors.New("usage")

func Execute(args []string) error {
	if len(args) < 1 {
		return usageError()
	}

	switch args[0] {
	case "setup":
		return runSetup(args[1:])
	case "run":
		return runCommand(args[1:])
	case "badge":
		return runBadge(args[1:])
	case "help", "-h", "--help":
		return usageError()
	default:
		return usageError()
	}
}

func usageError() error {
	return fmt.Errorf("%w: attendance <setup|run|badge> [...]", ErrUsage)
}

func PrintUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: attendance setup [--api-base-url URL] [--env-file .env] [--force]")
	fmt.Fprintln(w, "       attendance run [client]")
	fmt.Fprintln(w, "       attendance badge --employee-id ID [--out badge.png] [--size 256]")
}

func runSetup(args []string) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	apiBase := fs.String("api-base-url", apiclient.DefaultBaseURL, "attendance API base URL")
	addr := fs.String("addr", ":3000", "client listen address")
	envPath := fs.String("env-file", ".env", "path to .env file")
	force := fs.Bool("force", false, "overwrite existing env file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	secret, err := security.RandomToken(32)
	if err != nil {
		return fmt.Errorf("generate session secret: %w", err)
	}

	values := map[string]string{
		"CLIENT_ADDR":     *addr,
		"API_BASE_URL":    *apiBase,
		"SESSION_DB_PATH": "data/sessions.db",
		"SESSION_SECRET":  secret,
		"LOG_LEVEL":       "info",
	}

	if err := envutil.WriteDotEnv(*envPath, values, *force); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", *envPath)
	return nil
}

func runCommand(args []string) error {
	target := "client"
	if len(args) > 0 {
		target = args[0]
	}
	if target != "client" {
		return fmt.Errorf("unknown run target %q", target)
	}

	if err := envutil.LoadDotEnv(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return runClient(ctx, NewLogger(os.Stdout, envutil.String("LOG_LEVEL", "info")))
}

func runClient(ctx context.Context, logger *slog.Logger) error {
	cfg := clientapp.DefaultConfigFromEnv()
	if err := ensureParentDirs(cfg.SessionDBPath); err != nil {
		return err
	}
	if err := clientapp.Run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// NewLogger builds the JSON logger used by every command; unknown levels mean info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func runBadge(args []string) error {
	fs := flag.NewFlagSet("badge", flag.ContinueOnError)
	employeeID := fs.String("employee-id", "", "employee id to encode")
	out := fs.String("out", "", "output PNG path (default badge-<employee-id>.png)")
	size := fs.Int("size", 256, "image size in pixels")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id := strings.TrimSpace(*employeeID)
	if id == "" {
		return errors.New("--employee-id is required")
	}
	if *size < 64 {
		return errors.New("--size must be at least 64")
	}
	path := *out
	if path == "" {
		path = "badge-" + id + ".png"
	}

	png, err := qrscan.Badge(id, *size)
	if err != nil {
		return fmt.Errorf("encode badge: %w", err)
	}
	if err := ensureParentDirs(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func ensureParentDirs(paths ...string) error {
	for _, p := range paths {
		dir := filepath.Dir(p)
		if dir == "." || dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
