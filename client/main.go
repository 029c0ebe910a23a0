package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/phillip-england/attendance/internal/attendancecli"
	"github.com/phillip-england/attendance/internal/clientapp"
	"github.com/phillip-england/attendance/internal/envutil"
)

func main() {
	if err := envutil.LoadDotEnv(".env"); err != nil {
		log.Fatal(err)
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := attendancecli.NewLogger(os.Stdout, envutil.String("LOG_LEVEL", "info"))
	if err := clientapp.Run(ctx, clientapp.DefaultConfigFromEnv(), logger); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
