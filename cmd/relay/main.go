package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"axolotl/internal/app"
	"axolotl/internal/relay"
)

func main() {
	cfg, err := relay.LoadServerConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "relay config:", err)
		os.Exit(1)
	}
	logger := app.NewLogger(os.Stdout, "axolotl-relay", cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := relay.NewServer(cfg, logger).ListenAndServe(ctx); err != nil {
		logger.Error().Err(err).Msg("relay stopped")
		os.Exit(1)
	}
}
