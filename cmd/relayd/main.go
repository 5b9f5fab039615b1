// Command relayd serves the storefront's same-origin relay endpoints:
// GET /api/projects and POST /api/ccep, plus health and metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecotoken/storefront/config"
	"github.com/ecotoken/storefront/logger"
	"github.com/ecotoken/storefront/metrics"
	"github.com/ecotoken/storefront/relay"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file; environment overrides it")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg := logger.NewZapLogger(cfg.LogLevel)
	rec := metrics.NewPrometheusRecorder()

	srv := relay.New(cfg,
		relay.WithLogger(logg),
		relay.WithMetrics(rec),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error("relay stopped", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	logg.Info("relay shut down", nil)
}
