// Command fcdrd serves the HIRS uncertainty-effect catalogue over HTTP:
// effect listings with sensitivity coefficients for harmonisation tooling,
// correlation matrices derived against a synthetic granule, and Prometheus
// metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/jmittaz/FCDR-HIRS/core"
	"github.com/jmittaz/FCDR-HIRS/internal/config"
	"github.com/jmittaz/FCDR-HIRS/internal/demo"
	"github.com/jmittaz/FCDR-HIRS/internal/logging"
	"github.com/jmittaz/FCDR-HIRS/internal/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fcdrd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to TOML configuration file")
	bind := flag.String("bind", "", "listen address, overrides config")
	logLevel := flag.String("log-level", "", "log level, overrides config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *bind != "" {
		cfg.Server.Bind = *bind
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	log := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	catalogue, err := core.NewHIRSCatalogue(log)
	if err != nil {
		return fmt.Errorf("build catalogue: %w", err)
	}

	collector, err := observability.NewCatalogueCollector(nil)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	collector.SetCatalogueCounts(catalogue.CountByClass())

	start := time.Now().UTC().Truncate(time.Minute)
	if cfg.Granule.StartTimestamp != "" {
		start, err = time.Parse(time.RFC3339, cfg.Granule.StartTimestamp)
		if err != nil {
			return fmt.Errorf("granule.start_timestamp: %w", err)
		}
	}
	granule, err := demo.NewGranule(start, cfg.Granule.Scanlines, cfg.Granule.CalibEvery)
	if err != nil {
		return fmt.Errorf("build demo granule: %w", err)
	}

	if track, err := demo.Track(granule, cfg.Granule.TLELine1, cfg.Granule.TLELine2); err == nil && len(track) > 0 {
		log.Info(ctx, "demo granule ready",
			logging.Int("scanlines", len(granule.ScanlineTimes)),
			logging.Int("calibration_cycles", len(granule.CalibrationTimes)),
			logging.Float64("first_radius_km", track[0].Norm()),
		)
	}

	srv := &server{
		catalogue: catalogue,
		granule:   granule,
		collector: collector,
		log:       log,
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Bind,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", logging.String("addr", cfg.Server.Bind))
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-sigCh:
		log.Info(ctx, "shutting down", logging.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
