// Package main implements the demo host for the Linen kernel: it loads
// the YAML configuration, wires the kernel with metrics, registers the
// demo components, runs the tick loop until a signal arrives, and saves
// persisted state on the way out.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/SaxonRah/Linen/config"
	"github.com/SaxonRah/Linen/kernel"
	"github.com/SaxonRah/Linen/metric"
)

const (
	// Version is the build version reported by -version
	Version = "0.1.0"

	appName = "linen"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  = flag.String("config", "", "path to YAML configuration (defaults used when empty)")
		slot        = flag.String("slot", "autosave", "save slot base name")
		restore     = flag.Bool("restore", false, "restore the save slot at startup")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger, err := setupLogger(cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	logger.Info("starting linen", "version", Version, "config", *configPath)

	metricsReg := metric.NewMetricsRegistry()

	if cfg.Metrics.Enabled {
		metricsServer := metric.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path, metricsReg)
		go func() {
			// Start blocks until Stop closes the server
			if err := metricsServer.Start(); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() { _ = metricsServer.Stop() }()
		logger.Info("metrics server started", "address", metricsServer.Address())
	}

	k, err := kernel.New(cfg, logger, metricsReg)
	if err != nil {
		return err
	}

	if err := registerDemoComponents(k); err != nil {
		return err
	}

	if *restore {
		if err := k.LoadGame(*slot); err != nil {
			logger.Warn("restore failed, starting fresh", "slot", *slot, "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- k.Run(ctx) }()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signals
	logger.Info("signal received, shutting down", "signal", sig.String())

	// Snapshot state while components are still active, then stop the loop
	if err := k.SaveGame(*slot); err != nil {
		logger.Error("shutdown save failed", "slot", *slot, "error", err)
	}
	cancel()
	return <-done
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func setupLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler), nil
}
