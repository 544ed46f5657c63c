// Command tracktruck serves the fleet maintenance API, runs the scheduled
// maintenance pass and pushes alerts to admin dashboards.
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

	"github.com/Taha-mlaiki/TrackTruck/config"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("failed to load env file: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, logCloser, err := newLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := build(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		_ = logCloser.Close()
		os.Exit(1)
	}

	if err := a.engine.Start(ctx); err != nil {
		logger.Error("engine start failed", "error", err)
		_ = a.close(context.Background())
		os.Exit(1)
	}
	if a.sched != nil {
		if err := a.sched.Start(ctx); err != nil {
			logger.Error("scheduler start failed", "error", err)
			_ = a.close(context.Background())
			os.Exit(1)
		}
		a.onClose(a.sched.Stop)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("tracktruck listening",
			"addr", a.server.Addr,
			"store", cfg.Store.Driver,
			"assets", cfg.Assets.Driver,
			"schedule", cfg.Scheduler.Spec,
			"schedulerEnabled", a.sched != nil)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			logger.Error("http server failed", "error", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if err := a.close(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
		exitCode = 1
	}
	_ = logCloser.Close()
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
