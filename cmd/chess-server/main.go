// Package main runs the REST API for playing chess against a UCI engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chessbot/internal/config"
	"chessbot/internal/http"
	"chessbot/internal/logger"
	"chessbot/internal/processor"
	"chessbot/internal/service"

	"go.uber.org/zap"
)

const gracefulShutdownTimeout = 5 * time.Second

func main() {
	var (
		cfgPath = flag.String("config", "", "Path to a YAML, TOML or JSON config file")
		apiHost = flag.String("api-host", "", "API server host (overrides config)")
		apiPort = flag.Int("api-port", 0, "API server port (overrides config)")
		dev     = flag.Bool("dev", false, "Development mode (relaxed rate limits, console logs)")
		pidPath = flag.String("pid", "", "Optional path to write PID file")
		pidLock = flag.Bool("pid-lock", false, "Lock PID file to allow only one instance (requires -pid)")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *apiHost != "" {
		cfg.Server.Host = *apiHost
	}
	if *apiPort != 0 {
		cfg.Server.Port = *apiPort
	}
	if *dev {
		cfg.Server.Dev = true
	}

	log, err := logger.New(cfg.Log.Level, cfg.Server.Dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *pidLock && *pidPath == "" {
		log.Fatal("-pid-lock flag requires the -pid flag to be set")
	}
	if *pidPath != "" {
		cleanup, err := managePIDFile(*pidPath, *pidLock)
		if err != nil {
			log.Fatal("failed to manage PID file", zap.Error(err))
		}
		defer cleanup()
	}

	svc := service.New(service.Config{
		Backends:         cfg.Backends,
		HandshakeTimeout: cfg.Engine.HandshakeTimeout,
		MoveTimeout:      cfg.Engine.MoveTimeout,
		DefaultLevel:     cfg.Engine.DefaultLevel,
		DefaultPromotion: cfg.DefaultPromotion(),
		MaxSessions:      cfg.Game.MaxSessions,
	}, log)
	proc := processor.New(svc)
	app := http.NewFiberApp(proc, cfg.Server.Dev)

	addr := cfg.Addr()
	go func() {
		log.Info("chess API server starting",
			zap.String("addr", "http://"+addr),
			zap.Bool("dev", cfg.Server.Dev),
			zap.Int("engines", len(cfg.Engine.Backends)),
			zap.Int("maxGames", cfg.Game.MaxSessions),
		)
		if err := app.Listen(addr); err != nil {
			log.Error("API server listen error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Warn("server forced to shutdown", zap.Error(err))
	}
	if err := svc.Close(); err != nil {
		log.Warn("service shutdown error", zap.Error(err))
	}

	log.Info("server exited")
}
