// FILE: cmd/chess/main.go
// Package main runs a terminal game against the configured UCI engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"chessbot/internal/cli"
	"chessbot/internal/config"
	"chessbot/internal/logger"
	"chessbot/internal/processor"
	"chessbot/internal/service"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "Path to a YAML, TOML or JSON config file")
		logLevel = flag.String("log-level", "error", "Log level written to stderr")
		noColor  = flag.Bool("no-color", false, "Disable coloured output")
		history  = flag.String("history", ".chess_history", "Readline history file, empty to disable")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(*logLevel, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	svc := service.New(service.Config{
		Backends:         cfg.Backends,
		HandshakeTimeout: cfg.Engine.HandshakeTimeout,
		MoveTimeout:      cfg.Engine.MoveTimeout,
		DefaultLevel:     cfg.Engine.DefaultLevel,
		DefaultPromotion: cfg.DefaultPromotion(),
		MaxSessions:      1,
	}, log)
	defer svc.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "chess > ",
		HistoryFile:     *history,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	view := cli.New(processor.New(svc), rl.Stdout(), cli.Options{
		Color:      !*noColor && term.IsTerminal(int(os.Stdout.Fd())),
		EngineWait: cfg.Engine.MoveTimeout + cfg.Engine.HandshakeTimeout,
	})
	if err := view.Run(ctx, rl); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
}
