package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chessbot/internal/core"
	"chessbot/internal/engine"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr() != "localhost:8080" {
		t.Errorf("addr = %s", cfg.Addr())
	}
	if cfg.Engine.HandshakeTimeout != 5*time.Second || cfg.Engine.MoveTimeout != 30*time.Second {
		t.Errorf("timeouts = %v %v", cfg.Engine.HandshakeTimeout, cfg.Engine.MoveTimeout)
	}
	var names []string
	for _, b := range cfg.Backends() {
		names = append(names, b.Name())
	}
	if strings.Join(names, ",") != "stockfish,stockfish-games" {
		t.Errorf("default backends = %v", names)
	}
	if cfg.DefaultPromotion() != core.Queen {
		t.Errorf("promotion = %v", cfg.DefaultPromotion())
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chess.yaml")
	yaml := `
server:
  port: 9090
engine:
  default_level: 12
  move_timeout: 10s
  backends:
    - name: local
      kind: process
      path: /usr/games/stockfish
    - name: worker
      kind: websocket
      url: ws://engine.internal/uci
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHESS_SERVER_HOST", "0.0.0.0")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("addr = %s", cfg.Addr())
	}
	if cfg.Engine.DefaultLevel != 12 || cfg.Engine.MoveTimeout != 10*time.Second {
		t.Errorf("engine = %+v", cfg.Engine)
	}

	backends := cfg.Backends()
	if len(backends) != 2 {
		t.Fatalf("backends = %d", len(backends))
	}
	if pb, ok := backends[0].(*engine.ProcessBackend); !ok || pb.Name() != "local" {
		t.Errorf("first backend %T %s", backends[0], backends[0].Name())
	}
	if ws, ok := backends[1].(*engine.WebSocketBackend); !ok || ws.URL != "ws://engine.internal/uci" || ws.Name() != "worker" {
		t.Errorf("second backend %T", backends[1])
	}
}

func TestBackendsTriedInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chess.yaml")
	dir := t.TempDir()
	yaml := `
engine:
  handshake_timeout: 1s
  backends:
    - name: primary
      kind: process
      path: ` + filepath.Join(dir, "missing-primary") + `
    - name: fallback
      kind: process
      path: ` + filepath.Join(dir, "missing-fallback") + `
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	a := engine.New(engine.Config{Backends: cfg.Backends(), HandshakeTimeout: cfg.Engine.HandshakeTimeout}, nil)
	err = a.Connect(context.Background())
	if !errors.Is(err, core.ErrEngineUnavailable) {
		t.Fatalf("Connect() = %v", err)
	}
	msg := err.Error()
	first, second := strings.Index(msg, "primary:"), strings.Index(msg, "fallback:")
	if first < 0 || second < 0 || first > second {
		t.Errorf("backends not tried in order: %s", msg)
	}
	if a.State() != engine.StateUnavailable {
		t.Errorf("state = %v", a.State())
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Server: ServerConfig{Port: 8080},
			Engine: EngineConfig{Backends: []BackendConfig{{Kind: "process", Path: "stockfish"}}},
			Game:   GameConfig{DefaultPromotion: "q"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"no backends", func(c *Config) { c.Engine.Backends = nil }},
		{"unknown kind", func(c *Config) { c.Engine.Backends[0].Kind = "grpc" }},
		{"websocket without url", func(c *Config) { c.Engine.Backends[0] = BackendConfig{Kind: "websocket"} }},
		{"level", func(c *Config) { c.Engine.DefaultLevel = 25 }},
		{"promotion", func(c *Config) { c.Game.DefaultPromotion = "k" }},
	}

	ok := base()
	if err := ok.Validate(); err != nil {
		t.Fatalf("base config invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected error")
			}
		})
	}
}
