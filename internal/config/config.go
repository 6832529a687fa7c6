// Package config loads server settings from defaults, an optional config
// file and CHESS_* environment variables, in increasing precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"chessbot/internal/core"
	"chessbot/internal/engine"

	"github.com/gorilla/websocket"
	"github.com/spf13/viper"
)

const envPrefix = "CHESS"

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Engine EngineConfig `mapstructure:"engine"`
	Game   GameConfig   `mapstructure:"game"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Dev  bool   `mapstructure:"dev"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type EngineConfig struct {
	Backends         []BackendConfig `mapstructure:"backends"`
	HandshakeTimeout time.Duration   `mapstructure:"handshake_timeout"`
	MoveTimeout      time.Duration   `mapstructure:"move_timeout"`
	DefaultLevel     int             `mapstructure:"default_level"`
}

// BackendConfig describes one engine candidate. Kind is "process" or "websocket".
type BackendConfig struct {
	Name string   `mapstructure:"name"`
	Kind string   `mapstructure:"kind"`
	Path string   `mapstructure:"path"`
	Args []string `mapstructure:"args"`
	URL  string   `mapstructure:"url"`
}

type GameConfig struct {
	MaxSessions      int    `mapstructure:"max_sessions"`
	DefaultPromotion string `mapstructure:"default_promotion"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.dev", false)
	v.SetDefault("log.level", "info")
	// A PATH lookup first, then the Debian/Ubuntu package location
	v.SetDefault("engine.backends", []map[string]any{
		{"name": "stockfish", "kind": "process", "path": "stockfish"},
		{"name": "stockfish-games", "kind": "process", "path": "/usr/games/stockfish"},
	})
	v.SetDefault("engine.handshake_timeout", "5s")
	v.SetDefault("engine.move_timeout", "30s")
	v.SetDefault("engine.default_level", 5)
	v.SetDefault("game.max_sessions", 64)
	v.SetDefault("game.default_promotion", "q")
}

// Load reads cfgPath when non-empty and applies environment overrides,
// e.g. CHESS_SERVER_PORT or CHESS_ENGINE_MOVE_TIMEOUT
func Load(cfgPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if len(c.Engine.Backends) == 0 {
		return fmt.Errorf("engine.backends must list at least one backend")
	}
	for i, b := range c.Engine.Backends {
		switch b.Kind {
		case "process":
			if b.Path == "" {
				return fmt.Errorf("engine.backends[%d]: process backend needs a path", i)
			}
		case "websocket":
			if b.URL == "" {
				return fmt.Errorf("engine.backends[%d]: websocket backend needs a url", i)
			}
		default:
			return fmt.Errorf("engine.backends[%d]: unknown kind %q", i, b.Kind)
		}
	}
	if c.Engine.DefaultLevel < engine.MinLevel || c.Engine.DefaultLevel > engine.MaxLevel {
		return fmt.Errorf("engine.default_level %d out of range 0-20", c.Engine.DefaultLevel)
	}
	if _, ok := core.ParsePromotion(c.Game.DefaultPromotion); !ok {
		return fmt.Errorf("game.default_promotion %q must be one of q, r, b, n", c.Game.DefaultPromotion)
	}
	return nil
}

// Backends builds a fresh ordered backend list from the configuration
func (c *Config) Backends() []engine.Backend {
	backends := make([]engine.Backend, 0, len(c.Engine.Backends))
	for _, b := range c.Engine.Backends {
		switch b.Kind {
		case "process":
			backends = append(backends, &engine.ProcessBackend{Label: b.Name, Path: b.Path, Args: b.Args})
		case "websocket":
			backends = append(backends, &engine.WebSocketBackend{
				Label:  b.Name,
				URL:    b.URL,
				Dialer: &websocket.Dialer{HandshakeTimeout: c.Engine.HandshakeTimeout},
			})
		}
	}
	return backends
}

// DefaultPromotion returns the configured promotion piece
func (c *Config) DefaultPromotion() core.PieceKind {
	kind, _ := core.ParsePromotion(c.Game.DefaultPromotion)
	return kind
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
