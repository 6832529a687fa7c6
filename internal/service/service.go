// FILE: internal/service/service.go
package service

import (
	"sync"
	"time"

	"chessbot/internal/core"
	"chessbot/internal/engine"
	"chessbot/internal/move"
	"chessbot/internal/orchestrator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultMaxSessions = 64

type Config struct {
	// Backends returns a fresh ordered backend list for each session's engine
	Backends         func() []engine.Backend
	HandshakeTimeout time.Duration
	MoveTimeout      time.Duration
	DefaultLevel     int
	DefaultPromotion core.PieceKind
	MaxSessions      int
}

// Session is one registered game with its own engine connection
type Session struct {
	ID        string
	Name      string
	CreatedAt time.Time

	orch   *orchestrator.Orchestrator
	engine *engine.Adapter
}

func (s *Session) Orchestrator() *orchestrator.Orchestrator {
	return s.orch
}

func (s *Session) Engine() *engine.Adapter {
	return s.engine
}

// Service is the registry of live game sessions
type Service struct {
	cfg     Config
	applier *move.Applier
	log     *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	waiter   *WaitRegistry
}

func New(cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if cfg.Backends == nil {
		cfg.Backends = func() []engine.Backend { return nil }
	}
	var opts []move.Option
	if cfg.DefaultPromotion != core.NoKind {
		opts = append(opts, move.WithDefaultPromotion(cfg.DefaultPromotion))
	}
	return &Service{
		cfg:      cfg,
		applier:  move.New(opts...),
		log:      log,
		sessions: make(map[string]*Session),
		waiter:   NewWaitRegistry(),
	}
}

// generateID creates a new unique session ID. Callers hold s.mu.
func (s *Service) generateID() string {
	for {
		id := uuid.New().String()
		if _, exists := s.sessions[id]; !exists {
			return id
		}
	}
}

// Health summarizes session count and engine availability
type Health struct {
	Sessions    int            `json:"sessions"`
	MaxSessions int            `json:"maxSessions"`
	Engines     map[string]int `json:"engines"`
}

func (s *Service) Health() Health {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := Health{
		Sessions:    len(s.sessions),
		MaxSessions: s.cfg.MaxSessions,
		Engines:     make(map[string]int),
	}
	for _, sess := range s.sessions {
		if sess.engine == nil {
			continue
		}
		h.Engines[sess.engine.State().String()]++
	}
	return h
}

// Close ends every session and releases long-poll waiters
func (s *Service) Close() error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
	return s.waiter.Shutdown(5 * time.Second)
}
