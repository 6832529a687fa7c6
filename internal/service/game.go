// FILE: internal/service/game.go
package service

import (
	"context"
	"fmt"
	"time"

	"chessbot/internal/board"
	"chessbot/internal/core"
	"chessbot/internal/engine"
	"chessbot/internal/orchestrator"

	petname "github.com/dustinkirkland/golang-petname"
	"go.uber.org/zap"
)

// CreateGame registers a new session, connects its engine and starts the
// game. An unreachable engine does not fail creation; the session starts
// in hot-seat mode instead.
func (s *Service) CreateGame(ctx context.Context, humanColor core.Color, level *int, fen string) (*Session, error) {
	if fen != "" {
		if _, err := board.ParseFEN(fen); err != nil {
			return nil, err
		}
	}

	lvl := s.cfg.DefaultLevel
	if level != nil {
		lvl = *level
	}
	s.mu.Lock()
	if len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %d active games", core.ErrCapacity, len(s.sessions))
	}
	id := s.generateID()
	name := petname.Generate(2, "-")
	log := s.log.With(zap.String("game", id), zap.String("name", name))
	eng := engine.New(engine.Config{
		Backends:         s.cfg.Backends(),
		Level:            lvl,
		HandshakeTimeout: s.cfg.HandshakeTimeout,
	}, log)
	sess := &Session{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now().UTC(),
		engine:    eng,
	}
	// Reserve the slot while the engine connects
	s.sessions[id] = sess
	s.mu.Unlock()

	if err := eng.Connect(ctx); err != nil {
		log.Warn("engine unavailable for new game", zap.Error(err))
	}

	orch := orchestrator.New(eng, orchestrator.Config{
		MoveTimeout: s.cfg.MoveTimeout,
		Applier:     s.applier,
	}, log)
	orch.OnChange(func(orchestrator.View) {
		s.waiter.NotifyGame(id)
	})
	if err := orch.Reset(humanColor, fen); err != nil {
		orch.Close()
		s.remove(id)
		sess.close()
		return nil, err
	}

	// Published under the lock; GetGame treats a nil orchestrator as not found
	s.mu.Lock()
	sess.orch = orch
	s.mu.Unlock()

	log.Info("game created", zap.String("human", humanColor.Name()), zap.Int("level", eng.Level()))
	return sess, nil
}

// GetGame retrieves a session by ID
func (s *Service) GetGame(gameID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[gameID]
	if !ok || sess.orch == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrGameNotFound, gameID)
	}
	return sess, nil
}

// DeleteGame ends a session and disconnects its engine
func (s *Service) DeleteGame(gameID string) error {
	sess, err := s.GetGame(gameID)
	if err != nil {
		return err
	}
	s.remove(gameID)
	s.waiter.RemoveGame(gameID)
	sess.close()
	s.log.Info("game deleted", zap.String("game", gameID))
	return nil
}

// WaitForChange blocks until the game differs from moveCount, changes
// state, or the wait times out, then returns the current view
func (s *Service) WaitForChange(ctx context.Context, gameID string, moveCount int) (orchestrator.View, error) {
	sess, err := s.GetGame(gameID)
	if err != nil {
		return orchestrator.View{}, err
	}

	notify := s.waiter.RegisterWait(gameID, moveCount, ctx)
	if v := sess.orch.View(); v.MoveCount != moveCount {
		return v, nil
	}

	select {
	case <-notify:
	case <-ctx.Done():
	}
	// The game may have been deleted while waiting
	if _, err := s.GetGame(gameID); err != nil {
		return orchestrator.View{}, err
	}
	return sess.orch.View(), nil
}

func (s *Service) remove(gameID string) {
	s.mu.Lock()
	delete(s.sessions, gameID)
	s.mu.Unlock()
}

func (sess *Session) close() {
	if sess.orch != nil {
		sess.orch.Close()
	}
	if sess.engine != nil {
		sess.engine.Disconnect()
	}
}
