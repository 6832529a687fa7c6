// Package engine drives a UCI chess engine over an asynchronous line link.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"chessbot/internal/core"

	"go.uber.org/zap"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateReady
	StateBusy
	StateUnavailable
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

var (
	ErrBusy         = errors.New("engine search already in progress")
	ErrStopped      = errors.New("engine search stopped")
	ErrDisconnected = errors.New("engine disconnected")
)

const DefaultHandshakeTimeout = 5 * time.Second

// SearchResult is the resolution of one best-move request. Err is set when
// the search ended without a usable move.
type SearchResult struct {
	ID       uint64
	BestMove BestMove
	Score    int
	Depth    int
	IsMate   bool
	MateIn   int
	Err      error
}

// Search is a pending best-move request. C receives exactly one result
// and is then closed.
type Search struct {
	ID uint64
	C  <-chan SearchResult
}

type Config struct {
	Backends         []Backend
	Level            int
	HandshakeTimeout time.Duration
}

type pendingSearch struct {
	ch     chan SearchResult
	result SearchResult
}

// Adapter owns at most one engine connection and at most one outstanding
// search on it
type Adapter struct {
	backends         []Backend
	handshakeTimeout time.Duration
	log              *zap.Logger

	mu      sync.Mutex
	state   State
	conn    Conn
	backend string
	level   int
	depth   int
	nextID  uint64
	pending *pendingSearch
	// bestmove lines still owed for searches abandoned by Stop
	stale int
}

func New(cfg Config, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}
	level := ClampLevel(cfg.Level)
	return &Adapter{
		backends:         cfg.Backends,
		handshakeTimeout: timeout,
		log:              log.Named("engine"),
		state:            StateDisconnected,
		level:            level,
		depth:            DepthForLevel(level),
	}
}

func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Adapter) Level() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.level
}

func (a *Adapter) Depth() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.depth
}

// Backend names the backend of the live connection, empty when none
func (a *Adapter) Backend() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.backend
}

// Connect tries each backend in order and keeps the first that completes
// the UCI handshake. When all fail the adapter becomes Unavailable.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	switch a.state {
	case StateReady, StateBusy:
		a.mu.Unlock()
		return nil
	case StateConnecting:
		a.mu.Unlock()
		return fmt.Errorf("engine connection already in progress")
	}
	a.state = StateConnecting
	level := a.level
	a.mu.Unlock()

	var errs []error
	for _, b := range a.backends {
		conn, err := a.dial(ctx, b, level)
		if err != nil {
			a.log.Warn("engine backend failed", zap.String("backend", b.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
			continue
		}

		a.mu.Lock()
		if a.state != StateConnecting {
			// Disconnect raced the handshake
			a.mu.Unlock()
			conn.Close()
			return ErrDisconnected
		}
		a.conn = conn
		a.backend = b.Name()
		a.state = StateReady
		// The level may have changed while dialing
		if a.level != level {
			for _, cmd := range skillCommands(a.level) {
				a.send(cmd)
			}
		}
		a.mu.Unlock()

		a.log.Info("engine ready", zap.String("backend", b.Name()), zap.Int("level", level))
		go a.readLoop(conn)
		return nil
	}

	a.mu.Lock()
	a.state = StateUnavailable
	a.mu.Unlock()
	if len(errs) == 0 {
		return fmt.Errorf("%w: no backends configured", core.ErrEngineUnavailable)
	}
	return fmt.Errorf("%w: %w", core.ErrEngineUnavailable, errors.Join(errs...))
}

func (a *Adapter) dial(ctx context.Context, b Backend, level int) (Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, a.handshakeTimeout)
	defer cancel()

	conn, err := b.Dial(ctx)
	if err != nil {
		return nil, err
	}
	if err := handshake(ctx, conn, level); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func handshake(ctx context.Context, conn Conn, level int) error {
	if err := conn.Send("uci"); err != nil {
		return err
	}
	if err := waitFor(ctx, conn.Lines(), "uciok"); err != nil {
		return err
	}
	for _, cmd := range skillCommands(level) {
		if err := conn.Send(cmd); err != nil {
			return err
		}
	}
	if err := conn.Send("isready"); err != nil {
		return err
	}
	return waitFor(ctx, conn.Lines(), "readyok")
}

func waitFor(ctx context.Context, lines <-chan string, token string) error {
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return fmt.Errorf("engine closed unexpectedly")
			}
			if strings.TrimSpace(line) == token {
				return nil
			}
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for %s", token)
		}
	}
}

// Configure clamps and stores the skill level and forwards it to a live
// engine. It returns the level actually applied.
func (a *Adapter) Configure(level int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.level = ClampLevel(level)
	a.depth = DepthForLevel(a.level)

	if a.state == StateReady || a.state == StateBusy {
		for _, cmd := range skillCommands(a.level) {
			if err := a.send(cmd); err != nil {
				return a.level, err
			}
		}
	}
	return a.level, nil
}

// RequestBestMove starts a depth-limited search from fen. Only one search
// may be outstanding; a second request while Busy returns ErrBusy.
func (a *Adapter) RequestBestMove(fen string) (*Search, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case StateReady:
	case StateBusy:
		return nil, ErrBusy
	default:
		return nil, fmt.Errorf("%w: engine is %s", core.ErrEngineUnavailable, a.state)
	}

	a.nextID++
	p := &pendingSearch{
		ch:     make(chan SearchResult, 1),
		result: SearchResult{ID: a.nextID},
	}
	a.pending = p
	a.state = StateBusy

	for _, cmd := range []string{"position fen " + fen, fmt.Sprintf("go depth %d", a.depth)} {
		if err := a.send(cmd); err != nil {
			a.pending = nil
			a.state = StateReady
			return nil, fmt.Errorf("%w: %w", core.ErrEngineUnavailable, err)
		}
	}

	return &Search{ID: p.result.ID, C: p.ch}, nil
}

// Stop abandons the outstanding search. Its result resolves with
// ErrStopped and the bestmove the engine still owes is discarded.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending == nil {
		return nil
	}
	a.stale++
	a.resolve(ErrStopped)
	a.state = StateReady
	return a.send("stop")
}

// Disconnect sends quit and closes the link. Safe to call more than once.
func (a *Adapter) Disconnect() error {
	a.mu.Lock()
	conn := a.conn
	a.conn = nil
	a.backend = ""
	a.stale = 0
	if a.pending != nil {
		a.resolve(ErrDisconnected)
	}
	if a.state != StateUnavailable {
		a.state = StateDisconnected
	}
	a.mu.Unlock()

	if conn == nil {
		return nil
	}
	conn.Send("quit")
	return conn.Close()
}

func (a *Adapter) readLoop(conn Conn) {
	for line := range conn.Lines() {
		a.handleLine(line)
	}
	a.connectionLost(conn)
}

func (a *Adapter) handleLine(line string) {
	line = strings.TrimSpace(line)
	a.mu.Lock()
	defer a.mu.Unlock()

	a.log.Debug("engine <", zap.String("line", line))

	switch {
	case strings.HasPrefix(line, "info "):
		if a.pending != nil && a.stale == 0 {
			ParseInfo(line, &a.pending.result)
		}

	case line == "bestmove" || strings.HasPrefix(line, "bestmove "):
		if a.stale > 0 {
			a.stale--
			a.log.Debug("discarding bestmove of stopped search", zap.String("line", line))
			return
		}
		if a.pending == nil {
			return
		}
		move, err := ParseBestMove(line)
		if err != nil {
			a.log.Warn("unexpected bestmove from engine", zap.String("line", line))
			a.resolve(err)
		} else {
			a.pending.result.BestMove = move
			a.resolve(nil)
		}
		a.state = StateReady
	}
}

func (a *Adapter) connectionLost(conn Conn) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn != conn {
		return
	}
	a.log.Warn("engine connection lost", zap.String("backend", a.backend))
	a.conn = nil
	a.backend = ""
	a.stale = 0
	if a.pending != nil {
		a.resolve(fmt.Errorf("%w: connection lost", core.ErrEngineUnavailable))
	}
	a.state = StateDisconnected
	conn.Close()
}

// resolve delivers the pending result. Callers hold a.mu.
func (a *Adapter) resolve(err error) {
	p := a.pending
	a.pending = nil
	p.result.Err = err
	p.ch <- p.result
	close(p.ch)
}

// send writes one command. Callers hold a.mu.
func (a *Adapter) send(cmd string) error {
	if a.conn == nil {
		return ErrDisconnected
	}
	a.log.Debug("engine >", zap.String("line", cmd))
	return a.conn.Send(cmd)
}
