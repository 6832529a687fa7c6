// Package enginetest provides a scripted in-memory UCI engine.
package enginetest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"chessbot/internal/engine"

	"github.com/notnil/chess"
)

// Engine is a fake UCI engine backend. In auto mode every "go" is answered
// immediately with Respond(fen); otherwise the test answers with Emit.
type Engine struct {
	name string

	mu sync.Mutex
	// Auto answers searches without test involvement
	Auto bool
	// DialErr makes Dial fail
	DialErr error
	// Silent never completes the handshake
	Silent bool
	// Respond chooses the bestmove token for a position. Defaults to the
	// first legal move in sorted UCI order.
	Respond func(fen string) string

	conn  *conn
	dials int
	sent  []string
}

func New(name string) *Engine {
	return &Engine{name: name, Auto: true}
}

func (e *Engine) Name() string {
	return e.name
}

func (e *Engine) Dial(ctx context.Context) (engine.Conn, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.dials++
	if e.DialErr != nil {
		return nil, e.DialErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := &conn{engine: e, lines: make(chan string, 256)}
	e.conn = c
	return c, nil
}

// SetAuto switches between automatic and manual answers
func (e *Engine) SetAuto(auto bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Auto = auto
}

// Dials returns how many times Dial was called
func (e *Engine) Dials() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dials
}

// Sent returns every command received, oldest first
func (e *Engine) Sent() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.sent...)
}

// Searching reports whether a "go" is waiting for a bestmove
func (e *Engine) Searching() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn != nil && e.conn.searching
}

// Emit writes a raw line from the engine
func (e *Engine) Emit(line string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn != nil {
		e.conn.emit(line)
	}
}

// Answer finishes the current search with the engine's own choice
func (e *Engine) Answer() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn != nil && e.conn.searching {
		e.conn.answer()
	}
}

// Kill drops the link as if the engine process died
func (e *Engine) Kill() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn != nil {
		e.conn.shutdown()
	}
}

func (e *Engine) respond(fen string) string {
	if e.Respond != nil {
		return e.Respond(fen)
	}
	return FirstLegalMove(fen)
}

// FirstLegalMove returns the first legal move of fen in sorted UCI order,
// "(none)" when there is none
func FirstLegalMove(fen string) string {
	opt, err := chess.FEN(fen)
	if err != nil {
		return "(none)"
	}
	moves := chess.NewGame(opt).Position().ValidMoves()
	if len(moves) == 0 {
		return "(none)"
	}
	ucis := make([]string, 0, len(moves))
	for _, m := range moves {
		ucis = append(ucis, m.String())
	}
	sort.Strings(ucis)
	return ucis[0]
}

type conn struct {
	engine    *Engine
	lines     chan string
	closed    bool
	fen       string
	searching bool
}

func (c *conn) Send(line string) error {
	e := c.engine
	e.mu.Lock()
	defer e.mu.Unlock()

	if c.closed {
		return errors.New("fake engine: closed")
	}
	e.sent = append(e.sent, line)

	switch {
	case line == "uci":
		if !e.Silent {
			c.emit("id name " + e.name)
			c.emit("uciok")
		}
	case line == "isready":
		if !e.Silent {
			c.emit("readyok")
		}
	case strings.HasPrefix(line, "position fen "):
		c.fen = strings.TrimPrefix(line, "position fen ")
	case strings.HasPrefix(line, "go"):
		c.searching = true
		if e.Auto {
			c.answer()
		}
	case line == "stop":
		// A stopped search still owes its bestmove
		if c.searching {
			c.answer()
		}
	case line == "quit":
		c.shutdown()
	}
	return nil
}

func (c *conn) Lines() <-chan string {
	return c.lines
}

func (c *conn) Close() error {
	e := c.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	c.shutdown()
	return nil
}

// callers hold engine.mu
func (c *conn) answer() {
	c.searching = false
	c.emit("info depth 1 score cp 0")
	c.emit("bestmove " + c.engine.respond(c.fen))
}

func (c *conn) emit(line string) {
	if !c.closed {
		c.lines <- line
	}
}

func (c *conn) shutdown() {
	if !c.closed {
		c.closed = true
		close(c.lines)
	}
}
