// Package orchestrator runs the turn-taking between a human player and the
// engine over one game session.
package orchestrator

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"chessbot/internal/board"
	"chessbot/internal/core"
	"chessbot/internal/engine"
	"chessbot/internal/game"
	"chessbot/internal/move"

	"go.uber.org/zap"
)

type Phase int

const (
	AwaitingHumanMove Phase = iota
	AwaitingEngineMove
	Terminated
)

func (p Phase) String() string {
	switch p {
	case AwaitingHumanMove:
		return "awaiting_human_move"
	case AwaitingEngineMove:
		return "awaiting_engine_move"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Engine is the part of engine.Adapter the orchestrator drives
type Engine interface {
	State() engine.State
	Level() int
	Depth() int
	Configure(level int) (int, error)
	RequestBestMove(fen string) (*engine.Search, error)
	Stop() error
}

type Config struct {
	// MoveTimeout bounds an engine search; zero waits forever
	MoveTimeout time.Duration
	Applier     *move.Applier
}

type Orchestrator struct {
	engine      Engine
	applier     *move.Applier
	moveTimeout time.Duration
	log         *zap.Logger

	mu         sync.Mutex
	session    *game.Session
	phase      Phase
	generation uint64
	searchID   uint64
	degraded   bool
	onChange   func(View)
}

// New creates an orchestrator with a fresh game from the standard position
// and the human playing white
func New(eng Engine, cfg Config, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	applier := cfg.Applier
	if applier == nil {
		applier = move.New()
	}
	o := &Orchestrator{
		engine:      eng,
		applier:     applier,
		moveTimeout: cfg.MoveTimeout,
		log:         log,
		session:     game.New(board.Start(), core.ColorWhite),
	}
	o.phase = o.derivePhase()
	return o
}

// OnChange registers fn to receive a view after every committed move,
// reset, undo or mode change. fn runs without the orchestrator lock held.
func (o *Orchestrator) OnChange(fn func(View)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onChange = fn
}

func (o *Orchestrator) notify(v View) {
	o.mu.Lock()
	fn := o.onChange
	o.mu.Unlock()
	if fn != nil {
		fn(v)
	}
}

func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Reset abandons the current game, including any search in flight, and
// starts over from fen (the standard position when empty)
func (o *Orchestrator) Reset(humanColor core.Color, fen string) error {
	pos := board.Start()
	if fen != "" {
		var err error
		if pos, err = board.ParseFEN(fen); err != nil {
			return err
		}
	}

	o.mu.Lock()
	if err := o.engine.Stop(); err != nil {
		o.log.Warn("engine stop failed", zap.Error(err))
	}
	o.generation++
	o.session = game.New(pos, humanColor)
	st := o.engine.State()
	o.degraded = st != engine.StateReady && st != engine.StateBusy
	if o.degraded {
		o.log.Warn("engine not available, playing both sides", zap.String("engine", st.String()))
	}
	o.phase = o.derivePhase()
	if o.phase == AwaitingEngineMove {
		o.requestEngineMove()
	}
	v := o.view()
	o.mu.Unlock()

	o.notify(v)
	return nil
}

// SubmitMove plays a human move. Rejections leave the game untouched and
// come back as an error wrapping core.ErrIllegalMove.
func (o *Orchestrator) SubmitMove(req move.Request) (move.Record, error) {
	o.mu.Lock()

	switch o.phase {
	case Terminated:
		o.mu.Unlock()
		return move.Record{}, core.ErrGameOver
	case AwaitingEngineMove:
		o.mu.Unlock()
		return move.Record{}, core.ErrNotHumanTurn
	}

	out := o.applier.Submit(o.session.Position(), req)
	if !out.Accepted() {
		o.mu.Unlock()
		return move.Record{}, out.Rejection.Err()
	}
	if err := o.session.Commit(out.Record, out.Next); err != nil {
		o.mu.Unlock()
		return move.Record{}, err
	}

	o.phase = o.derivePhase()
	if o.phase == AwaitingEngineMove {
		o.requestEngineMove()
	}
	v := o.view()
	o.mu.Unlock()

	o.notify(v)
	return out.Record, nil
}

// Undo takes back at least count plies and keeps going until it is the
// human's turn. Any search in flight is abandoned.
func (o *Orchestrator) Undo(count int) error {
	o.mu.Lock()

	if err := o.session.UndoMoves(count); err != nil {
		o.mu.Unlock()
		return err
	}
	for !o.degraded && !o.session.IsHumanTurn() && o.session.MoveCount() > 0 {
		o.session.UndoMoves(1)
	}
	if o.phase == AwaitingEngineMove {
		o.engine.Stop()
	}
	o.generation++
	o.phase = o.derivePhase()
	if o.phase == AwaitingEngineMove {
		o.requestEngineMove()
	}
	v := o.view()
	o.mu.Unlock()

	o.notify(v)
	return nil
}

// Configure sets the engine strength, returning the applied level
func (o *Orchestrator) Configure(level int) (int, error) {
	applied, err := o.engine.Configure(level)
	if err != nil {
		return applied, fmt.Errorf("configure engine: %w", err)
	}
	o.notify(o.View())
	return applied, nil
}

// Close abandons any search in flight. The engine itself is left connected.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase == AwaitingEngineMove {
		o.engine.Stop()
	}
	o.generation++
}

func (o *Orchestrator) derivePhase() Phase {
	switch {
	case o.session.Status().Terminal():
		return Terminated
	case o.degraded || o.session.IsHumanTurn():
		return AwaitingHumanMove
	default:
		return AwaitingEngineMove
	}
}

// requestEngineMove asks the engine for a move in the current position.
// Callers hold o.mu.
func (o *Orchestrator) requestEngineMove() {
	search, err := o.engine.RequestBestMove(o.session.CurrentFEN())
	if err != nil {
		o.degrade("engine request failed", err)
		return
	}
	o.phase = AwaitingEngineMove
	o.searchID = search.ID
	go o.awaitEngine(o.generation, search)
}

func (o *Orchestrator) awaitEngine(gen uint64, search *engine.Search) {
	var timeout <-chan time.Time
	if o.moveTimeout > 0 {
		timer := time.NewTimer(o.moveTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case res := <-search.C:
		o.onEngineResult(gen, res)
	case <-timeout:
		o.onEngineTimeout(gen, search.ID)
	}
}

func (o *Orchestrator) onEngineTimeout(gen, id uint64) {
	o.mu.Lock()
	if gen != o.generation || id != o.searchID || o.phase != AwaitingEngineMove {
		o.mu.Unlock()
		return
	}
	o.engine.Stop()
	o.degrade("engine move timed out", fmt.Errorf("no bestmove after %s", o.moveTimeout))
	v := o.view()
	o.mu.Unlock()

	o.notify(v)
}

func (o *Orchestrator) onEngineResult(gen uint64, res engine.SearchResult) {
	o.mu.Lock()
	if gen != o.generation || res.ID != o.searchID || o.phase != AwaitingEngineMove {
		o.mu.Unlock()
		o.log.Debug("discarding stale engine result", zap.Uint64("search", res.ID), zap.Uint64("generation", gen))
		return
	}

	if res.Err != nil {
		if errors.Is(res.Err, engine.ErrStopped) {
			o.mu.Unlock()
			return
		}
		o.degrade("engine search failed", res.Err)
	} else {
		req := move.Request{From: res.BestMove.From, To: res.BestMove.To, Promotion: res.BestMove.Promotion}
		out := o.applier.Submit(o.session.Position(), req)
		if !out.Accepted() {
			o.degrade("engine suggested an illegal move",
				fmt.Errorf("%w: %s (%s)", core.ErrProtocolMismatch, res.BestMove.UCI(), out.Rejection.Reason))
		} else if err := o.session.Commit(out.Record, out.Next); err != nil {
			o.degrade("engine move could not be recorded", err)
		} else {
			o.session.SetLastResult(&game.MoveResult{
				Move:   out.Record.UCI,
				Player: out.Record.Color(),
				Score:  res.Score,
				Depth:  res.Depth,
				IsMate: res.IsMate,
				MateIn: res.MateIn,
			})
			o.phase = o.derivePhase()
		}
	}
	v := o.view()
	o.mu.Unlock()

	o.notify(v)
}

// degrade switches to hot-seat play so the game can always continue.
// Callers hold o.mu.
func (o *Orchestrator) degrade(reason string, err error) {
	o.log.Warn(reason+", playing both sides", zap.Error(err))
	o.degraded = true
	o.phase = o.derivePhase()
}
