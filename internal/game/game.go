// FILE: internal/game/game.go
package game

import (
	"fmt"

	"chessbot/internal/board"
	"chessbot/internal/core"
	"chessbot/internal/move"
)

type Snapshot struct {
	Position *board.Position // Board state at this point
	Move     *move.Record    // Move that created this position (nil for initial)
}

// MoveResult carries the engine's evaluation of the move it chose
type MoveResult struct {
	Move   string
	Player core.Color
	Score  int
	Depth  int
	IsMate bool
	MateIn int
}

// MovePair is one numbered row of the move list
type MovePair struct {
	Number int
	White  string
	Black  string
}

// Session is one game between a human and the engine
type Session struct {
	snapshots  []Snapshot
	humanColor core.Color
	status     core.Status
	lastResult *MoveResult
}

func New(initial *board.Position, humanColor core.Color) *Session {
	return &Session{
		snapshots:  []Snapshot{{Position: initial}},
		humanColor: humanColor,
		status:     initial.Status(),
	}
}

func (s *Session) HumanColor() core.Color {
	return s.humanColor
}

func (s *Session) EngineColor() core.Color {
	return core.OppositeColor(s.humanColor)
}

func (s *Session) CurrentSnapshot() Snapshot {
	return s.snapshots[len(s.snapshots)-1]
}

func (s *Session) Position() *board.Position {
	return s.CurrentSnapshot().Position
}

func (s *Session) CurrentFEN() string {
	return s.Position().FEN()
}

func (s *Session) InitialFEN() string {
	return s.snapshots[0].Position.FEN()
}

func (s *Session) NextTurn() core.Color {
	return s.Position().Turn()
}

func (s *Session) IsHumanTurn() bool {
	return s.NextTurn() == s.humanColor
}

func (s *Session) Status() core.Status {
	return s.status
}

// Commit appends a move accepted against the current position
func (s *Session) Commit(rec move.Record, next *board.Position) error {
	if rec.Color() != s.NextTurn() {
		return fmt.Errorf("move %s by %s but %s is to move", rec.UCI, rec.Color().Name(), s.NextTurn().Name())
	}
	s.snapshots = append(s.snapshots, Snapshot{Position: next, Move: &rec})
	s.status = next.Status()
	s.lastResult = nil
	return nil
}

func (s *Session) SetLastResult(result *MoveResult) {
	s.lastResult = result
}

func (s *Session) LastResult() *MoveResult {
	return s.lastResult
}

func (s *Session) LastMove() *move.Record {
	return s.CurrentSnapshot().Move
}

// MoveCount is the number of plies played
func (s *Session) MoveCount() int {
	return len(s.snapshots) - 1
}

func (s *Session) UndoMoves(count int) error {
	if count < 1 {
		return fmt.Errorf("invalid undo count: %d", count)
	}

	available := s.MoveCount()
	if available < count {
		return fmt.Errorf("cannot undo %d moves: only %d moves available", count, available)
	}

	s.snapshots = s.snapshots[:len(s.snapshots)-count]
	s.status = s.Position().Status()
	s.lastResult = nil
	return nil
}

// Moves returns the move records in play order
func (s *Session) Moves() []move.Record {
	moves := make([]move.Record, 0, s.MoveCount())
	for _, snap := range s.snapshots[1:] {
		moves = append(moves, *snap.Move)
	}
	return moves
}

// SAN returns the move history in standard algebraic notation
func (s *Session) SAN() []string {
	san := make([]string, 0, s.MoveCount())
	for _, snap := range s.snapshots[1:] {
		san = append(san, snap.Move.SAN)
	}
	return san
}

// MovePairs groups the history into numbered rows. A game starting with
// black to move gets a row with an empty white entry.
func (s *Session) MovePairs() []MovePair {
	start := s.snapshots[0].Position
	number := start.FullMoveNumber()
	var pairs []MovePair
	var row *MovePair

	for _, snap := range s.snapshots[1:] {
		if snap.Move.Color() == core.ColorWhite || row == nil {
			pairs = append(pairs, MovePair{Number: number})
			row = &pairs[len(pairs)-1]
		}
		if snap.Move.Color() == core.ColorWhite {
			row.White = snap.Move.SAN
		} else {
			row.Black = snap.Move.SAN
			row = nil
			number++
		}
	}
	return pairs
}

// Captured lists captured pieces under the colour of the captured piece
func (s *Session) Captured() map[core.Color][]core.Piece {
	out := map[core.Color][]core.Piece{
		core.ColorWhite: {},
		core.ColorBlack: {},
	}
	for _, snap := range s.snapshots[1:] {
		if c := snap.Move.Captured; c != nil {
			out[c.Color] = append(out[c.Color], *c)
		}
	}
	return out
}
