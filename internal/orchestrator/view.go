package orchestrator

import (
	"chessbot/internal/board"
	"chessbot/internal/core"
	"chessbot/internal/engine"
	"chessbot/internal/game"
	"chessbot/internal/move"
)

// View is a presentation snapshot of the game. It shares nothing mutable
// with the orchestrator.
type View struct {
	FEN        string
	Board      string
	Turn       core.Color
	Status     core.Status
	Check      bool
	StatusText string
	ResultText string
	Phase      Phase
	HumanColor core.Color
	Degraded   bool
	MoveCount  int
	Moves      []string
	MovePairs  []game.MovePair
	// Captured pieces keyed by the colour of the captured piece
	Captured        map[core.Color][]core.Piece
	EngineSearching bool
	EngineState     engine.State
	Level           int
	Depth           int
	LastMove        *move.Record
	LastResult      *game.MoveResult
}

func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view()
}

// callers hold o.mu
func (o *Orchestrator) view() View {
	pos := o.session.Position()
	v := View{
		FEN:             pos.FEN(),
		Board:           pos.ToASCII(),
		Turn:            pos.Turn(),
		Status:          o.session.Status(),
		Check:           pos.IsCheck(),
		StatusText:      StatusText(pos),
		ResultText:      ResultText(pos),
		Phase:           o.phase,
		HumanColor:      o.session.HumanColor(),
		Degraded:        o.degraded,
		MoveCount:       o.session.MoveCount(),
		Moves:           o.session.SAN(),
		MovePairs:       o.session.MovePairs(),
		Captured:        o.session.Captured(),
		EngineSearching: o.phase == AwaitingEngineMove,
		EngineState:     o.engine.State(),
		Level:           o.engine.Level(),
		Depth:           o.engine.Depth(),
	}
	if last := o.session.LastMove(); last != nil {
		rec := *last
		v.LastMove = &rec
	}
	if res := o.session.LastResult(); res != nil {
		r := *res
		v.LastResult = &r
	}
	return v
}

// StatusText is the one-line status shown under the board
func StatusText(pos *board.Position) string {
	turn := pos.Turn()
	switch pos.Status() {
	case core.StatusCheckmate:
		return core.OppositeColor(turn).Name() + " wins by checkmate!"
	case core.StatusStalemate:
		return "Game drawn by stalemate"
	case core.StatusDrawRepetition:
		return "Game drawn by threefold repetition"
	case core.StatusDrawInsufficientMaterial:
		return "Game drawn by insufficient material"
	case core.StatusDrawOther:
		return "Game drawn"
	}
	if pos.IsCheck() {
		return turn.Name() + " is in check"
	}
	return turn.Name() + " to move"
}

// ResultText is the game-over announcement, empty while the game continues
func ResultText(pos *board.Position) string {
	switch pos.Status() {
	case core.StatusCheckmate:
		return "Checkmate! " + core.OppositeColor(pos.Turn()).Name() + " wins!"
	case core.StatusStalemate:
		return "Game ended in stalemate"
	case core.StatusDrawRepetition:
		return "Game ended by threefold repetition"
	case core.StatusDrawInsufficientMaterial:
		return "Game ended due to insufficient material"
	case core.StatusDrawOther:
		return "Game ended in a draw"
	}
	return ""
}
