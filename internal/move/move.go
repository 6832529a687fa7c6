// Package move validates candidate moves against a position and builds the
// immutable record of a committed move.
package move

import (
	"fmt"
	"strings"

	"chessbot/internal/board"
	"chessbot/internal/core"

	"github.com/notnil/chess"
)

// Request is a proposed move in square-pair form
type Request struct {
	From      string
	To        string
	Promotion core.PieceKind // NoKind lets the applier's policy decide
}

// ParseUCI splits "e7e8q" into a request
func ParseUCI(s string) (Request, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 4 || len(s) > 5 {
		return Request{}, fmt.Errorf("invalid move format %q", s)
	}
	req := Request{From: s[0:2], To: s[2:4]}
	if _, ok := board.ParseSquare(req.From); !ok {
		return Request{}, fmt.Errorf("invalid move format %q", s)
	}
	if _, ok := board.ParseSquare(req.To); !ok {
		return Request{}, fmt.Errorf("invalid move format %q", s)
	}
	if len(s) == 5 {
		kind, ok := core.ParsePromotion(s[4:])
		if !ok {
			return Request{}, fmt.Errorf("invalid promotion piece in %q", s)
		}
		req.Promotion = kind
	}
	return req, nil
}

func (r Request) String() string {
	return r.From + r.To + r.Promotion.String()
}

// Record describes a committed move. It is never modified after creation.
type Record struct {
	From      string         `json:"from"`
	To        string         `json:"to"`
	Piece     core.Piece     `json:"piece"`
	Captured  *core.Piece    `json:"captured,omitempty"`
	Promotion core.PieceKind `json:"promotion,omitempty"`
	SAN       string         `json:"san"`
	UCI       string         `json:"uci"`
	Check     bool           `json:"check"`
	Checkmate bool           `json:"checkmate"`
	Stalemate bool           `json:"stalemate"`
	FENAfter  string         `json:"fenAfter"`
}

// Color returns the side that made the move
func (r Record) Color() core.Color {
	return r.Piece.Color
}

type RejectReason int

const (
	RejectMalformed RejectReason = iota + 1
	RejectEmptySquare
	RejectOpponentPiece
	RejectIllegal
	RejectPromotion
	RejectGameOver
)

func (r RejectReason) String() string {
	switch r {
	case RejectMalformed:
		return "malformed square"
	case RejectEmptySquare:
		return "no piece on source square"
	case RejectOpponentPiece:
		return "piece belongs to the opponent"
	case RejectIllegal:
		return "illegal move"
	case RejectPromotion:
		return "invalid promotion piece"
	case RejectGameOver:
		return "game is over"
	default:
		return "rejected"
	}
}

// Rejection explains why a request was not applied
type Rejection struct {
	Request Request
	Reason  RejectReason
}

// Err wraps core.ErrIllegalMove for callers that report rejections as errors
func (r *Rejection) Err() error {
	return fmt.Errorf("%w: %s (%s)", core.ErrIllegalMove, r.Request, r.Reason)
}

// Outcome is either an accepted move or a rejection, never both
type Outcome struct {
	Record    Record
	Next      *board.Position
	Rejection *Rejection
}

func (o Outcome) Accepted() bool {
	return o.Rejection == nil
}

// Applier validates and applies moves. The zero value is not usable; use New.
type Applier struct {
	defaultPromotion core.PieceKind
}

type Option func(*Applier)

// WithDefaultPromotion sets the piece chosen when a pawn reaches the last
// rank without an explicit choice. Only knight, bishop, rook or queen apply.
func WithDefaultPromotion(kind core.PieceKind) Option {
	return func(a *Applier) {
		switch kind {
		case core.Knight, core.Bishop, core.Rook, core.Queen:
			a.defaultPromotion = kind
		}
	}
}

// New returns an applier that promotes to a queen unless configured otherwise
func New(opts ...Option) *Applier {
	a := &Applier{defaultPromotion: core.Queen}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Applier) DefaultPromotion() core.PieceKind {
	return a.defaultPromotion
}

// Submit checks req against pos. The position is never modified; on
// acceptance Outcome.Next holds the resulting position.
func (a *Applier) Submit(pos *board.Position, req Request) Outcome {
	reject := func(reason RejectReason) Outcome {
		return Outcome{Rejection: &Rejection{Request: req, Reason: reason}}
	}

	from, okFrom := board.ParseSquare(req.From)
	to, okTo := board.ParseSquare(req.To)
	if !okFrom || !okTo {
		return reject(RejectMalformed)
	}
	if pos.Status().Terminal() {
		return reject(RejectGameOver)
	}

	mover, ok := pos.Piece(req.From)
	if !ok {
		return reject(RejectEmptySquare)
	}
	if mover.Color != pos.Turn() {
		return reject(RejectOpponentPiece)
	}

	var candidates []*chess.Move
	for _, m := range pos.ValidMoves() {
		if m.S1() == from && m.S2() == to {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return reject(RejectIllegal)
	}

	chosen := candidates[0]
	if chosen.Promo() != chess.NoPieceType {
		// A promotion hint only matters for promotion moves
		want := req.Promotion
		if want == core.NoKind {
			want = a.defaultPromotion
		}
		chosen = nil
		for _, m := range candidates {
			if m.Promo() == board.PieceType(want) {
				chosen = m
				break
			}
		}
		if chosen == nil {
			return reject(RejectPromotion)
		}
	}

	next, err := pos.Apply(chosen)
	if err != nil {
		return reject(RejectIllegal)
	}

	rec := Record{
		From:      req.From,
		To:        req.To,
		Piece:     mover,
		Promotion: board.KindOf(chosen.Promo()),
		SAN:       pos.SAN(chosen),
		UCI:       chosen.String(),
		FENAfter:  next.FEN(),
	}
	if chosen.HasTag(chess.EnPassant) {
		rec.Captured = &core.Piece{Color: core.OppositeColor(mover.Color), Kind: core.Pawn}
	} else if captured, ok := pos.Piece(req.To); ok {
		rec.Captured = &captured
	}

	switch next.Status() {
	case core.StatusCheckmate:
		rec.Check, rec.Checkmate = true, true
	case core.StatusStalemate:
		rec.Stalemate = true
	default:
		rec.Check = next.IsCheck()
	}

	return Outcome{Record: rec, Next: next}
}
