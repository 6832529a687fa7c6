package board

import (
	"chessbot/internal/core"

	"github.com/notnil/chess"
)

var (
	knightSteps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookRays    = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopRays  = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// ParseSquare converts "a1".."h8" to a square
func ParseSquare(s string) (chess.Square, bool) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return chess.NoSquare, false
	}
	return chess.NewSquare(chess.File(s[0]-'a'), chess.Rank(s[1]-'1')), true
}

func colorOf(c chess.Color) core.Color {
	if c == chess.Black {
		return core.ColorBlack
	}
	return core.ColorWhite
}

// KindOf maps a rules-library piece type to a core kind
func KindOf(pt chess.PieceType) core.PieceKind {
	switch pt {
	case chess.Pawn:
		return core.Pawn
	case chess.Knight:
		return core.Knight
	case chess.Bishop:
		return core.Bishop
	case chess.Rook:
		return core.Rook
	case chess.Queen:
		return core.Queen
	case chess.King:
		return core.King
	default:
		return core.NoKind
	}
}

// PieceType maps a core kind to the rules-library piece type
func PieceType(k core.PieceKind) chess.PieceType {
	switch k {
	case core.Pawn:
		return chess.Pawn
	case core.Knight:
		return chess.Knight
	case core.Bishop:
		return chess.Bishop
	case core.Rook:
		return chess.Rook
	case core.Queen:
		return chess.Queen
	case core.King:
		return chess.King
	default:
		return chess.NoPieceType
	}
}

// PieceOf converts a rules-library piece, reporting false for an empty square
func PieceOf(pc chess.Piece) (core.Piece, bool) {
	return pieceOf(pc)
}

func pieceOf(pc chess.Piece) (core.Piece, bool) {
	if pc == chess.NoPiece {
		return core.Piece{}, false
	}
	return core.Piece{Color: colorOf(pc.Color()), Kind: KindOf(pc.Type())}, true
}

// PieceAt returns the raw piece on sq
func (p *Position) PieceAt(sq chess.Square) chess.Piece {
	return p.pos.Board().Piece(sq)
}

func (p *Position) inCheck(c chess.Color) bool {
	for sq, pc := range p.pos.Board().SquareMap() {
		if pc.Type() == chess.King && pc.Color() == c {
			return p.attacked(sq, c.Other())
		}
	}
	return false
}

// attacked reports whether any piece of color by attacks target
func (p *Position) attacked(target chess.Square, by chess.Color) bool {
	b := p.pos.Board()
	f, r := int(target.File()), int(target.Rank())

	at := func(df, dr int) (chess.Piece, bool) {
		nf, nr := f+df, r+dr
		if nf < 0 || nf > 7 || nr < 0 || nr > 7 {
			return chess.NoPiece, false
		}
		return b.Piece(chess.NewSquare(chess.File(nf), chess.Rank(nr))), true
	}
	is := func(pc chess.Piece, types ...chess.PieceType) bool {
		if pc.Color() != by {
			return false
		}
		for _, t := range types {
			if pc.Type() == t {
				return true
			}
		}
		return false
	}

	// A white pawn attacks upward, so it sits one rank below its target
	pawnRank := -1
	if by == chess.Black {
		pawnRank = 1
	}
	for _, df := range []int{-1, 1} {
		if pc, ok := at(df, pawnRank); ok && is(pc, chess.Pawn) {
			return true
		}
	}
	for _, d := range knightSteps {
		if pc, ok := at(d[0], d[1]); ok && is(pc, chess.Knight) {
			return true
		}
	}
	for _, d := range kingSteps {
		if pc, ok := at(d[0], d[1]); ok && is(pc, chess.King) {
			return true
		}
	}

	slide := func(rays [4][2]int, types ...chess.PieceType) bool {
		for _, d := range rays {
			for i := 1; i < 8; i++ {
				pc, ok := at(d[0]*i, d[1]*i)
				if !ok {
					break
				}
				if pc == chess.NoPiece {
					continue
				}
				if is(pc, types...) {
					return true
				}
				break
			}
		}
		return false
	}
	return slide(rookRays, chess.Rook, chess.Queen) || slide(bishopRays, chess.Bishop, chess.Queen)
}
