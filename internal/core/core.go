// FILE: internal/core/core.go
package core

import "strings"

type Color byte

const (
	ColorWhite Color = 'w'
	ColorBlack Color = 'b'
)

func (c Color) String() string {
	switch c {
	case ColorWhite:
		return "w"
	case ColorBlack:
		return "b"
	default:
		return "-"
	}
}

// Name returns the capitalized color name used in status text
func (c Color) Name() string {
	if c == ColorWhite {
		return "White"
	}
	return "Black"
}

func OppositeColor(c Color) Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// ParseColor accepts "w", "b", "white" and "black" in any case
func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "white":
		return ColorWhite, true
	case "b", "black":
		return ColorBlack, true
	}
	return 0, false
}

// PieceKind uses the lowercase FEN letter of the piece
type PieceKind byte

const (
	NoKind PieceKind = 0
	Pawn   PieceKind = 'p'
	Knight PieceKind = 'n'
	Bishop PieceKind = 'b'
	Rook   PieceKind = 'r'
	Queen  PieceKind = 'q'
	King   PieceKind = 'k'
)

func (k PieceKind) String() string {
	if k == NoKind {
		return ""
	}
	return string(rune(k))
}

// Name returns the full lowercase piece name
func (k PieceKind) Name() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	default:
		return ""
	}
}

// ParsePromotion maps a UCI promotion letter to a kind. Only n, b, r, q are valid.
func ParsePromotion(s string) (PieceKind, bool) {
	switch strings.ToLower(s) {
	case "n":
		return Knight, true
	case "b":
		return Bishop, true
	case "r":
		return Rook, true
	case "q":
		return Queen, true
	}
	return NoKind, false
}

type Piece struct {
	Color Color     `json:"color"`
	Kind  PieceKind `json:"kind"`
}

// FEN returns the FEN letter, uppercase for white
func (p Piece) FEN() string {
	if p.Color == ColorWhite {
		return strings.ToUpper(p.Kind.String())
	}
	return p.Kind.String()
}

// Symbol returns the unicode glyph for the piece
func (p Piece) Symbol() string {
	glyphs := map[PieceKind][2]string{
		Pawn:   {"♙", "♟"},
		Knight: {"♘", "♞"},
		Bishop: {"♗", "♝"},
		Rook:   {"♖", "♜"},
		Queen:  {"♕", "♛"},
		King:   {"♔", "♚"},
	}
	g, ok := glyphs[p.Kind]
	if !ok {
		return ""
	}
	if p.Color == ColorWhite {
		return g[0]
	}
	return g[1]
}
