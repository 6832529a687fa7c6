// FILE: internal/board/board.go
package board

import (
	"fmt"
	"strconv"
	"strings"

	"chessbot/internal/core"

	"github.com/notnil/chess"
)

const (
	StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
)

// ParseError reports malformed or impossible FEN input
type ParseError struct {
	FEN    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid FEN %q: %s", e.FEN, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return core.ErrParse
}

// Position is an immutable chess position together with the repetition
// history that led to it. Apply never modifies the receiver.
type Position struct {
	pos     *chess.Position
	history []string // repetition keys of every earlier position, oldest first
	status  core.Status
}

func newPosition(pos *chess.Position, history []string) *Position {
	p := &Position{pos: pos, history: history}
	p.status = p.classify()
	return p
}

// Start returns the standard initial position
func Start() *Position {
	p, err := ParseFEN(StartingFEN)
	if err != nil {
		panic(err)
	}
	return p
}

func ParseFEN(fen string) (*Position, error) {
	fen = strings.TrimSpace(fen)
	parts := strings.Fields(fen)
	if len(parts) != 6 {
		return nil, &ParseError{FEN: fen, Reason: fmt.Sprintf("expected 6 parts, got %d", len(parts))}
	}
	if ranks := strings.Split(parts[0], "/"); len(ranks) != 8 {
		return nil, &ParseError{FEN: fen, Reason: "expected 8 ranks"}
	}
	if parts[1] != "w" && parts[1] != "b" {
		return nil, &ParseError{FEN: fen, Reason: "turn must be 'w' or 'b'"}
	}
	if _, err := strconv.Atoi(parts[4]); err != nil {
		return nil, &ParseError{FEN: fen, Reason: "halfmove counter"}
	}
	if n, err := strconv.Atoi(parts[5]); err != nil || n < 1 {
		return nil, &ParseError{FEN: fen, Reason: "fullmove counter"}
	}

	opt, err := chess.FEN(strings.Join(parts, " "))
	if err != nil {
		return nil, &ParseError{FEN: fen, Reason: err.Error()}
	}
	pos := chess.NewGame(opt).Position()
	squares := pos.Board().SquareMap()

	// One king per side, and the side that just moved cannot be left in check
	for _, c := range []chess.Color{chess.White, chess.Black} {
		kings := 0
		for _, pc := range squares {
			if pc.Type() == chess.King && pc.Color() == c {
				kings++
			}
		}
		if kings != 1 {
			return nil, &ParseError{FEN: fen, Reason: fmt.Sprintf("%s must have exactly one king, found %d", colorOf(c).Name(), kings)}
		}
	}
	for sq, pc := range squares {
		if pc.Type() == chess.Pawn && (sq.Rank() == chess.Rank1 || sq.Rank() == chess.Rank8) {
			return nil, &ParseError{FEN: fen, Reason: fmt.Sprintf("pawn on %s", sq)}
		}
	}
	if reason := checkCastling(pos.Board(), parts[2]); reason != "" {
		return nil, &ParseError{FEN: fen, Reason: reason}
	}

	p := &Position{pos: pos}
	if p.inCheck(pos.Turn().Other()) {
		return nil, &ParseError{FEN: fen, Reason: "side not to move is in check"}
	}
	p.status = p.classify()
	return p, nil
}

// castlingHome lists the king and rook squares each castling right needs
var castlingHome = map[rune][2]chess.Square{
	'K': {chess.E1, chess.H1},
	'Q': {chess.E1, chess.A1},
	'k': {chess.E8, chess.H8},
	'q': {chess.E8, chess.A8},
}

// checkCastling returns a reason when a castling right has no king and rook
// on their home squares
func checkCastling(b *chess.Board, rights string) string {
	if rights == "-" {
		return ""
	}
	for _, r := range rights {
		home, ok := castlingHome[r]
		if !ok {
			return fmt.Sprintf("invalid castling right %q", r)
		}
		c := chess.White
		if r == 'k' || r == 'q' {
			c = chess.Black
		}
		king, rook := b.Piece(home[0]), b.Piece(home[1])
		if king.Type() != chess.King || king.Color() != c || rook.Type() != chess.Rook || rook.Color() != c {
			return fmt.Sprintf("castling right %c without king on %s and rook on %s", r, home[0], home[1])
		}
	}
	return ""
}

// FEN encodes the position
func (p *Position) FEN() string {
	return p.pos.String()
}

func (p *Position) Turn() core.Color {
	return colorOf(p.pos.Turn())
}

// CastlingRights returns the FEN castling field, "-" when none
func (p *Position) CastlingRights() string {
	return p.pos.CastleRights().String()
}

// EnPassant returns the FEN en-passant field, "-" when none
func (p *Position) EnPassant() string {
	if sq := p.pos.EnPassantSquare(); sq != chess.NoSquare {
		return sq.String()
	}
	return "-"
}

func (p *Position) HalfMoveClock() int {
	return p.pos.HalfMoveClock()
}

func (p *Position) FullMoveNumber() int {
	n, _ := strconv.Atoi(p.field(5))
	return n
}

func (p *Position) field(i int) string {
	parts := strings.Fields(p.pos.String())
	if i >= len(parts) {
		return ""
	}
	return parts[i]
}

// Piece returns the piece on a square in algebraic form ("e4")
func (p *Position) Piece(square string) (core.Piece, bool) {
	sq, ok := ParseSquare(square)
	if !ok {
		return core.Piece{}, false
	}
	return pieceOf(p.pos.Board().Piece(sq))
}

// ValidMoves returns the legal moves of the side to move
func (p *Position) ValidMoves() []*chess.Move {
	return p.pos.ValidMoves()
}

// LegalMoves returns the legal moves in UCI form
func (p *Position) LegalMoves() []string {
	moves := p.pos.ValidMoves()
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.String())
	}
	return out
}

// Apply returns the position after m. m must be one of ValidMoves.
func (p *Position) Apply(m *chess.Move) (*Position, error) {
	var valid *chess.Move
	for _, candidate := range p.pos.ValidMoves() {
		if candidate.S1() == m.S1() && candidate.S2() == m.S2() && candidate.Promo() == m.Promo() {
			valid = candidate
			break
		}
	}
	if valid == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrIllegalMove, m)
	}

	history := make([]string, len(p.history), len(p.history)+1)
	copy(history, p.history)
	history = append(history, p.key())

	return newPosition(p.pos.Update(valid), history), nil
}

// SAN encodes m, which must be legal here, in standard algebraic notation
func (p *Position) SAN(m *chess.Move) string {
	return chess.AlgebraicNotation{}.Encode(p.pos, m)
}

func (p *Position) IsCheck() bool {
	return p.inCheck(p.pos.Turn())
}

func (p *Position) IsCheckmate() bool {
	return p.status == core.StatusCheckmate
}

func (p *Position) IsStalemate() bool {
	return p.status == core.StatusStalemate
}

// IsInsufficientMaterial reports a dead position: bare kings, a single
// minor piece, or bishops that all stand on one square shade
func (p *Position) IsInsufficientMaterial() bool {
	opt, err := chess.FEN(p.pos.String())
	if err != nil {
		return false
	}
	return chess.NewGame(opt).Method() == chess.InsufficientMaterial
}

// RepetitionCount returns how many times the current position has occurred
func (p *Position) RepetitionCount() int {
	key := p.key()
	count := 1
	for _, k := range p.history {
		if k == key {
			count++
		}
	}
	return count
}

func (p *Position) IsThreefoldRepetition() bool {
	return p.RepetitionCount() >= 3
}

func (p *Position) IsFiftyMoveRule() bool {
	return p.HalfMoveClock() >= 100
}

func (p *Position) IsDraw() bool {
	return p.Status().IsDraw()
}

// DrawReason returns the draw classification, StatusOngoing when not drawn
func (p *Position) DrawReason() core.Status {
	if s := p.Status(); s.IsDraw() {
		return s
	}
	return core.StatusOngoing
}

// Status classifies the position. Precedence: checkmate, stalemate,
// insufficient material, threefold repetition, fifty-move rule.
func (p *Position) Status() core.Status {
	return p.status
}

func (p *Position) classify() core.Status {
	switch p.pos.Status() {
	case chess.Checkmate:
		return core.StatusCheckmate
	case chess.Stalemate:
		return core.StatusStalemate
	}
	switch {
	case p.IsInsufficientMaterial():
		return core.StatusDrawInsufficientMaterial
	case p.IsThreefoldRepetition():
		return core.StatusDrawRepetition
	case p.IsFiftyMoveRule():
		return core.StatusDrawOther
	}
	return core.StatusOngoing
}

// key identifies a position for repetition the way notnil compares
// positions: placement, turn, castling rights and en-passant square
func (p *Position) key() string {
	return strings.Join([]string{
		p.pos.Board().String(),
		p.pos.Turn().String(),
		p.CastlingRights(),
		p.EnPassant(),
	}, " ")
}

// ToASCII creates an ASCII representation of the board
func (p *Position) ToASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f g h\n")

	for r := 0; r < 8; r++ {
		sb.WriteString(fmt.Sprintf("%d ", 8-r))
		for f := 0; f < 8; f++ {
			square := fmt.Sprintf("%c%c", 'a'+f, '8'-r)
			piece, ok := p.Piece(square)

			if !ok {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.FEN() + " ")
			}
		}
		sb.WriteString(fmt.Sprintf(" %d\n", 8-r))
	}
	sb.WriteString("  a b c d e f g h")

	return sb.String()
}
