package move

import (
	"errors"
	"testing"

	"chessbot/internal/board"
	"chessbot/internal/core"
)

func mustFEN(t *testing.T, fen string) *board.Position {
	t.Helper()
	p, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return p
}

func mustPlay(t *testing.T, a *Applier, p *board.Position, moves ...string) *board.Position {
	t.Helper()
	for _, uci := range moves {
		req, err := ParseUCI(uci)
		if err != nil {
			t.Fatal(err)
		}
		out := a.Submit(p, req)
		if !out.Accepted() {
			t.Fatalf("%s rejected: %s", uci, out.Rejection.Reason)
		}
		p = out.Next
	}
	return p
}

func TestSubmitPawnPush(t *testing.T) {
	a := New()
	start := board.Start()

	out := a.Submit(start, Request{From: "e2", To: "e4"})
	if !out.Accepted() {
		t.Fatalf("e2e4 rejected: %s", out.Rejection.Reason)
	}
	rec := out.Record
	if rec.Piece != (core.Piece{Color: core.ColorWhite, Kind: core.Pawn}) {
		t.Errorf("piece = %+v", rec.Piece)
	}
	if rec.Captured != nil {
		t.Errorf("captured = %+v, want none", rec.Captured)
	}
	if rec.SAN != "e4" || rec.UCI != "e2e4" {
		t.Errorf("SAN = %q UCI = %q", rec.SAN, rec.UCI)
	}
	if rec.Check || rec.Checkmate || rec.Stalemate {
		t.Errorf("unexpected flags %+v", rec)
	}
	if start.FEN() != board.StartingFEN {
		t.Errorf("input position changed")
	}
	if rec.FENAfter != out.Next.FEN() {
		t.Errorf("FENAfter %q != next %q", rec.FENAfter, out.Next.FEN())
	}
}

func TestSubmitRejections(t *testing.T) {
	a := New()
	start := board.Start()

	tests := []struct {
		name string
		req  Request
		want RejectReason
	}{
		{"illegal geometry", Request{From: "e2", To: "e5"}, RejectIllegal},
		{"opponent piece", Request{From: "e7", To: "e5"}, RejectOpponentPiece},
		{"empty square", Request{From: "e4", To: "e5"}, RejectEmptySquare},
		{"malformed", Request{From: "z9", To: "e5"}, RejectMalformed},
		{"knight blocked by own piece", Request{From: "g1", To: "e2"}, RejectIllegal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := a.Submit(start, tt.req)
			if out.Accepted() {
				t.Fatalf("accepted %v", tt.req)
			}
			if out.Rejection.Reason != tt.want {
				t.Errorf("reason = %v, want %v", out.Rejection.Reason, tt.want)
			}
			if out.Next != nil {
				t.Errorf("rejected outcome carries a position")
			}
			if !errors.Is(out.Rejection.Err(), core.ErrIllegalMove) {
				t.Errorf("Err() does not wrap ErrIllegalMove")
			}
		})
	}
}

func TestSubmitMoveIntoCheck(t *testing.T) {
	a := New()
	// White king on e1, black rook on d8 covers d1
	p := mustFEN(t, "3rk3/8/8/8/8/8/8/4K3 w - - 0 1")
	out := a.Submit(p, Request{From: "e1", To: "d1"})
	if out.Accepted() || out.Rejection.Reason != RejectIllegal {
		t.Fatalf("moving into check accepted: %+v", out)
	}
}

func TestSubmitCapture(t *testing.T) {
	a := New()
	p := mustPlay(t, a, board.Start(), "e2e4", "d7d5")

	out := a.Submit(p, Request{From: "e4", To: "d5"})
	if !out.Accepted() {
		t.Fatal(out.Rejection.Reason)
	}
	if out.Record.Captured == nil || *out.Record.Captured != (core.Piece{Color: core.ColorBlack, Kind: core.Pawn}) {
		t.Errorf("captured = %+v", out.Record.Captured)
	}
	if out.Record.SAN != "exd5" {
		t.Errorf("SAN = %q", out.Record.SAN)
	}
}

func TestSubmitEnPassant(t *testing.T) {
	a := New()
	p := mustFEN(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2")

	out := a.Submit(p, Request{From: "e5", To: "d6"})
	if !out.Accepted() {
		t.Fatal(out.Rejection.Reason)
	}
	if out.Record.Captured == nil || out.Record.Captured.Kind != core.Pawn || out.Record.Captured.Color != core.ColorBlack {
		t.Errorf("captured = %+v", out.Record.Captured)
	}
	if _, ok := out.Next.Piece("d5"); ok {
		t.Errorf("captured pawn still on d5")
	}
}

func TestSubmitPromotion(t *testing.T) {
	fen := "8/P6k/8/8/8/8/8/K7 w - - 0 1"

	tests := []struct {
		name    string
		applier *Applier
		hint    core.PieceKind
		want    core.PieceKind
		san     string
	}{
		{"default is queen", New(), core.NoKind, core.Queen, "a8=Q"},
		{"explicit knight", New(), core.Knight, core.Knight, "a8=N"},
		{"configured rook default", New(WithDefaultPromotion(core.Rook)), core.NoKind, core.Rook, "a8=R"},
		{"invalid default ignored", New(WithDefaultPromotion(core.King)), core.NoKind, core.Queen, "a8=Q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.applier.Submit(mustFEN(t, fen), Request{From: "a7", To: "a8", Promotion: tt.hint})
			if !out.Accepted() {
				t.Fatal(out.Rejection.Reason)
			}
			if out.Record.Promotion != tt.want {
				t.Errorf("promotion = %v, want %v", out.Record.Promotion, tt.want)
			}
			if out.Record.SAN != tt.san {
				t.Errorf("SAN = %q, want %q", out.Record.SAN, tt.san)
			}
			if pc, _ := out.Next.Piece("a8"); pc.Kind != tt.want {
				t.Errorf("a8 holds %v", pc.Kind)
			}
		})
	}

	out := New().Submit(mustFEN(t, fen), Request{From: "a7", To: "a8", Promotion: core.King})
	if out.Accepted() || out.Rejection.Reason != RejectPromotion {
		t.Errorf("king promotion accepted")
	}
}

func TestSubmitIgnoresPromotionHintOnNormalMove(t *testing.T) {
	out := New().Submit(board.Start(), Request{From: "e2", To: "e4", Promotion: core.Queen})
	if !out.Accepted() || out.Record.Promotion != core.NoKind {
		t.Fatalf("hint changed a normal move: %+v", out)
	}
}

func TestSubmitCheckmateAndCastle(t *testing.T) {
	a := New()
	p := mustPlay(t, a, board.Start(), "f2f3", "e7e5", "g2g4")

	out := a.Submit(p, Request{From: "d8", To: "h4"})
	if !out.Accepted() {
		t.Fatal(out.Rejection.Reason)
	}
	if !out.Record.Checkmate || !out.Record.Check || out.Record.SAN != "Qh4#" {
		t.Errorf("record = %+v", out.Record)
	}

	// No further moves once the game is over
	if after := a.Submit(out.Next, Request{From: "a2", To: "a3"}); after.Accepted() || after.Rejection.Reason != RejectGameOver {
		t.Errorf("move after mate: %+v", after)
	}

	p = mustPlay(t, a, board.Start(), "e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6")
	out = a.Submit(p, Request{From: "e1", To: "g1"})
	if !out.Accepted() || out.Record.SAN != "O-O" {
		t.Errorf("castle = %+v", out)
	}
}

func TestParseUCI(t *testing.T) {
	req, err := ParseUCI("e7e8q")
	if err != nil || req.From != "e7" || req.To != "e8" || req.Promotion != core.Queen {
		t.Errorf("ParseUCI(e7e8q) = %+v, %v", req, err)
	}
	if req.String() != "e7e8q" {
		t.Errorf("String() = %q", req.String())
	}
	for _, bad := range []string{"", "e2", "e2e9", "i2e4", "e7e8k", "e2e4e5"} {
		if _, err := ParseUCI(bad); err == nil {
			t.Errorf("ParseUCI(%q) succeeded", bad)
		}
	}
}
