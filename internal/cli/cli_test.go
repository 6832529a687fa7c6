package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"chessbot/internal/engine"
	"chessbot/internal/engine/enginetest"
	"chessbot/internal/processor"
	"chessbot/internal/service"

	"go.uber.org/zap/zaptest"
)

func newCLI(t *testing.T) (*CLI, *bytes.Buffer) {
	t.Helper()
	svc := service.New(service.Config{
		Backends: func() []engine.Backend {
			return []engine.Backend{enginetest.New("fake")}
		},
		HandshakeTimeout: 100 * time.Millisecond,
		MaxSessions:      1,
	}, zaptest.NewLogger(t))
	t.Cleanup(func() { svc.Close() })

	var out bytes.Buffer
	return New(processor.New(svc), &out, Options{EngineWait: 2 * time.Second}), &out
}

func run(t *testing.T, c *CLI, out *bytes.Buffer, line string) string {
	t.Helper()
	out.Reset()
	if !c.Execute(context.Background(), line) {
		t.Fatalf("%q ended the session", line)
	}
	return out.String()
}

func TestPlayAgainstEngine(t *testing.T) {
	c, out := newCLI(t)

	got := run(t, c, out, "new white")
	if !strings.Contains(got, "you play White") || !strings.Contains(got, "White to move") {
		t.Fatalf("new output:\n%s", got)
	}

	got = run(t, c, out, "e2e4")
	for _, want := range []string{"You: e4", "Engine: a5", "White to move"} {
		if !strings.Contains(got, want) {
			t.Errorf("move output missing %q:\n%s", want, got)
		}
	}

	got = run(t, c, out, "history")
	if strings.TrimSpace(got) != "1. e4 a5" {
		t.Errorf("history = %q", got)
	}

	got = run(t, c, out, "fen")
	if !strings.HasPrefix(got, "rnbqkbnr/1ppppppp/8/p7/4P3/8/PPPP1PPP/RNBQKBNR w") {
		t.Errorf("fen = %q", got)
	}
}

func TestEngineMovesFirstAsBlack(t *testing.T) {
	c, out := newCLI(t)

	got := run(t, c, out, "new black")
	if !strings.Contains(got, "Engine: a3") || !strings.Contains(got, "Black to move") {
		t.Errorf("new black output:\n%s", got)
	}
}

func TestNewFromFEN(t *testing.T) {
	c, out := newCLI(t)

	got := run(t, c, out, "new white 8/P6k/8/8/8/8/8/K7 w - - 0 1")
	if !strings.Contains(got, "White to move") {
		t.Fatalf("output:\n%s", got)
	}
	got = run(t, c, out, "move a7a8n")
	if !strings.Contains(got, "You: a8=N") {
		t.Errorf("promotion output:\n%s", got)
	}
}

func TestErrors(t *testing.T) {
	c, out := newCLI(t)

	tests := []struct {
		line string
		want string
	}{
		{"e2e4", "no active game"},
		{"dance", "Unknown command"},
		{"new white not-a-fen", "INVALID_FEN"},
	}
	for _, tt := range tests {
		if got := run(t, c, out, tt.line); !strings.Contains(got, tt.want) {
			t.Errorf("%q: output %q, want %q", tt.line, got, tt.want)
		}
	}

	run(t, c, out, "new")
	tests = []struct {
		line string
		want string
	}{
		{"e2e5", "INVALID_MOVE"},
		{"move", "usage: move"},
		{"level high", "invalid level"},
		{"undo", "INVALID_REQUEST"},
		{"undo zero", "usage: undo"},
	}
	for _, tt := range tests {
		if got := run(t, c, out, tt.line); !strings.Contains(got, tt.want) {
			t.Errorf("%q: output %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestLevelAndUndo(t *testing.T) {
	c, out := newCLI(t)
	run(t, c, out, "new")

	if got := run(t, c, out, "level 3"); !strings.Contains(got, "Engine level 3 (depth 8)") {
		t.Errorf("level output %q", got)
	}

	run(t, c, out, "e2e4")
	run(t, c, out, "undo")
	if got := run(t, c, out, "history"); strings.TrimSpace(got) != "No moves yet" {
		t.Errorf("history after undo = %q", got)
	}
}

func TestHelpAndQuit(t *testing.T) {
	c, out := newCLI(t)

	got := run(t, c, out, "help")
	for _, name := range []string{"new", "move", "level", "undo", "history", "board", "quit"} {
		if !strings.Contains(got, name) {
			t.Errorf("help missing %q", name)
		}
	}

	for _, line := range []string{"quit", "exit", "x"} {
		if c.Execute(context.Background(), line) {
			t.Errorf("%q did not end the session", line)
		}
	}
}

func TestRenderBoardPlain(t *testing.T) {
	var out bytes.Buffer
	renderBoard(&out, newPalette(false), "  a b\n8 k .  8\n  a b")
	if got := out.String(); got != "  a b\n8 k .  8\n  a b\n" {
		t.Errorf("render = %q", got)
	}
}
