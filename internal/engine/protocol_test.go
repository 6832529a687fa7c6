package engine

import (
	"errors"
	"testing"

	"chessbot/internal/board"
	"chessbot/internal/core"

	"go.uber.org/zap/zaptest"
)

func TestParseBestMove(t *testing.T) {
	tests := []struct {
		line    string
		want    BestMove
		wantErr bool
	}{
		{line: "bestmove e2e4", want: BestMove{From: "e2", To: "e4"}},
		{line: "bestmove e7e8q ponder d8e8", want: BestMove{From: "e7", To: "e8", Promotion: core.Queen, Ponder: "d8e8"}},
		{line: "bestmove g1f3 ponder", want: BestMove{From: "g1", To: "f3"}},
		{line: "bestmove (none)", wantErr: true},
		{line: "bestmove e2e9", wantErr: true},
		{line: "bestmove e7e8k", wantErr: true},
		{line: "bestmove", wantErr: true},
		{line: "info depth 3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseBestMove(tt.line)
			if tt.wantErr {
				if !errors.Is(err, core.ErrProtocolMismatch) {
					t.Fatalf("err = %v, want protocol mismatch", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseInfo(t *testing.T) {
	var r SearchResult
	ParseInfo("info depth 12 seldepth 18 multipv 1 score cp -35 nodes 1000 pv e7e5", &r)
	if r.Depth != 12 || r.Score != -35 || r.IsMate {
		t.Errorf("cp info: %+v", r)
	}

	ParseInfo("info depth 14 score mate 3 pv d8h4", &r)
	if r.Depth != 14 || !r.IsMate || r.MateIn != 3 || r.Score != 99997 {
		t.Errorf("mate info: %+v", r)
	}

	ParseInfo("info string NNUE enabled", &r)
	if r.Depth != 14 {
		t.Errorf("string info changed depth: %+v", r)
	}
}

func TestDepthForLevel(t *testing.T) {
	tests := []struct{ level, depth int }{
		{-4, 8}, {0, 8}, {3, 8}, {5, 8},
		{6, 12}, {10, 12},
		{11, 16}, {12, 16}, {15, 16},
		{16, 20}, {20, 20}, {99, 20},
	}
	for _, tt := range tests {
		if got := DepthForLevel(tt.level); got != tt.depth {
			t.Errorf("DepthForLevel(%d) = %d, want %d", tt.level, got, tt.depth)
		}
	}
}

// stubConn records commands and never produces output
type stubConn struct {
	sent  []string
	lines chan string
}

func (c *stubConn) Send(line string) error { c.sent = append(c.sent, line); return nil }
func (c *stubConn) Lines() <-chan string  { return c.lines }
func (c *stubConn) Close() error           { return nil }

func readyAdapter(t *testing.T) (*Adapter, *stubConn) {
	a := New(Config{Level: 12}, zaptest.NewLogger(t))
	c := &stubConn{lines: make(chan string)}
	a.conn = c
	a.state = StateReady
	return a, c
}

func TestHandleLineWithoutPendingSearch(t *testing.T) {
	a, _ := readyAdapter(t)

	a.handleLine("bestmove e2e4")
	a.handleLine("info depth 5 score cp 20")
	a.handleLine("readyok")

	if a.State() != StateReady {
		t.Fatalf("state = %v", a.State())
	}

	s, err := a.RequestBestMove(board.StartingFEN)
	if err != nil {
		t.Fatal(err)
	}
	a.handleLine("info depth 16 score cp 31")
	a.handleLine("bestmove d2d4 ponder d7d5")

	res := <-s.C
	if res.Err != nil || res.BestMove.UCI() != "d2d4" || res.Depth != 16 || res.Score != 31 {
		t.Errorf("result = %+v", res)
	}
	if res.ID != s.ID {
		t.Errorf("result id %d, search id %d", res.ID, s.ID)
	}
	if _, open := <-s.C; open {
		t.Errorf("search channel not closed")
	}
}

func TestHandleLineProtocolMismatch(t *testing.T) {
	a, _ := readyAdapter(t)

	s, err := a.RequestBestMove(board.StartingFEN)
	if err != nil {
		t.Fatal(err)
	}
	a.handleLine("bestmove xx99")

	res := <-s.C
	if !errors.Is(res.Err, core.ErrProtocolMismatch) {
		t.Fatalf("err = %v", res.Err)
	}
	if a.State() != StateReady {
		t.Errorf("state = %v, want ready", a.State())
	}
}

func TestRequestWhileBusy(t *testing.T) {
	a, c := readyAdapter(t)

	if _, err := a.RequestBestMove(board.StartingFEN); err != nil {
		t.Fatal(err)
	}
	if _, err := a.RequestBestMove(board.StartingFEN); !errors.Is(err, ErrBusy) {
		t.Fatalf("second request err = %v, want ErrBusy", err)
	}

	want := []string{"position fen " + board.StartingFEN, "go depth 16"}
	if len(c.sent) != len(want) {
		t.Fatalf("sent %v", c.sent)
	}
	for i := range want {
		if c.sent[i] != want[i] {
			t.Errorf("sent[%d] = %q, want %q", i, c.sent[i], want[i])
		}
	}
}

func TestStopDiscardsOwedBestMove(t *testing.T) {
	a, c := readyAdapter(t)

	first, _ := a.RequestBestMove(board.StartingFEN)
	if err := a.Stop(); err != nil {
		t.Fatal(err)
	}
	if res := <-first.C; !errors.Is(res.Err, ErrStopped) {
		t.Fatalf("stopped search err = %v", res.Err)
	}
	if c.sent[len(c.sent)-1] != "stop" {
		t.Errorf("last command %q", c.sent[len(c.sent)-1])
	}

	second, err := a.RequestBestMove(board.StartingFEN)
	if err != nil {
		t.Fatal(err)
	}
	if second.ID == first.ID {
		t.Errorf("search ids reused")
	}

	a.handleLine("bestmove e2e4") // owed by the stopped search
	a.handleLine("bestmove g1f3")

	res := <-second.C
	if res.Err != nil || res.BestMove.UCI() != "g1f3" {
		t.Errorf("second result = %+v", res)
	}
}
