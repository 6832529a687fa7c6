package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chessbot/internal/core"
	"chessbot/internal/engine"
	"chessbot/internal/engine/enginetest"
	"chessbot/internal/processor"
	"chessbot/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap/zaptest"
)

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	svc := service.New(service.Config{
		Backends: func() []engine.Backend {
			fake := enginetest.New("fake")
			fake.Auto = false
			return []engine.Backend{fake}
		},
		HandshakeTimeout: 100 * time.Millisecond,
		MaxSessions:      4,
	}, zaptest.NewLogger(t))
	t.Cleanup(func() { svc.Close() })
	return NewFiberApp(processor.New(svc), true)
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func createGame(t *testing.T, app *fiber.App) core.GameResponse {
	t.Helper()
	status, body := do(t, app, "POST", "/api/v1/games", `{"humanColor":"white","level":3}`)
	if status != fiber.StatusCreated {
		t.Fatalf("create status %d: %s", status, body)
	}
	var g core.GameResponse
	if err := json.Unmarshal(body, &g); err != nil {
		t.Fatal(err)
	}
	return g
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var e core.ErrorResponse
	if err := json.Unmarshal(body, &e); err != nil {
		t.Fatalf("not an error response: %s", body)
	}
	return e.Code
}

func TestCreateAndMove(t *testing.T) {
	app := newApp(t)
	g := createGame(t, app)

	if g.Engine.Level != 3 || g.Engine.Depth != 8 || g.StatusText != "White to move" {
		t.Errorf("created = %+v", g)
	}

	status, body := do(t, app, "POST", "/api/v1/games/"+g.GameID+"/moves", `{"from":"E2","to":"e4"}`)
	if status != fiber.StatusOK {
		t.Fatalf("move status %d: %s", status, body)
	}
	var after core.GameResponse
	json.Unmarshal(body, &after)
	if after.LastMove == nil || after.LastMove.SAN != "e4" || !after.EngineSearching {
		t.Errorf("after move = %+v", after)
	}

	status, body = do(t, app, "POST", "/api/v1/games/"+g.GameID+"/moves", `{"from":"d2","to":"d4"}`)
	if status != fiber.StatusConflict || errorCode(t, body) != core.ErrCodeNotHumanTurn {
		t.Errorf("move during engine turn: %d %s", status, body)
	}
}

func TestStatusMapping(t *testing.T) {
	app := newApp(t)
	g := createGame(t, app)
	base := "/api/v1/games/" + g.GameID

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"illegal move", "POST", base + "/moves", `{"from":"e2","to":"e5"}`, 400, core.ErrCodeInvalidMove},
		{"bad square", "POST", base + "/moves", `{"from":"z9","to":"e5"}`, 400, core.ErrCodeInvalidRequest},
		{"missing color", "POST", "/api/v1/games", `{}`, 400, core.ErrCodeInvalidRequest},
		{"level out of range", "PUT", base + "/strength", `{"level":21}`, 400, core.ErrCodeInvalidRequest},
		{"bad fen", "POST", base + "/reset", `{"humanColor":"white","fen":"8/8 w"}`, 400, core.ErrCodeInvalidFEN},
		{"bad uuid", "GET", "/api/v1/games/not-a-uuid", "", 400, core.ErrCodeInvalidRequest},
		{"unknown game", "GET", "/api/v1/games/6f1c1d1e-0000-4000-8000-000000000000", "", 404, core.ErrCodeGameNotFound},
		{"undo count", "POST", base + "/undo", `{"count":0}`, 400, core.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, tt.method, tt.path, tt.body)
			if status != tt.status {
				t.Errorf("status = %d, want %d: %s", status, tt.status, body)
			}
			if code := errorCode(t, body); code != tt.code {
				t.Errorf("code = %s, want %s", code, tt.code)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	app := newApp(t)
	req := httptest.NewRequest("POST", "/api/v1/games", strings.NewReader(`humanColor=white`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUnsupportedMediaType {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestStrengthBoardResetDelete(t *testing.T) {
	app := newApp(t)
	g := createGame(t, app)
	base := "/api/v1/games/" + g.GameID

	status, body := do(t, app, "PUT", base+"/strength", `{"level":12}`)
	var resp core.GameResponse
	json.Unmarshal(body, &resp)
	if status != 200 || resp.Engine.Level != 12 || resp.Engine.Depth != 16 {
		t.Errorf("strength: %d %+v", status, resp.Engine)
	}

	status, body = do(t, app, "GET", base+"/board", "")
	var b core.BoardResponse
	json.Unmarshal(body, &b)
	if status != 200 || !strings.Contains(b.Board, "a b c d e f g h") {
		t.Errorf("board: %d %s", status, body)
	}

	status, body = do(t, app, "POST", base+"/reset", `{"humanColor":"black"}`)
	json.Unmarshal(body, &resp)
	if status != 200 || resp.HumanColor != "b" || resp.Phase != "awaiting_engine_move" {
		t.Errorf("reset: %d %+v", status, resp)
	}

	if status, _ = do(t, app, "DELETE", base, ""); status != fiber.StatusNoContent {
		t.Errorf("delete status %d", status)
	}
	if status, _ = do(t, app, "GET", base, ""); status != fiber.StatusNotFound {
		t.Errorf("get after delete %d", status)
	}
}

func TestLongPollReturnsOnStaleCount(t *testing.T) {
	app := newApp(t)
	g := createGame(t, app)

	status, body := do(t, app, "GET", "/api/v1/games/"+g.GameID+"?wait=true&moveCount=3", "")
	var resp core.GameResponse
	json.Unmarshal(body, &resp)
	if status != 200 || resp.MoveCount != 0 {
		t.Errorf("long poll: %d %s", status, body)
	}
}

func TestHealth(t *testing.T) {
	app := newApp(t)
	createGame(t, app)

	status, body := do(t, app, "GET", "/health", "")
	if status != 200 || !strings.Contains(string(body), `"sessions":1`) {
		t.Errorf("health: %d %s", status, body)
	}
}
