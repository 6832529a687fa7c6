package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is one established line-oriented link to a UCI engine
type Conn interface {
	Send(line string) error
	// Lines delivers engine output one line at a time and is closed when
	// the link ends
	Lines() <-chan string
	Close() error
}

// Backend is a way of reaching an engine. Adapters try backends in order.
type Backend interface {
	Name() string
	Dial(ctx context.Context) (Conn, error)
}

const lineBuffer = 256

// ProcessBackend runs a local engine binary and talks over stdin/stdout
type ProcessBackend struct {
	// Label names the backend in logs; defaults to "process:<path>"
	Label string
	Path  string
	Args  []string
}

func (b *ProcessBackend) Name() string {
	if b.Label != "" {
		return b.Label
	}
	return "process:" + b.Path
}

func (b *ProcessBackend) Dial(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmd := exec.Command(b.Path, b.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err = cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}

	c := &processConn{
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan string, lineBuffer),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go c.read(stdout)
	go func() {
		c.waitErr = cmd.Wait()
		close(c.done)
	}()
	return c, nil
}

type processConn struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	lines   chan string
	stop    chan struct{} // closed by Close so a blocked reader can exit
	done    chan struct{}
	waitErr error

	mu     sync.Mutex
	closed bool
}

func (c *processConn) read(stdout io.Reader) {
	defer close(c.lines)
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		select {
		case c.lines <- scanner.Text():
		case <-c.stop:
			return
		}
	}
}

func (c *processConn) Send(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return io.ErrClosedPipe
	}
	_, err := fmt.Fprintln(c.stdin, line)
	return err
}

func (c *processConn) Lines() <-chan string {
	return c.lines
}

// Close gives the process a second to exit after stdin closes, then kills it
func (c *processConn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.stop)
	c.stdin.Close()
	c.mu.Unlock()

	select {
	case <-c.done:
		return nil
	case <-time.After(1 * time.Second):
		return c.cmd.Process.Kill()
	}
}

// WebSocketBackend reaches a remote engine worker that exchanges one UCI
// line per text frame
type WebSocketBackend struct {
	// Label names the backend in logs; defaults to "websocket:<url>"
	Label  string
	URL    string
	Dialer *websocket.Dialer
}

func (b *WebSocketBackend) Name() string {
	if b.Label != "" {
		return b.Label
	}
	return "websocket:" + b.URL
}

func (b *WebSocketBackend) Dial(ctx context.Context) (Conn, error) {
	dialer := b.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	ws, _, err := dialer.DialContext(ctx, b.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", b.URL, err)
	}

	c := &wsConn{
		ws:    ws,
		lines: make(chan string, lineBuffer),
		stop:  make(chan struct{}),
	}
	go c.read()
	return c, nil
}

type wsConn struct {
	ws    *websocket.Conn
	lines chan string
	stop  chan struct{}

	mu     sync.Mutex
	closed bool
}

func (c *wsConn) read() {
	defer close(c.lines)
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		// Workers may batch several lines into one frame
		for _, line := range strings.Split(strings.TrimRight(string(data), "\r\n"), "\n") {
			select {
			case c.lines <- strings.TrimRight(line, "\r"):
			case <-c.stop:
				return
			}
		}
	}
}

func (c *wsConn) Send(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	return c.ws.WriteMessage(websocket.TextMessage, []byte(line))
}

func (c *wsConn) Lines() <-chan string {
	return c.lines
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.stop)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	werr := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	if err := c.ws.Close(); err != nil {
		return err
	}
	if werr != nil && !errors.Is(werr, websocket.ErrCloseSent) {
		return werr
	}
	return nil
}
