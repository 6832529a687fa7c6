// FILE: internal/cli/cli.go
// Package cli implements the interactive terminal client. It drives the same
// processor the HTTP server uses, so rules and engine handling are shared.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"chessbot/internal/core"
	"chessbot/internal/move"
	"chessbot/internal/processor"

	"github.com/chzyer/readline"
)

// DefaultEngineWait bounds how long the client blocks for an engine reply
const DefaultEngineWait = 30 * time.Second

var errQuit = errors.New("quit")

// command defines a client command with its handler
type command struct {
	name        string
	shortName   string
	usage       string
	description string
	handler     func(ctx context.Context, args []string) error
}

type Options struct {
	Color      bool
	EngineWait time.Duration
}

type CLI struct {
	proc       *processor.Processor
	out        io.Writer
	palette    palette
	engineWait time.Duration
	verbose    bool

	commands map[string]*command
	names    []string

	gameID string
	game   *core.GameResponse
}

func New(proc *processor.Processor, out io.Writer, opts Options) *CLI {
	if opts.EngineWait <= 0 {
		opts.EngineWait = DefaultEngineWait
	}
	c := &CLI{
		proc:       proc,
		out:        out,
		palette:    newPalette(opts.Color),
		engineWait: opts.EngineWait,
		commands:   make(map[string]*command),
	}
	c.registerCommands()
	return c
}

func (c *CLI) registerCommands() {
	c.register(&command{name: "new", shortName: "n", usage: "new [white|black] [fen]",
		description: "Start a game, playing the given colour (default white)", handler: c.handleNew})
	c.register(&command{name: "move", shortName: "m", usage: "move <e2e4>",
		description: "Play a move in coordinate form, e.g. e7e8q", handler: c.handleMove})
	c.register(&command{name: "level", shortName: "l", usage: "level <0-20>",
		description: "Set engine strength", handler: c.handleLevel})
	c.register(&command{name: "undo", shortName: "u", usage: "undo [count]",
		description: "Take back moves until it is your turn again", handler: c.handleUndo})
	c.register(&command{name: "history", shortName: "h", usage: "history",
		description: "Show the moves played so far", handler: c.handleHistory})
	c.register(&command{name: "board", shortName: "b", usage: "board",
		description: "Show the current board", handler: c.handleBoard})
	c.register(&command{name: "fen", usage: "fen",
		description: "Print the current position as FEN", handler: c.handleFEN})
	c.register(&command{name: "verbose", shortName: "v", usage: "verbose",
		description: "Toggle engine search details", handler: c.handleVerbose})
	c.register(&command{name: "help", shortName: "?", usage: "help",
		description: "Show available commands", handler: c.handleHelp})
	c.register(&command{name: "quit", shortName: "x", usage: "quit",
		description: "Exit the client", handler: func(context.Context, []string) error { return errQuit }})
	c.commands["exit"] = c.commands["quit"]
}

func (c *CLI) register(cmd *command) {
	c.commands[cmd.name] = cmd
	if cmd.shortName != "" {
		c.commands[cmd.shortName] = cmd
	}
	c.names = append(c.names, cmd.name)
}

// Execute runs one input line. It returns false once the user asked to quit.
func (c *CLI) Execute(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}

	name, args := strings.ToLower(parts[0]), parts[1:]
	cmd, ok := c.commands[name]
	if !ok {
		// A bare coordinate move is shorthand for "move"
		if _, err := move.ParseUCI(name); err == nil && len(args) == 0 {
			cmd, args = c.commands["move"], parts
		} else {
			c.errorf("Unknown command: %s (type 'help' for commands)", parts[0])
			return true
		}
	}

	if err := cmd.handler(ctx, args); err != nil {
		if errors.Is(err, errQuit) {
			return false
		}
		c.errorf("Error: %v", err)
	}
	return true
}

// Run reads commands until EOF or quit
func (c *CLI) Run(ctx context.Context, rl *readline.Instance) error {
	c.info("Chess vs engine. Type 'help' for commands, 'new' to start.")
	for {
		rl.SetPrompt(c.prompt())
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if !c.Execute(ctx, line) {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *CLI) prompt() string {
	if c.game == nil {
		return c.palette.prompt.Sprint("chess > ")
	}
	g := c.game
	return fmt.Sprintf("%s %s%s ",
		c.palette.prompt.Sprint(g.Name),
		colorName(c.palette, g.Turn),
		c.palette.prompt.Sprint(" >"))
}

func (c *CLI) handleNew(ctx context.Context, args []string) error {
	req := core.CreateGameRequest{HumanColor: "white"}
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "white", "w", "black", "b":
			req.HumanColor = strings.ToLower(args[0])
			args = args[1:]
		}
	}
	if len(args) > 0 {
		req.FEN = strings.Join(args, " ")
	}

	if c.gameID != "" {
		c.proc.Execute(ctx, processor.NewDeleteGameCommand(c.gameID))
		c.gameID, c.game = "", nil
	}

	resp := c.proc.Execute(ctx, processor.NewCreateGameCommand(req))
	g, err := c.accept(resp)
	if err != nil {
		return err
	}
	c.gameID = g.GameID
	c.info(fmt.Sprintf("Game %s started, you play %s", g.Name, colorName(c.palette, g.HumanColor)))
	if g.Degraded {
		c.info("Engine unavailable, both sides are played from this terminal")
	}
	switch {
	case resp.Pending:
		if err := c.waitForEngine(ctx, g.MoveCount); err != nil {
			return err
		}
	case g.MoveCount > 0:
		c.announceEngine(g.LastMove)
	}
	return c.showPosition(ctx)
}

func (c *CLI) handleMove(ctx context.Context, args []string) error {
	if c.gameID == "" {
		return errors.New("no active game, use 'new'")
	}
	if len(args) != 1 {
		return errors.New("usage: move <e2e4>")
	}
	req, err := move.ParseUCI(args[0])
	if err != nil {
		return err
	}
	prev := 0
	if c.game != nil {
		prev = c.game.MoveCount
	}

	resp := c.proc.Execute(ctx, processor.NewMakeMoveCommand(c.gameID, core.MoveRequest{
		From:      req.From,
		To:        req.To,
		Promotion: req.Promotion.String(),
	}))
	g, err := c.accept(resp)
	if err != nil {
		return err
	}
	// The engine may already have replied, so the human move is looked up by index
	if prev < len(g.Moves) {
		c.info("You: " + g.Moves[prev])
	}
	switch {
	case resp.Pending:
		if err := c.waitForEngine(ctx, g.MoveCount); err != nil {
			return err
		}
	case g.MoveCount > prev+1:
		c.announceEngine(g.LastMove)
	}
	return c.showPosition(ctx)
}

// waitForEngine blocks until the game moves past moveCount or the wait expires
func (c *CLI) waitForEngine(ctx context.Context, moveCount int) error {
	ctx, cancel := context.WithTimeout(ctx, c.engineWait)
	defer cancel()

	for {
		resp := c.proc.Execute(ctx, processor.NewWaitGameCommand(c.gameID, moveCount))
		g, err := c.accept(resp)
		if err != nil {
			return err
		}
		if g.MoveCount > moveCount {
			c.announceEngine(g.LastMove)
			return nil
		}
		if !resp.Pending {
			if g.Degraded {
				c.info("Engine stopped responding, continue by playing both sides")
			}
			return nil
		}
		if ctx.Err() != nil {
			return errors.New("engine did not answer in time")
		}
	}
}

func (c *CLI) announceEngine(m *core.MoveInfo) {
	if m == nil {
		return
	}
	line := "Engine: " + describeMove(m)
	if c.verbose {
		line += fmt.Sprintf(" (depth %d, score %d)", m.Depth, m.Score)
	}
	c.info(line)
}

func (c *CLI) handleLevel(ctx context.Context, args []string) error {
	if c.gameID == "" {
		return errors.New("no active game, use 'new'")
	}
	if len(args) != 1 {
		return errors.New("usage: level <0-20>")
	}
	level, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid level %q", args[0])
	}
	g, err := c.accept(c.proc.Execute(ctx, processor.NewSetStrengthCommand(c.gameID, core.StrengthRequest{Level: &level})))
	if err != nil {
		return err
	}
	c.info(fmt.Sprintf("Engine level %d (depth %d)", g.Engine.Level, g.Engine.Depth))
	return nil
}

func (c *CLI) handleUndo(ctx context.Context, args []string) error {
	if c.gameID == "" {
		return errors.New("no active game, use 'new'")
	}
	count := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return errors.New("usage: undo [count]")
		}
		count = n
	}
	if _, err := c.accept(c.proc.Execute(ctx, processor.NewUndoMoveCommand(c.gameID, core.UndoRequest{Count: count}))); err != nil {
		return err
	}
	c.info("Move undone")
	return c.showPosition(ctx)
}

func (c *CLI) handleHistory(ctx context.Context, _ []string) error {
	g, err := c.refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, formatHistory(*g))
	return nil
}

func (c *CLI) handleBoard(ctx context.Context, _ []string) error {
	if c.gameID == "" {
		return errors.New("no active game, use 'new'")
	}
	return c.showPosition(ctx)
}

func (c *CLI) handleFEN(ctx context.Context, _ []string) error {
	g, err := c.refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, g.FEN)
	return nil
}

func (c *CLI) handleVerbose(context.Context, []string) error {
	c.verbose = !c.verbose
	c.info(fmt.Sprintf("Verbose: %t", c.verbose))
	return nil
}

func (c *CLI) handleHelp(context.Context, []string) error {
	names := append([]string(nil), c.names...)
	sort.Strings(names)
	fmt.Fprintln(c.out, "Commands:")
	for _, name := range names {
		cmd := c.commands[name]
		fmt.Fprintf(c.out, "  %-26s %s\n", c.palette.coords.Sprint(cmd.usage), cmd.description)
	}
	fmt.Fprintln(c.out, "A bare move such as e2e4 also works.")
	return nil
}

// showPosition prints the board followed by the status line
func (c *CLI) showPosition(ctx context.Context) error {
	g, err := c.refresh(ctx)
	if err != nil {
		return err
	}
	resp := c.proc.Execute(ctx, processor.NewGetBoardCommand(c.gameID))
	if !resp.Success {
		return errors.New(resp.Error.Error)
	}
	b := resp.Data.(core.BoardResponse)

	fmt.Fprintln(c.out)
	renderBoard(c.out, c.palette, b.Board)
	if len(g.Captured.White)+len(g.Captured.Black) > 0 {
		fmt.Fprintf(c.out, "Captured: %s | %s\n",
			strings.Join(g.Captured.White, ""), strings.Join(g.Captured.Black, ""))
	}
	if g.ResultText != "" {
		c.info(g.ResultText + " Type 'new' to play again.")
	} else {
		c.info(g.StatusText)
	}
	return nil
}

func (c *CLI) refresh(ctx context.Context) (*core.GameResponse, error) {
	if c.gameID == "" {
		return nil, errors.New("no active game, use 'new'")
	}
	return c.accept(c.proc.Execute(ctx, processor.NewGetGameCommand(c.gameID)))
}

// accept records the game carried by a successful response
func (c *CLI) accept(resp processor.ProcessorResponse) (*core.GameResponse, error) {
	if !resp.Success {
		if resp.Error == nil {
			return nil, errors.New("request failed")
		}
		if resp.Error.Code == core.ErrCodeGameNotFound {
			c.gameID, c.game = "", nil
		}
		return nil, fmt.Errorf("%s [%s]", resp.Error.Error, resp.Error.Code)
	}
	g, ok := resp.Data.(core.GameResponse)
	if !ok {
		return nil, errors.New("unexpected response")
	}
	c.game = &g
	return &g, nil
}

func (c *CLI) info(msg string) {
	fmt.Fprintln(c.out, c.palette.info.Sprint(msg))
}

func (c *CLI) errorf(format string, args ...any) {
	fmt.Fprintln(c.out, c.palette.err.Sprintf(format, args...))
}
