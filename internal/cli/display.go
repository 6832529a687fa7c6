// FILE: internal/cli/display.go
package cli

import (
	"fmt"
	"io"
	"strings"

	"chessbot/internal/core"

	"github.com/fatih/color"
)

// palette holds the colours used by the terminal view
type palette struct {
	white  *color.Color
	black  *color.Color
	coords *color.Color
	prompt *color.Color
	info   *color.Color
	err    *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		white:  color.New(color.FgBlue, color.Bold),
		black:  color.New(color.FgRed, color.Bold),
		coords: color.New(color.FgCyan),
		prompt: color.New(color.FgYellow),
		info:   color.New(color.FgGreen),
		err:    color.New(color.FgRed),
	}
	for _, c := range []*color.Color{p.white, p.black, p.coords, p.prompt, p.info, p.err} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// renderBoard colours an ASCII board: white pieces, black pieces and coordinates
func renderBoard(w io.Writer, p palette, ascii string) {
	lines := strings.Split(ascii, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		coordLine := i == 0 || i == len(lines)-1

		var sb strings.Builder
		for _, ch := range line {
			switch {
			case coordLine && ch >= 'a' && ch <= 'h':
				sb.WriteString(p.coords.Sprintf("%c", ch))
			case ch >= '1' && ch <= '8':
				sb.WriteString(p.coords.Sprintf("%c", ch))
			case ch >= 'A' && ch <= 'Z':
				sb.WriteString(p.white.Sprintf("%c", ch))
			case ch >= 'a' && ch <= 'z':
				sb.WriteString(p.black.Sprintf("%c", ch))
			default:
				sb.WriteRune(ch)
			}
		}
		fmt.Fprintln(w, sb.String())
	}
}

func colorName(p palette, c string) string {
	if c == "w" {
		return p.white.Sprint("White")
	}
	return p.black.Sprint("Black")
}

func describeMove(m *core.MoveInfo) string {
	s := m.SAN
	if m.Captured != "" {
		s += fmt.Sprintf(" (takes %s)", m.Captured)
	}
	return s
}

func formatHistory(g core.GameResponse) string {
	if len(g.MovePairs) == 0 {
		return "No moves yet"
	}
	var sb strings.Builder
	for _, pair := range g.MovePairs {
		white := pair.White
		if white == "" {
			white = "..."
		}
		if pair.Black != "" {
			fmt.Fprintf(&sb, "%d. %s %s\n", pair.Number, white, pair.Black)
		} else {
			fmt.Fprintf(&sb, "%d. %s\n", pair.Number, white)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
