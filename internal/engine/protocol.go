package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"chessbot/internal/core"
)

const (
	MinLevel = 0
	MaxLevel = 20
)

var moveToken = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][nbrq]?$`)

// BestMove is the move named by a "bestmove" line
type BestMove struct {
	From      string
	To        string
	Promotion core.PieceKind
	Ponder    string
}

// UCI returns the move in long algebraic form, e.g. "e7e8q"
func (m BestMove) UCI() string {
	return m.From + m.To + m.Promotion.String()
}

// ParseBestMove parses "bestmove <move> [ponder <move>]". Any other shape,
// including "bestmove (none)", is a protocol mismatch.
func ParseBestMove(line string) (BestMove, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "bestmove" || !moveToken.MatchString(fields[1]) {
		return BestMove{}, fmt.Errorf("%w: %q", core.ErrProtocolMismatch, line)
	}

	tok := fields[1]
	m := BestMove{From: tok[0:2], To: tok[2:4]}
	if len(tok) == 5 {
		m.Promotion, _ = core.ParsePromotion(tok[4:])
	}
	if len(fields) >= 4 && fields[2] == "ponder" && moveToken.MatchString(fields[3]) {
		m.Ponder = fields[3]
	}
	return m, nil
}

// ParseInfo folds the depth and score of an "info" line into r
func ParseInfo(line string, r *SearchResult) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "info" {
		return
	}
	for i := 1; i < len(fields)-1; i++ {
		n, err := strconv.Atoi(fields[i+1])
		if err != nil {
			continue
		}
		switch fields[i] {
		case "depth":
			r.Depth = n
		case "cp":
			r.Score = n
			r.IsMate = false
			r.MateIn = 0
		case "mate":
			r.MateIn = n
			r.IsMate = true
			// Mate scores map onto the centipawn scale so callers can compare
			if n > 0 {
				r.Score = 100000 - n
			} else {
				r.Score = -100000 - n
			}
		}
	}
}

// ClampLevel bounds a skill level to 0..20
func ClampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// DepthForLevel maps a skill level to the search depth sent with "go depth"
func DepthForLevel(level int) int {
	switch level = ClampLevel(level); {
	case level <= 5:
		return 8
	case level <= 10:
		return 12
	case level <= 15:
		return 16
	default:
		return 20
	}
}

func skillCommands(level int) []string {
	return []string{
		fmt.Sprintf("setoption name Skill Level value %d", level),
		"setoption name UCI_LimitStrength value true",
	}
}
