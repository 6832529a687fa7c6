package core

import "errors"

// Error codes
const (
	ErrCodeGameNotFound      = "GAME_NOT_FOUND"
	ErrCodeInvalidMove       = "INVALID_MOVE"
	ErrCodeNotHumanTurn      = "NOT_HUMAN_TURN"
	ErrCodeGameOver          = "GAME_OVER"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeInvalidContent    = "INVALID_CONTENT_TYPE"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInvalidFEN        = "INVALID_FEN"
	ErrCodeEngineUnavailable = "ENGINE_UNAVAILABLE"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeResourceLimit     = "RESOURCE_LIMIT"
)

var (
	ErrIllegalMove       = errors.New("illegal move")
	ErrParse             = errors.New("malformed position notation")
	ErrEngineUnavailable = errors.New("engine unavailable")
	ErrProtocolMismatch  = errors.New("engine protocol mismatch")
	ErrNotHumanTurn      = errors.New("not human player's turn")
	ErrGameOver          = errors.New("game is over")
	ErrGameNotFound      = errors.New("game not found")
	ErrCapacity          = errors.New("session limit reached")
)

// Code maps an error to its boundary error code
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIllegalMove):
		return ErrCodeInvalidMove
	case errors.Is(err, ErrParse):
		return ErrCodeInvalidFEN
	case errors.Is(err, ErrGameNotFound):
		return ErrCodeGameNotFound
	case errors.Is(err, ErrNotHumanTurn):
		return ErrCodeNotHumanTurn
	case errors.Is(err, ErrGameOver):
		return ErrCodeGameOver
	case errors.Is(err, ErrEngineUnavailable), errors.Is(err, ErrProtocolMismatch):
		return ErrCodeEngineUnavailable
	case errors.Is(err, ErrCapacity):
		return ErrCodeResourceLimit
	default:
		return ErrCodeInternalError
	}
}
