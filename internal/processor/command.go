// FILE: internal/processor/command.go
package processor

import (
	"chessbot/internal/core"
)

// CommandType defines the type of command being executed
type CommandType int

const (
	CmdCreateGame CommandType = iota
	CmdGetGame
	CmdWaitGame
	CmdDeleteGame
	CmdMakeMove
	CmdSetStrength
	CmdResetGame
	CmdUndoMove
	CmdGetBoard
	CmdHealth
)

// Command is a unified structure for all processor operations
type Command struct {
	Type   CommandType
	GameID string // For game-specific commands
	Args   any    // Command-specific arguments
}

// WaitArgs carries the client's last known move count for long-polling
type WaitArgs struct {
	MoveCount int
}

// ProcessorResponse wraps the response with metadata
type ProcessorResponse struct {
	Success bool                `json:"success"`
	Pending bool                `json:"pending,omitempty"` // Engine is still searching
	Data    any                 `json:"data,omitempty"`
	Error   *core.ErrorResponse `json:"error,omitempty"`
}

func NewCreateGameCommand(req core.CreateGameRequest) Command {
	return Command{
		Type: CmdCreateGame,
		Args: req,
	}
}

func NewGetGameCommand(gameID string) Command {
	return Command{
		Type:   CmdGetGame,
		GameID: gameID,
	}
}

func NewWaitGameCommand(gameID string, moveCount int) Command {
	return Command{
		Type:   CmdWaitGame,
		GameID: gameID,
		Args:   WaitArgs{MoveCount: moveCount},
	}
}

func NewMakeMoveCommand(gameID string, req core.MoveRequest) Command {
	return Command{
		Type:   CmdMakeMove,
		GameID: gameID,
		Args:   req,
	}
}

func NewSetStrengthCommand(gameID string, req core.StrengthRequest) Command {
	return Command{
		Type:   CmdSetStrength,
		GameID: gameID,
		Args:   req,
	}
}

func NewResetGameCommand(gameID string, req core.ResetRequest) Command {
	return Command{
		Type:   CmdResetGame,
		GameID: gameID,
		Args:   req,
	}
}

func NewUndoMoveCommand(gameID string, req core.UndoRequest) Command {
	return Command{
		Type:   CmdUndoMove,
		GameID: gameID,
		Args:   req,
	}
}

func NewDeleteGameCommand(gameID string) Command {
	return Command{
		Type:   CmdDeleteGame,
		GameID: gameID,
	}
}

func NewGetBoardCommand(gameID string) Command {
	return Command{
		Type:   CmdGetBoard,
		GameID: gameID,
	}
}

func NewHealthCommand() Command {
	return Command{Type: CmdHealth}
}
