// FILE: internal/processor/processor.go
package processor

import (
	"context"

	"chessbot/internal/core"
	"chessbot/internal/move"
	"chessbot/internal/orchestrator"
	"chessbot/internal/service"
)

// Processor executes commands from every transport against the session service
type Processor struct {
	svc *service.Service
}

func New(svc *service.Service) *Processor {
	return &Processor{svc: svc}
}

func (p *Processor) Execute(ctx context.Context, cmd Command) ProcessorResponse {
	switch cmd.Type {
	case CmdCreateGame:
		return p.handleCreateGame(ctx, cmd)
	case CmdGetGame:
		return p.handleGetGame(cmd)
	case CmdWaitGame:
		return p.handleWaitGame(ctx, cmd)
	case CmdMakeMove:
		return p.handleMakeMove(cmd)
	case CmdSetStrength:
		return p.handleSetStrength(cmd)
	case CmdResetGame:
		return p.handleResetGame(cmd)
	case CmdUndoMove:
		return p.handleUndoMove(cmd)
	case CmdDeleteGame:
		return p.handleDeleteGame(cmd)
	case CmdGetBoard:
		return p.handleGetBoard(cmd)
	case CmdHealth:
		return ProcessorResponse{Success: true, Data: p.svc.Health()}
	default:
		return p.errorResponse("unknown command", core.ErrCodeInvalidRequest)
	}
}

func (p *Processor) handleCreateGame(ctx context.Context, cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.CreateGameRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrCodeInvalidRequest)
	}
	color, ok := core.ParseColor(args.HumanColor)
	if !ok {
		return p.errorResponse("humanColor must be white or black", core.ErrCodeInvalidRequest)
	}

	sess, err := p.svc.CreateGame(ctx, color, args.Level, args.FEN)
	if err != nil {
		return p.fail(err)
	}
	return p.gameResponse(sess, sess.Orchestrator().View())
}

func (p *Processor) handleGetGame(cmd Command) ProcessorResponse {
	sess, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.fail(err)
	}
	return p.gameResponse(sess, sess.Orchestrator().View())
}

func (p *Processor) handleWaitGame(ctx context.Context, cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(WaitArgs)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrCodeInvalidRequest)
	}
	v, err := p.svc.WaitForChange(ctx, cmd.GameID, args.MoveCount)
	if err != nil {
		return p.fail(err)
	}
	sess, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.fail(err)
	}
	return p.gameResponse(sess, v)
}

func (p *Processor) handleMakeMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.MoveRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrCodeInvalidRequest)
	}
	sess, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.fail(err)
	}

	req := move.Request{From: args.From, To: args.To}
	if args.Promotion != "" {
		kind, ok := core.ParsePromotion(args.Promotion)
		if !ok {
			return p.errorResponse("invalid promotion piece", core.ErrCodeInvalidMove)
		}
		req.Promotion = kind
	}

	if _, err := sess.Orchestrator().SubmitMove(req); err != nil {
		return p.fail(err)
	}
	return p.gameResponse(sess, sess.Orchestrator().View())
}

func (p *Processor) handleSetStrength(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.StrengthRequest)
	if !ok || args.Level == nil {
		return p.errorResponse("invalid arguments", core.ErrCodeInvalidRequest)
	}
	sess, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.fail(err)
	}
	if _, err := sess.Orchestrator().Configure(*args.Level); err != nil {
		return p.fail(err)
	}
	return p.gameResponse(sess, sess.Orchestrator().View())
}

func (p *Processor) handleResetGame(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.ResetRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrCodeInvalidRequest)
	}
	color, ok := core.ParseColor(args.HumanColor)
	if !ok {
		return p.errorResponse("humanColor must be white or black", core.ErrCodeInvalidRequest)
	}
	sess, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.fail(err)
	}
	if err := sess.Orchestrator().Reset(color, args.FEN); err != nil {
		return p.fail(err)
	}
	return p.gameResponse(sess, sess.Orchestrator().View())
}

func (p *Processor) handleUndoMove(cmd Command) ProcessorResponse {
	args, ok := cmd.Args.(core.UndoRequest)
	if !ok {
		return p.errorResponse("invalid arguments", core.ErrCodeInvalidRequest)
	}
	sess, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.fail(err)
	}
	if err := sess.Orchestrator().Undo(args.Count); err != nil {
		if core.Code(err) == core.ErrCodeInternalError {
			return p.errorResponse(err.Error(), core.ErrCodeInvalidRequest)
		}
		return p.fail(err)
	}
	return p.gameResponse(sess, sess.Orchestrator().View())
}

func (p *Processor) handleDeleteGame(cmd Command) ProcessorResponse {
	if err := p.svc.DeleteGame(cmd.GameID); err != nil {
		return p.fail(err)
	}
	return ProcessorResponse{Success: true}
}

func (p *Processor) handleGetBoard(cmd Command) ProcessorResponse {
	sess, err := p.svc.GetGame(cmd.GameID)
	if err != nil {
		return p.fail(err)
	}
	v := sess.Orchestrator().View()
	return ProcessorResponse{
		Success: true,
		Data: core.BoardResponse{
			FEN:   v.FEN,
			Board: v.Board,
		},
	}
}

func (p *Processor) gameResponse(sess *service.Session, v orchestrator.View) ProcessorResponse {
	return ProcessorResponse{
		Success: true,
		Pending: v.EngineSearching,
		Data:    BuildGameResponse(sess.ID, sess.Name, v),
	}
}

// BuildGameResponse converts an orchestrator view into its wire form
func BuildGameResponse(gameID, name string, v orchestrator.View) core.GameResponse {
	resp := core.GameResponse{
		GameID:          gameID,
		Name:            name,
		FEN:             v.FEN,
		Turn:            v.Turn.String(),
		Status:          v.Status.String(),
		Check:           v.Check,
		StatusText:      v.StatusText,
		ResultText:      v.ResultText,
		Phase:           v.Phase.String(),
		HumanColor:      v.HumanColor.String(),
		MoveCount:       v.MoveCount,
		Moves:           v.Moves,
		MovePairs:       make([]core.MovePair, 0, len(v.MovePairs)),
		EngineSearching: v.EngineSearching,
		Degraded:        v.Degraded,
		Engine: core.EngineInfo{
			State: v.EngineState.String(),
			Level: v.Level,
			Depth: v.Depth,
		},
		Captured: core.CapturedResponse{
			White: symbols(v.Captured[core.ColorWhite]),
			Black: symbols(v.Captured[core.ColorBlack]),
		},
	}
	for _, pair := range v.MovePairs {
		resp.MovePairs = append(resp.MovePairs, core.MovePair{Number: pair.Number, White: pair.White, Black: pair.Black})
	}

	if m := v.LastMove; m != nil {
		info := &core.MoveInfo{
			From:        m.From,
			To:          m.To,
			SAN:         m.SAN,
			UCI:         m.UCI,
			Piece:       m.Piece.Kind.Name(),
			Promotion:   m.Promotion.String(),
			PlayerColor: m.Color().String(),
			Check:       m.Check,
			Checkmate:   m.Checkmate,
			Stalemate:   m.Stalemate,
		}
		if m.Captured != nil {
			info.Captured = m.Captured.Kind.Name()
		}
		if r := v.LastResult; r != nil && r.Move == m.UCI {
			info.Score = r.Score
			info.Depth = r.Depth
		}
		resp.LastMove = info
	}
	return resp
}

func symbols(pieces []core.Piece) []string {
	out := make([]string, 0, len(pieces))
	for _, pc := range pieces {
		out = append(out, pc.Symbol())
	}
	return out
}

// fail maps a domain error onto an error response
func (p *Processor) fail(err error) ProcessorResponse {
	return p.errorResponse(err.Error(), core.Code(err))
}

// errorResponse creates error response
func (p *Processor) errorResponse(message, code string) ProcessorResponse {
	return ProcessorResponse{
		Success: false,
		Error: &core.ErrorResponse{
			Error: message,
			Code:  code,
		},
	}
}
