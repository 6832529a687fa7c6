// FILE: internal/http/handler.go
package http

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"chessbot/internal/core"
	"chessbot/internal/processor"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const rateLimitRate = 10 // req/sec

type HTTPHandler struct {
	proc *processor.Processor
}

func NewHTTPHandler(proc *processor.Processor) *HTTPHandler {
	return &HTTPHandler{proc: proc}
}

func NewFiberApp(proc *processor.Processor, devMode bool) *fiber.App {
	h := NewHTTPHandler(proc)

	// WriteTimeout leaves room for the long-poll wait
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	})

	// Global middleware (order matters)
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check (no rate limit)
	app.Get("/health", h.Health)

	api := app.Group("/api/v1")

	maxReq := rateLimitRate
	if devMode {
		maxReq = rateLimitRate * 2 // Loosen rate limiter for testing
	}
	api.Use(limiter.New(limiter.Config{
		Max:          maxReq,
		Expiration:   1 * time.Second,
		KeyGenerator: clientKey,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(core.ErrorResponse{
				Error:   "rate limit exceeded",
				Code:    core.ErrCodeRateLimitExceeded,
				Details: fmt.Sprintf("%d requests per second allowed", maxReq),
			})
		},
	}))
	api.Use(contentTypeValidator)
	api.Use(validationMiddleware)

	api.Post("/games", h.CreateGame)
	api.Get("/games/:gameId", h.GetGame)
	api.Delete("/games/:gameId", h.DeleteGame)
	api.Post("/games/:gameId/moves", h.MakeMove)
	api.Put("/games/:gameId/strength", h.SetStrength)
	api.Post("/games/:gameId/reset", h.ResetGame)
	api.Post("/games/:gameId/undo", h.UndoMove)
	api.Get("/games/:gameId/board", h.GetBoard)

	return app
}

// customErrorHandler provides consistent error responses
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	response := core.ErrorResponse{
		Error: "internal server error",
		Code:  core.ErrCodeInternalError,
	}

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		response.Error = e.Message

		switch code {
		case fiber.StatusNotFound:
			response.Code = core.ErrCodeGameNotFound
		case fiber.StatusBadRequest:
			response.Code = core.ErrCodeInvalidRequest
		case fiber.StatusTooManyRequests:
			response.Code = core.ErrCodeRateLimitExceeded
		}
	}

	return c.Status(code).JSON(response)
}

// statusFor maps processor error codes to HTTP status codes
func statusFor(code string) int {
	switch code {
	case core.ErrCodeGameNotFound:
		return fiber.StatusNotFound
	case core.ErrCodeNotHumanTurn, core.ErrCodeGameOver:
		return fiber.StatusConflict
	case core.ErrCodeResourceLimit, core.ErrCodeEngineUnavailable:
		return fiber.StatusServiceUnavailable
	case core.ErrCodeInternalError:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusBadRequest
	}
}

func respond(c *fiber.Ctx, resp processor.ProcessorResponse, okStatus int) error {
	if !resp.Success {
		return c.Status(statusFor(resp.Error.Code)).JSON(resp.Error)
	}
	if resp.Data == nil {
		return c.SendStatus(okStatus)
	}
	return c.Status(okStatus).JSON(resp.Data)
}

// Health check endpoint
func (h *HTTPHandler) Health(c *fiber.Ctx) error {
	resp := h.proc.Execute(c.Context(), processor.NewHealthCommand())
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Unix(),
		"games":  resp.Data,
	})
}

// CreateGame starts a game against the engine
func (h *HTTPHandler) CreateGame(c *fiber.Ctx) error {
	req, err := validatedBody[core.CreateGameRequest](c)
	if err != nil {
		return err
	}
	resp := h.proc.Execute(c.Context(), processor.NewCreateGameCommand(*req))
	return respond(c, resp, fiber.StatusCreated)
}

// GetGame returns the game, optionally long-polling until it changes
func (h *HTTPHandler) GetGame(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}

	if c.Query("wait", "false") != "true" {
		return respond(c, h.proc.Execute(c.Context(), processor.NewGetGameCommand(gameID)), fiber.StatusOK)
	}

	moveCount, err := strconv.Atoi(c.Query("moveCount", "-1"))
	if err != nil {
		moveCount = -1
	}
	resp := h.proc.Execute(c.Context(), processor.NewWaitGameCommand(gameID, moveCount))
	return respond(c, resp, fiber.StatusOK)
}

// MakeMove submits a human move
func (h *HTTPHandler) MakeMove(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}
	req, err := validatedBody[core.MoveRequest](c)
	if err != nil {
		return err
	}
	req.From = strings.ToLower(req.From)
	req.To = strings.ToLower(req.To)
	resp := h.proc.Execute(c.Context(), processor.NewMakeMoveCommand(gameID, *req))
	return respond(c, resp, fiber.StatusOK)
}

// SetStrength changes the engine skill level
func (h *HTTPHandler) SetStrength(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}
	req, err := validatedBody[core.StrengthRequest](c)
	if err != nil {
		return err
	}
	resp := h.proc.Execute(c.Context(), processor.NewSetStrengthCommand(gameID, *req))
	return respond(c, resp, fiber.StatusOK)
}

// ResetGame starts the game over, abandoning any engine search
func (h *HTTPHandler) ResetGame(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}
	req, err := validatedBody[core.ResetRequest](c)
	if err != nil {
		return err
	}
	resp := h.proc.Execute(c.Context(), processor.NewResetGameCommand(gameID, *req))
	return respond(c, resp, fiber.StatusOK)
}

// UndoMove takes back moves until it is the human's turn
func (h *HTTPHandler) UndoMove(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}
	req, err := validatedBody[core.UndoRequest](c)
	if err != nil {
		return err
	}
	resp := h.proc.Execute(c.Context(), processor.NewUndoMoveCommand(gameID, *req))
	return respond(c, resp, fiber.StatusOK)
}

// DeleteGame ends and cleans up a game
func (h *HTTPHandler) DeleteGame(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}
	return respond(c, h.proc.Execute(c.Context(), processor.NewDeleteGameCommand(gameID)), fiber.StatusNoContent)
}

// GetBoard returns ASCII representation of the board
func (h *HTTPHandler) GetBoard(c *fiber.Ctx) error {
	gameID, err := gameIDParam(c)
	if err != nil {
		return err
	}
	return respond(c, h.proc.Execute(c.Context(), processor.NewGetBoardCommand(gameID)), fiber.StatusOK)
}
