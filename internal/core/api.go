// FILE: internal/core/api.go
package core

// Request types

type CreateGameRequest struct {
	HumanColor string `json:"humanColor" validate:"required,oneof=white black w b"`
	Level      *int   `json:"level,omitempty" validate:"omitempty,min=0,max=20"`
	FEN        string `json:"fen,omitempty" validate:"omitempty,max=100"`
}

type MoveRequest struct {
	From      string `json:"from" validate:"required,square"`
	To        string `json:"to" validate:"required,square"`
	Promotion string `json:"promotion,omitempty" validate:"omitempty,oneof=q r b n"`
}

type StrengthRequest struct {
	Level *int `json:"level" validate:"required,min=0,max=20"`
}

type ResetRequest struct {
	HumanColor string `json:"humanColor" validate:"required,oneof=white black w b"`
	FEN        string `json:"fen,omitempty" validate:"omitempty,max=100"`
}

type UndoRequest struct {
	Count int `json:"count" validate:"required,min=1,max=300"` // Max based on longest games in history (272), theoretical max 5949
}

// Response types

type GameResponse struct {
	GameID          string           `json:"gameId"`
	Name            string           `json:"name"`
	FEN             string           `json:"fen"`
	Turn            string           `json:"turn"`   // "w" or "b"
	Status          string           `json:"status"` // "ongoing", "checkmate", ...
	Check           bool             `json:"check"`
	StatusText      string           `json:"statusText"`
	ResultText      string           `json:"resultText,omitempty"`
	Phase           string           `json:"phase"`
	HumanColor      string           `json:"humanColor"`
	MoveCount       int              `json:"moveCount"`
	Moves           []string         `json:"moves"`
	MovePairs       []MovePair       `json:"movePairs"`
	Captured        CapturedResponse `json:"captured"`
	EngineSearching bool             `json:"engineSearching"`
	Degraded        bool             `json:"degraded"`
	Engine          EngineInfo       `json:"engine"`
	LastMove        *MoveInfo        `json:"lastMove,omitempty"`
}

type MovePair struct {
	Number int    `json:"number"`
	White  string `json:"white"`
	Black  string `json:"black,omitempty"`
}

// CapturedResponse lists captured piece glyphs keyed by the color of the captured piece
type CapturedResponse struct {
	White []string `json:"white"`
	Black []string `json:"black"`
}

type EngineInfo struct {
	State string `json:"state"`
	Level int    `json:"level"`
	Depth int    `json:"depth"`
}

type MoveInfo struct {
	From        string `json:"from"`
	To          string `json:"to"`
	SAN         string `json:"san"`
	UCI         string `json:"uci"`
	Piece       string `json:"piece"`
	Captured    string `json:"captured,omitempty"`
	Promotion   string `json:"promotion,omitempty"`
	PlayerColor string `json:"playerColor"` // "w" or "b"
	Check       bool   `json:"check,omitempty"`
	Checkmate   bool   `json:"checkmate,omitempty"`
	Stalemate   bool   `json:"stalemate,omitempty"`
	Score       int    `json:"score,omitempty"`
	Depth       int    `json:"depth,omitempty"`
}

type StrengthResponse struct {
	Level int `json:"level"`
	Depth int `json:"depth"`
}

type BoardResponse struct {
	FEN   string `json:"fen"`
	Board string `json:"board"` // ASCII representation
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
