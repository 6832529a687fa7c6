package core

// Status is the termination classification of a position. Exactly one value holds at a time.
type Status int

const (
	StatusOngoing Status = iota
	StatusCheckmate
	StatusStalemate
	StatusDrawRepetition
	StatusDrawInsufficientMaterial
	StatusDrawOther // fifty-move rule
)

func (s Status) String() string {
	switch s {
	case StatusOngoing:
		return "ongoing"
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	case StatusDrawRepetition:
		return "draw_repetition"
	case StatusDrawInsufficientMaterial:
		return "draw_insufficient_material"
	case StatusDrawOther:
		return "draw_other"
	default:
		return "unknown"
	}
}

func (s Status) Terminal() bool {
	return s != StatusOngoing
}

func (s Status) IsDraw() bool {
	switch s {
	case StatusStalemate, StatusDrawRepetition, StatusDrawInsufficientMaterial, StatusDrawOther:
		return true
	}
	return false
}
