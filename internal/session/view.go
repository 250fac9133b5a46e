package session

import (
	"example.com/goban-client/internal/board"
	"example.com/goban-client/internal/interaction"
	"example.com/goban-client/internal/protocol"
)

// Renderer draws frames. It receives copies and must not retain pointers
// into the session.
type Renderer interface {
	Render(View)
}

type RendererFunc func(View)

func (f RendererFunc) Render(v View) { f(v) }

type ClockView struct {
	Remaining int
	Running   bool
}

// View is an immutable frame of the session state.
type View struct {
	SessionID string
	Color     board.Stone
	Phase     protocol.Phase
	Mode      interaction.Mode
	Status    string

	Size   int
	Stones []board.Stone
	Moves  []bool
	Cursor board.Cursor
	Staged []int

	Black ClockView
	White ClockView

	InputEnabled bool
	Handicap     int
	CanCommit    bool
	CanReset     bool
	CanPass      bool

	BlackOccupied bool
	WhiteOccupied bool

	// Result is set once the game has ended.
	Result string
	Fault  error
}

// StatusText is the one-line turn banner for a phase.
func StatusText(p protocol.Phase) string {
	switch p {
	case protocol.PhaseWaiting:
		return "Waiting for players"
	case protocol.PhaseHandicap:
		return "Black to play handicap"
	case protocol.PhaseBlack:
		return "Black to play"
	case protocol.PhaseWhite:
		return "White to play"
	case protocol.PhaseEnded:
		return "Game over"
	}
	return ""
}
