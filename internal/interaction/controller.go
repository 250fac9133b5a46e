package interaction

import (
	"example.com/goban-client/internal/board"
	"example.com/goban-client/internal/protocol"
)

type Mode int

const (
	ModeSpectating Mode = iota // no local colour
	ModeIdle                   // not our turn, or waiting for confirmation
	ModeHandicap               // black is staging handicap stones
	ModeMove                   // our turn to play, pass or resign
	ModeEnded
)

func (m Mode) String() string {
	switch m {
	case ModeSpectating:
		return "spectating"
	case ModeIdle:
		return "idle"
	case ModeHandicap:
		return "handicap"
	case ModeMove:
		return "move"
	case ModeEnded:
		return "ended"
	}
	return "unknown"
}

// Controller gates local input against the phase announced by the server
// and the legal-move mask of the board. Phase transitions come only from
// Sync; input can only disable itself.
type Controller struct {
	board *board.Board
	color board.Stone

	phase    protocol.Phase
	enabled  bool
	frozen   bool
	handicap int
	staged   []int
	cursor   board.Cursor
}

// New creates a controller for the local colour; board.Empty means spectator.
func New(b *board.Board, color board.Stone) *Controller {
	return &Controller{
		board:  b,
		color:  color,
		phase:  protocol.PhaseWaiting,
		cursor: board.Cursor{Stone: color},
	}
}

func (c *Controller) Color() board.Stone    { return c.color }
func (c *Controller) Phase() protocol.Phase { return c.phase }
func (c *Controller) InputEnabled() bool    { return c.enabled }
func (c *Controller) HandicapCount() int    { return c.handicap }
func (c *Controller) Staged() []int         { return append([]int(nil), c.staged...) }

func (c *Controller) Cursor() board.Cursor {
	cur := c.cursor
	if !c.enabled {
		cur.Enabled = false
	}
	return cur
}

func (c *Controller) Mode() Mode {
	switch {
	case c.phase == protocol.PhaseEnded:
		return ModeEnded
	case c.color == board.Empty:
		return ModeSpectating
	case !c.enabled:
		return ModeIdle
	case c.phase == protocol.PhaseHandicap:
		return ModeHandicap
	default:
		return ModeMove
	}
}

// CanCommit reports whether the handicap commit control is enabled. A
// handicap phase announcing zero stones never enables it.
func (c *Controller) CanCommit() bool {
	return c.Mode() == ModeHandicap && c.handicap > 0 && len(c.staged) == c.handicap
}

func (c *Controller) CanReset() bool {
	return c.Mode() == ModeHandicap && len(c.staged) > 0
}

func (c *Controller) CanPass() bool { return c.Mode() == ModeMove }

// Sync recomputes the phase from an applied snapshot. The staging buffer is
// dropped because the snapshot supersedes any optimistic placement. Ended is
// terminal.
func (c *Controller) Sync(phase protocol.Phase, handicapCount int) {
	if c.phase == protocol.PhaseEnded {
		return
	}
	c.phase = phase
	c.handicap = handicapCount
	c.staged = nil
	c.enabled = !c.frozen && c.solicited(phase)
}

func (c *Controller) solicited(phase protocol.Phase) bool {
	if c.color == board.Empty {
		return false
	}
	switch phase {
	case protocol.PhaseHandicap:
		return c.color == board.Black
	case protocol.PhaseBlack, protocol.PhaseWhite:
		return phase.Mover() == c.color
	}
	return false
}

// Freeze disables input for the rest of the session.
func (c *Controller) Freeze() {
	c.frozen = true
	c.enabled = false
}

// Handle dispatches one input event. The bool result reports whether an
// outbound action was produced. Rejected input is a silent no-op.
func (c *Controller) Handle(in Input) (protocol.Action, bool) {
	switch in := in.(type) {
	case Hover:
		c.cursor.X, c.cursor.Y = in.X, in.Y
		c.cursor.Enabled = true
	case Leave:
		c.cursor.Enabled = false
	case Click:
		return c.click(in.X, in.Y)
	case CommitHandicap:
		return c.commit()
	case ResetHandicap:
		c.reset()
	case Pass:
		return c.finish(protocol.Pass())
	case Resign:
		return c.finish(protocol.Resign())
	}
	return protocol.Action{}, false
}

func (c *Controller) click(x, y int) (protocol.Action, bool) {
	if !c.enabled || !c.board.IsLegal(x, y) || c.board.At(x, y) != board.Empty {
		return protocol.Action{}, false
	}
	index, _ := c.board.Index(x, y)

	switch c.Mode() {
	case ModeHandicap:
		if len(c.staged) >= c.handicap {
			return protocol.Action{}, false
		}
		c.staged = append(c.staged, index)
		c.board.PlaceLocally(x, y, c.color)
		return protocol.Action{}, false
	case ModeMove:
		c.board.PlaceLocally(x, y, c.color)
		c.enabled = false
		return protocol.Play(index), true
	}
	return protocol.Action{}, false
}

func (c *Controller) commit() (protocol.Action, bool) {
	if !c.CanCommit() {
		return protocol.Action{}, false
	}
	a := protocol.Handicap(c.staged)
	c.staged = nil
	c.enabled = false
	return a, true
}

func (c *Controller) reset() {
	if c.Mode() != ModeHandicap {
		return
	}
	for _, i := range c.staged {
		if x, y, ok := c.board.Point(i); ok {
			c.board.PlaceLocally(x, y, board.Empty)
		}
	}
	c.staged = nil
}

func (c *Controller) finish(a protocol.Action) (protocol.Action, bool) {
	if !c.CanPass() {
		return protocol.Action{}, false
	}
	c.enabled = false
	return a, true
}
