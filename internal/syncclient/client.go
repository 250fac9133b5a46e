package syncclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"example.com/goban-client/internal/board"
	"example.com/goban-client/internal/clock"
	"example.com/goban-client/internal/interaction"
	"example.com/goban-client/internal/protocol"
	"example.com/goban-client/internal/transport"
)

var (
	ErrDesync         = errors.New("sync: state desync")
	ErrConnectionLost = errors.New("sync: connection lost")
	ErrReadOnly       = errors.New("sync: spectator channel cannot send actions")
)

// Sender is the outbound half of the active channel.
type Sender interface {
	Send(ctx context.Context, msg []byte) error
}

// Client reconciles the local board, clocks and controller with the
// authoritative snapshots and forwards actions produced by the controller.
type Client struct {
	board *board.Board
	black *clock.Clock
	white *clock.Clock
	ctrl  *interaction.Controller
	out   Sender
	log   *slog.Logger

	last   protocol.Snapshot
	seen   bool
	ended  bool
	frozen bool
}

type Deps struct {
	Board      *board.Board
	Black      *clock.Clock
	White      *clock.Clock
	Controller *interaction.Controller
	Out        Sender // nil on the spectator channel
	Log        *slog.Logger
}

func New(d Deps) *Client {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		board: d.Board,
		black: d.Black,
		white: d.White,
		ctrl:  d.Controller,
		out:   d.Out,
		log:   log,
	}
}

func (c *Client) Ended() bool { return c.ended }

// Last returns the most recently applied snapshot.
func (c *Client) Last() (protocol.Snapshot, bool) { return c.last, c.seen }

// HandleMessage decodes and applies one inbound payload.
func (c *Client) HandleMessage(data []byte) error {
	snap, err := protocol.DecodeSnapshot(data)
	if err != nil {
		return c.desync(err)
	}
	return c.Apply(snap)
}

// Apply replaces local state with the snapshot. A malformed snapshot is
// rejected before anything is touched.
func (c *Client) Apply(snap protocol.Snapshot) error {
	if c.frozen {
		return nil
	}
	if c.ended {
		c.log.Debug("snapshot after game end ignored", "turn", snap.Turn)
		return nil
	}
	if err := snap.Validate(); err != nil {
		return c.desync(err)
	}

	c.black.Pause()
	c.white.Pause()

	if snap.BoardSize != c.board.Size() {
		if err := c.board.Resize(snap.BoardSize); err != nil {
			return c.desync(err)
		}
	}
	if err := c.board.ApplySnapshot(snap.Stones(), snap.Moves); err != nil {
		return c.desync(err)
	}
	c.black.SetAuthoritative(snap.BlackTime)
	c.white.SetAuthoritative(snap.WhiteTime)

	c.ctrl.Sync(snap.Turn, snap.Handicap)

	switch snap.Turn {
	case protocol.PhaseWaiting:
		c.black.Resume()
		c.white.Resume()
	case protocol.PhaseHandicap, protocol.PhaseBlack:
		c.black.Resume()
	case protocol.PhaseWhite:
		c.white.Resume()
	case protocol.PhaseEnded:
		c.ended = true
	}

	c.last = snap
	c.seen = true
	c.log.Debug("snapshot applied",
		"turn", snap.Turn,
		"board_size", snap.BoardSize,
		"black_time", snap.BlackTime,
		"white_time", snap.WhiteTime,
		"input_enabled", c.ctrl.InputEnabled())
	return nil
}

// Dispatch serializes an action and hands it to the channel. The next
// snapshot is the acknowledgement.
func (c *Client) Dispatch(ctx context.Context, a protocol.Action) error {
	if c.out == nil {
		return ErrReadOnly
	}
	b, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode action: %w", err)
	}
	if err := c.out.Send(ctx, b); err != nil {
		if errors.Is(err, transport.ErrReadOnly) {
			return ErrReadOnly
		}
		return c.Lost(err)
	}
	c.log.Debug("action sent", "action", a.Kind)
	return nil
}

// Lost freezes the session in its last known state.
func (c *Client) Lost(cause error) error {
	c.freeze()
	if cause == nil {
		return ErrConnectionLost
	}
	return fmt.Errorf("%w: %w", ErrConnectionLost, cause)
}

func (c *Client) desync(cause error) error {
	c.freeze()
	return fmt.Errorf("%w: %w", ErrDesync, cause)
}

func (c *Client) freeze() {
	c.frozen = true
	c.ctrl.Freeze()
	c.black.Pause()
	c.white.Pause()
}
