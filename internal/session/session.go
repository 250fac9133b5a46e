package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"example.com/goban-client/internal/board"
	"example.com/goban-client/internal/clock"
	"example.com/goban-client/internal/interaction"
	"example.com/goban-client/internal/protocol"
	"example.com/goban-client/internal/syncclient"
	"example.com/goban-client/internal/transport"
)

var ErrClosed = errors.New("session: closed")

type Options struct {
	ID       string // generated when empty
	Color    board.Stone
	Clock    clockwork.Clock
	Renderer Renderer
	Log      *slog.Logger

	// OnSnapshot observes every applied snapshot. It runs on the event loop
	// and must not block.
	OnSnapshot func(protocol.Snapshot)
}

// Session is one game view. It owns the board, both clocks, the input
// controller and the sync client; all of them are mutated only from the
// goroutine running Run.
type Session struct {
	id  string
	log *slog.Logger
	tr  transport.Transport

	board *board.Board
	black *clock.Clock
	white *clock.Clock
	ctrl  *interaction.Controller
	sync  *syncclient.Client

	render     Renderer
	onSnapshot func(protocol.Snapshot)

	inputs chan interaction.Input
	done   chan struct{}
	fault  error
}

func New(tr transport.Transport, opts Options) *Session {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("session", id, "color", opts.Color.String())

	b := board.New()
	s := &Session{
		id:         id,
		log:        log,
		tr:         tr,
		board:      b,
		black:      clock.New(opts.Clock),
		white:      clock.New(opts.Clock),
		ctrl:       interaction.New(b, opts.Color),
		render:     opts.Renderer,
		onSnapshot: opts.OnSnapshot,
		inputs:     make(chan interaction.Input, 16),
		done:       make(chan struct{}),
	}
	s.sync = syncclient.New(syncclient.Deps{
		Board:      s.board,
		Black:      s.black,
		White:      s.white,
		Controller: s.ctrl,
		Out:        tr,
		Log:        log,
	})
	return s
}

func (s *Session) ID() string { return s.id }

// Submit queues an input event for the event loop.
func (s *Session) Submit(ctx context.Context, in interaction.Input) error {
	select {
	case s.inputs <- in:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} { return s.done }

// Run processes inbound snapshots, input events and clock ticks one at a
// time until the game ends (nil), the context is cancelled (nil), or a fault
// occurs (ErrDesync or ErrConnectionLost). The transport is closed on return.
func (s *Session) Run(ctx context.Context) error {
	defer s.teardown()

	s.log.Info("session started")
	s.publish()

	msgs := s.tr.Messages()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("session cancelled")
			return nil

		case data, ok := <-msgs:
			if !ok {
				return s.fail(s.sync.Lost(s.tr.Err()))
			}
			if err := s.HandleMessage(data); err != nil {
				return err
			}
			if s.sync.Ended() {
				s.log.Info("game over", "result", s.View().Result)
				return nil
			}

		case in := <-s.inputs:
			if err := s.HandleInput(ctx, in); err != nil {
				return err
			}

		case <-s.black.C():
			s.black.Tick()
			s.publish()

		case <-s.white.C():
			s.white.Tick()
			s.publish()
		}
	}
}

// HandleMessage applies one inbound payload and publishes the result.
func (s *Session) HandleMessage(data []byte) error {
	ignored := s.sync.Ended()
	if err := s.sync.HandleMessage(data); err != nil {
		return s.fail(err)
	}
	if !ignored && s.onSnapshot != nil {
		if snap, ok := s.sync.Last(); ok {
			s.onSnapshot(snap)
		}
	}
	s.publish()
	return nil
}

// HandleInput runs one input event through the controller and forwards any
// resulting action.
func (s *Session) HandleInput(ctx context.Context, in interaction.Input) error {
	action, ok := s.ctrl.Handle(in)
	s.publish()
	if !ok {
		return nil
	}

	err := s.sync.Dispatch(ctx, action)
	switch {
	case err == nil:
		s.log.Info("action sent", "action", action.Kind)
		return nil
	case errors.Is(err, syncclient.ErrReadOnly):
		s.log.Warn("action dropped on read-only channel", "action", action.Kind)
		return nil
	}
	return s.fail(err)
}

// View builds a frame of the current state. Call it from the event loop, or
// before Run has started.
func (s *Session) View() View {
	v := View{
		SessionID:    s.id,
		Color:        s.ctrl.Color(),
		Phase:        s.ctrl.Phase(),
		Mode:         s.ctrl.Mode(),
		Status:       StatusText(s.ctrl.Phase()),
		Size:         s.board.Size(),
		Stones:       s.board.Stones(),
		Moves:        s.board.Moves(),
		Cursor:       s.ctrl.Cursor(),
		Staged:       s.ctrl.Staged(),
		Black:        ClockView{Remaining: s.black.Remaining(), Running: s.black.Running()},
		White:        ClockView{Remaining: s.white.Remaining(), Running: s.white.Running()},
		InputEnabled: s.ctrl.InputEnabled(),
		Handicap:     s.ctrl.HandicapCount(),
		CanCommit:    s.ctrl.CanCommit(),
		CanReset:     s.ctrl.CanReset(),
		CanPass:      s.ctrl.CanPass(),
		Fault:        s.fault,
	}
	if snap, ok := s.sync.Last(); ok {
		v.BlackOccupied = snap.BlackOccupied
		v.WhiteOccupied = snap.WhiteOccupied
		if s.sync.Ended() {
			v.Result = snap.Score().Statement()
		}
	}
	return v
}

func (s *Session) publish() {
	if s.render != nil {
		s.render.Render(s.View())
	}
}

func (s *Session) fail(err error) error {
	s.fault = err
	s.log.Error("session fault", "err", err)
	s.publish()
	return err
}

func (s *Session) teardown() {
	close(s.done)
	s.black.Pause()
	s.white.Pause()
	if err := s.tr.Close(); err != nil {
		s.log.Debug("transport close", "err", err)
	}
}
