package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"example.com/goban-client/internal/board"
	"example.com/goban-client/internal/interaction"
	"example.com/goban-client/internal/protocol"
	"example.com/goban-client/internal/session"
)

func moveView() session.View {
	return session.View{
		Color:        board.Black,
		Phase:        protocol.PhaseBlack,
		Mode:         interaction.ModeMove,
		Status:       "Black to play",
		Size:         3,
		Stones:       []board.Stone{board.Black, 0, 0, 0, board.White, 0, 0, 0, 0},
		Moves:        []bool{false, true, true, true, false, true, true, true, true},
		Cursor:       board.Cursor{X: 2, Y: 0, Stone: board.Black, Enabled: true},
		Black:        session.ClockView{Remaining: 120, Running: true},
		White:        session.ClockView{Remaining: 300},
		InputEnabled: true,
		CanPass:      true,
	}
}

func TestFrame_Move(t *testing.T) {
	want := strings.Join([]string{
		"Black to play",
		"You play black",
		"Black 02:00 <   White 05:00  ",
		"",
		"     0  1  2",
		"  0  X  .  *",
		"  1  .  O  .",
		"  2  .  .  .",
		"",
		"[play x y] [pass] [resign]",
		"",
	}, "\n")
	assert.Equal(t, want, Frame(moveView()))
}

func TestFrame_CursorOnlyOnLegalEmpty(t *testing.T) {
	cases := []struct {
		name   string
		x, y   int
		marker bool
	}{
		{name: "legal empty", x: 1, y: 2, marker: true},
		{name: "occupied", x: 0, y: 0},
		{name: "illegal", x: 1, y: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := moveView()
			v.Stones[4] = board.Empty
			v.Cursor.X, v.Cursor.Y = tc.x, tc.y
			if tc.name == "illegal" {
				v.Moves[4] = false
			}
			assert.Equal(t, tc.marker, strings.ContainsRune(Frame(v), glyphCursor))
		})
	}
}

func TestFrame_Handicap(t *testing.T) {
	v := moveView()
	v.Phase = protocol.PhaseHandicap
	v.Mode = interaction.ModeHandicap
	v.Status = "Black to play handicap"
	v.Handicap = 2
	v.Staged = []int{0, 8}
	v.CanPass = false
	v.CanCommit = true
	v.CanReset = true

	assert.Contains(t, Frame(v), "handicap 2/2 [commit] [reset]")
}

func TestFrame_SpectatorEndAndFault(t *testing.T) {
	v := session.View{
		Color:         board.Empty,
		Phase:         protocol.PhaseEnded,
		Mode:          interaction.ModeEnded,
		Status:        "Game over",
		BlackOccupied: true,
		Result:        "White wins by +3",
		Fault:         errors.New("sync: connection lost"),
	}
	out := Frame(v)
	assert.Contains(t, out, "Spectating  black:seated white:open")
	assert.Contains(t, out, "White wins by +3")
	assert.Contains(t, out, "error: sync: connection lost")
	assert.NotContains(t, out, "[pass]")
}

func TestText_SkipsDuplicateFrames(t *testing.T) {
	var buf bytes.Buffer
	r := NewText(&buf, false)

	r.Render(moveView())
	n := buf.Len()
	r.Render(moveView())
	assert.Equal(t, n, buf.Len())

	v := moveView()
	v.Black.Remaining = 119
	r.Render(v)
	assert.Greater(t, buf.Len(), n)
	assert.Contains(t, buf.String(), "01:59")
}
