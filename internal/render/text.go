// Package render draws session views as plain text frames for a terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"example.com/goban-client/internal/board"
	"example.com/goban-client/internal/clock"
	"example.com/goban-client/internal/interaction"
	"example.com/goban-client/internal/session"
)

const (
	glyphEmpty  = '.'
	glyphBlack  = 'X'
	glyphWhite  = 'O'
	glyphCursor = '*'

	clearScreen = "\x1b[H\x1b[2J"
)

// Text writes one frame per view. Coordinates are zero-based and match the
// ones accepted by the console input.
type Text struct {
	mu    sync.Mutex
	w     io.Writer
	clear bool
	last  string
}

// NewText renders to w. With clear set each frame starts by clearing the
// screen.
func NewText(w io.Writer, clear bool) *Text {
	return &Text{w: w, clear: clear}
}

// Render skips frames identical to the previous one.
func (t *Text) Render(v session.View) {
	frame := Frame(v)

	t.mu.Lock()
	defer t.mu.Unlock()
	if frame == t.last {
		return
	}
	t.last = frame
	if t.clear {
		frame = clearScreen + frame
	}
	_, _ = io.WriteString(t.w, frame)
}

// Frame formats a view.
func Frame(v session.View) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", v.Status)
	writeSeats(&b, v)
	fmt.Fprintf(&b, "Black %s   White %s\n", clockText(v.Black), clockText(v.White))

	if v.Size > 0 {
		b.WriteByte('\n')
		writeBoard(&b, v)
	}

	if c := controls(v); c != "" {
		fmt.Fprintf(&b, "\n%s\n", c)
	}
	if v.Result != "" {
		fmt.Fprintf(&b, "\n%s\n", v.Result)
	}
	if v.Fault != nil {
		fmt.Fprintf(&b, "\nerror: %v\n", v.Fault)
	}
	return b.String()
}

func writeSeats(b *strings.Builder, v session.View) {
	if v.Color != board.Empty {
		fmt.Fprintf(b, "You play %s\n", v.Color)
		return
	}
	fmt.Fprintf(b, "Spectating  black:%s white:%s\n", seat(v.BlackOccupied), seat(v.WhiteOccupied))
}

func seat(occupied bool) string {
	if occupied {
		return "seated"
	}
	return "open"
}

func clockText(c session.ClockView) string {
	s := clock.Format(c.Remaining)
	if c.Running {
		return s + " <"
	}
	return s + "  "
}

func writeBoard(b *strings.Builder, v session.View) {
	b.WriteString("   ")
	for x := 0; x < v.Size; x++ {
		fmt.Fprintf(b, "%3d", x)
	}
	b.WriteByte('\n')

	for y := 0; y < v.Size; y++ {
		fmt.Fprintf(b, "%3d", y)
		for x := 0; x < v.Size; x++ {
			fmt.Fprintf(b, "  %c", glyph(v, x, y))
		}
		b.WriteByte('\n')
	}
}

func glyph(v session.View, x, y int) rune {
	i := v.Size*y + x
	if i < 0 || i >= len(v.Stones) {
		return glyphEmpty
	}
	switch v.Stones[i] {
	case board.Black:
		return glyphBlack
	case board.White:
		return glyphWhite
	}
	// the ghost stone only shows where a click would be accepted
	if v.Cursor.Enabled && v.Cursor.X == x && v.Cursor.Y == y && i < len(v.Moves) && v.Moves[i] {
		return glyphCursor
	}
	return glyphEmpty
}

func controls(v session.View) string {
	if !v.InputEnabled {
		return ""
	}
	var parts []string
	if v.Mode == interaction.ModeHandicap {
		parts = append(parts, fmt.Sprintf("handicap %d/%d", len(v.Staged), v.Handicap))
	}
	if v.CanCommit {
		parts = append(parts, "[commit]")
	}
	if v.CanReset {
		parts = append(parts, "[reset]")
	}
	if v.CanPass {
		parts = append(parts, "[play x y]", "[pass]", "[resign]")
	}
	return strings.Join(parts, " ")
}
