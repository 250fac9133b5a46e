package clock

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

const tickInterval = time.Second

// Clock is a per-player countdown that free-runs between authoritative
// updates. It is not safe for concurrent use; the owning event loop selects
// on C() and calls Tick.
type Clock struct {
	clk       clockwork.Clock
	remaining int
	ticker    clockwork.Ticker
}

func New(clk clockwork.Clock) *Clock {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Clock{clk: clk}
}

// SetAuthoritative overwrites the remaining time with the server's value.
func (c *Clock) SetAuthoritative(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	c.remaining = seconds
}

func (c *Clock) Remaining() int { return c.remaining }

func (c *Clock) Running() bool { return c.ticker != nil }

func (c *Clock) Resume() {
	if c.ticker != nil {
		return
	}
	c.ticker = c.clk.NewTicker(tickInterval)
}

func (c *Clock) Pause() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	c.ticker = nil
}

// C fires once per elapsed second while running; nil while paused, so a
// select on it blocks forever.
func (c *Clock) C() <-chan time.Time {
	if c.ticker == nil {
		return nil
	}
	return c.ticker.Chan()
}

// Tick applies one elapsed second. Reaching zero pauses the clock; timeout
// itself is decided by the server.
func (c *Clock) Tick() {
	if c.ticker == nil {
		return
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 {
		c.Pause()
	}
}

func (c *Clock) String() string {
	return Format(c.remaining)
}

// Format renders seconds as MM:SS.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
