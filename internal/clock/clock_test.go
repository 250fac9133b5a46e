package clock

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_StartsPausedAtZero(t *testing.T) {
	c := New(clockwork.NewFakeClock())
	assert.Equal(t, 0, c.Remaining())
	assert.False(t, c.Running())
	assert.Nil(t, c.C())
}

func TestClock_Scenarios(t *testing.T) {
	cases := []struct {
		name    string
		start   int
		resume  bool
		ticks   int
		want    int
		running bool
	}{
		{name: "five ticks", start: 300, resume: true, ticks: 5, want: 295, running: true},
		{name: "floored at zero", start: 3, resume: true, ticks: 5, want: 0, running: false},
		{name: "exactly to zero pauses", start: 5, resume: true, ticks: 5, want: 0, running: false},
		{name: "paused ignores ticks", start: 60, resume: false, ticks: 5, want: 60, running: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New(clockwork.NewFakeClock())
			c.SetAuthoritative(tc.start)
			if tc.resume {
				c.Resume()
			}
			for i := 0; i < tc.ticks; i++ {
				c.Tick()
			}
			assert.Equal(t, tc.want, c.Remaining())
			assert.Equal(t, tc.running, c.Running())
		})
	}
}

func TestClock_PauseKeepsRemaining(t *testing.T) {
	c := New(clockwork.NewFakeClock())
	c.SetAuthoritative(90)
	c.Resume()
	c.Tick()
	c.Pause()
	c.Pause()
	c.Tick()
	c.Tick()
	assert.Equal(t, 89, c.Remaining())
	assert.False(t, c.Running())
}

func TestClock_ResumeIdempotent(t *testing.T) {
	c := New(clockwork.NewFakeClock())
	c.SetAuthoritative(10)
	c.Resume()
	ch := c.C()
	c.Resume()
	assert.Equal(t, ch, c.C())
}

func TestClock_SetAuthoritativeCorrectsDrift(t *testing.T) {
	c := New(clockwork.NewFakeClock())
	c.SetAuthoritative(100)
	c.Resume()
	for i := 0; i < 7; i++ {
		c.Tick()
	}
	c.SetAuthoritative(95)
	assert.Equal(t, 95, c.Remaining())
	assert.True(t, c.Running())

	c.SetAuthoritative(-4)
	assert.Equal(t, 0, c.Remaining())
}

func TestClock_TicksFollowInjectedClock(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := New(fc)
	c.SetAuthoritative(10)
	c.Resume()

	for i := 0; i < 3; i++ {
		fc.Advance(time.Second)
		select {
		case <-c.C():
			c.Tick()
		case <-time.After(time.Second):
			t.Fatalf("tick %d did not fire", i)
		}
	}
	require.Equal(t, 7, c.Remaining())

	select {
	case <-c.C():
		t.Fatalf("unexpected tick without advancing the clock")
	default:
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "00:00", Format(0))
	assert.Equal(t, "00:09", Format(9))
	assert.Equal(t, "01:05", Format(65))
	assert.Equal(t, "30:00", Format(1800))
	assert.Equal(t, "00:00", Format(-3))

	c := New(clockwork.NewFakeClock())
	c.SetAuthoritative(125)
	assert.Equal(t, "02:05", c.String())
}
