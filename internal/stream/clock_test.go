package stream

import (
	"testing"
	"time"

	"github.com/BioHazard786/syncwatch/internal/protocol"
)

type fakeTime struct{ t time.Time }

func (f *fakeTime) now() time.Time          { return f.t }
func (f *fakeTime) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestClock() (*Clock, *fakeTime) {
	ft := &fakeTime{t: time.Unix(1_700_000_000, 0)}
	c := NewClock()
	c.now = ft.now
	return c, ft
}

func TestClock(t *testing.T) {
	c, ft := newTestClock()

	ft.advance(5 * time.Second)
	if got := c.Position(); got != 0 {
		t.Errorf("paused clock moved to %v", got)
	}

	c.Play()
	ft.advance(3 * time.Second)
	if got := c.Position(); got != 3 {
		t.Errorf("position = %v, want 3", got)
	}

	c.Pause()
	ft.advance(10 * time.Second)
	if got := c.Position(); got != 3 {
		t.Errorf("position after pause = %v, want 3", got)
	}

	c.Seek(60)
	c.Apply(protocol.ActionPlay)
	ft.advance(time.Second)
	if got := c.Position(); got != 61 {
		t.Errorf("position = %v, want 61", got)
	}
	if !c.Playing() {
		t.Error("clock not playing")
	}

	c.Apply("rewind")
	if !c.Playing() {
		t.Error("unknown action changed the play state")
	}
}

func TestClockSeekWhilePlaying(t *testing.T) {
	c, ft := newTestClock()
	c.Play()
	ft.advance(4 * time.Second)

	c.Seek(100)
	ft.advance(2 * time.Second)
	if got := c.Position(); got != 102 {
		t.Errorf("position = %v, want 102", got)
	}
}

func TestClockCorrect(t *testing.T) {
	c, ft := newTestClock()
	c.Play()
	ft.advance(10 * time.Second)

	if c.Correct(10.3, 500*time.Millisecond) {
		t.Error("corrected a drift inside the tolerance")
	}
	if !c.Correct(12, 500*time.Millisecond) {
		t.Error("did not correct a 2s drift")
	}
	if got := c.Position(); got != 12 {
		t.Errorf("position = %v, want 12", got)
	}
}
