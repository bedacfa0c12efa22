package stream

import (
	"sync"
	"time"

	"github.com/BioHazard786/syncwatch/internal/protocol"
)

// Clock is a local playback position that advances while playing.
type Clock struct {
	mu      sync.Mutex
	playing bool
	base    float64
	since   time.Time
	now     func() time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Position returns the current position in seconds.
func (c *Clock) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position()
}

func (c *Clock) position() float64 {
	if !c.playing {
		return c.base
	}
	return c.base + c.now().Sub(c.since).Seconds()
}

func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

func (c *Clock) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		return
	}
	c.since = c.now()
	c.playing = true
}

func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = c.position()
	c.playing = false
}

// Seek jumps to t seconds without changing the play state.
func (c *Clock) Seek(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = t
	c.since = c.now()
}

// Apply handles a play-pause action. Unknown actions are ignored.
func (c *Clock) Apply(action string) {
	switch action {
	case protocol.ActionPlay:
		c.Play()
	case protocol.ActionPause:
		c.Pause()
	}
}

// Correct seeks to remote when the local position drifted by more than
// tolerance, and reports whether it did.
func (c *Clock) Correct(remote float64, tolerance time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	drift := remote - c.position()
	if drift < 0 {
		drift = -drift
	}
	if drift <= tolerance.Seconds() {
		return false
	}
	c.base = remote
	c.since = c.now()
	return true
}
