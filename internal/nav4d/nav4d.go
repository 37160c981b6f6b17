// Package nav4d steps through the frames of a 4D series, manually or on a
// timer.
package nav4d

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// DefaultInterval is the autoplay period.
const DefaultInterval = 200 * time.Millisecond

// ErrNotNumeric is returned when an edited frame number cannot be parsed.
var ErrNotNumeric = errors.New("frame is not a number")

// State is the playback state.
type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

// Controller holds the current frame of one series. It is not safe for
// concurrent use; the owner serializes calls, including the clock callback.
type Controller struct {
	frames   int
	frame    int
	state    State
	interval time.Duration
	clock    Clock
	stop     func()
	run      uint64

	editing bool
	field   string

	onChange func(frame int)
}

// New creates a stopped controller at frame 0. A nil clock uses RealClock.
func New(frames int, clock Clock, interval time.Duration) *Controller {
	if clock == nil {
		clock = RealClock{}
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Controller{
		frames:   max(frames, 1),
		clock:    clock,
		interval: interval,
		field:    "0",
	}
}

// OnChange registers fn to run after every local frame change. Frames applied
// with Receive do not trigger it.
func (c *Controller) OnChange(fn func(frame int)) { c.onChange = fn }

func (c *Controller) Frames() int  { return c.frames }
func (c *Controller) Frame() int   { return c.frame }
func (c *Controller) State() State { return c.state }
func (c *Controller) Editing() bool {
	return c.editing
}

// Field is the text of the frame entry field.
func (c *Controller) Field() string { return c.field }

// Toggle flips between Stopped and Playing.
func (c *Controller) Toggle() {
	if c.state == Playing {
		c.Stop()
	} else {
		c.Play()
	}
}

// Play starts the timer. It is a no-op when already playing.
func (c *Controller) Play() {
	if c.state == Playing {
		return
	}
	c.state = Playing
	c.run++
	run := c.run
	c.stop = c.clock.Every(c.interval, func() { c.tick(run) })
}

// Stop cancels the timer.
func (c *Controller) Stop() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	c.state = Stopped
}

// Close stops playback. The controller must not be used afterwards.
func (c *Controller) Close() {
	c.Stop()
	c.onChange = nil
}

// tick ignores callbacks from a timer that has since been stopped, which can
// still arrive when the clock callback is queued behind a Stop.
func (c *Controller) tick(run uint64) {
	if c.state != Playing || run != c.run {
		return
	}
	c.apply((c.frame + 1) % c.frames)
}

// Next advances one frame, saturating at the last.
func (c *Controller) Next() int {
	c.apply(min(c.frame+1, c.frames-1))
	return c.frame
}

// Previous steps back one frame, saturating at 0.
func (c *Controller) Previous() int {
	c.apply(max(c.frame-1, 0))
	return c.frame
}

// Set clamps n into range and makes it current.
func (c *Controller) Set(n int) int {
	c.apply(c.clamp(n))
	return c.frame
}

// Receive applies a frame from a synced peer. Frames the series does not
// have, and the current frame, are ignored.
func (c *Controller) Receive(n int) bool {
	if n < 0 || n >= c.frames || n == c.frame {
		return false
	}
	c.frame = n
	if !c.editing {
		c.field = strconv.Itoa(n)
	}
	return true
}

func (c *Controller) clamp(n int) int {
	return max(0, min(c.frames-1, n))
}

func (c *Controller) apply(n int) {
	changed := n != c.frame
	c.frame = n
	if !c.editing {
		c.field = strconv.Itoa(n)
	}
	if changed && c.onChange != nil {
		c.onChange(n)
	}
}

// BeginEdit opens the frame entry field at the current frame and pauses
// playback.
func (c *Controller) BeginEdit() {
	c.Stop()
	c.editing = true
	c.field = strconv.Itoa(c.frame)
}

// Input replaces the text of the entry field.
func (c *Controller) Input(s string) {
	if c.editing {
		c.field = s
	}
}

// Commit parses the field like a leading integer, clamps it and applies it.
// Unparseable text leaves the frame unchanged, reverts the field and returns
// ErrNotNumeric.
func (c *Controller) Commit() error {
	if !c.editing {
		return nil
	}
	c.editing = false
	n, ok := parseLeadingInt(c.field)
	if !ok {
		c.field = strconv.Itoa(c.frame)
		return ErrNotNumeric
	}
	c.Set(n)
	c.field = strconv.Itoa(c.frame)
	return nil
}

// Cancel closes the entry field and reverts it to the current frame.
func (c *Controller) Cancel() {
	c.editing = false
	c.field = strconv.Itoa(c.frame)
}

// parseLeadingInt reads an optionally signed run of digits after leading
// spaces and ignores whatever follows.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
