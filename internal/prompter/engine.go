// Package prompter implements teleprompter playback: the scroll timing
// engine that turns a speed setting into a smooth scroll position, the
// presentation surfaces it drives, and the sessions that host it.
package prompter

import (
	"time"
)

// PlaybackState represents whether a prompter is scrolling
type PlaybackState string

const (
	// StatePaused indicates the text is stationary (initial state)
	StatePaused PlaybackState = "paused"

	// StatePlaying indicates the text is auto-scrolling
	StatePlaying PlaybackState = "playing"
)

// Surface is the scrollable viewport the engine drives. Offset writes must
// take effect immediately; a surface that eases scroll changes on its own
// would smooth the motion twice.
type Surface interface {
	ScrollTop() float64
	SetScrollTop(offset float64)
	ScrollHeight() float64
	ClientHeight() float64
}

// EngineConfig carries the settings the engine reads
type EngineConfig struct {
	ScrollSpeed int
}

// Engine converts a scroll speed into a drift-free scroll position over
// time. It tracks the position as a float independently of the surface,
// whose own offset may be rounded, so per-frame increments never lose
// sub-pixel progress.
//
// Engine is not safe for concurrent use. Every call, including frame
// callbacks, must come from the same event loop.
type Engine struct {
	surface Surface
	frames  FrameScheduler
	clock   Clock

	scrollSpeed int
	state       PlaybackState

	precisePosition    float64
	lastFrameTimestamp time.Time

	frameID      FrameID
	framePending bool

	stateListeners []func(PlaybackState)
}

// NewEngine creates a paused engine bound to a surface.
func NewEngine(surface Surface, frames FrameScheduler, clock Clock, cfg EngineConfig) *Engine {
	if clock == nil {
		clock = SystemClock
	}
	e := &Engine{
		surface:     surface,
		frames:      frames,
		clock:       clock,
		scrollSpeed: cfg.ScrollSpeed,
		state:       StatePaused,
	}
	if surface != nil {
		e.precisePosition = surface.ScrollTop()
	}
	return e
}

// State returns the current playback state.
func (e *Engine) State() PlaybackState {
	return e.state
}

// Position returns the precise scroll position in pixels.
func (e *Engine) Position() float64 {
	return e.precisePosition
}

// ScrollSpeed returns the current speed setting.
func (e *Engine) ScrollSpeed() int {
	return e.scrollSpeed
}

// OnStateChange registers a listener called after every play/pause
// transition, including auto-pause at the end of the script.
func (e *Engine) OnStateChange(fn func(PlaybackState)) {
	if fn == nil {
		return
	}
	e.stateListeners = append(e.stateListeners, fn)
}

// SetScrollSpeed applies a new speed. Only the next frame's delta uses it;
// the accumulated position is left alone. A non-positive speed stops
// playback.
func (e *Engine) SetScrollSpeed(speed int) {
	e.scrollSpeed = speed
	if speed <= 0 {
		e.Pause()
	}
}

// Play starts scrolling from wherever the surface currently is.
//
// Resync on resume: the precise position is overwritten with the surface's
// actual offset so that scrolling done by hand while paused is honoured,
// and the frame reference time is reset to now so the first delta does not
// include the paused interval. Calling Play while already playing does
// nothing.
func (e *Engine) Play() {
	if e.state == StatePlaying || e.scrollSpeed <= 0 {
		return
	}
	if e.surface != nil {
		e.precisePosition = e.surface.ScrollTop()
	}
	e.lastFrameTimestamp = e.clock.Now()
	e.setState(StatePlaying)
	e.scheduleFrame()
}

// Pause stops scrolling and cancels the pending frame step.
func (e *Engine) Pause() {
	e.cancelFrame()
	if e.state == StatePaused {
		return
	}
	e.setState(StatePaused)
}

// Toggle flips between playing and paused.
func (e *Engine) Toggle() {
	if e.state == StatePlaying {
		e.Pause()
		return
	}
	e.Play()
}

// Detach drops the surface. A frame step that fires afterwards is a no-op.
func (e *Engine) Detach() {
	e.surface = nil
	e.cancelFrame()
}

// Stats computes time estimates from the live surface.
func (e *Engine) Stats() TimeStats {
	var offset float64
	if e.surface != nil {
		offset = e.surface.ScrollTop()
	}
	return ComputeStats(MaxScroll(e.surface), offset, e.scrollSpeed)
}

// step advances the position by one frame.
func (e *Engine) step(ts time.Time) {
	e.framePending = false
	e.frameID = 0

	if e.state != StatePlaying || e.surface == nil {
		return
	}

	deltaTime := ts.Sub(e.lastFrameTimestamp)
	e.lastFrameTimestamp = ts

	if deltaTime > 0 {
		velocity := PixelVelocity(e.scrollSpeed)
		e.precisePosition += velocity * deltaTime.Seconds()
		e.surface.SetScrollTop(e.precisePosition)
	}

	// Content and viewport may have been resized since the last frame
	if e.precisePosition >= MaxScroll(e.surface)-EndTolerance {
		e.Pause()
		return
	}

	e.scheduleFrame()
}

func (e *Engine) scheduleFrame() {
	if e.framePending || e.frames == nil {
		return
	}
	e.frameID = e.frames.RequestFrame(e.step)
	e.framePending = true
}

func (e *Engine) cancelFrame() {
	if !e.framePending {
		return
	}
	e.frames.CancelFrame(e.frameID)
	e.frameID = 0
	e.framePending = false
}

func (e *Engine) setState(state PlaybackState) {
	e.state = state
	for _, fn := range e.stateListeners {
		fn(state)
	}
}
