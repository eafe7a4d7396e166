package prompter

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.now = c.now.Add(d)
	return c.now
}

// fakeSurface stores offsets exactly unless round is set
type fakeSurface struct {
	top    float64
	height float64
	client float64
	round  bool
	writes int
}

func (s *fakeSurface) ScrollTop() float64 { return s.top }

func (s *fakeSurface) SetScrollTop(offset float64) {
	s.writes++
	if s.round {
		offset = math.Round(offset)
	}
	s.top = offset
}

func (s *fakeSurface) ScrollHeight() float64 { return s.height }
func (s *fakeSurface) ClientHeight() float64 { return s.client }

type engineFixture struct {
	clock   *fakeClock
	frames  *FrameQueue
	surface *fakeSurface
	engine  *Engine
}

func newEngineFixture(maxScroll float64, speed int) *engineFixture {
	f := &engineFixture{
		clock:   newFakeClock(),
		frames:  NewFrameQueue(),
		surface: &fakeSurface{height: maxScroll + 500, client: 500},
	}
	f.engine = NewEngine(f.surface, f.frames, f.clock, EngineConfig{ScrollSpeed: speed})
	return f
}

// frame advances the clock and runs the pending frame step
func (f *engineFixture) frame(d time.Duration) {
	f.frames.Drain(f.clock.Advance(d))
}

func TestEngine_InitialState(t *testing.T) {
	f := newEngineFixture(900, 30)

	assert.Equal(t, StatePaused, f.engine.State())
	assert.Equal(t, 0.0, f.engine.Position())
	assert.Equal(t, 30, f.engine.ScrollSpeed())
	assert.Equal(t, 0, f.frames.Pending())
}

func TestEngine_StepAdvancesByVelocity(t *testing.T) {
	f := newEngineFixture(900, 30)

	f.engine.Play()
	require.Equal(t, StatePlaying, f.engine.State())
	require.Equal(t, 1, f.frames.Pending())

	f.frame(time.Second)

	assert.InDelta(t, 45.0, f.engine.Position(), 1e-9)
	assert.InDelta(t, 45.0, f.surface.ScrollTop(), 1e-9)
	assert.Equal(t, 1, f.frames.Pending(), "next frame should be scheduled")
}

func TestEngine_Monotonic(t *testing.T) {
	f := newEngineFixture(100000, 7)
	f.engine.Play()

	prev := f.engine.Position()
	deltas := []time.Duration{16 * time.Millisecond, 0, 17 * time.Millisecond, 33 * time.Millisecond, 1 * time.Millisecond, 0}
	for i := 0; i < 200; i++ {
		f.frame(deltas[i%len(deltas)])
		pos := f.engine.Position()
		assert.GreaterOrEqual(t, pos, prev)
		prev = pos
	}
	assert.Equal(t, StatePlaying, f.engine.State())
}

func TestEngine_NoDriftOnRoundingSurface(t *testing.T) {
	f := newEngineFixture(100000, 1)
	f.surface.round = true
	f.engine.Play()

	// 1.5 px/s at 60 fps is 0.025 px per frame; a rounding surface alone
	// would never move.
	for i := 0; i < 600; i++ {
		f.frame(time.Second / 60)
	}

	assert.InDelta(t, 15.0, f.engine.Position(), 1e-6)
	assert.Equal(t, 15.0, f.surface.ScrollTop())
}

func TestEngine_SpeedChangeContinuity(t *testing.T) {
	f := newEngineFixture(100000, 30)
	f.engine.Play()
	f.frame(time.Second)
	require.InDelta(t, 45.0, f.engine.Position(), 1e-9)

	f.engine.SetScrollSpeed(60)
	assert.InDelta(t, 45.0, f.engine.Position(), 1e-9, "position must not jump on speed change")
	assert.Equal(t, StatePlaying, f.engine.State())
	assert.Equal(t, 1, f.frames.Pending())

	f.frame(time.Second)
	assert.InDelta(t, 135.0, f.engine.Position(), 1e-9)
}

func TestEngine_ResyncOnResume(t *testing.T) {
	f := newEngineFixture(100000, 30)
	f.engine.Play()
	f.frame(time.Second)
	f.engine.Pause()
	require.InDelta(t, 45.0, f.engine.Position(), 1e-9)

	// Manual scroll while paused
	f.surface.SetScrollTop(300)
	// Time spent paused must not count toward the first delta
	f.clock.Advance(time.Minute)

	f.engine.Play()
	assert.Equal(t, 300.0, f.engine.Position())

	f.frame(500 * time.Millisecond)
	assert.InDelta(t, 322.5, f.engine.Position(), 1e-9)
	assert.InDelta(t, 322.5, f.surface.ScrollTop(), 1e-9)
}

func TestEngine_AutoPauseAtEnd(t *testing.T) {
	f := newEngineFixture(90, 30)

	var transitions []PlaybackState
	f.engine.OnStateChange(func(s PlaybackState) { transitions = append(transitions, s) })

	f.engine.Play()
	f.frame(time.Second) // 45
	require.Equal(t, StatePlaying, f.engine.State())

	f.frame(time.Second) // 90, within tolerance of the end
	assert.Equal(t, StatePaused, f.engine.State())
	assert.Equal(t, 0, f.frames.Pending(), "no frame may be scheduled after auto-pause")
	assert.Equal(t, []PlaybackState{StatePlaying, StatePaused}, transitions)
}

func TestEngine_AutoPauseWithinTolerance(t *testing.T) {
	f := newEngineFixture(45.5, 30)
	f.engine.Play()

	f.frame(time.Second) // 45 >= 45.5 - 1
	assert.Equal(t, StatePaused, f.engine.State())
}

func TestEngine_ExtentShrinksDuringPlayback(t *testing.T) {
	f := newEngineFixture(1000, 30)
	f.engine.Play()
	f.frame(time.Second)
	require.Equal(t, StatePlaying, f.engine.State())

	// Content replaced by something much shorter
	f.surface.height = f.surface.client + 20
	f.frame(16 * time.Millisecond)
	assert.Equal(t, StatePaused, f.engine.State())
}

func TestEngine_ZeroExtent(t *testing.T) {
	f := newEngineFixture(0, 30)

	f.engine.Play()
	require.Equal(t, StatePlaying, f.engine.State())

	f.frame(16 * time.Millisecond)
	assert.Equal(t, StatePaused, f.engine.State())
	assert.Equal(t, 0, f.frames.Pending())

	stats := f.engine.Stats()
	assert.Equal(t, "00:00", stats.TotalTime)
	assert.Equal(t, "00:00", stats.RemainingTime)
}

func TestEngine_NilSurface(t *testing.T) {
	frames := NewFrameQueue()
	clock := newFakeClock()
	e := NewEngine(nil, frames, clock, EngineConfig{ScrollSpeed: 30})

	assert.NotPanics(t, func() {
		e.Play()
		frames.Drain(clock.Advance(time.Second))
	})
	assert.Equal(t, 0, frames.Pending())
	assert.Equal(t, "00:00", e.Stats().TotalTime)
}

func TestEngine_IdempotentPlayPause(t *testing.T) {
	f := newEngineFixture(100000, 30)

	var transitions int
	f.engine.OnStateChange(func(PlaybackState) { transitions++ })

	f.engine.Play()
	f.frame(time.Second)
	f.surface.top = 999 // must not be picked up by a second Play

	f.engine.Play()
	assert.Equal(t, 1, f.frames.Pending(), "second play must not double-schedule")
	assert.InDelta(t, 45.0, f.engine.Position(), 1e-9, "second play must not resync")
	assert.Equal(t, 1, transitions)

	f.engine.Pause()
	f.engine.Pause()
	assert.Equal(t, StatePaused, f.engine.State())
	assert.Equal(t, 0, f.frames.Pending())
	assert.Equal(t, 2, transitions)
}

func TestEngine_PauseCancelsPendingFrame(t *testing.T) {
	f := newEngineFixture(100000, 30)
	f.engine.Play()
	f.engine.Pause()

	writes := f.surface.writes
	f.frame(time.Second)
	assert.Equal(t, writes, f.surface.writes)
	assert.Equal(t, 0.0, f.engine.Position())
}

func TestEngine_Toggle(t *testing.T) {
	f := newEngineFixture(100000, 30)

	f.engine.Toggle()
	assert.Equal(t, StatePlaying, f.engine.State())
	f.engine.Toggle()
	assert.Equal(t, StatePaused, f.engine.State())
}

func TestEngine_NonPositiveSpeed(t *testing.T) {
	f := newEngineFixture(100000, 0)

	f.engine.Play()
	assert.Equal(t, StatePaused, f.engine.State(), "zero speed cannot play")

	f.engine.SetScrollSpeed(30)
	f.engine.Play()
	require.Equal(t, StatePlaying, f.engine.State())

	f.engine.SetScrollSpeed(0)
	assert.Equal(t, StatePaused, f.engine.State())
	assert.Equal(t, 0, f.frames.Pending())
}

func TestEngine_ZeroDeltaDoesNotWrite(t *testing.T) {
	f := newEngineFixture(100000, 30)
	f.engine.Play()

	f.frame(0)
	assert.Equal(t, 0, f.surface.writes)
	assert.Equal(t, 1, f.frames.Pending())
}

func TestEngine_DetachStopsStepping(t *testing.T) {
	f := newEngineFixture(100000, 30)
	f.engine.Play()
	f.engine.Detach()

	assert.Equal(t, 0, f.frames.Pending())
	assert.NotPanics(t, func() { f.frame(time.Second) })
}

func TestFrameQueue_DrainRunsOnlyQueuedBatch(t *testing.T) {
	q := NewFrameQueue()
	var runs int
	var fn FrameFunc
	fn = func(time.Time) {
		runs++
		q.RequestFrame(fn)
	}
	q.RequestFrame(fn)

	q.Drain(time.Now())
	assert.Equal(t, 1, runs)
	assert.Equal(t, 1, q.Pending())
}

func TestFrameQueue_Cancel(t *testing.T) {
	q := NewFrameQueue()
	var ran []int
	q.RequestFrame(func(time.Time) { ran = append(ran, 1) })
	id := q.RequestFrame(func(time.Time) { ran = append(ran, 2) })
	q.RequestFrame(func(time.Time) { ran = append(ran, 3) })

	q.CancelFrame(id)
	q.CancelFrame(FrameID(999))
	q.Drain(time.Now())

	assert.Equal(t, []int{1, 3}, ran)

	q.RequestFrame(func(time.Time) {})
	q.Clear()
	assert.Equal(t, 0, q.Pending())
}
