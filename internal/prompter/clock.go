package prompter

import "time"

// Clock provides the time source for frame timestamps. Tests inject a
// fake clock to drive playback deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock with monotonic readings.
var SystemClock Clock = systemClock{}

// FrameID identifies a pending frame request. The zero value never refers
// to a live request.
type FrameID uint64

// FrameFunc is invoked once per display refresh with that frame's timestamp.
type FrameFunc func(ts time.Time)

// FrameScheduler hands out one-shot frame callbacks, the same contract a
// browser's requestAnimationFrame offers.
type FrameScheduler interface {
	RequestFrame(fn FrameFunc) FrameID
	CancelFrame(id FrameID)
}

type frameRequest struct {
	id FrameID
	fn FrameFunc
}

// FrameQueue is a FrameScheduler drained by whoever owns the refresh
// signal (a ticker in a session loop, or a test). It is not safe for
// concurrent use; it belongs to a single event loop.
type FrameQueue struct {
	nextID  FrameID
	pending []frameRequest
}

// NewFrameQueue creates an empty frame queue
func NewFrameQueue() *FrameQueue {
	return &FrameQueue{}
}

// RequestFrame queues fn for the next Drain.
func (q *FrameQueue) RequestFrame(fn FrameFunc) FrameID {
	q.nextID++
	q.pending = append(q.pending, frameRequest{id: q.nextID, fn: fn})
	return q.nextID
}

// CancelFrame removes a pending request. Unknown ids are ignored.
func (q *FrameQueue) CancelFrame(id FrameID) {
	for i, req := range q.pending {
		if req.id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

// Pending returns the number of queued frame callbacks.
func (q *FrameQueue) Pending() int {
	return len(q.pending)
}

// Drain runs every callback queued before the call. Callbacks requested
// while draining wait for the next Drain.
func (q *FrameQueue) Drain(ts time.Time) {
	if len(q.pending) == 0 {
		return
	}
	batch := q.pending
	q.pending = nil
	for _, req := range batch {
		req.fn(ts)
	}
}

// Clear drops every pending callback.
func (q *FrameQueue) Clear() {
	q.pending = nil
}
