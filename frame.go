package vscroll

import (
	"slices"
	"sync"
)

// FrameID identifies a callback queued with [FrameScheduler.RequestFrame].
type FrameID uint64

// FrameScheduler runs callbacks on the UI goroutine right before the next
// redraw. RequestFrame may be called from any goroutine; the callbacks always
// run on the UI goroutine, in request order.
//
// [Application] implements FrameScheduler. [ManualFrames] is a scheduler that
// only runs callbacks when flushed, for headless use and tests.
type FrameScheduler interface {
	RequestFrame(fn func()) FrameID
	CancelFrame(id FrameID)
}

// frameQueue is the bookkeeping shared by the schedulers.
type frameQueue struct {
	mu      sync.Mutex
	nextID  FrameID
	pending map[FrameID]func()
}

func (q *frameQueue) add(fn func()) FrameID {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.pending == nil {
		q.pending = make(map[FrameID]func())
	}
	q.nextID++
	q.pending[q.nextID] = fn
	return q.nextID
}

func (q *frameQueue) remove(id FrameID) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}

// take removes and returns every queued callback in request order.
func (q *frameQueue) take() []func() {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	ids := make([]FrameID, 0, len(pending))
	for id := range pending {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(), len(ids))
	for i, id := range ids {
		fns[i] = pending[id]
	}
	return fns
}

func (q *frameQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// ManualFrames is a FrameScheduler whose frames run only when Flush is
// called.
type ManualFrames struct {
	queue frameQueue
}

// NewManualFrames returns an empty manual scheduler.
func NewManualFrames() *ManualFrames {
	return &ManualFrames{}
}

// RequestFrame queues fn for the next Flush.
func (m *ManualFrames) RequestFrame(fn func()) FrameID {
	return m.queue.add(fn)
}

// CancelFrame drops a queued callback. Unknown or already run IDs are ignored.
func (m *ManualFrames) CancelFrame(id FrameID) {
	m.queue.remove(id)
}

// Flush runs the callbacks queued so far. Callbacks requested while flushing
// run on the next Flush. It returns the number of callbacks run.
func (m *ManualFrames) Flush() int {
	fns := m.queue.take()
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// FlushAll flushes until no callbacks are left or limit rounds have run.
func (m *ManualFrames) FlushAll(limit int) {
	for range limit {
		if m.Flush() == 0 {
			return
		}
	}
}

// Pending returns the number of queued callbacks.
func (m *ManualFrames) Pending() int {
	return m.queue.len()
}

// frameSlot holds at most one pending frame for a single source. Scheduling
// cancels the callback that has not fired yet and replaces it. Without a
// scheduler callbacks run synchronously.
type frameSlot struct {
	frames  FrameScheduler
	id      FrameID
	pending bool
}

func (s *frameSlot) schedule(fn func()) {
	s.cancel()
	if s.frames == nil {
		fn()
		return
	}
	var id FrameID
	id = s.frames.RequestFrame(func() {
		if s.pending && s.id == id {
			s.pending = false
		}
		fn()
	})
	s.id = id
	s.pending = true
}

func (s *frameSlot) cancel() {
	if !s.pending {
		return
	}
	s.frames.CancelFrame(s.id)
	s.pending = false
}
