package vscroll

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	top    int
	writes int
}

func (f *fakeTarget) ScrollTop() int { return f.top }

func (f *fakeTarget) SetScrollTop(top int) {
	f.top = top
	f.writes++
}

// waitFrame waits until the timer goroutine of a fake clock has queued a
// frame and runs it.
func waitFrame(t *testing.T, frames *ManualFrames) {
	t.Helper()
	require.Eventually(t, func() bool { return frames.Pending() > 0 }, time.Second, time.Millisecond)
	frames.Flush()
}

// fakeClock is the part of clockwork's fake clock the tests use.
type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

func newTestController() (*OffsetController, fakeClock, *ManualFrames) {
	clock := clockwork.NewFakeClock()
	frames := NewManualFrames()
	return NewOffsetController(clock, frames, nil), clock, frames
}

func TestOffsetControllerClamp(t *testing.T) {
	c, _, _ := newTestController()
	c.SetViewport(Size{Width: 600, Height: 100})
	c.SetContentSize(600, 1000)

	for _, requested := range []int{-50, 0, 450, 900, 901, 5000} {
		c.SetOffset(requested)
		y := c.State().Y
		assert.GreaterOrEqual(t, y, 0, "requested %d", requested)
		assert.LessOrEqual(t, y, 900, "requested %d", requested)
	}
	c.SetOffset(5000)
	assert.Equal(t, 900, c.State().Y)

	c.SetOffsetFunc(func(prev int) int { return prev - 100 })
	assert.Equal(t, 800, c.State().Y)
}

func TestOffsetControllerUnknownContent(t *testing.T) {
	c, _, _ := newTestController()
	c.SetViewport(Size{Width: 600, Height: 100})
	assert.Equal(t, -1, c.MaxY())

	c.SetOffset(5000)
	assert.Equal(t, 5000, c.State().Y, "no upper bound before measurement")
	c.SetOffset(-1)
	assert.Equal(t, 0, c.State().Y)

	c.SetOffset(5000)
	c.SetContentSize(600, 1000)
	assert.Equal(t, 900, c.State().Y, "first measurement clamps")
}

func TestOffsetControllerIdle(t *testing.T) {
	c, clock, frames := newTestController()
	var starts, ends int
	c.SetScrollStartFunc(func() { starts++ })
	c.SetScrollEndFunc(func() { ends++ })

	c.SetOffset(10)
	assert.True(t, c.State().IsScrolling)
	c.SetOffset(20)
	assert.Equal(t, 1, starts, "only the idle to scrolling transition starts")

	clock.Advance(ScrollingIdleTimeout - time.Millisecond)
	assert.True(t, c.State().IsScrolling)

	clock.Advance(time.Millisecond)
	waitFrame(t, frames)
	assert.False(t, c.State().IsScrolling)
	assert.Equal(t, 1, ends)

	c.SetOffset(20)
	assert.True(t, c.State().IsScrolling, "setting the same offset still counts")
	assert.Equal(t, 2, starts)
}

func TestOffsetControllerIdleRestarts(t *testing.T) {
	c, clock, frames := newTestController()

	c.SetOffset(10)
	clock.Advance(150 * time.Millisecond)
	c.SetOffset(20)
	clock.Advance(150 * time.Millisecond)
	assert.Zero(t, frames.Pending())
	assert.True(t, c.State().IsScrolling)

	clock.Advance(50 * time.Millisecond)
	waitFrame(t, frames)
	assert.False(t, c.State().IsScrolling)
}

func TestOffsetControllerStaleExpiry(t *testing.T) {
	c, clock, frames := newTestController()

	c.SetOffset(10)
	clock.Advance(ScrollingIdleTimeout)
	require.Eventually(t, func() bool { return frames.Pending() > 0 }, time.Second, time.Millisecond)

	// The offset moves after the expiry was queued but before it runs.
	c.SetOffset(30)
	frames.Flush()
	assert.True(t, c.State().IsScrolling)
}

func TestOffsetControllerNativeSync(t *testing.T) {
	c, _, _ := newTestController()
	target := &fakeTarget{}
	c.SetTarget(target)
	c.SetViewport(Size{Width: 600, Height: 100})
	c.SetContentSize(600, 1000)

	var emitted int
	c.SetScrollFunc(func(ScrollState) { emitted++ })

	c.SetOffset(100)
	assert.Equal(t, 100, target.top)
	assert.Equal(t, 1, target.writes)
	assert.Equal(t, 1, emitted)

	// Our own write coming back is ignored.
	c.OnNativeScroll(100)
	assert.Equal(t, 1, emitted)

	// The target moved on its own.
	target.top = 50
	c.OnNativeScroll(50)
	assert.Equal(t, 50, c.State().Y)
	assert.Equal(t, 1, target.writes, "no write back when already in sync")
	assert.Equal(t, 2, emitted)
}

func TestOffsetControllerShrink(t *testing.T) {
	c, _, _ := newTestController()
	var resizes []ResizeState
	c.SetResizeFunc(func(s ResizeState) { resizes = append(resizes, s) })

	c.SetViewport(Size{Width: 600, Height: 100})
	c.SetContentSize(600, 1000)
	c.SetOffset(900)

	c.SetContentSize(600, 500)
	assert.Equal(t, 400, c.State().Y)
	require.Len(t, resizes, 3)
	assert.Equal(t, ResizeState{ScrollWidth: 600, ScrollHeight: 500, ClientWidth: 600, ClientHeight: 100}, resizes[2])

	c.SetContentSize(600, 500)
	assert.Len(t, resizes, 3, "unchanged sizes are not reported")
}

func TestOffsetControllerStop(t *testing.T) {
	c, clock, frames := newTestController()
	var ends int
	c.SetScrollEndFunc(func() { ends++ })

	c.SetOffset(10)
	c.Stop()
	clock.Advance(time.Second)
	frames.Flush()
	assert.Zero(t, ends)

	c.SetOffset(30)
	assert.Equal(t, 10, c.State().Y)
}

func TestOffsetControllerWithoutScheduler(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewOffsetController(clock, nil, nil)

	var ended int
	c.SetScrollEndFunc(func() { ended++ })
	c.SetOffset(10)
	clock.Advance(ScrollingIdleTimeout)

	// The expiry waits on the controller's own queue until polled.
	require.Eventually(t, func() bool { return c.expired.Pending() > 0 }, time.Second, time.Millisecond)
	assert.True(t, c.State().IsScrolling)
	assert.Zero(t, ended)

	c.Poll()
	assert.False(t, c.State().IsScrolling)
	assert.Equal(t, 1, ended)
}

func TestOffsetControllerRealClockWithoutScheduler(t *testing.T) {
	c := NewOffsetController(nil, nil, nil)
	t.Cleanup(c.Stop)

	var ended int
	c.SetScrollEndFunc(func() { ended++ })
	c.SetOffset(20)

	deadline := time.Now().Add(2 * time.Second)
	for c.State().IsScrolling && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
		c.Poll()
	}
	assert.False(t, c.State().IsScrolling)
	assert.Equal(t, 1, ended)
	assert.Equal(t, 20, c.State().Y)
}
