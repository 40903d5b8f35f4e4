package vscroll

import (
	"strconv"
	"testing"
	"time"

	"github.com/gdamore/tcell/v3"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestList(t *testing.T, opts ...Option) (*VirtualList[int], fakeClock, *ManualFrames) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	frames := NewManualFrames()
	opts = append([]Option{WithScheduler(frames), WithClock(clock)}, opts...)
	l := NewVirtualList[int](opts...)
	t.Cleanup(l.Stop)
	return l, clock, frames
}

func TestVirtualListMeasuresMountedItems(t *testing.T) {
	l, _, frames := newTestList(t, WithSize(600, 100))
	l.SetItems(rowItems(20, 6))
	l.Start()

	// Before measurement every item counts as the default 20px.
	assert.Equal(t, 400, l.ScrollState().ScrollHeight)
	assert.Equal(t, 1, frames.Pending(), "collection is deferred to the next frame")

	frames.Flush()
	w := l.Window()
	assert.Equal(t, 0, w.Start)
	assert.Equal(t, 3, w.End)
	assert.Equal(t, 7*48+13*20, l.ScrollState().ScrollHeight)
	assert.Equal(t, 7, l.Heights().Len(), "items that left the window keep their height")
}

func TestVirtualListWheel(t *testing.T) {
	l, clock, frames := newTestList(t, WithSize(600, 100))
	var starts, ends int
	l.SetScrollStartFunc(func() { starts++ })
	l.SetScrollEndFunc(func() { ends++ })
	l.SetItems(rowItems(20, 6))
	l.Start()
	frames.FlushAll(10)

	require.True(t, l.HandleWheel(WheelEvent{DeltaY: 100}))
	assert.Equal(t, 0, l.ScrollState().Y, "applied on the next frame")

	frames.FlushAll(10)
	state := l.ScrollState()
	assert.Equal(t, 100, state.Y)
	assert.True(t, state.IsScrolling)
	assert.Equal(t, 1, starts)
	assert.Equal(t, 2, l.Window().Start)
	assert.Equal(t, 96, l.Window().Offset)

	clock.Advance(ScrollingIdleTimeout)
	waitFrame(t, frames)
	state = l.ScrollState()
	assert.Equal(t, 100, state.Y)
	assert.False(t, state.IsScrolling)
	assert.Equal(t, 1, ends)
}

func TestVirtualListWheelBurst(t *testing.T) {
	l, _, frames := newTestList(t, WithSize(600, 100))
	l.SetItems(rowItems(50, 6))
	l.Start()
	frames.FlushAll(10)

	for range 3 {
		l.HandleWheel(WheelEvent{DeltaY: 40})
	}
	frames.FlushAll(10)
	assert.Equal(t, 120, l.ScrollState().Y)

	l.HandleWheel(WheelEvent{DeltaY: -10000})
	frames.FlushAll(10)
	assert.Equal(t, 0, l.ScrollState().Y)
}

func TestVirtualListScrollTo(t *testing.T) {
	l, _, frames := newTestList(t, WithSize(600, 100))
	l.SetItems(rowItems(20, 6))
	l.Start()
	frames.FlushAll(10)

	l.Handle().ScrollTo(ScrollOffset{X: 0, Y: 200})
	assert.Equal(t, 200, l.Handle().ScrollState().Y)

	l.Handle().ScrollTo(ScrollOffset{Y: 1 << 20})
	frames.FlushAll(10)
	state := l.Handle().ScrollState()
	assert.Positive(t, state.Y)
	assert.LessOrEqual(t, state.Y, state.MaxY())

	l.Handle().ScrollTo(ScrollOffset{Y: -5})
	assert.Equal(t, 0, l.Handle().ScrollState().Y)
}

func TestVirtualListResize(t *testing.T) {
	l, _, frames := newTestList(t)
	l.SetItems(rowItems(20, 1))
	l.Start()
	screen := newCaptureScreen(80, 75)

	l.SetRect(0, 0, 80, 0)
	l.Draw(screen)
	frames.FlushAll(10)
	before := l.ScrollState()
	assert.Equal(t, 0, before.ClientHeight)
	assert.Equal(t, 2*8+18*20, before.ScrollHeight)

	l.SetRect(0, 0, 80, 75)
	l.Draw(screen)
	frames.FlushAll(10)
	after := l.ScrollState()
	assert.Equal(t, 600, after.ClientHeight)
	assert.NotEqual(t, before.ScrollHeight, after.ScrollHeight)
	assert.Equal(t, 20*8, after.ScrollHeight)
}

func TestVirtualListOnResize(t *testing.T) {
	l, _, frames := newTestList(t, WithSize(600, 100))
	l.SetItems(rowItems(10, 1))

	var got []ResizeState
	cancel := l.OnResize(func(s ResizeState) { got = append(got, s) })
	require.Len(t, got, 1, "current sizes are delivered right away")
	assert.Equal(t, 600, got[0].ClientWidth)

	l.Start()
	frames.FlushAll(10)
	require.NotEmpty(t, got)
	assert.Equal(t, 80, got[len(got)-1].ScrollHeight)

	cancel()
	n := len(got)
	l.SetItems(rowItems(20, 1))
	frames.FlushAll(10)
	assert.Len(t, got, n)
}

func TestVirtualListSetItemsPrunes(t *testing.T) {
	l, _, frames := newTestList(t, WithSize(600, 600))
	l.SetItems(rowItems(10, 2))
	l.Start()
	frames.FlushAll(10)
	require.Equal(t, 10, l.Heights().Len())

	l.SetItems(rowItems(4, 2))
	assert.Equal(t, 4, l.Heights().Len())
	assert.Equal(t, 4*16, l.ScrollState().ScrollHeight)
}

func TestVirtualListShrinkClampsOffset(t *testing.T) {
	l, _, frames := newTestList(t, WithSize(600, 100))
	l.SetItems(rowItems(20, 6))
	l.Start()
	frames.FlushAll(10)
	l.ScrollTo(ScrollOffset{Y: 1 << 20})
	frames.FlushAll(10)
	require.Positive(t, l.ScrollState().Y)

	l.SetItems(rowItems(3, 6))
	frames.FlushAll(10)
	state := l.ScrollState()
	assert.Equal(t, 3*48, state.ScrollHeight)
	assert.Equal(t, 44, state.Y)
	assert.Equal(t, state.Y, l.native.ScrollTop())
}

func TestVirtualListKeys(t *testing.T) {
	l, _, frames := newTestList(t, WithSize(600, 100))
	l.SetItems(rowItems(20, 6))

	pgdn := tcell.NewEventKey(tcell.KeyPgDn, "", tcell.ModNone)
	assert.Nil(t, l.InputHandler(pgdn), "ignored before Start")

	l.Start()
	frames.FlushAll(10)

	assert.Equal(t, RedrawCommand{}, l.InputHandler(pgdn))
	assert.Equal(t, 100, l.ScrollState().Y)
	assert.True(t, l.ScrollState().IsScrolling)

	l.InputHandler(tcell.NewEventKey(tcell.KeyUp, "", tcell.ModNone))
	assert.Equal(t, 80, l.ScrollState().Y)

	l.InputHandler(tcell.NewEventKey(tcell.KeyEnd, "", tcell.ModNone))
	state := l.ScrollState()
	assert.Equal(t, state.MaxY(), state.Y)

	l.InputHandler(tcell.NewEventKey(tcell.KeyHome, "", tcell.ModNone))
	assert.Equal(t, 0, l.ScrollState().Y)

	assert.Nil(t, l.InputHandler(tcell.NewEventKey(tcell.KeyRune, "x", tcell.ModNone)))
}

func TestVirtualListDraw(t *testing.T) {
	l, _, frames := newTestList(t)
	l.SetItems(rowItems(20, 1))
	l.Start()

	l.SetRect(0, 0, 10, 5)
	l.Draw(newCaptureScreen(10, 5))
	frames.FlushAll(10)

	screen := newCaptureScreen(10, 5)
	l.Draw(screen)
	for row := range 5 {
		assert.Equal(t, strconv.Itoa(row), screen.line(row)[:1], "row %d", row)
	}
	assert.NotContains(t, screen.column(9), "█", "thumb hidden until scrolling")

	l.ScrollTo(ScrollOffset{Y: 16})
	screen = newCaptureScreen(10, 5)
	l.Draw(screen)
	assert.Equal(t, "2", screen.line(0)[:1])
	assert.Contains(t, screen.column(9), "█")
}

func TestVirtualListThumbAutoHide(t *testing.T) {
	l, clock, frames := newTestList(t, WithScrollBarAutoHideTimeout(time.Second))
	l.SetItems(rowItems(40, 1))
	l.Start()
	l.SetRect(0, 0, 10, 5)
	l.Draw(newCaptureScreen(10, 5))
	frames.FlushAll(10)

	l.ScrollTo(ScrollOffset{Y: 8})
	require.True(t, l.ScrollBar().Visible())

	clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		frames.Flush()
		return !l.ScrollBar().Visible()
	}, time.Second, time.Millisecond)
}

func TestVirtualListHiddenScrollBar(t *testing.T) {
	l, _, frames := newTestList(t, WithScrollBarHidden(true))
	l.SetItems(rowItems(40, 1))
	l.Start()
	l.SetRect(0, 0, 10, 5)
	l.Draw(newCaptureScreen(10, 5))
	frames.FlushAll(10)

	l.ScrollTo(ScrollOffset{Y: 8})
	assert.False(t, l.ScrollBar().Visible())
	assert.Equal(t, 10, l.itemWidth(), "no column is reserved")
}

func TestVirtualListThumbDrag(t *testing.T) {
	l, _, frames := newTestList(t)
	l.SetItems(rowItems(40, 1))
	l.Start()
	l.SetRect(0, 0, 10, 5)
	l.Draw(newCaptureScreen(10, 5))
	frames.FlushAll(10)

	// Entering the list shows the thumb.
	_, cmd := l.MouseHandler(MouseMove, tcell.NewEventMouse(3, 3, tcell.ButtonNone, tcell.ModNone))
	assert.NotNil(t, cmd)
	require.True(t, l.ScrollBar().Visible())
	l.Draw(newCaptureScreen(10, 5))

	capture, _ := l.MouseHandler(MouseLeftDown, tcell.NewEventMouse(9, 0, tcell.ButtonPrimary, tcell.ModNone))
	require.NotNil(t, capture, "the thumb captures the mouse")
	assert.True(t, l.ScrollBar().Dragging())

	capture, _ = capture.MouseHandler(MouseMove, tcell.NewEventMouse(9, 2, tcell.ButtonPrimary, tcell.ModNone))
	assert.NotNil(t, capture)
	frames.Flush()
	assert.Positive(t, l.ScrollState().Y)

	capture, _ = capture.MouseHandler(MouseLeftUp, tcell.NewEventMouse(9, 2, tcell.ButtonNone, tcell.ModNone))
	assert.Nil(t, capture)
	assert.False(t, l.ScrollBar().Dragging())
	assert.Zero(t, l.ScrollBar().hub.Listeners())
}

func TestVirtualListMouseWheel(t *testing.T) {
	l, _, frames := newTestList(t, WithWheelDelta(16))
	l.SetItems(rowItems(40, 1))
	l.Start()
	l.SetRect(0, 0, 10, 5)
	l.Draw(newCaptureScreen(10, 5))
	frames.FlushAll(10)

	_, cmd := l.MouseHandler(MouseScrollDown, tcell.NewEventMouse(3, 3, tcell.WheelDown, tcell.ModNone))
	assert.Equal(t, BatchCommand{RedrawCommand{}, ConsumeEventCommand{}}, cmd)
	frames.FlushAll(10)
	assert.Equal(t, 16, l.ScrollState().Y)

	_, cmd = l.MouseHandler(MouseScrollDown, tcell.NewEventMouse(30, 30, tcell.WheelDown, tcell.ModNone))
	assert.Nil(t, cmd, "outside the list")

	// Coming back into the list shows the thumb again.
	_, cmd = l.MouseHandler(MouseLeftDown, tcell.NewEventMouse(2, 1, tcell.ButtonPrimary, tcell.ModNone))
	assert.Equal(t, BatchCommand{RedrawCommand{}, SetFocusCommand{Target: l}}, cmd)
}

func TestVirtualListStop(t *testing.T) {
	l, clock, frames := newTestList(t, WithSize(600, 100))
	var scrolls int
	l.SetScrollFunc(func(ScrollState) { scrolls++ })
	l.SetItems(rowItems(40, 6))
	l.Start()
	l.SetRect(0, 0, 75, 12)
	l.Draw(newCaptureScreen(75, 12))
	frames.FlushAll(10)

	l.ScrollTo(ScrollOffset{Y: 8})
	l.bar.drag.Begin(0, 0)
	l.bar.hub.Dispatch(PointerEvent{Y: 16, Kind: PointerMove})
	l.HandleWheel(WheelEvent{DeltaY: 50})
	l.SetRect(0, 0, 75, 20)
	l.Draw(newCaptureScreen(75, 20))
	require.Positive(t, frames.Pending())

	l.Stop()
	l.Stop()
	assert.Zero(t, frames.Pending(), "pending frames are canceled")
	assert.Zero(t, l.bar.hub.Listeners(), "pointer listeners are released")
	assert.Empty(t, l.mounted)

	before := scrolls
	clock.Advance(time.Minute)
	time.Sleep(10 * time.Millisecond)
	frames.FlushAll(10)
	assert.Equal(t, before, scrolls, "timers are stopped")

	assert.False(t, l.HandleWheel(WheelEvent{DeltaY: 50}))
	l.ScrollTo(ScrollOffset{Y: 100})
	assert.Equal(t, 8, l.ScrollState().Y)
}

// lineItem is a value-type item holding a slice, so interface values of it
// can not be compared.
type lineItem struct {
	*Box
	key   int
	lines []string
}

func (v lineItem) Key() int { return v.key }

func (v lineItem) Height(int) int { return len(v.lines) }

func (v lineItem) Draw(s tcell.Screen) { v.DrawForSubclass(s, v) }

func TestVirtualListValueItems(t *testing.T) {
	l, _, frames := newTestList(t, WithSize(600, 100))
	items := make([]Item[int], 4)
	for i := range items {
		items[i] = lineItem{Box: NewBox(), key: i, lines: make([]string, i+1)}
	}
	require.NotPanics(t, func() {
		l.SetItems(items)
		l.Start()
		frames.FlushAll(10)
	})
	for i := range items {
		height, ok := l.Heights().Get(i)
		require.True(t, ok, "item %d measured", i)
		assert.Equal(t, (i+1)*CellPixels, height)
	}

	// A new value under a known key is remounted and measured again.
	items[0] = lineItem{Box: NewBox(), key: 0, lines: make([]string, 5)}
	require.NotPanics(t, func() {
		l.SetItems(items)
		frames.FlushAll(10)
	})
	height, _ := l.Heights().Get(0)
	assert.Equal(t, 5*CellPixels, height)
	assert.Equal(t, l.revision, l.mounted[0].revision)
}

func TestVirtualListWithoutScheduler(t *testing.T) {
	l := NewVirtualList[int](WithScrollBarAutoHideTimeout(50 * time.Millisecond))
	t.Cleanup(l.Stop)
	var ended int
	l.SetScrollEndFunc(func() { ended++ })
	l.SetItems(rowItems(40, 1))
	l.Start()
	l.SetRect(0, 0, 10, 5)
	l.Draw(newCaptureScreen(10, 5))

	l.ScrollTo(ScrollOffset{Y: 8})
	require.True(t, l.ScrollState().IsScrolling)
	require.True(t, l.ScrollBar().Visible())

	// Expiries wait for the list to be used again on this goroutine.
	deadline := time.Now().Add(2 * time.Second)
	for (l.ScrollState().IsScrolling || l.ScrollBar().Visible()) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.False(t, l.ScrollState().IsScrolling)
	assert.False(t, l.ScrollBar().Visible())
	assert.Equal(t, 1, ended)
	assert.Equal(t, 8, l.ScrollState().Y)
}

func TestVirtualListHoverReset(t *testing.T) {
	l, clock, frames := newTestList(t, WithScrollBarAutoHideTimeout(time.Second))
	l.SetItems(rowItems(40, 1))
	l.Start()
	l.SetRect(0, 0, 10, 5)
	l.Draw(newCaptureScreen(10, 5))
	frames.FlushAll(10)

	move := tcell.NewEventMouse(3, 3, tcell.ButtonNone, tcell.ModNone)
	_, cmd := l.MouseHandler(MouseMove, move)
	assert.Equal(t, RedrawCommand{}, cmd)
	require.True(t, l.ScrollBar().Visible())

	clock.Advance(time.Second)
	waitFrame(t, frames)
	require.False(t, l.ScrollBar().Visible())

	// The pointer left through a container that never routed the exit. The
	// next event inside counts as entering again.
	_, cmd = l.MouseHandler(MouseMove, move)
	assert.Equal(t, RedrawCommand{}, cmd)
	assert.True(t, l.ScrollBar().Visible())

	_, cmd = l.MouseHandler(MouseMove, move)
	assert.Nil(t, cmd, "still hovering")

	l.Blur()
	_, cmd = l.MouseHandler(MouseMove, move)
	assert.Equal(t, RedrawCommand{}, cmd)
}
