package vscroll

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

// ScrollingIdleTimeout is how long the offset must stay unchanged before a
// list reports that scrolling ended.
const ScrollingIdleTimeout = 200 * time.Millisecond

// ScrollTarget is the native scroll position of the element a list draws
// into. The controller mirrors every synthetic offset into it so that
// scrolling the target by other means stays consistent.
type ScrollTarget interface {
	ScrollTop() int
	SetScrollTop(top int)
}

// OffsetController owns a list's [ScrollState]. It clamps requested offsets,
// keeps the native scroll target in sync, and debounces the scrolling flag.
//
// All methods must be called from the UI goroutine. Idle expiry is delivered
// through the frame scheduler, so it runs there too. Without a scheduler,
// expiries queue until the owner calls [OffsetController.Poll].
type OffsetController struct {
	state ScrollState
	// contentKnown is false until the content height has been measured once;
	// until then offsets are only clamped at 0.
	contentKnown bool

	clock  clockwork.Clock
	frames FrameScheduler
	// expired queues idle expiries when there is no scheduler.
	expired *ManualFrames
	target  ScrollTarget
	logger  *slog.Logger

	idleTimer clockwork.Timer
	// idleGen invalidates expiries that were queued before the latest offset
	// change.
	idleGen uint64
	stopped bool

	scrollStart func()
	scrollEnd   func()
	scroll      func(ScrollState)
	resize      func(ResizeState)
}

// NewOffsetController returns a controller with an idle, zero-sized state.
// A nil clock uses the real clock; with a nil scheduler idle expiry waits for
// the next Poll.
func NewOffsetController(clock clockwork.Clock, frames FrameScheduler, logger *slog.Logger) *OffsetController {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = Logger
	}
	c := &OffsetController{
		clock:  clock,
		frames: frames,
		logger: logger,
	}
	if frames == nil {
		c.expired = NewManualFrames()
	}
	return c
}

// SetTarget sets the native scroll target mirrored on every offset change.
func (c *OffsetController) SetTarget(target ScrollTarget) {
	c.target = target
}

// State returns the current scroll state.
func (c *OffsetController) State() ScrollState {
	return c.state
}

// Poll runs idle expiries queued by the timer when the controller has no
// frame scheduler. It is a no-op otherwise.
func (c *OffsetController) Poll() {
	if c.expired != nil {
		c.expired.Flush()
	}
}

// MaxY returns the largest valid offset, or -1 while the content height is
// unknown.
func (c *OffsetController) MaxY() int {
	if !c.contentKnown {
		return -1
	}
	return c.state.MaxY()
}

func (c *OffsetController) keepInRange(y int) int {
	if c.contentKnown {
		y = min(y, c.state.ScrollHeight-c.state.ClientHeight)
	}
	return max(y, 0)
}

// SetOffset moves to y, clamped to the valid range.
func (c *OffsetController) SetOffset(y int) {
	c.SetOffsetFunc(func(int) int { return y })
}

// SetOffsetFunc moves to fn(previous offset), clamped to the valid range. The
// list is marked as scrolling and the idle timer restarts, even when the
// clamped offset equals the previous one.
func (c *OffsetController) SetOffsetFunc(fn func(prev int) int) {
	if c.stopped {
		return
	}
	requested := fn(c.state.Y)
	y := c.keepInRange(requested)
	if y != requested {
		c.logger.Debug("offset clamped", "requested", requested, "y", y, "max", c.MaxY())
	}
	c.state.Y = y

	started := !c.state.IsScrolling
	c.state.IsScrolling = true

	if c.target != nil && c.target.ScrollTop() != y {
		c.target.SetScrollTop(y)
	}

	if started && c.scrollStart != nil {
		c.scrollStart()
	}
	c.emit()
	c.restartIdle()
}

// SetX stores a horizontal offset.
func (c *OffsetController) SetX(x int) {
	if c.state.X == max(x, 0) {
		return
	}
	c.state.X = max(x, 0)
	c.emit()
}

// OnNativeScroll reconciles a scroll of the native target that did not come
// from this controller, such as the target clamping itself after the content
// shrank. Positions equal to the tracked offset are ignored, which stops the
// controller's own writes from echoing back.
func (c *OffsetController) OnNativeScroll(top int) {
	if top == c.state.Y {
		return
	}
	c.logger.Debug("native scroll fallback", "top", top, "y", c.state.Y)
	c.SetOffset(top)
}

// SetViewport updates the client size and re-clamps the offset.
func (c *OffsetController) SetViewport(size Size) {
	if c.state.ClientWidth == size.Width && c.state.ClientHeight == size.Height {
		return
	}
	c.state.ClientWidth = size.Width
	c.state.ClientHeight = size.Height
	c.sizeChanged()
}

// SetContentSize updates the content size and re-clamps the offset.
func (c *OffsetController) SetContentSize(width, height int) {
	if c.contentKnown && c.state.ScrollWidth == width && c.state.ScrollHeight == height {
		return
	}
	c.contentKnown = true
	c.state.ScrollWidth = width
	c.state.ScrollHeight = height
	c.sizeChanged()
}

func (c *OffsetController) sizeChanged() {
	// A shorter range pulls the offset in without counting as a scroll: the
	// native target clamps itself and reports back through OnNativeScroll.
	if y := c.keepInRange(c.state.Y); y != c.state.Y {
		c.logger.Debug("offset reclamped", "from", c.state.Y, "to", y)
		c.state.Y = y
	}
	if c.resize != nil {
		c.resize(c.state.ResizeState())
	}
	c.emit()
}

func (c *OffsetController) emit() {
	if c.scroll != nil {
		c.scroll(c.state)
	}
}

func (c *OffsetController) restartIdle() {
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
	c.idleGen++
	gen := c.idleGen
	var frames FrameScheduler = c.expired
	if c.frames != nil {
		frames = c.frames
	}
	c.idleTimer = c.clock.AfterFunc(ScrollingIdleTimeout, func() {
		frames.RequestFrame(func() { c.settle(gen) })
	})
}

func (c *OffsetController) settle(gen uint64) {
	if c.stopped || gen != c.idleGen || !c.state.IsScrolling {
		return
	}
	c.state.IsScrolling = false
	if c.scrollEnd != nil {
		c.scrollEnd()
	}
	c.emit()
}

// Stop cancels the idle timer. A stopped controller ignores further offset
// changes.
func (c *OffsetController) Stop() {
	c.stopped = true
	c.idleGen++
	if c.idleTimer != nil {
		c.idleTimer.Stop()
		c.idleTimer = nil
	}
}

// SetScrollStartFunc sets the handler called when the list starts scrolling.
func (c *OffsetController) SetScrollStartFunc(handler func()) {
	c.scrollStart = handler
}

// SetScrollEndFunc sets the handler called when scrolling has been idle for
// ScrollingIdleTimeout.
func (c *OffsetController) SetScrollEndFunc(handler func()) {
	c.scrollEnd = handler
}

// SetScrollFunc sets the handler called with the new state on every change.
func (c *OffsetController) SetScrollFunc(handler func(ScrollState)) {
	c.scroll = handler
}

// SetResizeFunc sets the handler called when the content or viewport size
// changes.
func (c *OffsetController) SetResizeFunc(handler func(ResizeState)) {
	c.resize = handler
}
