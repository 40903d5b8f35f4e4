package vscroll

import "log/slog"

// WheelStep caps the delta a single wheel event can scroll, in pixels.
const WheelStep = 360

// WheelEvent is a wheel event in pixels.
type WheelEvent struct {
	DeltaX int
	DeltaY int
	// Shift swaps the axes, so a horizontal wheel scrolls vertically.
	Shift bool
}

// VerticalDelta returns the delta to apply to the vertical offset, clamped to
// ±WheelStep.
func (e WheelEvent) VerticalDelta() int {
	delta := e.DeltaY
	if e.Shift {
		delta = e.DeltaX
	}
	return clamp(delta, -WheelStep, WheelStep)
}

// WheelAdapter batches wheel events into one offset update per frame. Deltas
// received while a frame is pending add up; the pending frame is replaced so
// that the sum is applied exactly once.
type WheelAdapter struct {
	slot    frameSlot
	pending int
	stopped bool

	// collect measures mounted items before the offset moves, so the clamp
	// uses current heights.
	collect func()
	apply   func(delta int)
	logger  *slog.Logger
}

// NewWheelAdapter returns an adapter that calls collect and then apply(delta)
// in a frame.
func NewWheelAdapter(frames FrameScheduler, collect func(), apply func(delta int), logger *slog.Logger) *WheelAdapter {
	if logger == nil {
		logger = Logger
	}
	return &WheelAdapter{
		slot:    frameSlot{frames: frames},
		collect: collect,
		apply:   apply,
		logger:  logger,
	}
}

// Handle consumes event. It returns false only after Stop.
func (a *WheelAdapter) Handle(event WheelEvent) bool {
	if a.stopped {
		return false
	}
	a.pending += event.VerticalDelta()
	a.slot.schedule(a.flush)
	return true
}

func (a *WheelAdapter) flush() {
	if a.stopped {
		return
	}
	delta := a.pending
	a.pending = 0
	if a.collect != nil {
		a.collect()
	}
	if delta == 0 {
		return
	}
	a.logger.Debug("wheel", "delta", delta)
	a.apply(delta)
}

// Pending returns the delta waiting for the next frame.
func (a *WheelAdapter) Pending() int {
	return a.pending
}

// Stop drops the pending frame and delta.
func (a *WheelAdapter) Stop() {
	a.stopped = true
	a.pending = 0
	a.slot.cancel()
}

// ThumbDrag turns pointer motion after a press on the thumb into absolute
// offsets. Pointer listeners are registered only while a drag is active.
type ThumbDrag struct {
	source GlobalPointerSource
	slot   frameSlot
	logger *slog.Logger

	// ranges returns the scroll and thumb travel ranges at the time of the
	// move.
	ranges     func() (enableScrollRange, enableOffsetRange int)
	setOffset  func(y int)
	onStopMove func()

	dragging     bool
	sub          PointerSubscription
	startPointer int
	startTravel  float64
}

// NewThumbDrag returns an idle drag.
func NewThumbDrag(source GlobalPointerSource, frames FrameScheduler, ranges func() (int, int), setOffset func(y int), logger *slog.Logger) *ThumbDrag {
	if logger == nil {
		logger = Logger
	}
	return &ThumbDrag{
		source:    source,
		slot:      frameSlot{frames: frames},
		ranges:    ranges,
		setOffset: setOffset,
		logger:    logger,
	}
}

// SetStopMoveFunc sets the handler called when a drag ends.
func (d *ThumbDrag) SetStopMoveFunc(handler func()) {
	d.onStopMove = handler
}

// Dragging reports whether a drag is active.
func (d *ThumbDrag) Dragging() bool {
	return d.dragging
}

// Begin starts a drag at pointerY with the thumb at travelPosition. A drag
// already in progress is restarted from the new coordinates.
func (d *ThumbDrag) Begin(pointerY int, travelPosition float64) {
	if d.source == nil {
		return
	}
	if d.dragging {
		d.source.Unsubscribe(d.sub)
	}
	d.dragging = true
	d.startPointer = pointerY
	d.startTravel = travelPosition
	d.sub = d.source.Subscribe(d.handle)
	d.logger.Debug("thumb drag begin", "pointer", pointerY, "travel", travelPosition)
}

func (d *ThumbDrag) handle(event PointerEvent) {
	if !d.dragging {
		return
	}
	switch event.Kind {
	case PointerMove:
		d.move(event.Y)
	case PointerUp:
		d.end()
	}
}

func (d *ThumbDrag) move(pointerY int) {
	travel := d.startTravel + float64(pointerY-d.startPointer)
	d.slot.schedule(func() {
		scrollRange, offsetRange := d.ranges()
		d.setOffset(offsetForTravel(travel, scrollRange, offsetRange))
	})
}

func (d *ThumbDrag) end() {
	d.release()
	d.logger.Debug("thumb drag end")
	if d.onStopMove != nil {
		d.onStopMove()
	}
}

func (d *ThumbDrag) release() {
	if !d.dragging {
		return
	}
	d.dragging = false
	d.source.Unsubscribe(d.sub)
	d.sub = 0
}

// Stop ends any drag without calling the stop handler and drops a pending
// move.
func (d *ThumbDrag) Stop() {
	d.release()
	d.slot.cancel()
}
