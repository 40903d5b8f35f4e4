package vscroll

// ResizeWatcher reports viewport size changes, at most once per frame. Only
// the latest size observed before the frame runs is delivered.
type ResizeWatcher struct {
	slot     frameSlot
	onResize func(Size)

	last     Size
	observed bool
	stopped  bool
}

// NewResizeWatcher returns a watcher delivering sizes to onResize through
// frames. A nil scheduler delivers them synchronously.
func NewResizeWatcher(frames FrameScheduler, onResize func(Size)) *ResizeWatcher {
	return &ResizeWatcher{
		slot:     frameSlot{frames: frames},
		onResize: onResize,
	}
}

// Observe records the current viewport size.
func (w *ResizeWatcher) Observe(size Size) {
	if w.stopped || (w.observed && size == w.last) {
		return
	}
	w.observed = true
	w.last = size
	w.slot.schedule(func() {
		if w.stopped || w.onResize == nil {
			return
		}
		w.onResize(w.last)
	})
}

// Size returns the last observed size and whether any was observed.
func (w *ResizeWatcher) Size() (Size, bool) {
	return w.last, w.observed
}

// Stop cancels a pending delivery. Later observations are ignored.
func (w *ResizeWatcher) Stop() {
	w.stopped = true
	w.slot.cancel()
}
