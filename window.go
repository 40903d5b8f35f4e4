package vscroll

// VisibleWindow is the range of items a list renders for a scroll offset.
type VisibleWindow struct {
	// ScrollHeight is the height of all items, using the default height for
	// items that were never measured.
	ScrollHeight int
	// Start and End are inclusive item indexes. End includes one buffer item
	// past the last visible one when it exists. End is -1 for an empty list.
	Start int
	End   int
	// Offset is the pixel position of item Start from the top of the content.
	Offset int
}

// Len returns the number of items in the window.
func (w VisibleWindow) Len() int {
	return max(w.End-w.Start+1, 0)
}

// Contains reports whether index i is rendered.
func (w VisibleWindow) Contains(i int) bool {
	return i >= w.Start && i <= w.End
}

// ComputeWindow walks keys in order accumulating item heights and returns the
// window that covers [scrollY, scrollY+viewportHeight]. Items missing from
// heights count as defaultItemHeight. The walk always covers every item so
// ScrollHeight is the full content height.
func ComputeWindow[K comparable](keys []K, heights HeightLookup[K], scrollY, viewportHeight, defaultItemHeight int) VisibleWindow {
	var (
		top      int
		start    = -1
		offset   int
		end      = -1
		endFound bool
	)
	for i, key := range keys {
		height, ok := heights.Get(key)
		if !ok {
			height = defaultItemHeight
		}
		bottom := top + height

		if start < 0 && bottom >= scrollY {
			start = i
			offset = top
		}
		if start >= 0 && !endFound && bottom > scrollY+viewportHeight {
			end = i
			endFound = true
		}
		top = bottom
	}

	last := len(keys) - 1
	if start < 0 {
		// Offset beyond the content, e.g. right after the list shrank.
		start, offset = 0, 0
		end = 0
		if defaultItemHeight > 0 {
			end = ceilDiv(viewportHeight, defaultItemHeight)
		}
		endFound = true
	}
	if !endFound {
		end = last
	}
	// One extra item below the viewport keeps motion smooth.
	end = min(end+1, last)

	return VisibleWindow{
		ScrollHeight: top,
		Start:        start,
		End:          end,
		Offset:       offset,
	}
}

// windowKey is everything a window depends on.
type windowKey struct {
	items         uint64
	version       uint64
	scrollY       int
	viewport      int
	defaultHeight int
}

// windowMemo recomputes the window only when its change token differs from
// the previous call.
type windowMemo[K comparable] struct {
	key    windowKey
	window VisibleWindow
	valid  bool
	// computed counts real computations, for logging and tests.
	computed int
}

func (m *windowMemo[K]) get(key windowKey, keys []K, heights HeightLookup[K]) (VisibleWindow, bool) {
	if m.valid && m.key == key {
		return m.window, false
	}
	m.window = ComputeWindow(keys, heights, key.scrollY, key.viewport, key.defaultHeight)
	m.key = key
	m.valid = true
	m.computed++
	return m.window, true
}
