package vscroll

// CellPixels is the number of pixels one terminal cell spans on either axis.
// It equals the number of fractional glyph steps the scrollbar can draw per
// cell, so thumb positions map onto glyphs without rounding.
const CellPixels = subcell

// ScrollState is a snapshot of a list's synthetic scroll position and sizes,
// in pixels.
type ScrollState struct {
	// X is the horizontal offset. Horizontal virtualization is not supported,
	// so it is only ever set through ScrollTo.
	X int
	// Y is the synthetic vertical offset, 0 <= Y <= MaxY().
	Y int

	ScrollWidth  int
	ScrollHeight int
	ClientWidth  int
	ClientHeight int

	// IsScrolling is true right after an offset change and resets once the
	// offset has been idle for ScrollingIdleTimeout.
	IsScrolling bool
}

// MaxY returns the largest valid vertical offset.
func (s ScrollState) MaxY() int {
	return max(s.ScrollHeight-s.ClientHeight, 0)
}

// ResizeState returns the size-only subset of the state.
func (s ScrollState) ResizeState() ResizeState {
	return ResizeState{
		ScrollWidth:  s.ScrollWidth,
		ScrollHeight: s.ScrollHeight,
		ClientWidth:  s.ClientWidth,
		ClientHeight: s.ClientHeight,
	}
}

// ResizeState is delivered to OnResize subscribers.
type ResizeState struct {
	ScrollWidth  int
	ScrollHeight int
	ClientWidth  int
	ClientHeight int
}

// ScrollOffset is an absolute scroll target.
type ScrollOffset struct {
	X int
	Y int
}

// Size is a width and height in pixels.
type Size struct {
	Width  int
	Height int
}

// Handle is the imperative surface of a list.
type Handle interface {
	// ScrollTo moves the list to offset. Y is clamped to the valid range.
	ScrollTo(offset ScrollOffset)
	// ScrollState returns the current scroll state.
	ScrollState() ScrollState
	// OnResize calls callback with the current sizes and again whenever the
	// content or viewport size changes. The returned function unsubscribes.
	OnResize(callback func(ResizeState)) (cancel func())
}
