package vscroll

import "math"

// ThumbMinLength is the smallest thumb length in pixels, unless the viewport
// is too short to fit it.
const ThumbMinLength = 25

// ThumbGeometry is the derived size and position of a scrollbar thumb.
type ThumbGeometry struct {
	// Length is the thumb length in pixels.
	Length int
	// TravelPosition is the distance of the thumb from the top of the track.
	TravelPosition float64
}

// ComputeLength returns the thumb length ("spin size") for a viewport of
// clientHeight showing scrollHeight of content. The proportional length is
// clamped to [minLength, clientHeight/2] and floored; an empty content height
// yields a proportional length of 0 rather than an infinite one.
func ComputeLength(clientHeight, scrollHeight, minLength int) int {
	if clientHeight <= 0 {
		return 0
	}
	var length float64
	if scrollHeight > 0 {
		length = float64(clientHeight) / float64(scrollHeight) * 100
	}
	length = math.Max(length, float64(minLength))
	length = math.Min(length, float64(clientHeight)/2)
	return int(math.Floor(length))
}

// ScrollRanges returns how far the content can scroll and how far the thumb
// can travel. Both are 0 when there is nothing to scroll.
func ScrollRanges(scrollHeight, clientHeight, thumbLength int) (enableScrollRange, enableOffsetRange int) {
	return max(scrollHeight-clientHeight, 0), max(clientHeight-thumbLength, 0)
}

// ComputeTravelPosition maps a content offset onto the thumb track.
func ComputeTravelPosition(y, enableScrollRange, enableOffsetRange int) float64 {
	if y == 0 || enableScrollRange == 0 {
		return 0
	}
	return float64(y) / float64(enableScrollRange) * float64(enableOffsetRange)
}

// ComputeThumb derives the thumb for a scroll state.
func ComputeThumb(state ScrollState, minLength int) ThumbGeometry {
	length := ComputeLength(state.ClientHeight, state.ScrollHeight, minLength)
	scrollRange, offsetRange := ScrollRanges(state.ScrollHeight, state.ClientHeight, length)
	return ThumbGeometry{
		Length:         length,
		TravelPosition: ComputeTravelPosition(state.Y, scrollRange, offsetRange),
	}
}

// offsetForTravel converts a thumb position back into a content offset,
// rounding up and clamping to [0, enableScrollRange].
func offsetForTravel(travel float64, enableScrollRange, enableOffsetRange int) int {
	var ratio float64
	if enableOffsetRange != 0 {
		ratio = travel / float64(enableOffsetRange)
	}
	y := int(math.Ceil(ratio * float64(enableScrollRange)))
	return clamp(y, 0, enableScrollRange)
}
