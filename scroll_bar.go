package vscroll

import (
	"log/slog"
	"math"
	"time"

	"github.com/gdamore/tcell/v3"
	"github.com/jonboulle/clockwork"
	"github.com/lucasb-eyer/go-colorful"
)

const subcell = 8

// GlyphSet defines vertical track and fractional thumb glyphs.
type GlyphSet struct {
	TrackVertical string

	ThumbVerticalLower [8]string
	ThumbVerticalUpper [8]string
}

// MinimalGlyphSet returns the minimal glyph set (space track, fractional thumbs).
func MinimalGlyphSet() GlyphSet {
	g := LegacyComputingGlyphSet()
	g.TrackVertical = " "
	return g
}

// LegacyComputingGlyphSet returns legacy-computing symbols for full 1/8 fractional fidelity.
func LegacyComputingGlyphSet() GlyphSet {
	return GlyphSet{
		TrackVertical:      "│",
		ThumbVerticalLower: [8]string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"},
		ThumbVerticalUpper: [8]string{"▔", "🮂", "🮃", "▀", "🮄", "🮅", "🮆", "█"},
	}
}

// UnicodeGlyphSet returns a standard-unicode-only approximation set.
func UnicodeGlyphSet() GlyphSet {
	return GlyphSet{
		TrackVertical:      "│",
		ThumbVerticalLower: [8]string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"},
		ThumbVerticalUpper: [8]string{"▔", "▔", "▀", "▀", "▀", "▀", "█", "█"},
	}
}

// ScrollBar draws the thumb of a [VirtualList] and turns drags on it into
// offsets. The thumb hides itself after a timeout unless it is being dragged.
type ScrollBar struct {
	*Box

	state     ScrollState
	minLength int

	hidden   bool
	autoHide time.Duration
	visible  bool
	clock    clockwork.Clock
	frames   FrameScheduler
	// expired queues hide requests when there is no scheduler.
	expired *ManualFrames
	timer   clockwork.Timer
	// hideGen invalidates hide requests issued before the latest show.
	hideGen uint64

	drag *ThumbDrag
	// onHide is called when the thumb auto-hides.
	onHide func()
	// hub is fed with captured mouse events while dragging. It is nil when the
	// pointer source was supplied by the caller.
	hub *PointerHub

	trackStyle tcell.Style
	thumbStyle tcell.Style
	// dragStyle is thumbStyle lightened, used while the thumb is dragged.
	dragStyle tcell.Style
	glyphSet  GlyphSet
	showTrack bool

	logger *slog.Logger
}

// newScrollBar returns a scrollbar that moves the list through setOffset.
func newScrollBar(cfg Config, setOffset func(y int)) *ScrollBar {
	s := &ScrollBar{
		Box:        NewBox(),
		minLength:  ThumbMinLength,
		hidden:     cfg.ScrollBarHidden,
		autoHide:   cfg.ScrollBarAutoHideTimeout,
		clock:      cfg.Clock,
		frames:     cfg.Scheduler,
		trackStyle: tcell.StyleDefault.Foreground(Styles.ScrollTrackColor).Dim(true),
		thumbStyle: tcell.StyleDefault.Foreground(Styles.ScrollThumbColor),
		glyphSet:   MinimalGlyphSet(),
		showTrack:  true,
		logger:     cfg.Logger,
	}
	source := cfg.Pointer
	if source == nil {
		s.hub = NewPointerHub()
		source = s.hub
	}
	if s.frames == nil {
		s.expired = NewManualFrames()
		s.frames = s.expired
	}
	s.dragStyle = highlight(s.thumbStyle)
	s.drag = NewThumbDrag(source, cfg.Scheduler, s.ranges, setOffset, cfg.Logger)
	s.drag.SetStopMoveFunc(s.ShowTemporarily)
	s.SetDontClear(true)
	return s
}

// SetGlyphSet applies a glyph set.
func (s *ScrollBar) SetGlyphSet(g GlyphSet) *ScrollBar {
	s.glyphSet = g
	return s
}

// SetThumbStyle sets the thumb style. The thumb is drawn lighter while it is
// dragged.
func (s *ScrollBar) SetThumbStyle(style tcell.Style) *ScrollBar {
	s.thumbStyle = style
	s.dragStyle = highlight(style)
	return s
}

// highlight blends the foreground of style towards white. Colors without an
// RGB value, such as the terminal default, are left alone.
func highlight(style tcell.Style) tcell.Style {
	r, g, b := style.GetForeground().RGB()
	if r < 0 || g < 0 || b < 0 {
		return style
	}
	base := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	lr, lg, lb := base.BlendLab(colorful.Color{R: 1, G: 1, B: 1}, 0.35).Clamped().RGB255()
	return style.Foreground(tcell.NewRGBColor(int32(lr), int32(lg), int32(lb)))
}

// SetTrackGlyph sets the track symbol and visibility.
func (s *ScrollBar) SetTrackGlyph(glyph string, visible bool) *ScrollBar {
	s.glyphSet.TrackVertical = glyph
	s.showTrack = visible
	return s
}

// SetTrackStyle sets the track style.
func (s *ScrollBar) SetTrackStyle(style tcell.Style) *ScrollBar {
	s.trackStyle = style
	return s
}

func (s *ScrollBar) setState(state ScrollState) {
	s.state = state
}

// Geometry returns the thumb for the current state.
func (s *ScrollBar) Geometry() ThumbGeometry {
	return ComputeThumb(s.state, s.minLength)
}

func (s *ScrollBar) ranges() (int, int) {
	length := ComputeLength(s.state.ClientHeight, s.state.ScrollHeight, s.minLength)
	return ScrollRanges(s.state.ScrollHeight, s.state.ClientHeight, length)
}

// Visible reports whether the thumb is drawn.
func (s *ScrollBar) Visible() bool {
	if s.hidden || s.state.ScrollHeight <= s.state.ClientHeight {
		return false
	}
	return s.visible || s.drag.Dragging()
}

// Dragging reports whether the thumb is being dragged.
func (s *ScrollBar) Dragging() bool {
	return s.drag.Dragging()
}

// ShowTemporarily shows the thumb and restarts the auto-hide timer.
func (s *ScrollBar) ShowTemporarily() {
	if s.hidden {
		return
	}
	if !s.visible {
		s.visible = true
		s.MarkDirty()
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.hideGen++
	if s.autoHide <= 0 || s.clock == nil {
		return
	}
	gen, frames := s.hideGen, s.frames
	s.timer = s.clock.AfterFunc(s.autoHide, func() {
		frames.RequestFrame(func() { s.hide(gen) })
	})
}

// poll runs hide requests queued while there is no frame scheduler.
func (s *ScrollBar) poll() {
	if s.expired != nil {
		s.expired.Flush()
	}
}

func (s *ScrollBar) hide(gen uint64) {
	if gen != s.hideGen || s.drag.Dragging() {
		return
	}
	s.visible = false
	s.MarkDirty()
	if s.onHide != nil {
		s.onHide()
	}
}

func (s *ScrollBar) setHideFunc(handler func()) {
	s.onHide = handler
}

func (s *ScrollBar) stop() {
	s.drag.Stop()
	s.hideGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

type scrollMetrics struct {
	trackCells int
	trackLen   int
	thumbLen   int
	thumbStart int
}

// metrics maps the thumb geometry onto a track of trackCells cells. Pixels
// and subcells are the same unit, so the geometry is used unscaled.
func (s *ScrollBar) metrics(trackCells int) scrollMetrics {
	if trackCells <= 0 {
		return scrollMetrics{}
	}
	g := s.Geometry()
	trackLen := trackCells * subcell
	thumbLen := min(g.Length, trackLen)
	thumbStart := clamp(int(math.Round(g.TravelPosition)), 0, trackLen-thumbLen)
	return scrollMetrics{trackCells: trackCells, trackLen: trackLen, thumbLen: thumbLen, thumbStart: thumbStart}
}

func cellFill(m scrollMetrics, cellIndex int) (start int, fillLen int) {
	if m.thumbLen == 0 {
		return 0, 0
	}
	cellStart := cellIndex * subcell
	cellEnd := cellStart + subcell
	thumbEnd := m.thumbStart + m.thumbLen
	start = max(m.thumbStart, cellStart)
	end := min(thumbEnd, cellEnd)
	if end <= start {
		return 0, 0
	}
	// Convert absolute subcell coverage into cell-local [start,len] used by fractional glyph selection.
	fillLen = min(end-start, subcell)
	start = min(max(start-cellStart, 0), subcell)
	return start, fillLen
}

func (s *ScrollBar) glyphForVertical(start, fillLen int) (string, tcell.Style) {
	if fillLen <= 0 {
		if !s.showTrack {
			return " ", s.trackStyle
		}
		return s.glyphSet.TrackVertical, s.trackStyle
	}
	if fillLen >= subcell {
		return s.glyphSet.ThumbVerticalLower[7], s.thumbStyle
	}
	ix := fillLen - 1
	if start == 0 {
		return s.glyphSet.ThumbVerticalUpper[ix], s.thumbStyle
	}
	return s.glyphSet.ThumbVerticalLower[ix], s.thumbStyle
}

// Draw draws the track and thumb when visible.
func (s *ScrollBar) Draw(screen tcell.Screen) {
	s.poll()
	s.DrawForSubclass(screen, s)
	s.MarkClean()

	x, y, width, height := s.GetInnerRect()
	if width <= 0 || height <= 0 || !s.Visible() {
		return
	}
	m := s.metrics(height)
	dragging := s.drag.Dragging()
	for cell := range m.trackCells {
		start, fill := cellFill(m, cell)
		glyph, style := s.glyphForVertical(start, fill)
		if dragging && fill > 0 {
			style = s.dragStyle
		}
		for col := range width {
			screen.Put(x+col, y+cell, glyph, style)
		}
	}
}

// onThumb reports whether screen row y shows part of the thumb.
func (s *ScrollBar) onThumb(y int) bool {
	_, top, _, height := s.GetInnerRect()
	_, fill := cellFill(s.metrics(height), y-top)
	return fill > 0
}

// MouseHandler starts drags on the thumb and keeps the mouse captured until
// the button is released. Clicks on the track are swallowed.
func (s *ScrollBar) MouseHandler(action MouseAction, event *tcell.EventMouse) (Primitive, Command) {
	x, y := event.Position()
	pointer := PointerEvent{X: x * CellPixels, Y: y * CellPixels}

	if s.drag.Dragging() {
		switch action {
		case MouseMove:
			pointer.Kind = PointerMove
		case MouseLeftUp:
			pointer.Kind = PointerUp
		default:
			return s, ConsumeEventCommand{}
		}
		if s.hub != nil {
			s.hub.Dispatch(pointer)
		}
		if s.drag.Dragging() {
			return s, RedrawCommand{}
		}
		return nil, RedrawCommand{}
	}

	if !s.InRect(x, y) {
		return nil, nil
	}
	switch action {
	case MouseMove:
		if !s.hidden && s.state.ScrollHeight > s.state.ClientHeight {
			s.ShowTemporarily()
			return nil, RedrawCommand{}
		}
	case MouseLeftDown:
		if !s.Visible() {
			return nil, ConsumeEventCommand{}
		}
		if !s.onThumb(y) {
			return nil, ConsumeEventCommand{}
		}
		s.ShowTemporarily()
		s.drag.Begin(pointer.Y, s.Geometry().TravelPosition)
		return s, RedrawCommand{}
	case MouseLeftUp, MouseLeftClick, MouseLeftDoubleClick:
		return nil, ConsumeEventCommand{}
	}
	return nil, nil
}

var _ Primitive = &ScrollBar{}
