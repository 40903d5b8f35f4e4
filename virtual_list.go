package vscroll

import (
	"log/slog"

	"github.com/gdamore/tcell/v3"
	"github.com/rivo/uniseg"

	"github.com/xqrs/vscroll/keybind"
)

// VirtualList displays a list of items of varying height, but only keeps the
// items around the viewport mounted. Item heights are measured lazily when an
// item is first mounted; items never mounted count as the configured default
// height.
//
// The list tracks its own scroll offset in pixels (see [CellPixels]) and draws
// a thumb that can be dragged. Call Start before routing events to the list
// and Stop when it is removed from the screen.
type VirtualList[K comparable] struct {
	*Box

	cfg    Config
	logger *slog.Logger

	items    []Item[K]
	keys     []K
	revision uint64

	heights *HeightCache[K]
	memo    windowMemo[K]
	window  VisibleWindow
	mounted map[K]*mountedItem[K]
	// collect is the deferred height collection after new items mount.
	collect frameSlot

	offset *OffsetController
	resize *ResizeWatcher
	wheel  *WheelAdapter
	bar    *ScrollBar
	native nativeViewport

	// viewport is the last delivered viewport size in pixels.
	viewport Size
	lastY    int
	hovered  bool

	started bool
	stopped bool

	resizeSubs map[int]func(ResizeState)
	nextSub    int
	scroll     func(ScrollState)
}

// mountedItem is an item inside the rendered window.
type mountedItem[K comparable] struct {
	item Item[K]
	// revision is the list revision the item was mounted at.
	revision uint64
	width    int
	attached bool
}

// OffsetHeight measures the item at its current width.
func (m *mountedItem[K]) OffsetHeight() (int, bool) {
	if !m.attached || m.width <= 0 {
		return 0, false
	}
	return max(m.item.Height(m.width), 0) * CellPixels, true
}

// NewVirtualList returns an empty list.
func NewVirtualList[K comparable](opts ...Option) *VirtualList[K] {
	cfg := newConfig(opts)
	l := &VirtualList[K]{
		Box:        NewBox(),
		cfg:        cfg,
		logger:     cfg.Logger,
		heights:    NewHeightCache[K](),
		mounted:    make(map[K]*mountedItem[K]),
		collect:    frameSlot{frames: cfg.Scheduler},
		viewport:   Size{Width: cfg.Width, Height: cfg.Height},
		resizeSubs: make(map[int]func(ResizeState)),
	}
	l.offset = NewOffsetController(cfg.Clock, cfg.Scheduler, cfg.Logger)
	l.resize = NewResizeWatcher(cfg.Scheduler, l.applyViewport)
	l.wheel = NewWheelAdapter(cfg.Scheduler, l.collectNow, l.scrollBy, cfg.Logger)
	l.bar = newScrollBar(cfg, l.setOffset)
	l.bar.setHideFunc(l.unhover)

	l.offset.SetScrollFunc(l.scrolled)
	l.offset.SetResizeFunc(l.resized)
	l.offset.SetViewport(l.viewport)
	l.native = nativeViewport{max: -1, onScroll: l.offset.OnNativeScroll}
	return l
}

// SetItems replaces the items. Keys must be unique. Cached heights of keys no
// longer present are dropped.
func (l *VirtualList[K]) SetItems(items []Item[K]) *VirtualList[K] {
	l.items = items
	l.keys = make([]K, len(items))
	present := make(map[K]struct{}, len(items))
	for i, item := range items {
		l.keys[i] = item.Key()
		present[l.keys[i]] = struct{}{}
	}
	l.revision++
	if n := l.heights.Prune(func(key K) bool {
		_, ok := present[key]
		return ok
	}); n > 0 {
		l.logger.Debug("pruned heights", "removed", n, "items", len(items))
	}
	if l.active() {
		l.layout()
	}
	l.MarkDirty()
	return l
}

// ItemCount returns the number of items.
func (l *VirtualList[K]) ItemCount() int {
	return len(l.items)
}

// Start enables input handling, resize observation and height collection,
// and lays out the initial window.
func (l *VirtualList[K]) Start() {
	if l.started || l.stopped {
		return
	}
	l.started = true
	l.native.top = l.offset.State().Y
	l.offset.SetTarget(&l.native)
	l.logger.Debug("virtual list started", "items", len(l.items), "viewport", l.viewport)
	l.layout()
}

// Stop releases every timer, pending frame and pointer subscription of the
// list. A stopped list ignores input and can not be restarted.
func (l *VirtualList[K]) Stop() {
	if l.stopped {
		return
	}
	l.stopped = true
	l.resize.Stop()
	l.wheel.Stop()
	l.bar.stop()
	l.offset.Stop()
	l.offset.SetTarget(nil)
	l.collect.cancel()
	l.native.onScroll = nil
	clear(l.resizeSubs)
	for key, m := range l.mounted {
		m.attached = false
		delete(l.mounted, key)
	}
	l.logger.Debug("virtual list stopped")
}

func (l *VirtualList[K]) active() bool {
	return l.started && !l.stopped
}

// poll runs timer expiries that are queued on the list itself because no
// frame scheduler was configured.
func (l *VirtualList[K]) poll() {
	if l.stopped {
		return
	}
	l.offset.Poll()
	l.bar.poll()
}

// unhover forgets that the pointer is over the list, so that the next pointer
// event inside it shows the thumb again. Containers only route events that
// fall inside a child, so leaving is otherwise never observed.
func (l *VirtualList[K]) unhover() {
	l.hovered = false
}

// Blur is called when the list loses focus.
func (l *VirtualList[K]) Blur() {
	l.unhover()
	l.Box.Blur()
}

// Window returns the window computed by the last layout.
func (l *VirtualList[K]) Window() VisibleWindow {
	return l.window
}

// Heights returns the height cache.
func (l *VirtualList[K]) Heights() *HeightCache[K] {
	return l.heights
}

// ScrollBar returns the thumb widget, for styling.
func (l *VirtualList[K]) ScrollBar() *ScrollBar {
	return l.bar
}

// Handle returns the imperative surface of the list.
func (l *VirtualList[K]) Handle() Handle {
	return l
}

// ScrollTo moves the list to offset.
func (l *VirtualList[K]) ScrollTo(offset ScrollOffset) {
	if l.stopped {
		return
	}
	l.poll()
	l.offset.SetX(offset.X)
	l.offset.SetOffset(offset.Y)
	if l.started {
		l.layout()
	}
}

// ScrollState returns the current scroll state.
func (l *VirtualList[K]) ScrollState() ScrollState {
	l.poll()
	return l.offset.State()
}

// OnResize calls callback with the current sizes right away and again
// whenever they change.
func (l *VirtualList[K]) OnResize(callback func(ResizeState)) (cancel func()) {
	if l.stopped || callback == nil {
		return func() {}
	}
	l.nextSub++
	id := l.nextSub
	l.resizeSubs[id] = callback
	callback(l.offset.State().ResizeState())
	return func() {
		delete(l.resizeSubs, id)
	}
}

// SetScrollStartFunc sets the handler called when the list starts scrolling.
func (l *VirtualList[K]) SetScrollStartFunc(handler func()) *VirtualList[K] {
	l.offset.SetScrollStartFunc(handler)
	return l
}

// SetScrollEndFunc sets the handler called once the offset has not changed
// for ScrollingIdleTimeout.
func (l *VirtualList[K]) SetScrollEndFunc(handler func()) *VirtualList[K] {
	l.offset.SetScrollEndFunc(handler)
	return l
}

// SetScrollFunc sets the handler called with the new state on every change.
func (l *VirtualList[K]) SetScrollFunc(handler func(ScrollState)) *VirtualList[K] {
	l.scroll = handler
	return l
}

func (l *VirtualList[K]) scrolled(state ScrollState) {
	l.bar.setState(state)
	if state.Y != l.lastY {
		l.lastY = state.Y
		l.bar.ShowTemporarily()
	}
	l.MarkDirty()
	if l.scroll != nil {
		l.scroll(state)
	}
}

func (l *VirtualList[K]) resized(state ResizeState) {
	for _, callback := range l.resizeSubs {
		callback(state)
	}
}

func (l *VirtualList[K]) scrollBy(delta int) {
	l.offset.SetOffsetFunc(func(prev int) int { return prev + delta })
	l.layout()
}

func (l *VirtualList[K]) setOffset(y int) {
	l.offset.SetOffset(y)
	l.layout()
}

// HandleWheel scrolls by a wheel event on the next frame. It reports whether
// the event was consumed.
func (l *VirtualList[K]) HandleWheel(event WheelEvent) bool {
	if !l.active() {
		return false
	}
	l.poll()
	return l.wheel.Handle(event)
}

// barColumns returns the number of columns reserved for the thumb.
func (l *VirtualList[K]) barColumns() int {
	if l.cfg.ScrollBarHidden {
		return 0
	}
	return ceilDiv(l.cfg.ScrollBarSize, CellPixels)
}

// itemWidth returns the width in columns items are laid out at.
func (l *VirtualList[K]) itemWidth() int {
	return max(l.viewport.Width/CellPixels-l.barColumns(), 0)
}

func (l *VirtualList[K]) applyViewport(size Size) {
	if l.stopped {
		return
	}
	l.logger.Debug("viewport resized", "from", l.viewport, "to", size)
	l.viewport = size
	l.offset.SetViewport(size)
	l.layout()
	// Widths changed, so every mounted height may be stale.
	l.collectNow()
}

// collectNow measures the mounted items and relayouts when a height changed.
func (l *VirtualList[K]) collectNow() {
	if l.stopped {
		return
	}
	elements := make(map[K]Element, len(l.mounted))
	for key, m := range l.mounted {
		elements[key] = m
	}
	if l.heights.Collect(elements) {
		l.logger.Debug("heights changed", "version", l.heights.Version(), "measured", len(elements))
		l.layout()
		l.MarkDirty()
	}
}

// layout computes the window for the current offset, mounts it and publishes
// the content height. A shrinking content height can move the offset, which
// changes the window again, so this converges over a few passes.
func (l *VirtualList[K]) layout() {
	if l.stopped {
		return
	}
	fresh := false
	defer func() {
		if fresh && l.started {
			l.collect.schedule(l.collectNow)
		}
	}()
	for range 3 {
		state := l.offset.State()
		key := windowKey{
			items:         l.revision,
			version:       l.heights.Version(),
			scrollY:       state.Y,
			viewport:      l.viewport.Height,
			defaultHeight: l.cfg.ItemHeight,
		}
		window, computed := l.memo.get(key, l.keys, l.heights)
		l.window = window
		if computed {
			l.logger.Debug("window computed", "start", window.Start, "end", window.End, "offset", window.Offset, "scrollHeight", window.ScrollHeight, "y", state.Y)
		}
		if l.mount(window) {
			fresh = true
		}

		l.offset.SetContentSize(l.viewport.Width, window.ScrollHeight)
		l.native.setRange(l.offset.MaxY())
		if l.offset.State().Y == state.Y {
			return
		}
	}
}

// mount makes the mounted set match window and reports whether any item was
// newly mounted.
func (l *VirtualList[K]) mount(window VisibleWindow) bool {
	width := l.itemWidth()
	fresh := false
	keep := make(map[K]struct{}, window.Len())
	for i := window.Start; i <= window.End && i < len(l.items); i++ {
		key := l.keys[i]
		keep[key] = struct{}{}
		m, ok := l.mounted[key]
		if !ok || m.revision != l.revision {
			if ok {
				m.attached = false
			}
			m = &mountedItem[K]{item: l.items[i], revision: l.revision, attached: true}
			l.mounted[key] = m
			fresh = true
		}
		m.width = width
	}
	for key, m := range l.mounted {
		if _, ok := keep[key]; !ok {
			m.attached = false
			delete(l.mounted, key)
		}
	}
	return fresh
}

// itemPixels returns the height item i is laid out with.
func (l *VirtualList[K]) itemPixels(i int) int {
	if height, ok := l.heights.Get(l.keys[i]); ok {
		return height
	}
	return l.cfg.ItemHeight
}

// Draw draws the mounted items and the thumb.
func (l *VirtualList[K]) Draw(screen tcell.Screen) {
	l.poll()
	l.DrawForSubclass(screen, l)
	defer l.MarkClean()

	x, y, width, height := l.GetInnerRect()
	if l.active() {
		l.resize.Observe(Size{Width: max(width, 0) * CellPixels, Height: max(height, 0) * CellPixels})
	}
	l.layout()
	if width <= 0 || height <= 0 {
		return
	}

	itemWidth := min(l.itemWidth(), width)
	state := l.offset.State()
	clipped := newClippedScreen(screen, x, y, itemWidth, height)
	top := l.window.Offset - state.Y
	for i := l.window.Start; i <= l.window.End && i < len(l.items); i++ {
		pixels := l.itemPixels(i)
		row := floorDiv(top, CellPixels)
		rows := ceilDiv(pixels, CellPixels)
		top += pixels
		if row >= height || row+rows <= 0 || rows <= 0 {
			continue
		}
		item := l.items[i]
		item.SetRect(x, y+row, itemWidth, rows)
		item.Draw(clipped)
	}

	if columns := l.barColumns(); columns > 0 {
		l.bar.SetRect(x+width-min(columns, width), y, min(columns, width), height)
		l.bar.setState(state)
		l.bar.Draw(screen)
	}
}

// InputHandler scrolls the list with the keys of its key map. Keys move the
// native viewport, which reports back to the offset controller.
func (l *VirtualList[K]) InputHandler(event *tcell.EventKey) Command {
	if !l.active() {
		return nil
	}
	l.poll()
	keys := l.cfg.KeyMap
	top := l.native.ScrollTop()
	switch {
	case keybind.Matches(event, keys.Up):
		l.native.scrollTo(top - l.cfg.ItemHeight)
	case keybind.Matches(event, keys.Down):
		l.native.scrollTo(top + l.cfg.ItemHeight)
	case keybind.Matches(event, keys.PageUp):
		l.native.scrollTo(top - l.viewport.Height)
	case keybind.Matches(event, keys.PageDown):
		l.native.scrollTo(top + l.viewport.Height)
	case keybind.Matches(event, keys.Top):
		l.native.scrollTo(0)
	case keybind.Matches(event, keys.Bottom):
		l.native.scrollTo(l.native.max)
	default:
		return nil
	}
	l.layout()
	return RedrawCommand{}
}

// MouseHandler handles the wheel, the thumb and focus on click.
func (l *VirtualList[K]) MouseHandler(action MouseAction, event *tcell.EventMouse) (Primitive, Command) {
	if !l.active() {
		return nil, nil
	}
	l.poll()
	if l.bar.Dragging() {
		return l.bar.MouseHandler(action, event)
	}

	x, y := event.Position()
	if !l.InRect(x, y) {
		l.unhover()
		return nil, nil
	}
	var cmd Command
	if !l.hovered {
		l.hovered = true
		if !l.cfg.ScrollBarHidden && l.offset.State().MaxY() > 0 {
			l.bar.ShowTemporarily()
			cmd = RedrawCommand{}
		}
	}

	wheel := WheelEvent{Shift: event.Modifiers()&tcell.ModShift != 0}
	switch action {
	case MouseScrollUp:
		wheel.DeltaY = -l.cfg.WheelDelta
	case MouseScrollDown:
		wheel.DeltaY = l.cfg.WheelDelta
	case MouseScrollLeft:
		wheel.DeltaX = -l.cfg.WheelDelta
	case MouseScrollRight:
		wheel.DeltaX = l.cfg.WheelDelta
	}
	if wheel.DeltaX != 0 || wheel.DeltaY != 0 {
		l.wheel.Handle(wheel)
		return nil, AppendCommand(cmd, ConsumeEventCommand{})
	}

	if l.barColumns() > 0 && l.bar.InRect(x, y) {
		capture, barCmd := l.bar.MouseHandler(action, event)
		return capture, AppendCommand(cmd, barCmd)
	}
	if action == MouseLeftDown {
		return nil, AppendCommand(cmd, SetFocusCommand{Target: l})
	}
	return nil, cmd
}

// nativeViewport is the scroll position of the terminal region the list
// draws into. It clamps itself to the content like a native scroll container
// and reports position changes.
type nativeViewport struct {
	top int
	// max is the largest valid top, -1 while the content height is unknown.
	max      int
	onScroll func(top int)
}

func (v *nativeViewport) ScrollTop() int {
	return v.top
}

func (v *nativeViewport) SetScrollTop(top int) {
	v.scrollTo(top)
}

func (v *nativeViewport) scrollTo(top int) {
	top = max(top, 0)
	if v.max >= 0 {
		top = min(top, v.max)
	}
	if top == v.top {
		return
	}
	v.top = top
	if v.onScroll != nil {
		v.onScroll(top)
	}
}

// setRange updates the largest valid top and clamps the position into it.
func (v *nativeViewport) setRange(maxTop int) {
	v.max = maxTop
	if maxTop >= 0 && v.top > maxTop {
		v.scrollTo(maxTop)
	}
}

var _ Primitive = &VirtualList[string]{}
var _ Handle = &VirtualList[string]{}

type clippedScreen struct {
	tcell.Screen
	x      int
	y      int
	width  int
	height int
}

func newClippedScreen(screen tcell.Screen, x, y, width, height int) *clippedScreen {
	return &clippedScreen{
		Screen: screen,
		x:      x,
		y:      y,
		width:  width,
		height: height,
	}
}

func (s *clippedScreen) inBounds(x, y int) bool {
	return x >= s.x && x < s.x+s.width && y >= s.y && y < s.y+s.height
}

func (s *clippedScreen) SetContent(x int, y int, primary rune, combining []rune, style tcell.Style) {
	if !s.inBounds(x, y) {
		return
	}
	s.Screen.SetContent(x, y, primary, combining, style)
}

func (s *clippedScreen) Put(x int, y int, str string, style tcell.Style) (string, int) {
	if !s.inBounds(x, y) {
		return str, 0
	}
	return s.Screen.Put(x, y, str, style)
}

func (s *clippedScreen) PutStrStyled(x int, y int, str string, style tcell.Style) {
	if y < s.y || y >= s.y+s.height {
		return
	}

	gr := uniseg.NewGraphemes(str)
	for gr.Next() {
		cluster := gr.Str()
		width := max(uniseg.StringWidth(cluster), 1)
		if x >= s.x+s.width {
			return
		}
		if x >= s.x && x+width <= s.x+s.width {
			s.Screen.Put(x, y, cluster, style)
		}
		x += width
	}
}

func (s *clippedScreen) PutStr(x int, y int, str string) {
	s.PutStrStyled(x, y, str, tcell.StyleDefault)
}
