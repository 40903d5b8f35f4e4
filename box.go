package vscroll

import (
	"sync/atomic"

	"github.com/gdamore/tcell/v3"
)

// Box implements the Primitive interface with an empty background and optional
// elements such as a border and a title. Box itself does not hold any content
// but serves as the superclass of [VirtualList] and [ScrollBar].
type Box struct {
	// The position of the rect.
	x, y, width, height int

	// The inner rect reserved for the box's content. If innerX is negative,
	// the rect is undefined and must be calculated.
	innerX, innerY, innerWidth, innerHeight int

	// Border padding.
	paddingTop, paddingBottom, paddingLeft, paddingRight int

	// The box's background color.
	backgroundColor tcell.Color

	// If set to true, the background of this box is not cleared while drawing.
	dontClear bool

	borders     Borders
	borderSet   BorderSet
	borderStyle tcell.Style

	title          string
	titleStyle     tcell.Style
	titleAlignment Alignment

	hasFocus bool

	// dirty indicates whether this primitive needs to be redrawn.
	dirty atomic.Bool

	// Optional callback functions invoked when the primitive receives or loses
	// focus.
	focus, blur func()
}

// NewBox returns a Box without a border.
func NewBox() *Box {
	b := &Box{
		width:           15,
		height:          10,
		innerX:          -1, // Mark as uninitialized.
		backgroundColor: Styles.PrimitiveBackgroundColor,

		borderStyle: tcell.StyleDefault.Foreground(Styles.BorderColor).Background(Styles.PrimitiveBackgroundColor),
		borderSet:   BorderSetPlain(),

		titleStyle:     tcell.StyleDefault.Foreground(Styles.TitleColor),
		titleAlignment: AlignmentCenter,
	}
	b.dirty.Store(true)
	return b
}

// SetBorderPadding sets the size of the borders around the box content.
func (b *Box) SetBorderPadding(top, bottom, left, right int) *Box {
	if b.paddingTop != top || b.paddingBottom != bottom || b.paddingLeft != left || b.paddingRight != right {
		b.paddingTop, b.paddingBottom, b.paddingLeft, b.paddingRight = top, bottom, left, right
		b.innerX = -1 // Mark inner rect as uninitialized.
		b.MarkDirty()
	}
	return b
}

// GetRect returns the current position of the rectangle, x, y, width, and
// height.
func (b *Box) GetRect() (int, int, int, int) {
	return b.x, b.y, b.width, b.height
}

// GetInnerRect returns the position of the inner rectangle (x, y, width,
// height), without the border and without any padding. Width and height values
// will clamp to 0 and thus never be negative.
func (b *Box) GetInnerRect() (int, int, int, int) {
	if b.innerX >= 0 {
		return b.innerX, b.innerY, b.innerWidth, b.innerHeight
	}

	x, y, width, height := b.GetRect()

	if b.title != "" || b.borders.Has(BordersTop) {
		y++
		height--
	}
	if b.borders.Has(BordersBottom) {
		height--
	}
	if b.borders.Has(BordersLeft) {
		x++
		width--
	}
	if b.borders.Has(BordersRight) {
		width--
	}

	x += b.paddingLeft
	y += b.paddingTop
	width -= b.paddingLeft + b.paddingRight
	height -= b.paddingTop + b.paddingBottom

	return x, y, max(width, 0), max(height, 0)
}

// SetRect sets a new position of the primitive.
func (b *Box) SetRect(x, y, width, height int) {
	if b.x != x || b.y != y || b.width != width || b.height != height {
		b.x = x
		b.y = y
		b.width = width
		b.height = height
		b.innerX = -1 // Mark inner rect as uninitialized.
		b.MarkDirty()
	}
}

// IsDirty returns whether this primitive needs redrawing.
func (b *Box) IsDirty() bool {
	return b.dirty.Load()
}

// MarkDirty marks this primitive as needing a redraw.
func (b *Box) MarkDirty() {
	b.dirty.Store(true)
}

// MarkClean marks this primitive as clean.
func (b *Box) MarkClean() {
	b.dirty.Store(false)
}

// InputHandler is a no-op input handler.
func (b *Box) InputHandler(event *tcell.EventKey) Command {
	return nil
}

// PasteHandler ignores pasted text.
func (b *Box) PasteHandler(text string) Command {
	return nil
}

// MouseHandler focuses the box when it is clicked.
func (b *Box) MouseHandler(action MouseAction, event *tcell.EventMouse) (Primitive, Command) {
	if action == MouseLeftDown && b.InRect(event.Position()) {
		return nil, SetFocusCommand{Target: b}
	}
	return nil, nil
}

// InRect returns true if the given coordinate is within the bounds of the box's
// rectangle.
func (b *Box) InRect(x, y int) bool {
	rectX, rectY, width, height := b.GetRect()
	return x >= rectX && x < rectX+width && y >= rectY && y < rectY+height
}

// InInnerRect returns true if the given coordinate is within the bounds of the
// box's inner rectangle (within the border and padding).
func (b *Box) InInnerRect(x, y int) bool {
	rectX, rectY, width, height := b.GetInnerRect()
	return x >= rectX && x < rectX+width && y >= rectY && y < rectY+height
}

// SetBackgroundColor sets the box's background color.
func (b *Box) SetBackgroundColor(color tcell.Color) *Box {
	if b.backgroundColor != color {
		b.backgroundColor = color
		b.borderStyle = b.borderStyle.Background(color)
		b.MarkDirty()
	}
	return b
}

// SetDontClear disables clearing of the background before drawing.
func (b *Box) SetDontClear(dontClear bool) *Box {
	b.dontClear = dontClear
	return b
}

// SetBorders sets which borders to draw.
func (b *Box) SetBorders(flag Borders) *Box {
	if b.borders != flag {
		b.borders = flag
		b.innerX = -1 // Mark inner rect as uninitialized.
		b.MarkDirty()
	}
	return b
}

// SetBorderSet sets the box' borderset
func (b *Box) SetBorderSet(borderSet BorderSet) *Box {
	if b.borderSet != borderSet {
		b.borderSet = borderSet
		b.MarkDirty()
	}
	return b
}

// SetBorderStyle sets the box's border style.
func (b *Box) SetBorderStyle(style tcell.Style) *Box {
	if b.borderStyle != style {
		b.borderStyle = style
		b.MarkDirty()
	}
	return b
}

// GetTitle returns the box's current title.
func (b *Box) GetTitle() string {
	return b.title
}

// SetTitle sets the box's title.
func (b *Box) SetTitle(title string) *Box {
	if b.title != title {
		b.title = title
		b.innerX = -1 // Mark inner rect as uninitialized.
		b.MarkDirty()
	}
	return b
}

// SetTitleAlignment sets the alignment of the title.
func (b *Box) SetTitleAlignment(alignment Alignment) *Box {
	if b.titleAlignment != alignment {
		b.titleAlignment = alignment
		b.MarkDirty()
	}
	return b
}

// Draw draws this primitive onto the screen.
func (b *Box) Draw(screen tcell.Screen) {
	b.DrawForSubclass(screen, b)
}

// DrawForSubclass draws this box under the assumption that primitive p is a
// subclass of this box.
func (b *Box) DrawForSubclass(screen tcell.Screen, p Primitive) {
	// Don't draw anything if there is no space.
	if b.width <= 0 || b.height <= 0 {
		return
	}

	if !b.dontClear {
		background := tcell.StyleDefault.Background(b.backgroundColor)
		for y := b.y; y < b.y+b.height; y++ {
			for x := b.x; x < b.x+b.width; x++ {
				screen.Put(x, y, " ", background)
			}
		}
	}

	if b.borders != BordersNone && b.width >= 2 && b.height >= 2 {
		b.drawBorders(screen)
	}

	if b.title != "" && b.width >= 4 {
		start, end, _ := printWithStyle(screen, b.title, b.x+1, b.y, 0, b.width-2, b.titleAlignment, b.titleStyle, true)
		if printed := end - start; len(b.title)-printed > 0 && printed > 0 {
			xEllipsis := b.x + b.width - 2
			if b.titleAlignment == AlignmentRight {
				xEllipsis = b.x + 1
			}
			_, style, _ := screen.Get(xEllipsis, b.y)
			Print(screen, horizontalEllipsis, xEllipsis, b.y, 1, AlignmentLeft, style.GetForeground())
		}
	}

	// Remember the inner rect.
	b.innerX = -1
	b.innerX, b.innerY, b.innerWidth, b.innerHeight = b.GetInnerRect()
}

func (b *Box) drawBorders(screen tcell.Screen) {
	right, bottom := b.x+b.width-1, b.y+b.height-1
	if b.borders.Has(BordersTop) {
		for x := b.x + 1; x < right; x++ {
			screen.Put(x, b.y, b.borderSet.Top, b.borderStyle)
		}
	}
	if b.borders.Has(BordersBottom) {
		for x := b.x + 1; x < right; x++ {
			screen.Put(x, bottom, b.borderSet.Bottom, b.borderStyle)
		}
	}
	if b.borders.Has(BordersLeft) {
		for y := b.y + 1; y < bottom; y++ {
			screen.Put(b.x, y, b.borderSet.Left, b.borderStyle)
		}
	}
	if b.borders.Has(BordersRight) {
		for y := b.y + 1; y < bottom; y++ {
			screen.Put(right, y, b.borderSet.Right, b.borderStyle)
		}
	}

	corners := []struct {
		flags Borders
		x, y  int
		glyph string
	}{
		{BordersTop | BordersLeft, b.x, b.y, b.borderSet.TopLeft},
		{BordersTop | BordersRight, right, b.y, b.borderSet.TopRight},
		{BordersBottom | BordersLeft, b.x, bottom, b.borderSet.BottomLeft},
		{BordersBottom | BordersRight, right, bottom, b.borderSet.BottomRight},
	}
	for _, corner := range corners {
		if b.borders&corner.flags == corner.flags {
			screen.Put(corner.x, corner.y, corner.glyph, b.borderStyle)
		}
	}
}

// SetFocusFunc sets a callback function which is invoked when this primitive
// receives focus. Set to nil to remove the callback function.
func (b *Box) SetFocusFunc(callback func()) *Box {
	b.focus = callback
	return b
}

// SetBlurFunc sets a callback function which is invoked when this primitive
// loses focus. Set to nil to remove the callback function.
func (b *Box) SetBlurFunc(callback func()) *Box {
	b.blur = callback
	return b
}

// Focus is called when this primitive directly receives focus.
func (b *Box) Focus(delegate func(p Primitive)) {
	if !b.hasFocus {
		b.hasFocus = true
		b.MarkDirty()
	}
	if b.focus != nil {
		b.focus()
	}
}

// Blur is called when this primitive directly loses focus.
func (b *Box) Blur() {
	if b.hasFocus {
		b.hasFocus = false
		b.MarkDirty()
	}
	if b.blur != nil {
		b.blur()
	}
}

// HasFocus returns whether or not this primitive has focus.
func (b *Box) HasFocus() bool {
	return b.hasFocus
}
