package vscroll

import "github.com/gdamore/tcell/v3"

// TextItem is an [Item] showing word-wrapped text. Its height is the number
// of wrapped lines at the width it is given.
type TextItem[K comparable] struct {
	*Box

	key   K
	text  string
	style tcell.Style
}

// NewTextItem returns an item for key showing text.
func NewTextItem[K comparable](key K, text string) *TextItem[K] {
	return &TextItem[K]{
		Box:   NewBox(),
		key:   key,
		text:  text,
		style: tcell.StyleDefault.Foreground(Styles.PrimaryTextColor),
	}
}

// SetText replaces the text. Lists pick up the new height on their next
// height collection.
func (t *TextItem[K]) SetText(text string) *TextItem[K] {
	t.text = text
	t.MarkDirty()
	return t
}

// SetTextStyle sets the text style.
func (t *TextItem[K]) SetTextStyle(style tcell.Style) *TextItem[K] {
	t.style = style
	return t
}

func (t *TextItem[K]) Key() K {
	return t.key
}

func (t *TextItem[K]) Height(width int) int {
	return max(len(WordWrap(t.text, width)), 1)
}

func (t *TextItem[K]) Draw(screen tcell.Screen) {
	t.DrawForSubclass(screen, t)

	x, y, width, height := t.GetInnerRect()
	for i, line := range WordWrap(t.text, width) {
		if i >= height {
			break
		}
		printWithStyle(screen, line, x, y+i, 0, width, AlignmentLeft, t.style, true)
	}
	t.MarkClean()
}

var _ Item[string] = &TextItem[string]{}
