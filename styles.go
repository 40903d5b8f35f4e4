package vscroll

import (
	"github.com/gdamore/tcell/v3"
)

// Theme defines the colors used when primitives are initialized.
type Theme struct {
	PrimitiveBackgroundColor tcell.Color // Main background color for primitives.
	BorderColor              tcell.Color // Box borders.
	TitleColor               tcell.Color // Box titles.
	PrimaryTextColor         tcell.Color // Primary text.
	ScrollTrackColor         tcell.Color // Scrollbar track.
	ScrollThumbColor         tcell.Color // Scrollbar thumb.
}

// Styles defines the theme for applications. The default is for a black
// background, white text and a gray scrollbar track.
var Styles = Theme{
	PrimitiveBackgroundColor: tcell.ColorBlack,
	BorderColor:              tcell.ColorWhite,
	TitleColor:               tcell.ColorWhite,
	PrimaryTextColor:         tcell.ColorWhite,
	ScrollTrackColor:         tcell.ColorGray,
	ScrollThumbColor:         tcell.ColorWhite,
}
