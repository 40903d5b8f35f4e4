package vscroll

const horizontalEllipsis = "…"

// BorderSet defines the glyphs used when box borders are drawn.
type BorderSet struct {
	Top         string
	Bottom      string
	Left        string
	Right       string
	TopLeft     string
	TopRight    string
	BottomLeft  string
	BottomRight string
}

// BorderSetHidden draws borders as blank cells, reserving their space.
func BorderSetHidden() BorderSet {
	return BorderSet{
		Top:         " ",
		Bottom:      " ",
		Left:        " ",
		Right:       " ",
		TopLeft:     " ",
		TopRight:    " ",
		BottomLeft:  " ",
		BottomRight: " ",
	}
}

func BorderSetPlain() BorderSet {
	return BorderSet{
		Top:         "─",
		Bottom:      "─",
		Left:        "│",
		Right:       "│",
		TopLeft:     "┌",
		TopRight:    "┐",
		BottomLeft:  "└",
		BottomRight: "┘",
	}
}

func BorderSetRound() BorderSet {
	b := BorderSetPlain()
	b.TopLeft = "╭"
	b.TopRight = "╮"
	b.BottomLeft = "╰"
	b.BottomRight = "╯"
	return b
}

func BorderSetThick() BorderSet {
	return BorderSet{
		Top:         "━",
		Bottom:      "━",
		Left:        "┃",
		Right:       "┃",
		TopLeft:     "┏",
		TopRight:    "┓",
		BottomLeft:  "┗",
		BottomRight: "┛",
	}
}

type Borders uint

const (
	BordersTop Borders = 1 << iota
	BordersBottom
	BordersLeft
	BordersRight

	BordersNone Borders = 0
	BordersAll  Borders = BordersTop | BordersBottom | BordersLeft | BordersRight
)

func (b Borders) Has(flag Borders) bool {
	return b&flag != 0
}
