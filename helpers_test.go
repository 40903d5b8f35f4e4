package vscroll

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v3"
	"github.com/rivo/uniseg"
)

// fakeElement is a measurable element with a fixed height.
type fakeElement struct {
	height   int
	detached bool
	calls    int
}

func (e *fakeElement) OffsetHeight() (int, bool) {
	e.calls++
	if e.detached {
		return 0, false
	}
	return e.height, true
}

// heightMap is a HeightLookup backed by a plain map.
type heightMap map[int]int

func (m heightMap) Get(key int) (int, bool) {
	h, ok := m[key]
	return h, ok
}

func seq(n int) []int {
	keys := make([]int, n)
	for i := range keys {
		keys[i] = i
	}
	return keys
}

// rowItem is an item of a fixed number of rows that draws its key.
type rowItem struct {
	*Box
	key  int
	rows int
}

func newRowItem(key, rows int) *rowItem {
	return &rowItem{Box: NewBox(), key: key, rows: rows}
}

func (r *rowItem) Key() int { return r.key }

func (r *rowItem) Height(int) int { return r.rows }

func (r *rowItem) Draw(s tcell.Screen) {
	r.DrawForSubclass(s, r)
	x, y, _, _ := r.GetInnerRect()
	s.Put(x, y, strconv.Itoa(r.key%10), tcell.StyleDefault)
}

func rowItems(n, rows int) []Item[int] {
	items := make([]Item[int], n)
	for i := range items {
		items[i] = newRowItem(i, rows)
	}
	return items
}

// captureScreen records the cells written by Put. Only the methods used by
// the widgets are implemented.
type captureScreen struct {
	tcell.Screen
	width, height int
	cells         map[[2]int]string
	styles        map[[2]int]tcell.Style
}

func newCaptureScreen(width, height int) *captureScreen {
	return &captureScreen{
		width:  width,
		height: height,
		cells:  make(map[[2]int]string),
		styles: make(map[[2]int]tcell.Style),
	}
}

func (s *captureScreen) Size() (int, int) {
	return s.width, s.height
}

func (s *captureScreen) Put(x, y int, str string, style tcell.Style) (string, int) {
	cluster, rest, width, _ := uniseg.FirstGraphemeClusterInString(str, -1)
	if x < 0 || y < 0 || x >= s.width || y >= s.height {
		return rest, width
	}
	s.cells[[2]int{x, y}] = cluster
	s.styles[[2]int{x, y}] = style
	return rest, width
}

func (s *captureScreen) Get(x, y int) (string, tcell.Style, int) {
	cell := s.cells[[2]int{x, y}]
	return cell, s.styles[[2]int{x, y}], max(uniseg.StringWidth(cell), 1)
}

// column returns the cells of column x, top to bottom.
func (s *captureScreen) column(x int) []string {
	col := make([]string, s.height)
	for y := range col {
		col[y] = s.cells[[2]int{x, y}]
	}
	return col
}

// line returns row y with unwritten cells as spaces.
func (s *captureScreen) line(y int) string {
	var b strings.Builder
	for x := range s.width {
		cell := s.cells[[2]int{x, y}]
		if cell == "" {
			cell = " "
		}
		b.WriteString(cell)
	}
	return b.String()
}
