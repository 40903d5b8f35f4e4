package keybind

// ScrollKeyMap holds the bindings a scrollable list reacts to.
type ScrollKeyMap struct {
	Up       Keybind
	Down     Keybind
	PageUp   Keybind
	PageDown Keybind
	Top      Keybind
	Bottom   Keybind
}

// DefaultScrollKeyMap returns arrow, page and home/end bindings with vi-style
// alternatives.
func DefaultScrollKeyMap() ScrollKeyMap {
	return ScrollKeyMap{
		Up: NewKeybind(
			WithKeys("up", "k"),
			WithHelp("↑/k", "scroll up"),
		),
		Down: NewKeybind(
			WithKeys("down", "j"),
			WithHelp("↓/j", "scroll down"),
		),
		PageUp: NewKeybind(
			WithKeys("pgup", "ctrl+b"),
			WithHelp("pgup", "page up"),
		),
		PageDown: NewKeybind(
			WithKeys("pgdn", "ctrl+f", "space"),
			WithHelp("pgdn", "page down"),
		),
		Top: NewKeybind(
			WithKeys("home", "g"),
			WithHelp("home/g", "go to top"),
		),
		Bottom: NewKeybind(
			WithKeys("end", "G"),
			WithHelp("end/G", "go to bottom"),
		),
	}
}

// Bindings returns every binding in the map, for help views.
func (m ScrollKeyMap) Bindings() []Keybind {
	return []Keybind{m.Up, m.Down, m.PageUp, m.PageDown, m.Top, m.Bottom}
}
