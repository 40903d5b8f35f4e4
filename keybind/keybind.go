// Package keybind matches tcell key events against configurable key strings
// such as "pgdn", "ctrl+e" or "shift+up".
package keybind

import (
	"slices"
	"strings"

	"github.com/gdamore/tcell/v3"
)

type Keybind struct {
	keys []string
	help Help
}

type Option func(*Keybind)

func NewKeybind(options ...Option) Keybind {
	k := &Keybind{}
	for _, option := range options {
		option(k)
	}
	return *k
}

func WithKeys(keys ...string) Option {
	return func(k *Keybind) {
		k.keys = normalizeKeys(keys...)
	}
}

func WithHelp(key, desc string) Option {
	return func(k *Keybind) {
		k.help = Help{Key: key, Desc: desc}
	}
}

func (k Keybind) Keys() []string {
	return k.keys
}

// Enabled reports whether the binding has at least one key.
func (k Keybind) Enabled() bool {
	return len(k.keys) > 0
}

func (k Keybind) Help() Help {
	return k.help
}

type Help struct {
	Key  string
	Desc string
}

func Matches(event *tcell.EventKey, keybinds ...Keybind) bool {
	if event == nil {
		return false
	}

	key := eventKeyString(event)
	for _, keybind := range keybinds {
		if slices.Contains(keybind.keys, key) {
			return true
		}
	}
	return false
}

func normalizeKeys(keys ...string) []string {
	normalized := make([]string, 0, len(keys))
	for _, key := range keys {
		if key = normalizeKey(key); key != "" && !slices.Contains(normalized, key) {
			normalized = append(normalized, key)
		}
	}
	return normalized
}

// modOrder is the order modifiers appear in a normalized key string.
var modOrder = []string{"ctrl", "alt", "shift", "meta"}

func normalizeKey(key string) string {
	var (
		mods    []string
		primary string
	)
	for part := range strings.SplitSeq(strings.TrimSpace(key), "+") {
		part = strings.TrimSpace(part)
		switch strings.ToLower(part) {
		case "":
		case "ctrl", "control":
			mods = append(mods, "ctrl")
		case "alt", "option":
			mods = append(mods, "alt")
		case "shift":
			mods = append(mods, "shift")
		case "meta", "cmd":
			mods = append(mods, "meta")
		default:
			primary = normalizePrimaryKey(part)
		}
	}
	if primary == "" {
		return ""
	}
	if len(mods) > 0 && len([]rune(primary)) == 1 {
		primary = strings.ToLower(primary)
	}
	return joinKey(mods, primary)
}

func normalizePrimaryKey(key string) string {
	switch strings.ToLower(key) {
	case "esc", "escape":
		return "esc"
	case "return":
		return "enter"
	case "pageup", "prior":
		return "pgup"
	case "pagedown", "next":
		return "pgdn"
	case "space":
		return " "
	}
	if len([]rune(key)) == 1 {
		return key
	}
	return strings.ToLower(key)
}

// joinKey orders mods canonically, drops duplicates and appends primary.
func joinKey(mods []string, primary string) string {
	parts := make([]string, 0, len(modOrder)+1)
	for _, mod := range modOrder {
		if slices.Contains(mods, mod) {
			parts = append(parts, mod)
		}
	}
	return strings.Join(append(parts, primary), "+")
}

func eventKeyString(event *tcell.EventKey) string {
	key := event.Key()
	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		return "ctrl+" + string(rune('a'+(key-tcell.KeyCtrlA)))
	}

	primary := keyName(key)
	if primary == "" && key == tcell.KeyRune {
		primary = event.Str()
	}
	if primary == "" {
		return normalizeKey(event.Name())
	}

	var mods []string
	m := event.Modifiers()
	if m&tcell.ModCtrl != 0 {
		mods = append(mods, "ctrl")
	}
	if m&tcell.ModAlt != 0 {
		mods = append(mods, "alt")
	}
	// Shifted runes arrive as the shifted character already.
	if m&tcell.ModShift != 0 && key != tcell.KeyRune {
		mods = append(mods, "shift")
	}
	if m&tcell.ModMeta != 0 {
		mods = append(mods, "meta")
	}
	return joinKey(mods, primary)
}

func keyName(key tcell.Key) string {
	switch key {
	case tcell.KeyEnter:
		return "enter"
	case tcell.KeyEscape:
		return "esc"
	case tcell.KeyTab:
		return "tab"
	case tcell.KeyHome:
		return "home"
	case tcell.KeyEnd:
		return "end"
	case tcell.KeyUp:
		return "up"
	case tcell.KeyDown:
		return "down"
	case tcell.KeyLeft:
		return "left"
	case tcell.KeyRight:
		return "right"
	case tcell.KeyPgUp:
		return "pgup"
	case tcell.KeyPgDn:
		return "pgdn"
	default:
		return ""
	}
}
