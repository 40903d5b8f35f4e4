package vscroll

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/xqrs/vscroll/keybind"
)

// Config holds the construction settings of a VirtualList. Sizes are in
// pixels, see CellPixels.
type Config struct {
	// Width and Height are the viewport size used until the list has been
	// laid out. 0 means unknown.
	Width  int
	Height int

	// ItemHeight is the height assumed for items that were never measured.
	ItemHeight int

	// ScrollBarSize is the thumb width. It occupies
	// ceil(ScrollBarSize/CellPixels) columns.
	ScrollBarSize            int
	ScrollBarHidden          bool
	ScrollBarAutoHideTimeout time.Duration

	// WheelDelta is how far one wheel notch scrolls.
	WheelDelta int

	Scheduler FrameScheduler
	Clock     clockwork.Clock
	Pointer   GlobalPointerSource
	Logger    *slog.Logger
	KeyMap    keybind.ScrollKeyMap
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		ItemHeight:               20,
		ScrollBarSize:            6,
		ScrollBarAutoHideTimeout: time.Second,
		WheelDelta:               3 * CellPixels,
		KeyMap:                   keybind.DefaultScrollKeyMap(),
	}
}

// Option changes a Config.
type Option func(*Config)

// WithSize sets the viewport size used before layout.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = max(width, 0)
		c.Height = max(height, 0)
	}
}

// WithItemHeight sets the height of unmeasured items.
func WithItemHeight(height int) Option {
	return func(c *Config) {
		c.ItemHeight = max(height, 0)
	}
}

func WithScrollBarSize(size int) Option {
	return func(c *Config) {
		c.ScrollBarSize = max(size, 0)
	}
}

func WithScrollBarHidden(hidden bool) Option {
	return func(c *Config) {
		c.ScrollBarHidden = hidden
	}
}

// WithScrollBarAutoHideTimeout sets how long the thumb stays visible after
// scrolling or hovering. 0 keeps it visible.
func WithScrollBarAutoHideTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.ScrollBarAutoHideTimeout = max(timeout, 0)
	}
}

func WithWheelDelta(delta int) Option {
	return func(c *Config) {
		c.WheelDelta = delta
	}
}

// WithScheduler sets the frame scheduler, usually the Application. Without
// one, frame work runs synchronously.
func WithScheduler(frames FrameScheduler) Option {
	return func(c *Config) {
		c.Scheduler = frames
	}
}

// WithClock sets the clock driving the idle and auto-hide timers.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithPointerSource sets the source of pointer events during thumb drags.
// By default the list feeds its own PointerHub from captured mouse events.
func WithPointerSource(source GlobalPointerSource) Option {
	return func(c *Config) {
		c.Pointer = source
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

func WithKeyMap(keyMap keybind.ScrollKeyMap) Option {
	return func(c *Config) {
		c.KeyMap = keyMap
	}
}

func newConfig(opts []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = Logger
	}
	return cfg
}
