package vscroll

// Element is a mounted item handle that can be measured.
type Element interface {
	// OffsetHeight returns the element's laid out height in pixels. ok is
	// false when the element is detached or has not been laid out, in which
	// case it cannot be measured.
	OffsetHeight() (height int, ok bool)
}

// HeightLookup is the read side of a height cache.
type HeightLookup[K comparable] interface {
	Get(key K) (int, bool)
}

// HeightCache maps item keys to their last measured height in pixels.
// Version increases whenever a stored height changes, which makes it usable as
// a memoization token for window computation.
//
// The cache never stores estimates: items without an entry are sized with the
// list's default item height at computation time.
type HeightCache[K comparable] struct {
	heights map[K]int
	version uint64
}

// NewHeightCache returns an empty cache.
func NewHeightCache[K comparable]() *HeightCache[K] {
	return &HeightCache[K]{heights: make(map[K]int)}
}

// Get returns the cached height for key.
func (c *HeightCache[K]) Get(key K) (int, bool) {
	h, ok := c.heights[key]
	return h, ok
}

// Set stores height for key and reports whether the cache changed. Negative
// heights are stored as 0.
func (c *HeightCache[K]) Set(key K, height int) bool {
	height = max(height, 0)
	if old, ok := c.heights[key]; ok && old == height {
		return false
	}
	c.heights[key] = height
	c.version++
	return true
}

// Collect measures every element and stores heights that differ from the
// cached value. Detached elements and nil handles are skipped and keep their
// previous entry. It reports whether any entry changed.
func (c *HeightCache[K]) Collect(elements map[K]Element) bool {
	changed := false
	for key, element := range elements {
		if element == nil {
			continue
		}
		height, ok := element.OffsetHeight()
		if !ok {
			continue
		}
		if c.Set(key, height) {
			changed = true
		}
	}
	return changed
}

// Prune removes the entries whose key is not kept and returns how many were
// removed. Removing entries bumps the version.
func (c *HeightCache[K]) Prune(keep func(K) bool) int {
	removed := 0
	for key := range c.heights {
		if !keep(key) {
			delete(c.heights, key)
			removed++
		}
	}
	if removed > 0 {
		c.version++
	}
	return removed
}

// Version returns the change counter.
func (c *HeightCache[K]) Version() uint64 {
	return c.version
}

// Len returns the number of cached heights.
func (c *HeightCache[K]) Len() int {
	return len(c.heights)
}
