package heap

// region tracks the bounds of the address space this allocator owns:
// static_start/wavefront/static_end, plus the optional gap introduced by
// the first non-contiguous heap-growth call. At most one gap is ever
// created in the lifetime of an allocator; one that never grows has none.
type region struct {
	staticStart uintptr
	wavefront   uintptr
	staticEnd   uintptr

	hasGap   bool
	gapStart uintptr
	gapEnd   uintptr
}

// inGap reports whether a falls inside the unowned gap range.
func (r *region) inGap(a uintptr) bool {
	return r.hasGap && a >= r.gapStart && a < r.gapEnd
}

// validHeapAddress reports whether a is inside the owned, walkable region
// and outside the gap. Every attempt to follow a physical-neighbor link
// during coalescing must be gated on this predicate first.
func (r *region) validHeapAddress(a uintptr) bool {
	return a >= r.staticStart && a < r.wavefront && !r.inGap(a)
}
