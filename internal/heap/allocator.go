package heap

import "unsafe"

// Config carries the allocator's build-time parameters. The zero Config is
// not usable; build one with defaultConfig and Options.
type Config struct {
	// StaticHeapBytes is the size of the embedded static heap array.
	StaticHeapBytes uintptr

	// LargeThreshold is the aligned-request size at or above which
	// allocations bypass the block layer for the mmap path.
	LargeThreshold uintptr

	// GrowthArenaCapacity bounds the mmapBreakSource's single reservation
	// (see growth.go) — the emulated program break can never advance
	// past it, mirroring a real kernel eventually refusing sbrk.
	GrowthArenaCapacity uintptr
}

// Option mutates a Config during construction.
type Option func(*Config)

func defaultConfig() *Config {
	return &Config{
		StaticHeapBytes:     4096,
		LargeThreshold:      128 * 1024,
		GrowthArenaCapacity: 256 * 1024 * 1024,
	}
}

// WithStaticHeapBytes overrides the embedded static heap's size.
func WithStaticHeapBytes(n uintptr) Option {
	return func(c *Config) { c.StaticHeapBytes = n }
}

// WithLargeThreshold overrides the large-mapping threshold.
func WithLargeThreshold(n uintptr) Option {
	return func(c *Config) { c.LargeThreshold = n }
}

// WithGrowthArenaCapacity overrides the growth break-source's reservation
// size.
func WithGrowthArenaCapacity(n uintptr) Option {
	return func(c *Config) { c.GrowthArenaCapacity = n }
}

// Allocator packages all of the allocator's process-wide state as a value:
// the static heap array, the region bounds, the free-list heads, and the
// large-mapping registry, instead of package-level variables. It is not
// safe for concurrent use — this is a single-threaded allocator by design,
// not an oversight.
type Allocator struct {
	cfg Config

	staticHeap []byte
	region     region
	freeList   freeList
	brk        breakSource

	largeRegistry largeRegistry

	stats Stats
}

// NewAllocator builds an allocator from the given options, applied over
// the package defaults (4096-byte static heap, 128 KiB large threshold).
func NewAllocator(opts ...Option) (*Allocator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.StaticHeapBytes < minBlockSize {
		return nil, newHeapError(CategoryValidation,
			"static heap bytes (%d) must be at least %d", cfg.StaticHeapBytes, minBlockSize)
	}

	if cfg.LargeThreshold == 0 {
		return nil, newHeapError(CategoryValidation, "large threshold must be non-zero")
	}

	buf := make([]byte, cfg.StaticHeapBytes)
	start := uintptr(unsafe.Pointer(&buf[0]))

	a := &Allocator{
		cfg:        *cfg,
		staticHeap: buf,
		region: region{
			staticStart: start,
			wavefront:   start,
			staticEnd:   start + cfg.StaticHeapBytes,
		},
		brk: newMmapBreakSource(cfg.GrowthArenaCapacity),
	}

	return a, nil
}

// Close releases the growth arena's kernel mapping, if one was ever
// reserved. It does not unmap any large allocation still outstanding;
// callers must free those first.
func (a *Allocator) Close() error {
	if m, ok := a.brk.(*mmapBreakSource); ok {
		return m.close()
	}

	return nil
}

// Allocate returns either nil or a word-aligned pointer to at least n
// usable bytes. n == 0 returns nil; zero-byte allocations are not supported.
func (a *Allocator) Allocate(n uintptr) unsafe.Pointer {
	if n == 0 {
		return nil
	}

	aligned := alignUp(n, wordSize)

	if aligned >= a.cfg.LargeThreshold {
		payload := a.allocateLarge(aligned)
		if payload == 0 {
			return nil
		}

		a.stats.recordAlloc(blockSize(blockOfPayload(payload)), true)

		return unsafe.Pointer(payload) //nolint:govet // intentional: see block.go
	}

	total := headerSize + aligned + footerSize
	if total < minBlockSize {
		total = minBlockSize
	}

	if b := a.findFit(total); b != 0 {
		a.freeList.remove(b)

		sz := a.split(b, total)
		setupBlock(b, sz, true)
		a.stats.recordAlloc(sz, false)

		return unsafe.Pointer(payloadOf(b))
	}

	if a.region.wavefront+total <= a.region.staticEnd {
		b := a.region.wavefront
		setupBlock(b, total, true)
		a.region.wavefront += total
		a.stats.recordAlloc(total, false)

		return unsafe.Pointer(payloadOf(b))
	}

	payload := a.growHeap(total)
	if payload == 0 {
		return nil
	}

	a.stats.recordAlloc(total, false)

	return unsafe.Pointer(payload)
}

// Free accepts nil (a no-op) or a pointer previously returned by Allocate
// and not yet freed. Any other pointer is undefined behavior — no
// detection is attempted.
func (a *Allocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}

	b := blockOfPayload(uintptr(p))

	if blockLarge(b) {
		sz := blockSize(b)
		a.freeLarge(b)
		a.stats.recordFree(sz, true)

		return
	}

	sz := blockSize(b)
	setupBlock(b, sz, false)

	merged := a.coalesce(b)
	a.freeList.insert(merged)
	a.stats.recordFree(sz, false)
}

// LargeMappingInfo describes one active large allocation, for
// introspection only — enumerating this list never affects allocate/free.
type LargeMappingInfo struct {
	Address uintptr
	Size    uintptr
}

// LargeAllocations returns a snapshot of the large-mapping registry.
func (a *Allocator) LargeAllocations() []LargeMappingInfo {
	var out []LargeMappingInfo

	for cur := a.largeRegistry.head; cur != nil; cur = cur.next {
		out = append(out, LargeMappingInfo{Address: cur.addr, Size: cur.size})
	}

	return out
}

// StaticHeapBounds reports the current region bounds, for introspection
// and testing — never consulted by allocate/free themselves.
func (a *Allocator) StaticHeapBounds() (start, wavefront, end uintptr) {
	return a.region.staticStart, a.region.wavefront, a.region.staticEnd
}

// Gap reports the allocator's single gap, if one has been created.
func (a *Allocator) Gap() (start, end uintptr, ok bool) {
	return a.region.gapStart, a.region.gapEnd, a.region.hasGap
}
