package heap

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// breakSource abstracts the "program break" the heap-growth driver
// advances. sbrk reports the previous break address on success (the
// caller's new region begins there), or ok=false on failure — the same
// shape as the real sbrk(2) returning (void*)-1.
type breakSource interface {
	sbrk(increment uintptr) (addr uintptr, ok bool)
	pageSize() uintptr
}

// mmapBreakSource emulates program-break advancement with a single
// anonymous private mapping, reserved lazily on first use. Go programs
// cannot call brk(2)/sbrk(2) directly without racing the Go runtime's own
// heap (which grows itself via mmap, not brk); reserving one mapping and
// walking a monotonic offset through it is the idiomatic substitute, and
// it gives the two guarantees the heap-growth driver needs: the first
// advance is never contiguous with the statically-embedded heap (different
// backing allocation entirely), and every later advance is always
// contiguous with the one before it (same mapping, offset only grows).
type mmapBreakSource struct {
	capacity  uintptr
	base      uintptr
	committed uintptr
	mapped    []byte
	pgSize    uintptr
}

func newMmapBreakSource(capacity uintptr) *mmapBreakSource {
	ps := uintptr(unix.Getpagesize())
	if ps == 0 {
		ps = 4096
	}

	return &mmapBreakSource{capacity: capacity, pgSize: ps}
}

func (m *mmapBreakSource) ensureMapped() bool {
	if m.mapped != nil {
		return true
	}

	data, err := unix.Mmap(-1, 0, int(m.capacity), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return false
	}

	m.mapped = data
	m.base = uintptr(unsafe.Pointer(&data[0]))

	return true
}

func (m *mmapBreakSource) sbrk(increment uintptr) (uintptr, bool) {
	if !m.ensureMapped() {
		return 0, false
	}

	if m.committed+increment > m.capacity {
		return 0, false
	}

	addr := m.base + m.committed
	m.committed += increment

	return addr, true
}

func (m *mmapBreakSource) pageSize() uintptr {
	return m.pgSize
}

// close releases the reservation. The program break is never contracted
// mid-run; this only runs when the allocator itself is torn down.
func (m *mmapBreakSource) close() error {
	if m.mapped == nil {
		return nil
	}

	err := unix.Munmap(m.mapped)
	m.mapped = nil

	return err
}

// growHeap is invoked when no free block fits and the wavefront has no
// room left in the currently-owned region. It rounds the request up to a
// page multiple, advances the break, creates the gap on the first
// non-contiguous advance (rescuing any trailing static-heap slack into a
// free block first), and carves the requested block at the new wavefront.
// Returns the payload address, or 0 on out-of-memory.
func (a *Allocator) growHeap(need uintptr) uintptr {
	ps := a.brk.pageSize()

	sizeToAlloc := need
	if sizeToAlloc < ps {
		sizeToAlloc = ps
	}

	grown := alignUp(sizeToAlloc, ps)

	addr, ok := a.brk.sbrk(grown)
	if !ok {
		return 0
	}

	if addr == a.region.staticEnd {
		a.region.staticEnd += grown
	} else {
		if a.region.hasGap {
			// A second non-contiguous growth violates the allocator's
			// single-gap design: treated as a bug, not a recoverable error.
			panic(newHeapError(CategoryInternal,
				"heap growth returned a second non-contiguous region at %#x (gap already established at [%#x,%#x))",
				addr, a.region.gapStart, a.region.gapEnd))
		}

		slack := a.region.staticEnd - a.region.wavefront
		if slack >= minBlockSize {
			rest := a.region.wavefront
			setupBlock(rest, slack, false)
			a.freeList.insert(rest)
			a.region.gapStart = a.region.staticEnd
		} else {
			// Slack smaller than minBlockSize can't form a valid block and
			// is lost, swallowed into the gap.
			a.region.gapStart = a.region.wavefront
		}

		a.region.gapEnd = addr
		a.region.hasGap = true
		a.region.wavefront = addr
		a.region.staticEnd = addr + grown
	}

	block := a.region.wavefront
	setupBlock(block, need, true)
	a.region.wavefront += need

	return payloadOf(block)
}
