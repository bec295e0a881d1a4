package heap

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// largeRecord tracks one active large (mmap-backed) allocation. data keeps
// the mapping's backing slice reachable so it can be handed back to
// unix.Munmap on free; large blocks have no footer and never enter the
// free-list index.
type largeRecord struct {
	addr uintptr
	size uintptr
	data []byte

	next, prev *largeRecord
}

// largeRegistry is the side list of active large mappings, used only for
// enumeration, so removal is an acceptable O(n) walk.
type largeRegistry struct {
	head, tail *largeRecord
}

func (lr *largeRegistry) add(rec *largeRecord) {
	rec.prev = lr.tail
	rec.next = nil

	if lr.tail != nil {
		lr.tail.next = rec
	} else {
		lr.head = rec
	}

	lr.tail = rec
}

func (lr *largeRegistry) remove(rec *largeRecord) {
	if rec.prev != nil {
		rec.prev.next = rec.next
	} else {
		lr.head = rec.next
	}

	if rec.next != nil {
		rec.next.prev = rec.prev
	} else {
		lr.tail = rec.prev
	}

	rec.next, rec.prev = nil, nil
}

func (lr *largeRegistry) find(addr uintptr) *largeRecord {
	for cur := lr.head; cur != nil; cur = cur.next {
		if cur.addr == addr {
			return cur
		}
	}

	return nil
}

// allocateLarge maps `requested` bytes (already aligned) directly from the
// kernel, bypassing the block layer entirely. Returns the payload address,
// or 0 on mapping failure.
func (a *Allocator) allocateLarge(requested uintptr) uintptr {
	ps := a.brk.pageSize()
	total := headerSize + requested
	mapSize := alignUp(total, ps)

	data, err := unix.Mmap(-1, 0, int(mapSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return 0
	}

	addr := uintptr(unsafe.Pointer(&data[0]))
	setHeader(addr, mapSize, true, true)

	a.largeRegistry.add(&largeRecord{addr: addr, size: mapSize, data: data})

	return payloadOf(addr)
}

// freeLarge releases a block whose large flag is set: remove its registry
// record, then unmap exactly its start and size. A block address missing
// from the registry means p was not a pointer this allocator's large path
// returned (double-free or corruption); that is undefined behavior, so
// this is a silent no-op rather than a detection attempt.
func (a *Allocator) freeLarge(b uintptr) {
	rec := a.largeRegistry.find(b)
	if rec == nil {
		return
	}

	a.largeRegistry.remove(rec)
	_ = unix.Munmap(rec.data)
}
