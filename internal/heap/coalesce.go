package heap

// coalesce merges a just-freed block with whichever physical neighbors are
// themselves free, returning the (possibly different) address of the
// merged block. The caller must use the returned address for any
// subsequent free-list insertion — coalescing is the one place block
// identity can change across an operation.
//
// b must already have its used bit cleared and its footer refreshed; this
// mirrors algorithms.h's coalesce() in the original C source this module
// was ported from.
func (a *Allocator) coalesce(b uintptr) uintptr {
	next := nextPhysical(b)
	nextFree := a.region.validHeapAddress(next) && !blockUsed(next)

	atRegionBoundary := b == a.region.staticStart ||
		(a.region.hasGap && b == a.region.gapEnd)

	var prev uintptr

	prevFree := false

	if !atRegionBoundary {
		prevFooterAddr := b - footerSize
		// Guard the footer read: a block sitting right after the gap or
		// at static_start has no readable predecessor, and reading one
		// word before it could land inside the gap or before
		// static_start. Skipping this check is memory-safety-critical.
		if a.region.validHeapAddress(prevFooterAddr) {
			candidate := prevPhysical(b)
			if a.region.validHeapAddress(candidate) && !blockUsed(candidate) {
				prev = candidate
				prevFree = true
			}
		}
	}

	newSize := blockSize(b)

	if nextFree {
		a.freeList.remove(next)
		newSize += blockSize(next)
	}

	if prevFree {
		a.freeList.remove(prev)
		newSize += blockSize(prev)
		b = prev
	}

	setupBlock(b, newSize, false)

	return b
}
