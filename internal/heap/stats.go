package heap

// Stats reports allocator-wide counters, plus the derived BytesInUse
// value. None of it feeds back into allocate/free.
type Stats struct {
	AllocationCount uint64
	FreeCount       uint64

	BytesAllocated uintptr
	BytesFreed     uintptr

	LargeAllocationCount uint64
	LargeFreeCount       uint64
	LargeBytesMapped     uintptr
}

// BytesInUse is the difference between everything ever handed out and
// everything ever freed, across both the block layer and the large path.
func (s Stats) BytesInUse() uintptr {
	return (s.BytesAllocated - s.BytesFreed)
}

func (s *Stats) recordAlloc(blockBytes uintptr, large bool) {
	s.AllocationCount++
	s.BytesAllocated += blockBytes

	if large {
		s.LargeAllocationCount++
		s.LargeBytesMapped += blockBytes
	}
}

func (s *Stats) recordFree(blockBytes uintptr, large bool) {
	s.FreeCount++
	s.BytesFreed += blockBytes

	if large {
		s.LargeFreeCount++
		s.LargeBytesMapped -= blockBytes
	}
}

// Stats returns a snapshot of the allocator's counters.
func (a *Allocator) Stats() Stats {
	return a.stats
}
