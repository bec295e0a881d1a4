package heap

import "unsafe"

// GlobalAllocator is a package-scope default allocator: a convenience for
// callers that want a single process-wide instance instead of threading an
// *Allocator through explicitly. It is nil until Initialize is called.
var GlobalAllocator *Allocator

// Initialize constructs the global allocator. Safe to call once at
// startup, before any call to Allocate/Free below.
func Initialize(opts ...Option) error {
	a, err := NewAllocator(opts...)
	if err != nil {
		return err
	}

	GlobalAllocator = a

	return nil
}

// Allocate allocates from the global allocator.
func Allocate(n uintptr) unsafe.Pointer {
	if GlobalAllocator == nil {
		panic("heap: GlobalAllocator not initialized")
	}

	return GlobalAllocator.Allocate(n)
}

// Free frees a pointer allocated from the global allocator.
func Free(p unsafe.Pointer) {
	if GlobalAllocator == nil {
		panic("heap: GlobalAllocator not initialized")
	}

	GlobalAllocator.Free(p)
}

// GetStats returns the global allocator's statistics.
func GetStats() Stats {
	if GlobalAllocator == nil {
		return Stats{}
	}

	return GlobalAllocator.Stats()
}
