package main

import (
	"flag"
	"fmt"
	"os"
	"time"
	"unsafe"

	"github.com/Anaconda04777/heapalloc/internal/cli"
	"github.com/Anaconda04777/heapalloc/internal/heap"
)

// ptrFromUintptr and uintptrFromPtr cross the unsafe.Pointer/uintptr
// boundary only to store outstanding allocations' addresses in the ring
// buffer between cycles; the allocator itself never sees these as
// anything but the unsafe.Pointer values it handed out.
func ptrFromUintptr(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr) //nolint:govet // see comment above
}

func uintptrFromPtr(p unsafe.Pointer) uintptr {
	return uintptr(p)
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version information")
		jsonOutput  = flag.Bool("json", false, "output version in JSON format")
		staticBytes = flag.Int("static-bytes", 4096, "size of the embedded static heap")
		threshold   = flag.Int("large-threshold", 128*1024, "aligned request size at or above which allocations use the mmap path")
		arena       = flag.Int("arena-capacity", 256*1024*1024, "capacity of the growth arena reservation")
		count       = flag.Int("count", 10000, "number of allocate/free cycles to run")
		minSize     = flag.Int("min-size", 16, "smallest request size in bytes")
		maxSize     = flag.Int("max-size", 4096, "largest request size in bytes")
		verbose     = flag.Bool("verbose", false, "verbose output")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Exercises an internal/heap allocator with a synthetic allocate/free workload and reports its stats.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		cli.PrintVersion("heapbench", *jsonOutput)
		os.Exit(0)
	}

	logger := cli.NewLogger(*verbose, false)

	bench := &Bench{
		StaticBytes: uintptr(*staticBytes),
		Threshold:   uintptr(*threshold),
		ArenaBytes:  uintptr(*arena),
		Count:       *count,
		MinSize:     uintptr(*minSize),
		MaxSize:     uintptr(*maxSize),
		Logger:      logger,
	}

	result, err := bench.Run()
	if err != nil {
		cli.ExitWithError("heapbench failed: %v", err)
	}

	result.Print()
}

// Bench drives a single allocator instance through a synthetic workload:
// a ring of outstanding allocations is kept at a roughly constant size,
// with each cycle freeing the oldest entry and allocating a new one of a
// pseudo-varying size. The size sequence is derived deterministically from
// the cycle index rather than math/rand, so a run is exactly reproducible.
type Bench struct {
	StaticBytes uintptr
	Threshold   uintptr
	ArenaBytes  uintptr
	Count       int
	MinSize     uintptr
	MaxSize     uintptr
	Logger      *cli.Logger
}

// Result reports how a Bench run went.
type Result struct {
	Cycles   int
	Elapsed  time.Duration
	GapSeen  bool
	LargeOps int
	Stats    heap.Stats
}

func (r *Result) Print() {
	fmt.Printf("cycles:            %d\n", r.Cycles)
	fmt.Printf("elapsed:           %s\n", r.Elapsed)
	fmt.Printf("growth gap seen:   %t\n", r.GapSeen)
	fmt.Printf("large allocations: %d\n", r.LargeOps)
	fmt.Printf("allocate calls:    %d\n", r.Stats.AllocationCount)
	fmt.Printf("free calls:        %d\n", r.Stats.FreeCount)
	fmt.Printf("bytes in use:      %d\n", r.Stats.BytesInUse())
	fmt.Printf("bytes mapped (lg): %d\n", r.Stats.LargeBytesMapped)
}

const ringSize = 64

func (b *Bench) Run() (*Result, error) {
	a, err := heap.NewAllocator(
		heap.WithStaticHeapBytes(b.StaticBytes),
		heap.WithLargeThreshold(b.Threshold),
		heap.WithGrowthArenaCapacity(b.ArenaBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("constructing allocator: %w", err)
	}

	defer func() {
		if cerr := a.Close(); cerr != nil {
			b.Logger.Warn("closing allocator: %v", cerr)
		}
	}()

	span := b.MaxSize - b.MinSize
	if span == 0 {
		span = 1
	}

	ring := make([]uintptr, ringSize)
	largeOps := 0

	start := time.Now()

	for i := 0; i < b.Count; i++ {
		slot := i % ringSize

		if ring[slot] != 0 {
			a.Free(ptrFromUintptr(ring[slot]))
			ring[slot] = 0
		}

		size := b.MinSize + uintptr(i*7919)%span
		word := unsafe.Sizeof(uintptr(0))
		if (size+word-1)&^(word-1) >= b.Threshold {
			largeOps++
		}

		p := a.Allocate(size)
		if p == nil {
			b.Logger.Warn("cycle %d: allocate(%d) failed", i, size)

			continue
		}

		ring[slot] = uintptrFromPtr(p)

		if b.Logger.Verbose {
			b.Logger.Info("cycle %d: allocated %d bytes", i, size)
		}
	}

	for _, addr := range ring {
		if addr != 0 {
			a.Free(ptrFromUintptr(addr))
		}
	}

	_, _, gapSeen := a.Gap()

	return &Result{
		Cycles:   b.Count,
		Elapsed:  time.Since(start),
		GapSeen:  gapSeen,
		LargeOps: largeOps,
		Stats:    a.Stats(),
	}, nil
}
