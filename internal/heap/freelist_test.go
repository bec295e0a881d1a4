package heap

import (
	"testing"
	"unsafe"
)

func TestFreeListIndex(t *testing.T) {
	t.Run("BucketIndex", func(t *testing.T) {
		cases := []struct {
			size uintptr
			want int
		}{
			{1, 0}, {32, 0},
			{33, 1}, {64, 1},
			{65, 2}, {128, 2},
			{129, 3}, {256, 3},
			{257, 4}, {512, 4},
			{513, 5}, {1 << 20, 5},
		}

		for _, c := range cases {
			if got := bucketIndex(c.size); got != c.want {
				t.Errorf("bucketIndex(%d) = %d, want %d", c.size, got, c.want)
			}
		}
	})

	t.Run("InsertRemoveLIFO", func(t *testing.T) {
		buf := make([]byte, 1024)
		base := uintptr(unsafe.Pointer(&buf[0]))

		var fl freeList

		var blocks []uintptr

		addr := base
		for i := 0; i < 3; i++ {
			setupBlock(addr, 64, false)
			blocks = append(blocks, addr)
			fl.insert(addr)
			addr += 64
		}

		// LIFO: most recently inserted comes out first.
		idx := bucketIndex(64)
		if fl.heads[idx] != blocks[2] {
			t.Fatalf("head = %#x, want most recent insert %#x", fl.heads[idx], blocks[2])
		}

		fl.remove(blocks[1])

		// Removing the middle block must preserve the other two's linkage.
		if got := freeNext(blocks[2]); got != blocks[0] {
			t.Errorf("after removing middle, next(head) = %#x, want %#x", got, blocks[0])
		}

		if got := freePrev(blocks[0]); got != blocks[2] {
			t.Errorf("after removing middle, prev(tail) = %#x, want %#x", got, blocks[2])
		}

		fl.remove(blocks[2])
		if fl.heads[idx] != blocks[0] {
			t.Fatalf("after removing head, new head = %#x, want %#x", fl.heads[idx], blocks[0])
		}

		fl.remove(blocks[0])
		if fl.heads[idx] != 0 {
			t.Fatalf("list should be empty, head = %#x", fl.heads[idx])
		}
	})
}
