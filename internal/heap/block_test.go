package heap

import (
	"testing"
	"unsafe"
)

func TestBlockPrimitives(t *testing.T) {
	t.Run("HeaderRoundTrip", func(t *testing.T) {
		buf := make([]byte, 256)
		b := uintptr(unsafe.Pointer(&buf[0]))

		setupBlock(b, 64, true)

		if got := blockSize(b); got != 64 {
			t.Errorf("blockSize = %d, want 64", got)
		}

		if !blockUsed(b) {
			t.Error("blockUsed = false, want true")
		}

		if blockLarge(b) {
			t.Error("blockLarge = true, want false")
		}

		if got := loadWord(footer(b)); got != loadWord(b) {
			t.Errorf("footer word %#x != header word %#x", got, loadWord(b))
		}
	})

	t.Run("Navigation", func(t *testing.T) {
		buf := make([]byte, 256)
		base := uintptr(unsafe.Pointer(&buf[0]))

		setupBlock(base, 64, false)
		next := nextPhysical(base)
		setupBlock(next, 96, true)

		if got := prevPhysical(next); got != base {
			t.Errorf("prevPhysical(next) = %#x, want %#x", got, base)
		}

		if got := nextPhysical(base); got != next {
			t.Errorf("nextPhysical(base) = %#x, want %#x", got, next)
		}
	})

	t.Run("PayloadRoundTrip", func(t *testing.T) {
		buf := make([]byte, 256)
		b := uintptr(unsafe.Pointer(&buf[0]))

		setupBlock(b, 64, true)
		p := payloadOf(b)

		if got := blockOfPayload(p); got != b {
			t.Errorf("blockOfPayload(payloadOf(b)) = %#x, want %#x", got, b)
		}
	})

	t.Run("AlignUp", func(t *testing.T) {
		cases := []struct{ n, align, want uintptr }{
			{0, 8, 0},
			{1, 8, 8},
			{7, 8, 8},
			{8, 8, 8},
			{9, 8, 16},
			{4096, 4096, 4096},
			{4097, 4096, 8192},
		}

		for _, c := range cases {
			if got := alignUp(c.n, c.align); got != c.want {
				t.Errorf("alignUp(%d, %d) = %d, want %d", c.n, c.align, got, c.want)
			}
		}
	})
}
