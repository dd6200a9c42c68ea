package ringbuffer

import (
	"testing"

	"github.com/NOT-REAL-GAMES/bindless/engine/elog"
)

// newTestRing builds a RingBuffer without a live device, standing in the
// plain byte slice a persistently mapped device.Buffer would otherwise
// supply. Offset/reclaim bookkeeping never touches the GPU, so this is
// enough to exercise it in isolation.
func newTestRing(size uint64, frameQueueLength int) *RingBuffer {
	return &RingBuffer{
		name:             "test",
		size:             size,
		frameQueueLength: frameQueueLength,
		bytes:            make([]byte, size),
		frameStarts:      make([]uint64, frameQueueLength),
		log:              elog.Default(),
	}
}

// TestNonOverlappingAcrossFrameQueue covers testable property 6: offsets
// handed out in frame k and frame k+2 (FrameQueueLength == 2) must occupy
// disjoint byte ranges so the CPU never overwrites transient data the GPU
// may still be reading.
func TestNonOverlappingAcrossFrameQueue(t *testing.T) {
	r := newTestRing(4096, 2)

	type alloc struct {
		frame  int
		offset uint64
		size   uint64
	}
	var allocs []alloc

	for frame := 0; frame < 4; frame++ {
		r.StartFrame()
		slice, offset, ok := r.Allocate(100, 1)
		if !ok {
			t.Fatalf("frame %d: allocate failed unexpectedly", frame)
		}
		if uint64(len(slice)) != 100 {
			t.Fatalf("frame %d: got slice of length %d, want 100", frame, len(slice))
		}
		allocs = append(allocs, alloc{frame: frame, offset: offset, size: 100})
	}

	for i := range allocs {
		for j := range allocs {
			if i == j || allocs[i].frame+2 != allocs[j].frame {
				continue
			}
			a, b := allocs[i], allocs[j]
			if a.offset < b.offset+b.size && b.offset < a.offset+a.size {
				t.Fatalf("frame %d range [%d,%d) overlaps frame %d range [%d,%d)",
					a.frame, a.offset, a.offset+a.size, b.frame, b.offset, b.offset+b.size)
			}
		}
	}
}

// TestOverflowFailsSoftAtBufferEnd mirrors the ring-buffer scenario where a
// buffer is exactly filled in its first frame: a further allocation must
// fail soft (returning ok == false) rather than silently wrapping into a
// region this same frame has already claimed.
func TestOverflowFailsSoftAtBufferEnd(t *testing.T) {
	r := newTestRing(128*1024, 2)
	r.StartFrame()

	if _, offset, ok := r.Allocate(64*1024, 1); !ok || offset != 0 {
		t.Fatalf("first allocate: got offset=%d ok=%v, want offset=0 ok=true", offset, ok)
	}
	if _, offset, ok := r.Allocate(64*1024, 1); !ok || offset != 64*1024 {
		t.Fatalf("second allocate: got offset=%d ok=%v, want offset=%d ok=true", offset, ok, 64*1024)
	}
	if _, _, ok := r.Allocate(1024, 1); ok {
		t.Fatalf("third allocate: expected soft failure once the buffer is exhausted")
	}

	// Once two more frames have started, the first frame's region has
	// retired and allocation resumes from its old start.
	r.StartFrame()
	r.StartFrame()
	if _, offset, ok := r.Allocate(1024, 1); !ok || offset != 0 {
		t.Fatalf("allocate after two frames: got offset=%d ok=%v, want offset=0 ok=true", offset, ok)
	}
}

// TestOnOverflowCallback verifies the overflow hook fires exactly when
// Allocate fails soft, carrying the ring's name.
func TestOnOverflowCallback(t *testing.T) {
	r := newTestRing(16, 1)
	r.StartFrame()

	var got string
	calls := 0
	r.OnOverflow(func(ring string) {
		calls++
		got = ring
	})

	if _, _, ok := r.Allocate(8, 1); !ok {
		t.Fatalf("expected first allocate to succeed")
	}
	if calls != 0 {
		t.Fatalf("onOverflow fired on a successful allocate")
	}

	if _, _, ok := r.Allocate(32, 1); ok {
		t.Fatalf("expected oversized allocate to fail soft")
	}
	if calls != 1 {
		t.Fatalf("got %d onOverflow calls, want 1", calls)
	}
	if got != "test" {
		t.Fatalf("onOverflow got ring name %q, want %q", got, "test")
	}
}
